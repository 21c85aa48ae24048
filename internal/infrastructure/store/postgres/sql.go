package postgres

import (
	"database/sql"
	"errors"

	"github.com/lib/pq"
)

// uniqueViolation is the SQLSTATE Postgres raises for a unique-constraint
// conflict.
const uniqueViolation = "23505"

// isNotFound reports a not-found result: sql.ErrNoRows is the only
// not-found signal sqlx surfaces from Get/GetContext.
func isNotFound(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}

// isUniqueViolation reports whether err is a Postgres unique-constraint
// violation, the signal InsertIfNotExists uses to turn a duplicate-key race
// into inserted=false instead of an error.
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == uniqueViolation
	}
	return false
}
