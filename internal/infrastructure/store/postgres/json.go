package postgres

import (
	"database/sql/driver"
	"fmt"

	sonic "github.com/bytedance/sonic"

	"github.com/Lake-Effect-Labs/leagueengine/internal/domain/scoring"
)

// configJSON adapts scoring.Config to a jsonb column, matching how the
// editable_config/frozen_config columns are declared in the migration. It
// encodes with sonic for consistency with the rest of the engine's JSON
// handling (internal/interfaces/httpapi/response.go). Writes go through
// Config.ToMap (modern keys only); reads go through scoring.ParseConfig, so
// the legacy points_per_workout key is still accepted.
type configJSON scoring.Config

func (c configJSON) Value() (driver.Value, error) {
	b, err := sonic.Marshal(scoring.Config(c).ToMap())
	if err != nil {
		return nil, fmt.Errorf("marshal scoring config: %w", err)
	}
	return b, nil
}

func (c *configJSON) Scan(src any) error {
	b, ok := asBytes(src)
	if !ok {
		return fmt.Errorf("scoring config column is not bytes/string: %T", src)
	}
	if len(b) == 0 {
		return nil
	}
	var raw map[string]any
	if err := sonic.Unmarshal(b, &raw); err != nil {
		return fmt.Errorf("unmarshal scoring config: %w", err)
	}
	*c = configJSON(scoring.ParseConfig(raw))
	return nil
}

// metricsJSON adapts scoring.Metrics to the weekly_scores.metrics jsonb
// column.
type metricsJSON scoring.Metrics

func (m metricsJSON) Value() (driver.Value, error) {
	b, err := sonic.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("marshal weekly score metrics: %w", err)
	}
	return b, nil
}

func (m *metricsJSON) Scan(src any) error {
	b, ok := asBytes(src)
	if !ok {
		return fmt.Errorf("metrics column is not bytes/string: %T", src)
	}
	if len(b) == 0 {
		return nil
	}
	return sonic.Unmarshal(b, m)
}

func asBytes(src any) ([]byte, bool) {
	switch v := src.(type) {
	case []byte:
		return v, true
	case string:
		return []byte(v), true
	case nil:
		return nil, true
	default:
		return nil, false
	}
}
