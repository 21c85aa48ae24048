package id

import "github.com/google/uuid"

// UUIDGenerator emits canonically formatted v4 UUIDs. The engine uses this
// for entity IDs that cross the HTTP boundary (league/member/matchup IDs)
// instead of RandomGenerator's opaque hex, so API responses carry a
// conventional identifier shape.
type UUIDGenerator struct{}

func NewUUIDGenerator() *UUIDGenerator {
	return &UUIDGenerator{}
}

func (g *UUIDGenerator) NewID() (string, error) {
	return uuid.NewString(), nil
}
