package idgen

import (
	"github.com/oklog/ulid/v2"
)

// ULIDGenerator generates ULID-based IDs.
type ULIDGenerator struct{}

// NewULID creates a new ULIDGenerator.
func NewULID() *ULIDGenerator {
	return &ULIDGenerator{}
}

// Generate generates a new ULID. IDs from one process sort by creation time.
func (g *ULIDGenerator) Generate() string {
	return ulid.Make().String()
}
