// Package uuid provides record ID generation backed by UUIDv7.
package uuid

import (
	"fmt"

	"github.com/google/uuid"
)

// Generator implements animal.IDGenerator. UUIDv7 strings sort in creation
// order, which the stores rely on to break fetched_at ties.
type Generator struct{}

// New creates a new Generator.
func New() *Generator {
	return &Generator{}
}

// NewID returns a UUIDv7 string.
func (Generator) NewID() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("generate uuid7: %w", err)
	}
	return id.String(), nil
}
