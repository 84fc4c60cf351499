// Package ids generates identifiers for persisted records.
package ids

import "github.com/google/uuid"

// UUID hands out time-ordered v7 UUIDs, falling back to random v4 ones when
// the v7 generator fails.
type UUID struct{}

func (UUID) NewID() string {
	if id, err := uuid.NewV7(); err == nil {
		return id.String()
	}
	return uuid.NewString()
}
