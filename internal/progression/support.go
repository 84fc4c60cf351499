package progression

import (
	"math/rand/v2"
	"time"
)

// Clock delivers the current time; extracted for deterministic testing.
type Clock interface {
	Now() time.Time
}

// IDGenerator produces unique identifiers for generated challenges.
type IDGenerator interface {
	NewID() string
}

// NewRandomSource returns a PCG-backed source seeded from the runtime.
func NewRandomSource() RandomSource {
	return rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
}
