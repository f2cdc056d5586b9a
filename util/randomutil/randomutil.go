package randomutil

import (
	"math/rand"
)

// RandomGenerator abstracts the random source so one-shot decisions, like
// the enable-time sampling draw, can be made deterministic in tests.
type RandomGenerator interface {
	GenerateInt63() int64

	// GenerateIntn returns a uniform value in [0, n). n must be > 0.
	GenerateIntn(n int64) int64
}

type RandomNumberGenerator struct{}

func (RandomNumberGenerator) GenerateInt63() int64 {
	return rand.Int63()
}

func (RandomNumberGenerator) GenerateIntn(n int64) int64 {
	return rand.Int63n(n)
}
