// Package rng provides the deterministic random streams used by every
// stochastic decision in the simulation kernel. Replaying a seed string
// yields an identical trajectory; ambient randomness is never consulted.
package rng

import (
	"hash/fnv"
	"math"
	"math/rand"
)

// Stream is a reproducible source of uniform doubles derived from a seed
// string. Logical sub-streams (physics vs anomaly generation) are created
// from the same base seed with a distinct suffix so their draws never
// interleave.
type Stream struct {
	seed string
	r    *rand.Rand
}

// New creates a stream for the given seed string.
func New(seed string) *Stream {
	h := fnv.New64a()
	h.Write([]byte(seed))
	return &Stream{seed: seed, r: rand.New(rand.NewSource(int64(h.Sum64())))}
}

// NewSub derives a named sub-stream: same base seed, suffixed purpose.
func NewSub(seed, purpose string) *Stream {
	return New(seed + "_" + purpose)
}

// Seed returns the seed string the stream was created from.
func (s *Stream) Seed() string { return s.seed }

// Float64 returns the next uniform draw in [0,1).
func (s *Stream) Float64() float64 { return s.r.Float64() }

// IntN returns a uniform integer in [0,n), consuming one draw.
func (s *Stream) IntN(n int) int {
	return int(math.Floor(s.r.Float64() * float64(n)))
}

// Range returns a uniform draw in [lo,hi).
func (s *Stream) Range(lo, hi float64) float64 {
	return lo + s.r.Float64()*(hi-lo)
}

// Gaussian returns a normal draw via the Box-Muller transform, consuming
// exactly two uniform draws.
func (s *Stream) Gaussian(mean, stddev float64) float64 {
	u1 := s.r.Float64()
	u2 := s.r.Float64()
	if u1 < 1e-300 {
		u1 = 1e-300
	}
	z := math.Sqrt(-2*math.Log(u1)) * math.Cos(2*math.Pi*u2)
	return mean + stddev*z
}
