// Package rng provides the deterministic uniform stream that drives demand
// draws. All students are graded against the same draw sequences, so the
// generator must be bit-exact reproducible across platforms: a fixed linear
// congruential recurrence over explicit 64-bit integers, reduced modulo 2^31.
// Determinism is the point; this is not a source of unpredictability.
package rng

// Recurrence constants: state' = (a*state + c) mod 2^31.
const (
	multiplier uint64 = 1103515245
	increment  uint64 = 12345
	modulus    uint64 = 1 << 31
)

// Stream yields reproducible draws in [0,1) from an integer seed.
// A Stream is fully described by (seed, state) and must never be shared
// across concurrent trials.
type Stream struct {
	seed  uint64
	state uint64
}

// New creates a stream from a seed. Negative seeds are folded into the
// modulus range so that any int64 is a valid seed.
func New(seed int64) *Stream {
	s := uint64(seed) % modulus
	if seed < 0 {
		s = modulus - (uint64(-seed) % modulus)
		if s == modulus {
			s = 0
		}
	}
	return &Stream{seed: s, state: s}
}

// Next advances the stream and returns a draw in [0,1).
func (s *Stream) Next() float64 {
	s.state = (multiplier*s.state + increment) % modulus
	return float64(s.state) / float64(modulus)
}

// Reset returns the stream to its initial seed.
func (s *Stream) Reset() {
	s.state = s.seed
}

// Seed returns the normalized seed the stream was built from.
func (s *Stream) Seed() int64 {
	return int64(s.seed)
}

// TrialSeed derives the seed for one trial of a run. The combination is a
// plain sum so trial streams are identical whether trials execute in order,
// out of order, or in parallel.
func TrialSeed(runSeed int64, trial int) int64 {
	return runSeed + int64(trial)
}
