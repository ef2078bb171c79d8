package utils

import (
	crand "crypto/rand"
	"encoding/binary"
	"hash/fnv"
	"math/rand/v2"
	"time"
)

// Stream is a reproducible random stream. A Stream is not safe for
// concurrent use; give every goroutine its own.
type Stream struct {
	rng *rand.Rand
}

// NewStream creates a PCG stream for seed and key. Streams with the same
// seed and different keys are statistically independent.
func NewStream(seed, key uint64) *Stream {
	src := rand.NewPCG(Mix(seed), Mix(key^0x9e3779b97f4a7c15))
	return &Stream{rng: rand.New(src)}
}

// NormFloat64 returns a normally distributed random number with mean and stddev
func (s *Stream) NormFloat64(mean, stddev float64) float64 {
	return s.rng.NormFloat64()*stddev + mean
}

// UniformFloat64 returns a uniformly distributed random number in [min, max)
func (s *Stream) UniformFloat64(min, max float64) float64 {
	return min + s.rng.Float64()*(max-min)
}

// BernoulliFloat64 returns 1.0 with probability p, otherwise 0.0
func (s *Stream) BernoulliFloat64(p float64) float64 {
	if s.rng.Float64() < p {
		return 1.0
	}
	return 0.0
}

// StreamKey derives a stream key from a variable name and a chunk index so
// that each (variable, chunk) pair draws from its own stream.
func StreamKey(name string, chunk int) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(name))
	return Mix(h.Sum64() + uint64(chunk)*0xbf58476d1ce4e5b9)
}

// Mix is the splitmix64 finalizer.
func Mix(x uint64) uint64 {
	x += 0x9e3779b97f4a7c15
	x = (x ^ (x >> 30)) * 0xbf58476d1ce4e5b9
	x = (x ^ (x >> 27)) * 0x94d049bb133111eb
	return x ^ (x >> 31)
}

// MaxRandomSeed bounds the seeds RandomSeed draws. Seeds up to 2^53 survive
// a round trip through a JSON or protobuf double, so a reported seed always
// reproduces its run.
const MaxRandomSeed = 1<<53 - 1

// RandomSeed returns a fresh non-deterministic seed in [0, MaxRandomSeed].
func RandomSeed() uint64 {
	var b [8]byte
	if _, err := crand.Read(b[:]); err != nil {
		return Mix(uint64(time.Now().UnixNano())) & MaxRandomSeed
	}
	return binary.LittleEndian.Uint64(b[:]) & MaxRandomSeed
}
