package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStreamDeterministic(t *testing.T) {
	a := NewStream(42, StreamKey("ph", 0))
	b := NewStream(42, StreamKey("ph", 0))

	for i := 0; i < 100; i++ {
		if va, vb := a.NormFloat64(0, 1), b.NormFloat64(0, 1); va != vb {
			t.Fatalf("draw %d differs: %v vs %v", i, va, vb)
		}
	}
}

func TestStreamKeysAreIndependent(t *testing.T) {
	tests := []struct {
		name string
		a, b uint64
	}{
		{"different variable", StreamKey("ph", 0), StreamKey("temp", 0)},
		{"different chunk", StreamKey("ph", 0), StreamKey("ph", 1)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NotEqual(t, tt.a, tt.b)
			sa, sb := NewStream(7, tt.a), NewStream(7, tt.b)
			assert.NotEqual(t, sa.UniformFloat64(0, 1), sb.UniformFloat64(0, 1))
		})
	}
}

func TestStreamDistributions(t *testing.T) {
	s := NewStream(1, 1)
	const n = 20000

	var sumNorm, sumUni, sumBern float64
	for i := 0; i < n; i++ {
		u := s.UniformFloat64(2, 4)
		if u < 2 || u >= 4 {
			t.Fatalf("uniform draw %v outside [2,4)", u)
		}
		sumUni += u
		sumNorm += s.NormFloat64(10, 2)
		sumBern += s.BernoulliFloat64(0.3)
	}

	assert.InDelta(t, 10, sumNorm/n, 0.1)
	assert.InDelta(t, 3, sumUni/n, 0.05)
	assert.InDelta(t, 0.3, sumBern/n, 0.02)
}

func TestRandomSeedVaries(t *testing.T) {
	assert.NotEqual(t, RandomSeed(), RandomSeed())
}

func TestRandomSeedSurvivesFloat64(t *testing.T) {
	for i := 0; i < 1000; i++ {
		seed := RandomSeed()
		if seed > MaxRandomSeed {
			t.Fatalf("seed %d above %d", seed, uint64(MaxRandomSeed))
		}
		if got := uint64(float64(seed)); got != seed {
			t.Fatalf("seed %d became %d as a float64", seed, got)
		}
	}
}

func TestMixIsBijectiveOnSample(t *testing.T) {
	seen := make(map[uint64]bool)
	for i := uint64(0); i < 1000; i++ {
		m := Mix(i)
		if seen[m] {
			t.Fatalf("collision at %d", i)
		}
		seen[m] = true
	}
	assert.NotEqual(t, uint64(0), Mix(0))
}
