package engine

import "github.com/GoSim-25-26J-441/processline-sim/pkg/utils"

// Seed is the seeding policy of a run. An explicit seed makes the run
// bit-for-bit reproducible; an unseeded run draws a fresh seed each time.
type Seed struct {
	value    uint64
	explicit bool
}

// Seeded returns a reproducible policy.
func Seeded(v uint64) Seed {
	return Seed{value: v, explicit: true}
}

// Unseeded returns a policy that is independent across invocations.
func Unseeded() Seed {
	return Seed{}
}

// SeedFrom maps an optional seed, as found in requests, to a policy.
func SeedFrom(v *uint64) Seed {
	if v == nil {
		return Unseeded()
	}
	return Seeded(*v)
}

// Explicit reports whether the seed was given by the caller.
func (s Seed) Explicit() bool {
	return s.explicit
}

// Resolve returns the concrete seed to run with.
func (s Seed) Resolve() uint64 {
	if s.explicit {
		return s.value
	}
	return utils.RandomSeed()
}

// Pin resolves the policy once so repeated runs share the same draws.
func (s Seed) Pin() Seed {
	return Seeded(s.Resolve())
}
