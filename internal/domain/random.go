package domain

import (
	"math/rand/v2"
	"sync"
)

var (
	randMu sync.Mutex
	rng    *rand.Rand // nil means the auto-seeded global generator
)

// SetRandSource swaps the generator used for randomized soil fallbacks so
// tests can seed it. Pass nil to reset to the global generator.
func SetRandSource(src rand.Source) {
	randMu.Lock()
	defer randMu.Unlock()
	if src == nil {
		rng = nil
		return
	}
	rng = rand.New(src)
}

// uniform returns a value in [lo, hi) rounded to 2 decimals.
func uniform(lo, hi float64) float64 {
	randMu.Lock()
	defer randMu.Unlock()
	var f float64
	if rng == nil {
		f = rand.Float64()
	} else {
		f = rng.Float64()
	}
	return round2(lo + f*(hi-lo))
}
