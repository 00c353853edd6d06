package engine

import "math/rand"

// defaultSeed is the fixed "zero" seed used when a caller passes seed==0,
// mirroring the lvlath tsp package's seed==0 policy: stable and arbitrary,
// never time-based, so a run is reproducible by construction.
const defaultSeed int64 = 1

// rngFromSeed returns a deterministic *rand.Rand for seed, substituting
// defaultSeed when seed==0.
func rngFromSeed(seed int64) *rand.Rand {
	s := seed
	if s == 0 {
		s = defaultSeed
	}
	return rand.New(rand.NewSource(s))
}

// DeriveSeed mixes a parent seed and a stream id into a new 64-bit seed
// with a SplitMix64-style avalanche finalizer, the same constants lvlath's
// tsp package uses to decorrelate independent substreams (e.g. the MH
// engine's own attempts versus the placement routine's seed-and-grow
// draws) derived from one scenario seed.
func DeriveSeed(parent int64, stream uint64) int64 {
	x := uint64(parent) ^ (stream + 0x9e3779b97f4a7c15)
	x += 0x9e3779b97f4a7c15
	x = (x ^ (x >> 30)) * 0xbf58476d1ce4e5b9
	x = (x ^ (x >> 27)) * 0x94d049bb133111eb
	x ^= x >> 31
	return int64(x)
}
