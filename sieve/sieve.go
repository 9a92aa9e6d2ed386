// Package sieve executes one segmented-sieve iteration: the dense stratum
// inline, the sparse stratum via a prefetch-pipelined worker, and the
// once-only bucket application, then merges every stratum into one
// eliminated-position bitmap.
package sieve

import (
	"github.com/rieforge/gorie/arena"
	"github.com/rieforge/gorie/constants"
)

func setBit(bitmap []uint64, pos uint32) {
	bitmap[pos>>6] |= 1 << (pos & 63)
}

// sortSix insertion-sorts a six-element bias vector ascending. Six is small
// enough that insertion sort beats any general sort.Slice call.
func sortSix(six *arena.SixOff) {
	for i := 1; i < 6; i++ {
		v := six[i]
		j := i - 1
		for j >= 0 && six[j] > v {
			six[j+1] = six[j]
			j--
		}
		six[j+1] = v
	}
}

// Dense sieves resident primes [residentStart, residentStart+nDense) into
// bitmap inline, no prefetch pipeline: dense primes produce hits close
// enough together that the pipeline buys nothing.
func Dense(bitmap []uint64, offsets []arena.SixOff, primes []uint64, residentStart, nDense int) {
	for i := 0; i < nDense; i++ {
		p := uint32(primes[residentStart+i])
		six := &offsets[i]
		sortSix(six)
		for f := 0; f < 6; f++ {
			for six[f] < constants.SieveSize {
				setBit(bitmap, six[f])
				six[f] += p
			}
			six[f] -= constants.SieveSize
		}
	}
}

// SparseRange sieves resident primes at local offset indices [startI, endI)
// into bitmap, using a fixed-depth prefetch ring to amortize the cache miss
// on each write: a newly computed position is staged in the ring and only
// applied once displaced by a later position, buying the memory system time
// to bring the target cache line in. Position 0 doubles as "empty slot" —
// safe because index 0 is the precomputed base itself, never a real hit.
func SparseRange(bitmap []uint64, offsets []arena.SixOff, primes []uint64, residentStart, startI, endI int) {
	var ring [constants.PendingSize]uint32
	slot := 0

	for i := startI; i < endI; i++ {
		p := uint32(primes[residentStart+i])
		six := &offsets[i]
		for f := 0; f < 6; f++ {
			for six[f] < constants.SieveSize {
				if prev := ring[slot]; prev != 0 {
					setBit(bitmap, prev)
				}
				ring[slot] = six[f]
				slot = (slot + 1) % constants.PendingSize
				six[f] += p
			}
			six[f] -= constants.SieveSize
		}
	}

	for _, ent := range ring {
		if ent != 0 {
			setBit(bitmap, ent)
		}
	}
}

// ApplyOnceOnly applies the once-only bucket for one iteration into bitmap,
// via the same prefetch-ring machinery as SparseRange.
func ApplyOnceOnly(bitmap []uint64, hits []uint32, count uint32) {
	var ring [constants.PendingSize]uint32
	slot := 0

	for _, ent := range hits[:count] {
		if prev := ring[slot]; prev != 0 {
			setBit(bitmap, prev)
		}
		ring[slot] = ent
		slot = (slot + 1) % constants.PendingSize
	}

	for _, ent := range ring {
		if ent != 0 {
			setBit(bitmap, ent)
		}
	}
}

// Merge ORs every auxiliary bitmap word-by-word into main. Callers must
// wait for all sparse-stratum workers to finish before calling Merge.
func Merge(main []uint64, aux [][]uint64) {
	for _, a := range aux {
		for i, w := range a {
			main[i] |= w
		}
	}
}
