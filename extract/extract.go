// Package extract scans a merged sieve bitmap and emits surviving
// positions in fixed-size batches ready for Fermat verification.
package extract

import (
	"fmt"
	"math/bits"

	"github.com/rieforge/gorie/constants"
)

// Job is one batch of candidate positions from a single sieve iteration,
// sized to constants.WorkIndexes.
type Job struct {
	Loop    uint32
	Indexes []uint32
}

// Scan walks bitmap 64 bits at a time and calls emit with each fully
// populated (or final partial) Job of surviving positions for loop.
// If stale returns true partway through, Scan stops immediately and
// returns true without emitting a further job — the caller is expected to
// then clear its verify queue per the cancellation protocol.
//
// stale is polled once per extracted candidate, not once per word — a
// single dense word can hold up to 64 survivors, and a stale block must
// stop producing verify work as soon as the height changes underneath it.
func Scan(bitmap []uint64, loop uint32, stale func() bool, emit func(Job)) (aborted bool) {
	current := make([]uint32, 0, constants.WorkIndexes)

	flush := func() {
		if len(current) == 0 {
			return
		}
		emit(Job{Loop: loop, Indexes: current})
		current = make([]uint32, 0, constants.WorkIndexes)
	}

	for wordIdx, word := range bitmap {
		free := ^word
		for iter := 0; free != 0; iter++ {
			if iter > 65 {
				panic(fmt.Sprintf("extract: impossible bit count in word %d (cosmic-ray guard tripped)", wordIdx))
			}
			if stale() {
				return true
			}

			clz := bits.LeadingZeros64(free)
			bitPos := 63 - clz
			free &^= 1 << uint(bitPos)

			pos := uint32(wordIdx*64 + bitPos)
			if pos == 0 {
				// Position 0 is the precomputed base itself, excluded by
				// construction — see the prefetch ring's empty-slot trick.
				continue
			}

			current = append(current, pos)
			if len(current) == constants.WorkIndexes {
				flush()
			}
		}
	}

	flush()
	return false
}
