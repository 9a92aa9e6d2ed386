// ─────────────────────────────────────────────────────────────────────────────
// [Filename]: dedupe.go — share-submission deduplication ring
//
// Purpose:
//   - Guards submitShare against emitting the same (height, offset, k)
//     share twice. This can otherwise happen when a height change races
//     with an in-flight TYPE_CHECK job: the orchestrator drains the verify
//     queue on cancellation, but jobs already popped by a worker run to
//     completion and may submit (§5 "Cancellation").
//
// Notes:
//   - Fixed-size open-addressed slot array, branchless exact-match test,
//     reorg-window eviction — sized to a mining share's identity
//     (height, offset, k) rather than a per-event log identity.
//
// ⚠️ Check() is called concurrently from every verify worker goroutine
//    (one Deduper is shared across the whole pool), so slot access is
//    guarded by a mutex rather than assuming a single caller.
// ─────────────────────────────────────────────────────────────────────────────

package dedupe

import (
	"sync"

	"github.com/spaolacci/murmur3"

	"github.com/rieforge/gorie/constants"
	"github.com/rieforge/gorie/utils"
)

// Deduper is a circular buffer that tracks recently submitted shares.
type Deduper struct {
	mu  sync.Mutex
	buf [1 << constants.RingBits]shareSlot
}

// shareSlot represents one deduplication entry.
//
//go:align 64
type shareSlot struct {
	height       uint64
	k            uint32
	_            uint32
	tagHi, tagLo uint64
	_            [4]uint64 // pad to 64 bytes
}

// Check tests whether (height, offsetLE, k) is a new share that should be
// submitted. If it is new or the prior entry in its slot has aged out past
// constants.MaxReorg blocks, the slot is updated and Check returns true.
// Safe for concurrent use.
func (d *Deduper) Check(height uint64, offsetLE []byte, k uint32, currentHeight uint64) bool {
	tagHi, tagLo := murmur3.Sum128(offsetLE)
	key := height ^ tagHi ^ (tagLo << 1)

	d.mu.Lock()
	defer d.mu.Unlock()

	slot := &d.buf[utils.Mix64(key)&((1<<constants.RingBits)-1)]

	stale := slot.height > 0 && currentHeight > slot.height && (currentHeight-slot.height) > constants.MaxReorg

	heightMatch := slot.height ^ height
	kMatch := slot.k ^ k
	tagHiMatch := slot.tagHi ^ tagHi
	tagLoMatch := slot.tagLo ^ tagLo
	exactMatch := (heightMatch | uint64(kMatch) | tagHiMatch | tagLoMatch) == 0

	isDuplicate := exactMatch && !stale
	if !isDuplicate {
		*slot = shareSlot{height: height, k: k, tagHi: tagHi, tagLo: tagLo}
	}
	return !isDuplicate
}
