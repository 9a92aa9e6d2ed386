// Package offsets computes, for a range of primes, the six per-bias
// positions within the search window where the sieve must mark
// composites — the mod-worker phase of the search engine.
package offsets

import (
	"fmt"
	"math/big"
	"math/bits"
	"sync"

	"github.com/rieforge/gorie/arena"
	"github.com/rieforge/gorie/constants"
	"github.com/rieforge/gorie/primorial"
)

// Worker computes resident offsets and once-only bucket hits for a slice
// of the prime table. One Worker is shared read-only across goroutines;
// UpdateRemainders is safe to call concurrently from different goroutines
// on disjoint [start, end) ranges, serialized only at bucket flush time via
// BucketMu.
type Worker struct {
	Table *primorial.Table
	Arena *arena.Arena

	// ZBase is zTarget + zRemainderPrimorial for the current block.
	ZBase *big.Int

	// ResidentStart is the prime index the Offsets array's slot 0
	// corresponds to (constants.PrimorialNumber in the standard build).
	ResidentStart int

	// MaxIncrements is the absolute per-block search window.
	MaxIncrements uint64

	BucketMu *sync.Mutex
}

// mulmod computes (a*b) mod m using a 128-bit intermediate product,
// avoiding overflow for primes near the top of a 64-bit sieve ceiling.
func mulmod(a, b, m uint64) uint64 {
	hi, lo := bits.Mul64(a, b)
	_, rem := bits.Div64(hi, lo, m)
	return rem
}

// UpdateRemainders implements the mod-worker phase for prime indices
// [start, end): computing r = ZBase mod p, then for each of the six
// constellation biases, the offset at which p first divides a biased
// candidate. Resident primes (p < MaxIncrements) get an entry written
// directly into the arena's Offsets table; once-only primes are staged
// locally and flushed into segment buckets under BucketMu.
func (w *Worker) UpdateRemainders(start, end int) error {
	stack := make([]uint32, 0, constants.OffsetStackSize)

	flush := func() error {
		if len(stack) == 0 {
			return nil
		}
		w.BucketMu.Lock()
		defer w.BucketMu.Unlock()
		for _, x := range stack {
			bucket := x >> constants.SieveBits
			pos := x & (constants.SieveSize - 1)
			cnt := w.Arena.SegmentCounts[bucket]
			if int(cnt) >= len(w.Arena.SegmentHits[bucket]) {
				return fmt.Errorf("offsets: segment bucket %d overflow (capacity %d)", bucket, len(w.Arena.SegmentHits[bucket]))
			}
			w.Arena.SegmentHits[bucket][cnt] = pos
			w.Arena.SegmentCounts[bucket] = cnt + 1
		}
		stack = stack[:0]
		return nil
	}

	pBig := new(big.Int)
	for i := start; i < end; i++ {
		if i < constants.PrimorialNumber {
			// The first m primes are factors of P; they cannot serve as
			// sieving moduli and must never appear in a dispatched range.
			continue
		}

		p := w.Table.Primes[i]
		pBig.SetUint64(p)
		r := new(big.Int).Mod(w.ZBase, pBig).Uint64()
		invert := w.Table.Invert[i]

		var six arena.SixOff
		for f := 0; f < 6; f++ {
			r += uint64(constants.TupleOffsets[f])
			if r > p {
				r -= p
			}
			pa := p - r
			index := mulmod(pa, invert, p)

			if p < w.MaxIncrements {
				six[f] = uint32(index)
			} else if index < w.MaxIncrements {
				stack = append(stack, uint32(index))
				if len(stack) >= constants.OffsetStackSize {
					if err := flush(); err != nil {
						return err
					}
				}
			}
		}

		if p < w.MaxIncrements {
			w.Arena.Offsets[i-w.ResidentStart] = six
		}
	}

	return flush()
}
