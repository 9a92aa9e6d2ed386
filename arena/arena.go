// Package arena provides the once-allocated, block-reused storage for the
// sieve engine: the bitmap words, the offsets table, and the segment
// buckets. All of it lives in one anonymous mmap region so the allocator
// never touches the Go heap or GC on the per-block hot path.
package arena

import (
	"fmt"
	"unsafe"

	"github.com/edsrzf/mmap-go"
)

// SixOff is the six-bias offset vector tracked per resident prime index.
type SixOff [6]uint32

// Arena owns one contiguous anonymous mapping sliced into the sieve
// engine's fixed-size working structures. Nothing in Arena is safe for
// concurrent mutation beyond what each structure's own doc comment
// promises.
type Arena struct {
	region mmap.MMap

	// MainBitmap is the sieveWords-wide merged bitmap for the current
	// iteration, written by the master and by the once-only bucket pass.
	MainBitmap []uint64

	// AuxBitmaps holds one sieveWords-wide scratch bitmap per sparse-stratum
	// sieve worker; each has exactly one writer.
	AuxBitmaps [][]uint64

	// Offsets[i] holds the six resident bias offsets for prime index
	// residentStart+i (residentStart being the first sieving prime index),
	// mutated in place by dense/sparse sieve writers each iteration.
	Offsets []SixOff

	// SegmentHits is segmentHits[loop] = the once-only residues due to land
	// in iteration loop; SegmentCounts is the parallel fill count.
	SegmentHits   [][]uint32
	SegmentCounts []uint32
}

// Layout describes the sizes needed to build an Arena.
type Layout struct {
	SieveWords        int
	SieveWorkers      int
	OffsetsCount      int
	MaxIter           int
	EntriesPerSegment int
}

// New allocates one anonymous mmap region sized to hold every structure in
// layout, then slices it into typed views. The region is zero-filled by
// the kernel, satisfying the "segmentCounts start at zero" and "bitmaps
// start clear" invariants for free.
func New(layout Layout) (*Arena, error) {
	bitmapBytes := layout.SieveWords * 8
	totalBitmaps := 1 + layout.SieveWorkers // main + aux
	offsetsBytes := layout.OffsetsCount * int(unsafe.Sizeof(SixOff{}))
	segmentHitsBytes := layout.MaxIter * layout.EntriesPerSegment * 4
	segmentCountsBytes := layout.MaxIter * 4

	total := totalBitmaps*bitmapBytes + offsetsBytes + segmentHitsBytes + segmentCountsBytes
	if total <= 0 {
		return nil, fmt.Errorf("arena: degenerate layout produced non-positive size %d", total)
	}

	region, err := mmap.MapRegion(nil, total, mmap.RDWR, mmap.ANON, 0)
	if err != nil {
		return nil, fmt.Errorf("arena: anonymous mmap of %d bytes failed: %w", total, err)
	}

	a := &Arena{region: region}

	off := 0
	a.MainBitmap = wordsView(region, off, layout.SieveWords)
	off += bitmapBytes

	a.AuxBitmaps = make([][]uint64, layout.SieveWorkers)
	for i := range a.AuxBitmaps {
		a.AuxBitmaps[i] = wordsView(region, off, layout.SieveWords)
		off += bitmapBytes
	}

	a.Offsets = sixOffView(region, off, layout.OffsetsCount)
	off += offsetsBytes

	a.SegmentHits = make([][]uint32, layout.MaxIter)
	for i := range a.SegmentHits {
		a.SegmentHits[i] = uint32View(region, off, layout.EntriesPerSegment)
		off += layout.EntriesPerSegment * 4
	}

	a.SegmentCounts = uint32View(region, off, layout.MaxIter)
	off += segmentCountsBytes

	return a, nil
}

// Close unmaps the underlying region. It must only be called after every
// worker holding a view into the arena has stopped.
func (a *Arena) Close() error {
	return a.region.Unmap()
}

// ResetForBlock clears the segment fill counts. Bitmap and offsets storage
// are overwritten in place by the next block's mod/sieve passes and need
// no explicit reset.
func (a *Arena) ResetForBlock() {
	for i := range a.SegmentCounts {
		a.SegmentCounts[i] = 0
	}
}

func wordsView(region []byte, offset, n int) []uint64 {
	if n == 0 {
		return nil
	}
	return unsafe.Slice((*uint64)(unsafe.Pointer(&region[offset])), n)
}

func uint32View(region []byte, offset, n int) []uint32 {
	if n == 0 {
		return nil
	}
	return unsafe.Slice((*uint32)(unsafe.Pointer(&region[offset])), n)
}

func sixOffView(region []byte, offset, n int) []SixOff {
	if n == 0 {
		return nil
	}
	return unsafe.Slice((*SixOff)(unsafe.Pointer(&region[offset])), n)
}
