package sieve

import (
	"testing"

	"github.com/rieforge/gorie/arena"
	"github.com/rieforge/gorie/constants"
)

func bitSet(bitmap []uint64, pos uint32) bool {
	return bitmap[pos>>6]&(1<<(pos&63)) != 0
}

func TestSortSix(t *testing.T) {
	six := arena.SixOff{5, 3, 1, 4, 2, 0}
	sortSix(&six)
	want := arena.SixOff{0, 1, 2, 3, 4, 5}
	if six != want {
		t.Fatalf("sortSix = %v, want %v", six, want)
	}
}

func TestDenseMarksMultiples(t *testing.T) {
	const p = 7
	bitmap := make([]uint64, constants.SieveWords)
	offsets := []arena.SixOff{{2, 0, 0, 0, 0, 0}}
	primes := []uint64{p}

	Dense(bitmap, offsets, primes, 0, 1)

	for pos := uint32(2); pos < constants.SieveSize; pos += p {
		if !bitSet(bitmap, pos) {
			t.Fatalf("expected bit %d set for prime %d", pos, p)
		}
	}
}

func TestDenseWrapsOffsetForNextIteration(t *testing.T) {
	const p = 7
	offsets := []arena.SixOff{{2, 0, 0, 0, 0, 0}}
	primes := []uint64{p}
	bitmap := make([]uint64, constants.SieveWords)

	Dense(bitmap, offsets, primes, 0, 1)

	for _, v := range offsets[0] {
		if v >= constants.SieveSize {
			t.Fatalf("offset %d not wrapped below sieveSize after dense pass", v)
		}
	}
}

func TestSparseRangeMatchesDenseOnSameInput(t *testing.T) {
	const p = 20000 // sparse-range prime, above denseLimit
	primes := []uint64{p}

	denseOffsets := []arena.SixOff{{100, 5000, 15000, 300, 8000, 1}}
	sparseOffsets := []arena.SixOff{{100, 5000, 15000, 300, 8000, 1}}

	denseBitmap := make([]uint64, constants.SieveWords)
	sparseBitmap := make([]uint64, constants.SieveWords)

	Dense(denseBitmap, denseOffsets, primes, 0, 1)
	SparseRange(sparseBitmap, sparseOffsets, primes, 0, 0, 1)

	for i := range denseBitmap {
		if denseBitmap[i] != sparseBitmap[i] {
			t.Fatalf("word %d differs: dense=%x sparse=%x", i, denseBitmap[i], sparseBitmap[i])
		}
	}
}

func TestApplyOnceOnly(t *testing.T) {
	bitmap := make([]uint64, constants.SieveWords)
	hits := []uint32{10, 20, 30, 40}
	ApplyOnceOnly(bitmap, hits, uint32(len(hits)))

	for _, h := range hits {
		if !bitSet(bitmap, h) {
			t.Fatalf("expected bit %d set by ApplyOnceOnly", h)
		}
	}
}

func TestMergeOrsWordwise(t *testing.T) {
	main := []uint64{0, 0}
	aux1 := []uint64{0b0011, 0}
	aux2 := []uint64{0b0100, 0b1}

	Merge(main, [][]uint64{aux1, aux2})

	if main[0] != 0b0111 || main[1] != 0b1 {
		t.Fatalf("Merge result = %v, want [0b0111 0b1]", main)
	}
}
