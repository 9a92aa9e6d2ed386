package offsets

import (
	"math/big"
	"sort"
	"sync"
	"testing"

	"github.com/rieforge/gorie/arena"
	"github.com/rieforge/gorie/constants"
	"github.com/rieforge/gorie/primetable"
	"github.com/rieforge/gorie/primorial"
)

func TestMulmodMatchesBigInt(t *testing.T) {
	cases := []struct{ a, b, m uint64 }{
		{3, 5, 7},
		{123456789, 987654321, 1000000007},
		{0xffffffff, 0xffffffff, 0xfffffffb},
	}
	for _, c := range cases {
		got := mulmod(c.a, c.b, c.m)
		want := new(big.Int).Mod(
			new(big.Int).Mul(new(big.Int).SetUint64(c.a), new(big.Int).SetUint64(c.b)),
			new(big.Int).SetUint64(c.m),
		).Uint64()
		if got != want {
			t.Fatalf("mulmod(%d,%d,%d) = %d, want %d", c.a, c.b, c.m, got, want)
		}
	}
}

func TestUpdateRemaindersOffsetCorrectness(t *testing.T) {
	primes := primetable.Generate(5000)
	table, err := primorial.Build(primes)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	const maxIncrements = 1 << 16
	resident := 0
	for i := constants.PrimorialNumber; i < len(primes); i++ {
		if primes[i] >= maxIncrements {
			break
		}
		resident++
	}

	a, err := arena.New(arena.Layout{
		SieveWords:        16,
		SieveWorkers:      1,
		OffsetsCount:      resident,
		MaxIter:           2,
		EntriesPerSegment: 64,
	})
	if err != nil {
		t.Fatalf("arena.New failed: %v", err)
	}
	defer a.Close()

	zBase := big.NewInt(123456789123)

	w := &Worker{
		Table:         table,
		Arena:         a,
		ZBase:         zBase,
		ResidentStart: constants.PrimorialNumber,
		MaxIncrements: maxIncrements,
		BucketMu:      &sync.Mutex{},
	}

	end := constants.PrimorialNumber + resident
	if err := w.UpdateRemainders(constants.PrimorialNumber, end); err != nil {
		t.Fatalf("UpdateRemainders failed: %v", err)
	}

	for i := constants.PrimorialNumber; i < end; i++ {
		p := primes[i]
		pBig := new(big.Int).SetUint64(p)
		local := i - constants.PrimorialNumber
		six := a.Offsets[local]
		for f := 0; f < 6; f++ {
			lhs := new(big.Int).Set(zBase)
			term := new(big.Int).SetUint64(uint64(six[f]))
			term.Mul(term, table.P)
			lhs.Add(lhs, term)
			lhs.Add(lhs, big.NewInt(int64(constants.CumulativeBias(f))))
			lhs.Mod(lhs, pBig)
			if lhs.Sign() != 0 {
				t.Fatalf("offset correctness failed at prime index %d (p=%d) bias %d: residue=%s", i, p, f, lhs.String())
			}
		}
	}
}

func TestUpdateRemaindersSkipsPrimorialFactors(t *testing.T) {
	primes := primetable.Generate(5000)
	table, err := primorial.Build(primes)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	a, err := arena.New(arena.Layout{
		SieveWords:        16,
		SieveWorkers:      1,
		OffsetsCount:      len(primes),
		MaxIter:           2,
		EntriesPerSegment: 64,
	})
	if err != nil {
		t.Fatalf("arena.New failed: %v", err)
	}
	defer a.Close()

	w := &Worker{
		Table:         table,
		Arena:         a,
		ZBase:         big.NewInt(42),
		ResidentStart: 0,
		MaxIncrements: 1 << 20,
		BucketMu:      &sync.Mutex{},
	}

	// Should not panic or attempt a mod-by-a-factor-of-P for indices < m.
	if err := w.UpdateRemainders(0, constants.PrimorialNumber+10); err != nil {
		t.Fatalf("UpdateRemainders failed: %v", err)
	}
}

// TestUpdateRemaindersOnceOnlyBucketing exercises the once-only path:
// primes p >= MaxIncrements never get a resident Offsets slot, instead
// landing (or not) in a segment bucket depending on whether their computed
// index falls inside the search window. Property #10 requires that fill to
// stay within entriesPerSegment; this drives it with real primes just above
// the window and checks the bucket's exact contents against an independent
// prediction built from the same mulmod primitive UpdateRemainders uses.
func TestUpdateRemaindersOnceOnlyBucketing(t *testing.T) {
	primes := primetable.Generate(2000000)
	table, err := primorial.Build(primes)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	const maxIncrements = 1 << 20

	start := -1
	for i, p := range primes {
		if p >= maxIncrements {
			start = i
			break
		}
	}
	const sample = 20
	if start < 0 || start+sample > len(primes) {
		t.Fatal("fixture prime table too small to find once-only primes above maxIncrements")
	}
	end := start + sample

	const entriesPerSegment = 256
	a, err := arena.New(arena.Layout{
		SieveWords:        16,
		SieveWorkers:      1,
		OffsetsCount:      0,
		MaxIter:           1,
		EntriesPerSegment: entriesPerSegment,
	})
	if err != nil {
		t.Fatalf("arena.New failed: %v", err)
	}
	defer a.Close()

	zBase := big.NewInt(424242424242)

	w := &Worker{
		Table:         table,
		Arena:         a,
		ZBase:         zBase,
		ResidentStart: 0,
		MaxIncrements: maxIncrements,
		BucketMu:      &sync.Mutex{},
	}

	if err := w.UpdateRemainders(start, end); err != nil {
		t.Fatalf("UpdateRemainders failed: %v", err)
	}

	// Predict the exact set of once-only hits using the same mulmod
	// primitive the production code calls, since a single prime's actual
	// hit count (0..6) depends on where its residues fall and isn't a fixed
	// function of p and maxIncrements alone.
	var want []uint32
	for i := start; i < end; i++ {
		p := primes[i]
		pBig := new(big.Int).SetUint64(p)
		r := new(big.Int).Mod(zBase, pBig).Uint64()
		invert := table.Invert[i]
		for f := 0; f < 6; f++ {
			r += uint64(constants.TupleOffsets[f])
			if r > p {
				r -= p
			}
			pa := p - r
			index := mulmod(pa, invert, p)
			if index < maxIncrements {
				want = append(want, uint32(index))
			}
		}
	}
	if len(want) == 0 {
		t.Fatal("prediction found no once-only hits; widen the sample or raise maxIncrements")
	}

	count := int(a.SegmentCounts[0])
	if count > entriesPerSegment {
		t.Fatalf("segment bucket 0 overflowed: count=%d capacity=%d", count, entriesPerSegment)
	}
	if count != len(want) {
		t.Fatalf("segment bucket 0 fill = %d, want %d (predicted once-only hits)", count, len(want))
	}

	got := append([]uint32(nil), a.SegmentHits[0][:count]...)
	sort.Slice(got, func(i, j int) bool { return got[i] < got[j] })
	sort.Slice(want, func(i, j int) bool { return want[i] < want[j] })
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("segment bucket contents mismatch at sorted index %d: got %d want %d", i, got[i], want[i])
		}
	}
}
