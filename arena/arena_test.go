package arena

import "testing"

func testLayout() Layout {
	return Layout{
		SieveWords:        16,
		SieveWorkers:      4,
		OffsetsCount:      100,
		MaxIter:           8,
		EntriesPerSegment: 32,
	}
}

func TestNewSizesViews(t *testing.T) {
	a, err := New(testLayout())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer a.Close()

	if len(a.MainBitmap) != 16 {
		t.Fatalf("MainBitmap len = %d, want 16", len(a.MainBitmap))
	}
	if len(a.AuxBitmaps) != 4 {
		t.Fatalf("AuxBitmaps len = %d, want 4", len(a.AuxBitmaps))
	}
	for _, aux := range a.AuxBitmaps {
		if len(aux) != 16 {
			t.Fatalf("aux bitmap len = %d, want 16", len(aux))
		}
	}
	if len(a.Offsets) != 100 {
		t.Fatalf("Offsets len = %d, want 100", len(a.Offsets))
	}
	if len(a.SegmentHits) != 8 {
		t.Fatalf("SegmentHits len = %d, want 8", len(a.SegmentHits))
	}
	for _, seg := range a.SegmentHits {
		if len(seg) != 32 {
			t.Fatalf("segment len = %d, want 32", len(seg))
		}
	}
	if len(a.SegmentCounts) != 8 {
		t.Fatalf("SegmentCounts len = %d, want 8", len(a.SegmentCounts))
	}
}

func TestNewZeroFilled(t *testing.T) {
	a, err := New(testLayout())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer a.Close()

	for _, w := range a.MainBitmap {
		if w != 0 {
			t.Fatal("MainBitmap should start zero-filled")
		}
	}
	for _, c := range a.SegmentCounts {
		if c != 0 {
			t.Fatal("SegmentCounts should start zero-filled")
		}
	}
}

func TestResetForBlockClearsSegmentCounts(t *testing.T) {
	a, err := New(testLayout())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer a.Close()

	for i := range a.SegmentCounts {
		a.SegmentCounts[i] = 5
	}
	a.ResetForBlock()
	for i, c := range a.SegmentCounts {
		if c != 0 {
			t.Fatalf("SegmentCounts[%d] = %d after reset, want 0", i, c)
		}
	}
}

func TestIndependentWrites(t *testing.T) {
	a, err := New(testLayout())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer a.Close()

	a.MainBitmap[0] = 0xdeadbeef
	a.AuxBitmaps[0][0] = 0xcafebabe
	if a.MainBitmap[0] == a.AuxBitmaps[0][0] {
		t.Fatal("main and aux bitmaps must be independently addressable")
	}
}
