package primorial

import (
	"math/big"
	"testing"

	"github.com/rieforge/gorie/constants"
	"github.com/rieforge/gorie/primetable"
)

func TestBuildProductOfFirstMPrimes(t *testing.T) {
	primes := []uint64{2, 3, 5, 7, 11, 13, 17, 19, 23}
	// Temporarily reason about a smaller primorial by hand: with the real
	// constants.PrimorialNumber = 40 we need at least that many primes plus
	// a handful more to exercise the inverse table.
	table := primetable.Generate(2000)
	if len(table) <= constants.PrimorialNumber {
		t.Fatalf("need more primes for this test, got %d", len(table))
	}

	tab, err := Build(table)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	want := big.NewInt(1)
	for i := 0; i < constants.PrimorialNumber; i++ {
		want.Mul(want, new(big.Int).SetUint64(table[i]))
	}
	if tab.P.Cmp(want) != 0 {
		t.Fatalf("P mismatch: got %s want %s", tab.P.String(), want.String())
	}
	_ = primes
}

func TestBuildInverseLaw(t *testing.T) {
	table := primetable.Generate(5000)
	tab, err := Build(table)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	for i := constants.PrimorialNumber; i < len(table); i++ {
		p := new(big.Int).SetUint64(table[i])
		lhs := new(big.Int).Mul(tab.P, new(big.Int).SetUint64(tab.Invert[i]))
		lhs.Mod(lhs, p)
		if lhs.Cmp(big.NewInt(1)) != 0 {
			t.Fatalf("inverse law failed at prime index %d (p=%d): (P*invert) mod p = %s, want 1", i, table[i], lhs.String())
		}
	}
}

func TestBuildTooFewPrimes(t *testing.T) {
	if _, err := Build([]uint64{2, 3, 5}); err == nil {
		t.Fatal("expected error when fewer primes than PrimorialNumber are supplied")
	}
}
