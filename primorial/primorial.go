// Package primorial builds the fixed wheel P used to align the search base
// on a tuple-admissible residue class, and the per-prime modular inverses
// the offset engine needs to project P-multiples onto each sieving prime.
package primorial

import (
	"fmt"
	"math/big"

	"github.com/rieforge/gorie/constants"
)

// Table holds the immutable startup-computed primorial state. It is read
// concurrently by every mod worker once built and is never mutated again.
type Table struct {
	// P is the product of the first constants.PrimorialNumber primes.
	P *big.Int

	// Primes is the full ascending prime table used to build P and to
	// stratify dense/sparse/once-only tiers.
	Primes []uint64

	// Invert[i] holds P^-1 mod Primes[i] for i >= constants.PrimorialNumber.
	// Entries for i < constants.PrimorialNumber are unused: those primes
	// are factors of P and cannot serve as sieving moduli.
	Invert []uint64
}

// Build constructs P from primes[:constants.PrimorialNumber] and the
// per-prime inverse table for every prime at or beyond that index.
//
// It returns an error if any prime at index >= constants.PrimorialNumber
// shares a factor with P — this cannot happen given a correctly generated prime
// table, since P's only prime factors are primes[:constants.PrimorialNumber]
// themselves, but a corrupted table would otherwise silently produce a
// wrong offset table further downstream.
func Build(primes []uint64) (*Table, error) {
	if len(primes) <= constants.PrimorialNumber {
		return nil, fmt.Errorf("primorial: need more than %d primes, got %d", constants.PrimorialNumber, len(primes))
	}

	P := big.NewInt(1)
	for i := 0; i < constants.PrimorialNumber; i++ {
		P.Mul(P, new(big.Int).SetUint64(primes[i]))
	}

	invert := make([]uint64, len(primes))
	for i := constants.PrimorialNumber; i < len(primes); i++ {
		p := new(big.Int).SetUint64(primes[i])
		inv := new(big.Int).ModInverse(P, p)
		if inv == nil {
			return nil, fmt.Errorf("primorial: P not invertible mod primes[%d]=%d (gcd != 1)", i, primes[i])
		}
		invert[i] = inv.Uint64()
	}

	return &Table{P: P, Primes: primes, Invert: invert}, nil
}
