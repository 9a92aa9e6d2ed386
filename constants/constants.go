// ─────────────────────────────────────────────────────────────────────────────
// [Filename]: constants.go — Sieve & Primorial Tunables
//
// Purpose:
//   - Defines the compile-time invariants of the six-tuple search: sieve
//     geometry, primorial base size, tuple bias pattern, and per-worker
//     buffer sizing.
//
// Notes:
//   - These values fix the wire-visible search geometry (a share's offset is
//     measured against them) — do not make them runtime-configurable.
//     Runtime-tunable knobs (thread count, sieve ceiling, tuple threshold)
//     live in package config instead.
//
// ⚠️ No runtime logic here — all values must be compile-time resolvable
// ─────────────────────────────────────────────────────────────────────────────

package constants

// ───────────────────────────── Sieve geometry ──────────────────────────────

const (
	// SieveBits is the log2 width of one sieve iteration.
	SieveBits = 24
	// SieveSize is the number of bit positions swept per iteration.
	SieveSize = 1 << SieveBits
	// SieveWords is SieveSize expressed in 64-bit words.
	SieveWords = SieveSize / 64

	// MaxIncrements bounds the absolute per-block search window.
	MaxIncrements = 1 << 29
	// MaxIter is the number of SieveSize-wide iterations covering MaxIncrements.
	MaxIter = MaxIncrements / SieveSize
)

// ───────────────────────────── Primorial & tuple ───────────────────────────

const (
	// PrimorialNumber is the count of primes multiplied into the primorial P.
	PrimorialNumber = 40

	// DenseLimit separates dense primes (swept inline by the master) from
	// sparse primes (swept by worker threads via the prefetch pipeline).
	DenseLimit = 16384

	// PrimorialOffset is added to the block target so the search base lands
	// on a residue class admissible for the tuple pattern below.
	PrimorialOffset = 16057
)

// TupleOffsets are the successive differences between constellation members:
// (p, p+4, p+6, p+10, p+12, p+16).
var TupleOffsets = [6]uint32{0, 4, 2, 4, 2, 4}

// CumulativeBias returns the offset of member f from the first member.
func CumulativeBias(f int) uint32 {
	var sum uint32
	for i := 0; i <= f; i++ {
		sum += TupleOffsets[i]
	}
	return sum
}

// ───────────────────────────── Buffer sizing ───────────────────────────────

const (
	// PendingSize is the depth of the sieve's prefetch pipeline.
	PendingSize = 16

	// WorkIndexes is the number of candidates batched into one verify job.
	WorkIndexes = 64

	// OffsetStackSize is the per-mod-worker flush threshold for once-only hits.
	OffsetStackSize = 16384
)

// ───────────────────────────── Queue capacities ────────────────────────────

const (
	// VerifyQueueCapacity bounds the shared TYPE_MOD/TYPE_SIEVE/TYPE_CHECK queue.
	VerifyQueueCapacity = 1024
	// AckQueueCapacity bounds the workerDone/testDone acknowledgement queues.
	AckQueueCapacity = 3096
)

// ───────────────────────────── Share dedupe ring ───────────────────────────

const (
	// RingBits sizes the share-submission dedupe ring (see package dedupe).
	RingBits = 14

	// MaxReorg is the height-window past which a stale dedupe slot no longer
	// suppresses a resubmission of the same offset.
	MaxReorg = 8
)

// ───────────────────────────── Startup-derived stratification bounds ──────
// These are not compile-time constants (they depend on the generated prime
// table) but are documented here since they are invariants of the design:
//
//	startingPrimeIndex == PrimorialNumber
//	nDense    = count of primes in [primes[PrimorialNumber], DenseLimit)
//	nSparse   = count of primes in [DenseLimit, MaxIncrements)
//	nOnceOnly = primes >= MaxIncrements
