package orchestrator

import "github.com/rieforge/gorie/constants"

// stratify partitions primes[constants.PrimorialNumber:] into the three
// tiers the sieve engine treats differently: dense (swept inline by the
// master), sparse (swept by worker threads via the prefetch pipeline), and
// once-only (contribute at most one hit per six-bias scan, so they are
// pushed into segment buckets instead of getting resident storage).
func stratify(primes []uint64) (nDense, nSparse, nOnceOnly int) {
	for i := constants.PrimorialNumber; i < len(primes); i++ {
		p := primes[i]
		switch {
		case p < constants.DenseLimit:
			nDense++
		case p < constants.MaxIncrements:
			nSparse++
		default:
			nOnceOnly++
		}
	}
	return
}
