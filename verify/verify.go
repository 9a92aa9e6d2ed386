// Package verify runs the Fermat base-2 primality filter over sieve
// survivors and submits shares for constellations that pass enough of the
// six biases.
package verify

import (
	"math/big"

	"github.com/rieforge/gorie/constants"
	"github.com/rieforge/gorie/target"
)

// ShareSink is the external collaborator a successful constellation is
// reported to; the core never knows the wire protocol, only this
// interface.
type ShareSink interface {
	SubmitShare(handle any, offsetLE [32]byte, kPrimes int)
}

var two = big.NewInt(2)
var one = big.NewInt(1)

// fermat reports whether 2^(n-1) mod n == 1.
func fermat(n *big.Int) bool {
	exp := new(big.Int).Sub(n, one)
	r := new(big.Int).Exp(two, exp, n)
	return r.Cmp(one) == 0
}

// Candidate runs the six-bias Fermat chain for one sieve-surviving
// position and, if it clears tuplesThreshold consecutive members, submits
// a share through sink. It returns the number of consecutive members that
// passed (0 if the base itself failed).
func Candidate(zBase, P *big.Int, loop, j uint32, tuplesThreshold int, handle any, zTarget *big.Int, sink ShareSink) int {
	n := new(big.Int).Set(zBase)

	term := new(big.Int).SetUint64(uint64(loop)*constants.SieveSize + uint64(j))
	term.Mul(term, P)
	n.Add(n, term)

	offset := new(big.Int).Sub(n, zTarget)

	if !fermat(n) {
		return 0
	}
	count := 1

	for f := 1; f < 6; f++ {
		n.Add(n, big.NewInt(int64(constants.TupleOffsets[f])))
		if !fermat(n) {
			break
		}
		count++
	}

	if count >= tuplesThreshold {
		sink.SubmitShare(handle, target.EncodeOffsetLE(offset), count)
	}
	return count
}
