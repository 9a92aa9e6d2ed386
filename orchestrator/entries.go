package orchestrator

// entriesPerSegment sizes each iteration's once-only bucket: the average
// once-only hit count per iteration, plus slack to absorb the natural
// variance across iterations without ever overflowing (§9 open question —
// this implementation keeps a proportional slack term rather than the
// original's flat "+1000", since the proportional term scales with
// maxIncrements instead of needing hand-tuning per sieveMax).
func entriesPerSegment(primes []uint64, maxIncrements uint64, maxIter int) int {
	var sum uint64
	for _, p := range primes {
		if p >= maxIncrements {
			sum += 6 * maxIncrements / p
		}
	}
	if maxIter <= 0 {
		return int(sum)
	}
	avg := sum / uint64(maxIter)
	slack := avg/8 + 1024
	return int(avg + slack)
}
