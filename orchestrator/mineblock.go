package orchestrator

import (
	"math/big"

	"github.com/rieforge/gorie/constants"
	"github.com/rieforge/gorie/control"
	"github.com/rieforge/gorie/debug"
	"github.com/rieforge/gorie/extract"
	"github.com/rieforge/gorie/sieve"
	"github.com/rieforge/gorie/target"
	"github.com/rieforge/gorie/utils"
)

const modChunks = 128

// MineBlock runs the full per-block schedule against w until the search
// window is exhausted or control.Height() moves past w.Height: reset
// bucket counts, dispatch mod jobs and await completion, then for each
// sieve iteration dispatch sparse jobs, sieve the dense stratum inline,
// merge, apply the once-only bucket, extract candidates, and dispatch
// verify jobs. It returns once every dispatched verify job has been
// acknowledged, except those discarded from the queue on a height change
// or shutdown.
func (e *Engine) MineBlock(w target.WorkInfo) {
	zTarget := target.ComputeTarget(w)
	remainder := target.RemainderPrimorial(zTarget, e.table.P, constants.PrimorialOffset)
	zBase := new(big.Int).Add(zTarget, remainder)

	e.stateMu.Lock()
	e.state = blockState{zTarget: zTarget, zBase: zBase, work: w}
	e.stateMu.Unlock()

	e.arena.ResetForBlock()
	e.Stats.recordBlock(uint(zTarget.BitLen()))

	startHeight := w.Height
	control.SetHeight(startHeight)
	debug.DropMessage("BLOCK", debug.BlockTag(w.HeaderBytes[:])+" height="+utils.Utoa(startHeight))

	nPrimes := len(e.table.Primes)
	modJobs := partition(constants.PrimorialNumber, nPrimes, modChunks)
	for _, c := range modJobs {
		e.verifyQueue.PushBack(job{Type: typeMod, ModStart: c.Start, ModEnd: c.End})
	}
	for range modJobs {
		e.workerDone.PopFront()
	}

	pendingCheck := 0

	for loop := 0; loop < constants.MaxIter; loop++ {
		if control.Stale(startHeight) || control.Stopping() {
			break
		}

		// Drain acknowledgements as they arrive rather than waiting until
		// the whole block finishes: testDone is bounded (AckQueueCapacity),
		// and a worker blocked pushing to a full testDone can no longer pop
		// sieve jobs, which deadlocks the master's own workerDone wait below.
		pendingCheck -= e.testDone.Clear()

		for _, aux := range e.arena.AuxBitmaps {
			zeroWords(aux)
		}
		zeroWords(e.arena.MainBitmap)

		sparseJobs := partition(e.nDense, e.nDense+e.nSparse, e.sieveWorkers)
		for idx, c := range sparseJobs {
			e.verifyQueue.PushFront(job{
				Type:        typeSieve,
				SieveAux:    idx % len(e.arena.AuxBitmaps),
				SieveStartI: c.Start,
				SieveEndI:   c.End,
			})
		}

		sieve.Dense(e.arena.MainBitmap, e.arena.Offsets, e.table.Primes, e.residentStart, e.nDense)

		for range sparseJobs {
			e.workerDone.PopFront()
		}

		sieve.Merge(e.arena.MainBitmap, e.arena.AuxBitmaps)

		count := e.arena.SegmentCounts[loop]
		sieve.ApplyOnceOnly(e.arena.MainBitmap, e.arena.SegmentHits[loop], count)

		aborted := extract.Scan(e.arena.MainBitmap, uint32(loop), func() bool {
			return control.Stale(startHeight) || control.Stopping()
		}, func(jb extract.Job) {
			e.verifyQueue.PushBack(job{Type: typeCheck, Check: jb})
			pendingCheck++
			pendingCheck -= e.testDone.Clear()
		})
		if aborted {
			break
		}
	}

	// Only discard outstanding verify jobs on a height change or shutdown:
	// on clean completion every dispatched TYPE_CHECK job has a valid
	// candidate worth Fermat-testing, and dropping them here would silently
	// lose shares. Clearing is reserved for the cases where the queued work
	// no longer matters — the block moved on, or the process is exiting.
	if control.Stale(startHeight) || control.Stopping() {
		pendingCheck -= e.verifyQueue.Clear()
	}
	for pendingCheck > 0 {
		e.testDone.PopFront()
		pendingCheck--
	}
}

func zeroWords(words []uint64) {
	for i := range words {
		words[i] = 0
	}
}
