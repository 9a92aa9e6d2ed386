// Package orchestrator owns the per-block schedule: it drives the mod
// workers, runs the sieve iteration loop, dispatches verify jobs, and
// watches for a block-height change so it can drain and move on.
package orchestrator

import (
	"fmt"
	"math/big"
	"os"
	"runtime"
	"sync"

	"github.com/rieforge/gorie/arena"
	"github.com/rieforge/gorie/config"
	"github.com/rieforge/gorie/constants"
	"github.com/rieforge/gorie/control"
	"github.com/rieforge/gorie/debug"
	"github.com/rieforge/gorie/dedupe"
	"github.com/rieforge/gorie/extract"
	"github.com/rieforge/gorie/hwtune"
	"github.com/rieforge/gorie/offsets"
	"github.com/rieforge/gorie/primorial"
	"github.com/rieforge/gorie/sieve"
	"github.com/rieforge/gorie/target"
	"github.com/rieforge/gorie/verify"
	"github.com/rieforge/gorie/workqueue"
)

// jobType tags the three kinds of work the shared queue carries.
type jobType int

const (
	typeMod jobType = iota
	typeSieve
	typeCheck
)

// job is the tagged union dispatched to workers. All workers drain the
// same queue and branch on Type, matching the shared-pool design where
// verify capacity is opportunistic rather than dedicated.
type job struct {
	Type jobType

	// typeMod
	ModStart, ModEnd int

	// typeSieve
	SieveAux             int
	SieveStartI, SieveEndI int

	// typeCheck
	Check extract.Job
}

// Stats accumulates run-wide counters surfaced for operational visibility;
// none of it feeds back into the search itself.
type Stats struct {
	mu              sync.Mutex
	BlocksProcessed uint64
	Difficulty      uint
	FoundTuples     [7]uint64 // indexed by kPrimes, 0 unused
}

func (s *Stats) recordBlock(difficultyBits uint) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.BlocksProcessed++
	s.Difficulty = difficultyBits
}

func (s *Stats) recordTuple(k int) {
	if k <= 0 || k >= len(s.FoundTuples) {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.FoundTuples[k]++
}

// Snapshot returns a copy of the current counters.
func (s *Stats) Snapshot() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Stats{BlocksProcessed: s.BlocksProcessed, Difficulty: s.Difficulty, FoundTuples: s.FoundTuples}
}

// Engine is the master orchestrator plus its worker pool: it is
// constructed once at startup (master election is resolved here, at
// construction time, rather than via a runtime race over a shared flag)
// and reused across every block until shutdown.
type Engine struct {
	table *primorial.Table
	arena *arena.Arena

	residentStart int
	nDense        int
	nSparse       int
	nOnceOnly     int

	sieveWorkers int
	threads      int
	tuplesThresh int

	verifyQueue *workqueue.Queue[job]
	workerDone  *workqueue.Queue[struct{}]
	testDone    *workqueue.Queue[struct{}]

	bucketMu sync.Mutex

	sink  verify.ShareSink
	dedup *dedupe.Deduper
	Stats *Stats

	stateMu sync.RWMutex
	state   blockState

	// onCandidate, if set, is invoked with every sieve-surviving (loop,
	// pos) pair just before it is handed to verify.Candidate. Nil in
	// production; tests use it to observe extraction output without
	// threading return values through the worker pool.
	onCandidate func(loop, pos uint32)
}

// New builds an Engine from a startup-computed primorial table and the
// process configuration. It allocates every block-reused arena structure
// once, sized from the stratification of table.Primes.
func New(table *primorial.Table, cfg *config.Config, sink verify.ShareSink) (*Engine, error) {
	nDense, nSparse, nOnceOnly := stratify(table.Primes)
	resident := nDense + nSparse

	entries := entriesPerSegment(table.Primes, constants.MaxIncrements, constants.MaxIter)

	a, err := arena.New(arena.Layout{
		SieveWords:        constants.SieveWords,
		SieveWorkers:      clamp(hwtune.WorkerCount(cfg.Threads)/4, 1, 8),
		OffsetsCount:      resident,
		MaxIter:           constants.MaxIter,
		EntriesPerSegment: entries,
	})
	if err != nil {
		return nil, fmt.Errorf("orchestrator: arena allocation failed: %w", err)
	}

	threads := hwtune.WorkerCount(cfg.Threads)
	sieveWorkers := clamp(threads/4, 1, 8)

	e := &Engine{
		table:         table,
		arena:         a,
		residentStart: constants.PrimorialNumber,
		nDense:        nDense,
		nSparse:       nSparse,
		nOnceOnly:     nOnceOnly,
		sieveWorkers:  sieveWorkers,
		threads:       threads,
		tuplesThresh:  cfg.TuplesThreshold,
		verifyQueue:   workqueue.New[job](constants.VerifyQueueCapacity),
		workerDone:    workqueue.New[struct{}](constants.AckQueueCapacity),
		testDone:      workqueue.New[struct{}](constants.AckQueueCapacity),
		sink:          sink,
		dedup:         &dedupe.Deduper{},
		Stats:         &Stats{},
	}
	return e, nil
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Start launches threads-1 worker goroutines draining the shared job
// queue. Call once at startup before the first MineBlock.
func (e *Engine) Start() {
	workers := e.threads - 1
	if workers < 1 {
		workers = 1
	}
	control.ShutdownWG.Add(workers)
	for i := 0; i < workers; i++ {
		go e.workerLoop(i)
	}
}

// Stop requests graceful shutdown: it sets the global stop flag and closes
// every worker queue, which wakes any worker blocked in PopFront with
// ok=false so it can return and release its ShutdownWG slot. Callers wait
// on control.ShutdownWG after calling Stop to know every worker has exited.
func (e *Engine) Stop() {
	control.Shutdown()
	e.verifyQueue.Close()
	e.workerDone.Close()
	e.testDone.Close()
}

func (e *Engine) workerLoop(id int) {
	// Pin only takes effect for the lifetime of this OS thread, so the
	// goroutine must be locked to it first — otherwise the scheduler is
	// free to migrate it and the affinity call below is a no-op.
	runtime.LockOSThread()
	hwtune.Pin(id)
	defer control.ShutdownWG.Done()
	for {
		j, ok := e.verifyQueue.PopFront()
		if !ok {
			return
		}
		switch j.Type {
		case typeMod:
			w := offsets.Worker{
				Table:         e.table,
				Arena:         e.arena,
				ZBase:         e.currentZBase(),
				ResidentStart: e.residentStart,
				MaxIncrements: constants.MaxIncrements,
				BucketMu:      &e.bucketMu,
			}
			if err := w.UpdateRemainders(j.ModStart, j.ModEnd); err != nil {
				// Segment-bucket overflow means the once-only bucket sizing
				// invariant has been violated: once-only hits would be
				// silently dropped from here on, corrupting every
				// subsequent iteration's sieve output. Fatal, matching the
				// extract package's cosmic-ray guard.
				debug.DropError("orchestrator: mod worker", err)
				os.Exit(1)
			}
			e.workerDone.PushBack(struct{}{})

		case typeSieve:
			sieve.SparseRange(e.arena.AuxBitmaps[j.SieveAux], e.arena.Offsets, e.table.Primes, e.residentStart, j.SieveStartI, j.SieveEndI)
			e.workerDone.PushBack(struct{}{})

		case typeCheck:
			e.runCheckJob(j.Check)
			e.testDone.PushBack(struct{}{})
		}
	}
}

// blockState holds the active block's derived big integers. It is
// replaced wholesale by MineBlock before dispatching any job for that
// block, and read concurrently by workers for the remainder of the block.
type blockState struct {
	zTarget *big.Int
	zBase   *big.Int
	work    target.WorkInfo
}

func (e *Engine) currentZBase() *big.Int {
	e.stateMu.RLock()
	defer e.stateMu.RUnlock()
	return e.state.zBase
}

func (e *Engine) runCheckJob(cj extract.Job) {
	e.stateMu.RLock()
	st := e.state
	e.stateMu.RUnlock()

	for _, pos := range cj.Indexes {
		if e.onCandidate != nil {
			e.onCandidate(cj.Loop, pos)
		}
		count := verify.Candidate(st.zBase, e.table.P, cj.Loop, pos, e.tuplesThresh, &st.work, st.zTarget, shareSinkAdapter{e})
		_ = count
	}
}

// shareSinkAdapter routes verify.Candidate's submission through the
// dedupe ring before forwarding to the configured sink. verify.Candidate is
// handed the block's *target.WorkInfo as its "handle" so this adapter can
// read WorkInfo.Height for dedupe — but that WorkInfo is an internal work
// token (spec.md §3's verifyBlock), not the opaque handle spec.md §6
// defines for submitShare. Only WorkInfo.Handle, forwarded unopened, is
// what actually reaches the external sink.
type shareSinkAdapter struct{ e *Engine }

func (s shareSinkAdapter) SubmitShare(handle any, offsetLE [32]byte, kPrimes int) {
	w, _ := handle.(*target.WorkInfo)
	var height uint64
	var outHandle any
	if w != nil {
		height = w.Height
		outHandle = w.Handle
	}
	if !s.e.dedup.Check(height, offsetLE[:], uint32(kPrimes), control.Height()) {
		return
	}
	s.e.Stats.recordTuple(kPrimes)
	s.e.sink.SubmitShare(outHandle, offsetLE, kPrimes)
}
