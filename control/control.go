// control.go — Global control flags and block-height watch for the miner
// ============================================================================
// SYSTEM CONTROL ORCHESTRATION
// ============================================================================
//
// Control package provides lightweight global signaling infrastructure for
// the monotone block-height watch that drives cancellation, and graceful
// shutdown across the sieve/verify worker pool.
//
// Architecture overview:
//   - Monotone height counter: the sole cancellation trigger (§5)
//   - Graceful shutdown coordination across all worker goroutines
//
// Threading model:
//   - The block-source layer calls SetHeight() as new blocks arrive
//   - The master orchestrator polls Height()/Stopping() at extraction
//     granularity and at iteration boundaries to detect a superseded block
//     or a shutdown request (§5, §7)
//   - Engine.Stop() closes the worker queues, which is what actually wakes
//     a worker blocked in workqueue.Queue.PopFront; Stopping() lets the
//     master itself break out of its own loops without waiting on a queue
//
// Safety guarantees:
//   - Race-free flag/height access via sync/atomic
//   - Deterministic shutdown behavior across all workers

package control

import (
	"sync"
	"sync/atomic"
)

// ============================================================================
// GLOBAL STATE MANAGEMENT
// ============================================================================

var (
	stop uint32 // Shutdown signal: 1 = initiate graceful shutdown, 0 = running

	height uint64 // Monotone current block height; the sole cancellation trigger
)

// ShutdownWG lets subsystems register outstanding work that must complete
// before process exit; Shutdown() callers wait on it after setting stop.
var ShutdownWG sync.WaitGroup

// ============================================================================
// BLOCK-HEIGHT WATCH
// ============================================================================

// SetHeight publishes a new current block height. Heights must be
// non-decreasing; the core only ever compares for equality against the
// height captured when a block's mining process began (§5, §6).
func SetHeight(h uint64) {
	atomic.StoreUint64(&height, h)
}

// Height returns the current block height.
//
//go:nosplit
//go:inline
func Height() uint64 {
	return atomic.LoadUint64(&height)
}

// Stale reports whether startHeight no longer matches the current height,
// i.e. whether work begun against startHeight has been superseded.
//
//go:nosplit
//go:inline
func Stale(startHeight uint64) bool {
	return Height() != startHeight
}

// ============================================================================
// SYSTEM SHUTDOWN
// ============================================================================

// Shutdown initiates graceful system termination by setting the global
// stop flag. Callers still need to unblock any goroutine parked in a
// workqueue.Queue.PopFront — see Engine.Stop, which calls this and then
// closes the queues.
//
//go:nosplit
//go:inline
func Shutdown() {
	atomic.StoreUint32(&stop, 1)
}

// Stopping reports whether Shutdown has been called.
//
//go:nosplit
//go:inline
func Stopping() bool {
	return atomic.LoadUint32(&stop) == 1
}
