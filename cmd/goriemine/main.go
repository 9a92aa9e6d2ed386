// ════════════════════════════════════════════════════════════════════════════════════════════════
// Prime Constellation Search Engine - Main Entry Point
// ────────────────────────────────────────────────────────────────────────────────────────────────
// Component: Main Entry Point & System Orchestration
//
// Description:
//   System orchestration with phased initialization and clean separation of concerns.
//   Bootstrap → Memory Optimization → Production Sieve Loop
//
// Architecture:
//   - Phase 1: Bootstrap the prime table and sharelog concurrently, then the primorial and search engine
//   - Phase 2: Memory cleanup and optimization for production
//   - Phase 3: Real-time block processing with GC disabled
// ════════════════════════════════════════════════════════════════════════════════════════════════

package main

import (
	"os"
	"os/signal"
	"runtime"
	rtdebug "runtime/debug"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/rieforge/gorie/config"
	"github.com/rieforge/gorie/control"
	"github.com/rieforge/gorie/debug"
	"github.com/rieforge/gorie/hwtune"
	"github.com/rieforge/gorie/orchestrator"
	"github.com/rieforge/gorie/primetable"
	"github.com/rieforge/gorie/primorial"
	"github.com/rieforge/gorie/sharelog"
	"github.com/rieforge/gorie/target"
	"github.com/rieforge/gorie/utils"
	"github.com/rieforge/gorie/verify"
)

// nullSink discards shares. Used when no sharelog path is configured.
type nullSink struct{}

func (nullSink) SubmitShare(handle any, offsetLE [32]byte, kPrimes int) {}

func main() {
	debug.DropMessage("INIT", "Loading configuration")
	cfg := config.Load()

	topo := hwtune.Probe()
	debug.DropMessage("HWTUNE", "cores="+utils.Itoa(topo.PhysicalCores)+" logical="+utils.Itoa(topo.LogicalCores))

	// PHASE 1: Bootstrap. Prime table generation and sharelog setup are
	// independent of one another; run them concurrently the way the
	// pipeline stages in tamirms-streamhash's builder run their fan-out
	// under a single errgroup rather than by hand-rolled WaitGroups.
	var (
		primes []uint64
		sink   verify.ShareSink = nullSink{}
	)

	g := &errgroup.Group{}
	g.Go(func() error {
		primes = primetable.GenerateSegmented(cfg.SieveMax, 1<<20)
		debug.DropMessage("PRIMETABLE", utils.Itoa(len(primes))+" primes up to "+utils.Utoa(cfg.SieveMax))
		return nil
	})
	g.Go(func() error {
		if cfg.SharelogPath == "" {
			return nil
		}
		s, err := sharelog.Open(cfg.SharelogPath)
		if err != nil {
			return err
		}
		sink = s
		return nil
	})
	if err := g.Wait(); err != nil {
		debug.DropError("BOOTSTRAP", err)
		os.Exit(1)
	}
	if closer, ok := sink.(*sharelog.Sink); ok {
		defer closer.Close()
	}

	table, err := primorial.Build(primes)
	if err != nil {
		debug.DropError("PRIMORIAL", err)
		os.Exit(1)
	}
	debug.DropMessage("PRIMORIAL", "built P over "+utils.Itoa(len(table.Invert))+" tracked inverses")

	engine, err := orchestrator.New(table, cfg, sink)
	if err != nil {
		debug.DropError("ENGINE", err)
		os.Exit(1)
	}

	setupSignalHandling(engine)

	// PHASE 2: Memory optimization for deterministic runtime behavior.
	runtime.GC()
	runtime.GC() // Double GC to ensure thorough cleanup
	rtdebug.FreeOSMemory()

	// PHASE 3: Production mode with optimized runtime characteristics.
	rtdebug.SetGCPercent(-1) // Disable garbage collection
	runtime.LockOSThread()   // Master stays pinned to its own OS thread

	engine.Start()

	debug.DropMessage("READY", "engine started, waiting for work")

	for w := range blockFeed() {
		if control.Stopping() {
			break
		}
		engine.MineBlock(w)
	}
}

// blockFeed is the boundary to the block-acquisition layer (pool or node
// RPC polling), deliberately out of scope here: a real deployment
// replaces this with a channel fed by its own stratum or getblocktemplate
// client and closes it on shutdown.
func blockFeed() <-chan target.WorkInfo {
	ch := make(chan target.WorkInfo)
	close(ch)
	return ch
}

func setupSignalHandling(engine *orchestrator.Engine) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		debug.DropMessage("SIGNAL", "received interrupt, shutting down...")
		engine.Stop()
		control.ShutdownWG.Wait()
		debug.DropMessage("SIGNAL", "all subsystems shutdown complete")
		os.Exit(0)
	}()
}

