// Package hwtune probes CPU topology and pins worker goroutines to logical
// cores so the sieve/verify pool gets consistent L1/L2 residency across a
// run instead of migrating under the Go scheduler.
package hwtune

import "github.com/klauspost/cpuid/v2"

// Topology summarizes the probed CPU topology. WorkerCount uses
// PhysicalCores to size the worker pool; the other fields are
// informational and do not affect the dense/sparse prime split.
type Topology struct {
	LogicalCores  int
	PhysicalCores int
	CacheLine     int
	L2CacheBytes  int
	L3CacheBytes  int
}

// Probe reads the local CPU topology via cpuid.
func Probe() Topology {
	return Topology{
		LogicalCores:  cpuid.CPU.LogicalCores,
		PhysicalCores: cpuid.CPU.PhysicalCores,
		CacheLine:     cpuid.CPU.CacheLine,
		L2CacheBytes:  cpuid.CPU.Cache.L2,
		L3CacheBytes:  cpuid.CPU.Cache.L3,
	}
}

// WorkerCount picks a sieve/verify worker count from the requested value,
// clamping to the physical core count when requested <= 0.
func WorkerCount(requested int) int {
	if requested > 0 {
		return requested
	}
	t := Probe()
	if t.PhysicalCores > 0 {
		return t.PhysicalCores
	}
	return 1
}

// Pin binds the calling OS thread to logical CPU cpu. Callers must have
// already called runtime.LockOSThread(); Pin is a no-op on platforms or
// CPU indices it cannot support.
func Pin(cpu int) {
	setAffinity(cpu)
}
