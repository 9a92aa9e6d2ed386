// Package config loads the runtime knobs that are safe to vary between
// deployments without perturbing the wire-visible search geometry fixed in
// package constants: thread count, sieve ceiling, and the tuple-length
// threshold used for share acceptance.
package config

import (
	"os"
	"strconv"
	"sync"

	"github.com/joho/godotenv"
	"github.com/klauspost/cpuid/v2"
)

// Config is the process-wide runtime configuration, loaded once from the
// environment (and an optional .env file) on first use.
type Config struct {
	// Threads is the number of sieve/verify worker goroutines to run.
	// Defaults to the detected physical core count.
	Threads int

	// SieveMax is the prime table ceiling: primes are generated up to this
	// bound at startup. It is independent of constants.MaxIncrements, the
	// fixed per-block search window.
	SieveMax uint64

	// TuplesThreshold is the minimum constellation length (in consecutive
	// admissible offsets, including the base prime) that triggers a share
	// submission. Riecoin blocks require the full six; lower values are
	// useful for solo testing against a local target.
	TuplesThreshold int

	// SharelogPath is the optional path to a sqlite share-audit database.
	// Empty disables the sharelog sink.
	SharelogPath string
}

var (
	instance *Config
	once     sync.Once
)

// Load reads configuration from a .env file (if present) and the process
// environment, memoizing the result for the lifetime of the process.
func Load() *Config {
	once.Do(func() {
		godotenv.Load()

		instance = &Config{
			Threads:         getInt("THREADS", cpuid.CPU.PhysicalCores),
			SieveMax:        getUint64("SIEVE_MAX", 1_000_000),
			TuplesThreshold: getInt("TUPLES_THRESHOLD", 6),
			SharelogPath:    os.Getenv("SHARELOG_PATH"),
		}
	})
	return instance
}

func getInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func getUint64(key string, fallback uint64) uint64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.ParseUint(v, 10, 64)
	if err != nil {
		return fallback
	}
	return n
}
