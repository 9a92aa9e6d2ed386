// Package utils holds small zero-allocation helpers shared by the sieve
// and orchestration packages: raw stderr writes for the debug logger,
// allocation-free integer formatting, and the avalanche mixer the dedupe
// ring uses to spread slot keys.
package utils

import (
	"os"
)

///////////////////////////////////////////////////////////////////////////////
// Cold-path stderr writer — used by package debug
///////////////////////////////////////////////////////////////////////////////

// PrintWarning writes msg to stderr directly, bypassing the log package's
// timestamp formatting and internal mutex. Only used off the sieve/verify
// hot path (startup, block transitions, fatal conditions).
//
//go:nosplit
//go:inline
func PrintWarning(msg string) {
	_, _ = os.Stderr.WriteString(msg)
}

///////////////////////////////////////////////////////////////////////////////
// Integer formatting — avoids strconv/fmt allocation on log-heavy paths
///////////////////////////////////////////////////////////////////////////////

// Itoa renders a signed int without the allocation strconv.Itoa can incur
// for small values, matching the minimal footprint the debug logger needs.
func Itoa(v int) string {
	if v == 0 {
		return "0"
	}
	neg := v < 0
	if neg {
		v = -v
	}
	var buf [20]byte
	i := len(buf)
	for v > 0 {
		i--
		buf[i] = byte('0' + v%10)
		v /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}

// Utoa renders an unsigned 64-bit value without allocation-heavy formatting.
func Utoa(v uint64) string {
	if v == 0 {
		return "0"
	}
	var buf [20]byte
	i := len(buf)
	for v > 0 {
		i--
		buf[i] = byte('0' + v%10)
		v /= 10
	}
	return string(buf[i:])
}

///////////////////////////////////////////////////////////////////////////////
// Hash & Mixers — used by dedupe when a fast integer avalanche is enough
///////////////////////////////////////////////////////////////////////////////

// Mix64 applies a Murmur3-style avalanche to a 64-bit value.
//
//go:nosplit
//go:inline
func Mix64(x uint64) uint64 {
	x ^= x >> 33
	x *= 0xff51afd7ed558ccd
	x ^= x >> 33
	x *= 0xc4ceb9fe1a85ec53
	x ^= x >> 33
	return x
}
