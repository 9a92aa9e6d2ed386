//go:build linux

// setaffinity_linux.go pins the calling OS thread to a single logical CPU
// via sched_setaffinity(2). Errors are swallowed: on a containerized or
// cgroup-restricted system the call may return EPERM/EINVAL, and the
// fallback is simply "no pin".

package hwtune

import "golang.org/x/sys/unix"

func setAffinity(cpu int) {
	if cpu < 0 {
		return
	}
	var set unix.CPUSet
	set.Zero()
	set.Set(cpu)
	_ = unix.SchedSetaffinity(0, &set)
}
