//go:build linux

package workerpool

import (
	"runtime"

	"golang.org/x/sys/unix"
)

// AvailableParallelism returns how many CPUs this process may run on,
// capped by GOMAXPROCS.
func AvailableParallelism() int {
	n := runtime.GOMAXPROCS(0)

	var set unix.CPUSet
	if err := unix.SchedGetaffinity(0, &set); err == nil {
		if c := set.Count(); c > 0 && c < n {
			n = c
		}
	}
	return n
}
