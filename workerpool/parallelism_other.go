//go:build !linux

package workerpool

import "runtime"

func AvailableParallelism() int {
	n := runtime.NumCPU()
	if m := runtime.GOMAXPROCS(0); m < n {
		n = m
	}
	return n
}
