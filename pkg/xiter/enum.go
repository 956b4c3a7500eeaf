// Package xiter holds small iterator adapters missing from the
// standard library's iter package.
package xiter

import (
	"iter"
)

// Enumerate pairs each value from seq with its position, the way a
// pcap tracer numbers the frames of a captured batch without needing
// a separate counter variable at the call site.
func Enumerate[T any](seq iter.Seq[T]) iter.Seq2[int, T] {
	return func(yield func(int, T) bool) {
		idx := 0
		for v := range seq {
			if !yield(idx, v) {
				return
			}

			idx++
		}
	}
}
