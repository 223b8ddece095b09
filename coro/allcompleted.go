//go:build !durable

package coro

import (
	"fmt"
	"iter"

	"github.com/runloop-dev/durable-go/wire"
)

// Result is one call's outcome as delivered by AllCompleted.
type Result[O any] struct {
	Output O
	Err    error
}

// AllCompleted awaits calls and yields their results in completion
// order rather than submission order. Each round waits for just one
// more completion among whatever calls are still outstanding, so the
// function wakes up as soon as the next call finishes instead of
// waiting for the whole batch.
//
// Iteration stops early if the consumer breaks out of the range loop;
// the remaining calls are simply left pending (their results, if they
// ever arrive, are ignored by the coroutine on its next resumption).
func AllCompleted[O any](calls ...wire.Call) iter.Seq2[int, Result[O]] {
	return func(yield func(int, Result[O]) bool) {
		n := len(calls)
		if n == 0 {
			return
		}

		// originalIndex[j] maps a position in the pending slice back to
		// its position in the caller's original calls slice.
		pending := make([]wire.Call, n)
		originalIndex := make([]int, n)
		copy(pending, calls)
		for i := range originalIndex {
			originalIndex[i] = i
		}

		for len(pending) > 0 {
			results, err := Await(PolicyNOfM, 1, nil, pending...)
			if err != nil {
				yield(-1, Result[O]{Err: err})
				return
			}

			var next []wire.Call
			var nextIndex []int
			for j, result := range results {
				if !resultDelivered(result) {
					next = append(next, pending[j])
					nextIndex = append(nextIndex, originalIndex[j])
					continue
				}
				idx := originalIndex[j]
				if output, ok := result.Output(); ok {
					var v O
					if uerr := output.Unmarshal(&v); uerr != nil {
						if !yield(idx, Result[O]{Err: fmt.Errorf("failed to unmarshal call %d output: %w", idx, uerr)}) {
							return
						}
						continue
					}
					if !yield(idx, Result[O]{Output: v}) {
						return
					}
				} else if callErr, failed := result.Error(); failed {
					if !yield(idx, Result[O]{Err: callErr}) {
						return
					}
				}
			}
			pending, originalIndex = next, nextIndex
		}
	}
}

func resultDelivered(result wire.CallResult) bool {
	if _, ok := result.Output(); ok {
		return true
	}
	_, failed := result.Error()
	return failed
}
