//go:build !durable

package coro

import (
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/runloop-dev/durable-go/wire"
)

// Policy controls how an Await operation resolves.
type Policy int

const (
	// PolicyAll waits until every call has a result, or any call fails.
	PolicyAll Policy = iota

	// PolicyAny waits until any call succeeds, or every call has failed.
	PolicyAny

	// PolicyRace waits until any call completes, success or failure.
	PolicyRace

	// PolicyNOfM waits until a configured number of calls have
	// completed, success or failure, leaving the rest pending.
	PolicyNOfM
)

// Await awaits the results of calls according to policy.
//
// n is only meaningful for PolicyNOfM: it's the number of calls that
// must complete before Await returns. For the other policies n is
// ignored.
//
// If scope is non-nil, Await synthesizes a CANCELLED CallResult for
// every call still pending as soon as the scope is cancelled, rather
// than continuing to poll.
func Await(policy Policy, n int, scope *CancellationScope, calls ...wire.Call) ([]wire.CallResult, error) {
	if len(calls) == 0 {
		return nil, nil
	}
	if scope != nil && scope.Cancelled() {
		return cancelledResults(calls), nil
	}

	// Assign a correlation ID to each call, and map to the index
	// in the provided set of []Call.
	//
	// The reason we use a random starting correlation ID, rather than
	// the index of each Call, is that the scheduler has at-least-once
	// execution guarantees and may rarely deliver a call result from a
	// previous Await operation. Using a random correlation ID helps
	// guard against this.
	nextCorrelationID := rand.Uint64()
	pending := map[uint64]int{}
	for i, call := range calls {
		correlationID := nextCorrelationID
		nextCorrelationID++
		pending[correlationID] = i
		calls[i] = call.With(wire.CorrelationID(correlationID))
	}

	minResults := len(calls)
	switch policy {
	case PolicyAny, PolicyRace:
		minResults = 1
	case PolicyNOfM:
		minResults = max(1, min(n, len(calls)))
	}
	maxResults := len(calls)
	maxWait := 5 * time.Minute
	if scope != nil {
		maxWait = scope.RemainingTime()
	}

	callResults := make([]wire.CallResult, len(calls))

	for len(pending) > 0 {
		poll := wire.NewResponse(wire.NewPoll(minResults, maxResults, maxWait, wire.Calls(calls...)))
		res := Yield(poll)

		calls = nil // only submit calls once

		if scope != nil && scope.Cancelled() {
			applyCancelled(callResults, pending)
			break
		}

		pollResult, ok := res.PollResult()
		if !ok {
			return nil, fmt.Errorf("unexpected response when polling: %s", res)
		} else if err, ok := pollResult.Error(); ok {
			return nil, fmt.Errorf("poll error: %w", err)
		}

		var completed int
		var hasSuccess bool
		var hasFailure bool
		for _, result := range pollResult.Results() {
			correlationID := result.CorrelationID()
			i, ok := pending[correlationID]
			if !ok {
				// This can occur due to the at-least-once execution
				// guarantees of the scheduler.
				slog.Debug("skipping call result with unknown correlation ID", "call_result", result, "correlation_id", correlationID)
				continue
			}
			callResults[i] = result
			delete(pending, correlationID)
			completed++

			if _, failed := result.Error(); failed {
				hasFailure = true
			} else {
				hasSuccess = true
			}
		}

		switch {
		case hasFailure && policy == PolicyAll:
			return callResults, joinErrors(callResults)
		case hasSuccess && policy == PolicyAny:
			return callResults, nil
		case (hasSuccess || hasFailure) && policy == PolicyRace:
			return callResults, nil
		case policy == PolicyNOfM && completed > 0 && len(callResults)-len(pending) >= minResults:
			return callResults, nil
		}
	}

	if policy == PolicyAny && allFailed(callResults) {
		return callResults, joinErrors(callResults)
	}
	return callResults, nil
}

func cancelledResults(calls []wire.Call) []wire.CallResult {
	results := make([]wire.CallResult, len(calls))
	for i := range calls {
		results[i] = wire.NewCallResult(wire.NewError(errCancelled))
	}
	return results
}

func applyCancelled(results []wire.CallResult, pending map[uint64]int) {
	for correlationID, i := range pending {
		results[i] = wire.NewCallResult(
			wire.CorrelationID(correlationID),
			wire.NewError(errCancelled),
		)
	}
}

var errCancelled = errors.New("call cancelled")

func allFailed(results []wire.CallResult) bool {
	for _, result := range results {
		if _, ok := result.Error(); !ok {
			return false
		}
	}
	return true
}

func joinErrors(results []wire.CallResult) error {
	var errs []error
	for _, result := range results {
		if err, ok := result.Error(); ok {
			errs = append(errs, err)
		}
	}
	switch len(errs) {
	case 0:
		return nil
	case 1:
		return errs[0]
	default:
		return errors.Join(errs...)
	}
}

// Gather awaits the results of calls. It waits until all results
// are available, or any call fails. It unpacks the output value
// from the call result when all calls succeed.
func Gather[O any](calls ...wire.Call) ([]O, error) {
	if len(calls) == 0 {
		return nil, nil
	}
	results, err := Await(PolicyAll, 0, nil, calls...)
	if err != nil {
		return nil, err
	}
	return unboxAll[O](calls, results)
}

// GatherScoped is Gather bound to a CancellationScope: if the scope is
// cancelled while calls are outstanding, pending calls resolve with a
// cancellation error rather than continuing to block.
func GatherScoped[O any](scope *CancellationScope, calls ...wire.Call) ([]O, error) {
	if len(calls) == 0 {
		return nil, nil
	}
	results, err := Await(PolicyAll, 0, scope, calls...)
	if err != nil {
		return nil, err
	}
	if err := joinErrors(results); err != nil {
		return nil, err
	}
	return unboxAll[O](calls, results)
}

// AwaitAny awaits the results of calls. It waits until any call
// succeeds, or every call has failed.
func AwaitAny[O any](calls ...wire.Call) ([]O, error) {
	if len(calls) == 0 {
		return nil, nil
	}
	results, err := Await(PolicyAny, 0, nil, calls...)
	if err != nil {
		return nil, err
	}
	return unboxAll[O](calls, results)
}

// Race awaits the results of calls. It resolves as soon as the first
// call completes, whether it succeeded or failed, without waiting for
// the rest.
func Race[O any](calls ...wire.Call) ([]O, error) {
	if len(calls) == 0 {
		return nil, nil
	}
	results, err := Await(PolicyRace, 0, nil, calls...)
	if err != nil {
		return nil, err
	}
	return unboxAll[O](calls, results)
}

// FirstN awaits the results of calls. It resolves once n of the calls
// have completed; calls that are still pending are left zero-valued in
// the returned slice, paired with a false entry in the done slice.
func FirstN[O any](n int, calls ...wire.Call) (results []O, done []bool, err error) {
	if len(calls) == 0 {
		return nil, nil, nil
	}
	callResults, err := Await(PolicyNOfM, n, nil, calls...)
	if err != nil {
		return nil, nil, err
	}
	results = make([]O, len(calls))
	done = make([]bool, len(calls))
	for i, result := range callResults {
		if output, ok := result.Output(); ok {
			if err := output.Unmarshal(&results[i]); err != nil {
				return nil, nil, fmt.Errorf("failed to unmarshal call %d output: %w", i, err)
			}
			done[i] = true
		} else if _, failed := result.Error(); failed {
			done[i] = true
		}
	}
	return results, done, nil
}

func unboxAll[O any](calls []wire.Call, results []wire.CallResult) ([]O, error) {
	outputs := make([]O, len(calls))
	for i, result := range results {
		if boxedOutput, ok := result.Output(); ok {
			if err := boxedOutput.Unmarshal(&outputs[i]); err != nil {
				return nil, fmt.Errorf("failed to unmarshal call %d output: %w", i, err)
			}
		}
	}
	return outputs, nil
}
