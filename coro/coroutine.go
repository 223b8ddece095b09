//go:build !durable

package coro

import (
	"github.com/dispatchrun/coroutine"
	"github.com/runloop-dev/durable-go/wire"
)

// Coroutine is the flavour of coroutine supported by the scheduler and the SDK.
type Coroutine = coroutine.Coroutine[wire.Response, wire.Request]

// New creates a Coroutine.
func New(fn func() wire.Response) Coroutine {
	return coroutine.NewWithReturn[wire.Response, wire.Request](fn)
}

// Yield yields control to the scheduler.
//
// The coroutine is suspended while the Response is sent to the scheduler.
// If the Response carries a directive to perform work, the scheduler will
// send the results back in a Request and resume execution from this
// point.
func Yield(res wire.Response) wire.Request {
	return coroutine.Yield[wire.Response, wire.Request](res)
}
