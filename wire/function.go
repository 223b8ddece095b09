//go:build !durable

package wire

import "context"

// Function is a durable function, keyed by name in a FunctionMap.
type Function func(context.Context, Request) Response

// FunctionMap is a set of functions, keyed by name.
type FunctionMap map[string]Function

// Run runs a function.
func (m FunctionMap) Run(ctx context.Context, req Request) Response {
	fn, ok := m[req.Function()]
	if !ok {
		return NewResponse(NotFoundStatus, NewErrorf("function %q not found", req.Function()))
	}
	return fn(ctx, req)
}
