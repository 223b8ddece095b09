package durable

import (
	"context"
	"fmt"
	"sync"

	"github.com/runloop-dev/durable-go/wire"
)

// FunctionRegistry is a collection of durable functions, independent of
// any single Endpoint. It's useful for routing requests to functions
// that live across multiple endpoints, or in tests that don't need the
// rest of what an Endpoint sets up (HTTP handler, signing, client).
type FunctionRegistry struct {
	functions wire.FunctionMap
	names     map[string]AnyFunction

	mu sync.Mutex
}

// Register registers functions under their own names.
//
// Registering the identical function twice under the same name is a
// no-op. Registering a different function under a name that's already
// taken returns an error: a function name must map to exactly one
// descriptor for the lifetime of the registry.
func (r *FunctionRegistry) Register(fns ...AnyFunction) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.functions == nil {
		r.functions = wire.FunctionMap{}
		r.names = map[string]AnyFunction{}
	}
	for _, fn := range fns {
		if existing, ok := r.names[fn.Name()]; ok && existing != fn {
			return fmt.Errorf("function %q is already registered", fn.Name())
		}
		r.names[fn.Name()] = fn
		r.functions[fn.Name()] = fn.Primitive()
	}
	return nil
}

// RoundTrip makes a request to a function in the registry and returns
// its response.
func (r *FunctionRegistry) RoundTrip(ctx context.Context, req wire.Request) wire.Response {
	r.mu.Lock()
	fn, ok := r.functions[req.Function()]
	r.mu.Unlock()
	if !ok {
		return wire.NewResponseErrorf("%w: function %q not found", ErrNotFound, req.Function())
	}
	return fn(ctx, req)
}

// Close closes every registered function that supports it.
func (r *FunctionRegistry) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, fn := range r.names {
		if c, ok := fn.(interface{ Close() error }); ok {
			if err := c.Close(); err != nil {
				return err
			}
		}
	}
	clear(r.functions)
	clear(r.names)
	return nil
}
