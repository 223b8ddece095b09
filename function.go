//go:build !durable

package durable

import (
	"context"
	"fmt"
	"slices"

	"github.com/dispatchrun/coroutine"
	"github.com/runloop-dev/durable-go/coro"
	"github.com/runloop-dev/durable-go/wire"
)

// Func creates a Function.
func Func[I, O any](name string, fn func(context.Context, I) (O, error)) *Function[I, O] {
	return &Function[I, O]{
		name: name,
		fn:   fn,
	}
}

// Function is a registered, callable durable function.
type Function[I, O any] struct {
	name string

	fn func(ctx context.Context, input I) (O, error)

	endpoint *Endpoint

	instances coro.VolatileCoroutines
}

type coroutineID = coro.InstanceID

// Name is the name of the function.
func (f *Function[I, O]) Name() string {
	return f.name
}

// BuildCall creates (but does not dispatch) a Call for the function.
func (f *Function[I, O]) BuildCall(input I, opts ...wire.CallOption) (wire.Call, error) {
	boxedInput, err := wire.Marshal(input)
	if err != nil {
		return wire.Call{}, fmt.Errorf("cannot serialize input: %v", err)
	}
	var url string
	if f.endpoint != nil {
		url = f.endpoint.URL()
	}
	opts = append(slices.Clip(opts), boxedInput)
	return wire.NewCall(url, f.name, opts...), nil
}

// Dispatch dispatches a Call to the function.
func (f *Function[I, O]) Dispatch(ctx context.Context, input I, opts ...wire.CallOption) (wire.ID, error) {
	call, err := f.BuildCall(input, opts...)
	if err != nil {
		return "", err
	}
	if f.endpoint == nil {
		return "", fmt.Errorf("cannot dispatch function call: function has not been registered with an endpoint")
	}
	client, err := f.endpoint.Client()
	if err != nil {
		return "", fmt.Errorf("cannot dispatch function call: %w", err)
	}
	return client.Dispatch(ctx, call)
}

// Primitive returns the associated primitive function.
func (f *Function[I, O]) Primitive() wire.Function {
	return f.run
}

func (f *Function[I, O]) run(ctx context.Context, req wire.Request) wire.Response {
	if name := req.Function(); name != f.name {
		return wire.NewResponseErrorf("%w: function %q received call for function %q", ErrInvalidArgument, f.name, name)
	}

	id, inst, err := f.setUp(req)
	if err != nil {
		return wire.NewResponseError(err)
	}
	defer f.tearDown(id, inst)

	// Send results from the scheduler to the coroutine (if applicable).
	inst.Send(req)

	// Run the coroutine until it yields or returns.
	if returned := !inst.Next(); returned {
		return inst.Result()
	}
	yield := inst.Recv()

	// If the coroutine explicitly exited, stop it before returning.
	// There's no need to serialize the coroutine state in this case; it's done.
	if _, exit := yield.Exit(); exit {
		inst.Stop()
		inst.Next()
		return yield
	}

	// For all other response directives, serialize the coroutine state before
	// yielding so that the coroutine can be resumed from this point.
	state, err := f.serialize(id, inst)
	if err != nil {
		return wire.NewResponseError(err)
	}
	return yield.With(wire.CoroutineState(state))
}

func (f *Function[I, O]) setUp(req wire.Request) (coroutineID, coro.Coroutine, error) {
	// If the request carries a poll result, find/deserialize the
	// suspended coroutine.
	if pollResult, ok := req.PollResult(); ok {
		return f.deserialize(pollResult.CoroutineState())
	}

	// Otherwise, this is a new function call. Prepare input from the request.
	var input I
	boxedInput, ok := req.Input()
	if !ok {
		return 0, coro.Coroutine{}, fmt.Errorf("%w: unsupported request: %v", ErrInvalidArgument, req)
	}
	if err := boxedInput.Unmarshal(&input); err != nil {
		return 0, coro.Coroutine{}, fmt.Errorf("%w: invalid input %v: %v", ErrInvalidArgument, boxedInput, err)
	}

	// Create a new coroutine.
	inst := coroutine.NewWithReturn[wire.Response, wire.Request](f.entrypoint(input))

	// In volatile mode, register the coroutine instance after
	// assigning a unique identifier.
	//
	// "Instances" are only applicable when coroutines are running
	// in volatile mode, since suspended coroutines must be kept in
	// memory while they're polling. In durable mode, there's no need
	// to keep instances around, since the coroutine's state can be
	// serialized and sent back and forth to the scheduler. In durable
	// mode Function[I,O] is stateless.
	var id coroutineID
	if !coroutine.Durable {
		id = f.instances.Register(inst)
	}

	return id, inst, nil
}

func (f *Function[I, O]) tearDown(id coroutineID, inst coro.Coroutine) {
	// Always tear down durable coroutines. They'll be rebuilt
	// on the next call (if applicable) from their serialized state,
	// possibly in a new location.
	if coroutine.Durable && !inst.Done() {
		inst.Stop()
		inst.Next()
	}

	// Remove volatile coroutine instances only once they're done.
	if !coroutine.Durable && inst.Done() {
		f.instances.Delete(id)
	}
}

func (f *Function[I, O]) serialize(id coroutineID, inst coro.Coroutine) (wire.Any, error) {
	// In volatile mode, serialize a reference to the coroutine instance.
	if !coroutine.Durable {
		return wire.Marshal(id)
	}

	// In durable mode, serialize the state of the coroutine.
	state, err := coro.Serialize(inst)
	if err != nil {
		return wire.Any{}, fmt.Errorf("%w: %v", ErrPermanent, err)
	}
	return state, nil
}

func (f *Function[I, O]) deserialize(state wire.Any) (coroutineID, coro.Coroutine, error) {
	// In durable mode, create the coroutine and then deserialize its prior state.
	if coroutine.Durable {
		var zero I
		inst := coroutine.NewWithReturn[wire.Response, wire.Request](f.entrypoint(zero))
		if err := coro.Deserialize(inst, state); err != nil {
			return 0, inst, fmt.Errorf("%w: %v", ErrIncompatibleState, err)
		}
		return 0, inst, nil
	}

	// In volatile mode, find the suspended coroutine instance.
	var id coroutineID
	if err := state.Unmarshal(&id); err != nil {
		return 0, coro.Coroutine{}, fmt.Errorf("%w: invalid volatile coroutine reference: %s", ErrIncompatibleState, state)
	}
	inst, err := f.instances.Find(id)
	if err != nil {
		return 0, inst, fmt.Errorf("%w: %v", ErrIncompatibleState, err)
	}
	return id, inst, nil
}

func (f *Function[I, O]) register(endpoint *Endpoint) {
	f.endpoint = endpoint
}

// Close stops every suspended volatile coroutine instance belonging to
// this function.
func (f *Function[I, O]) Close() error {
	return f.instances.Close()
}

func (f *Function[I, O]) entrypoint(input I) func() wire.Response {
	return func() wire.Response {
		// The context that gets passed as argument here should be recreated
		// each time the coroutine is resumed, ideally inheriting from the
		// parent context passed to the Run method. This is difficult to
		// do right in durable mode because we shouldn't capture the parent
		// context in the coroutine state.
		output, err := f.fn(context.TODO(), input)
		if err != nil {
			return wire.NewResponseError(err)
		}
		boxedOutput, err := wire.Marshal(output)
		if err != nil {
			return wire.NewResponseErrorf("%w: invalid output %v: %v", ErrInvalidResponse, output, err)
		}
		return wire.NewResponse(wire.StatusOf(output), boxedOutput)
	}
}

// Await calls the function and awaits a result.
//
// Await should only be called from within a durable function body (created via Func).
func (f *Function[I, O]) Await(input I, opts ...wire.CallOption) (O, error) {
	var output O
	call, err := f.BuildCall(input, opts...)
	if err != nil {
		return output, err
	}
	results, err := coro.Gather[O](call)
	if err != nil {
		return output, err
	}
	return results[0], nil
}

// Gather makes many concurrent calls to the function and awaits the results.
//
// Gather should only be called from within a durable function body (created via Func).
func (f *Function[I, O]) Gather(inputs []I, opts ...wire.CallOption) ([]O, error) {
	calls := make([]wire.Call, len(inputs))
	for i, input := range inputs {
		call, err := f.BuildCall(input, opts...)
		if err != nil {
			return nil, err
		}
		calls[i] = call
	}
	return coro.Gather[O](calls...)
}

// AnyFunction is the interface implemented by all Function[I, O] instances.
type AnyFunction interface {
	// Name is the name of the function.
	Name() string

	// Primitive is the primitive wire.Function.
	Primitive() wire.Function

	// register is an internal hook which binds the function to
	// an endpoint, allowing its Dispatch method to be called.
	register(*Endpoint)
}
