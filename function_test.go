package durable_test

import (
	"context"
	"errors"
	"testing"

	"github.com/runloop-dev/durable-go"
	"github.com/runloop-dev/durable-go/wire"
)

func TestFunctionRunInvalidFunctionName(t *testing.T) {
	f := durable.Func("greet", func(ctx context.Context, input string) (string, error) {
		return input, nil
	})

	req := wire.NewRequest("other", wire.Input(wire.String("hi")))
	res := f.Primitive()(context.Background(), req)

	if res.Status() != wire.InvalidArgumentStatus {
		t.Fatalf("unexpected status: %s", res.Status())
	}
	errResult, ok := res.Error()
	if !ok {
		t.Fatalf("expected an error response, got %v", res)
	}
	if errResult.Message() == "" {
		t.Fatalf("expected a non-empty error message")
	}
}

func TestFunctionRunError(t *testing.T) {
	oops := errors.New("oops")

	f := durable.Func("failing", func(ctx context.Context, input string) (string, error) {
		return "", oops
	})

	req := wire.NewRequest("failing", wire.Input(wire.String("hello")))
	res := f.Primitive()(context.Background(), req)

	exit, ok := res.Exit()
	if !ok {
		t.Fatalf("expected an exit response, got %v", res)
	}
	result, ok := exit.Result()
	if !ok {
		t.Fatalf("expected a result, got %v", exit)
	}
	resultErr, ok := result.Error()
	if !ok {
		t.Fatalf("expected an error result, got %v", result)
	}
	if resultErr.Message() != "oops" {
		t.Fatalf("unexpected error message: %s", resultErr.Message())
	}
}

func TestFunctionRunOutput(t *testing.T) {
	f := durable.Func("greet", func(ctx context.Context, input string) (string, error) {
		return "hello " + input, nil
	})

	req := wire.NewRequest("greet", wire.Input(wire.String("world")))
	res := f.Primitive()(context.Background(), req)

	exit, ok := res.Exit()
	if !ok {
		t.Fatalf("expected an exit response, got %v", res)
	}
	result, ok := exit.Result()
	if !ok {
		t.Fatalf("expected a result, got %v", exit)
	}
	output, ok := result.Output()
	if !ok {
		t.Fatalf("expected an output, got %v", result)
	}
	var s string
	if err := output.Unmarshal(&s); err != nil {
		t.Fatal(err)
	}
	if s != "hello world" {
		t.Fatalf("unexpected output: %q", s)
	}
}

func TestFunctionBuildCall(t *testing.T) {
	f := durable.Func("greet", func(ctx context.Context, input string) (string, error) {
		return input, nil
	})

	call, err := f.BuildCall("world")
	if err != nil {
		t.Fatal(err)
	}
	if call.Function() != "greet" {
		t.Fatalf("unexpected function name: %q", call.Function())
	}
	var input string
	if err := call.Input().Unmarshal(&input); err != nil {
		t.Fatal(err)
	}
	if input != "world" {
		t.Fatalf("unexpected call input: %q", input)
	}
}

func TestFunctionDispatchWithoutEndpoint(t *testing.T) {
	f := durable.Func("greet", func(ctx context.Context, input string) (string, error) {
		return input, nil
	})
	_, err := f.Dispatch(context.Background(), "world")
	if err == nil {
		t.Fatal("expected an error")
	}
}
