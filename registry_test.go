package durable_test

import (
	"context"
	"testing"

	"github.com/runloop-dev/durable-go"
	"github.com/runloop-dev/durable-go/wire"
)

func TestFunctionRegistryRoundTrip(t *testing.T) {
	greet := durable.Func("greet", func(ctx context.Context, input string) (string, error) {
		return "hello " + input, nil
	})

	var registry durable.FunctionRegistry
	if err := registry.Register(greet); err != nil {
		t.Fatal(err)
	}

	res := registry.RoundTrip(context.Background(), wire.NewRequest("greet", wire.Input(wire.String("world"))))
	result, ok := res.Result()
	if !ok {
		t.Fatalf("expected a result, got %v", res)
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

func TestFunctionRegistryUnknownFunction(t *testing.T) {
	var registry durable.FunctionRegistry
	res := registry.RoundTrip(context.Background(), wire.NewRequest("missing", wire.Input(wire.String("x"))))
	if res.Status() != wire.NotFoundStatus {
		t.Fatalf("unexpected status: %s", res.Status())
	}
}

func TestFunctionRegistryDuplicateName(t *testing.T) {
	a := durable.Func("f", func(ctx context.Context, input string) (string, error) { return input, nil })
	b := durable.Func("f", func(ctx context.Context, input string) (string, error) { return input, nil })

	var registry durable.FunctionRegistry
	if err := registry.Register(a); err != nil {
		t.Fatal(err)
	}
	if err := registry.Register(b); err == nil {
		t.Fatal("expected an error registering a different function under the same name")
	}
}

func TestFunctionRegistryReregisterSameFunction(t *testing.T) {
	a := durable.Func("f", func(ctx context.Context, input string) (string, error) { return input, nil })

	var registry durable.FunctionRegistry
	if err := registry.Register(a); err != nil {
		t.Fatal(err)
	}
	if err := registry.Register(a); err != nil {
		t.Fatalf("expected re-registering the same function to be a no-op, got %v", err)
	}
}

func TestFunctionRegistryClose(t *testing.T) {
	a := durable.Func("f", func(ctx context.Context, input string) (string, error) { return input, nil })

	var registry durable.FunctionRegistry
	if err := registry.Register(a); err != nil {
		t.Fatal(err)
	}
	if err := registry.Close(); err != nil {
		t.Fatal(err)
	}

	res := registry.RoundTrip(context.Background(), wire.NewRequest("f", wire.Input(wire.String("x"))))
	if res.Status() != wire.NotFoundStatus {
		t.Fatalf("expected functions to be gone after Close, got status %s", res.Status())
	}
}
