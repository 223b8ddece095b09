package coro

import (
	"errors"
	"testing"

	"github.com/runloop-dev/durable-go/wire"
)

func TestResultDelivered(t *testing.T) {
	if resultDelivered(wire.CallResult{}) {
		t.Fatal("expected an empty result to not be delivered")
	}
	if !resultDelivered(wire.NewCallResult(wire.Output(wire.String("a")))) {
		t.Fatal("expected a result with output to be delivered")
	}
	if !resultDelivered(wire.NewCallResult(wire.NewError(errors.New("oops")))) {
		t.Fatal("expected a result with an error to be delivered")
	}
}
