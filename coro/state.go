//go:build !durable

package coro

import (
	"fmt"
	_ "unsafe"

	"github.com/runloop-dev/durable-go/wire"
	"google.golang.org/protobuf/types/known/anypb"
)

const durableCoroutineStateTypeUrl = "buf.build/stealthrocket/coroutine/coroutine.v1.State"

// StateVersion is embedded in every serialized coroutine snapshot so
// that Deserialize can reject state captured by an incompatible build
// of this module instead of failing deep inside frame reconstruction.
const StateVersion = 1

// Serialize serializes a coroutine.
func Serialize(coro Coroutine) (wire.Any, error) {
	rawState, err := coro.Context().Marshal()
	if err != nil {
		return wire.Any{}, fmt.Errorf("cannot serialize coroutine: %w", err)
	}
	return newProtoAny(&anypb.Any{
		TypeUrl: durableCoroutineStateTypeUrl,
		Value:   append([]byte{StateVersion}, rawState...),
	}), nil
}

// Deserialize deserializes a coroutine.
func Deserialize(coro Coroutine, state wire.Any) error {
	if state.TypeURL() != durableCoroutineStateTypeUrl {
		return fmt.Errorf("cannot deserialize coroutine state: unexpected type URL %q", state.TypeURL())
	}
	raw := anyProto(state).GetValue()
	if len(raw) == 0 || raw[0] != StateVersion {
		return fmt.Errorf("cannot deserialize coroutine state: incompatible state version")
	}
	if err := coro.Context().Unmarshal(raw[1:]); err != nil {
		return fmt.Errorf("cannot deserialize coroutine state: %w", err)
	}
	return nil
}

//go:linkname newProtoAny github.com/runloop-dev/durable-go/wire.newProtoAny
func newProtoAny(*anypb.Any) wire.Any

//go:linkname anyProto github.com/runloop-dev/durable-go/wire.anyProto
func anyProto(r wire.Any) *anypb.Any
