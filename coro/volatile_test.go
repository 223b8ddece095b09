package coro

import (
	"testing"

	"github.com/runloop-dev/durable-go/wire"
)

func TestVolatileCoroutinesRegisterFind(t *testing.T) {
	var instances VolatileCoroutines

	inst := New(func() wire.Response { return wire.NewResponse() })
	id := instances.Register(inst)

	if _, err := instances.Find(id); err != nil {
		t.Fatal(err)
	}
}

func TestVolatileCoroutinesFindMissing(t *testing.T) {
	var instances VolatileCoroutines
	if _, err := instances.Find(123); err == nil {
		t.Fatal("expected an error for an unregistered instance")
	}
}

func TestVolatileCoroutinesDelete(t *testing.T) {
	var instances VolatileCoroutines

	inst := New(func() wire.Response { return wire.NewResponse() })
	id := instances.Register(inst)
	instances.Delete(id)

	if _, err := instances.Find(id); err == nil {
		t.Fatal("expected an error after deleting the instance")
	}
}

func TestVolatileCoroutinesUniqueIDs(t *testing.T) {
	var instances VolatileCoroutines

	id1 := instances.Register(New(func() wire.Response { return wire.NewResponse() }))
	id2 := instances.Register(New(func() wire.Response { return wire.NewResponse() }))
	if id1 == id2 {
		t.Fatal("expected distinct instance IDs")
	}
}

func TestVolatileCoroutinesClose(t *testing.T) {
	var instances VolatileCoroutines

	instances.Register(New(func() wire.Response { return wire.NewResponse() }))
	instances.Register(New(func() wire.Response { return wire.NewResponse() }))

	if err := instances.Close(); err != nil {
		t.Fatal(err)
	}
	if _, err := instances.Find(1); err == nil {
		t.Fatal("expected instances to be cleared after Close")
	}
}
