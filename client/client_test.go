//go:build !durable

package client_test

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"connectrpc.com/connect"
	"github.com/runloop-dev/durable-go/client"
	"github.com/runloop-dev/durable-go/durabletest"
	"github.com/runloop-dev/durable-go/server"
	"github.com/runloop-dev/durable-go/wire"
)

var errTransient = errors.New("transient failure")

func TestClient(t *testing.T) {
	recorder := &durabletest.CallRecorder{}
	server := durabletest.NewServer(recorder)

	c, err := client.New(client.APIKey("foobar"), client.APIUrl(server.URL))
	if err != nil {
		t.Fatal(err)
	}

	call := wire.NewCall("http://example.com", "function1", wire.Int(11))

	_, err = c.Dispatch(context.Background(), call)
	if err != nil {
		t.Fatal(err)
	}

	recorder.Assert(t, durabletest.DispatchRequest{
		Header: http.Header{"Authorization": []string{"Bearer foobar"}},
		Calls:  []wire.Call{call},
	})
}

func TestClientEnvConfig(t *testing.T) {
	recorder := &durabletest.CallRecorder{}
	server := durabletest.NewServer(recorder)

	c, err := client.New(client.Env(
		"DURABLE_API_KEY=foobar",
		"DURABLE_API_URL="+server.URL,
	))
	if err != nil {
		t.Fatal(err)
	}

	call := wire.NewCall("http://example.com", "function1", wire.Int(11))

	_, err = c.Dispatch(context.Background(), call)
	if err != nil {
		t.Fatal(err)
	}

	recorder.Assert(t, durabletest.DispatchRequest{
		Header: http.Header{"Authorization": []string{"Bearer foobar"}},
		Calls:  []wire.Call{call},
	})
}

func TestClientBatch(t *testing.T) {
	recorder := &durabletest.CallRecorder{}
	server := durabletest.NewServer(recorder)

	c, err := client.New(client.APIKey("foobar"), client.APIUrl(server.URL))
	if err != nil {
		t.Fatal(err)
	}

	call1 := wire.NewCall("http://example.com", "function1", wire.Int(11))
	call2 := wire.NewCall("http://example.com", "function2", wire.Int(22))
	call3 := wire.NewCall("http://example.com", "function3", wire.Int(33))
	call4 := wire.NewCall("http://example2.com", "function4", wire.Int(44))

	batch := c.Batch()
	batch.Add(call1, call2)
	_, err = batch.Dispatch(context.Background())
	if err != nil {
		t.Fatal(err)
	}

	batch.Reset()
	batch.Add(call3)
	batch.Add(call4)
	_, err = batch.Dispatch(context.Background())
	if err != nil {
		t.Fatal(err)
	}

	recorder.Assert(t,
		durabletest.DispatchRequest{
			Header: http.Header{"Authorization": []string{"Bearer foobar"}},
			Calls:  []wire.Call{call1, call2},
		},
		durabletest.DispatchRequest{
			Header: http.Header{"Authorization": []string{"Bearer foobar"}},
			Calls:  []wire.Call{call3, call4},
		})
}

func TestClientNoAPIKey(t *testing.T) {
	_, err := client.New(client.Env( /* i.e. no env vars */ ))
	if err == nil {
		t.Fatalf("expected an error")
	} else if err.Error() != "API key has not been set. Use APIKey(..), or set the DURABLE_API_KEY environment variable" {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestClientRetriesTransientErrors(t *testing.T) {
	var attempts int
	recorder := &durabletest.CallRecorder{}
	flaky := server.HandlerFunc(func(ctx context.Context, header http.Header, calls []wire.Call) ([]wire.ID, error) {
		attempts++
		if attempts < 3 {
			return nil, connect.NewError(connect.CodeUnavailable, errTransient)
		}
		return recorder.Handle(ctx, header, calls)
	})
	srv := durabletest.NewServer(flaky)

	c, err := client.New(client.APIKey("foobar"), client.APIUrl(srv.URL))
	if err != nil {
		t.Fatal(err)
	}

	call := wire.NewCall("http://example.com", "function1", wire.Int(11))
	if _, err := c.Dispatch(context.Background(), call); err != nil {
		t.Fatal(err)
	}
	if attempts != 3 {
		t.Fatalf("expected 3 attempts, got %d", attempts)
	}
}
