//go:build !durable

package client

import (
	"context"
	"fmt"
	"math/rand/v2"
	"net/http"
	"os"
	"time"
	_ "unsafe"

	"buf.build/gen/go/stealthrocket/dispatch-proto/connectrpc/go/dispatch/sdk/v1/sdkv1connect"
	sdkv1 "buf.build/gen/go/stealthrocket/dispatch-proto/protocolbuffers/go/dispatch/sdk/v1"
	"connectrpc.com/connect"
	"connectrpc.com/validate"
	"github.com/runloop-dev/durable-go/internal/env"
	"github.com/runloop-dev/durable-go/wire"
)

const defaultApiUrl = "https://api.durable.run"

// maxDispatchAttempts bounds the client-side retry loop for transient
// RPC failures.
const maxDispatchAttempts = 5

const (
	retryBaseDelay = 100 * time.Millisecond
	retryMaxDelay  = 5 * time.Second
)

// Client is a client for the scheduler API.
//
// The Client can be used to dispatch function calls.
type Client struct {
	apiKey        string
	apiKeyFromEnv bool
	apiUrl        string
	env           []string
	httpClient    *http.Client
	opts          []Option

	client sdkv1connect.DispatchServiceClient
}

// New creates a Client.
func New(opts ...Option) (*Client, error) {
	c := &Client{
		env:  os.Environ(),
		opts: opts,
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.apiKey == "" {
		c.apiKey = env.Get(c.env, "DURABLE_API_KEY")
		c.apiKeyFromEnv = true
	}
	if c.apiKey == "" {
		return nil, fmt.Errorf("API key has not been set. Use APIKey(..), or set the DURABLE_API_KEY environment variable")
	}

	if c.apiUrl == "" {
		c.apiUrl = env.Get(c.env, "DURABLE_API_URL")
	}
	if c.apiUrl == "" {
		c.apiUrl = defaultApiUrl
	}

	if c.httpClient == nil {
		c.httpClient = http.DefaultClient
	}

	authenticator := connect.UnaryInterceptorFunc(func(next connect.UnaryFunc) connect.UnaryFunc {
		authorization := "Bearer " + c.apiKey
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			req.Header().Add("Authorization", authorization)
			return next(ctx, req)
		}
	})

	validator, err := validate.NewInterceptor()
	if err != nil {
		return nil, err
	}

	c.client = sdkv1connect.NewDispatchServiceClient(c.httpClient, c.apiUrl,
		connect.WithInterceptors(validator, authenticator))

	return c, nil
}

// Option configures a Client.
type Option func(*Client)

// APIKey sets the API key to use for authentication when dispatching
// function calls through a Client.
//
// It defaults to the value of the DURABLE_API_KEY environment variable.
func APIKey(apiKey string) Option {
	return func(c *Client) { c.apiKey = apiKey }
}

// APIUrl sets the URL of the scheduler API.
//
// It defaults to the value of the DURABLE_API_URL environment variable,
// or the default API URL (https://api.durable.run) if DURABLE_API_URL
// is unset.
func APIUrl(apiUrl string) Option {
	return func(c *Client) { c.apiUrl = apiUrl }
}

// Env sets the environment variables that a Client parses its
// default configuration from.
//
// It defaults to os.Environ().
func Env(env ...string) Option {
	return func(c *Client) { c.env = env }
}

// Dispatch dispatches a function call.
func (c *Client) Dispatch(ctx context.Context, call wire.Call) (wire.ID, error) {
	batch := c.Batch()
	batch.Add(call)
	ids, err := batch.Dispatch(ctx)
	if err != nil {
		return "", err
	}
	return ids[0], nil
}

// Batch creates a Batch.
func (c *Client) Batch() Batch {
	return Batch{client: c}
}

// Batch is used to submit a batch of function calls to the scheduler.
type Batch struct {
	client *Client

	calls []*sdkv1.Call
}

// Reset resets the batch.
func (b *Batch) Reset() {
	clear(b.calls)
	b.calls = b.calls[:0]
}

// Add adds calls to the batch.
func (b *Batch) Add(calls ...wire.Call) {
	for i := range calls {
		b.calls = append(b.calls, callProto(calls[i]))
	}
}

//go:linkname callProto github.com/runloop-dev/durable-go/wire.callProto
func callProto(r wire.Call) *sdkv1.Call

// Dispatch dispatches the batch of function calls.
//
// Transient failures (timeouts, throttling, temporary transport errors)
// are retried internally with exponential backoff and jitter, up to
// maxDispatchAttempts. Non-transient errors, such as invalid
// credentials or an invalid call, are returned to the caller
// immediately.
func (b *Batch) Dispatch(ctx context.Context) ([]wire.ID, error) {
	req := connect.NewRequest(&sdkv1.DispatchRequest{Calls: b.calls})

	var lastErr error
	for attempt := 0; attempt < maxDispatchAttempts; attempt++ {
		if attempt > 0 {
			if err := sleep(ctx, backoff(attempt)); err != nil {
				return nil, err
			}
		}

		res, err := b.client.client.Dispatch(ctx, req)
		if err == nil {
			ids := make([]wire.ID, len(res.Msg.DispatchIds))
			for i, id := range res.Msg.DispatchIds {
				ids[i] = wire.ID(id)
			}
			return ids, nil
		}

		if connect.CodeOf(err) == connect.CodeUnauthenticated {
			if b.client.apiKeyFromEnv {
				return nil, fmt.Errorf("invalid DURABLE_API_KEY: %s", redactAPIKey(b.client.apiKey))
			}
			return nil, fmt.Errorf("invalid API key provided with APIKey(..): %s", redactAPIKey(b.client.apiKey))
		}

		lastErr = err
		if !retryableStatus(wire.ErrorStatus(err)) {
			return nil, err
		}
	}
	return nil, fmt.Errorf("dispatch failed after %d attempts: %w", maxDispatchAttempts, lastErr)
}

func retryableStatus(status wire.Status) bool {
	switch status {
	case wire.TimeoutStatus, wire.ThrottledStatus, wire.TemporaryErrorStatus:
		return true
	default:
		return false
	}
}

func backoff(attempt int) time.Duration {
	d := retryBaseDelay * time.Duration(1<<uint(attempt-1))
	if d > retryMaxDelay {
		d = retryMaxDelay
	}
	return d/2 + time.Duration(rand.Int64N(int64(d/2)+1))
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func redactAPIKey(s string) string {
	if len(s) <= 3 {
		// Don't redact the string if it's this short. It's not a valid API
		// key if so, and even if it was it would be easy to brute force and so
		// redaction would not serve a purpose. The idea is that we show a bit
		// of the API key to help the user fix an issue.
		return s
	}
	return s[:3] + "********"
}
