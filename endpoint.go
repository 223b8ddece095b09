//go:build !durable

package durable

import (
	"context"
	"crypto/ed25519"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"strings"
	"sync"
	_ "unsafe"

	"buf.build/gen/go/stealthrocket/dispatch-proto/connectrpc/go/dispatch/sdk/v1/sdkv1connect"
	sdkv1 "buf.build/gen/go/stealthrocket/dispatch-proto/protocolbuffers/go/dispatch/sdk/v1"
	"connectrpc.com/connect"
	"connectrpc.com/validate"
	"github.com/runloop-dev/durable-go/client"
	"github.com/runloop-dev/durable-go/wire"
	"github.com/runloop-dev/durable-go/internal/auth"
	"github.com/runloop-dev/durable-go/internal/env"
)

// Endpoint is a durable execution endpoint: an HTTP handler that hosts
// registered functions and can be polled by a remote scheduler.
type Endpoint struct {
	endpointUrl     string
	verificationKey string
	serveAddr       string
	env             []string
	opts            []Option

	client    *client.Client
	clientErr error

	path    string
	handler http.Handler

	functions wire.FunctionMap
	mu        sync.Mutex
}

// New creates an Endpoint.
func New(opts ...Option) (*Endpoint, error) {
	d := &Endpoint{
		env:       os.Environ(),
		opts:      opts,
		functions: map[string]wire.Function{},
	}
	for _, opt := range opts {
		opt(d)
	}

	// Prepare the endpoint URL.
	var endpointUrlFromEnv bool
	if d.endpointUrl == "" {
		d.endpointUrl = env.Get(d.env, "DURABLE_ENDPOINT_URL")
		endpointUrlFromEnv = true
	}
	if d.endpointUrl == "" {
		return nil, fmt.Errorf("endpoint URL has not been set. Use EndpointUrl(..), or set the DURABLE_ENDPOINT_URL environment variable")
	}
	_, err := url.Parse(d.endpointUrl)
	if err != nil {
		if endpointUrlFromEnv {
			return nil, fmt.Errorf("invalid DURABLE_ENDPOINT_URL: %v", d.endpointUrl)
		}
		return nil, fmt.Errorf("invalid endpoint URL provided via EndpointUrl(..): %v", d.endpointUrl)
	}

	// Prepare the address to serve on.
	if d.serveAddr == "" {
		d.serveAddr = env.Get(d.env, "DURABLE_ENDPOINT_ADDR")
		if d.serveAddr == "" {
			d.serveAddr = "127.0.0.1:8000"
		}
	}

	// Prepare the verification key.
	var verificationKeyFromEnv bool
	if d.verificationKey == "" {
		d.verificationKey = env.Get(d.env, "DURABLE_VERIFICATION_KEY")
		verificationKeyFromEnv = true
	}
	var verificationKey ed25519.PublicKey
	if d.verificationKey != "" {
		var err error
		verificationKey, err = auth.ParsePublicKey(d.verificationKey)
		if err != nil {
			if verificationKeyFromEnv {
				return nil, fmt.Errorf("invalid DURABLE_VERIFICATION_KEY: %v", d.verificationKey)
			}
			return nil, fmt.Errorf("invalid verification key provided via VerificationKey(..): %v", d.verificationKey)
		}
	}

	// Setup the gRPC handler.
	validator, err := validate.NewInterceptor()
	if err != nil {
		return nil, err
	}
	d.path, d.handler = sdkv1connect.NewFunctionServiceHandler(runHandler{d}, connect.WithInterceptors(validator))

	// Setup request signature validation.
	if verificationKey == nil {
		if !strings.HasPrefix(d.endpointUrl, "bridge://") {
			// Don't print this warning when running under the CLI.
			slog.Warn("request signature validation is disabled")
		}
	} else {
		verifier := auth.NewVerifier(verificationKey)
		d.handler = verifier.Middleware(d.handler)
	}

	// Optionally attach a client.
	if d.client == nil {
		d.client, d.clientErr = client.New(client.Env(d.env...))
	}

	return d, nil
}

// Option configures an Endpoint.
type Option func(d *Endpoint)

// EndpointUrl sets the URL of the endpoint.
//
// It defaults to the value of the DURABLE_ENDPOINT_URL environment
// variable.
func EndpointUrl(endpointUrl string) Option {
	return func(d *Endpoint) { d.endpointUrl = endpointUrl }
}

// VerificationKey sets the verification key to use when verifying
// request signatures.
//
// The key should be a PEM or base64-encoded ed25519 public key.
//
// It defaults to the value of the DURABLE_VERIFICATION_KEY environment
// variable value.
//
// If a verification key is not provided, request signatures will
// not be validated.
func VerificationKey(verificationKey string) Option {
	return func(d *Endpoint) { d.verificationKey = verificationKey }
}

// ServeAddress sets the address that the endpoint
// is served on (see Endpoint.Serve).
//
// Note that this is not the same as the endpoint URL, which is the
// URL that this endpoint is publicly accessible from.
//
// It defaults to the value of the DURABLE_ENDPOINT_ADDR environment
// variable, which is automatically set by the hosting CLI. If this
// is unset, it defaults to 127.0.0.1:8000.
func ServeAddress(addr string) Option {
	return func(d *Endpoint) { d.serveAddr = addr }
}

// Env sets the environment variables that an endpoint
// parses its default configuration from.
//
// It defaults to os.Environ().
func Env(env ...string) Option {
	return func(d *Endpoint) { d.env = env }
}

// Client sets the client to use when dispatching calls
// from functions registered on the endpoint.
//
// By default the endpoint will attempt to construct
// a client.Client instance using the DURABLE_API_KEY
// and optional DURABLE_API_URL environment variables. If more
// control is required over client configuration, the custom
// client instance can be registered here and used instead.
func Client(client *client.Client) Option {
	return func(d *Endpoint) { d.client = client }
}

// Register registers a function.
func (d *Endpoint) Register(fn AnyFunction) {
	d.RegisterPrimitive(fn.Name(), fn.Primitive())

	// Bind the function to this endpoint, so that the function's
	// Dispatch method can be used to submit calls.
	fn.register(d)
}

// RegisterPrimitive registers a primitive function.
func (d *Endpoint) RegisterPrimitive(name string, fn wire.Function) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.functions[name] = fn
}

// URL is the URL of the endpoint.
func (d *Endpoint) URL() string {
	return d.endpointUrl
}

// Handler returns an HTTP handler for the endpoint, along with the path
// that the handler should be registered at.
func (d *Endpoint) Handler() (string, http.Handler) {
	return d.path, d.handler
}

// Client returns the Client attached to this endpoint.
func (d *Endpoint) Client() (*client.Client, error) {
	return d.client, d.clientErr
}

// Serve serves the endpoint.
func (d *Endpoint) Serve() error {
	mux := http.NewServeMux()
	mux.Handle(d.Handler())

	slog.Info("serving durable execution endpoint", "addr", d.serveAddr)

	server := &http.Server{Addr: d.serveAddr, Handler: mux}
	return server.ListenAndServe()
}

// The gRPC handler is deliberately unexported. This forces
// the user to access it through Endpoint.Handler, and get
// a handler that has signature verification middleware attached.
type runHandler struct{ endpoint *Endpoint }

func (d runHandler) Run(ctx context.Context, req *connect.Request[sdkv1.RunRequest]) (*connect.Response[sdkv1.RunResponse], error) {
	res := d.endpoint.functions.Run(ctx, newProtoRequest(req.Msg))
	return connect.NewResponse(responseProto(res)), nil
}

//go:linkname newProtoRequest github.com/runloop-dev/durable-go/wire.newProtoRequest
func newProtoRequest(r *sdkv1.RunRequest) wire.Request

//go:linkname responseProto github.com/runloop-dev/durable-go/wire.responseProto
func responseProto(r wire.Response) *sdkv1.RunResponse
