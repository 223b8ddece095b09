//go:build !durable

package durabletest

import (
	"crypto/ed25519"
	"encoding/base64"
	"fmt"
	"net/http"
	"net/http/httptest"

	"github.com/runloop-dev/durable-go"
	"github.com/runloop-dev/durable-go/server"
)

// NewEndpoint creates a durable execution endpoint, like durable.New.
//
// Unlike durable.New, it starts a test server that serves the endpoint
// and automatically sets the endpoint URL.
func NewEndpoint(opts ...durable.Option) (*durable.Endpoint, *EndpointServer, error) {
	mux := http.NewServeMux()
	server := httptest.NewServer(mux)

	opts = append(opts, durable.EndpointUrl(server.URL))
	endpoint, err := durable.New(opts...)
	if err != nil {
		server.Close()
		return nil, nil, err
	}

	mux.Handle(endpoint.Handler())

	return endpoint, &EndpointServer{server}, nil
}

// EndpointServer is a server serving a durable execution endpoint.
type EndpointServer struct {
	server *httptest.Server
}

// Client returns a client that can be used to interact with the
// endpoint.
func (e *EndpointServer) Client(opts ...server.EndpointClientOption) (*server.EndpointClient, error) {
	return server.NewEndpointClient(e.server.URL, opts...)
}

// URL is the URL of the server.
func (e *EndpointServer) URL() string {
	return e.server.URL
}

// Close closes the server.
func (e *EndpointServer) Close() {
	e.server.Close()
}

// SigningKey sets the signing key to use when signing requests bound
// for the endpoint.
//
// The signing key should be a base64-encoded ed25519.PrivateKey, e.g.
// one provided by the KeyPair helper function.
func SigningKey(signingKey string) server.EndpointClientOption {
	pk, err := base64.StdEncoding.DecodeString(signingKey)
	if err != nil || len(pk) != ed25519.PrivateKeySize {
		panic(fmt.Errorf("invalid signing key: %v", signingKey))
	}
	return server.SigningKey(pk)
}
