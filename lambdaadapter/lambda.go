//go:build !durable

package lambdaadapter

import (
	"context"
	"encoding/base64"
	"log/slog"
	"strings"
	_ "unsafe"

	sdkv1 "buf.build/gen/go/stealthrocket/dispatch-proto/protocolbuffers/go/dispatch/sdk/v1"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-lambda-go/lambda/messages"
	"github.com/aws/aws-lambda-go/lambdacontext"
	"github.com/aws/aws-sdk-go/aws/arn"
	"github.com/runloop-dev/durable-go"
	"github.com/runloop-dev/durable-go/wire"
	"google.golang.org/protobuf/proto"
)

// Start starts a Lambda function handler serving the given durable
// functions, invoked by a remote scheduler through the Lambda
// invocation API rather than over HTTP.
func Start(functions ...durable.AnyFunction) {
	lambda.Start(Handler(functions...))
}

// Handler creates a Lambda function handler serving the given durable
// functions.
func Handler(functions ...durable.AnyFunction) lambda.Handler {
	fns := wire.FunctionMap{}
	for _, fn := range functions {
		fns[fn.Name()] = fn.Primitive()
	}
	return handlerFunc(fns)
}

type handlerFunc wire.FunctionMap

// Invoke handles a single Lambda invocation.
//
// The payload is a JSON string (quoted) containing base64 encoded
// protobuf bytes, matching the encoding that API Gateway/Lambda
// invocation uses for opaque binary payloads.
func (h handlerFunc) Invoke(ctx context.Context, payload []byte) ([]byte, error) {
	rawPayload, err := unwrapPayload(payload)
	if err != nil {
		return nil, err
	}

	functionArn, err := invokedFunctionArn(ctx)
	if err != nil {
		return nil, err
	}
	slog.Debug("handling Lambda invocation", "arn", functionArn)

	req := new(sdkv1.RunRequest)
	if err := proto.Unmarshal(rawPayload, req); err != nil {
		return nil, badRequest("payload did not contain a protobuf encoded run request")
	}

	res := wire.FunctionMap(h).Run(ctx, newProtoRequest(req))

	rawResponse, err := proto.Marshal(responseProto(res))
	if err != nil {
		return nil, err
	}
	return wrapPayload(rawResponse), nil
}

func unwrapPayload(payload []byte) ([]byte, error) {
	if len(payload) < 2 {
		return nil, badRequest("payload is too short")
	}
	if payload[0] != '"' || payload[len(payload)-1] != '"' {
		return nil, badRequest("payload is not a string")
	}
	payload = payload[1 : len(payload)-1]

	raw := make([]byte, base64.StdEncoding.DecodedLen(len(payload)))
	n, err := base64.StdEncoding.Decode(raw, payload)
	if err != nil {
		return nil, badRequest("payload is not base64 encoded")
	}
	return raw[:n], nil
}

func wrapPayload(raw []byte) []byte {
	payload := make([]byte, 2+base64.StdEncoding.EncodedLen(len(raw)))
	i := len(payload) - 1
	payload[0] = '"'
	payload[i] = '"'
	base64.StdEncoding.Encode(payload[1:i], raw)
	return payload
}

// invokedFunctionArn returns the ARN of the Lambda function currently
// being invoked, as reported by the Lambda runtime via the context.
func invokedFunctionArn(ctx context.Context) (string, error) {
	lambdaContext, ok := lambdacontext.FromContext(ctx)
	if !ok || lambdaContext.InvokedFunctionArn == "" {
		return "", badRequest("missing function ARN")
	}
	functionArn, err := arn.Parse(lambdaContext.InvokedFunctionArn)
	if err != nil {
		return "", badRequest("malformed function ARN")
	}
	if !strings.HasPrefix(functionArn.Resource, "function:") {
		return "", badRequest("function ARN is not a Lambda function ARN: invalid prefix: " + functionArn.String())
	}
	return functionArn.String(), nil
}

func badRequest(msg string) error {
	return messages.InvokeResponse_Error{
		Type:    "Bad Request",
		Message: msg,
	}
}

//go:linkname newProtoRequest github.com/runloop-dev/durable-go/wire.newProtoRequest
func newProtoRequest(r *sdkv1.RunRequest) wire.Request

//go:linkname responseProto github.com/runloop-dev/durable-go/wire.responseProto
func responseProto(r wire.Response) *sdkv1.RunResponse
