//go:build !durable

package durable

import "github.com/runloop-dev/durable-go/wire"

var (
	// ErrTimeout indicates an operation failed due to a timeout.
	ErrTimeout error = wire.StatusError(wire.TimeoutStatus)

	// ErrThrottled indicates an operation failed due to throttling.
	ErrThrottled error = wire.StatusError(wire.ThrottledStatus)

	// ErrInvalidArgument indicates an operation failed due to an invalid argument.
	ErrInvalidArgument error = wire.StatusError(wire.InvalidArgumentStatus)

	// ErrInvalidResponse indicates an operation failed due to an invalid response.
	ErrInvalidResponse error = wire.StatusError(wire.InvalidResponseStatus)

	// ErrTemporary indicates an operation failed with a temporary error.
	ErrTemporary error = wire.StatusError(wire.TemporaryErrorStatus)

	// ErrPermanent indicates an operation failed with a permanent error.
	ErrPermanent error = wire.StatusError(wire.PermanentErrorStatus)

	// ErrIncompatibleState indicates that a function's serialized state is incompatible.
	ErrIncompatibleState error = wire.StatusError(wire.IncompatibleStateStatus)

	// ErrDNS indicates an operation failed with a DNS error.
	ErrDNS error = wire.StatusError(wire.DNSErrorStatus)

	// ErrTCP indicates an operation failed with a TCP error.
	ErrTCP error = wire.StatusError(wire.TCPErrorStatus)

	// ErrTLS indicates an operation failed with a TLS error.
	ErrTLS error = wire.StatusError(wire.TLSErrorStatus)

	// ErrHTTP indicates an operation failed with a HTTP error.
	ErrHTTP error = wire.StatusError(wire.HTTPErrorStatus)

	// ErrUnauthenticated indicates an operation failed or was not attempted
	// because the caller did not authenticate correctly.
	ErrUnauthenticated error = wire.StatusError(wire.UnauthenticatedStatus)

	// ErrPermissionDenied indicates an operation failed or was not attempted
	// because the caller did not have permission.
	ErrPermissionDenied error = wire.StatusError(wire.PermissionDeniedStatus)

	// ErrNotFound indicates an operation failed because a resource could not be found.
	ErrNotFound error = wire.StatusError(wire.NotFoundStatus)
)
