// Package transport carries one encoded request to the backend and returns
// the encoded response. Implementations never retry, cache or batch calls.
package transport

import (
	"context"
	"errors"
	"fmt"
)

// ErrTransportFailure matches every error produced by a Transport.
var ErrTransportFailure = errors.New("transport: failure")

// Transport delivers one request body for endpoint and returns the response
// body. It must be safe for concurrent use.
type Transport interface {
	RoundTrip(ctx context.Context, endpoint string, body []byte) ([]byte, error)
}

// Func adapts a plain function to Transport.
type Func func(ctx context.Context, endpoint string, body []byte) ([]byte, error)

func (f Func) RoundTrip(ctx context.Context, endpoint string, body []byte) ([]byte, error) {
	return f(ctx, endpoint, body)
}

// Error wraps the cause of a failed round trip. Status is the HTTP-like
// status reported by the peer, zero when none was received.
type Error struct {
	Endpoint string
	Status   int
	Err      error
}

func (e *Error) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("transport: %s: status %d: %v", e.Endpoint, e.Status, e.Err)
	}
	return fmt.Sprintf("transport: %s: %v", e.Endpoint, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) Is(target error) bool {
	return target == ErrTransportFailure
}

// Wrap returns err as a *Error for endpoint. nil stays nil and an existing
// *Error is returned unchanged.
func Wrap(endpoint string, err error) error {
	if err == nil {
		return nil
	}
	var te *Error
	if errors.As(err, &te) {
		return err
	}
	return &Error{Endpoint: endpoint, Err: err}
}

type callIDKey struct{}

// WithCallID attaches a correlation id that transports forward to the peer.
func WithCallID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, callIDKey{}, id)
}

func CallIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(callIDKey{}).(string)
	return id
}
