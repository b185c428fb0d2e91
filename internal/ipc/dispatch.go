package ipc

import (
	"context"
	"errors"
	"fmt"

	"github.com/danmuck/ipcwire/internal/protocol"
)

var (
	ErrUnknownEndpoint = errors.New("ipc: unknown endpoint")
	ErrMalformedArgs   = errors.New("ipc: malformed arguments")
)

type handlerFunc func(ctx context.Context, b Backend, args *protocol.Cursor, out *protocol.Writer) error

func argError(endpoint, param string, err error) error {
	if param == "" {
		return fmt.Errorf("%w: %s: %w", ErrMalformedArgs, endpoint, err)
	}
	return fmt.Errorf("%w: %s %s: %w", ErrMalformedArgs, endpoint, param, err)
}

// Dispatcher decodes the arguments of one call, invokes the Backend and
// encodes its return value.
type Dispatcher struct {
	backend Backend
}

func NewDispatcher(b Backend) *Dispatcher {
	return &Dispatcher{backend: b}
}

// Dispatch serves one call. Arguments are decoded strictly: trailing bytes
// are ErrMalformedArgs.
func (d *Dispatcher) Dispatch(ctx context.Context, endpoint string, body []byte) ([]byte, error) {
	h, ok := handlers[endpoint]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownEndpoint, endpoint)
	}
	out := protocol.NewWriter(16)
	if err := h(ctx, d.backend, protocol.NewCursor(body), out); err != nil {
		return nil, err
	}
	if err := out.Err(); err != nil {
		return nil, fmt.Errorf("ipc: encode %s result: %w", endpoint, err)
	}
	return out.Bytes(), nil
}

// RoundTrip lets a Dispatcher stand in for a Transport in-process.
func (d *Dispatcher) RoundTrip(ctx context.Context, endpoint string, body []byte) ([]byte, error) {
	return d.Dispatch(ctx, endpoint, body)
}
