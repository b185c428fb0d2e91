package ipc

import (
	"context"
	"fmt"
	"time"

	"github.com/danmuck/ipcwire/internal/observability"
	"github.com/danmuck/ipcwire/internal/protocol"
	"github.com/danmuck/ipcwire/internal/transport"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Client issues typed calls over a Transport. Each call is independent; the
// client keeps no per-call state and is safe for concurrent use.
type Client struct {
	tr     transport.Transport
	logger zerolog.Logger
}

type ClientOption func(*Client)

func WithLogger(logger zerolog.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

func NewClient(tr transport.Transport, opts ...ClientOption) *Client {
	c := &Client{tr: tr, logger: log.Logger}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

var _ Backend = (*Client)(nil)

// invoke performs one round trip: the encoded args go out once and the reply
// must decode completely with decode. Nothing is retried.
func invoke[T any](
	ctx context.Context,
	cl *Client,
	endpoint string,
	args *protocol.Writer,
	decode func(*protocol.Cursor) (T, error),
) (T, error) {
	var zero T
	if err := args.Err(); err != nil {
		return zero, fmt.Errorf("ipc: encode %s args: %w", endpoint, err)
	}

	callID := uuid.NewString()
	body := args.Bytes()
	start := time.Now()
	resp, err := cl.tr.RoundTrip(transport.WithCallID(ctx, callID), endpoint, body)
	if err != nil {
		observability.RecordClientCall(endpoint, observability.OutcomeTransportError, time.Since(start))
		cl.logger.Warn().
			Str("endpoint", endpoint).
			Str("call_id", callID).
			Err(err).
			Msg("ipc call transport failure")
		return zero, transport.Wrap(endpoint, err)
	}

	v, err := protocol.DecodeAll(resp, decode)
	if err != nil {
		observability.RecordClientCall(endpoint, observability.OutcomeDecodeError, time.Since(start))
		cl.logger.Warn().
			Str("endpoint", endpoint).
			Str("call_id", callID).
			Int("bytes_in", len(resp)).
			Err(err).
			Msg("ipc call decode failure")
		return zero, fmt.Errorf("ipc: decode %s response: %w", endpoint, err)
	}

	observability.RecordClientCall(endpoint, observability.OutcomeOK, time.Since(start))
	cl.logger.Debug().
		Str("endpoint", endpoint).
		Str("call_id", callID).
		Int("bytes_out", len(body)).
		Int("bytes_in", len(resp)).
		Dur("duration", time.Since(start)).
		Msg("ipc call")
	return v, nil
}
