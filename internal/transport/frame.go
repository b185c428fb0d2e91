package transport

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"sync/atomic"
	"time"

	"github.com/danmuck/ipcwire/internal/protocol/frame"
	"github.com/danmuck/ipcwire/internal/protocol/schema"
	"github.com/danmuck/ipcwire/internal/protocol/session"
	"github.com/rs/zerolog/log"
)

type FrameConfig struct {
	Address    string
	Session    session.Config
	Limits     frame.Limits
	Credential []byte
}

// Frame sends each call as one frame over a fresh TCP (or TLS) connection and
// reads exactly one reply frame.
type Frame struct {
	cfg    FrameConfig
	tls    *tls.Config
	nextID atomic.Uint64
}

func NewFrame(cfg FrameConfig) (*Frame, error) {
	cfg.Session = cfg.Session.WithDefaults()
	cfg.Limits = cfg.Limits.WithDefaults()
	if err := cfg.Session.ValidateClientTransport(); err != nil {
		return nil, err
	}
	f := &Frame{cfg: cfg}
	if cfg.Session.TLS.Enabled {
		tlsCfg, err := cfg.Session.ClientTLSConfig(cfg.Address)
		if err != nil {
			return nil, err
		}
		f.tls = tlsCfg
	}
	return f, nil
}

func (f *Frame) dial(ctx context.Context) (net.Conn, error) {
	dialer := net.Dialer{Timeout: f.cfg.Session.ConnectTimeout}
	rawConn, err := dialer.DialContext(ctx, "tcp", f.cfg.Address)
	if err != nil {
		return nil, err
	}
	if f.tls == nil {
		return rawConn, nil
	}

	conn := tls.Client(rawConn, f.tls)
	handshakeCtx, cancel := context.WithTimeout(ctx, f.cfg.Session.HandshakeTimeout)
	defer cancel()
	if err := conn.HandshakeContext(handshakeCtx); err != nil {
		_ = rawConn.Close()
		return nil, err
	}
	return conn, nil
}

func (f *Frame) RoundTrip(ctx context.Context, endpoint string, body []byte) ([]byte, error) {
	conn, err := f.dial(ctx)
	if err != nil {
		return nil, Wrap(endpoint, err)
	}
	defer conn.Close()
	stop := context.AfterFunc(ctx, func() {
		_ = conn.SetDeadline(time.Now())
	})
	defer stop()

	id := f.nextID.Add(1)
	req := frame.Frame{
		Header: frame.Header{MessageID: id, MessageType: frame.MsgCall},
		Auth:   f.cfg.Credential,
		Payload: schema.EncodeCall(schema.Call{
			Endpoint: endpoint,
			CallID:   CallIDFromContext(ctx),
			Body:     body,
		}),
	}
	if err := setDeadline(ctx, conn.SetWriteDeadline, f.cfg.Session.WriteTimeout); err != nil {
		return nil, Wrap(endpoint, err)
	}
	if err := frame.WriteFrame(conn, req, f.cfg.Limits); err != nil {
		return nil, Wrap(endpoint, err)
	}

	if err := setDeadline(ctx, conn.SetReadDeadline, f.cfg.Session.ReadTimeout); err != nil {
		return nil, Wrap(endpoint, err)
	}
	reply, err := frame.ReadFrame(conn, f.cfg.Limits)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, Wrap(endpoint, ctxErr)
		}
		return nil, Wrap(endpoint, err)
	}
	if reply.Header.MessageID != id {
		return nil, Wrap(endpoint, fmt.Errorf("reply message_id=%d want %d", reply.Header.MessageID, id))
	}
	out, err := schema.DecodeReply(reply.Header.MessageType, reply.Payload)
	if err != nil {
		log.Debug().Str("endpoint", endpoint).Uint64("message_id", id).Err(err).Msg("frame transport error reply")
		return nil, Wrap(endpoint, err)
	}
	return out, nil
}

// setDeadline applies the earlier of ctx's deadline and now+timeout, then
// rechecks ctx: a cancel that fired before set would otherwise be overwritten.
func setDeadline(ctx context.Context, set func(time.Time) error, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	if err := set(deadline); err != nil {
		return err
	}
	return ctx.Err()
}
