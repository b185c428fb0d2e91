package server

import (
	"context"
	"errors"
	"net"
	"time"

	"github.com/danmuck/ipcwire/internal/observability"
	"github.com/danmuck/ipcwire/internal/protocol/frame"
	"github.com/danmuck/ipcwire/internal/protocol/schema"
)

// Serve runs the framed accept loop on ln until ctx is done.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	defer ln.Close()
	go func() {
		<-ctx.Done()
		_ = ln.Close()
		s.closeAllConns()
	}()

	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return nil
			}
			return err
		}
		s.trackConn(conn)
		go s.handleConn(ctx, conn)
	}
}

// handleConn answers call frames in order until the peer closes.
func (s *Server) handleConn(ctx context.Context, conn net.Conn) {
	defer conn.Close()
	defer s.untrackConn(conn)
	release := observability.TrackFrameConn()
	defer release()
	remote := conn.RemoteAddr().String()

	for {
		_ = conn.SetReadDeadline(time.Now().Add(s.cfg.Session.ReadTimeout))
		req, err := frame.ReadFrame(conn, s.cfg.Limits)
		if err != nil {
			if !errors.Is(err, frame.ErrShortHeader) && !errors.Is(err, net.ErrClosed) {
				s.logger.Warn().Str("remote", remote).Err(err).Msg("frame read failed")
			}
			return
		}
		reply := s.answer(ctx, req, remote)
		_ = conn.SetWriteDeadline(time.Now().Add(s.cfg.Session.WriteTimeout))
		if err := frame.WriteFrame(conn, reply, s.cfg.Limits); err != nil {
			s.logger.Warn().Str("remote", remote).Err(err).Msg("frame write failed")
			return
		}
		if reply.Header.MessageType == frame.MsgError && req.Header.MessageType != frame.MsgCall {
			return
		}
	}
}

func (s *Server) answer(ctx context.Context, req frame.Frame, remote string) frame.Frame {
	reply := frame.Frame{Header: frame.Header{
		MessageID:   req.Header.MessageID,
		MessageType: frame.MsgReply,
		Flags:       frame.FlagIsResponse,
	}}
	fail := func(msg string, status int) frame.Frame {
		reply.Header.MessageType = frame.MsgError
		reply.Header.Flags |= frame.FlagIsError
		reply.Payload = schema.EncodeError(msg, uint32(status))
		return reply
	}

	if req.Header.MessageType != frame.MsgCall {
		return fail("expected call frame", 400)
	}
	if err := s.cfg.Auth.Validate(req.Auth); err != nil {
		observability.RecordDispatch("frame", "unknown", observability.OutcomeUnauthorized)
		s.logger.Warn().Str("remote", remote).Err(err).Msg("frame call rejected")
		return fail(err.Error(), 401)
	}
	call, err := schema.DecodeCall(req.Payload)
	if err != nil {
		observability.RecordDispatch("frame", "unknown", observability.OutcomeDecodeError)
		return fail(err.Error(), 400)
	}

	start := time.Now()
	out, err := s.dispatcher.Dispatch(ctx, call.Endpoint, call.Body)
	if err != nil {
		status, outcome := classify(err)
		observability.RecordDispatch("frame", metricEndpoint(call.Endpoint, err), outcome)
		s.logger.Warn().
			Str("remote", remote).
			Str("endpoint", call.Endpoint).
			Str("call_id", call.CallID).
			Int("status", status).
			Err(err).
			Msg("frame call failed")
		return fail(err.Error(), status)
	}
	observability.RecordDispatch("frame", call.Endpoint, observability.OutcomeOK)
	s.logger.Info().
		Str("remote", remote).
		Str("endpoint", call.Endpoint).
		Str("call_id", call.CallID).
		Bool("auth", len(req.Auth) > 0).
		Dur("duration", time.Since(start)).
		Msg("frame_call")
	reply.Payload = schema.EncodeReply(out)
	return reply
}

func (s *Server) trackConn(conn net.Conn) {
	s.connsMu.Lock()
	defer s.connsMu.Unlock()
	s.conns[conn] = struct{}{}
}

func (s *Server) untrackConn(conn net.Conn) {
	s.connsMu.Lock()
	defer s.connsMu.Unlock()
	delete(s.conns, conn)
}

func (s *Server) closeAllConns() {
	s.connsMu.Lock()
	defer s.connsMu.Unlock()
	for conn := range s.conns {
		_ = conn.Close()
	}
}
