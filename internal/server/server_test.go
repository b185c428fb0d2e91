package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/danmuck/ipcwire/internal/auth"
	"github.com/danmuck/ipcwire/internal/backend/memory"
	"github.com/danmuck/ipcwire/internal/ipc"
	"github.com/danmuck/ipcwire/internal/protocol"
	"github.com/danmuck/ipcwire/internal/protocol/frame"
	"github.com/danmuck/ipcwire/internal/protocol/schema"
	"github.com/danmuck/ipcwire/internal/testutil/testlog"
	"github.com/danmuck/ipcwire/internal/transport"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	backend := memory.New([]memory.Account{{
		Username: "alice",
		Password: "secret",
		UserID:   "u-alice",
		Handles:  []string{"@alice", "@alice-alt"},
	}})
	s, err := New(Config{Name: "ipcd-test"}, backend)
	require.NoError(t, err)
	return s
}

func TestHealthReportsEndpoints(t *testing.T) {
	testlog.Start(t)
	s := newTestServer(t)

	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Status    string   `json:"status"`
		Service   string   `json:"service"`
		Endpoints []string `json:"endpoints"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ok", body.Status)
	assert.Equal(t, "ipcd-test", body.Service)
	assert.ElementsMatch(t, ipc.Endpoints, body.Endpoints)
}

func TestMetricsEndpointServesPrometheus(t *testing.T) {
	testlog.Start(t)
	s := newTestServer(t)
	s.Router().ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health", nil))

	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "ipcwire_http_requests_total")
}

func TestIPCRouteDispatchesCall(t *testing.T) {
	testlog.Start(t)
	s := newTestServer(t)

	w := protocol.NewWriter(16)
	w.PutString("alice")
	w.PutString("secret")
	protocol.WriteOption(w, (*protocol.Writer).PutString, protocol.None[string]())
	require.NoError(t, w.Err())

	req := httptest.NewRequest(http.MethodPost, "/ipc/login", bytes.NewReader(w.Bytes()))
	req.Header.Set("Content-Type", transport.ContentType)
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, transport.ContentType, rec.Header().Get("Content-Type"))
	assert.Equal(t, []byte{0x00}, rec.Body.Bytes())
}

func TestIPCRouteStatusCodes(t *testing.T) {
	testlog.Start(t)
	s := newTestServer(t)

	cases := []struct {
		name     string
		endpoint string
		body     []byte
		want     int
	}{
		{"unknown endpoint", "reboot", nil, http.StatusNotFound},
		{"truncated args", "login", []byte{0x05, 'a'}, http.StatusBadRequest},
		{"trailing bytes", "logout", []byte{0x00}, http.StatusBadRequest},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			s.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/ipc/"+tc.endpoint, bytes.NewReader(tc.body)))
			assert.Equal(t, tc.want, rec.Code)
		})
	}
}

func TestIPCRouteRejectsOversizedBody(t *testing.T) {
	testlog.Start(t)
	s := newTestServer(t)
	s.cfg.Limits.MaxPayloadBytes = 4

	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/ipc/login", bytes.NewReader(make([]byte, 5))))
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestClientOverHTTPServer(t *testing.T) {
	testlog.Start(t)
	s := newTestServer(t)
	ts := httptest.NewServer(s.Router())
	defer ts.Close()

	tr, err := transport.NewHTTP(transport.HTTPConfig{BaseURL: ts.URL})
	require.NoError(t, err)
	client := ipc.NewClient(tr)
	ctx := context.Background()

	user, err := client.GetUser(ctx)
	require.NoError(t, err)
	code, isErr := user.ErrValue()
	require.True(t, isErr)
	assert.Equal(t, ipc.GetUserErrorCodeNotLoggedIn, code)

	failed, err := client.Login(ctx, "alice", "secret", protocol.None[string]())
	require.NoError(t, err)
	require.True(t, failed.IsNone(), "login: %v", failed)

	selected, err := client.SelectHandle(ctx, "@alice-alt")
	require.NoError(t, err)
	require.True(t, selected.IsNone(), "select: %v", selected)

	user, err = client.GetUser(ctx)
	require.NoError(t, err)
	got, ok := user.Value()
	require.True(t, ok)
	assert.Equal(t, ipc.User{UserID: "u-alice", Handles: []string{"@alice", "@alice-alt"}, SelectedHandle: "@alice-alt"}, got)
}

func startFrameServer(t *testing.T, s *Server) (string, func()) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx, ln) }()
	return ln.Addr().String(), func() {
		cancel()
		select {
		case err := <-done:
			require.NoError(t, err)
		case <-time.After(2 * time.Second):
			t.Fatalf("frame server did not stop")
		}
	}
}

func TestClientOverFrameServer(t *testing.T) {
	testlog.Start(t)
	s := newTestServer(t)
	addr, stop := startFrameServer(t, s)
	defer stop()

	tr, err := transport.NewFrame(transport.FrameConfig{Address: addr, Credential: []byte("token")})
	require.NoError(t, err)
	client := ipc.NewClient(tr)
	ctx := context.Background()

	res, err := client.Login(ctx, "alice", "wrong", protocol.None[string]())
	require.NoError(t, err)
	code, ok := res.Get()
	require.True(t, ok)
	assert.Equal(t, ipc.LoginErrorCodeLoginFailed, code)

	out, err := client.Logout(ctx)
	require.NoError(t, err)
	logoutCode, ok := out.Get()
	require.True(t, ok)
	assert.Equal(t, ipc.LogoutErrorCodeNotLoggedIn, logoutCode)
}

func TestFrameServerUnknownEndpointIsRemoteError(t *testing.T) {
	testlog.Start(t)
	s := newTestServer(t)
	addr, stop := startFrameServer(t, s)
	defer stop()

	tr, err := transport.NewFrame(transport.FrameConfig{Address: addr})
	require.NoError(t, err)
	_, err = tr.RoundTrip(context.Background(), "reboot", nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, transport.ErrTransportFailure))
	assert.True(t, errors.Is(err, schema.ErrRemote))
	assert.Contains(t, err.Error(), "status=404")
}

func TestFrameServerAnswersSeveralCallsPerConnection(t *testing.T) {
	testlog.Start(t)
	s := newTestServer(t)
	addr, stop := startFrameServer(t, s)
	defer stop()

	conn, err := net.Dial("tcp", addr)
	require.NoError(t, err)
	defer conn.Close()

	limits := frame.DefaultLimits()
	for id := uint64(1); id <= 3; id++ {
		req := frame.Frame{
			Header:  frame.Header{MessageID: id, MessageType: frame.MsgCall},
			Payload: schema.EncodeCall(schema.Call{Endpoint: ipc.EndpointGetUser, Body: []byte{}}),
		}
		require.NoError(t, frame.WriteFrame(conn, req, limits))
		reply, err := frame.ReadFrame(conn, limits)
		require.NoError(t, err)
		assert.Equal(t, id, reply.Header.MessageID)
		assert.Equal(t, frame.MsgReply, reply.Header.MessageType)
		body, err := schema.DecodeReply(reply.Header.MessageType, reply.Payload)
		require.NoError(t, err)
		// Err(NotLoggedIn)
		assert.Equal(t, []byte{0x01, 0x00}, body)
	}
}

func TestFrameServerRejectsNonCallFrame(t *testing.T) {
	testlog.Start(t)
	s := newTestServer(t)
	addr, stop := startFrameServer(t, s)
	defer stop()

	conn, err := net.Dial("tcp", addr)
	require.NoError(t, err)
	defer conn.Close()

	limits := frame.DefaultLimits()
	req := frame.Frame{
		Header:  frame.Header{MessageID: 7, MessageType: frame.MsgReply},
		Payload: schema.EncodeReply(nil),
	}
	require.NoError(t, frame.WriteFrame(conn, req, limits))
	reply, err := frame.ReadFrame(conn, limits)
	require.NoError(t, err)
	assert.Equal(t, frame.MsgError, reply.Header.MessageType)
	assert.NotZero(t, reply.Header.Flags&frame.FlagIsError)
	_, err = schema.DecodeReply(reply.Header.MessageType, reply.Payload)
	assert.ErrorIs(t, err, schema.ErrRemote)
}

func TestRunStopsOnCancel(t *testing.T) {
	testlog.Start(t)
	s := newTestServer(t)
	s.cfg.HTTPAddr = "127.0.0.1:0"
	s.cfg.FrameAddr = "127.0.0.1:0"

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()
	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatalf("Run did not return after cancel")
	}
}

func TestRunRejectsProductionWithoutTLS(t *testing.T) {
	testlog.Start(t)
	s := newTestServer(t)
	s.cfg.Session.SecurityMode = "production"
	require.Error(t, s.Run(context.Background()))
}

func TestNormalizeOrigins(t *testing.T) {
	got, err := normalizeOrigins([]string{" ", ""})
	require.NoError(t, err)
	assert.Equal(t, []string{"http://localhost:3000"}, got)

	got, err = normalizeOrigins([]string{" https://app.example ", "*"})
	require.NoError(t, err)
	assert.Equal(t, []string{"https://app.example", "*"}, got)

	_, err = normalizeOrigins([]string{"http://localhost:3000", "tauri://localhost"})
	assert.ErrorIs(t, err, ErrInvalidOrigin)
}

func TestNewWithDefaultAndCustomOrigins(t *testing.T) {
	testlog.Start(t)
	for _, origins := range [][]string{nil, {"http://localhost:3000", "https://app.example"}} {
		s, err := New(Config{CorsOrigins: origins}, memory.New(nil))
		require.NoError(t, err, "origins %v", origins)

		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		req.Header.Set("Origin", "http://localhost:3000")
		rec := httptest.NewRecorder()
		s.Router().ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "http://localhost:3000", rec.Header().Get("Access-Control-Allow-Origin"))
	}
}

func TestNewRejectsUnsupportedOriginScheme(t *testing.T) {
	testlog.Start(t)
	_, err := New(Config{CorsOrigins: []string{"tauri://localhost"}}, memory.New(nil))
	require.ErrorIs(t, err, ErrInvalidOrigin)
}

func TestRunReleasesHTTPListenerWhenFrameBindFails(t *testing.T) {
	testlog.Start(t)
	busy, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer busy.Close()

	free, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	httpAddr := free.Addr().String()
	require.NoError(t, free.Close())

	s := newTestServer(t)
	s.cfg.HTTPAddr = httpAddr
	s.cfg.FrameAddr = busy.Addr().String()
	require.Error(t, s.Run(context.Background()))

	again, err := net.Listen("tcp", httpAddr)
	require.NoError(t, err, "http address still bound after failed Run")
	require.NoError(t, again.Close())
}

func TestCredentialRequiredOnBothTransports(t *testing.T) {
	testlog.Start(t)
	s, err := New(Config{Name: "ipcd-auth", Auth: auth.StaticCredential{Credential: []byte("token")}}, memory.New(nil))
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/ipc/logout", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	ts := httptest.NewServer(s.Router())
	defer ts.Close()
	httpTr, err := transport.NewHTTP(transport.HTTPConfig{BaseURL: ts.URL, Credential: []byte("token")})
	require.NoError(t, err)
	_, err = ipc.NewClient(httpTr).Logout(context.Background())
	require.NoError(t, err)

	addr, stop := startFrameServer(t, s)
	defer stop()
	bad, err := transport.NewFrame(transport.FrameConfig{Address: addr, Credential: []byte("nope")})
	require.NoError(t, err)
	_, err = bad.RoundTrip(context.Background(), ipc.EndpointLogout, nil)
	require.ErrorIs(t, err, schema.ErrRemote)
	assert.Contains(t, err.Error(), "status=401")

	good, err := transport.NewFrame(transport.FrameConfig{Address: addr, Credential: []byte("token")})
	require.NoError(t, err)
	_, err = ipc.NewClient(good).Logout(context.Background())
	require.NoError(t, err)
}
