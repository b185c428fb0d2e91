package transport

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/danmuck/ipcwire/internal/observability"
	"github.com/danmuck/ipcwire/internal/testutil/testlog"
)

func TestHTTPRoundTripPostsToEndpoint(t *testing.T) {
	testlog.Start(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/ipc/select_handle" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if got := r.Header.Get("Content-Type"); got != ContentType {
			t.Errorf("content type %q", got)
		}
		want := "Bearer " + base64.StdEncoding.EncodeToString([]byte("token"))
		if got := r.Header.Get("Authorization"); got != want {
			t.Errorf("authorization %q want %q", got, want)
		}
		if got := r.Header.Get(observability.CallIDHeader); got != "c-1" {
			t.Errorf("call id %q", got)
		}
		body, _ := io.ReadAll(r.Body)
		if !bytes.Equal(body, []byte{0x03, 'b', 'o', 'b'}) {
			t.Errorf("body % x", body)
		}
		_, _ = w.Write([]byte{0x00})
	}))
	defer srv.Close()

	tr, err := NewHTTP(HTTPConfig{BaseURL: srv.URL + "/", Credential: []byte("token"), Timeout: time.Second})
	if err != nil {
		t.Fatalf("new http: %v", err)
	}
	out, err := tr.RoundTrip(WithCallID(context.Background(), "c-1"), "select_handle", []byte{0x03, 'b', 'o', 'b'})
	if err != nil {
		t.Fatalf("round trip: %v", err)
	}
	if !bytes.Equal(out, []byte{0x00}) {
		t.Fatalf("response % x", out)
	}
}

func TestHTTPNon2xxIsTransportFailure(t *testing.T) {
	testlog.Start(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "unknown endpoint", http.StatusNotFound)
	}))
	defer srv.Close()

	tr, err := NewHTTP(HTTPConfig{BaseURL: srv.URL})
	if err != nil {
		t.Fatalf("new http: %v", err)
	}
	_, err = tr.RoundTrip(context.Background(), "nope", nil)
	if !errors.Is(err, ErrTransportFailure) {
		t.Fatalf("expected ErrTransportFailure, got %v", err)
	}
	var te *Error
	if !errors.As(err, &te) || te.Status != http.StatusNotFound || te.Err.Error() != "unknown endpoint" {
		t.Fatalf("unexpected error %#v", err)
	}
}

func TestHTTPContextCancelIsTransportFailure(t *testing.T) {
	testlog.Start(t)
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	tr, err := NewHTTP(HTTPConfig{BaseURL: srv.URL})
	if err != nil {
		t.Fatalf("new http: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err = tr.RoundTrip(ctx, "get_user", nil)
	if !errors.Is(err, ErrTransportFailure) || !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline transport failure, got %v", err)
	}
}

func TestNewHTTPRejectsBadScheme(t *testing.T) {
	testlog.Start(t)
	if _, err := NewHTTP(HTTPConfig{BaseURL: "ipc://localhost"}); err == nil {
		t.Fatalf("expected scheme error")
	}
}
