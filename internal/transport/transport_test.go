package transport

import (
	"context"
	"errors"
	"testing"

	"github.com/danmuck/ipcwire/internal/testutil/testlog"
)

func TestErrorMatchesTransportFailureAndUnwraps(t *testing.T) {
	testlog.Start(t)
	cause := errors.New("connection refused")
	err := Wrap("login", cause)
	if !errors.Is(err, ErrTransportFailure) {
		t.Fatalf("expected ErrTransportFailure, got %v", err)
	}
	if !errors.Is(err, cause) {
		t.Fatalf("expected cause to unwrap")
	}
	var te *Error
	if !errors.As(err, &te) || te.Endpoint != "login" {
		t.Fatalf("unexpected error %#v", err)
	}
	if again := Wrap("logout", err); again != err {
		t.Fatalf("Wrap should not double wrap")
	}
	if Wrap("login", nil) != nil {
		t.Fatalf("Wrap(nil) should be nil")
	}
}

func TestFuncAndCallID(t *testing.T) {
	testlog.Start(t)
	var seen string
	tr := Func(func(ctx context.Context, endpoint string, body []byte) ([]byte, error) {
		seen = CallIDFromContext(ctx)
		return append([]byte(endpoint), body...), nil
	})
	out, err := tr.RoundTrip(WithCallID(context.Background(), "call-7"), "ep", []byte{'!'})
	if err != nil || string(out) != "ep!" {
		t.Fatalf("round trip: %q %v", out, err)
	}
	if seen != "call-7" {
		t.Fatalf("call id not propagated: %q", seen)
	}
	if CallIDFromContext(context.Background()) != "" {
		t.Fatalf("expected empty call id")
	}
}
