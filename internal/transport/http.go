package transport

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/danmuck/ipcwire/internal/observability"
)

const (
	ContentType     = "application/octet-stream"
	maxErrorBodyLen = 4 << 10
)

type HTTPConfig struct {
	// BaseURL is the scheme+host prefix; calls go to {BaseURL}/ipc/{endpoint}.
	BaseURL    string
	Timeout    time.Duration
	Credential []byte
	TLS        *tls.Config
	// Client overrides the default client built from Timeout and TLS.
	Client *http.Client
}

// HTTP posts each call body to the backend's /ipc route.
type HTTP struct {
	base       *url.URL
	credential string
	client     *http.Client
}

func NewHTTP(cfg HTTPConfig) (*HTTP, error) {
	base, err := url.Parse(strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"))
	if err != nil {
		return nil, fmt.Errorf("transport: parse base url: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("transport: unsupported base url scheme %q", base.Scheme)
	}
	client := cfg.Client
	if client == nil {
		tr := http.DefaultTransport.(*http.Transport).Clone()
		if cfg.TLS != nil {
			tr.TLSClientConfig = cfg.TLS
		}
		client = &http.Client{Timeout: cfg.Timeout, Transport: tr}
	}
	h := &HTTP{base: base, client: client}
	if len(cfg.Credential) > 0 {
		h.credential = "Bearer " + base64.StdEncoding.EncodeToString(cfg.Credential)
	}
	return h, nil
}

func (h *HTTP) endpointURL(endpoint string) string {
	return h.base.JoinPath("ipc", endpoint).String()
}

func (h *HTTP) RoundTrip(ctx context.Context, endpoint string, body []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.endpointURL(endpoint), bytes.NewReader(body))
	if err != nil {
		return nil, Wrap(endpoint, err)
	}
	req.Header.Set("Content-Type", ContentType)
	req.Header.Set("Accept", ContentType)
	if h.credential != "" {
		req.Header.Set("Authorization", h.credential)
	}
	if id := CallIDFromContext(ctx); id != "" {
		req.Header.Set(observability.CallIDHeader, id)
	}

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, Wrap(endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyLen))
		msg := strings.TrimSpace(string(raw))
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return nil, &Error{Endpoint: endpoint, Status: resp.StatusCode, Err: errors.New(msg)}
	}
	out, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, Wrap(endpoint, err)
	}
	return out, nil
}
