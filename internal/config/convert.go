package config

import (
	"bytes"
	"fmt"
	"net"
	"net/url"
	"os"
	"slices"
	"strings"

	"github.com/danmuck/ipcwire/internal/auth"
	"github.com/danmuck/ipcwire/internal/backend/memory"
	"github.com/danmuck/ipcwire/internal/protocol/frame"
	"github.com/danmuck/ipcwire/internal/server"
	"github.com/danmuck/ipcwire/internal/transport"
)

// BuildTransport returns the transport selected by cfg.Transport.
func BuildTransport(cfg ClientConfig) (transport.Transport, error) {
	credential, err := readCredential(cfg.CredentialFile)
	if err != nil {
		return nil, err
	}
	session := cfg.Session.WithDefaults()

	switch cfg.Transport {
	case TransportFrame:
		return transport.NewFrame(transport.FrameConfig{
			Address:    cfg.FrameAddress,
			Session:    session,
			Credential: credential,
		})
	case TransportHTTP, "":
		httpCfg := transport.HTTPConfig{
			BaseURL:    cfg.BaseURL,
			Timeout:    cfg.Timeout,
			Credential: credential,
		}
		if session.TLS.Enabled {
			if err := session.ValidateClientTransport(); err != nil {
				return nil, err
			}
			addr, err := tlsAddress(cfg.BaseURL)
			if err != nil {
				return nil, err
			}
			if httpCfg.TLS, err = session.ClientTLSConfig(addr); err != nil {
				return nil, err
			}
		}
		return transport.NewHTTP(httpCfg)
	default:
		return nil, fmt.Errorf("%w: unknown transport %q", ErrInvalidConfig, cfg.Transport)
	}
}

// tlsAddress turns a base URL into the host:port used for TLS server names.
func tlsAddress(baseURL string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(baseURL))
	if err != nil {
		return "", fmt.Errorf("parse base_url: %w", err)
	}
	if u.Port() != "" {
		return u.Host, nil
	}
	return net.JoinHostPort(u.Hostname(), "443"), nil
}

func readCredential(path string) ([]byte, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read credential file: %w", err)
	}
	return bytes.TrimSpace(data), nil
}

// ServerSettings builds the server configuration, reading the credential file
// when one is set.
func ServerSettings(cfg ServerConfig) (server.Config, error) {
	var validator auth.Validator = auth.AllowAll{}
	if cfg.CredentialFile != "" {
		credential, err := readCredential(cfg.CredentialFile)
		if err != nil {
			return server.Config{}, err
		}
		if len(credential) == 0 {
			return server.Config{}, fmt.Errorf("%w: credential file %s is empty", ErrInvalidConfig, cfg.CredentialFile)
		}
		validator = auth.StaticCredential{Credential: credential}
	}
	return server.Config{
		Name:            cfg.Name,
		HTTPAddr:        cfg.HTTPAddr,
		FrameAddr:       cfg.FrameAddr,
		CorsOrigins:     slices.Clone(cfg.CorsOrigins),
		Session:         cfg.Session,
		Limits:          frame.Limits{MaxPayloadBytes: cfg.MaxPayloadBytes},
		ShutdownTimeout: cfg.ShutdownTimeout,
		Auth:            validator,
	}, nil
}

func MemoryAccounts(entries []Account) []memory.Account {
	accounts := make([]memory.Account, 0, len(entries))
	for _, entry := range entries {
		accounts = append(accounts, memory.Account{
			Username:      entry.Username,
			Password:      entry.Password,
			TwoFactorCode: entry.TwoFactorCode,
			UserID:        entry.UserID,
			Handles:       slices.Clone(entry.Handles),
		})
	}
	return accounts
}
