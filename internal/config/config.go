// Package config loads the TOML files read by ipcctl and ipcd.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/danmuck/ipcwire/internal/protocol/session"
	"github.com/danmuck/ipcwire/internal/server"
)

const (
	TransportHTTP  = "http"
	TransportFrame = "frame"
)

var ErrInvalidConfig = errors.New("config: invalid")

// ClientConfig selects and configures the transport used by ipcctl.
type ClientConfig struct {
	Transport      string
	BaseURL        string
	FrameAddress   string
	Timeout        time.Duration
	CredentialFile string
	PollInterval   time.Duration
	Session        session.Config
}

// Account is one [[accounts]] entry served by the memory backend.
type Account struct {
	Username      string   `toml:"username"`
	Password      string   `toml:"password"`
	TwoFactorCode string   `toml:"two_factor_code"`
	UserID        string   `toml:"user_id"`
	Handles       []string `toml:"handles"`
}

type ServerConfig struct {
	Name            string
	HTTPAddr        string
	FrameAddr       string
	CorsOrigins     []string
	MaxPayloadBytes uint64
	ShutdownTimeout time.Duration
	Session         session.Config
	Accounts        []Account

	// CredentialFile holds the credential every call must carry. Empty
	// accepts calls without one.
	CredentialFile string
}

func DefaultClientConfig() ClientConfig {
	return ClientConfig{
		Transport:    TransportHTTP,
		BaseURL:      "http://127.0.0.1:7420",
		FrameAddress: "127.0.0.1:7421",
		Timeout:      10 * time.Second,
		PollInterval: 2 * time.Second,
		Session:      session.DefaultConfig(),
	}
}

func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Name:            "ipcd",
		HTTPAddr:        "127.0.0.1:7420",
		FrameAddr:       "127.0.0.1:7421",
		CorsOrigins:     []string{"http://localhost:3000"},
		ShutdownTimeout: 5 * time.Second,
		Session:         session.DefaultConfig(),
	}
}

type sessionFile struct {
	SecurityMode     string            `toml:"security_mode"`
	ConnectTimeout   string            `toml:"connect_timeout"`
	HandshakeTimeout string            `toml:"handshake_timeout"`
	ReadTimeout      string            `toml:"read_timeout"`
	WriteTimeout     string            `toml:"write_timeout"`
	TLS              session.TLSConfig `toml:"tls"`
}

type clientFile struct {
	Transport      string `toml:"transport"`
	BaseURL        string `toml:"base_url"`
	FrameAddress   string `toml:"frame_address"`
	Timeout        string `toml:"timeout"`
	TimeoutMS      int64  `toml:"timeout_ms"`
	CredentialFile string `toml:"credential_file"`
	PollInterval   string `toml:"poll_interval"`
	PollIntervalMS int64  `toml:"poll_interval_ms"`
	sessionFile
}

type serverFile struct {
	Name            string    `toml:"name"`
	HTTPAddr        string    `toml:"http_addr"`
	FrameAddr       string    `toml:"frame_addr"`
	CorsOrigins     []string  `toml:"cors_origins"`
	MaxPayloadBytes int64     `toml:"max_payload_bytes"`
	ShutdownTimeout string    `toml:"shutdown_timeout"`
	CredentialFile  string    `toml:"credential_file"`
	Accounts        []Account `toml:"accounts"`
	sessionFile
}

func LoadClientConfig(path string) (ClientConfig, error) {
	cfg := DefaultClientConfig()

	var raw clientFile
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return ClientConfig{}, fmt.Errorf("load client config: %w", err)
	}

	if meta.IsDefined("transport") {
		cfg.Transport = strings.ToLower(strings.TrimSpace(raw.Transport))
	}
	if meta.IsDefined("base_url") {
		cfg.BaseURL = strings.TrimSpace(raw.BaseURL)
	}
	if meta.IsDefined("frame_address") {
		cfg.FrameAddress = strings.TrimSpace(raw.FrameAddress)
	}
	if meta.IsDefined("timeout") {
		if cfg.Timeout, err = parseDuration("timeout", raw.Timeout); err != nil {
			return ClientConfig{}, err
		}
	}
	if meta.IsDefined("timeout_ms") {
		cfg.Timeout = time.Duration(raw.TimeoutMS) * time.Millisecond
	}
	if meta.IsDefined("credential_file") {
		cfg.CredentialFile = strings.TrimSpace(raw.CredentialFile)
	}
	if meta.IsDefined("poll_interval") {
		if cfg.PollInterval, err = parseDuration("poll_interval", raw.PollInterval); err != nil {
			return ClientConfig{}, err
		}
	}
	if meta.IsDefined("poll_interval_ms") {
		cfg.PollInterval = time.Duration(raw.PollIntervalMS) * time.Millisecond
	}
	if cfg.Session, err = applySession(cfg.Session, meta, raw.sessionFile); err != nil {
		return ClientConfig{}, err
	}

	if err := ValidateClientConfig(cfg); err != nil {
		return ClientConfig{}, err
	}
	return cfg, nil
}

func LoadServerConfig(path string) (ServerConfig, error) {
	cfg := DefaultServerConfig()

	var raw serverFile
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return ServerConfig{}, fmt.Errorf("load server config: %w", err)
	}

	if meta.IsDefined("name") {
		if name := strings.TrimSpace(raw.Name); name != "" {
			cfg.Name = name
		}
	}
	if meta.IsDefined("http_addr") {
		cfg.HTTPAddr = strings.TrimSpace(raw.HTTPAddr)
	}
	if meta.IsDefined("frame_addr") {
		cfg.FrameAddr = strings.TrimSpace(raw.FrameAddr)
	}
	if meta.IsDefined("cors_origins") {
		cfg.CorsOrigins = normalizeList(raw.CorsOrigins)
	}
	if meta.IsDefined("max_payload_bytes") {
		if raw.MaxPayloadBytes <= 0 {
			return ServerConfig{}, fmt.Errorf("%w: max_payload_bytes must be positive", ErrInvalidConfig)
		}
		cfg.MaxPayloadBytes = uint64(raw.MaxPayloadBytes)
	}
	if meta.IsDefined("shutdown_timeout") {
		if cfg.ShutdownTimeout, err = parseDuration("shutdown_timeout", raw.ShutdownTimeout); err != nil {
			return ServerConfig{}, err
		}
	}
	if meta.IsDefined("credential_file") {
		cfg.CredentialFile = strings.TrimSpace(raw.CredentialFile)
	}
	if meta.IsDefined("accounts") {
		cfg.Accounts = raw.Accounts
	}
	if cfg.Session, err = applySession(cfg.Session, meta, raw.sessionFile); err != nil {
		return ServerConfig{}, err
	}

	if err := ValidateServerConfig(cfg); err != nil {
		return ServerConfig{}, err
	}
	return cfg, nil
}

func applySession(cfg session.Config, meta toml.MetaData, raw sessionFile) (session.Config, error) {
	var err error
	if meta.IsDefined("security_mode") {
		cfg.SecurityMode = session.SecurityMode(strings.TrimSpace(raw.SecurityMode))
	}
	durations := []struct {
		key string
		raw string
		dst *time.Duration
	}{
		{"connect_timeout", raw.ConnectTimeout, &cfg.ConnectTimeout},
		{"handshake_timeout", raw.HandshakeTimeout, &cfg.HandshakeTimeout},
		{"read_timeout", raw.ReadTimeout, &cfg.ReadTimeout},
		{"write_timeout", raw.WriteTimeout, &cfg.WriteTimeout},
	}
	for _, d := range durations {
		if !meta.IsDefined(d.key) {
			continue
		}
		if *d.dst, err = parseDuration(d.key, d.raw); err != nil {
			return session.Config{}, err
		}
	}
	if meta.IsDefined("tls") {
		cfg.TLS = raw.TLS
	}
	return cfg, nil
}

func ValidateClientConfig(cfg ClientConfig) error {
	switch cfg.Transport {
	case TransportHTTP:
		if strings.TrimSpace(cfg.BaseURL) == "" {
			return fmt.Errorf("%w: base_url required for http transport", ErrInvalidConfig)
		}
	case TransportFrame:
		if strings.TrimSpace(cfg.FrameAddress) == "" {
			return fmt.Errorf("%w: frame_address required for frame transport", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown transport %q", ErrInvalidConfig, cfg.Transport)
	}
	if cfg.Timeout < 0 {
		return fmt.Errorf("%w: timeout must not be negative", ErrInvalidConfig)
	}
	if cfg.PollInterval <= 0 {
		return fmt.Errorf("%w: poll_interval must be positive", ErrInvalidConfig)
	}
	return cfg.Session.WithDefaults().ValidateClientTransport()
}

func ValidateServerConfig(cfg ServerConfig) error {
	if strings.TrimSpace(cfg.HTTPAddr) == "" && strings.TrimSpace(cfg.FrameAddr) == "" {
		return fmt.Errorf("%w: http_addr or frame_addr required", ErrInvalidConfig)
	}
	if err := server.ValidateOrigins(cfg.CorsOrigins); err != nil {
		return fmt.Errorf("%w: cors_origins: %w", ErrInvalidConfig, err)
	}
	seen := make(map[string]struct{}, len(cfg.Accounts))
	for i, acct := range cfg.Accounts {
		name := strings.TrimSpace(acct.Username)
		if name == "" {
			return fmt.Errorf("%w: accounts[%d]: username is required", ErrInvalidConfig, i)
		}
		if _, dup := seen[name]; dup {
			return fmt.Errorf("%w: accounts[%d]: duplicate username %q", ErrInvalidConfig, i, name)
		}
		seen[name] = struct{}{}
	}
	return cfg.Session.WithDefaults().ValidateServerTransport()
}

func parseDuration(key, raw string) (time.Duration, error) {
	d, err := time.ParseDuration(strings.TrimSpace(raw))
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	return d, nil
}

func normalizeList(in []string) []string {
	out := make([]string, 0, len(in))
	for _, v := range in {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
