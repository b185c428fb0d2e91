// Command ipcctl calls the account endpoints of an ipcd backend.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/danmuck/ipcwire/internal/config"
	"github.com/danmuck/ipcwire/internal/ipc"
	"github.com/danmuck/ipcwire/internal/observability"
	"github.com/spf13/cobra"
)

var (
	configPath    string
	transportKind string
	baseURL       string
	frameAddress  string
	callTimeout   time.Duration
)

var rootCmd = &cobra.Command{
	Use:           "ipcctl",
	Short:         "Call account endpoints on an ipcd backend",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		observability.InitLogger("ipcctl")
		observability.RegisterMetrics()
	},
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&configPath, "config", "c", "", "client config file (TOML)")
	flags.StringVar(&transportKind, "transport", "", "override transport: http|frame")
	flags.StringVar(&baseURL, "base-url", "", "override HTTP base URL")
	flags.StringVar(&frameAddress, "frame-addr", "", "override frame transport address")
	flags.DurationVar(&callTimeout, "timeout", 0, "per-call timeout (0 uses config)")

	rootCmd.AddCommand(loginCmd, logoutCmd, userCmd, selectHandleCmd, pollCmd, configCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "ipcctl: %v\n", err)
		os.Exit(1)
	}
}

func loadClientConfig() (config.ClientConfig, error) {
	cfg := config.DefaultClientConfig()
	if configPath != "" {
		var err error
		if cfg, err = config.LoadClientConfig(configPath); err != nil {
			return config.ClientConfig{}, err
		}
	}
	if v := strings.TrimSpace(transportKind); v != "" {
		cfg.Transport = strings.ToLower(v)
	}
	if v := strings.TrimSpace(baseURL); v != "" {
		cfg.BaseURL = v
	}
	if v := strings.TrimSpace(frameAddress); v != "" {
		cfg.FrameAddress = v
	}
	if callTimeout > 0 {
		cfg.Timeout = callTimeout
	}
	if err := config.ValidateClientConfig(cfg); err != nil {
		return config.ClientConfig{}, err
	}
	return cfg, nil
}

func newClient() (*ipc.Client, config.ClientConfig, error) {
	cfg, err := loadClientConfig()
	if err != nil {
		return nil, config.ClientConfig{}, err
	}
	tr, err := config.BuildTransport(cfg)
	if err != nil {
		return nil, config.ClientConfig{}, err
	}
	return ipc.NewClient(tr), cfg, nil
}

// callContext bounds one command-line call by the configured timeout.
func callContext(parent context.Context, cfg config.ClientConfig) (context.Context, context.CancelFunc) {
	if cfg.Timeout <= 0 {
		return context.WithCancel(parent)
	}
	return context.WithTimeout(parent, cfg.Timeout)
}
