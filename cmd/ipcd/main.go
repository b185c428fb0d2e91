// Command ipcd serves the account endpoints from the in-memory backend.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/danmuck/ipcwire/internal/backend/memory"
	"github.com/danmuck/ipcwire/internal/config"
	"github.com/danmuck/ipcwire/internal/observability"
	"github.com/danmuck/ipcwire/internal/server"
	"github.com/spf13/cobra"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:           "ipcd",
	Short:         "Serve the ipc endpoints over HTTP and framed TCP",
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := observability.InitLogger("ipcd")

		cfg, err := loadConfig(configPath)
		if err != nil {
			return err
		}
		if len(cfg.Accounts) == 0 {
			logger.Warn().Msg("no accounts configured; every login will fail")
		}
		srv, err := newServer(cfg)
		if err != nil {
			return err
		}
		logger.Info().
			Str("http_addr", cfg.HTTPAddr).
			Str("frame_addr", cfg.FrameAddr).
			Int("accounts", len(cfg.Accounts)).
			Msg("ipcd starting")
		if err := srv.Run(cmd.Context()); err != nil {
			return err
		}
		logger.Info().Msg("ipcd stopped")
		return nil
	},
}

// loadConfig reads path, or returns the defaults when path is empty.
func loadConfig(path string) (config.ServerConfig, error) {
	if path == "" {
		return config.DefaultServerConfig(), nil
	}
	return config.LoadServerConfig(path)
}

func newServer(cfg config.ServerConfig) (*server.Server, error) {
	settings, err := config.ServerSettings(cfg)
	if err != nil {
		return nil, err
	}
	backend := memory.New(config.MemoryAccounts(cfg.Accounts))
	return server.New(settings, backend)
}

func init() {
	rootCmd.Flags().StringVarP(&configPath, "config", "c", "", "server config file (TOML)")
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "ipcd: %v\n", err)
		os.Exit(1)
	}
}
