package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/danmuck/ipcwire/internal/config"
	"github.com/danmuck/ipcwire/internal/ipc"
	"github.com/danmuck/ipcwire/internal/poll"
	"github.com/danmuck/ipcwire/internal/protocol"
	"github.com/spf13/cobra"
)

var (
	loginCode      string
	pollImmediate  bool
	configKind     string
	configOutput   string
	configOverride bool
)

func init() {
	loginCmd.Flags().StringVar(&loginCode, "code", "", "two-factor code")
	pollCmd.Flags().BoolVar(&pollImmediate, "immediate", true, "poll once at start")
	configInitCmd.Flags().StringVar(&configKind, "kind", "client", "config kind: client|server")
	configInitCmd.Flags().StringVarP(&configOutput, "output", "o", "ipcctl.toml", "output path")
	configInitCmd.Flags().BoolVar(&configOverride, "force", false, "overwrite an existing file")
	configCmd.AddCommand(configInitCmd)
}

var loginCmd = &cobra.Command{
	Use:   "login <username> <password>",
	Short: "Log a user in",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, cfg, err := newClient()
		if err != nil {
			return err
		}
		ctx, cancel := callContext(cmd.Context(), cfg)
		defer cancel()

		code := protocol.None[string]()
		if cmd.Flags().Changed("code") {
			code = protocol.Some(loginCode)
		}
		res, err := client.Login(ctx, args[0], args[1], code)
		if err != nil {
			return err
		}
		printOutcome(cmd.OutOrStdout(), "login", res)
		return nil
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Log the active user out",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		client, cfg, err := newClient()
		if err != nil {
			return err
		}
		ctx, cancel := callContext(cmd.Context(), cfg)
		defer cancel()

		res, err := client.Logout(ctx)
		if err != nil {
			return err
		}
		printOutcome(cmd.OutOrStdout(), "logout", res)
		return nil
	},
}

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Show the active user",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		client, cfg, err := newClient()
		if err != nil {
			return err
		}
		ctx, cancel := callContext(cmd.Context(), cfg)
		defer cancel()

		res, err := client.GetUser(ctx)
		if err != nil {
			return err
		}
		printUser(cmd.OutOrStdout(), res)
		return nil
	},
}

var selectHandleCmd = &cobra.Command{
	Use:   "select-handle <handle>",
	Short: "Make a handle of a logged-in user active",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, cfg, err := newClient()
		if err != nil {
			return err
		}
		ctx, cancel := callContext(cmd.Context(), cfg)
		defer cancel()

		res, err := client.SelectHandle(ctx, args[0])
		if err != nil {
			return err
		}
		printOutcome(cmd.OutOrStdout(), "select-handle", res)
		return nil
	},
}

var pollCmd = &cobra.Command{
	Use:   "poll",
	Short: "Fetch the active user every poll interval until interrupted",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		client, cfg, err := newClient()
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		p := &poll.Poller[protocol.Result[ipc.User, ipc.GetUserErrorCode]]{
			Interval:    cfg.PollInterval,
			Immediate:   pollImmediate,
			CallTimeout: cfg.Timeout,
			Call:        client.GetUser,
			OnResult: func(seq uint64, res protocol.Result[ipc.User, ipc.GetUserErrorCode], err error) {
				if err != nil {
					fmt.Fprintf(out, "#%d error: %v\n", seq, err)
					return
				}
				fmt.Fprintf(out, "#%d ", seq)
				printUser(out, res)
			},
		}
		return p.Run(cmd.Context())
	},
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage ipcctl and ipcd config files",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a config template",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := config.WriteTemplate(configOutput, configKind, configOverride); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "wrote %s config template to %s\n", configKind, configOutput)
		return nil
	},
}

// printOutcome prints "ok" for None, or the error code name for Some.
func printOutcome[E fmt.Stringer](w io.Writer, op string, res protocol.Option[E]) {
	code, failed := res.Get()
	if !failed {
		fmt.Fprintf(w, "%s: ok\n", op)
		return
	}
	fmt.Fprintf(w, "%s: %s\n", op, code)
}

func printUser(w io.Writer, res protocol.Result[ipc.User, ipc.GetUserErrorCode]) {
	if code, isErr := res.ErrValue(); isErr {
		fmt.Fprintf(w, "user: %s\n", code)
		return
	}
	u, _ := res.Value()
	fmt.Fprintf(w, "user: %s selected=%s handles=[%s]\n", u.UserID, u.SelectedHandle, strings.Join(u.Handles, ", "))
}
