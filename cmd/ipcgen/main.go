// Command ipcgen renders Go bindings from an interface schema file.
package main

import (
	"fmt"
	"os"

	"github.com/danmuck/ipcwire/internal/codegen"
	"github.com/spf13/cobra"
)

var (
	schemaPath string
	outPath    string
)

var rootCmd = &cobra.Command{
	Use:           "ipcgen",
	Short:         "Generate Go bindings from an ipc schema",
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := codegen.GenerateFile(schemaPath, outPath); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "wrote %s from %s\n", outPath, schemaPath)
		return nil
	},
}

func init() {
	rootCmd.Flags().StringVarP(&schemaPath, "schema", "s", "ipc.toml", "schema file (TOML)")
	rootCmd.Flags().StringVarP(&outPath, "out", "o", "bindings.gen.go", "output Go file")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "ipcgen: %v\n", err)
		os.Exit(1)
	}
}
