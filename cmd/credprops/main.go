// Package main is the entry point for the credprops CLI tool.
package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/szaher/credprops/internal/config"
	"github.com/szaher/credprops/internal/secrets"
	"github.com/szaher/credprops/internal/telemetry"
)

// Version information set at build time.
var version = "0.1.0"

// Global flags.
var logging config.Logging

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "credprops",
		Short: "Resolve credential and repository properties for build pipelines",
		Long: `credprops reads a settings file, project descriptors and user overrides,
decrypts embedded secrets, and publishes one flat set of credential and
repository properties in the format the pipeline consumes.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := config.NewResolver().Apply(cmd.Flags()); err != nil {
				return err
			}
			return logging.Validate()
		},
	}

	logging.BindFlags(root.PersistentFlags())

	root.AddCommand(newResolveCmd())
	root.AddCommand(newEncryptCmd())
	root.AddCommand(newVersionCmd())

	return root
}

// newLogger builds the process logger. Every value registered with the
// returned filter is masked in log output.
func newLogger(w io.Writer) (*slog.Logger, *secrets.RedactFilter) {
	level, err := telemetry.ParseLevel(logging.Level)
	if err != nil {
		level = slog.LevelInfo
	}
	filter := secrets.NewRedactFilter(telemetry.NewHandler(w, level, logging.Format))
	return slog.New(filter), filter
}

func main() {
	root := newRootCmd()
	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
