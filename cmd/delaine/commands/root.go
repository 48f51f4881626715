// Package commands implements the delaine CLI.
package commands

import (
	"context"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/focusondelaine/website/internal/logging"
)

// Version is overridden at build time with -ldflags.
var Version = "0.1.0-dev"

type rootFlags struct {
	logLevel string
	logFile  string
	debug    bool

	logger *zap.Logger
}

// NewRootCmd builds the command tree.
func NewRootCmd() *cobra.Command {
	var flags rootFlags

	cmd := &cobra.Command{
		Use:   "delaine",
		Short: "delaine - the Focus On Delaine website",
		Long:  "delaine serves the Focus On Delaine Development & Consulting LLC website and checks its configuration",
		Example: `  delaine serve
  delaine serve ./site --port 3000 --watch
  delaine validate ./site
  delaine mailto --name "Jane Doe" --email jane@example.com`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return flags.setupLogging()
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if flags.logger != nil {
				// Syncing a console logger on a terminal reports EINVAL; ignore it.
				_ = flags.logger.Sync()
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	cmd.PersistentFlags().BoolVarP(&flags.debug, "debug", "d", false, "Enable debug logging")
	cmd.PersistentFlags().StringVar(&flags.logLevel, "log-level", "", "Log level: debug, info, warn, error (default from config)")
	cmd.PersistentFlags().StringVar(&flags.logFile, "log-file", "", "Write JSON logs to this file instead of stderr")

	cmd.AddCommand(newServeCmd(&flags))
	cmd.AddCommand(newValidateCmd())
	cmd.AddCommand(newMailtoCmd())
	cmd.AddCommand(newVersionCmd())

	return cmd
}

func (f *rootFlags) setupLogging() error {
	level := f.logLevel
	if f.debug {
		level = "debug"
	}
	if level == "" {
		level = "info"
	}

	logger, err := logging.New(level, f.logFile)
	if err != nil {
		return err
	}
	f.logger = logger
	return nil
}

// Execute runs the CLI with args.
func Execute(ctx context.Context, stdout, stderr io.Writer, args ...string) error {
	cmd := NewRootCmd()
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	return cmd.ExecuteContext(ctx)
}
