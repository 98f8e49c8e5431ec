package main

import (
	"log/slog"

	_ "github.com/JonMunkholm/importme/internal/core/schemas" // Register built-in schemas
	"github.com/JonMunkholm/importme/internal/logging"
	"github.com/spf13/cobra"
)

type rootOptions struct {
	logLevel  string
	logFormat string
	logger    *slog.Logger
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:           "importme",
		Short:         "Validate tabular files against import schemas",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			opts.logger = logging.New(cmd.ErrOrStderr(), opts.logLevel, opts.logFormat)
		},
	}

	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "warn", "log level [debug|info|warn|error]")
	cmd.PersistentFlags().StringVar(&opts.logFormat, "log-format", "text", "log format [text|json]")

	cmd.AddCommand(newParseCmd(opts), newSchemasCmd())
	return cmd
}
