// Package cli wires the quickcourt command tree: the HTTP API, the
// notification worker and the schema migrator.
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/quickcourt/quickcourt-api/internal/config"
	"github.com/quickcourt/quickcourt-api/internal/logger"
)

// version is overridden at build time with -ldflags "-X .../internal/cli.version=...".
var version = "dev"

// NewRoot builds the command tree.
func NewRoot() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "quickcourt",
		Short:         "QuickCourt court booking service",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newWorkerCmd())
	cmd.AddCommand(newMigrateCmd())
	return cmd
}

// Execute runs the root command until it finishes or SIGINT/SIGTERM
// arrives, and returns the process exit code.
func Execute() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := NewRoot().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "quickcourt:", err)
		return 1
	}
	return 0
}

// bootstrap loads configuration and builds the logger shared by every command.
func bootstrap() (config.Config, *zap.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, nil, fmt.Errorf("load config: %w", err)
	}
	log, err := logger.New(cfg.Env, cfg.LogLevel)
	if err != nil {
		return config.Config{}, nil, fmt.Errorf("build logger: %w", err)
	}
	return cfg, log, nil
}
