package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/chatter-hq/chatter-server/internal/app"
	"github.com/chatter-hq/chatter-server/internal/config"
	"github.com/chatter-hq/chatter-server/internal/log"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "chatter-server",
		Short:        "Real-time group messaging server",
		SilenceUsage: true,
	}
	root.AddCommand(newServeCmd())
	return root
}

func newServeCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the chat server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger := log.New("info")

			cfg, path, err := config.Load(logger, configPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			applyFlagOverrides(cmd, &cfg)

			logger = log.New(cfg.LogLevel)
			logger.Info().Str("config", path).Str("addr", cfg.Addr).Str("broker", cfg.Broker).Msg("starting chatter server")

			application, err := app.New(&cfg, logger)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if err := application.Run(ctx); err != nil {
				return fmt.Errorf("server exited: %w", err)
			}
			logger.Info().Msg("server stopped")
			return nil
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "path to config file")
	cmd.Flags().String("addr", "", "HTTP listen address")
	cmd.Flags().String("log-level", "", "log level (debug, info, warn, error)")
	cmd.Flags().String("db", "", "path to the SQLite database")
	cmd.Flags().String("broker", "", "broker backend (memory, redis)")
	cmd.Flags().String("redis-addr", "", "redis address for the redis broker")

	return cmd
}

// applyFlagOverrides lets explicit flags win over config file and env values.
func applyFlagOverrides(cmd *cobra.Command, cfg *config.Config) {
	if v, _ := cmd.Flags().GetString("addr"); v != "" {
		cfg.Addr = v
	}
	if v, _ := cmd.Flags().GetString("log-level"); v != "" {
		cfg.LogLevel = v
	}
	if v, _ := cmd.Flags().GetString("db"); v != "" {
		cfg.DatabasePath = v
	}
	if v, _ := cmd.Flags().GetString("broker"); v != "" {
		cfg.Broker = v
	}
	if v, _ := cmd.Flags().GetString("redis-addr"); v != "" {
		cfg.RedisAddr = v
	}
}
