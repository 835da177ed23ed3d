package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/teamchat/teamchat-server/internal/app"
	"github.com/teamchat/teamchat-server/internal/config"
	"github.com/teamchat/teamchat-server/internal/log"
)

func main() {
	var (
		configPath string
		addr       string
		logLevel   string
	)

	rootCmd := &cobra.Command{
		Use:          "teamchat-server",
		Short:        "Real-time team chat server",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger := log.New(logLevel)

			cfg, path, err := config.Load(logger, configPath)
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Addr = addr
			}
			if logLevel != "" {
				cfg.LogLevel = logLevel
			}
			logger = log.New(cfg.LogLevel)
			logger.Info().Str("config", path).Str("addr", cfg.Addr).Msg("starting teamchat server")

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			application, err := app.New(cfg, logger)
			if err != nil {
				return err
			}

			if err := application.Run(ctx); err != nil {
				return err
			}
			logger.Info().Msg("server stopped")
			return nil
		},
	}

	rootCmd.Flags().StringVarP(&configPath, "config", "c", "", "path to config file")
	rootCmd.Flags().StringVar(&addr, "addr", "", "HTTP listen address (overrides config)")
	rootCmd.Flags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error")

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}
