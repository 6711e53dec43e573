package main

import (
	"github.com/spf13/cobra"

	"github.com/MrSnakeDoc/gieok/internal/app"
	"github.com/MrSnakeDoc/gieok/internal/config"
	"github.com/MrSnakeDoc/gieok/internal/logger"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP server",
	Long: `Serve starts the HTTP server: guarded pages, the JSON API, the change
feed and the probes. It stops gracefully on SIGINT or SIGTERM.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Load()
		loggerClient := logger.New(cfg.LogLevel, cfg.PrettyLog)
		defer func() { _ = loggerClient.Sync() }()

		a, err := app.New(cmd.Context(), cfg, loggerClient)
		if err != nil {
			return err
		}
		return a.Run()
	},
}
