package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/timvw/dashgen/internal/logger"
	"github.com/timvw/dashgen/internal/server"
)

var flagAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the panel generation API over HTTP",
	Long: `Run the panel generation API.

  POST /api/panel      {panelKey?, prompt?, kind, panels} -> {content, commands}
  POST /api/dashboard  {panelKey?, userPrompt} -> {html}   (legacy)
  GET  /healthz

The API key stays on the server; dashboards point at it with --endpoint.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if flagAddr != "" {
			cfg.Addr = flagAddr
		}
		if err := logger.Init(logger.Config{Level: cfg.LogLevel, File: cfg.LogFile}); err != nil {
			return err
		}
		defer logger.Close()

		if cfg.ConfigFile != "" {
			logger.Info("config loaded", "path", cfg.ConfigFile)
		}
		if cfg.Endpoint != "" {
			return fmt.Errorf("serve calls the model directly; unset endpoint (%s)", cfg.Endpoint)
		}
		warnMissingKey(cfg)

		metrics, shutdown := startTelemetry(ctx, cfg)
		defer shutdown()

		gen, err := newGenerator(cfg, metrics)
		if err != nil {
			return err
		}

		srv := server.New(gen, server.NewResponseCache(cfg.CacheTTLDuration), metrics)
		if cfg.CacheTTLDuration > 0 {
			logger.Info("response cache enabled", "ttl", cfg.CacheTTLDuration)
		}
		return srv.ListenAndServe(ctx, cfg.Addr)
	},
}

func init() {
	serveCmd.Flags().StringVar(&flagAddr, "addr", "", "listen address (default: :3000)")
	rootCmd.AddCommand(serveCmd)
}
