package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/timvw/dashgen/internal/config"
	"github.com/timvw/dashgen/internal/generator"
	"github.com/timvw/dashgen/internal/logger"
	telem "github.com/timvw/dashgen/internal/otel"
)

var (
	// Global flags.
	flagConfig    string
	flagProvider  string
	flagModel     string
	flagBaseURL   string
	flagAPIKey    string
	flagMaxTokens int64
	flagEndpoint  string
	flagLogLevel  string
)

var rootCmd = &cobra.Command{
	Use:   "dashgen",
	Short: "Terminal dashboard whose panels are generated by a language model",
	Long: `dashgen shows a dashboard of independently generated panels.

Each panel is produced by a remote model (Thesys C1 by default). A reply
may carry dashboard commands after its content, letting the model add,
remove, retitle or reorder panels. Go code only moves bytes: all content
and layout decisions come from the model.`,
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "config file (default: .dashgen.yaml, then ~/.config/dashgen/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&flagProvider, "provider", "", "generation provider: thesys, openai, anthropic (default: thesys)")
	rootCmd.PersistentFlags().StringVar(&flagModel, "model", "", "model name (default depends on the provider)")
	rootCmd.PersistentFlags().StringVar(&flagBaseURL, "base-url", "", "override the provider API base URL")
	rootCmd.PersistentFlags().StringVar(&flagAPIKey, "api-key", "", "override the provider API key")
	rootCmd.PersistentFlags().Int64Var(&flagMaxTokens, "max-tokens", 0, "max completion tokens (default: 2000 for named panels, 4000 otherwise)")
	rootCmd.PersistentFlags().StringVar(&flagEndpoint, "endpoint", "", "panel endpoint of a dashgen server; when set the model is not called directly")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "log level: debug, info, warn, error")
}

// loadConfig reads the config file and environment, then applies flags.
func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadFile(flagConfig)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if flagProvider != "" {
		cfg.Provider = flagProvider
	}
	if flagModel != "" {
		cfg.Model = flagModel
	}
	if flagBaseURL != "" {
		cfg.BaseURL = flagBaseURL
	}
	if flagAPIKey != "" {
		cfg.APIKey = flagAPIKey
	}
	if flagMaxTokens > 0 {
		cfg.MaxTokens = flagMaxTokens
	}
	if flagEndpoint != "" {
		cfg.Endpoint = flagEndpoint
	}
	if flagLogLevel != "" {
		cfg.LogLevel = flagLogLevel
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

// startTelemetry initializes OTEL. It never fails the command: a broken
// exporter only costs telemetry.
func startTelemetry(ctx context.Context, cfg *config.Config) (*telem.Metrics, func()) {
	telem.Version = Version

	tel, err := telem.Init(ctx, telem.Config{
		Endpoint: cfg.OTELEndpoint,
		Headers:  cfg.OTELHeaders,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: otel init failed: %v\n", err)
		return nil, func() {}
	}
	return tel.Metrics, func() {
		if err := tel.Shutdown(context.Background()); err != nil {
			logger.Warn("otel shutdown", "error", err)
		}
	}
}

// newGenerator returns the configured generator. With an endpoint set the
// generator posts to a dashgen server; otherwise it calls the provider.
func newGenerator(cfg *config.Config, metrics *telem.Metrics) (generator.Generator, error) {
	if cfg.Endpoint != "" {
		return generator.NewHTTPGenerator(cfg.Endpoint, cfg.RequestTimeoutDuration, metrics), nil
	}

	gc := generator.Config{
		Provider:     cfg.Provider,
		BaseURL:      cfg.BaseURL,
		APIKey:       cfg.APIKey,
		Model:        cfg.Model,
		MaxTokens:    cfg.MaxTokens,
		Temperature:  cfg.TemperatureValue(),
		ExtraHeaders: map[string]string{},
		Metrics:      metrics,
	}

	// Azure AI Foundry needs both "api-key" (Azure) and the SDK default auth header.
	if cfg.APIKey != "" && (os.Getenv("AZURE_RESOURCE_NAME") != "" || config.IsAzureEndpoint(cfg.BaseURL)) {
		gc.ExtraHeaders["api-key"] = cfg.APIKey
	}

	switch cfg.Provider {
	case config.ProviderThesys, config.ProviderOpenAI:
		return generator.NewOpenAIGenerator(gc), nil
	case config.ProviderAnthropic:
		return generator.NewAnthropicGenerator(gc), nil
	default:
		return nil, fmt.Errorf("unknown provider %q (supported: thesys, openai, anthropic)", cfg.Provider)
	}
}

// warnMissingKey tells the user up front that every generation will fail.
func warnMissingKey(cfg *config.Config) {
	if cfg.Endpoint != "" || cfg.APIKey != "" {
		return
	}
	fmt.Fprintf(os.Stderr, "warning: no API key configured for %s; set DASHGEN_API_KEY or the provider key variable\n", cfg.Provider)
}
