package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/timvw/dashgen/internal/dashboard"
	"github.com/timvw/dashgen/internal/logger"
	"github.com/timvw/dashgen/internal/orchestrator"
	"github.com/timvw/dashgen/internal/prompts"
	"github.com/timvw/dashgen/internal/protocol"
)

var (
	flagPanel  string
	flagKind   string
	flagPrompt string
	flagRaw    bool
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate one panel and print the result",
	Long: `Run a single generation and print {content, commands} as JSON.

With --panel the named instruction set is used (see "dashgen panels");
without it the generic set for --kind applies. The panel is generated
inside the configured layout, which is sent along as the dashboard snapshot,
and any dashboard commands in the reply are applied to that layout.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		kind, ok := protocol.ParseKind(flagKind)
		if !ok {
			return fmt.Errorf("unknown kind %q (supported: rich, chat)", flagKind)
		}

		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if err := logger.Init(logger.Config{Level: cfg.LogLevel, File: cfg.LogFile}); err != nil {
			return err
		}
		defer logger.Close()

		reg := prompts.Default()
		if flagPanel != "" {
			if _, ok := reg.Lookup(flagPanel); !ok {
				fmt.Fprintf(os.Stderr, "warning: %q is not a named panel; using the generic %s instructions\n", flagPanel, kind)
			}
		}

		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		metrics, shutdown := startTelemetry(ctx, cfg)
		defer shutdown()

		gen, err := newGenerator(cfg, metrics)
		if err != nil {
			return err
		}
		orch := orchestrator.New(dashboard.NewStore(initialLayout(cfg.Panels, reg)...), gen, metrics)
		orch.Timeout = cfg.RequestTimeoutDuration

		c, out, err := generateOnce(ctx, orch, reg, flagPanel, kind, flagPrompt)
		if err != nil {
			return err
		}
		res := c.Result
		logger.Info("generated",
			"provider", gen.Provider(),
			"model", gen.Model(),
			"duration", c.Duration,
			"input_tokens", res.Usage.InputTokens,
			"output_tokens", res.Usage.OutputTokens,
			"commands", len(res.Commands),
			"applied", out.Applied())

		if flagRaw {
			fmt.Fprintln(cmd.OutOrStdout(), res.Raw)
			return nil
		}
		if res.Commands == nil {
			res.Commands = []protocol.Command{}
		}
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	},
}

func init() {
	generateCmd.Flags().StringVar(&flagPanel, "panel", "", "named panel key")
	generateCmd.Flags().StringVar(&flagKind, "kind", "rich", "panel kind: rich, chat")
	generateCmd.Flags().StringVar(&flagPrompt, "prompt", "", "user prompt (default: the implicit prompt for the panel)")
	generateCmd.Flags().BoolVar(&flagRaw, "raw", false, "print the unparsed model reply")
	rootCmd.AddCommand(generateCmd)
}

// generateOnce runs one fetch through orch for the panel with the given
// key, adding it to the store first when the layout lacks it.
func generateOnce(ctx context.Context, orch *orchestrator.Orchestrator, reg *prompts.Registry, key string, kind protocol.Kind, prompt string) (orchestrator.Completion, dashboard.Outcome, error) {
	id := ""
	if key != "" {
		for _, p := range orch.Store.Panels() {
			if p.Key == key {
				id = p.ID
				break
			}
		}
	}
	if id != "" {
		if p, _ := orch.Store.Get(id); p.Kind != kind {
			orch.Store.SetKind(id, kind)
		}
	} else {
		title := "New Panel"
		if named, ok := reg.Lookup(key); ok {
			title = named.Title
		}
		p := dashboard.New(kind, title)
		p.Key = key
		orch.Store.Add(p)
		id = p.ID
	}

	c, out, ok := orch.FetchSync(ctx, id, prompt)
	if !ok {
		return c, out, fmt.Errorf("panel %q disappeared", id)
	}
	return c, out, c.Err
}
