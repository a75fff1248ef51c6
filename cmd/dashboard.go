package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/timvw/dashgen/internal/dashboard"
	"github.com/timvw/dashgen/internal/inbox"
	"github.com/timvw/dashgen/internal/logger"
	"github.com/timvw/dashgen/internal/orchestrator"
	"github.com/timvw/dashgen/internal/prompts"
	"github.com/timvw/dashgen/internal/tui"
)

var (
	flagTheme   string
	flagSocket  string
	flagNoInbox bool
)

var dashboardCmd = &cobra.Command{
	Use:     "dashboard",
	Aliases: []string{"ui"},
	Short:   "Interactive terminal dashboard",
	Long: `Launch the terminal dashboard. Every panel is fetched on start; each
fetch is an independent call to the configured generator.

While the dashboard runs it listens on a unix datagram socket for
dashboard commands, so other programs can reshape it with "dashgen send".

Configuration is loaded from .dashgen.yaml or environment variables.
Logs go to log_file when set and are discarded otherwise, since the
dashboard owns the terminal.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runDashboard()
	},
}

func init() {
	dashboardCmd.Flags().StringVar(&flagTheme, "theme", "", "color theme: dark, light")
	dashboardCmd.Flags().StringVar(&flagSocket, "socket", "", "command inbox socket path (default: $XDG_RUNTIME_DIR/dashgen/commands.sock)")
	dashboardCmd.Flags().BoolVar(&flagNoInbox, "no-inbox", false, "do not listen for dashboard commands")
	rootCmd.AddCommand(dashboardCmd)
}

func runDashboard() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel() // in-flight fetches are abandoned when the dashboard exits

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cfg.ConfigFile != "" {
		fmt.Fprintf(os.Stderr, "config: loaded %s\n", cfg.ConfigFile)
	}
	if flagTheme != "" {
		cfg.Theme = flagTheme
	}
	warnMissingKey(cfg)

	if cfg.LogFile != "" {
		if err := logger.Init(logger.Config{Level: cfg.LogLevel, File: cfg.LogFile}); err != nil {
			return err
		}
		defer logger.Close()
	} else {
		logger.Discard()
	}

	metrics, shutdown := startTelemetry(ctx, cfg)
	defer shutdown()

	gen, err := newGenerator(cfg, metrics)
	if err != nil {
		return err
	}

	store := dashboard.NewStore(initialLayout(cfg.Panels, prompts.Default())...)
	orch := orchestrator.New(store, gen, metrics)
	orch.Timeout = cfg.RequestTimeoutDuration

	socket := ""
	if !flagNoInbox {
		socket = flagSocket
		if socket == "" {
			socket = cfg.Socket
		}
		if socket == "" {
			socket = inbox.DefaultSocketPath()
		}
	}

	logger.Info("dashboard starting",
		"provider", gen.Provider(),
		"model", gen.Model(),
		"panels", store.Len(),
		"socket", socket)

	t := &tui.TUI{
		Orchestrator: orch,
		Theme:        tui.ThemeByName(cfg.Theme),
		Parallel:     cfg.Parallel,
		SocketPath:   socket,
	}
	return t.Run(ctx)
}
