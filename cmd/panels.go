package cmd

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/timvw/dashgen/internal/prompts"
)

var flagPanelsJSON bool

var panelsCmd = &cobra.Command{
	Use:   "panels",
	Short: "List the named panels",
	Long: `List the named panels and their titles.

Each key can be passed to "dashgen generate --panel" or used in the
panels section of the config file.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		named := prompts.Default().Named()

		if flagPanelsJSON {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(named)
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "KEY\tTITLE")
		for _, n := range named {
			fmt.Fprintf(w, "%s\t%s\n", n.Key, n.Title)
		}
		return w.Flush()
	},
}

func init() {
	panelsCmd.Flags().BoolVar(&flagPanelsJSON, "json", false, "print as JSON")
	rootCmd.AddCommand(panelsCmd)
}
