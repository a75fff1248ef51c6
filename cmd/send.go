package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/timvw/dashgen/internal/inbox"
	"github.com/timvw/dashgen/internal/protocol"
)

var sendCmd = &cobra.Command{
	Use:   "send <json|->",
	Short: "Send dashboard commands to a running dashboard",
	Long: `Write dashboard commands to the inbox of a running dashboard.

The payload is a command object, an array of commands, or a full model
reply with the command sentinels. Use "-" to read it from stdin.

  dashgen send '{"type":"set_title","id":"issues","title":"Bugs"}'
  dashgen send '[{"type":"add_panel","panel":{"type":"chat","title":"Ask"}}]'`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		payload := []byte(args[0])
		if args[0] == "-" {
			data, err := io.ReadAll(cmd.InOrStdin())
			if err != nil {
				return fmt.Errorf("reading stdin: %w", err)
			}
			payload = data
		}

		cmds, err := protocol.Extract(payload)
		if err != nil {
			return fmt.Errorf("invalid command payload: %w", err)
		}
		if len(cmds) == 0 {
			return fmt.Errorf("payload contains no commands")
		}

		socket := flagSocket
		if socket == "" {
			socket = os.Getenv("DASHGEN_SOCKET")
		}
		if socket == "" {
			socket = inbox.DefaultSocketPath()
		}
		if err := inbox.Send(socket, payload); err != nil {
			return fmt.Errorf("is the dashboard running? %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "sent %d command(s) to %s\n", len(cmds), socket)
		return nil
	},
}

func init() {
	sendCmd.Flags().StringVar(&flagSocket, "socket", "", "command inbox socket path (default: $XDG_RUNTIME_DIR/dashgen/commands.sock)")
	rootCmd.AddCommand(sendCmd)
}
