package cli

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/jwulff/minutes/internal/tui"
)

func NewTUICmd(deps *Dependencies) *cobra.Command {
	var socket string

	cmd := &cobra.Command{
		Use:   "tui",
		Short: "Open the live transcript and session browser",
		RunE: func(cmd *cobra.Command, args []string) error {
			p := tea.NewProgram(tui.New(socket), tea.WithAltScreen())
			_, err := p.Run()
			return err
		},
	}

	cmd.Flags().StringVar(&socket, "socket", deps.Config.SocketPath, "control socket path")
	return cmd
}
