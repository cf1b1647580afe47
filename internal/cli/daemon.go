package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jwulff/minutes/internal/daemon"
	"github.com/jwulff/minutes/internal/output"
)

func connectDaemon(deps *Dependencies) (*daemon.Client, error) {
	client, err := daemon.Connect(deps.Config.SocketPath)
	if err != nil {
		return nil, fmt.Errorf("%w (is `minutes serve` running?)", err)
	}
	return client, nil
}

func NewStatusCmd(deps *Dependencies) *cobra.Command {
	var follow bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the recording session, if any",
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := output.NewFormatter(os.Stdout)

			client, err := connectDaemon(deps)
			if err != nil {
				return err
			}
			defer client.Close()

			resp, err := client.SendCommand(daemon.Command{Cmd: daemon.CmdStatus})
			if err != nil {
				return err
			}
			if !resp.OK {
				return fmt.Errorf("status: %s", resp.Error)
			}
			formatter.RecordingStatus(resp.State, resp.Elapsed, deref(resp.Chunks), deref(resp.Failed))
			if !follow {
				return nil
			}
			return followEvents(deps, formatter)
		},
	}

	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "print transcript segments as they arrive")
	return cmd
}

func followEvents(deps *Dependencies, formatter *output.Formatter) error {
	client, err := connectDaemon(deps)
	if err != nil {
		return err
	}
	defer client.Close()

	resp, err := client.SendCommand(daemon.Command{
		Cmd:    daemon.CmdSubscribe,
		Events: []string{daemon.EventSegment, daemon.EventError, daemon.EventStopped},
	})
	if err != nil {
		return err
	}
	if !resp.OK {
		return fmt.Errorf("subscribe: %s", resp.Error)
	}

	for {
		ev, err := client.ReadEvent()
		if err != nil {
			return err
		}
		switch ev.Event {
		case daemon.EventSegment:
			formatter.Segment(ev.Elapsed, ev.Text)
		case daemon.EventError:
			formatter.ChunkFailed(ev.Elapsed, ev.Message)
		case daemon.EventStopped:
			formatter.Info("Session " + ev.SessionID + " stopped at " + ev.Elapsed)
		}
	}
}

func NewStopCmd(deps *Dependencies) *cobra.Command {
	return &cobra.Command{
		Use:   "stop",
		Short: "Stop the recording session",
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := output.NewFormatter(os.Stdout)

			client, err := connectDaemon(deps)
			if err != nil {
				return err
			}
			defer client.Close()

			resp, err := client.SendCommand(daemon.Command{Cmd: daemon.CmdStop})
			if err != nil {
				return err
			}
			if !resp.OK {
				return fmt.Errorf("stop: %s", resp.Error)
			}
			formatter.Success("Recording stopping")
			return nil
		},
	}
}

func deref(p *int) int {
	if p == nil {
		return 0
	}
	return *p
}
