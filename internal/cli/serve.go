package cli

import (
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jwulff/minutes/internal/api"
	"github.com/jwulff/minutes/internal/daemon"
	"github.com/jwulff/minutes/internal/output"
	"github.com/jwulff/minutes/internal/recording"
)

func NewServeCmd(deps *Dependencies) *cobra.Command {
	var addr, socket string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the recording daemon",
		Long: "Accept audio on the WebSocket ingest endpoint, transcribe it in chunks while it plays, " +
			"and answer the control socket used by the TUI.",
		RunE: func(cmd *cobra.Command, args []string) error {
			f := output.NewFormatter(os.Stdout)
			if deps.Config.OpenAIKey == "" {
				f.Warning("OpenAI API key not set. Chunks will fail to transcribe until MINUTES_OPENAI_API_KEY is set.")
			}

			opts, err := deps.App.SessionOptions()
			if err != nil {
				return err
			}
			defer deps.App.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			ln, err := daemon.Listen(socket)
			if err != nil {
				return err
			}
			defer os.Remove(socket)

			sup := recording.NewSupervisor(opts)
			ctl := daemon.NewServer(sup, deps.App.Catalog)
			httpSrv := api.New(ctx, sup, deps.App.Catalog, deps.Config.QueueSize)

			f.Listening(addr, socket)

			errCh := make(chan error, 2)
			go func() { errCh <- ctl.Serve(ctx, ln) }()
			go func() { errCh <- httpSrv.ListenAndServe(ctx, addr) }()

			// Either server returning ends both.
			firstErr := <-errCh
			stop()
			if err := <-errCh; firstErr == nil {
				firstErr = err
			}

			// Let a running session write its last state before exiting.
			if err := sup.Stop(); err != nil && !errors.Is(err, recording.ErrNotRecording) {
				f.Warning(err.Error())
			}
			sup.Wait()
			f.Info("Daemon stopped")
			return firstErr
		},
	}

	cmd.Flags().StringVar(&addr, "addr", deps.Config.ListenAddr, "HTTP listen address")
	cmd.Flags().StringVar(&socket, "socket", deps.Config.SocketPath, "control socket path")

	return cmd
}
