package cli

import (
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"

	"github.com/jwulff/minutes/internal/audio"
	"github.com/jwulff/minutes/internal/output"
	"github.com/jwulff/minutes/internal/transport"
)

const pushFrame = 100 * time.Millisecond

func NewPushCmd(deps *Dependencies) *cobra.Command {
	var addr string
	var realtime bool

	cmd := &cobra.Command{
		Use:   "push <file.wav>",
		Short: "Stream a WAV file to the daemon as a live session",
		Long:  "Stream a PCM WAV file to the ingest endpoint in 100ms frames, paced in real time unless --realtime=false.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := output.NewFormatter(os.Stdout)

			seg, err := audio.ReadWAV(args[0])
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			url := fmt.Sprintf("ws://%s/api/stream", addr)
			sender, err := transport.Dial(ctx, url, seg.Format())
			if err != nil {
				return err
			}

			formatter.Streaming(args[0])
			started := time.Now()
			sendErr := pushSegment(ctx.Done(), sender, seg, realtime)
			if err := sender.Close(); err != nil && sendErr == nil {
				sendErr = err
			}
			if sendErr != nil {
				return sendErr
			}
			formatter.RecordingStopped(time.Since(started))
			return nil
		},
	}

	cmd.Flags().StringVar(&addr, "addr", deps.Config.ListenAddr, "daemon HTTP address")
	cmd.Flags().BoolVar(&realtime, "realtime", true, "pace frames at playback speed")
	return cmd
}

// pushSegment sends seg in pushFrame-sized pieces until done is closed.
func pushSegment(done <-chan struct{}, sender *transport.Sender, seg *audio.Segment, realtime bool) error {
	format := seg.Format()
	size := max(1, format.SampleRate*int(pushFrame/time.Millisecond)/1000) * format.BytesPerFrame()
	data := seg.Bytes()

	var tick <-chan time.Time
	if realtime {
		t := time.NewTicker(pushFrame)
		defer t.Stop()
		tick = t.C
	}

	for off := 0; off < len(data); off += size {
		if tick != nil {
			select {
			case <-tick:
			case <-done:
				return nil
			}
		} else {
			select {
			case <-done:
				return nil
			default:
			}
		}
		if err := sender.Send(data[off:min(off+size, len(data))]); err != nil {
			return err
		}
	}
	return nil
}
