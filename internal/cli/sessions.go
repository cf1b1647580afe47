package cli

import (
	"errors"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jwulff/minutes/internal/catalog"
	"github.com/jwulff/minutes/internal/output"
	"github.com/jwulff/minutes/internal/store"
)

func NewListCmd(deps *Dependencies) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List recorded sessions",
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := output.NewFormatter(os.Stdout)

			entries, err := deps.App.Catalog.List()
			if err != nil {
				return err
			}
			if len(entries) == 0 {
				formatter.Info("No sessions found")
				return nil
			}

			formatter.SessionListHeader()
			for _, e := range entries {
				formatter.SessionListItem(e.Label, e.NeedsTitle, e.HasTranscript, e.HasSummary)
			}
			return nil
		},
	}
}

func NewShowCmd(deps *Dependencies) *cobra.Command {
	var chunks bool

	cmd := &cobra.Command{
		Use:   "show <session-id>",
		Short: "Show a session's title, summary and transcript",
		Long:  "Show a session. A missing summary is generated and saved first. Untitled sessions must be titled before they can be shown.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := output.NewFormatter(os.Stdout)
			id := store.ID(args[0])

			v, err := deps.App.Catalog.Open(cmd.Context(), id)
			if err != nil && !errors.Is(err, catalog.ErrSummary) {
				return err
			}
			if v.NeedsTitle {
				formatter.Warning("This session has no title yet. Add one with: minutes title " + string(id) + " <title>")
				return nil
			}

			formatter.SessionTitle(string(v.ID), v.Title)
			if err != nil {
				formatter.Error(err.Error())
			} else {
				formatter.Section("Summary", v.Summary)
			}
			formatter.Section("Transcript", v.Transcript)

			if chunks {
				return printChunks(cmd, deps, formatter, string(id))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&chunks, "chunks", false, "also list the transcription attempts from the ledger")
	return cmd
}

func printChunks(cmd *cobra.Command, deps *Dependencies, formatter *output.Formatter, id string) error {
	ledger, err := deps.App.Ledger()
	if err != nil {
		return err
	}
	defer deps.App.Close()

	rows, err := ledger.ChunksForSession(cmd.Context(), id)
	if err != nil {
		return err
	}
	formatter.Section("Chunks", "")
	for _, c := range rows {
		detail := strings.TrimSpace(c.Text)
		if c.Error != "" {
			detail = c.Error
		}
		if r := []rune(detail); len(r) > 60 {
			detail = string(r[:57]) + "..."
		}
		formatter.ChunkLine(c.SequenceNumber, string(c.Status), c.Duration, detail)
	}
	return nil
}

func NewTitleCmd(deps *Dependencies) *cobra.Command {
	return &cobra.Command{
		Use:   "title <session-id> <title>",
		Short: "Set a session's title",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := output.NewFormatter(os.Stdout)
			title := strings.Join(args[1:], " ")
			if err := deps.App.Catalog.SetTitle(store.ID(args[0]), title); err != nil {
				return err
			}
			formatter.Success("Title saved")
			return nil
		},
	}
}

func NewSummarizeCmd(deps *Dependencies) *cobra.Command {
	return &cobra.Command{
		Use:   "summarize <session-id>",
		Short: "Generate (or print) a session's summary",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := output.NewFormatter(os.Stdout)
			formatter.Summarizing()
			summary, err := deps.App.Catalog.Summarize(cmd.Context(), store.ID(args[0]))
			if err != nil {
				return err
			}
			formatter.Section("Summary", summary)
			return nil
		},
	}
}
