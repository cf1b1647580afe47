package cli

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/jwulff/minutes/config"
	"github.com/jwulff/minutes/internal/daemon"
	"github.com/jwulff/minutes/internal/output"
)

func NewDoctorCmd(deps *Dependencies) *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check prerequisites",
		RunE: func(cmd *cobra.Command, args []string) error {
			f := output.NewFormatter(os.Stdout)
			ok := true

			if deps.Config.OpenAIKey != "" {
				f.SetupCheck("OpenAI API key", true, "configured")
			} else {
				f.SetupCheck("OpenAI API key", false, "not set. Set MINUTES_OPENAI_API_KEY, OPENAI_API_KEY or add to config")
				ok = false
			}

			if deps.Config.OpenAIBaseURL != "" {
				f.SetupCheck("OpenAI endpoint", true, deps.Config.OpenAIBaseURL)
			}
			f.SetupCheck("Models", true, deps.Config.TranscriptionModel+" / "+deps.Config.SummaryModel)
			f.SetupCheck("Chunk interval", true, deps.Config.FlushInterval.String())

			if err := deps.Config.EnsureDirs(); err != nil {
				f.SetupCheck("Sessions directory", false, err.Error())
				ok = false
			} else {
				f.SetupCheck("Sessions directory", true, deps.Config.SessionsDir)
			}

			if _, err := deps.App.Ledger(); err != nil {
				f.SetupCheck("Chunk ledger", false, err.Error())
				ok = false
			} else {
				f.SetupCheck("Chunk ledger", true, "ok")
			}
			deps.App.Close()

			if client, err := daemon.Connect(deps.Config.SocketPath); err != nil {
				f.SetupCheck("Daemon", false, "not running. Start with: minutes serve")
			} else {
				client.Close()
				f.SetupCheck("Daemon", true, deps.Config.SocketPath)
			}

			if _, err := os.Stat(config.ConfigFilePath()); err == nil {
				f.SetupCheck("Config file", true, config.ConfigFilePath())
			} else {
				f.SetupCheck("Config file", true, "none, using defaults and environment")
			}

			if ok {
				f.Success("\nAll prerequisites met. Ready to record!")
			} else {
				f.Warning("\nSome prerequisites are missing.")
			}
			return nil
		},
	}
}
