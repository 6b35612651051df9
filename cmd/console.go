package cmd

import (
	"log/slog"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"klasboek/internal/bootstrap"
	"klasboek/internal/bootstrap/logging"
	"klasboek/internal/errs"
	"klasboek/internal/usecase/eventconsole"
	"klasboek/internal/usecase/events"
)

var consoleCmd = &cobra.Command{
	Use:   "console",
	Short: "Terminal console commands",
}

var consoleEventsCmd = &cobra.Command{
	Use:   "events",
	Short: "Start the change-event console",
	RunE: withApp(func(cmd *cobra.Command, _ *bootstrap.App, svc *events.Service) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		pageSize, _ := cmd.Flags().GetInt("page-size")
		refreshInterval, _ := cmd.Flags().GetDuration("refresh-interval")

		model := eventconsole.NewConsoleModel(ctx, svc, eventconsole.Options{
			PageSize:        pageSize,
			RefreshInterval: refreshInterval,
		})

		program := tea.NewProgram(model, tea.WithAltScreen())
		if _, err := program.Run(); err != nil {
			return errs.Wrap(err, "run events console")
		}
		return nil
	}),
}

func init() {
	rootCmd.AddCommand(consoleCmd)
	consoleCmd.AddCommand(consoleEventsCmd)

	consoleEventsCmd.Flags().Int("page-size", 15, "Events shown per refresh")
	consoleEventsCmd.Flags().Duration("refresh-interval", 5*time.Second, "Auto refresh interval")
}
