package cmd

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"klasboek/internal/bootstrap"
	"klasboek/internal/bootstrap/logging"
	"klasboek/internal/errs"
	"klasboek/internal/usecase/events"
)

var enrichCmd = &cobra.Command{
	Use:   "enrich",
	Short: "AI enrichment of pending events",
}

var enrichRunCmd = &cobra.Command{
	Use:   "run",
	Short: "Run one enrichment pass over the pending queue",
	RunE: withApp(func(cmd *cobra.Command, app *bootstrap.App, svc *events.Service) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		limit, _ := cmd.Flags().GetInt("limit")
		profileFile, _ := cmd.Flags().GetString("profile")
		if strings.TrimSpace(profileFile) == "" {
			profileFile = app.Config.Enrichment.Profile
		}

		result, err := svc.ProcessPending(ctx, events.ProcessPendingInput{
			Limit:       limit,
			ProfileFile: profileFile,
		})
		if err != nil {
			logging.Error(ctx, "enrichment pass failed", slog.Any("err", errs.Loggable(err)))
			return errs.Wrap(err, "run enrichment pass")
		}

		if _, err := fmt.Fprintf(
			cmd.OutOrStdout(),
			"enrichment run %s: claimed=%d succeeded=%d failed=%d\n",
			result.RunID, result.Claimed, result.Succeeded, result.Failed,
		); err != nil {
			return errs.Wrap(err, "write enrich output")
		}

		for _, outcome := range result.Outcomes {
			status := string(outcome.Result.Status)
			detail := "-"
			if outcome.Result.Record.ErrorCode != nil {
				detail = *outcome.Result.Record.ErrorCode
			}
			if _, err := fmt.Fprintf(
				cmd.OutOrStdout(),
				"- event %d: %s attempts=%d error=%s\n",
				outcome.EventID, status, outcome.Result.Record.Attempts, detail,
			); err != nil {
				return errs.Wrap(err, "write enrich outcome")
			}
		}
		return nil
	}),
}

var enrichStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the last enrichment run",
	RunE: withApp(func(cmd *cobra.Command, _ *bootstrap.App, svc *events.Service) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		lastRun, found, err := svc.LastRun(ctx)
		if err != nil {
			return errs.Wrap(err, "read last enrichment run")
		}
		if !found {
			if _, err := fmt.Fprintln(cmd.OutOrStdout(), "no enrichment run recorded"); err != nil {
				return errs.Wrap(err, "write status output")
			}
			return nil
		}

		if _, err := fmt.Fprintln(cmd.OutOrStdout(), lastRun); err != nil {
			return errs.Wrap(err, "write status output")
		}
		return nil
	}),
}

func init() {
	rootCmd.AddCommand(enrichCmd)
	enrichCmd.AddCommand(enrichRunCmd)
	enrichCmd.AddCommand(enrichStatusCmd)

	enrichRunCmd.Flags().Int("limit", 10, "Maximum events to claim in one pass")
	enrichRunCmd.Flags().String("profile", "", "Path to enrichment profile TOML (default from config)")
}
