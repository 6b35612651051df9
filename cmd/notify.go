package cmd

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"klasboek/internal/bootstrap"
	"klasboek/internal/bootstrap/logging"
	"klasboek/internal/errs"
	"klasboek/internal/usecase/events"
)

var notifyCmd = &cobra.Command{
	Use:   "notify",
	Short: "Drive the notification lifecycle of an event",
}

var notifySentCmd = &cobra.Command{
	Use:   "sent",
	Short: "Mark an event as delivered",
	RunE: withApp(func(cmd *cobra.Command, _ *bootstrap.App, svc *events.Service) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		eventID, _ := cmd.Flags().GetUint64("event")
		if err := svc.MarkSent(ctx, eventID); err != nil {
			logging.Error(ctx, "mark sent failed", slog.Any("err", errs.Loggable(err)))
			return errs.Wrap(err, "mark event sent")
		}

		if _, err := fmt.Fprintf(cmd.OutOrStdout(), "event %d marked sent\n", eventID); err != nil {
			return errs.Wrap(err, "write sent output")
		}
		return nil
	}),
}

var notifyViewedCmd = &cobra.Command{
	Use:   "viewed",
	Short: "Mark an event as viewed (idempotent)",
	RunE: withApp(func(cmd *cobra.Command, _ *bootstrap.App, svc *events.Service) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		eventID, _ := cmd.Flags().GetUint64("event")
		changed, err := svc.MarkViewed(ctx, eventID)
		if err != nil {
			logging.Error(ctx, "mark viewed failed", slog.Any("err", errs.Loggable(err)))
			return errs.Wrap(err, "mark event viewed")
		}

		return writeMarkResult(cmd, eventID, "viewed", changed)
	}),
}

var notifyAckCmd = &cobra.Command{
	Use:   "ack",
	Short: "Acknowledge an event (idempotent)",
	RunE: withApp(func(cmd *cobra.Command, _ *bootstrap.App, svc *events.Service) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		eventID, _ := cmd.Flags().GetUint64("event")
		changed, err := svc.MarkAcknowledged(ctx, eventID)
		if err != nil {
			logging.Error(ctx, "mark acknowledged failed", slog.Any("err", errs.Loggable(err)))
			return errs.Wrap(err, "mark event acknowledged")
		}

		return writeMarkResult(cmd, eventID, "acknowledged", changed)
	}),
}

func init() {
	rootCmd.AddCommand(notifyCmd)
	notifyCmd.AddCommand(notifySentCmd)
	notifyCmd.AddCommand(notifyViewedCmd)
	notifyCmd.AddCommand(notifyAckCmd)

	for _, sub := range []*cobra.Command{notifySentCmd, notifyViewedCmd, notifyAckCmd} {
		sub.Flags().Uint64("event", 0, "Event id")
		_ = sub.MarkFlagRequired("event")
	}
}

func writeMarkResult(cmd *cobra.Command, eventID uint64, action string, changed bool) error {
	text := fmt.Sprintf("event %d marked %s\n", eventID, action)
	if !changed {
		text = fmt.Sprintf("event %d already %s\n", eventID, action)
	}
	if _, err := fmt.Fprint(cmd.OutOrStdout(), text); err != nil {
		return errs.Wrap(err, "write mark output")
	}
	return nil
}
