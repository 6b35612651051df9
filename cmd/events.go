package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"klasboek/internal/bootstrap"
	"klasboek/internal/bootstrap/logging"
	"klasboek/internal/errs"
	"klasboek/internal/usecase/events"
)

var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "Record and inspect class change events",
}

var eventsRecordCmd = &cobra.Command{
	Use:   "record",
	Short: "Record a new change event",
	RunE: withApp(func(cmd *cobra.Command, _ *bootstrap.App, svc *events.Service) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		eventType, _ := cmd.Flags().GetString("type")
		entityType, _ := cmd.Flags().GetString("entity-type")
		entityID, _ := cmd.Flags().GetUint64("entity-id")
		status, _ := cmd.Flags().GetString("status")

		var userID *uint64
		if cmd.Flags().Changed("user-id") {
			value, _ := cmd.Flags().GetUint64("user-id")
			userID = &value
		}

		payload, err := resolveEventData(cmd)
		if err != nil {
			return err
		}

		event, err := svc.RecordEvent(ctx, events.RecordEventInput{
			EventType:  eventType,
			EntityType: entityType,
			EntityID:   entityID,
			UserID:     userID,
			NewRow:     payloadSection(payload, "new_row"),
			OldRow:     payloadSection(payload, "old_row"),
			Diff:       payloadSection(payload, "diff"),
			Metadata:   payloadSection(payload, "metadata"),
			Status:     status,
		})
		if err != nil {
			logging.Error(ctx, "record event failed", slog.Any("err", errs.Loggable(err)))
			return errs.Wrap(err, "record event")
		}

		eventID := event.EventID()
		if _, err := fmt.Fprintf(cmd.OutOrStdout(), "recorded event: %d\n", *eventID); err != nil {
			return errs.Wrap(err, "write record output")
		}
		return nil
	}),
}

var eventsTimelineCmd = &cobra.Command{
	Use:   "timeline",
	Short: "Show the event timeline, newest first",
	RunE: withApp(func(cmd *cobra.Command, _ *bootstrap.App, svc *events.Service) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		limit, _ := cmd.Flags().GetInt("limit")
		afterID, _ := cmd.Flags().GetUint64("after")

		items, err := svc.Timeline(ctx, limit, afterID)
		if err != nil {
			logging.Error(ctx, "read timeline failed", slog.Any("err", errs.Loggable(err)))
			return errs.Wrap(err, "read timeline")
		}

		return writeEventItems(cmd, items)
	}),
}

var eventsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List events for one class or learner",
	RunE: withApp(func(cmd *cobra.Command, _ *bootstrap.App, svc *events.Service) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		entityType, _ := cmd.Flags().GetString("entity-type")
		entityID, _ := cmd.Flags().GetUint64("entity-id")
		limit, _ := cmd.Flags().GetInt("limit")

		items, err := svc.ByEntity(ctx, entityType, entityID, limit)
		if err != nil {
			logging.Error(ctx, "list events failed", slog.Any("err", errs.Loggable(err)))
			return errs.Wrap(err, "list events")
		}

		return writeEventItems(cmd, items)
	}),
}

var eventsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show one event as its flat dashboard map",
	RunE: withApp(func(cmd *cobra.Command, _ *bootstrap.App, svc *events.Service) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		eventID, _ := cmd.Flags().GetUint64("event")
		flat, err := svc.Show(ctx, eventID)
		if err != nil {
			logging.Error(ctx, "show event failed", slog.Any("err", errs.Loggable(err)))
			return errs.Wrap(err, "show event")
		}

		raw, err := json.MarshalIndent(flat, "", "  ")
		if err != nil {
			return errs.Wrap(err, "encode event")
		}
		if _, err := fmt.Fprintln(cmd.OutOrStdout(), string(raw)); err != nil {
			return errs.Wrap(err, "write show output")
		}
		return nil
	}),
}

var eventsUnreadCmd = &cobra.Command{
	Use:   "unread",
	Short: "Show the unread event count",
	RunE: withApp(func(cmd *cobra.Command, _ *bootstrap.App, svc *events.Service) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		if _, err := fmt.Fprintf(cmd.OutOrStdout(), "unread events: %d\n", svc.UnreadCount(ctx)); err != nil {
			return errs.Wrap(err, "write unread output")
		}
		return nil
	}),
}

func init() {
	rootCmd.AddCommand(eventsCmd)
	eventsCmd.AddCommand(eventsRecordCmd)
	eventsCmd.AddCommand(eventsTimelineCmd)
	eventsCmd.AddCommand(eventsListCmd)
	eventsCmd.AddCommand(eventsShowCmd)
	eventsCmd.AddCommand(eventsUnreadCmd)

	eventsRecordCmd.Flags().String("type", "", "Event type (class_insert|class_update|learning_path_collision|material_delivery)")
	eventsRecordCmd.Flags().String("entity-type", "class", "Entity type (class|learner)")
	eventsRecordCmd.Flags().Uint64("entity-id", 0, "Entity id")
	eventsRecordCmd.Flags().Uint64("user-id", 0, "Acting user id")
	eventsRecordCmd.Flags().String("data", "", "Event payload JSON (new_row/old_row/diff/metadata)")
	eventsRecordCmd.Flags().String("data-file", "", "Path to event payload JSON file")
	eventsRecordCmd.Flags().String("status", "", "Force initial notification status, for example sent")
	_ = eventsRecordCmd.MarkFlagRequired("type")
	_ = eventsRecordCmd.MarkFlagRequired("entity-id")

	eventsTimelineCmd.Flags().Int("limit", 20, "Maximum events per page")
	eventsTimelineCmd.Flags().Uint64("after", 0, "Keyset cursor: event id of the last row on the previous page")

	eventsListCmd.Flags().String("entity-type", "class", "Entity type (class|learner)")
	eventsListCmd.Flags().Uint64("entity-id", 0, "Entity id")
	eventsListCmd.Flags().Int("limit", 20, "Maximum events")
	_ = eventsListCmd.MarkFlagRequired("entity-id")

	eventsShowCmd.Flags().Uint64("event", 0, "Event id")
	_ = eventsShowCmd.MarkFlagRequired("event")
}

func resolveEventData(cmd *cobra.Command) (map[string]any, error) {
	inlineData, _ := cmd.Flags().GetString("data")
	dataFile, _ := cmd.Flags().GetString("data-file")

	if strings.TrimSpace(inlineData) != "" && strings.TrimSpace(dataFile) != "" {
		return nil, errors.New("data and data-file are mutually exclusive")
	}

	if strings.TrimSpace(dataFile) != "" {
		raw, err := os.ReadFile(dataFile)
		if err != nil {
			return nil, errs.Wrapf(err, "read data file %q", dataFile)
		}
		inlineData = string(raw)
	}

	if strings.TrimSpace(inlineData) == "" {
		return nil, nil
	}

	var payload map[string]any
	if err := json.Unmarshal([]byte(inlineData), &payload); err != nil {
		return nil, errs.Wrap(err, "parse event payload")
	}
	return payload, nil
}

func payloadSection(payload map[string]any, key string) map[string]any {
	if payload == nil {
		return nil
	}
	section, _ := payload[key].(map[string]any)
	return section
}

func writeEventItems(cmd *cobra.Command, items []events.EventItem) error {
	if len(items) == 0 {
		if _, err := fmt.Fprintln(cmd.OutOrStdout(), "no events"); err != nil {
			return errs.Wrap(err, "write list output")
		}
		return nil
	}

	for _, item := range items {
		summary := item.Summary
		if summary == "" {
			summary = "-"
		}
		if _, err := fmt.Fprintf(
			cmd.OutOrStdout(),
			"#%d [%s] type=%s entity=%s/%d created=%s summary=%s\n",
			item.EventID,
			item.Status,
			item.EventType,
			item.EntityType,
			item.EntityID,
			item.CreatedAt,
			summary,
		); err != nil {
			return errs.Wrap(err, "write event item")
		}
	}
	return nil
}
