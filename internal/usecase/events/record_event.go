package events

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"klasboek/internal/bootstrap/logging"
	"klasboek/internal/domain/classevent"
	"klasboek/internal/errs"
)

type RecordEventInput struct {
	EventType  string
	EntityType string
	EntityID   uint64
	UserID     *uint64
	NewRow     map[string]any
	OldRow     map[string]any
	Diff       map[string]any
	Metadata   map[string]any
	// Status optionally forces the initial notification status, for example
	// "sent" for events that bypass enrichment entirely.
	Status string
}

// RecordEvent persists a new change event and returns it with its assigned
// id applied. The raw payload stays inside the trust boundary; redaction
// happens at enrichment time, before anything ships out.
func (s *Service) RecordEvent(ctx context.Context, input RecordEventInput) (classevent.ClassEvent, error) {
	if ctx == nil {
		return classevent.ClassEvent{}, errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return classevent.ClassEvent{}, errs.Wrap(err, "check context")
	}
	if s.repo == nil {
		return classevent.ClassEvent{}, errors.New("class event repository is required")
	}
	if s.uow == nil {
		return classevent.ClassEvent{}, errors.New("unit of work is required")
	}

	eventType, err := classevent.ParseEventType(input.EventType)
	if err != nil {
		return classevent.ClassEvent{}, err
	}

	data := map[string]any{}
	if input.NewRow != nil {
		data["new_row"] = input.NewRow
	}
	if input.OldRow != nil {
		data["old_row"] = input.OldRow
	}
	if input.Diff != nil {
		data["diff"] = input.Diff
	}
	if input.Metadata != nil {
		data["metadata"] = input.Metadata
	}

	event, err := classevent.NewClassEvent(eventType, strings.TrimSpace(input.EntityType), input.EntityID, data, input.UserID)
	if err != nil {
		return classevent.ClassEvent{}, err
	}
	if status := strings.TrimSpace(input.Status); status != "" {
		event = event.WithNotificationStatus(status)
	}

	var eventID uint64
	if err := s.uow.WithTx(ctx, func(txCtx context.Context) error {
		var err error
		eventID, err = s.repo.InsertEvent(txCtx, event.ToInsertRecord())
		return err
	}); err != nil {
		return classevent.ClassEvent{}, errs.Wrap(err, "insert class event")
	}

	persisted, err := event.WithEventID(eventID)
	if err != nil {
		return classevent.ClassEvent{}, err
	}

	logging.Info(ctx, "class event recorded",
		slog.Uint64("event_id", eventID),
		slog.String("event_type", eventType.String()),
		slog.String("entity_type", persisted.EntityType()),
		slog.Uint64("entity_id", persisted.EntityID()),
	)
	return persisted, nil
}
