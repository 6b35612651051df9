package events

import (
	"context"
	"errors"
	"testing"

	"klasboek/internal/domain/classevent"
)

func TestRecordEventAssignsID(t *testing.T) {
	repo := newFakeEventRepo()
	svc := newTestService(repo, &fakeSummarizer{}, newFakeCache())
	ctx := context.Background()

	event, err := svc.RecordEvent(ctx, RecordEventInput{
		EventType:  "class_update",
		EntityType: classevent.EntityTypeClass,
		EntityID:   42,
		NewRow:     map[string]any{"name": "7B"},
		OldRow:     map[string]any{"name": "7A"},
		Diff:       map[string]any{"name": []any{"7A", "7B"}},
	})
	if err != nil {
		t.Fatalf("RecordEvent() error = %v", err)
	}
	if !event.IsPersisted() {
		t.Fatalf("RecordEvent() returned unpersisted event")
	}
	if event.NotificationStatus() != classevent.NotificationStatusPending {
		t.Fatalf("notification_status = %q", event.NotificationStatus())
	}

	stored, err := repo.GetEvent(ctx, *event.EventID())
	if err != nil {
		t.Fatalf("GetEvent() error = %v", err)
	}
	data := stored.EventData()
	for _, key := range []string{"new_row", "old_row", "diff"} {
		if _, ok := data[key]; !ok {
			t.Fatalf("event_data missing %q: %v", key, data)
		}
	}
	if _, ok := data["metadata"]; ok {
		t.Fatalf("event_data has metadata without input: %v", data)
	}
}

func TestRecordEventRejectsUnknownType(t *testing.T) {
	svc := newTestService(newFakeEventRepo(), &fakeSummarizer{}, newFakeCache())

	_, err := svc.RecordEvent(context.Background(), RecordEventInput{
		EventType:  "schedule_update",
		EntityType: classevent.EntityTypeClass,
		EntityID:   1,
	})
	if !errors.Is(err, classevent.ErrUnknownEventType) {
		t.Fatalf("RecordEvent() error = %v, want ErrUnknownEventType", err)
	}
}

func TestRecordEventForcedStatusBypassesQueue(t *testing.T) {
	repo := newFakeEventRepo()
	svc := newTestService(repo, &fakeSummarizer{}, newFakeCache())
	ctx := context.Background()

	event, err := svc.RecordEvent(ctx, RecordEventInput{
		EventType:  "material_delivery",
		EntityType: classevent.EntityTypeLearner,
		EntityID:   5,
		Metadata:   map[string]any{"material": "workbook"},
		Status:     classevent.NotificationStatusSent,
	})
	if err != nil {
		t.Fatalf("RecordEvent() error = %v", err)
	}
	if event.NotificationStatus() != classevent.NotificationStatusSent {
		t.Fatalf("notification_status = %q", event.NotificationStatus())
	}

	pending, err := repo.FindPendingForProcessing(ctx, 10)
	if err != nil {
		t.Fatalf("FindPendingForProcessing() error = %v", err)
	}
	if len(pending) != 0 {
		t.Fatalf("forced-sent event still queued: %v", pending)
	}
}

func TestRecordEventRejectsCancelledContext(t *testing.T) {
	svc := newTestService(newFakeEventRepo(), &fakeSummarizer{}, newFakeCache())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := svc.RecordEvent(ctx, RecordEventInput{
		EventType:  "class_insert",
		EntityType: classevent.EntityTypeClass,
		EntityID:   1,
	}); !errors.Is(err, context.Canceled) {
		t.Fatalf("RecordEvent() error = %v, want context.Canceled", err)
	}
}
