package events

import (
	"context"
	"errors"
	"testing"

	"klasboek/internal/domain/classevent"
	"klasboek/internal/ports"
)

func TestTimelineItems(t *testing.T) {
	repo := newFakeEventRepo()
	summarizer := &fakeSummarizer{
		outputs: []ports.SummaryOutput{{Summary: "one field changed", Model: "gpt-4o-mini"}},
	}
	svc := newTestService(repo, summarizer, newFakeCache())
	ctx := context.Background()

	event, err := svc.RecordEvent(ctx, RecordEventInput{
		EventType:  "learning_path_collision",
		EntityType: classevent.EntityTypeLearner,
		EntityID:   5,
		NewRow:     map[string]any{"path": "numeracy-2"},
	})
	if err != nil {
		t.Fatalf("RecordEvent() error = %v", err)
	}
	if _, err := svc.ProcessPending(ctx, ProcessPendingInput{}); err != nil {
		t.Fatalf("ProcessPending() error = %v", err)
	}

	items, err := svc.Timeline(ctx, 10, 0)
	if err != nil {
		t.Fatalf("Timeline() error = %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("Timeline() len = %d", len(items))
	}

	item := items[0]
	if item.EventID != *event.EventID() {
		t.Fatalf("item.EventID = %d", item.EventID)
	}
	if item.EventLabel != "Learning path collision" || item.Priority != 1 {
		t.Fatalf("item label/priority = %q/%d", item.EventLabel, item.Priority)
	}
	if item.Status != classevent.StatusEnriched {
		t.Fatalf("item.Status = %q", item.Status)
	}
	if item.Summary != "one field changed" {
		t.Fatalf("item.Summary = %q", item.Summary)
	}
}

func TestTimelineItemWithoutSummary(t *testing.T) {
	svc := newTestService(newFakeEventRepo(), &fakeSummarizer{}, newFakeCache())
	ctx := context.Background()

	if _, err := svc.RecordEvent(ctx, RecordEventInput{
		EventType:  "class_insert",
		EntityType: classevent.EntityTypeClass,
		EntityID:   42,
	}); err != nil {
		t.Fatalf("RecordEvent() error = %v", err)
	}

	items, err := svc.Timeline(ctx, 10, 0)
	if err != nil {
		t.Fatalf("Timeline() error = %v", err)
	}
	if len(items) != 1 || items[0].Summary != "" {
		t.Fatalf("pending item = %+v", items)
	}
	if items[0].Status != classevent.StatusPending {
		t.Fatalf("item.Status = %q", items[0].Status)
	}
}

func TestShowReturnsFlatMap(t *testing.T) {
	svc := newTestService(newFakeEventRepo(), &fakeSummarizer{}, newFakeCache())
	ctx := context.Background()

	event, err := svc.RecordEvent(ctx, RecordEventInput{
		EventType:  "class_update",
		EntityType: classevent.EntityTypeClass,
		EntityID:   42,
		NewRow:     map[string]any{"name": "7B"},
	})
	if err != nil {
		t.Fatalf("RecordEvent() error = %v", err)
	}

	flat, err := svc.Show(ctx, *event.EventID())
	if err != nil {
		t.Fatalf("Show() error = %v", err)
	}
	if flat["event_type"] != "class_update" {
		t.Fatalf("Show() event_type = %v", flat["event_type"])
	}
	if flat["ai_summary"] != nil {
		t.Fatalf("Show() ai_summary = %v", flat["ai_summary"])
	}

	if _, err := svc.Show(ctx, 999); !errors.Is(err, ports.ErrEventNotFound) {
		t.Fatalf("Show(missing) error = %v", err)
	}
}

func TestUnreadCountNeverFails(t *testing.T) {
	svc := newTestService(newFakeEventRepo(), &fakeSummarizer{}, newFakeCache())
	ctx := context.Background()

	if count := svc.UnreadCount(ctx); count != 0 {
		t.Fatalf("UnreadCount() empty = %d", count)
	}

	event, err := svc.RecordEvent(ctx, RecordEventInput{
		EventType:  "class_insert",
		EntityType: classevent.EntityTypeClass,
		EntityID:   42,
	})
	if err != nil {
		t.Fatalf("RecordEvent() error = %v", err)
	}
	if count := svc.UnreadCount(ctx); count != 1 {
		t.Fatalf("UnreadCount() = %d", count)
	}

	if _, err := svc.MarkViewed(ctx, *event.EventID()); err != nil {
		t.Fatalf("MarkViewed() error = %v", err)
	}
	if count := svc.UnreadCount(ctx); count != 0 {
		t.Fatalf("UnreadCount() after view = %d", count)
	}

	var nilService Service
	if count := nilService.UnreadCount(ctx); count != 0 {
		t.Fatalf("UnreadCount() without repo = %d", count)
	}
}
