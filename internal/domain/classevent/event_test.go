package classevent

import (
	"errors"
	"testing"
	"time"
)

func TestNewClassEventValidatesInputs(t *testing.T) {
	if _, err := NewClassEvent("schedule_update", EntityTypeClass, 1, nil, nil); !errors.Is(err, ErrUnknownEventType) {
		t.Fatalf("NewClassEvent() unknown kind error = %v", err)
	}
	if _, err := NewClassEvent(EventTypeClassInsert, "school", 1, nil, nil); !errors.Is(err, ErrEntityTypeInvalid) {
		t.Fatalf("NewClassEvent() bad entity type error = %v", err)
	}

	event, err := NewClassEvent(EventTypeClassInsert, EntityTypeClass, 42, map[string]any{"name": "7B"}, nil)
	if err != nil {
		t.Fatalf("NewClassEvent() error = %v", err)
	}
	if event.IsPersisted() {
		t.Fatalf("new event must not carry an id")
	}
	if event.NotificationStatus() != NotificationStatusPending {
		t.Fatalf("NotificationStatus() = %q", event.NotificationStatus())
	}
}

func TestWithEventIDRejectsSecondAssignment(t *testing.T) {
	event, err := NewClassEvent(EventTypeClassUpdate, EntityTypeClass, 42, nil, nil)
	if err != nil {
		t.Fatalf("NewClassEvent() error = %v", err)
	}

	persisted, err := event.WithEventID(7)
	if err != nil {
		t.Fatalf("WithEventID() error = %v", err)
	}
	if id := persisted.EventID(); id == nil || *id != 7 {
		t.Fatalf("EventID() = %v", id)
	}

	if _, err := persisted.WithEventID(8); !errors.Is(err, ErrEventAlreadyHasID) {
		t.Fatalf("second WithEventID() error = %v", err)
	}
	if _, err := event.WithEventID(0); !errors.Is(err, ErrEventIDRequired) {
		t.Fatalf("WithEventID(0) error = %v", err)
	}
}

func TestFromRowRoundTrip(t *testing.T) {
	summary := `{"summary":"two fields changed","status":"success","attempts":1}`
	enrichedAt := "2026-03-01T10:00:00Z"
	userID := uint64(9)

	event, err := FromRow(Row{
		EventID:            11,
		EventType:          "class_update",
		EntityType:         EntityTypeClass,
		EntityID:           42,
		UserID:             &userID,
		EventData:          `{"new_row":{"name":"7B"}}`,
		AISummary:          &summary,
		NotificationStatus: NotificationStatusEnriched,
		CreatedAt:          "2026-03-01T09:00:00Z",
		EnrichedAt:         &enrichedAt,
	})
	if err != nil {
		t.Fatalf("FromRow() error = %v", err)
	}

	flattened := event.ToMap()
	if flattened["event_id"] != uint64(11) {
		t.Fatalf("ToMap() event_id = %v", flattened["event_id"])
	}
	if flattened["event_type"] != "class_update" {
		t.Fatalf("ToMap() event_type = %v", flattened["event_type"])
	}
	if flattened["created_at"] != "2026-03-01T09:00:00Z" {
		t.Fatalf("ToMap() created_at = %v", flattened["created_at"])
	}
	if flattened["enriched_at"] != "2026-03-01T10:00:00Z" {
		t.Fatalf("ToMap() enriched_at = %v", flattened["enriched_at"])
	}
	if flattened["sent_at"] != nil {
		t.Fatalf("ToMap() sent_at = %v", flattened["sent_at"])
	}

	data, ok := flattened["event_data"].(map[string]any)
	if !ok {
		t.Fatalf("ToMap() event_data = %T", flattened["event_data"])
	}
	if _, ok := data["new_row"]; !ok {
		t.Fatalf("ToMap() event_data missing new_row: %v", data)
	}
}

func TestFromRowRejectsUnknownEventType(t *testing.T) {
	_, err := FromRow(Row{
		EventID:   1,
		EventType: "mystery",
		CreatedAt: "2026-03-01T09:00:00Z",
	})
	if !errors.Is(err, ErrUnknownEventType) {
		t.Fatalf("FromRow() error = %v, want ErrUnknownEventType", err)
	}
}

func TestFromRowDegradesCorruptPayloads(t *testing.T) {
	summary := `{not json`
	event, err := FromRow(Row{
		EventID:            2,
		EventType:          "class_insert",
		EntityType:         EntityTypeClass,
		EntityID:           1,
		EventData:          `also not json`,
		AISummary:          &summary,
		NotificationStatus: NotificationStatusPending,
		CreatedAt:          "2026-03-01T09:00:00Z",
	})
	if err != nil {
		t.Fatalf("FromRow() error = %v", err)
	}
	if event.EventData() != nil {
		t.Fatalf("EventData() = %v, want nil", event.EventData())
	}
	if event.AISummary() != nil {
		t.Fatalf("AISummary() = %v, want nil", event.AISummary())
	}
}

func TestToInsertRecordOmitsDefaultStatus(t *testing.T) {
	event, err := NewClassEvent(EventTypeMaterialDelivery, EntityTypeLearner, 5, map[string]any{"material": "workbook"}, nil)
	if err != nil {
		t.Fatalf("NewClassEvent() error = %v", err)
	}

	record := event.ToInsertRecord()
	if record.NotificationStatus != nil {
		t.Fatalf("NotificationStatus = %q, want nil for default", *record.NotificationStatus)
	}

	forced := event.WithNotificationStatus(NotificationStatusSent).ToInsertRecord()
	if forced.NotificationStatus == nil || *forced.NotificationStatus != NotificationStatusSent {
		t.Fatalf("forced NotificationStatus = %v", forced.NotificationStatus)
	}
}

func TestTransitionsAreIsolated(t *testing.T) {
	event, err := NewClassEvent(EventTypeClassUpdate, EntityTypeClass, 42, nil, nil)
	if err != nil {
		t.Fatalf("NewClassEvent() error = %v", err)
	}
	at := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	enriched := event.WithAISummary(map[string]any{"summary": "done"}, at)
	if event.AISummary() != nil {
		t.Fatalf("original mutated by WithAISummary")
	}
	if enriched.EnrichedAt() == nil || !enriched.EnrichedAt().Equal(at) {
		t.Fatalf("EnrichedAt() = %v", enriched.EnrichedAt())
	}
	if enriched.NotificationStatus() != NotificationStatusEnriched {
		t.Fatalf("NotificationStatus() = %q", enriched.NotificationStatus())
	}
	if enriched.SentAt() != nil || enriched.ViewedAt() != nil || enriched.AcknowledgedAt() != nil {
		t.Fatalf("WithAISummary touched unrelated timestamps")
	}

	sent := enriched.WithSentAt(time.Time{})
	if sent.SentAt() == nil {
		t.Fatalf("WithSentAt() zero time must default to now")
	}
	if enriched.SentAt() != nil {
		t.Fatalf("original mutated by WithSentAt")
	}
}

func TestStatusDerivation(t *testing.T) {
	at := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	event, err := NewClassEvent(EventTypeClassInsert, EntityTypeClass, 1, nil, nil)
	if err != nil {
		t.Fatalf("NewClassEvent() error = %v", err)
	}

	if event.Status() != StatusPending {
		t.Fatalf("Status() = %q, want pending", event.Status())
	}

	enriched := event.WithAISummary(map[string]any{"summary": "x"}, at)
	if enriched.Status() != StatusEnriched {
		t.Fatalf("Status() = %q, want enriched", enriched.Status())
	}

	sent := enriched.WithSentAt(at)
	if sent.Status() != StatusSent {
		t.Fatalf("Status() = %q, want sent", sent.Status())
	}

	viewed := sent.WithViewedAt(at)
	if viewed.Status() != StatusViewed {
		t.Fatalf("Status() = %q, want viewed", viewed.Status())
	}

	// Acknowledgement does not require a prior view.
	acked := sent.WithAcknowledgedAt(at)
	if acked.Status() != StatusAcknowledged {
		t.Fatalf("Status() = %q, want acknowledged", acked.Status())
	}
	if acked.ViewedAt() != nil {
		t.Fatalf("acknowledge must not backfill viewed_at")
	}
}

func TestEventDataAccessorReturnsCopy(t *testing.T) {
	event, err := NewClassEvent(EventTypeClassUpdate, EntityTypeClass, 42, map[string]any{
		"new_row": map[string]any{"name": "7B"},
	}, nil)
	if err != nil {
		t.Fatalf("NewClassEvent() error = %v", err)
	}

	leaked := event.EventData()
	leaked["new_row"].(map[string]any)["name"] = "tampered"

	fresh := event.EventData()
	if fresh["new_row"].(map[string]any)["name"] != "7B" {
		t.Fatalf("EventData() shares internal state")
	}
}
