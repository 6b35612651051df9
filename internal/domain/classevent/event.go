package classevent

import (
	"encoding/json"
	"strings"
	"time"
)

const (
	EntityTypeClass   = "class"
	EntityTypeLearner = "learner"
)

// notificationStatus values kept in the store. The observable lifecycle state
// is derived from the timestamp trail instead (see Status).
const (
	NotificationStatusPending    = "pending"
	NotificationStatusProcessing = "processing"
	NotificationStatusEnriched   = "enriched"
	NotificationStatusSent       = "sent"
	NotificationStatusFailed     = "failed"
)

// Lifecycle states derived from the timestamp trail.
const (
	StatusPending      = "pending"
	StatusEnriched     = "enriched"
	StatusSent         = "sent"
	StatusViewed       = "viewed"
	StatusAcknowledged = "acknowledged"
)

// ClassEvent is an immutable change-event record. Every transition returns a
// new value; timestamps, once set, are never cleared.
type ClassEvent struct {
	eventID            *uint64
	eventType          EventType
	entityType         string
	entityID           uint64
	userID             *uint64
	eventData          map[string]any
	aiSummary          map[string]any
	notificationStatus string
	createdAt          time.Time
	enrichedAt         *time.Time
	sentAt             *time.Time
	viewedAt           *time.Time
	acknowledgedAt     *time.Time
}

// NewClassEvent builds an unpersisted event: no id yet and a pending
// notification status.
func NewClassEvent(eventType EventType, entityType string, entityID uint64, data map[string]any, userID *uint64) (ClassEvent, error) {
	if _, err := ParseEventType(string(eventType)); err != nil {
		return ClassEvent{}, err
	}
	if entityType != EntityTypeClass && entityType != EntityTypeLearner {
		return ClassEvent{}, ErrEntityTypeInvalid
	}

	return ClassEvent{
		eventType:          eventType,
		entityType:         entityType,
		entityID:           entityID,
		userID:             copyUint64(userID),
		eventData:          cloneMap(data),
		notificationStatus: NotificationStatusPending,
		createdAt:          time.Now().UTC(),
	}, nil
}

// Row is the raw store shape a persisted event hydrates from. JSON payloads
// and timestamps arrive as text columns.
type Row struct {
	EventID            uint64
	EventType          string
	EntityType         string
	EntityID           uint64
	UserID             *uint64
	EventData          string
	AISummary          *string
	NotificationStatus string
	CreatedAt          string
	EnrichedAt         *string
	SentAt             *string
	ViewedAt           *string
	AcknowledgedAt     *string
}

// FromRow hydrates a persisted event. An unparseable event_type is fatal; a
// corrupt JSON payload is not, it degrades to nil so the event still renders.
func FromRow(row Row) (ClassEvent, error) {
	eventType, err := ParseEventType(row.EventType)
	if err != nil {
		return ClassEvent{}, err
	}

	eventID := row.EventID
	return ClassEvent{
		eventID:            &eventID,
		eventType:          eventType,
		entityType:         row.EntityType,
		entityID:           row.EntityID,
		userID:             copyUint64(row.UserID),
		eventData:          decodeJSONMap(row.EventData),
		aiSummary:          decodeOptionalJSONMap(row.AISummary),
		notificationStatus: row.NotificationStatus,
		createdAt:          parseTimestamp(row.CreatedAt),
		enrichedAt:         parseOptionalTimestamp(row.EnrichedAt),
		sentAt:             parseOptionalTimestamp(row.SentAt),
		viewedAt:           parseOptionalTimestamp(row.ViewedAt),
		acknowledgedAt:     parseOptionalTimestamp(row.AcknowledgedAt),
	}, nil
}

// InsertRecord carries only the insertable columns. NotificationStatus stays
// nil unless it deviates from the store default.
type InsertRecord struct {
	EventType          string
	EntityType         string
	EntityID           uint64
	UserID             *uint64
	EventData          string
	NotificationStatus *string
	CreatedAt          time.Time
}

func (e ClassEvent) ToInsertRecord() InsertRecord {
	record := InsertRecord{
		EventType:  string(e.eventType),
		EntityType: e.entityType,
		EntityID:   e.entityID,
		UserID:     copyUint64(e.userID),
		EventData:  encodeJSONMap(e.eventData),
		CreatedAt:  e.createdAt,
	}
	if e.notificationStatus != NotificationStatusPending {
		status := e.notificationStatus
		record.NotificationStatus = &status
	}
	return record
}

// WithEventID is the sole way an unpersisted event becomes persisted. A
// second assignment is rejected.
func (e ClassEvent) WithEventID(id uint64) (ClassEvent, error) {
	if e.eventID != nil {
		return ClassEvent{}, ErrEventAlreadyHasID
	}
	if id == 0 {
		return ClassEvent{}, ErrEventIDRequired
	}

	next := e
	next.eventID = &id
	return next, nil
}

// WithAISummary sets the summary payload and the enrichment timestamp. A zero
// time defaults to now.
func (e ClassEvent) WithAISummary(summary map[string]any, at time.Time) ClassEvent {
	next := e
	next.aiSummary = cloneMap(summary)
	ts := orNow(at)
	next.enrichedAt = &ts
	next.notificationStatus = NotificationStatusEnriched
	return next
}

func (e ClassEvent) WithNotificationStatus(status string) ClassEvent {
	next := e
	next.notificationStatus = strings.TrimSpace(status)
	return next
}

func (e ClassEvent) WithSentAt(at time.Time) ClassEvent {
	next := e
	ts := orNow(at)
	next.sentAt = &ts
	next.notificationStatus = NotificationStatusSent
	return next
}

func (e ClassEvent) WithViewedAt(at time.Time) ClassEvent {
	next := e
	ts := orNow(at)
	next.viewedAt = &ts
	return next
}

func (e ClassEvent) WithAcknowledgedAt(at time.Time) ClassEvent {
	next := e
	ts := orNow(at)
	next.acknowledgedAt = &ts
	return next
}

func (e ClassEvent) EventID() *uint64           { return copyUint64(e.eventID) }
func (e ClassEvent) EventType() EventType       { return e.eventType }
func (e ClassEvent) EntityType() string         { return e.entityType }
func (e ClassEvent) EntityID() uint64           { return e.entityID }
func (e ClassEvent) UserID() *uint64            { return copyUint64(e.userID) }
func (e ClassEvent) EventData() map[string]any  { return cloneMap(e.eventData) }
func (e ClassEvent) AISummary() map[string]any  { return cloneMap(e.aiSummary) }
func (e ClassEvent) NotificationStatus() string { return e.notificationStatus }
func (e ClassEvent) CreatedAt() time.Time       { return e.createdAt }
func (e ClassEvent) EnrichedAt() *time.Time     { return copyTime(e.enrichedAt) }
func (e ClassEvent) SentAt() *time.Time         { return copyTime(e.sentAt) }
func (e ClassEvent) ViewedAt() *time.Time       { return copyTime(e.viewedAt) }
func (e ClassEvent) AcknowledgedAt() *time.Time { return copyTime(e.acknowledgedAt) }
func (e ClassEvent) IsPersisted() bool          { return e.eventID != nil }

// Status derives the lifecycle state from the timestamp trail, not from the
// notificationStatus column.
func (e ClassEvent) Status() string {
	switch {
	case e.acknowledgedAt != nil:
		return StatusAcknowledged
	case e.viewedAt != nil:
		return StatusViewed
	case e.sentAt != nil:
		return StatusSent
	case e.aiSummary != nil:
		return StatusEnriched
	default:
		return StatusPending
	}
}

// ToMap flattens the event for dashboard serialization.
func (e ClassEvent) ToMap() map[string]any {
	return map[string]any{
		"event_id":            anyUint64(e.eventID),
		"event_type":          string(e.eventType),
		"entity_type":         e.entityType,
		"entity_id":           e.entityID,
		"user_id":             anyUint64(e.userID),
		"event_data":          cloneMap(e.eventData),
		"ai_summary":          cloneMap(e.aiSummary),
		"notification_status": e.notificationStatus,
		"created_at":          formatTimestamp(e.createdAt),
		"enriched_at":         formatOptionalTimestamp(e.enrichedAt),
		"sent_at":             formatOptionalTimestamp(e.sentAt),
		"viewed_at":           formatOptionalTimestamp(e.viewedAt),
		"acknowledged_at":     formatOptionalTimestamp(e.acknowledgedAt),
	}
}

func orNow(at time.Time) time.Time {
	if at.IsZero() {
		return time.Now().UTC()
	}
	return at.UTC()
}

func copyUint64(value *uint64) *uint64 {
	if value == nil {
		return nil
	}
	cloned := *value
	return &cloned
}

func copyTime(value *time.Time) *time.Time {
	if value == nil {
		return nil
	}
	cloned := *value
	return &cloned
}

func anyUint64(value *uint64) any {
	if value == nil {
		return nil
	}
	return *value
}

func cloneMap(source map[string]any) map[string]any {
	if source == nil {
		return nil
	}

	cloned := make(map[string]any, len(source))
	for key, value := range source {
		cloned[key] = cloneValue(value)
	}
	return cloned
}

func cloneValue(value any) any {
	switch typed := value.(type) {
	case map[string]any:
		return cloneMap(typed)
	case []any:
		cloned := make([]any, len(typed))
		for i, item := range typed {
			cloned[i] = cloneValue(item)
		}
		return cloned
	default:
		return typed
	}
}

func encodeJSONMap(payload map[string]any) string {
	if payload == nil {
		return "{}"
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return "{}"
	}
	return string(raw)
}

func decodeJSONMap(raw string) map[string]any {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil
	}

	var payload map[string]any
	if err := json.Unmarshal([]byte(trimmed), &payload); err != nil {
		return nil
	}
	if len(payload) == 0 {
		return nil
	}
	return payload
}

func decodeOptionalJSONMap(raw *string) map[string]any {
	if raw == nil {
		return nil
	}
	return decodeJSONMap(*raw)
}

func parseTimestamp(raw string) time.Time {
	parsed, err := time.Parse(time.RFC3339Nano, strings.TrimSpace(raw))
	if err != nil {
		return time.Time{}
	}
	return parsed.UTC()
}

func parseOptionalTimestamp(raw *string) *time.Time {
	if raw == nil {
		return nil
	}

	parsed := parseTimestamp(*raw)
	if parsed.IsZero() {
		return nil
	}
	return &parsed
}

func formatTimestamp(at time.Time) string {
	return at.UTC().Format(time.RFC3339Nano)
}

func formatOptionalTimestamp(at *time.Time) any {
	if at == nil {
		return nil
	}
	return formatTimestamp(*at)
}
