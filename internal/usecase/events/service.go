package events

import (
	"time"

	"klasboek/internal/domain/classevent"
	"klasboek/internal/ports"
)

// Service wires the class-event usecases: recording, reads, the enrichment
// loop and the notification mutators.
type Service struct {
	repo       ports.ClassEventRepository
	uow        ports.UnitOfWork
	cache      ports.Cache
	summarizer ports.Summarizer
	now        func() time.Time
}

func NewService(repo ports.ClassEventRepository, uow ports.UnitOfWork, cache ports.Cache, summarizer ports.Summarizer) *Service {
	return &Service{
		repo:       repo,
		uow:        uow,
		cache:      cache,
		summarizer: summarizer,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// EventItem is the flat dashboard shape for one event.
type EventItem struct {
	EventID            uint64
	EventType          string
	EventLabel         string
	Priority           int
	EntityType         string
	EntityID           uint64
	Status             string
	NotificationStatus string
	Summary            string
	CreatedAt          string
	EnrichedAt         string
	SentAt             string
	ViewedAt           string
	AcknowledgedAt     string
}

func toEventItem(event classevent.ClassEvent) EventItem {
	item := EventItem{
		EventType:          event.EventType().String(),
		EventLabel:         event.EventType().Label(),
		Priority:           event.EventType().Priority(),
		EntityType:         event.EntityType(),
		EntityID:           event.EntityID(),
		Status:             event.Status(),
		NotificationStatus: event.NotificationStatus(),
		CreatedAt:          event.CreatedAt().Format(time.RFC3339Nano),
		EnrichedAt:         formatOptional(event.EnrichedAt()),
		SentAt:             formatOptional(event.SentAt()),
		ViewedAt:           formatOptional(event.ViewedAt()),
		AcknowledgedAt:     formatOptional(event.AcknowledgedAt()),
	}
	if id := event.EventID(); id != nil {
		item.EventID = *id
	}
	// A pending or failed enrichment still renders, summary simply empty.
	if summary := event.AISummary(); summary != nil {
		if text, ok := summary["summary"].(string); ok {
			item.Summary = text
		}
	}
	return item
}

func toEventItems(items []classevent.ClassEvent) []EventItem {
	out := make([]EventItem, 0, len(items))
	for _, event := range items {
		out = append(out, toEventItem(event))
	}
	return out
}

func formatOptional(at *time.Time) string {
	if at == nil {
		return ""
	}
	return at.Format(time.RFC3339Nano)
}
