package ports

import (
	"context"
	"errors"
	"time"

	"klasboek/internal/domain/classevent"
)

var ErrEventNotFound = errors.New("class event not found")

// ClassEventRepository is the durable event store.
//
// Failure semantics: insert and the queue/timeline reads must return a
// definite answer and therefore error; GetUnreadCount is advisory and
// degrades to 0 instead of blocking the primary flow. Every mutator is a
// single statement, so no update is ever half applied.
type ClassEventRepository interface {
	// InsertEvent persists the insertable columns and returns the assigned
	// id. It never mutates the DTO; the caller applies WithEventID.
	InsertEvent(ctx context.Context, record classevent.InsertRecord) (uint64, error)

	GetEvent(ctx context.Context, eventID uint64) (classevent.ClassEvent, error)

	// FindPendingForProcessing is a pure FIFO read (oldest created first)
	// with no claim. Two concurrent workers can select the same event;
	// ClaimPending is the conditional gate that closes that gap.
	FindPendingForProcessing(ctx context.Context, limit int) ([]classevent.ClassEvent, error)

	// ClaimPending flips pending to processing in one conditional statement
	// and reports whether this caller won the claim. Single-worker
	// deployments may skip it.
	ClaimPending(ctx context.Context, eventID uint64) (bool, error)

	FindByEntity(ctx context.Context, entityType string, entityID uint64, limit int) ([]classevent.ClassEvent, error)

	// GetTimeline pages with a keyset cursor (afterID, 0 for the newest
	// page) ordered created_at DESC, event_id DESC so concurrent inserts
	// never shift an in-progress scroll.
	GetTimeline(ctx context.Context, limit int, afterID uint64) ([]classevent.ClassEvent, error)

	UpdateStatus(ctx context.Context, eventID uint64, status string) error

	// UpdateAISummary stores the summary payload and enriched_at atomically
	// in one statement.
	UpdateAISummary(ctx context.Context, eventID uint64, summaryJSON string, enrichedAt time.Time) error

	// RecordEnrichmentFailure stores attempt bookkeeping without touching
	// enriched_at; status is pending (retryable) or failed (exhausted).
	RecordEnrichmentFailure(ctx context.Context, eventID uint64, summaryJSON string, status string) error

	MarkSent(ctx context.Context, eventID uint64, at time.Time) error

	// MarkViewed and MarkAcknowledged are conditional on the timestamp being
	// unset; a repeat call is a no-op and reports false. This is the only
	// layer that guarantees that idempotency.
	MarkViewed(ctx context.Context, eventID uint64, at time.Time) (bool, error)
	MarkAcknowledged(ctx context.Context, eventID uint64, at time.Time) (bool, error)

	// GetUnreadCount counts events never viewed. Advisory: a read failure
	// degrades to 0.
	GetUnreadCount(ctx context.Context) int64
}
