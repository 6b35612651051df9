package repository

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"gorm.io/gorm"

	"klasboek/internal/bootstrap/logging"
	"klasboek/internal/domain/classevent"
	"klasboek/internal/errs"
	"klasboek/internal/infrastructure/persistence/sqlite/model"
	"klasboek/internal/ports"
)

type ClassEventRepository struct {
	db *gorm.DB
}

var _ ports.ClassEventRepository = (*ClassEventRepository)(nil)

func NewClassEventRepository(db *gorm.DB) *ClassEventRepository {
	return &ClassEventRepository{db: db}
}

func (r *ClassEventRepository) dbFromContext(ctx context.Context) (*gorm.DB, error) {
	if ctx == nil {
		return nil, errors.New("context is required")
	}

	tx := ports.TxFromContext(ctx)
	if tx == nil {
		return r.db.WithContext(ctx), nil
	}

	gormTx, ok := tx.(*gorm.DB)
	if !ok || gormTx == nil {
		return nil, fmt.Errorf("invalid tx in context: %T", tx)
	}
	return gormTx.WithContext(ctx), nil
}

func (r *ClassEventRepository) InsertEvent(ctx context.Context, record classevent.InsertRecord) (uint64, error) {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return 0, err
	}

	row := model.ClassEvent{
		EventType:          record.EventType,
		EntityType:         record.EntityType,
		EntityID:           record.EntityID,
		UserID:             record.UserID,
		EventData:          record.EventData,
		NotificationStatus: classevent.NotificationStatusPending,
		CreatedAt:          formatTime(record.CreatedAt),
	}
	if record.NotificationStatus != nil {
		row.NotificationStatus = *record.NotificationStatus
	}

	if err := db.Create(&row).Error; err != nil {
		return 0, errs.Wrap(err, "insert class event")
	}
	if row.EventID == 0 {
		return 0, errors.New("store returned no event id")
	}
	return row.EventID, nil
}

func (r *ClassEventRepository) GetEvent(ctx context.Context, eventID uint64) (classevent.ClassEvent, error) {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return classevent.ClassEvent{}, err
	}

	var row model.ClassEvent
	if err := db.Where("event_id = ?", eventID).Take(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return classevent.ClassEvent{}, ports.ErrEventNotFound
		}
		return classevent.ClassEvent{}, errs.Wrap(err, "query class event")
	}
	return mapEvent(row)
}

func (r *ClassEventRepository) FindPendingForProcessing(ctx context.Context, limit int) ([]classevent.ClassEvent, error) {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return nil, err
	}

	query := db.Model(&model.ClassEvent{}).
		Where("notification_status = ?", classevent.NotificationStatusPending).
		Order("created_at asc, event_id asc")
	if limit > 0 {
		query = query.Limit(limit)
	}

	var rows []model.ClassEvent
	if err := query.Find(&rows).Error; err != nil {
		return nil, errs.Wrap(err, "query pending class events")
	}
	return mapEvents(rows)
}

func (r *ClassEventRepository) ClaimPending(ctx context.Context, eventID uint64) (bool, error) {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return false, err
	}

	result := db.Model(&model.ClassEvent{}).
		Where("event_id = ? AND notification_status = ?", eventID, classevent.NotificationStatusPending).
		Update("notification_status", classevent.NotificationStatusProcessing)
	if result.Error != nil {
		return false, errs.Wrap(result.Error, "claim pending class event")
	}
	return result.RowsAffected > 0, nil
}

func (r *ClassEventRepository) FindByEntity(ctx context.Context, entityType string, entityID uint64, limit int) ([]classevent.ClassEvent, error) {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return nil, err
	}

	query := db.Model(&model.ClassEvent{}).
		Where("entity_type = ? AND entity_id = ?", entityType, entityID).
		Order("created_at desc, event_id desc")
	if limit > 0 {
		query = query.Limit(limit)
	}

	var rows []model.ClassEvent
	if err := query.Find(&rows).Error; err != nil {
		return nil, errs.Wrap(err, "query class events by entity")
	}
	return mapEvents(rows)
}

// GetTimeline pages newest-first with a keyset cursor. New inserts never
// shift an in-progress scroll because the boundary is the cursor row's
// (created_at, event_id) pair, not an offset.
func (r *ClassEventRepository) GetTimeline(ctx context.Context, limit int, afterID uint64) ([]classevent.ClassEvent, error) {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return nil, err
	}

	query := db.Model(&model.ClassEvent{})
	if afterID > 0 {
		var cursor model.ClassEvent
		if err := db.Where("event_id = ?", afterID).Take(&cursor).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ports.ErrEventNotFound
			}
			return nil, errs.Wrap(err, "query timeline cursor")
		}
		query = query.Where(
			"created_at < ? OR (created_at = ? AND event_id < ?)",
			cursor.CreatedAt, cursor.CreatedAt, cursor.EventID,
		)
	}

	query = query.Order("created_at desc, event_id desc")
	if limit > 0 {
		query = query.Limit(limit)
	}

	var rows []model.ClassEvent
	if err := query.Find(&rows).Error; err != nil {
		return nil, errs.Wrap(err, "query class event timeline")
	}
	return mapEvents(rows)
}

func (r *ClassEventRepository) UpdateStatus(ctx context.Context, eventID uint64, status string) error {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return err
	}

	if err := db.Model(&model.ClassEvent{}).
		Where("event_id = ?", eventID).
		Update("notification_status", status).Error; err != nil {
		return errs.Wrap(err, "update class event status")
	}
	return nil
}

// UpdateAISummary sets the summary payload and enriched_at in one statement,
// so an enriched event can never exist without its timestamp.
func (r *ClassEventRepository) UpdateAISummary(ctx context.Context, eventID uint64, summaryJSON string, enrichedAt time.Time) error {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return err
	}

	if err := db.Model(&model.ClassEvent{}).
		Where("event_id = ?", eventID).
		Updates(map[string]any{
			"ai_summary":          summaryJSON,
			"enriched_at":         formatTime(enrichedAt),
			"notification_status": classevent.NotificationStatusEnriched,
		}).Error; err != nil {
		return errs.Wrap(err, "update class event ai summary")
	}
	return nil
}

// RecordEnrichmentFailure stores attempt bookkeeping without setting
// enriched_at; status routes the event back to pending or parks it failed.
func (r *ClassEventRepository) RecordEnrichmentFailure(ctx context.Context, eventID uint64, summaryJSON string, status string) error {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return err
	}

	if err := db.Model(&model.ClassEvent{}).
		Where("event_id = ?", eventID).
		Updates(map[string]any{
			"ai_summary":          summaryJSON,
			"notification_status": status,
		}).Error; err != nil {
		return errs.Wrap(err, "record class event enrichment failure")
	}
	return nil
}

func (r *ClassEventRepository) MarkSent(ctx context.Context, eventID uint64, at time.Time) error {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return err
	}

	if err := db.Model(&model.ClassEvent{}).
		Where("event_id = ?", eventID).
		Updates(map[string]any{
			"sent_at":             formatTime(at),
			"notification_status": classevent.NotificationStatusSent,
		}).Error; err != nil {
		return errs.Wrap(err, "mark class event sent")
	}
	return nil
}

// MarkViewed only fires while viewed_at is NULL; a repeat call is a no-op,
// not an overwrite. Safe under arbitrary concurrency without any lock.
func (r *ClassEventRepository) MarkViewed(ctx context.Context, eventID uint64, at time.Time) (bool, error) {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return false, err
	}

	result := db.Model(&model.ClassEvent{}).
		Where("event_id = ? AND viewed_at IS NULL", eventID).
		Update("viewed_at", formatTime(at))
	if result.Error != nil {
		return false, errs.Wrap(result.Error, "mark class event viewed")
	}
	return result.RowsAffected > 0, nil
}

func (r *ClassEventRepository) MarkAcknowledged(ctx context.Context, eventID uint64, at time.Time) (bool, error) {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return false, err
	}

	result := db.Model(&model.ClassEvent{}).
		Where("event_id = ? AND acknowledged_at IS NULL", eventID).
		Update("acknowledged_at", formatTime(at))
	if result.Error != nil {
		return false, errs.Wrap(result.Error, "mark class event acknowledged")
	}
	return result.RowsAffected > 0, nil
}

// GetUnreadCount is advisory: a transient read failure degrades to 0 instead
// of blocking the primary flow.
func (r *ClassEventRepository) GetUnreadCount(ctx context.Context) int64 {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return 0
	}

	var count int64
	if err := db.Model(&model.ClassEvent{}).
		Where("viewed_at IS NULL").
		Count(&count).Error; err != nil {
		logging.Warn(ctx, "unread count query failed", slog.Any("err", errs.Loggable(err)))
		return 0
	}
	return count
}

func mapEvents(rows []model.ClassEvent) ([]classevent.ClassEvent, error) {
	items := make([]classevent.ClassEvent, 0, len(rows))
	for _, row := range rows {
		event, err := mapEvent(row)
		if err != nil {
			return nil, err
		}
		items = append(items, event)
	}
	return items, nil
}

func mapEvent(row model.ClassEvent) (classevent.ClassEvent, error) {
	event, err := classevent.FromRow(classevent.Row{
		EventID:            row.EventID,
		EventType:          row.EventType,
		EntityType:         row.EntityType,
		EntityID:           row.EntityID,
		UserID:             row.UserID,
		EventData:          row.EventData,
		AISummary:          row.AISummary,
		NotificationStatus: row.NotificationStatus,
		CreatedAt:          row.CreatedAt,
		EnrichedAt:         row.EnrichedAt,
		SentAt:             row.SentAt,
		ViewedAt:           row.ViewedAt,
		AcknowledgedAt:     row.AcknowledgedAt,
	})
	if err != nil {
		return classevent.ClassEvent{}, errs.Wrapf(err, "hydrate class event %d", row.EventID)
	}
	return event, nil
}

// Timestamps are ordered lexicographically by sqlite, so the fraction is
// padded to a fixed width. RFC3339Nano trims trailing zeros, which sorts
// "09:00:00.5Z" after "09:00:00.52Z".
const sortableTimeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(at time.Time) string {
	return at.UTC().Format(sortableTimeLayout)
}
