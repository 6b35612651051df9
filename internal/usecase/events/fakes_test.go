package events

import (
	"context"
	"fmt"
	"sort"
	"time"

	"klasboek/internal/domain/classevent"
	"klasboek/internal/domain/redaction"
	"klasboek/internal/ports"
)

// fakeEventRepo keeps rows in memory with the same conditional-update
// semantics as the sqlite adapter.
type fakeEventRepo struct {
	nextID uint64
	rows   map[uint64]*classevent.Row

	insertErr  error
	updateErr  error
	summaryErr error
}

func newFakeEventRepo() *fakeEventRepo {
	return &fakeEventRepo{rows: map[uint64]*classevent.Row{}}
}

var _ ports.ClassEventRepository = (*fakeEventRepo)(nil)

func (f *fakeEventRepo) InsertEvent(_ context.Context, record classevent.InsertRecord) (uint64, error) {
	if f.insertErr != nil {
		return 0, f.insertErr
	}

	f.nextID++
	status := classevent.NotificationStatusPending
	if record.NotificationStatus != nil {
		status = *record.NotificationStatus
	}
	f.rows[f.nextID] = &classevent.Row{
		EventID:            f.nextID,
		EventType:          record.EventType,
		EntityType:         record.EntityType,
		EntityID:           record.EntityID,
		UserID:             record.UserID,
		EventData:          record.EventData,
		NotificationStatus: status,
		CreatedAt:          record.CreatedAt.UTC().Format("2006-01-02T15:04:05.000000000Z07:00"),
	}
	return f.nextID, nil
}

func (f *fakeEventRepo) GetEvent(_ context.Context, eventID uint64) (classevent.ClassEvent, error) {
	row, ok := f.rows[eventID]
	if !ok {
		return classevent.ClassEvent{}, ports.ErrEventNotFound
	}
	return classevent.FromRow(*row)
}

func (f *fakeEventRepo) FindPendingForProcessing(_ context.Context, limit int) ([]classevent.ClassEvent, error) {
	var pending []*classevent.Row
	for _, row := range f.rows {
		if row.NotificationStatus == classevent.NotificationStatusPending {
			pending = append(pending, row)
		}
	}
	sort.Slice(pending, func(i, j int) bool {
		if pending[i].CreatedAt != pending[j].CreatedAt {
			return pending[i].CreatedAt < pending[j].CreatedAt
		}
		return pending[i].EventID < pending[j].EventID
	})
	if limit > 0 && len(pending) > limit {
		pending = pending[:limit]
	}

	items := make([]classevent.ClassEvent, 0, len(pending))
	for _, row := range pending {
		event, err := classevent.FromRow(*row)
		if err != nil {
			return nil, err
		}
		items = append(items, event)
	}
	return items, nil
}

func (f *fakeEventRepo) ClaimPending(_ context.Context, eventID uint64) (bool, error) {
	row, ok := f.rows[eventID]
	if !ok || row.NotificationStatus != classevent.NotificationStatusPending {
		return false, nil
	}
	row.NotificationStatus = classevent.NotificationStatusProcessing
	return true, nil
}

func (f *fakeEventRepo) FindByEntity(_ context.Context, entityType string, entityID uint64, limit int) ([]classevent.ClassEvent, error) {
	var matched []*classevent.Row
	for _, row := range f.rows {
		if row.EntityType == entityType && row.EntityID == entityID {
			matched = append(matched, row)
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		if matched[i].CreatedAt != matched[j].CreatedAt {
			return matched[i].CreatedAt > matched[j].CreatedAt
		}
		return matched[i].EventID > matched[j].EventID
	})
	if limit > 0 && len(matched) > limit {
		matched = matched[:limit]
	}

	items := make([]classevent.ClassEvent, 0, len(matched))
	for _, row := range matched {
		event, err := classevent.FromRow(*row)
		if err != nil {
			return nil, err
		}
		items = append(items, event)
	}
	return items, nil
}

func (f *fakeEventRepo) GetTimeline(_ context.Context, limit int, afterID uint64) ([]classevent.ClassEvent, error) {
	var cursor *classevent.Row
	if afterID > 0 {
		row, ok := f.rows[afterID]
		if !ok {
			return nil, ports.ErrEventNotFound
		}
		cursor = row
	}

	var matched []*classevent.Row
	for _, row := range f.rows {
		if cursor != nil {
			before := row.CreatedAt < cursor.CreatedAt ||
				(row.CreatedAt == cursor.CreatedAt && row.EventID < cursor.EventID)
			if !before {
				continue
			}
		}
		matched = append(matched, row)
	}
	sort.Slice(matched, func(i, j int) bool {
		if matched[i].CreatedAt != matched[j].CreatedAt {
			return matched[i].CreatedAt > matched[j].CreatedAt
		}
		return matched[i].EventID > matched[j].EventID
	})
	if limit > 0 && len(matched) > limit {
		matched = matched[:limit]
	}

	items := make([]classevent.ClassEvent, 0, len(matched))
	for _, row := range matched {
		event, err := classevent.FromRow(*row)
		if err != nil {
			return nil, err
		}
		items = append(items, event)
	}
	return items, nil
}

func (f *fakeEventRepo) UpdateStatus(_ context.Context, eventID uint64, status string) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	if row, ok := f.rows[eventID]; ok {
		row.NotificationStatus = status
	}
	return nil
}

func (f *fakeEventRepo) UpdateAISummary(_ context.Context, eventID uint64, summaryJSON string, enrichedAt time.Time) error {
	if f.summaryErr != nil {
		return f.summaryErr
	}
	if f.updateErr != nil {
		return f.updateErr
	}
	if row, ok := f.rows[eventID]; ok {
		row.AISummary = &summaryJSON
		formatted := enrichedAt.UTC().Format(time.RFC3339Nano)
		row.EnrichedAt = &formatted
		row.NotificationStatus = classevent.NotificationStatusEnriched
	}
	return nil
}

func (f *fakeEventRepo) RecordEnrichmentFailure(_ context.Context, eventID uint64, summaryJSON string, status string) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	if row, ok := f.rows[eventID]; ok {
		row.AISummary = &summaryJSON
		row.NotificationStatus = status
	}
	return nil
}

func (f *fakeEventRepo) MarkSent(_ context.Context, eventID uint64, at time.Time) error {
	if row, ok := f.rows[eventID]; ok {
		formatted := at.UTC().Format(time.RFC3339Nano)
		row.SentAt = &formatted
		row.NotificationStatus = classevent.NotificationStatusSent
	}
	return nil
}

func (f *fakeEventRepo) MarkViewed(_ context.Context, eventID uint64, at time.Time) (bool, error) {
	row, ok := f.rows[eventID]
	if !ok || row.ViewedAt != nil {
		return false, nil
	}
	formatted := at.UTC().Format(time.RFC3339Nano)
	row.ViewedAt = &formatted
	return true, nil
}

func (f *fakeEventRepo) MarkAcknowledged(_ context.Context, eventID uint64, at time.Time) (bool, error) {
	row, ok := f.rows[eventID]
	if !ok || row.AcknowledgedAt != nil {
		return false, nil
	}
	formatted := at.UTC().Format(time.RFC3339Nano)
	row.AcknowledgedAt = &formatted
	return true, nil
}

func (f *fakeEventRepo) GetUnreadCount(_ context.Context) int64 {
	var count int64
	for _, row := range f.rows {
		if row.ViewedAt == nil {
			count++
		}
	}
	return count
}

type summarizeCall struct {
	emailContext redaction.EmailContext
	eventLabel   string
}

// fakeSummarizer scripts one response per call, repeating the last entry.
type fakeSummarizer struct {
	outputs []ports.SummaryOutput
	errs    []error
	calls   []summarizeCall
}

var _ ports.Summarizer = (*fakeSummarizer)(nil)

func (f *fakeSummarizer) Summarize(_ context.Context, emailContext redaction.EmailContext, eventLabel string) (ports.SummaryOutput, error) {
	f.calls = append(f.calls, summarizeCall{emailContext: emailContext, eventLabel: eventLabel})

	index := len(f.calls) - 1
	if index >= len(f.errs) {
		index = len(f.errs) - 1
	}
	if index >= 0 && f.errs[index] != nil {
		return ports.SummaryOutput{}, f.errs[index]
	}
	if len(f.outputs) == 0 {
		return ports.SummaryOutput{}, fmt.Errorf("fake summarizer has no scripted output")
	}
	outIndex := len(f.calls) - 1
	if outIndex >= len(f.outputs) {
		outIndex = len(f.outputs) - 1
	}
	return f.outputs[outIndex], nil
}

// fakeUnitOfWork runs the callback without a transaction.
type fakeUnitOfWork struct{}

var _ ports.UnitOfWork = fakeUnitOfWork{}

func (fakeUnitOfWork) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type fakeCache struct {
	entries map[string]string
}

func newFakeCache() *fakeCache {
	return &fakeCache{entries: map[string]string{}}
}

var _ ports.Cache = (*fakeCache)(nil)

func (f *fakeCache) Get(_ context.Context, key string) (string, bool, error) {
	value, ok := f.entries[key]
	return value, ok, nil
}

func (f *fakeCache) Set(_ context.Context, key string, value string, _ time.Duration) error {
	f.entries[key] = value
	return nil
}

func (f *fakeCache) Delete(_ context.Context, key string) error {
	delete(f.entries, key)
	return nil
}

func newTestService(repo ports.ClassEventRepository, summarizer ports.Summarizer, cache ports.Cache) *Service {
	svc := NewService(repo, fakeUnitOfWork{}, cache, summarizer)
	svc.now = func() time.Time { return time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC) }
	return svc
}
