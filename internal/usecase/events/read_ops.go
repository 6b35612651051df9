package events

import (
	"context"
	"errors"

	"klasboek/internal/errs"
)

// Timeline returns the newest events first; afterID is a keyset cursor, 0
// for the first page.
func (s *Service) Timeline(ctx context.Context, limit int, afterID uint64) ([]EventItem, error) {
	if ctx == nil {
		return nil, errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return nil, errs.Wrap(err, "check context")
	}
	if s.repo == nil {
		return nil, errors.New("class event repository is required")
	}

	items, err := s.repo.GetTimeline(ctx, limit, afterID)
	if err != nil {
		return nil, err
	}
	return toEventItems(items), nil
}

// ByEntity returns the newest events for one class or learner.
func (s *Service) ByEntity(ctx context.Context, entityType string, entityID uint64, limit int) ([]EventItem, error) {
	if ctx == nil {
		return nil, errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return nil, errs.Wrap(err, "check context")
	}
	if s.repo == nil {
		return nil, errors.New("class event repository is required")
	}

	items, err := s.repo.FindByEntity(ctx, entityType, entityID, limit)
	if err != nil {
		return nil, err
	}
	return toEventItems(items), nil
}

// Show returns the full flat map for one event, ai_summary included.
func (s *Service) Show(ctx context.Context, eventID uint64) (map[string]any, error) {
	if ctx == nil {
		return nil, errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return nil, errs.Wrap(err, "check context")
	}
	if s.repo == nil {
		return nil, errors.New("class event repository is required")
	}

	event, err := s.repo.GetEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}
	return event.ToMap(), nil
}

// UnreadCount is advisory and never fails; the repository degrades to 0.
func (s *Service) UnreadCount(ctx context.Context) int64 {
	if ctx == nil || s.repo == nil {
		return 0
	}
	return s.repo.GetUnreadCount(ctx)
}
