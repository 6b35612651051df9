package events

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"klasboek/internal/bootstrap/logging"
	"klasboek/internal/errs"
)

// MarkSent stamps the delivery timestamp after the host environment has
// shipped the notification.
func (s *Service) MarkSent(ctx context.Context, eventID uint64) error {
	if ctx == nil {
		return errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return errs.Wrap(err, "check context")
	}
	if s.repo == nil {
		return errors.New("class event repository is required")
	}
	if eventID == 0 {
		return errors.New("event id is required")
	}

	if err := s.repo.MarkSent(ctx, eventID, s.now()); err != nil {
		return errs.Wrap(err, "mark event sent")
	}

	logging.Info(ctx, "class event marked sent", slog.Uint64("event_id", eventID))
	return nil
}

// MarkViewed is idempotent: the first call stamps viewed_at, any repeat is a
// no-op reported as changed=false.
func (s *Service) MarkViewed(ctx context.Context, eventID uint64) (bool, error) {
	if s.repo == nil {
		return false, errors.New("class event repository is required")
	}
	return s.markConditional(ctx, eventID, "viewed", s.repo.MarkViewed)
}

// MarkAcknowledged is idempotent like MarkViewed. Acknowledgement does not
// require a prior view: events forced straight to sent are acknowledged
// without one.
func (s *Service) MarkAcknowledged(ctx context.Context, eventID uint64) (bool, error) {
	if s.repo == nil {
		return false, errors.New("class event repository is required")
	}
	return s.markConditional(ctx, eventID, "acknowledged", s.repo.MarkAcknowledged)
}

func (s *Service) markConditional(ctx context.Context, eventID uint64, action string, mark func(context.Context, uint64, time.Time) (bool, error)) (bool, error) {
	if ctx == nil {
		return false, errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return false, errs.Wrap(err, "check context")
	}
	if s.repo == nil {
		return false, errors.New("class event repository is required")
	}
	if eventID == 0 {
		return false, errors.New("event id is required")
	}

	changed, err := mark(ctx, eventID, s.now())
	if err != nil {
		return false, errs.Wrapf(err, "mark event %s", action)
	}

	logging.Info(ctx, "class event mark applied",
		slog.Uint64("event_id", eventID),
		slog.String("action", action),
		slog.Bool("changed", changed),
	)
	return changed, nil
}
