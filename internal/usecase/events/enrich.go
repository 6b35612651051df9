package events

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"klasboek/internal/bootstrap/logging"
	"klasboek/internal/domain/classevent"
	"klasboek/internal/domain/enrichment"
	"klasboek/internal/domain/redaction"
	"klasboek/internal/errs"
	"klasboek/internal/ports"
)

const lastRunCacheKey = "enrichment:last_run"

type ProcessPendingInput struct {
	Limit       int
	ProfileFile string
}

type EventOutcome struct {
	EventID uint64
	Result  enrichment.SummaryResult
}

type ProcessPendingResult struct {
	RunID     string
	Claimed   int
	Succeeded int
	Failed    int
	Outcomes  []EventOutcome
}

// ProcessPending runs one enrichment pass: read the pending queue oldest
// first, claim each event, redact its payloads and ask the summarizer for
// prose. Events are processed sequentially; the alias registry only holds
// within one event's three passes and no state is shared across events.
func (s *Service) ProcessPending(ctx context.Context, input ProcessPendingInput) (ProcessPendingResult, error) {
	if ctx == nil {
		return ProcessPendingResult{}, errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return ProcessPendingResult{}, errs.Wrap(err, "check context")
	}
	if s.repo == nil {
		return ProcessPendingResult{}, errors.New("class event repository is required")
	}
	if s.summarizer == nil {
		return ProcessPendingResult{}, errors.New("summarizer is required")
	}

	profile, err := loadEnrichmentProfile(input.ProfileFile)
	if err != nil {
		return ProcessPendingResult{}, errs.Wrap(err, "load enrichment profile")
	}

	result := ProcessPendingResult{RunID: uuid.NewString()}
	runCtx := logging.WithAttrs(ctx, slog.String("run_id", result.RunID))

	pending, err := s.repo.FindPendingForProcessing(runCtx, input.Limit)
	if err != nil {
		return ProcessPendingResult{}, errs.Wrap(err, "read pending queue")
	}

	for _, event := range pending {
		eventID := event.EventID()
		if eventID == nil {
			continue
		}

		claimed, err := s.repo.ClaimPending(runCtx, *eventID)
		if err != nil {
			return result, errs.Wrapf(err, "claim event %d", *eventID)
		}
		if !claimed {
			// Another worker got there first.
			continue
		}
		result.Claimed++

		outcome := s.enrichOne(runCtx, event, profile)
		result.Outcomes = append(result.Outcomes, EventOutcome{EventID: *eventID, Result: outcome})
		if outcome.IsSuccess() {
			result.Succeeded++
		} else {
			result.Failed++
		}
	}

	s.storeLastRun(runCtx, result)
	return result, nil
}

// enrichOne performs one generation attempt. Failures are captured as data,
// never returned as errors: a failed AI call is an expected outcome.
func (s *Service) enrichOne(ctx context.Context, event classevent.ClassEvent, profile enrichmentProfile) enrichment.SummaryResult {
	eventID := event.EventID()
	logCtx := logging.WithAttrs(ctx, slog.Uint64("event_id", *eventID))

	emailContext := buildEmailContext(event)
	record := currentRecord(event).BeginAttempt()

	attemptCtx, cancel := context.WithTimeout(ctx, profile.timeout())
	defer cancel()

	startedAt := s.now()
	output, err := s.summarizer.Summarize(attemptCtx, emailContext, event.EventType().Label())
	elapsed := s.now().Sub(startedAt)

	if err != nil {
		return s.recordFailure(logCtx, *eventID, record, emailContext, err, profile.Summarizer.MaxAttempts)
	}

	record = record.Succeed(output.Summary, output.Model, output.TokensUsed, elapsed, s.now())
	payload, marshalErr := record.ToJSON()
	if marshalErr != nil {
		return s.recordFailure(logCtx, *eventID, record, emailContext, marshalErr, profile.Summarizer.MaxAttempts)
	}

	if err := s.repo.UpdateAISummary(logCtx, *eventID, payload, s.now()); err != nil {
		// The claim set the event to processing; record the failure so it
		// routes back to pending instead of staying claimed forever.
		logging.Error(logCtx, "store enriched summary failed", slog.Any("err", errs.Loggable(err)))
		return s.recordFailure(logCtx, *eventID, record, emailContext, err, profile.Summarizer.MaxAttempts)
	}

	logging.Info(logCtx, "event enriched",
		slog.Int("attempts", record.Attempts),
		slog.Int("tokens_used", record.TokensUsed),
		slog.Int64("processing_time_ms", record.ProcessingTimeMs),
	)
	return enrichment.SuccessResult(record, emailContext)
}

// recordFailure classifies the attempt: below max attempts the event returns
// to the pending queue, at max it parks as failed and automatic retry stops.
// The per-attempt result is always failed, a timeout included; an attempt is
// never left unrecorded.
func (s *Service) recordFailure(ctx context.Context, eventID uint64, record enrichment.Record, emailContext redaction.EmailContext, cause error, maxAttempts int) enrichment.SummaryResult {
	code, message := classifyFailure(cause)
	record = record.Fail(code, message)

	recordStatus := enrichment.RecordStatusPending
	storeStatus := classevent.NotificationStatusPending
	if record.Attempts >= maxAttempts {
		recordStatus = enrichment.RecordStatusFailed
		storeStatus = classevent.NotificationStatusFailed
	}
	record = record.WithStatus(recordStatus)

	payload, err := record.ToJSON()
	if err == nil {
		if storeErr := s.repo.RecordEnrichmentFailure(ctx, eventID, payload, storeStatus); storeErr != nil {
			logging.Error(ctx, "store enrichment failure failed", slog.Any("err", errs.Loggable(storeErr)))
		}
	}

	logging.Warn(ctx, "event enrichment attempt failed",
		slog.String("error_code", code),
		slog.Int("attempts", record.Attempts),
		slog.String("record_status", string(recordStatus)),
	)
	return enrichment.FailedResult(record, emailContext)
}

func classifyFailure(cause error) (string, string) {
	var typed *ports.SummarizerError
	if errors.As(cause, &typed) {
		return typed.Code, typed.Message
	}
	if errors.Is(cause, context.DeadlineExceeded) {
		return ports.SummarizerErrTimeout, cause.Error()
	}
	return ports.SummarizerErrAPIError, cause.Error()
}

// buildEmailContext runs the three redaction passes in canonical order (new
// row, diff, old row) threading one alias registry through them, so one
// identifier maps to one alias in every payload. The passes must stay
// sequential; only whole events may be parallelized.
func buildEmailContext(event classevent.ClassEvent) redaction.EmailContext {
	data := event.EventData()
	registry := redaction.NewAliasRegistry()
	obfuscator := redaction.NewObfuscator()

	newRowResult := obfuscator.Redact(payloadSection(data, "new_row"), registry)
	diffResult := obfuscator.Redact(payloadSection(data, "diff"), registry)
	oldRowResult := obfuscator.Redact(payloadSection(data, "old_row"), registry)

	return redaction.ObfuscatedDataFromResults(newRowResult, diffResult, oldRowResult).ToEmailContext()
}

func payloadSection(data map[string]any, key string) map[string]any {
	if data == nil {
		return nil
	}
	section, _ := data[key].(map[string]any)
	return section
}

func currentRecord(event classevent.ClassEvent) enrichment.Record {
	summary := event.AISummary()
	if summary == nil {
		return enrichment.NewRecord()
	}

	raw, err := json.Marshal(summary)
	if err != nil {
		return enrichment.NewRecord()
	}
	return enrichment.RecordFromJSON(string(raw))
}

func (s *Service) storeLastRun(ctx context.Context, result ProcessPendingResult) {
	if s.cache == nil {
		return
	}

	payload, err := json.Marshal(map[string]any{
		"run_id":    result.RunID,
		"ran_at":    s.now().Format(time.RFC3339Nano),
		"claimed":   result.Claimed,
		"succeeded": result.Succeeded,
		"failed":    result.Failed,
	})
	if err != nil {
		return
	}

	if err := s.cache.Set(ctx, lastRunCacheKey, string(payload), 0); err != nil {
		logging.Warn(ctx, "store last enrichment run failed", slog.Any("err", errs.Loggable(err)))
	}
}

// LastRun returns the bookkeeping of the most recent enrichment pass, empty
// when none ran yet.
func (s *Service) LastRun(ctx context.Context) (string, bool, error) {
	if ctx == nil {
		return "", false, errors.New("context is required")
	}
	if s.cache == nil {
		return "", false, nil
	}
	return s.cache.Get(ctx, lastRunCacheKey)
}
