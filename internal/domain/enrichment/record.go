package enrichment

import (
	"encoding/json"
	"strings"
	"time"
)

// RecordStatus classifies one event's generation outcome. A pending failure
// is retryable; a failed one is exhausted and must not be retried.
type RecordStatus string

const (
	RecordStatusPending RecordStatus = "pending"
	RecordStatusSuccess RecordStatus = "success"
	RecordStatusFailed  RecordStatus = "failed"
)

// Record is the per-event generation attempt history stored as the event's
// ai_summary payload. Attempts only ever increase; a success clears any prior
// error; a failure records error data and leaves classification to the
// calling service, which owns the max-attempts policy.
type Record struct {
	Summary          *string      `json:"summary"`
	Status           RecordStatus `json:"status"`
	ErrorCode        *string      `json:"error_code"`
	ErrorMessage     *string      `json:"error_message"`
	Attempts         int          `json:"attempts"`
	Viewed           bool         `json:"viewed"`
	ViewedAt         *time.Time   `json:"viewed_at"`
	GeneratedAt      *time.Time   `json:"generated_at"`
	Model            string       `json:"model"`
	TokensUsed       int          `json:"tokens_used"`
	ProcessingTimeMs int64        `json:"processing_time_ms"`
}

func NewRecord() Record {
	return Record{Status: RecordStatusPending}
}

// BeginAttempt increments the monotonic attempt counter.
func (r Record) BeginAttempt() Record {
	next := r
	next.Attempts++
	return next
}

// Succeed stores the generated summary and clears any prior error.
func (r Record) Succeed(summary string, model string, tokensUsed int, elapsed time.Duration, at time.Time) Record {
	next := r
	next.Summary = &summary
	next.Status = RecordStatusSuccess
	next.ErrorCode = nil
	next.ErrorMessage = nil
	generatedAt := at.UTC()
	next.GeneratedAt = &generatedAt
	next.Model = model
	next.TokensUsed = tokensUsed
	next.ProcessingTimeMs = elapsed.Milliseconds()
	return next
}

// Fail records structured error data. The status stays whatever the caller
// classifies it to afterwards (WithStatus): pending keeps the event
// retryable, failed stops automatic retry.
func (r Record) Fail(code string, message string) Record {
	next := r
	next.ErrorCode = &code
	next.ErrorMessage = &message
	return next
}

func (r Record) WithStatus(status RecordStatus) Record {
	next := r
	next.Status = status
	return next
}

// MarkViewed always overwrites; repeat-call idempotency is enforced one
// layer down by the repository's conditional update.
func (r Record) MarkViewed(at time.Time) Record {
	next := r
	next.Viewed = true
	viewedAt := at.UTC()
	next.ViewedAt = &viewedAt
	return next
}

func (r Record) ToJSON() (string, error) {
	raw, err := json.Marshal(r)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

// RecordFromJSON parses defensively: a corrupt or absent payload yields a
// fresh pending record rather than an error, so retry bookkeeping can always
// continue.
func RecordFromJSON(raw string) Record {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return NewRecord()
	}

	var record Record
	if err := json.Unmarshal([]byte(trimmed), &record); err != nil {
		return NewRecord()
	}
	if record.Status == "" {
		record.Status = RecordStatusPending
	}
	return record
}
