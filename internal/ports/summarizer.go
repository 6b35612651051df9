package ports

import (
	"context"
	"fmt"

	"klasboek/internal/domain/redaction"
)

// Summarizer error codes recorded in enrichment records.
const (
	SummarizerErrTimeout       = "timeout"
	SummarizerErrAPIError      = "api_error"
	SummarizerErrEmptyResponse = "empty_response"
)

// SummarizerError is a typed enrichment failure. A failed AI call is an
// expected, retryable outcome, captured as data rather than propagated.
type SummarizerError struct {
	Code    string
	Message string
}

func (e *SummarizerError) Error() string {
	return fmt.Sprintf("summarizer %s: %s", e.Code, e.Message)
}

type SummaryOutput struct {
	Summary    string
	Model      string
	TokensUsed int
}

// Summarizer turns an anonymized event context into a natural-language
// summary. Implementations only ever see the EmailContext shape; raw event
// payloads must not reach this boundary.
type Summarizer interface {
	Summarize(ctx context.Context, emailContext redaction.EmailContext, eventLabel string) (SummaryOutput, error)
}
