package enrichment

import "klasboek/internal/domain/redaction"

// SummaryResult wraps one enrichment attempt's outcome: the retry record,
// the anonymized context that was (or would have been) shipped, and a status
// mirror callers branch on. Discarding a failed result silently is a defect.
type SummaryResult struct {
	Record  Record
	Context redaction.EmailContext
	Status  RecordStatus
}

func SuccessResult(record Record, context redaction.EmailContext) SummaryResult {
	return SummaryResult{Record: record, Context: context, Status: RecordStatusSuccess}
}

func FailedResult(record Record, context redaction.EmailContext) SummaryResult {
	return SummaryResult{Record: record, Context: context, Status: RecordStatusFailed}
}

func PendingResult(record Record, context redaction.EmailContext) SummaryResult {
	return SummaryResult{Record: record, Context: context, Status: RecordStatusPending}
}

func (r SummaryResult) IsSuccess() bool { return r.Status == RecordStatusSuccess }
func (r SummaryResult) IsFailed() bool  { return r.Status == RecordStatusFailed }
func (r SummaryResult) IsPending() bool { return r.Status == RecordStatusPending }
