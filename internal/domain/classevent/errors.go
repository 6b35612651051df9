package classevent

import "errors"

var (
	ErrEventTypeRequired = errors.New("event type is required")
	ErrUnknownEventType  = errors.New("unknown event type")

	ErrEntityTypeInvalid = errors.New("entity type must be class or learner")
	ErrEventAlreadyHasID = errors.New("event id is already assigned")
	ErrEventIDRequired   = errors.New("event id is required")
)
