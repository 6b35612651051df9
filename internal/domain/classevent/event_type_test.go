package classevent

import (
	"errors"
	"testing"
)

func TestParseEventTypeKnownKinds(t *testing.T) {
	for _, kind := range AllEventTypes() {
		parsed, err := ParseEventType(string(kind))
		if err != nil {
			t.Fatalf("ParseEventType(%q) error = %v", kind, err)
		}
		if parsed != kind {
			t.Fatalf("ParseEventType(%q) = %q", kind, parsed)
		}
	}
}

func TestParseEventTypeRejectsUnknown(t *testing.T) {
	_, err := ParseEventType("schedule_update")
	if !errors.Is(err, ErrUnknownEventType) {
		t.Fatalf("ParseEventType() error = %v, want ErrUnknownEventType", err)
	}
}

func TestParseEventTypeRejectsEmpty(t *testing.T) {
	for _, input := range []string{"", "   "} {
		_, err := ParseEventType(input)
		if !errors.Is(err, ErrEventTypeRequired) {
			t.Fatalf("ParseEventType(%q) error = %v, want ErrEventTypeRequired", input, err)
		}
	}
}

func TestEveryEventTypeHasLabelAndPriority(t *testing.T) {
	// Size check first: a kind present in the maps but missing from
	// AllEventTypes would slip past the per-kind loop below.
	if len(AllEventTypes()) != len(eventTypeLabels) || len(AllEventTypes()) != len(eventTypePriorities) {
		t.Fatalf("table sizes diverge: all=%d labels=%d priorities=%d",
			len(AllEventTypes()), len(eventTypeLabels), len(eventTypePriorities))
	}
	for _, kind := range AllEventTypes() {
		if kind.Label() == "" {
			t.Fatalf("event type %q has no label", kind)
		}
		if kind.Priority() == 0 {
			t.Fatalf("event type %q has no priority", kind)
		}
	}
}

func TestCollisionIsMostUrgent(t *testing.T) {
	for _, kind := range AllEventTypes() {
		if kind == EventTypeLearningPathCollision {
			continue
		}
		if kind.Priority() <= EventTypeLearningPathCollision.Priority() {
			t.Fatalf("event type %q priority %d not below collision", kind, kind.Priority())
		}
	}
}
