package classevent

import (
	"fmt"
	"strings"
)

// EventType is the closed set of change-event kinds the platform records.
type EventType string

const (
	EventTypeClassInsert           EventType = "class_insert"
	EventTypeClassUpdate           EventType = "class_update"
	EventTypeLearningPathCollision EventType = "learning_path_collision"
	EventTypeMaterialDelivery      EventType = "material_delivery"
)

var eventTypeLabels = map[EventType]string{
	EventTypeClassInsert:           "Class created",
	EventTypeClassUpdate:           "Class updated",
	EventTypeLearningPathCollision: "Learning path collision",
	EventTypeMaterialDelivery:      "Material delivery",
}

// Lower value means more urgent.
var eventTypePriorities = map[EventType]int{
	EventTypeLearningPathCollision: 1,
	EventTypeClassUpdate:           2,
	EventTypeClassInsert:           3,
	EventTypeMaterialDelivery:      4,
}

// AllEventTypes returns every known kind in ascending priority order.
func AllEventTypes() []EventType {
	return []EventType{
		EventTypeLearningPathCollision,
		EventTypeClassUpdate,
		EventTypeClassInsert,
		EventTypeMaterialDelivery,
	}
}

// ParseEventType rejects anything outside the closed set. An unknown kind is
// a data-contract violation, never coerced to a default.
func ParseEventType(value string) (EventType, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return "", ErrEventTypeRequired
	}

	candidate := EventType(trimmed)
	if _, ok := eventTypeLabels[candidate]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownEventType, value)
	}
	return candidate, nil
}

func (t EventType) Label() string {
	return eventTypeLabels[t]
}

func (t EventType) Priority() int {
	return eventTypePriorities[t]
}

func (t EventType) String() string {
	return string(t)
}
