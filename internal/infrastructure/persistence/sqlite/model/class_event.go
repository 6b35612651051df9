package model

type ClassEvent struct {
	EventID            uint64  `gorm:"column:event_id;primaryKey;autoIncrement"`
	EventType          string  `gorm:"column:event_type;type:text;not null;index"`
	EntityType         string  `gorm:"column:entity_type;type:text;not null;index:idx_class_events_entity"`
	EntityID           uint64  `gorm:"column:entity_id;not null;index:idx_class_events_entity"`
	UserID             *uint64 `gorm:"column:user_id"`
	EventData          string  `gorm:"column:event_data;type:text;not null"`
	AISummary          *string `gorm:"column:ai_summary;type:text"`
	NotificationStatus string  `gorm:"column:notification_status;type:text;not null;default:pending;index"`
	CreatedAt          string  `gorm:"column:created_at;type:text;not null;index"`
	EnrichedAt         *string `gorm:"column:enriched_at;type:text"`
	SentAt             *string `gorm:"column:sent_at;type:text"`
	ViewedAt           *string `gorm:"column:viewed_at;type:text;index"`
	AcknowledgedAt     *string `gorm:"column:acknowledged_at;type:text"`
}

func (ClassEvent) TableName() string {
	return "class_events"
}
