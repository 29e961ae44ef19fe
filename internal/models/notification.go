package models

import (
	"encoding/json"
	"time"
)

// Notification is one entry in a user's durable feed (PostgreSQL).
// Seq is allocated per recipient, strictly increasing and gap-free; it is a
// stored column, never derived at read time, so backfill queries are a plain
// range scan.
type Notification struct {
	ID          uint            `json:"id" gorm:"primaryKey"`
	RecipientID uint            `json:"recipient_id" gorm:"index;uniqueIndex:uq_recipient_seq,priority:1"`
	Seq         uint64          `json:"seq" gorm:"uniqueIndex:uq_recipient_seq,priority:2"`
	Type        EventType       `json:"type" gorm:"size:30"`
	Payload     json.RawMessage `json:"data" gorm:"type:text"`
	Message     string          `json:"message" gorm:"type:text"`
	IsRead      bool            `json:"is_read" gorm:"default:false;index"`
	CreatedAt   time.Time       `json:"created_at"`
}

// NotificationSequence is the per-user monotonic counter backing Seq.
// Incrementing the row inside the same transaction that inserts the
// notification serializes allocation per user without a global lock.
type NotificationSequence struct {
	UserID  uint   `gorm:"primaryKey"`
	LastSeq uint64 `gorm:"not null;default:0"`
}
