package domain

import "time"

// SenderDigest is the running per-sender aggregate for a user. Rows are
// created on the first message from a sender and incremented on every
// subsequent one; the import path never deletes them. Increments happen as
// atomic upserts at the storage layer so that concurrent items from the same
// sender within one batch cannot lose updates.
type SenderDigest struct {
	ID           string    `json:"id" gorm:"primaryKey"`
	UserID       string    `json:"user_id" gorm:"uniqueIndex:idx_user_sender;not null"`
	Sender       string    `json:"sender" gorm:"uniqueIndex:idx_user_sender;not null"`
	DisplayName  string    `json:"display_name,omitempty"`
	MessageCount int64     `json:"message_count"`
	LastSeenAt   time.Time `json:"last_seen_at"`
	Summary      string    `json:"summary,omitempty" gorm:"type:text"` // cached narrative summary
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// TableName specifies the table name for GORM
func (SenderDigest) TableName() string {
	return "sender_digests"
}
