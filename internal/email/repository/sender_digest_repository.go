package repository

import (
	"time"

	"mailtriage-backend/internal/email/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type SenderDigestRepository interface {
	// RecordMessage bumps the per-sender counter for one imported message.
	// The increment is done in SQL so concurrent enrichment goroutines
	// cannot lose updates.
	RecordMessage(userID, sender, displayName string, seenAt time.Time) error
	TopSenders(userID string, limit int) ([]*domain.SenderDigest, error)
}

type senderDigestRepository struct {
	db *gorm.DB
}

func NewSenderDigestRepository(db *gorm.DB) SenderDigestRepository {
	return &senderDigestRepository{db: db}
}

func (r *senderDigestRepository) RecordMessage(userID, sender, displayName string, seenAt time.Time) error {
	digest := &domain.SenderDigest{
		ID:           uuid.New().String(),
		UserID:       userID,
		Sender:       sender,
		DisplayName:  displayName,
		MessageCount: 1,
		LastSeenAt:   seenAt,
	}

	return r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}, {Name: "sender"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"message_count": gorm.Expr("sender_digests.message_count + 1"),
			"display_name":  displayName,
			"last_seen_at":  seenAt,
			"updated_at":    time.Now(),
		}),
	}).Create(digest).Error
}

func (r *senderDigestRepository) TopSenders(userID string, limit int) ([]*domain.SenderDigest, error) {
	if limit <= 0 {
		limit = 10
	}
	var digests []*domain.SenderDigest
	err := r.db.Where("user_id = ?", userID).
		Order("message_count DESC").
		Limit(limit).
		Find(&digests).Error
	if err != nil {
		return nil, err
	}
	return digests, nil
}
