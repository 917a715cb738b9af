package repository

import (
	"time"

	authdomain "mailtriage-backend/internal/auth/domain"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DeviceTokenRepository manages FCM device registration tokens.
type DeviceTokenRepository interface {
	Save(userID, token string) error
	GetTokensByUserID(userID string) ([]string, error)
	Delete(token string) error
}

type deviceTokenRepository struct {
	db *gorm.DB
}

func NewDeviceTokenRepository(db *gorm.DB) DeviceTokenRepository {
	return &deviceTokenRepository{db: db}
}

func (r *deviceTokenRepository) Save(userID, token string) error {
	record := &authdomain.DeviceToken{
		Token:     token,
		UserID:    userID,
		CreatedAt: time.Now(),
	}
	// Re-registering an existing token just refreshes ownership.
	return r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "token"}},
		DoUpdates: clause.AssignmentColumns([]string{"user_id", "created_at"}),
	}).Create(record).Error
}

func (r *deviceTokenRepository) GetTokensByUserID(userID string) ([]string, error) {
	var tokens []string
	err := r.db.Model(&authdomain.DeviceToken{}).
		Where("user_id = ?", userID).
		Pluck("token", &tokens).Error
	return tokens, err
}

func (r *deviceTokenRepository) Delete(token string) error {
	return r.db.Where("token = ?", token).Delete(&authdomain.DeviceToken{}).Error
}
