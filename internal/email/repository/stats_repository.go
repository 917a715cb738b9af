package repository

import (
	"mailtriage-backend/internal/email/domain"

	"gorm.io/gorm"
)

// CategoryCount is one row of the per-category breakdown.
type CategoryCount struct {
	CategoryID   string
	CategoryName string
	Count        int64
}

type StatsRepository interface {
	CountPerCategory(userID string) ([]CategoryCount, error)
}

type statsRepository struct {
	db *gorm.DB
}

func NewStatsRepository(db *gorm.DB) StatsRepository {
	return &statsRepository{db: db}
}

func (r *statsRepository) CountPerCategory(userID string) ([]CategoryCount, error) {
	var counts []CategoryCount
	err := r.db.Model(&domain.Message{}).
		Select("messages.category_id as category_id, categories.name as category_name, COUNT(*) as count").
		Joins("LEFT JOIN categories ON categories.id = messages.category_id").
		Where("messages.user_id = ? AND messages.deleted = ? AND messages.category_id IS NOT NULL", userID, false).
		Group("messages.category_id, categories.name").
		Order("count DESC").
		Scan(&counts).Error
	if err != nil {
		return nil, err
	}
	return counts, nil
}
