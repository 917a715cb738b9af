package repository

import (
	"time"

	"mailtriage-backend/internal/email/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ActivityDelta is one increment against a user's daily counters.
type ActivityDelta struct {
	Processed    int
	Archived     int
	Deleted      int
	MinutesSaved int
}

type DailyActivityRepository interface {
	// AddActivity upserts the row for (user, day) and adds the deltas
	// atomically in SQL.
	AddActivity(userID, day string, delta ActivityDelta) error
	Range(userID, fromDay, toDay string) ([]*domain.DailyActivity, error)
	Totals(userID string) (*domain.DailyActivity, error)
}

type dailyActivityRepository struct {
	db *gorm.DB
}

func NewDailyActivityRepository(db *gorm.DB) DailyActivityRepository {
	return &dailyActivityRepository{db: db}
}

func (r *dailyActivityRepository) AddActivity(userID, day string, delta ActivityDelta) error {
	activity := &domain.DailyActivity{
		ID:           uuid.New().String(),
		UserID:       userID,
		Day:          day,
		Processed:    delta.Processed,
		Archived:     delta.Archived,
		Deleted:      delta.Deleted,
		MinutesSaved: delta.MinutesSaved,
	}

	return r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}, {Name: "day"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"processed":     gorm.Expr("daily_activities.processed + ?", delta.Processed),
			"archived":      gorm.Expr("daily_activities.archived + ?", delta.Archived),
			"deleted":       gorm.Expr("daily_activities.deleted + ?", delta.Deleted),
			"minutes_saved": gorm.Expr("daily_activities.minutes_saved + ?", delta.MinutesSaved),
			"updated_at":    time.Now(),
		}),
	}).Create(activity).Error
}

func (r *dailyActivityRepository) Range(userID, fromDay, toDay string) ([]*domain.DailyActivity, error) {
	var activities []*domain.DailyActivity
	err := r.db.Where("user_id = ? AND day >= ? AND day <= ?", userID, fromDay, toDay).
		Order("day ASC").
		Find(&activities).Error
	if err != nil {
		return nil, err
	}
	return activities, nil
}

func (r *dailyActivityRepository) Totals(userID string) (*domain.DailyActivity, error) {
	var totals domain.DailyActivity
	err := r.db.Model(&domain.DailyActivity{}).
		Select("COALESCE(SUM(processed), 0) as processed, COALESCE(SUM(archived), 0) as archived, COALESCE(SUM(deleted), 0) as deleted, COALESCE(SUM(minutes_saved), 0) as minutes_saved").
		Where("user_id = ?", userID).
		Scan(&totals).Error
	if err != nil {
		return nil, err
	}
	return &totals, nil
}
