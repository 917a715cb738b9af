package domain

import "time"

// DayFormat is the calendar-day key layout for DailyActivity rows.
const DayFormat = "2006-01-02"

// DailyActivity is the per (user, calendar day) aggregate of import pipeline
// activity. One row per day per user, upserted with increments, never reset
// or deleted.
type DailyActivity struct {
	ID           string    `json:"id" gorm:"primaryKey"`
	UserID       string    `json:"user_id" gorm:"uniqueIndex:idx_user_day;not null"`
	Day          string    `json:"day" gorm:"uniqueIndex:idx_user_day;not null"` // YYYY-MM-DD
	Processed    int       `json:"processed"`
	Archived     int       `json:"archived"`
	Deleted      int       `json:"deleted"`
	MinutesSaved int       `json:"minutes_saved"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// TableName specifies the table name for GORM
func (DailyActivity) TableName() string {
	return "daily_activities"
}
