package domain

import "time"

// Category is a user-defined mail category. The description is free text and
// is fed to the AI analyzer as classification guidance.
type Category struct {
	ID          string    `json:"id" gorm:"primaryKey"`
	UserID      string    `json:"user_id" gorm:"index:idx_user_category;not null"`
	Name        string    `json:"name" gorm:"index:idx_user_category;not null"`
	Description string    `json:"description" gorm:"type:text"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// TableName specifies the table name for GORM
func (Category) TableName() string {
	return "categories"
}
