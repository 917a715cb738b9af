package domain

import "time"

// DeviceToken is an FCM registration token for one of the user's devices.
type DeviceToken struct {
	Token     string    `json:"token" gorm:"primaryKey"`
	UserID    string    `json:"user_id" gorm:"index;not null"`
	CreatedAt time.Time `json:"created_at"`
}
