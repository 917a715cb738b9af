package domain

import (
	"database/sql/driver"
	"encoding/json"
	"time"
)

// StringArray stores a JSON-encoded string slice in a text column.
type StringArray []string

// Value implements driver.Valuer
func (a StringArray) Value() (driver.Value, error) {
	if len(a) == 0 {
		return "[]", nil
	}
	return json.Marshal(a)
}

// Scan implements sql.Scanner
func (a *StringArray) Scan(value interface{}) error {
	if value == nil {
		*a = []string{}
		return nil
	}
	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return nil
	}
	if len(bytes) == 0 {
		*a = []string{}
		return nil
	}
	return json.Unmarshal(bytes, a)
}

// Message is the durable local copy of an imported mailbox message plus the
// fields derived by AI analysis. At most one row exists per (user, source
// message); the unique index is the authoritative guard against double
// imports racing past the dedup check.
type Message struct {
	ID           string    `json:"id" gorm:"primaryKey"`
	UserID       string    `json:"user_id" gorm:"index;uniqueIndex:idx_user_source;not null"`
	SourceID     string    `json:"source_id" gorm:"uniqueIndex:idx_user_source;not null"`
	ThreadID     string    `json:"thread_id,omitempty"`
	AccountEmail string    `json:"account_email,omitempty"` // source account, for multi-account users
	Subject      string    `json:"subject"`
	From         string    `json:"from" gorm:"column:from_address;index"`
	FromName     string    `json:"from_name,omitempty"`
	To           string    `json:"to" gorm:"column:to_address"`
	ReceivedAt   time.Time `json:"received_at" gorm:"index"`
	Preview      string    `json:"preview"`
	Body         string    `json:"body" gorm:"type:text"`
	HTMLBody     string    `json:"html_body,omitempty" gorm:"type:text"`

	CategoryID     *string     `json:"category_id,omitempty" gorm:"index"`
	Summary        string      `json:"summary" gorm:"type:text"`
	PriorityScore  int         `json:"priority_score"`
	ImportantFlags StringArray `json:"important_flags" gorm:"type:text"`
	UnsubscribeURL string      `json:"unsubscribe_url,omitempty"`
	Archived       bool        `json:"archived"`
	Deleted        bool        `json:"deleted" gorm:"index"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName specifies the table name for GORM
func (Message) TableName() string {
	return "messages"
}
