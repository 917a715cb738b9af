package repository

import (
	"errors"

	"mailtriage-backend/internal/email/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// MessageFilter narrows ListByUser results.
type MessageFilter struct {
	CategoryID string
	Archived   *bool
	Limit      int
	Offset     int
}

type MessageRepository interface {
	// CreateIfAbsent inserts the message unless one with the same
	// (user_id, source_id) already exists. Returns true when a row was
	// actually written.
	CreateIfAbsent(message *domain.Message) (bool, error)
	// ExistingIDs reports which of the given source IDs are already stored
	// for the user.
	ExistingIDs(userID string, sourceIDs []string) (map[string]bool, error)
	GetByID(userID, id string) (*domain.Message, error)
	ListByUser(userID string, filter MessageFilter) ([]*domain.Message, error)
	Update(message *domain.Message) error
	SetArchived(userID, id string, archived bool) error
	SoftDelete(userID, id string) error
	CountByUser(userID string) (int64, error)
}

type messageRepository struct {
	db *gorm.DB
}

func NewMessageRepository(db *gorm.DB) MessageRepository {
	return &messageRepository{db: db}
}

func (r *messageRepository) CreateIfAbsent(message *domain.Message) (bool, error) {
	if message.ID == "" {
		message.ID = uuid.New().String()
	}

	// The unique index on (user_id, source_id) makes concurrent imports
	// safe; a conflict means another batch already stored this message.
	result := r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "source_id"}},
		DoNothing: true,
	}).Create(message)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *messageRepository) ExistingIDs(userID string, sourceIDs []string) (map[string]bool, error) {
	existing := make(map[string]bool, len(sourceIDs))
	if len(sourceIDs) == 0 {
		return existing, nil
	}

	var found []string
	err := r.db.Model(&domain.Message{}).
		Where("user_id = ? AND source_id IN ?", userID, sourceIDs).
		Pluck("source_id", &found).Error
	if err != nil {
		return nil, err
	}

	for _, id := range found {
		existing[id] = true
	}
	return existing, nil
}

func (r *messageRepository) GetByID(userID, id string) (*domain.Message, error) {
	var message domain.Message
	err := r.db.Where("id = ? AND user_id = ? AND deleted = ?", id, userID, false).First(&message).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &message, nil
}

func (r *messageRepository) ListByUser(userID string, filter MessageFilter) ([]*domain.Message, error) {
	query := r.db.Where("user_id = ? AND deleted = ?", userID, false)

	if filter.CategoryID != "" {
		query = query.Where("category_id = ?", filter.CategoryID)
	}
	if filter.Archived != nil {
		query = query.Where("archived = ?", *filter.Archived)
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}

	var messages []*domain.Message
	err := query.Order("received_at DESC").Limit(limit).Offset(filter.Offset).Find(&messages).Error
	if err != nil {
		return nil, err
	}
	return messages, nil
}

func (r *messageRepository) Update(message *domain.Message) error {
	return r.db.Save(message).Error
}

func (r *messageRepository) SetArchived(userID, id string, archived bool) error {
	result := r.db.Model(&domain.Message{}).
		Where("id = ? AND user_id = ?", id, userID).
		Update("archived", archived)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *messageRepository) SoftDelete(userID, id string) error {
	result := r.db.Model(&domain.Message{}).
		Where("id = ? AND user_id = ?", id, userID).
		Update("deleted", true)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *messageRepository) CountByUser(userID string) (int64, error) {
	var count int64
	err := r.db.Model(&domain.Message{}).
		Where("user_id = ? AND deleted = ?", userID, false).
		Count(&count).Error
	return count, err
}
