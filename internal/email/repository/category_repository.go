package repository

import (
	"errors"

	"mailtriage-backend/internal/email/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type CategoryRepository interface {
	Create(category *domain.Category) error
	ListByUser(userID string) ([]*domain.Category, error)
	GetByID(userID, id string) (*domain.Category, error)
	Update(category *domain.Category) error
	Delete(userID, id string) error
}

type categoryRepository struct {
	db *gorm.DB
}

func NewCategoryRepository(db *gorm.DB) CategoryRepository {
	return &categoryRepository{db: db}
}

func (r *categoryRepository) Create(category *domain.Category) error {
	if category.ID == "" {
		category.ID = uuid.New().String()
	}
	return r.db.Create(category).Error
}

func (r *categoryRepository) ListByUser(userID string) ([]*domain.Category, error) {
	var categories []*domain.Category
	err := r.db.Where("user_id = ?", userID).Order("name ASC").Find(&categories).Error
	if err != nil {
		return nil, err
	}
	return categories, nil
}

func (r *categoryRepository) GetByID(userID, id string) (*domain.Category, error) {
	var category domain.Category
	err := r.db.Where("id = ? AND user_id = ?", id, userID).First(&category).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &category, nil
}

func (r *categoryRepository) Update(category *domain.Category) error {
	return r.db.Save(category).Error
}

func (r *categoryRepository) Delete(userID, id string) error {
	// Messages keep a dangling category_id on purpose; they fall back to
	// uncategorized in list responses.
	return r.db.Where("id = ? AND user_id = ?", id, userID).Delete(&domain.Category{}).Error
}
