package usecase

import (
	"fmt"

	"mailtriage-backend/internal/email/domain"
	"mailtriage-backend/internal/email/dto"
	"mailtriage-backend/internal/email/repository"
)

type CategoryUsecase interface {
	Create(userID string, req *dto.CreateCategoryRequest) (*domain.Category, error)
	List(userID string) ([]*domain.Category, error)
	Update(userID, id string, req *dto.UpdateCategoryRequest) (*domain.Category, error)
	Delete(userID, id string) error
}

type categoryUsecase struct {
	categoryRepo repository.CategoryRepository
}

func NewCategoryUsecase(categoryRepo repository.CategoryRepository) CategoryUsecase {
	return &categoryUsecase{categoryRepo: categoryRepo}
}

func (u *categoryUsecase) Create(userID string, req *dto.CreateCategoryRequest) (*domain.Category, error) {
	category := &domain.Category{
		UserID:      userID,
		Name:        req.Name,
		Description: req.Description,
	}
	if err := u.categoryRepo.Create(category); err != nil {
		return nil, err
	}
	return category, nil
}

func (u *categoryUsecase) List(userID string) ([]*domain.Category, error) {
	return u.categoryRepo.ListByUser(userID)
}

func (u *categoryUsecase) Update(userID, id string, req *dto.UpdateCategoryRequest) (*domain.Category, error) {
	category, err := u.categoryRepo.GetByID(userID, id)
	if err != nil {
		return nil, err
	}
	if category == nil {
		return nil, fmt.Errorf("category not found")
	}

	if req.Name != "" {
		category.Name = req.Name
	}
	if req.Description != "" {
		category.Description = req.Description
	}
	if err := u.categoryRepo.Update(category); err != nil {
		return nil, err
	}
	return category, nil
}

func (u *categoryUsecase) Delete(userID, id string) error {
	category, err := u.categoryRepo.GetByID(userID, id)
	if err != nil {
		return err
	}
	if category == nil {
		return fmt.Errorf("category not found")
	}
	return u.categoryRepo.Delete(userID, id)
}
