package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	apperrors "spendwise/internal/errors"
	"spendwise/internal/models"
	"spendwise/internal/notifier"
)

// categoryService handles category-related business logic.
type categoryService struct {
	db        *gorm.DB
	publisher notifier.Publisher
}

// NewCategoryService creates a new CategoryServicer.
func NewCategoryService(db *gorm.DB, publisher notifier.Publisher) CategoryServicer {
	if publisher == nil {
		publisher = notifier.Discard
	}
	return &categoryService{db: db, publisher: publisher}
}

// CreateCategory creates a new category. Duplicate names are allowed.
func (s *categoryService) CreateCategory(ctx context.Context, userID, name string) (*models.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errCategoryNameRequired()
	}

	category := &models.Category{
		UserID: userID,
		Name:   name,
	}

	if err := s.db.WithContext(ctx).Create(category).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	publish(ctx, s.publisher, notifier.CategoryCreated, userID, category)
	return category, nil
}

// GetUserCategories lists every category of a user, oldest first.
func (s *categoryService) GetUserCategories(ctx context.Context, userID string) ([]models.Category, error) {
	categories := []models.Category{}
	if err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at ASC").
		Find(&categories).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return categories, nil
}

// GetCategoryByID retrieves a category by ID for a specific user
func (s *categoryService) GetCategoryByID(ctx context.Context, userID, categoryID string) (*models.Category, error) {
	var category models.Category
	err := s.db.WithContext(ctx).Where("id = ? AND user_id = ?", categoryID, userID).First(&category).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrCategoryNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &category, nil
}

// UpdateCategory renames an owned category.
func (s *categoryService) UpdateCategory(ctx context.Context, userID, categoryID, name string) (*models.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errCategoryNameRequired()
	}

	var category models.Category
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.Category{}).
			Where("id = ? AND user_id = ?", categoryID, userID).
			Updates(map[string]any{"name": name, "updated_at": time.Now().UTC()})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return apperrors.ErrCategoryNotFound
		}
		return tx.Where("id = ? AND user_id = ?", categoryID, userID).First(&category).Error
	})
	if err != nil {
		return nil, storeError(err)
	}

	publish(ctx, s.publisher, notifier.CategoryUpdated, userID, &category)
	return &category, nil
}

// DeleteCategory deletes an owned category. Expenses keep their
// free-text category label.
func (s *categoryService) DeleteCategory(ctx context.Context, userID, categoryID string) error {
	result := s.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", categoryID, userID).
		Delete(&models.Category{})
	if result.Error != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.ErrCategoryNotFound
	}

	publish(ctx, s.publisher, notifier.CategoryDeleted, userID, notifier.Deleted{ID: categoryID})
	return nil
}

func errCategoryNameRequired() error {
	return apperrors.WithViolations(apperrors.ErrValidation, []apperrors.FieldViolation{
		{Field: "name", Message: "name is required"},
	})
}
