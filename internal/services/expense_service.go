package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	apperrors "spendwise/internal/errors"
	"spendwise/internal/logger"
	"spendwise/internal/models"
	"spendwise/internal/notifier"
)

// expenseService handles expense business logic and announces every
// committed mutation through the notifier.
type expenseService struct {
	db        *gorm.DB
	publisher notifier.Publisher
}

// NewExpenseService creates a new ExpenseServicer.
func NewExpenseService(db *gorm.DB, publisher notifier.Publisher) ExpenseServicer {
	if publisher == nil {
		publisher = notifier.Discard
	}
	return &expenseService{db: db, publisher: publisher}
}

// ListExpenses returns the caller's expenses matching filter, newest first
// unless filter.Ascending is set.
func (s *expenseService) ListExpenses(ctx context.Context, userID string, filter ExpenseFilter) ([]models.Expense, error) {
	query := s.db.WithContext(ctx).Where("user_id = ?", userID)

	if filter.Category != "" {
		query = query.Where("category = ?", filter.Category)
	}
	if filter.From != nil {
		query = query.Where("date >= ?", filter.From.UTC())
	}
	if filter.Until != nil {
		query = query.Where("date < ?", filter.Until.UTC())
	}
	if filter.MinAmount != nil {
		query = query.Where("amount >= ?", *filter.MinAmount)
	}
	if filter.MaxAmount != nil {
		query = query.Where("amount <= ?", *filter.MaxAmount)
	}

	order := "date DESC, created_at DESC"
	if filter.Ascending {
		order = "date ASC, created_at ASC"
	}

	expenses := []models.Expense{}
	if err := query.Order(order).Find(&expenses).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return expenses, nil
}

// GetExpenseByID retrieves an expense by ID for a specific user
func (s *expenseService) GetExpenseByID(ctx context.Context, userID, expenseID string) (*models.Expense, error) {
	var expense models.Expense
	err := s.db.WithContext(ctx).Where("id = ? AND user_id = ?", expenseID, userID).First(&expense).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrExpenseNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &expense, nil
}

// CreateExpense stores a new expense owned by userID.
func (s *expenseService) CreateExpense(ctx context.Context, userID string, in ExpenseInput) (*models.Expense, error) {
	in, err := normalizeExpenseInput(in)
	if err != nil {
		return nil, err
	}

	expense := &models.Expense{
		UserID:      userID,
		Description: in.Description,
		Amount:      in.Amount,
		Category:    in.Category,
		Date:        in.Date,
	}

	if err := s.db.WithContext(ctx).Create(expense).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	publish(ctx, s.publisher, notifier.ExpenseCreated, userID, expense)
	return expense, nil
}

// UpdateExpense replaces the client-controlled fields of an owned expense.
func (s *expenseService) UpdateExpense(ctx context.Context, userID, expenseID string, in ExpenseInput) (*models.Expense, error) {
	in, err := normalizeExpenseInput(in)
	if err != nil {
		return nil, err
	}

	var expense models.Expense
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.Expense{}).
			Where("id = ? AND user_id = ?", expenseID, userID).
			Updates(map[string]any{
				"description": in.Description,
				"amount":      in.Amount,
				"category":    in.Category,
				"date":        in.Date,
				"updated_at":  time.Now().UTC(),
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return apperrors.ErrExpenseNotFound
		}
		return tx.Where("id = ? AND user_id = ?", expenseID, userID).First(&expense).Error
	})
	if err != nil {
		return nil, storeError(err)
	}

	publish(ctx, s.publisher, notifier.ExpenseUpdated, userID, &expense)
	return &expense, nil
}

// DeleteExpense removes one owned expense.
func (s *expenseService) DeleteExpense(ctx context.Context, userID, expenseID string) error {
	result := s.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", expenseID, userID).
		Delete(&models.Expense{})
	if result.Error != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.ErrExpenseNotFound
	}

	publish(ctx, s.publisher, notifier.ExpenseDeleted, userID, notifier.Deleted{ID: expenseID})
	return nil
}

// DeleteExpenses removes the owned expenses among ids. Ids that are absent
// or owned by someone else are skipped; matching nothing is not an error.
func (s *expenseService) DeleteExpenses(ctx context.Context, userID string, ids []string) (*BatchDeleteResult, error) {
	if len(ids) == 0 {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "ids must not be empty")
	}

	deleted := []string{}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Expense{}).
			Where("user_id = ? AND id IN ?", userID, ids).
			Pluck("id", &deleted).Error; err != nil {
			return err
		}
		if len(deleted) == 0 {
			return nil
		}
		return tx.Where("user_id = ? AND id IN ?", userID, deleted).Delete(&models.Expense{}).Error
	})
	if err != nil {
		return nil, storeError(err)
	}

	for _, id := range deleted {
		publish(ctx, s.publisher, notifier.ExpenseDeleted, userID, notifier.Deleted{ID: id})
	}

	return &BatchDeleteResult{DeletedCount: len(deleted), DeletedIDs: deleted}, nil
}

func normalizeExpenseInput(in ExpenseInput) (ExpenseInput, error) {
	in.Description = strings.TrimSpace(in.Description)
	in.Category = strings.TrimSpace(in.Category)
	if in.Category == "" {
		in.Category = models.DefaultCategory
	}
	in.Date = in.Date.UTC()

	var violations []apperrors.FieldViolation
	if in.Description == "" {
		violations = append(violations, apperrors.FieldViolation{Field: "description", Message: "description is required"})
	}
	if in.Amount.IsNegative() || !in.Amount.Equal(in.Amount.Round(2)) {
		violations = append(violations, apperrors.FieldViolation{Field: "amount", Message: "amount must be a non-negative number with at most 2 decimal places"})
	}
	if in.Date.IsZero() {
		violations = append(violations, apperrors.FieldViolation{Field: "date", Message: "date is required"})
	}
	if len(violations) > 0 {
		return in, apperrors.WithViolations(apperrors.ErrValidation, violations)
	}
	return in, nil
}

// storeError passes AppErrors through and wraps everything else.
func storeError(err error) error {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperrors.ErrNotFound
	}
	return apperrors.Wrap(apperrors.ErrInternalServer, err)
}

// publish announces a committed change. Failures are logged only.
func publish(ctx context.Context, p notifier.Publisher, name, owner string, payload any) {
	ev, err := notifier.NewEvent(name, owner, payload)
	if err != nil {
		logger.Get().Errorw("failed to build change event", "event", name, "error", err)
		return
	}
	p.Publish(ctx, ev)
}
