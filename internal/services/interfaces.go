package services

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"spendwise/internal/models"
)

// UserServicer defines the contract for user-related business logic.
type UserServicer interface {
	CreateUser(ctx context.Context, email, password, name string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	VerifyPassword(user *models.User, password string) bool
	AttemptLogin(ctx context.Context, email, password string) (*models.User, error)
	StoreRefreshTokenHash(ctx context.Context, userID, tokenHash string) error
	GetRefreshTokenHash(ctx context.Context, userID string) (string, error)
}

// ExpenseFilter holds optional filters for listing expenses.
// From is inclusive and Until is exclusive.
type ExpenseFilter struct {
	Category  string
	From      *time.Time
	Until     *time.Time
	MinAmount *decimal.Decimal
	MaxAmount *decimal.Decimal
	Ascending bool
}

// ExpenseInput carries the validated, client-controlled fields of an expense.
type ExpenseInput struct {
	Description string
	Amount      decimal.Decimal
	Category    string
	Date        time.Time
}

// BatchDeleteResult reports what a batch delete removed.
type BatchDeleteResult struct {
	DeletedCount int      `json:"deleted_count"`
	DeletedIDs   []string `json:"deleted_ids"`
}

// ExpenseServicer defines the contract for expense business logic.
// Every operation is scoped to the calling user.
type ExpenseServicer interface {
	ListExpenses(ctx context.Context, userID string, filter ExpenseFilter) ([]models.Expense, error)
	GetExpenseByID(ctx context.Context, userID, expenseID string) (*models.Expense, error)
	CreateExpense(ctx context.Context, userID string, in ExpenseInput) (*models.Expense, error)
	UpdateExpense(ctx context.Context, userID, expenseID string, in ExpenseInput) (*models.Expense, error)
	DeleteExpense(ctx context.Context, userID, expenseID string) error
	DeleteExpenses(ctx context.Context, userID string, ids []string) (*BatchDeleteResult, error)
}

// CategoryServicer defines the contract for category-related business logic.
type CategoryServicer interface {
	CreateCategory(ctx context.Context, userID, name string) (*models.Category, error)
	GetUserCategories(ctx context.Context, userID string) ([]models.Category, error)
	GetCategoryByID(ctx context.Context, userID, categoryID string) (*models.Category, error)
	UpdateCategory(ctx context.Context, userID, categoryID, name string) (*models.Category, error)
	DeleteCategory(ctx context.Context, userID, categoryID string) error
}

// AuditServicer defines the contract for audit logging.
type AuditServicer interface {
	Log(ctx context.Context, userID, action, resourceType, resourceID, ipAddress string, changes map[string]any)
}
