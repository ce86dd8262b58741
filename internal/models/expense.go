package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// DefaultCategory is stored when an expense is created without a category.
const DefaultCategory = "Uncategorized"

func init() {
	// Amounts go over the wire as JSON numbers, not quoted strings.
	decimal.MarshalJSONWithoutQuotes = true
}

// Expense is a single spending record owned by one user.
type Expense struct {
	Base
	UserID      string          `gorm:"type:uuid;not null;index:idx_expenses_user_date,priority:1" json:"user_id"`
	Description string          `gorm:"size:100;not null" json:"description"`
	Amount      decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"amount"`
	Category    string          `gorm:"size:100;not null;default:Uncategorized" json:"category"`
	Date        time.Time       `gorm:"not null;index:idx_expenses_user_date,priority:2" json:"date"`
}
