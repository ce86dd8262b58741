package dashboard

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spendwise/internal/models"
)

func TestSummarize(t *testing.T) {
	now := time.Date(2024, 2, 15, 12, 0, 0, 0, time.UTC)

	s := Summarize(sample(), now)

	assert.True(t, s.Total.Equal(decimal.RequireFromString("975")), "total %s", s.Total)
	assert.True(t, s.ThisMonth.Equal(decimal.RequireFromString("940")), "this month %s", s.ThisMonth)
	assert.Equal(t, 4, s.Count)
	assert.Equal(t, 3, s.Categories)
}

func TestSummarize_Empty(t *testing.T) {
	s := Summarize(nil, time.Now())

	assert.True(t, s.Total.IsZero())
	assert.True(t, s.ThisMonth.IsZero())
	assert.Zero(t, s.Count)
	assert.Zero(t, s.Categories)
}

func TestDailyTrend(t *testing.T) {
	now := time.Date(2024, 2, 2, 18, 30, 0, 0, time.UTC)
	expenses := append(sample(), expense("e", "Food", "2.5", "2024-02-01"))

	trend := DailyTrend(expenses, now, 3)

	require.Len(t, trend, 3)
	assert.Equal(t, day("2024-01-31"), trend[0].Day)
	assert.True(t, trend[0].Total.IsZero())
	assert.Equal(t, day("2024-02-01"), trend[1].Day)
	assert.True(t, trend[1].Total.Equal(decimal.RequireFromString("42.5")), "got %s", trend[1].Total)
	assert.Equal(t, day("2024-02-02"), trend[2].Day)
	assert.True(t, trend[2].Total.Equal(decimal.NewFromInt(900)))
}

func TestDailyTrend_NoDays(t *testing.T) {
	assert.Empty(t, DailyTrend([]models.Expense{expense("a", "Food", "1", "2024-01-01")}, time.Now(), 0))
}
