package dashboard

import (
	"time"

	"github.com/shopspring/decimal"

	"spendwise/internal/models"
)

// Summary is the headline block of the dashboard.
type Summary struct {
	Total      decimal.Decimal `json:"total"`
	ThisMonth  decimal.Decimal `json:"this_month"`
	Count      int             `json:"count"`
	Categories int             `json:"categories"`
}

// Summarize totals expenses. ThisMonth covers the calendar month of now in UTC.
func Summarize(expenses []models.Expense, now time.Time) Summary {
	now = now.UTC()
	s := Summary{Total: decimal.Zero, ThisMonth: decimal.Zero, Count: len(expenses)}
	for _, e := range expenses {
		s.Total = s.Total.Add(e.Amount)
		d := e.Date.UTC()
		if d.Year() == now.Year() && d.Month() == now.Month() {
			s.ThisMonth = s.ThisMonth.Add(e.Amount)
		}
	}
	s.Categories = len(distinctCategories(expenses))
	return s
}

// DayTotal is one point of the spending trend.
type DayTotal struct {
	Day   time.Time       `json:"day"`
	Total decimal.Decimal `json:"total"`
}

// DailyTrend returns per-day totals for the days days ending with now's
// day, oldest first. Days without spending are present with a zero total.
func DailyTrend(expenses []models.Expense, now time.Time, days int) []DayTotal {
	if days <= 0 {
		return []DayTotal{}
	}

	first := dayOf(now).AddDate(0, 0, -(days - 1))
	trend := make([]DayTotal, days)
	index := make(map[time.Time]int, days)
	for i := range trend {
		day := first.AddDate(0, 0, i)
		trend[i] = DayTotal{Day: day, Total: decimal.Zero}
		index[day] = i
	}

	for _, e := range expenses {
		if i, ok := index[dayOf(e.Date)]; ok {
			trend[i].Total = trend[i].Total.Add(e.Amount)
		}
	}
	return trend
}
