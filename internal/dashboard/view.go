// Package dashboard is the Client View: a disposable local copy of the
// caller's expenses, kept current by replaying change events, with the
// filtered projection and summary widgets derived from it.
package dashboard

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"spendwise/internal/models"
	"spendwise/internal/notifier"
)

// AllCategories matches every category.
const AllCategories = "all"

// Filter narrows the displayed expenses. Start and End are calendar days and
// both are inclusive; zero values leave that side open.
type Filter struct {
	Category  string
	Start     time.Time
	End       time.Time
	MinAmount *decimal.Decimal
	MaxAmount *decimal.Decimal
}

// Match reports whether e passes every criterion of f.
func (f Filter) Match(e models.Expense) bool {
	if f.Category != "" && f.Category != AllCategories && e.Category != f.Category {
		return false
	}
	day := dayOf(e.Date)
	if !f.Start.IsZero() && day.Before(dayOf(f.Start)) {
		return false
	}
	if !f.End.IsZero() && day.After(dayOf(f.End)) {
		return false
	}
	if f.MinAmount != nil && e.Amount.LessThan(*f.MinAmount) {
		return false
	}
	if f.MaxAmount != nil && e.Amount.GreaterThan(*f.MaxAmount) {
		return false
	}
	return true
}

// Project returns the records of source that match f, in source order.
// source is never modified.
func Project(source []models.Expense, f Filter) []models.Expense {
	out := make([]models.Expense, 0, len(source))
	for i := range source {
		if f.Match(source[i]) {
			out = append(out, source[i])
		}
	}
	return out
}

// View holds the local copy and the active filter. It is safe for
// concurrent use: events arrive on the stream goroutine while the
// renderer reads.
type View struct {
	mu       sync.RWMutex
	expenses []models.Expense
	filter   Filter
}

// NewView creates an empty view.
func NewView() *View {
	return &View{}
}

// Load replaces the local copy with a fresh snapshot from the server.
func (v *View) Load(expenses []models.Expense) {
	snapshot := make([]models.Expense, len(expenses))
	copy(snapshot, expenses)

	v.mu.Lock()
	v.expenses = snapshot
	v.mu.Unlock()
}

// Apply reconciles one change event into the local copy. Category events
// and unknown names are ignored.
func (v *View) Apply(ev notifier.Event) error {
	switch ev.Name {
	case notifier.ExpenseCreated, notifier.ExpenseUpdated:
		var e models.Expense
		if err := json.Unmarshal(ev.Data, &e); err != nil {
			return fmt.Errorf("decode %s: %w", ev.Name, err)
		}
		if e.ID == "" {
			return fmt.Errorf("decode %s: missing id", ev.Name)
		}
		v.upsert(e, ev.Name == notifier.ExpenseCreated)
	case notifier.ExpenseDeleted:
		var d notifier.Deleted
		if err := json.Unmarshal(ev.Data, &d); err != nil {
			return fmt.Errorf("decode %s: %w", ev.Name, err)
		}
		v.remove(d.ID)
	}
	return nil
}

// upsert replaces the record with e's id in place, or inserts it: created
// records go to the front, updates for unknown ids to the back.
func (v *View) upsert(e models.Expense, created bool) {
	v.mu.Lock()
	defer v.mu.Unlock()

	for i := range v.expenses {
		if v.expenses[i].ID == e.ID {
			v.expenses[i] = e
			return
		}
	}
	if created {
		v.expenses = append([]models.Expense{e}, v.expenses...)
		return
	}
	v.expenses = append(v.expenses, e)
}

func (v *View) remove(id string) {
	v.mu.Lock()
	defer v.mu.Unlock()

	kept := v.expenses[:0]
	for _, e := range v.expenses {
		if e.ID != id {
			kept = append(kept, e)
		}
	}
	v.expenses = kept
}

// SetFilter changes the active filter.
func (v *View) SetFilter(f Filter) {
	v.mu.Lock()
	v.filter = f
	v.mu.Unlock()
}

// Filter returns the active filter.
func (v *View) Filter() Filter {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.filter
}

// Expenses returns a copy of the whole local copy.
func (v *View) Expenses() []models.Expense {
	v.mu.RLock()
	defer v.mu.RUnlock()
	out := make([]models.Expense, len(v.expenses))
	copy(out, v.expenses)
	return out
}

// Displayed recomputes the projection of the local copy under the active filter.
func (v *View) Displayed() []models.Expense {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return Project(v.expenses, v.filter)
}

// Categories returns the distinct categories present in the local copy, sorted.
func (v *View) Categories() []string {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return distinctCategories(v.expenses)
}

func distinctCategories(expenses []models.Expense) []string {
	seen := make(map[string]struct{})
	out := []string{}
	for _, e := range expenses {
		if _, ok := seen[e.Category]; ok {
			continue
		}
		seen[e.Category] = struct{}{}
		out = append(out, e.Category)
	}
	sort.Slice(out, func(i, j int) bool {
		return strings.ToLower(out[i]) < strings.ToLower(out[j])
	})
	return out
}

func dayOf(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
