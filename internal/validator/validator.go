// Package validator is the input Validation Layer. It checks request payloads
// against field rules using the go-playground engine that backs Gin's
// binding, reports every violation at once, and never touches the store.
package validator

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	apperrors "spendwise/internal/errors"
	"spendwise/internal/uuid"
)

// maxAmount is the first value that no longer fits numeric(12,2).
var maxAmount = decimal.New(1, 10)

var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
}

var registerOnce sync.Once

// Register registers the custom validators with the Gin binding engine.
// It is safe to call more than once.
func Register() {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		_ = v.RegisterValidation("calendar_date", validateCalendarDate)
		_ = v.RegisterValidation("amount", validateAmount)
		v.RegisterTagNameFunc(fieldName)
	})
}

// fieldName reports violations under the name the client used.
func fieldName(f reflect.StructField) string {
	for _, tag := range []string{"json", "form"} {
		name := strings.SplitN(f.Tag.Get(tag), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name != "" {
			return name
		}
	}
	return f.Name
}

func validateCalendarDate(fl validator.FieldLevel) bool {
	_, err := ParseDate(fl.Field().String())
	return err == nil
}

func validateAmount(fl validator.FieldLevel) bool {
	_, ok := amountFrom(fl.Field())
	return ok
}

// amountFrom accepts numeric JSON values (json.Number, float, int) and
// numeric strings. Zero is allowed; negative, non-finite and oversized
// values are rejected, as are values finer than a cent.
func amountFrom(v reflect.Value) (decimal.Decimal, bool) {
	var d decimal.Decimal
	switch v.Kind() {
	case reflect.String:
		parsed, err := decimal.NewFromString(strings.TrimSpace(v.String()))
		if err != nil {
			return decimal.Zero, false
		}
		d = parsed
	case reflect.Float32, reflect.Float64:
		f := v.Float()
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return decimal.Zero, false
		}
		d = decimal.NewFromFloat(f)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		d = decimal.NewFromInt(v.Int())
	case reflect.Interface, reflect.Pointer:
		if v.IsNil() {
			return decimal.Zero, false
		}
		return amountFrom(v.Elem())
	default:
		return decimal.Zero, false
	}
	if d.IsNegative() || d.GreaterThanOrEqual(maxAmount) || !d.Equal(d.Round(2)) {
		return decimal.Zero, false
	}
	return d, true
}

// ParseDate parses a calendar date (YYYY-MM-DD) or a timestamp and returns it in UTC.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date %q", s)
}

// IsDateOnly reports whether s names a whole day rather than an instant.
func IsDateOnly(s string) bool {
	_, err := time.Parse("2006-01-02", strings.TrimSpace(s))
	return err == nil
}

// ExpensePayload is the body of create and update expense requests.
// Fields such as an owner are not part of the payload and are ignored.
type ExpensePayload struct {
	Description string `json:"description" binding:"required,min=3,max=100"`
	Amount      any    `json:"amount" binding:"amount"`
	Category    string `json:"category" binding:"required,max=100"`
	Date        string `json:"date" binding:"required,calendar_date"`
}

// AmountValue returns the validated amount.
func (p ExpensePayload) AmountValue() decimal.Decimal {
	d, _ := amountFrom(reflect.ValueOf(&p.Amount).Elem())
	return d
}

// DateValue returns the validated date in UTC.
func (p ExpensePayload) DateValue() time.Time {
	t, _ := ParseDate(p.Date)
	return t
}

// Expense validates p and returns its trimmed copy.
func Expense(p ExpensePayload) (ExpensePayload, error) {
	p.Description = strings.TrimSpace(p.Description)
	p.Category = strings.TrimSpace(p.Category)
	p.Date = strings.TrimSpace(p.Date)
	return p, validateStruct(p)
}

// CategoryPayload is the body of create and update category requests.
type CategoryPayload struct {
	Name string `json:"name" binding:"required,max=100"`
}

// Category validates p and returns its trimmed copy.
func Category(p CategoryPayload) (CategoryPayload, error) {
	p.Name = strings.TrimSpace(p.Name)
	return p, validateStruct(p)
}

// BatchDeletePayload is the body of a batch delete request.
type BatchDeletePayload struct {
	IDs []string `json:"ids"`
}

// BatchDelete checks that ids is non-empty and every entry is a record id.
func BatchDelete(p BatchDeletePayload) error {
	if len(p.IDs) == 0 {
		return apperrors.WithViolations(apperrors.ErrValidation, []apperrors.FieldViolation{
			{Field: "ids", Message: "ids must contain at least one id"},
		})
	}
	var violations []apperrors.FieldViolation
	for i, id := range p.IDs {
		if !uuid.IsValid(id) {
			violations = append(violations, apperrors.FieldViolation{
				Field:   fmt.Sprintf("ids[%d]", i),
				Message: "must be a valid id",
			})
		}
	}
	if len(violations) > 0 {
		return apperrors.WithViolations(apperrors.ErrValidation, violations)
	}
	return nil
}

// ID checks a record identifier taken from the request path.
func ID(field, value string) error {
	if uuid.IsValid(value) {
		return nil
	}
	return apperrors.WithViolations(apperrors.ErrValidation, []apperrors.FieldViolation{
		{Field: field, Message: field + " must be a valid id"},
	})
}

// ExpenseQuery holds the list filters accepted on GET /expenses.
type ExpenseQuery struct {
	Category  string `form:"category" binding:"omitempty,max=100"`
	StartDate string `form:"startDate" binding:"omitempty,calendar_date"`
	EndDate   string `form:"endDate" binding:"omitempty,calendar_date"`
	MinAmount string `form:"minAmount" binding:"omitempty,amount"`
	MaxAmount string `form:"maxAmount" binding:"omitempty,amount"`
	Sort      string `form:"sort" binding:"omitempty,oneof=asc desc"`
}

// Query validates list filters, including that ranges are not inverted.
func Query(q ExpenseQuery) error {
	err := validateStruct(q)
	if err != nil {
		return err
	}

	var violations []apperrors.FieldViolation
	if q.StartDate != "" && q.EndDate != "" {
		start, _ := ParseDate(q.StartDate)
		end, _ := ParseDate(q.EndDate)
		if end.Before(start) {
			violations = append(violations, apperrors.FieldViolation{Field: "endDate", Message: "endDate must not be before startDate"})
		}
	}
	if q.MinAmount != "" && q.MaxAmount != "" {
		lo, _ := decimal.NewFromString(q.MinAmount)
		hi, _ := decimal.NewFromString(q.MaxAmount)
		if hi.LessThan(lo) {
			violations = append(violations, apperrors.FieldViolation{Field: "maxAmount", Message: "maxAmount must not be below minAmount"})
		}
	}
	if len(violations) > 0 {
		return apperrors.WithViolations(apperrors.ErrValidation, violations)
	}
	return nil
}

// Struct validates obj against its binding tags and reports every violation.
func Struct(obj any) error {
	return validateStruct(obj)
}

func validateStruct(obj any) error {
	Register()

	err := binding.Validator.ValidateStruct(obj)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error())
	}

	violations := make([]apperrors.FieldViolation, 0, len(verrs))
	for _, fe := range verrs {
		violations = append(violations, apperrors.FieldViolation{
			Field:   fe.Field(),
			Message: message(fe),
		})
	}
	return apperrors.WithViolations(apperrors.ErrValidation, violations)
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fe.Field() + " is required"
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", fe.Field(), fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", fe.Field(), fe.Param())
	case "amount":
		if fe.Value() == nil {
			return fe.Field() + " is required"
		}
		return fe.Field() + " must be a non-negative number with at most 2 decimal places"
	case "email":
		return fe.Field() + " must be a valid email address"
	case "calendar_date":
		return fe.Field() + " must be a valid date (YYYY-MM-DD or RFC3339)"
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", fe.Field(), fe.Param())
	default:
		return fe.Field() + " is invalid"
	}
}
