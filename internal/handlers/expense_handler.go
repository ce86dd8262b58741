package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/shopspring/decimal"

	apperrors "spendwise/internal/errors"
	"spendwise/internal/models"
	"spendwise/internal/response"
	"spendwise/internal/services"
	"spendwise/internal/validator"
)

// ExpenseHandler handles expense-related requests.
type ExpenseHandler struct {
	expenseService services.ExpenseServicer
	auditService   services.AuditServicer
}

// NewExpenseHandler creates a new ExpenseHandler.
func NewExpenseHandler(expenseService services.ExpenseServicer, auditService services.AuditServicer) *ExpenseHandler {
	return &ExpenseHandler{expenseService: expenseService, auditService: auditService}
}

// ExpenseRequest is the body of create and update requests. Amount accepts a
// JSON number or a numeric string.
type ExpenseRequest struct {
	Description string `json:"description" example:"Groceries"`
	Amount      any    `json:"amount" swaggertype:"number" example:"42.5"`
	Category    string `json:"category" example:"Food"`
	Date        string `json:"date" example:"2024-03-01"`
}

// ExpenseEnvelope documents a single expense response.
type ExpenseEnvelope struct {
	Status  string         `json:"status" example:"success"`
	Data    models.Expense `json:"data"`
	Message string         `json:"message,omitempty"`
}

// ExpenseListEnvelope documents an expense list response.
type ExpenseListEnvelope struct {
	Status string           `json:"status" example:"success"`
	Data   []models.Expense `json:"data"`
}

// BatchDeleteEnvelope documents a batch delete response.
type BatchDeleteEnvelope struct {
	Status  string                     `json:"status" example:"success"`
	Data    services.BatchDeleteResult `json:"data"`
	Message string                     `json:"message,omitempty"`
}

func (h *ExpenseHandler) bindExpense(c *gin.Context) (services.ExpenseInput, error) {
	var req ExpenseRequest
	if err := bindJSON(c, &req); err != nil {
		return services.ExpenseInput{}, err
	}

	payload, err := validator.Expense(validator.ExpensePayload{
		Description: req.Description,
		Amount:      req.Amount,
		Category:    req.Category,
		Date:        req.Date,
	})
	if err != nil {
		return services.ExpenseInput{}, err
	}

	return services.ExpenseInput{
		Description: payload.Description,
		Amount:      payload.AmountValue(),
		Category:    payload.Category,
		Date:        payload.DateValue(),
	}, nil
}

// ListExpenses returns the caller's expenses.
// @Summary     List expenses
// @Description List the authenticated user's expenses, newest first unless sort=asc. endDate given as YYYY-MM-DD covers the whole day.
// @Tags        expenses
// @Produce     json
// @Security    BearerAuth
// @Param       category  query string false "Exact category"
// @Param       startDate query string false "Start date (YYYY-MM-DD or RFC3339), inclusive"
// @Param       endDate   query string false "End date (YYYY-MM-DD or RFC3339), inclusive"
// @Param       minAmount query number false "Minimum amount"
// @Param       maxAmount query number false "Maximum amount"
// @Param       sort      query string false "Sort by date" Enums(asc, desc)
// @Success     200 {object} ExpenseListEnvelope
// @Failure     400 {object} response.ErrorEnvelope "Invalid filters"
// @Failure     401 {object} response.ErrorEnvelope "Unauthorized"
// @Failure     500 {object} response.ErrorEnvelope "Server error"
// @Router      /expenses [get]
func (h *ExpenseHandler) ListExpenses(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var q validator.ExpenseQuery
	if err := binding.MapFormWithTag(&q, c.Request.URL.Query(), "form"); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}
	if err := validator.Query(q); err != nil {
		respondWithError(c, err)
		return
	}

	expenses, err := h.expenseService.ListExpenses(c.Request.Context(), userID, expenseFilter(q))
	if err != nil {
		respondWithError(c, err)
		return
	}

	response.Success(c, http.StatusOK, expenses, "")
}

// expenseFilter converts validated query parameters into a service filter.
// A date-only endDate includes every instant of that day.
func expenseFilter(q validator.ExpenseQuery) services.ExpenseFilter {
	filter := services.ExpenseFilter{
		Category:  strings.TrimSpace(q.Category),
		Ascending: q.Sort == "asc",
	}

	if q.StartDate != "" {
		from, _ := validator.ParseDate(q.StartDate)
		filter.From = &from
	}
	if q.EndDate != "" {
		end, _ := validator.ParseDate(q.EndDate)
		until := end.Add(time.Nanosecond)
		if validator.IsDateOnly(q.EndDate) {
			until = end.AddDate(0, 0, 1)
		}
		filter.Until = &until
	}
	if q.MinAmount != "" {
		lo, _ := decimal.NewFromString(strings.TrimSpace(q.MinAmount))
		filter.MinAmount = &lo
	}
	if q.MaxAmount != "" {
		hi, _ := decimal.NewFromString(strings.TrimSpace(q.MaxAmount))
		filter.MaxAmount = &hi
	}

	return filter
}

// GetExpense returns one owned expense.
// @Summary     Get expense by ID
// @Tags        expenses
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Expense ID"
// @Success     200 {object} ExpenseEnvelope
// @Failure     400 {object} response.ErrorEnvelope "Invalid expense ID"
// @Failure     401 {object} response.ErrorEnvelope "Unauthorized"
// @Failure     404 {object} response.ErrorEnvelope "Expense not found"
// @Failure     500 {object} response.ErrorEnvelope "Server error"
// @Router      /expenses/{id} [get]
func (h *ExpenseHandler) GetExpense(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	expenseID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	expense, err := h.expenseService.GetExpenseByID(c.Request.Context(), userID, expenseID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	response.Success(c, http.StatusOK, expense, "")
}

// CreateExpense handles the creation of a new expense
// @Summary     Create an expense
// @Description Create an expense owned by the caller. An owner in the body is ignored.
// @Tags        expenses
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body ExpenseRequest true "Expense details"
// @Success     201 {object} ExpenseEnvelope "Expense created"
// @Failure     400 {object} response.ErrorEnvelope "Validation failed"
// @Failure     401 {object} response.ErrorEnvelope "Unauthorized"
// @Failure     500 {object} response.ErrorEnvelope "Server error"
// @Router      /expenses [post]
func (h *ExpenseHandler) CreateExpense(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	in, err := h.bindExpense(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	expense, err := h.expenseService.CreateExpense(c.Request.Context(), userID, in)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(c.Request.Context(), userID, models.AuditCreateExpense, models.ResourceExpense, expense.ID, c.ClientIP(),
		map[string]any{"amount": expense.Amount.StringFixed(2), "category": expense.Category})

	response.Success(c, http.StatusCreated, expense, "Expense created successfully")
}

// UpdateExpense replaces the editable fields of an expense
// @Summary     Update an expense
// @Description Replace description, amount, category and date of an owned expense
// @Tags        expenses
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id      path string         true "Expense ID"
// @Param       request body ExpenseRequest true "Expense details"
// @Success     200 {object} ExpenseEnvelope "Updated expense"
// @Failure     400 {object} response.ErrorEnvelope "Validation failed"
// @Failure     401 {object} response.ErrorEnvelope "Unauthorized"
// @Failure     404 {object} response.ErrorEnvelope "Expense not found"
// @Failure     500 {object} response.ErrorEnvelope "Server error"
// @Router      /expenses/{id} [put]
func (h *ExpenseHandler) UpdateExpense(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	expenseID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	in, err := h.bindExpense(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	expense, err := h.expenseService.UpdateExpense(c.Request.Context(), userID, expenseID, in)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(c.Request.Context(), userID, models.AuditUpdateExpense, models.ResourceExpense, expenseID, c.ClientIP(), nil)

	response.Success(c, http.StatusOK, expense, "Expense updated successfully")
}

// DeleteExpense handles the deletion of an expense
// @Summary     Delete an expense
// @Tags        expenses
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Expense ID"
// @Success     200 {object} response.Envelope "Expense deleted"
// @Failure     400 {object} response.ErrorEnvelope "Invalid expense ID"
// @Failure     401 {object} response.ErrorEnvelope "Unauthorized"
// @Failure     404 {object} response.ErrorEnvelope "Expense not found"
// @Failure     500 {object} response.ErrorEnvelope "Server error"
// @Router      /expenses/{id} [delete]
func (h *ExpenseHandler) DeleteExpense(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	expenseID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.expenseService.DeleteExpense(c.Request.Context(), userID, expenseID); err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(c.Request.Context(), userID, models.AuditDeleteExpense, models.ResourceExpense, expenseID, c.ClientIP(), nil)

	response.Success(c, http.StatusOK, gin.H{"id": expenseID}, "Expense deleted successfully")
}

// DeleteExpenses removes every listed expense the caller owns. Ids that do
// not exist or belong to someone else are skipped.
// @Summary     Batch delete expenses
// @Description Delete the caller's expenses among ids. Zero matches is not an error and reports deleted_count 0.
// @Tags        expenses
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body validator.BatchDeletePayload true "Expense IDs"
// @Success     200 {object} BatchDeleteEnvelope "Deleted count and ids"
// @Failure     400 {object} response.ErrorEnvelope "Validation failed"
// @Failure     401 {object} response.ErrorEnvelope "Unauthorized"
// @Failure     500 {object} response.ErrorEnvelope "Server error"
// @Router      /expenses/batch/delete [delete]
func (h *ExpenseHandler) DeleteExpenses(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req validator.BatchDeletePayload
	if err := bindJSON(c, &req); err != nil {
		respondWithError(c, err)
		return
	}
	if err := validator.BatchDelete(req); err != nil {
		respondWithError(c, err)
		return
	}

	result, err := h.expenseService.DeleteExpenses(c.Request.Context(), userID, req.IDs)
	if err != nil {
		respondWithError(c, err)
		return
	}

	for _, id := range result.DeletedIDs {
		h.auditService.Log(c.Request.Context(), userID, models.AuditDeleteExpense, models.ResourceExpense, id, c.ClientIP(),
			map[string]any{"batch": true})
	}

	message := "Expenses deleted successfully"
	if result.DeletedCount == 0 {
		message = "No expenses deleted"
	}
	response.Success(c, http.StatusOK, result, message)
}
