package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"spendwise/internal/models"
	"spendwise/internal/response"
	"spendwise/internal/services"
	"spendwise/internal/validator"
)

// CategoryHandler handles category-related requests
type CategoryHandler struct {
	categoryService services.CategoryServicer
	auditService    services.AuditServicer
}

// NewCategoryHandler creates a new CategoryHandler
func NewCategoryHandler(categoryService services.CategoryServicer, auditService services.AuditServicer) *CategoryHandler {
	return &CategoryHandler{categoryService: categoryService, auditService: auditService}
}

// CategoryEnvelope documents a single category response.
type CategoryEnvelope struct {
	Status  string          `json:"status" example:"success"`
	Data    models.Category `json:"data"`
	Message string          `json:"message,omitempty"`
}

// CategoryListEnvelope documents a category list response.
type CategoryListEnvelope struct {
	Status string            `json:"status" example:"success"`
	Data   []models.Category `json:"data"`
}

func bindCategory(c *gin.Context) (string, error) {
	var req validator.CategoryPayload
	if err := bindJSON(c, &req); err != nil {
		return "", err
	}
	req, err := validator.Category(req)
	if err != nil {
		return "", err
	}
	return req.Name, nil
}

// CreateCategory handles the creation of a new category
// @Summary     Create a category
// @Tags        categories
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body validator.CategoryPayload true "Category details"
// @Success     201 {object} CategoryEnvelope "Category created"
// @Failure     400 {object} response.ErrorEnvelope "Validation failed"
// @Failure     401 {object} response.ErrorEnvelope "Unauthorized"
// @Failure     500 {object} response.ErrorEnvelope "Server error"
// @Router      /categories [post]
func (h *CategoryHandler) CreateCategory(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	name, err := bindCategory(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	category, err := h.categoryService.CreateCategory(c.Request.Context(), userID, name)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(c.Request.Context(), userID, models.AuditCreateCategory, models.ResourceCategory, category.ID, c.ClientIP(),
		map[string]any{"name": category.Name})

	response.Success(c, http.StatusCreated, category, "Category created successfully")
}

// GetCategories handles the retrieval of all categories for a user
// @Summary     Get all categories
// @Tags        categories
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} CategoryListEnvelope
// @Failure     401 {object} response.ErrorEnvelope "Unauthorized"
// @Failure     500 {object} response.ErrorEnvelope "Server error"
// @Router      /categories [get]
func (h *CategoryHandler) GetCategories(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	categories, err := h.categoryService.GetUserCategories(c.Request.Context(), userID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	response.Success(c, http.StatusOK, categories, "")
}

// GetCategoryByID handles the retrieval of a specific category
// @Summary     Get category by ID
// @Tags        categories
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Category ID"
// @Success     200 {object} CategoryEnvelope
// @Failure     400 {object} response.ErrorEnvelope "Invalid category ID"
// @Failure     401 {object} response.ErrorEnvelope "Unauthorized"
// @Failure     404 {object} response.ErrorEnvelope "Category not found"
// @Failure     500 {object} response.ErrorEnvelope "Server error"
// @Router      /categories/{id} [get]
func (h *CategoryHandler) GetCategoryByID(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	categoryID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	category, err := h.categoryService.GetCategoryByID(c.Request.Context(), userID, categoryID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	response.Success(c, http.StatusOK, category, "")
}

// UpdateCategory handles updating a category
// @Summary     Update category
// @Tags        categories
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id      path string                    true "Category ID"
// @Param       request body validator.CategoryPayload true "Category details"
// @Success     200 {object} CategoryEnvelope "Updated category"
// @Failure     400 {object} response.ErrorEnvelope "Validation failed"
// @Failure     401 {object} response.ErrorEnvelope "Unauthorized"
// @Failure     404 {object} response.ErrorEnvelope "Category not found"
// @Failure     500 {object} response.ErrorEnvelope "Server error"
// @Router      /categories/{id} [put]
func (h *CategoryHandler) UpdateCategory(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	categoryID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	name, err := bindCategory(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	category, err := h.categoryService.UpdateCategory(c.Request.Context(), userID, categoryID, name)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(c.Request.Context(), userID, models.AuditUpdateCategory, models.ResourceCategory, categoryID, c.ClientIP(), nil)

	response.Success(c, http.StatusOK, category, "Category updated successfully")
}

// DeleteCategory handles the deletion of a category
// @Summary     Delete category
// @Description Delete a category. Expenses keep their category text.
// @Tags        categories
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Category ID"
// @Success     200 {object} response.Envelope "Category deleted"
// @Failure     400 {object} response.ErrorEnvelope "Invalid category ID"
// @Failure     401 {object} response.ErrorEnvelope "Unauthorized"
// @Failure     404 {object} response.ErrorEnvelope "Category not found"
// @Failure     500 {object} response.ErrorEnvelope "Server error"
// @Router      /categories/{id} [delete]
func (h *CategoryHandler) DeleteCategory(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	categoryID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.categoryService.DeleteCategory(c.Request.Context(), userID, categoryID); err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(c.Request.Context(), userID, models.AuditDeleteCategory, models.ResourceCategory, categoryID, c.ClientIP(), nil)

	response.Success(c, http.StatusOK, gin.H{"id": categoryID}, "Category deleted successfully")
}
