package handlers

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	apperrors "spendwise/internal/errors"
	"spendwise/internal/middleware"
	"spendwise/internal/models"
	"spendwise/internal/response"
	"spendwise/internal/services"
	"spendwise/internal/validator"
)

// AuthHandler handles authentication-related requests
type AuthHandler struct {
	userService  services.UserServicer
	auditService services.AuditServicer
	tokens       *middleware.TokenManager
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(userService services.UserServicer, auditService services.AuditServicer, tokens *middleware.TokenManager) *AuthHandler {
	return &AuthHandler{userService: userService, auditService: auditService, tokens: tokens}
}

// RegisterRequest represents the registration request payload
type RegisterRequest struct {
	Email    string `json:"email" binding:"required,email,max=255"`
	Password string `json:"password" binding:"required,min=8,max=128"`
	Name     string `json:"name" binding:"max=100"`
}

// LoginRequest represents the login request payload
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// RefreshRequest carries a refresh token to exchange.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// UserResponse represents the user data in the response
type UserResponse struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

// AuthResponse is the data of a successful register, login or refresh.
type AuthResponse struct {
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token"`
	User         UserResponse `json:"user"`
}

// AuthEnvelope documents an authentication response.
type AuthEnvelope struct {
	Status  string       `json:"status" example:"success"`
	Data    AuthResponse `json:"data"`
	Message string       `json:"message,omitempty"`
}

func toUserResponse(user *models.User) UserResponse {
	return UserResponse{ID: user.ID, Email: user.Email, Name: user.Name}
}

// issueTokens signs a token pair and stores the refresh token hash, which
// invalidates any refresh token issued before.
func (h *AuthHandler) issueTokens(c *gin.Context, user *models.User) (*AuthResponse, error) {
	accessToken, err := h.tokens.GenerateAccessToken(user)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	refreshToken, err := h.tokens.GenerateRefreshToken(user)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if err := h.userService.StoreRefreshTokenHash(c.Request.Context(), user.ID, middleware.HashToken(refreshToken)); err != nil {
		return nil, err
	}
	return &AuthResponse{AccessToken: accessToken, RefreshToken: refreshToken, User: toUserResponse(user)}, nil
}

// Register handles user registration
// @Summary     Register a new user
// @Description Register a new user with email and password
// @Tags        auth
// @Accept      json
// @Produce     json
// @Param       request body RegisterRequest true "User registration data"
// @Success     201 {object} AuthEnvelope "User registered and tokens issued"
// @Failure     400 {object} response.ErrorEnvelope "Validation failed"
// @Failure     409 {object} response.ErrorEnvelope "Email already registered"
// @Failure     500 {object} response.ErrorEnvelope "Server error"
// @Router      /auth/register [post]
func (h *AuthHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := bindJSON(c, &req); err != nil {
		respondWithError(c, err)
		return
	}
	req.Email = strings.TrimSpace(req.Email)
	req.Name = strings.TrimSpace(req.Name)
	if err := validator.Struct(req); err != nil {
		respondWithError(c, err)
		return
	}

	user, err := h.userService.CreateUser(c.Request.Context(), req.Email, req.Password, req.Name)
	if err != nil {
		respondWithError(c, err)
		return
	}

	resp, err := h.issueTokens(c, user)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(c.Request.Context(), user.ID, models.AuditRegister, models.ResourceUser, user.ID, c.ClientIP(), nil)

	response.Success(c, http.StatusCreated, resp, "User registered successfully")
}

// Login handles user login
// @Summary     Login user
// @Description Authenticate a user and get a token pair
// @Tags        auth
// @Accept      json
// @Produce     json
// @Param       request body LoginRequest true "User login credentials"
// @Success     200 {object} AuthEnvelope "User authenticated and tokens issued"
// @Failure     400 {object} response.ErrorEnvelope "Validation failed"
// @Failure     401 {object} response.ErrorEnvelope "Invalid credentials"
// @Failure     500 {object} response.ErrorEnvelope "Server error"
// @Router      /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := bindJSON(c, &req); err != nil {
		respondWithError(c, err)
		return
	}
	req.Email = strings.TrimSpace(req.Email)
	if err := validator.Struct(req); err != nil {
		respondWithError(c, err)
		return
	}

	user, err := h.userService.AttemptLogin(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		respondWithError(c, err)
		return
	}

	resp, err := h.issueTokens(c, user)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(c.Request.Context(), user.ID, models.AuditLogin, models.ResourceUser, user.ID, c.ClientIP(), nil)

	response.Success(c, http.StatusOK, resp, "")
}

// Refresh exchanges a refresh token for a new token pair. Each refresh token
// is accepted once.
// @Summary     Refresh tokens
// @Tags        auth
// @Accept      json
// @Produce     json
// @Param       request body RefreshRequest true "Refresh token"
// @Success     200 {object} AuthEnvelope "New tokens issued"
// @Failure     400 {object} response.ErrorEnvelope "Validation failed"
// @Failure     401 {object} response.ErrorEnvelope "Invalid or reused refresh token"
// @Failure     500 {object} response.ErrorEnvelope "Server error"
// @Router      /auth/refresh [post]
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req RefreshRequest
	if err := bindJSON(c, &req); err != nil {
		respondWithError(c, err)
		return
	}
	if err := validator.Struct(req); err != nil {
		respondWithError(c, err)
		return
	}

	claims, err := h.tokens.ValidateRefreshToken(req.RefreshToken)
	if err != nil {
		respondWithError(c, apperrors.ErrInvalidToken)
		return
	}

	stored, err := h.userService.GetRefreshTokenHash(c.Request.Context(), claims.UserID)
	if err != nil {
		respondWithError(c, apperrors.ErrInvalidToken)
		return
	}
	presented := middleware.HashToken(req.RefreshToken)
	if stored == "" || subtle.ConstantTimeCompare([]byte(stored), []byte(presented)) != 1 {
		respondWithError(c, apperrors.ErrInvalidToken)
		return
	}

	user, err := h.userService.GetUserByID(c.Request.Context(), claims.UserID)
	if err != nil {
		respondWithError(c, apperrors.ErrInvalidToken)
		return
	}

	resp, err := h.issueTokens(c, user)
	if err != nil {
		respondWithError(c, err)
		return
	}

	response.Success(c, http.StatusOK, resp, "")
}

// GetProfile returns the user's profile
// @Summary     Get user profile
// @Description Get the authenticated user's profile information
// @Tags        user
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} response.Envelope{data=UserResponse} "User profile"
// @Failure     401 {object} response.ErrorEnvelope "Unauthorized"
// @Failure     404 {object} response.ErrorEnvelope "User not found"
// @Failure     500 {object} response.ErrorEnvelope "Server error"
// @Router      /profile [get]
func (h *AuthHandler) GetProfile(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	user, err := h.userService.GetUserByID(c.Request.Context(), userID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	response.Success(c, http.StatusOK, toUserResponse(user), "")
}
