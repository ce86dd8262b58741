package middleware

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"spendwise/internal/config"
	apperrors "spendwise/internal/errors"
	"spendwise/internal/models"
	"spendwise/internal/response"
)

const (
	issuer = "spendwise-api"

	tokenTypeAccess  = "access"
	tokenTypeRefresh = "refresh"

	// UserIDKey is the gin context key holding the authenticated user id.
	UserIDKey = "userID"
	emailKey  = "email"
)

// JWTClaims represents the claims in the JWT
type JWTClaims struct {
	UserID    string `json:"user_id"`
	Email     string `json:"email"`
	TokenType string `json:"token_type"`
	jwt.RegisteredClaims
}

// TokenManager issues and verifies access and refresh tokens.
type TokenManager struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

// NewTokenManager creates a TokenManager from JWT settings.
func NewTokenManager(cfg config.JWTConfig) *TokenManager {
	return &TokenManager{
		secret:     []byte(cfg.Secret),
		accessTTL:  cfg.AccessTTL,
		refreshTTL: cfg.RefreshTTL,
		now:        time.Now,
	}
}

// GenerateAccessToken generates a short-lived JWT access token for a user.
func (m *TokenManager) GenerateAccessToken(user *models.User) (string, error) {
	return m.sign(user, tokenTypeAccess, m.accessTTL)
}

// GenerateRefreshToken generates a long-lived JWT refresh token for a user.
func (m *TokenManager) GenerateRefreshToken(user *models.User) (string, error) {
	return m.sign(user, tokenTypeRefresh, m.refreshTTL)
}

func (m *TokenManager) sign(user *models.User, tokenType string, ttl time.Duration) (string, error) {
	now := m.now()
	claims := &JWTClaims{
		UserID:    user.ID,
		Email:     user.Email,
		TokenType: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    issuer,
			Subject:   user.ID,
			// Distinguishes tokens issued within the same second.
			ID: fmt.Sprintf("%d", now.UnixNano()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.secret)
}

func (m *TokenManager) parse(tokenString string) (*JWTClaims, error) {
	claims := &JWTClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return m.secret, nil
	}, jwt.WithIssuer(issuer), jwt.WithTimeFunc(m.now))
	if err != nil || !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}
	if claims.UserID == "" {
		return nil, fmt.Errorf("token has no subject")
	}
	return claims, nil
}

// ValidateAccessToken parses an access token. Refresh tokens are rejected.
func (m *TokenManager) ValidateAccessToken(tokenString string) (*JWTClaims, error) {
	claims, err := m.parse(tokenString)
	if err != nil {
		return nil, err
	}
	if claims.TokenType != tokenTypeAccess {
		return nil, fmt.Errorf("token is not an access token")
	}
	return claims, nil
}

// ValidateRefreshToken parses and validates a refresh token JWT.
// Returns the claims if valid, or an error if the token is invalid,
// expired, or not a refresh token.
func (m *TokenManager) ValidateRefreshToken(tokenString string) (*JWTClaims, error) {
	claims, err := m.parse(tokenString)
	if err != nil {
		return nil, err
	}
	if claims.TokenType != tokenTypeRefresh {
		return nil, fmt.Errorf("token is not a refresh token")
	}
	return claims, nil
}

// HashToken returns the SHA-256 hex digest of a token string.
func HashToken(token string) string {
	h := sha256.Sum256([]byte(token))
	return hex.EncodeToString(h[:])
}

// AuthMiddleware verifies the bearer token and sets the user in the context.
func AuthMiddleware(tm *TokenManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			response.Abort(c, apperrors.WithMessage(apperrors.ErrUnauthorized, "Authorization header is required"))
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			response.Abort(c, apperrors.WithMessage(apperrors.ErrUnauthorized, "Invalid authorization header format"))
			return
		}

		authenticate(c, tm, parts[1])
	}
}

// StreamAuthMiddleware authenticates long-lived event streams. Browsers'
// EventSource cannot set headers, so the access token may also arrive in
// the access_token query parameter.
func StreamAuthMiddleware(tm *TokenManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token := c.Query("access_token"); token != "" {
			authenticate(c, tm, token)
			return
		}
		AuthMiddleware(tm)(c)
	}
}

func authenticate(c *gin.Context, tm *TokenManager, tokenString string) {
	claims, err := tm.ValidateAccessToken(tokenString)
	if err != nil {
		response.Abort(c, apperrors.ErrInvalidToken)
		return
	}

	c.Set(UserIDKey, claims.UserID)
	c.Set(emailKey, claims.Email)
	c.Next()
}
