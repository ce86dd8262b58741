package middleware

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"spendwise/internal/config"
	apperrors "spendwise/internal/errors"
	"spendwise/internal/models"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func testTokenManager() *TokenManager {
	return NewTokenManager(config.JWTConfig{
		Secret:     "test-secret",
		AccessTTL:  15 * time.Minute,
		RefreshTTL: time.Hour,
	})
}

func testUser() *models.User {
	return &models.User{
		Base:  models.Base{ID: "0190d2a4-7b1c-7c3e-9a41-6f1f2d3c4b5a"},
		Email: "alice@example.com",
	}
}

func setupAuthRouter(mw gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	r.Use(mw)
	r.GET("/test", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"user_id": c.GetString(UserIDKey)})
	})
	return r
}

func doRequest(r *gin.Engine, target, authHeader string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, target, http.NoBody)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func parseBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var result map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to parse response body: %v", err)
	}
	return result
}

func TestAuthMiddleware(t *testing.T) {
	tm := testTokenManager()
	user := testUser()

	access, err := tm.GenerateAccessToken(user)
	if err != nil {
		t.Fatalf("failed to generate access token: %v", err)
	}
	refresh, err := tm.GenerateRefreshToken(user)
	if err != nil {
		t.Fatalf("failed to generate refresh token: %v", err)
	}
	other := NewTokenManager(config.JWTConfig{Secret: "other", AccessTTL: time.Minute, RefreshTTL: time.Minute})
	foreign, err := other.GenerateAccessToken(user)
	if err != nil {
		t.Fatalf("failed to generate token: %v", err)
	}

	tests := []struct {
		name       string
		header     string
		wantStatus int
		wantCode   string
	}{
		{"valid_token", "Bearer " + access, http.StatusOK, ""},
		{"missing_header", "", http.StatusUnauthorized, "UNAUTHORIZED"},
		{"wrong_scheme", "Token " + access, http.StatusUnauthorized, "UNAUTHORIZED"},
		{"garbage_token", "Bearer not-a-jwt", http.StatusUnauthorized, "INVALID_TOKEN"},
		{"refresh_token_rejected", "Bearer " + refresh, http.StatusUnauthorized, "INVALID_TOKEN"},
		{"wrong_secret", "Bearer " + foreign, http.StatusUnauthorized, "INVALID_TOKEN"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doRequest(setupAuthRouter(AuthMiddleware(tm)), "/test", tt.header)

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}

			body := parseBody(t, rec)
			if tt.wantCode == "" {
				if body["user_id"] != user.ID {
					t.Errorf("expected user_id %s in context, got %v", user.ID, body["user_id"])
				}
				return
			}
			if body["status"] != "error" {
				t.Errorf("expected error envelope, got %v", body)
			}
			if body["code"] != tt.wantCode {
				t.Errorf("code = %v, want %s", body["code"], tt.wantCode)
			}
		})
	}
}

func TestAuthMiddleware_ExpiredToken(t *testing.T) {
	tm := testTokenManager()
	tm.now = func() time.Time { return time.Now().Add(-time.Hour) }

	token, err := tm.GenerateAccessToken(testUser())
	if err != nil {
		t.Fatalf("failed to generate token: %v", err)
	}

	tm.now = time.Now
	rec := doRequest(setupAuthRouter(AuthMiddleware(tm)), "/test", "Bearer "+token)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestStreamAuthMiddleware(t *testing.T) {
	tm := testTokenManager()
	token, err := tm.GenerateAccessToken(testUser())
	if err != nil {
		t.Fatalf("failed to generate token: %v", err)
	}
	r := setupAuthRouter(StreamAuthMiddleware(tm))

	if rec := doRequest(r, "/test?access_token="+token, ""); rec.Code != http.StatusOK {
		t.Errorf("query token: status = %d, want 200", rec.Code)
	}
	if rec := doRequest(r, "/test", "Bearer "+token); rec.Code != http.StatusOK {
		t.Errorf("header token: status = %d, want 200", rec.Code)
	}
	if rec := doRequest(r, "/test?access_token=bad", ""); rec.Code != http.StatusUnauthorized {
		t.Errorf("bad query token: status = %d, want 401", rec.Code)
	}
	if rec := doRequest(r, "/test", ""); rec.Code != http.StatusUnauthorized {
		t.Errorf("no token: status = %d, want 401", rec.Code)
	}
}

func TestValidateRefreshToken(t *testing.T) {
	tm := testTokenManager()
	user := testUser()

	refresh, err := tm.GenerateRefreshToken(user)
	if err != nil {
		t.Fatalf("failed to generate token: %v", err)
	}
	claims, err := tm.ValidateRefreshToken(refresh)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if claims.UserID != user.ID || claims.Email != user.Email {
		t.Errorf("unexpected claims %+v", claims)
	}

	access, err := tm.GenerateAccessToken(user)
	if err != nil {
		t.Fatalf("failed to generate token: %v", err)
	}
	if _, err := tm.ValidateRefreshToken(access); err == nil {
		t.Error("expected access token to be rejected as refresh token")
	}
}

func TestHashToken(t *testing.T) {
	h := HashToken("abc")
	if len(h) != 64 {
		t.Errorf("expected 64 hex chars, got %d", len(h))
	}
	if h != HashToken("abc") || h == HashToken("abd") {
		t.Error("hash should be deterministic and input-sensitive")
	}
}

func TestErrorHandler(t *testing.T) {
	r := gin.New()
	r.Use(ErrorHandler())
	r.GET("/app", func(c *gin.Context) {
		_ = c.Error(apperrors.ErrExpenseNotFound)
	})
	r.GET("/unexpected", func(c *gin.Context) {
		_ = c.Error(errors.New("db exploded"))
	})
	r.GET("/written", func(c *gin.Context) {
		c.JSON(http.StatusTeapot, gin.H{"ok": true})
		_ = c.Error(errors.New("late"))
	})

	rec := doRequest(r, "/app", "")
	if rec.Code != http.StatusNotFound || parseBody(t, rec)["code"] != "EXPENSE_NOT_FOUND" {
		t.Errorf("app error: got %d %s", rec.Code, rec.Body.String())
	}

	rec = doRequest(r, "/unexpected", "")
	body := parseBody(t, rec)
	if rec.Code != http.StatusInternalServerError || body["code"] != "INTERNAL_ERROR" {
		t.Errorf("unexpected error: got %d %s", rec.Code, rec.Body.String())
	}
	if body["message"] == "db exploded" {
		t.Error("internal detail leaked to client")
	}

	rec = doRequest(r, "/written", "")
	if rec.Code != http.StatusTeapot {
		t.Errorf("written response overridden: got %d", rec.Code)
	}
}
