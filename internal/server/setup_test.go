package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"spendwise/internal/config"
	"spendwise/internal/logger"
	"spendwise/internal/middleware"
	"spendwise/internal/notifier"
	"spendwise/internal/testutil"
	"spendwise/internal/validator"
)

// testApp holds the full application stack for full-stack tests.
type testApp struct {
	DB     *gorm.DB
	Hub    *notifier.Hub
	Router *gin.Engine
}

func init() {
	gin.SetMode(gin.TestMode)
	logger.Init("test")
	validator.Register()
}

// setupApp creates a full application stack backed by an isolated in-memory SQLite.
func setupApp(t *testing.T) *testApp {
	t.Helper()

	db := testutil.SetupTestDB(t)
	hub := notifier.NewHub(16)
	t.Cleanup(func() {
		hub.Close()
		testutil.TeardownTestDB(t, db)
	})

	router := NewRouter(Deps{
		DB:  db,
		Hub: hub,
		Tokens: middleware.NewTokenManager(config.JWTConfig{
			Secret:     "server-test-secret-with-enough-length",
			AccessTTL:  15 * time.Minute,
			RefreshTTL: time.Hour,
		}),
		KeepAlive: time.Minute,
	})

	return &testApp{DB: db, Hub: hub, Router: router}
}

// request makes an HTTP request to the test router and returns the recorder.
func (app *testApp) request(method, path, body, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	app.Router.ServeHTTP(rec, req)
	return rec
}

// parseJSON parses the response body into a map.
func parseJSON(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var result map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to parse JSON: %v\nbody: %s", err, rec.Body.String())
	}
	return result
}

// data returns the data object of a success envelope.
func data(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	result := parseJSON(t, rec)
	d, ok := result["data"].(map[string]interface{})
	if !ok {
		t.Fatalf("expected data object, got: %s", rec.Body.String())
	}
	return d
}

// registerUser registers a new user and returns the access token, refresh token, and user ID.
func (app *testApp) registerUser(t *testing.T, email, password string) (accessToken, refreshToken, userID string) {
	t.Helper()
	body := fmt.Sprintf(`{"email":%q,"password":%q,"name":"Test User"}`, email, password)
	rec := app.request("POST", "/api/auth/register", body, "")
	if rec.Code != http.StatusCreated {
		t.Fatalf("register failed: %d %s", rec.Code, rec.Body.String())
	}
	d := data(t, rec)
	user := d["user"].(map[string]interface{})
	return d["access_token"].(string), d["refresh_token"].(string), user["id"].(string)
}

// loginUser logs in and returns the access and refresh tokens.
func (app *testApp) loginUser(t *testing.T, email, password string) (accessToken, refreshToken string) {
	t.Helper()
	body := fmt.Sprintf(`{"email":%q,"password":%q}`, email, password)
	rec := app.request("POST", "/api/auth/login", body, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("login failed: %d %s", rec.Code, rec.Body.String())
	}
	d := data(t, rec)
	return d["access_token"].(string), d["refresh_token"].(string)
}

// createExpense creates an expense and returns its id.
func (app *testApp) createExpense(t *testing.T, token, description, amount, category, date string) string {
	t.Helper()
	body := fmt.Sprintf(`{"description":%q,"amount":%s,"category":%q,"date":%q}`, description, amount, category, date)
	rec := app.request("POST", "/api/expenses", body, token)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create expense failed: %d %s", rec.Code, rec.Body.String())
	}
	return data(t, rec)["id"].(string)
}
