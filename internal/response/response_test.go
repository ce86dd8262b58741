package response

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	apperrors "spendwise/internal/errors"
	"spendwise/internal/logger"
)

func init() {
	gin.SetMode(gin.TestMode)
	logger.Init("test")
}

func render(t *testing.T, fn func(c *gin.Context)) (int, map[string]interface{}) {
	t.Helper()
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/x", http.NoBody)
	fn(c)

	var body map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to parse body: %v\nbody: %s", err, rec.Body.String())
	}
	return rec.Code, body
}

func TestSuccess(t *testing.T) {
	code, body := render(t, func(c *gin.Context) {
		Success(c, http.StatusCreated, gin.H{"id": "abc"}, "Expense created")
	})

	if code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", code)
	}
	if body["status"] != "success" {
		t.Errorf("expected status success, got %v", body["status"])
	}
	if body["message"] != "Expense created" {
		t.Errorf("unexpected message %v", body["message"])
	}
	data := body["data"].(map[string]interface{})
	if data["id"] != "abc" {
		t.Errorf("unexpected data %v", data)
	}
}

func TestError(t *testing.T) {
	t.Run("app error keeps status and violations", func(t *testing.T) {
		err := apperrors.WithViolations(apperrors.ErrValidation, []apperrors.FieldViolation{
			{Field: "amount", Message: "amount must be a non-negative number"},
			{Field: "date", Message: "date is required"},
		})
		code, body := render(t, func(c *gin.Context) { Error(c, err) })

		if code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", code)
		}
		if body["status"] != "error" || body["code"] != "VALIDATION_FAILED" {
			t.Errorf("unexpected envelope %v", body)
		}
		violations := body["errors"].([]interface{})
		if len(violations) != 2 {
			t.Errorf("expected 2 violations, got %d", len(violations))
		}
	})

	t.Run("wrapped internal detail is hidden", func(t *testing.T) {
		err := apperrors.Wrap(apperrors.ErrInternalServer, fmt.Errorf("pq: connection refused"))
		code, body := render(t, func(c *gin.Context) { Error(c, err) })

		if code != http.StatusInternalServerError {
			t.Fatalf("expected 500, got %d", code)
		}
		if body["message"] != apperrors.ErrInternalServer.Message {
			t.Errorf("internal detail leaked: %v", body["message"])
		}
	})

	t.Run("plain error becomes generic 500", func(t *testing.T) {
		code, body := render(t, func(c *gin.Context) { Error(c, fmt.Errorf("boom")) })

		if code != http.StatusInternalServerError {
			t.Fatalf("expected 500, got %d", code)
		}
		if body["code"] != "INTERNAL_ERROR" {
			t.Errorf("expected INTERNAL_ERROR, got %v", body["code"])
		}
		if _, ok := body["errors"]; ok {
			t.Error("did not expect errors field")
		}
	})
}
