// Package response renders the JSON envelope shared by every endpoint:
// {"status":"success","data":...,"message":...} on success and
// {"status":"error","code":...,"message":...,"errors":[...]} on failure.
package response

import (
	"errors"

	"github.com/gin-gonic/gin"

	apperrors "spendwise/internal/errors"
	"spendwise/internal/logger"
)

const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Envelope is the success response body.
type Envelope struct {
	Status  string `json:"status"`
	Data    any    `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
}

// ErrorEnvelope is the error response body.
type ErrorEnvelope struct {
	Status  string                     `json:"status"`
	Code    string                     `json:"code"`
	Message string                     `json:"message"`
	Errors  []apperrors.FieldViolation `json:"errors,omitempty"`
}

// Success writes a success envelope.
func Success(c *gin.Context, status int, data any, message string) {
	c.JSON(status, Envelope{Status: StatusSuccess, Data: data, Message: message})
}

// Error writes a consistent error envelope. AppErrors keep their status, code,
// message and violations; anything else is logged and becomes a generic 500.
func Error(c *gin.Context, err error) {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		if appErr.Internal != nil {
			logger.Get().Errorw("app error",
				"code", appErr.Code,
				"internal", appErr.Internal.Error(),
				"method", c.Request.Method,
				"path", c.Request.URL.Path,
			)
		}
		c.JSON(appErr.StatusCode, ErrorEnvelope{
			Status:  StatusError,
			Code:    appErr.Code,
			Message: appErr.Message,
			Errors:  appErr.Violations,
		})
		return
	}

	logger.Get().Errorw("unexpected error",
		"error", err.Error(),
		"method", c.Request.Method,
		"path", c.Request.URL.Path,
	)
	c.JSON(apperrors.ErrInternalServer.StatusCode, ErrorEnvelope{
		Status:  StatusError,
		Code:    apperrors.ErrInternalServer.Code,
		Message: apperrors.ErrInternalServer.Message,
	})
}

// Abort writes an error envelope and stops the handler chain.
func Abort(c *gin.Context, err error) {
	Error(c, err)
	c.Abort()
}
