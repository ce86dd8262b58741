package handlers

import (
	"encoding/json"
	"errors"
	"io"

	"github.com/gin-gonic/gin"

	apperrors "spendwise/internal/errors"
	"spendwise/internal/middleware"
	"spendwise/internal/response"
	"spendwise/internal/validator"
)

// getUserID extracts the authenticated user ID from the Gin context.
// Returns ErrUnauthorized if not present.
func getUserID(c *gin.Context) (string, error) {
	userID, ok := c.Get(middleware.UserIDKey)
	if !ok {
		return "", apperrors.ErrUnauthorized
	}
	id, ok := userID.(string)
	if !ok || id == "" {
		return "", apperrors.ErrUnauthorized
	}
	return id, nil
}

// parsePathID reads a record id path parameter. Malformed ids are rejected
// before any lookup.
//
//nolint:unparam // param is intentionally generic for reuse across handlers with different path params
func parsePathID(c *gin.Context, param string) (string, error) {
	id := c.Param(param)
	if err := validator.ID(param, id); err != nil {
		return "", err
	}
	return id, nil
}

// bindJSON decodes the request body into obj. Numbers are kept as
// json.Number so amounts are validated from their literal text. The body
// must hold exactly one JSON value.
func bindJSON(c *gin.Context, obj any) error {
	if c.Request.Body == nil {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "Request body is required")
	}
	dec := json.NewDecoder(c.Request.Body)
	dec.UseNumber()
	if err := dec.Decode(obj); err != nil {
		var typeErr *json.UnmarshalTypeError
		switch {
		case errors.Is(err, io.EOF):
			return apperrors.WithMessage(apperrors.ErrInvalidInput, "Request body is required")
		case errors.As(err, &typeErr) && typeErr.Field != "":
			return apperrors.WithViolations(apperrors.ErrValidation, []apperrors.FieldViolation{
				{Field: typeErr.Field, Message: typeErr.Field + " must be a " + typeErr.Type.String()},
			})
		default:
			return apperrors.WithMessage(apperrors.ErrInvalidInput, "Malformed JSON body")
		}
	}
	var extra json.RawMessage
	if err := dec.Decode(&extra); !errors.Is(err, io.EOF) {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "Malformed JSON body")
	}
	return nil
}

// respondWithError writes the error envelope for err.
func respondWithError(c *gin.Context, err error) {
	response.Error(c, err)
}
