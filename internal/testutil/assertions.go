package testutil

import (
	"errors"
	"testing"

	apperrors "spendwise/internal/errors"
)

// AssertAppError checks that err is an *AppError with the expected error code.
func AssertAppError(t *testing.T, err error, expectedCode string) {
	t.Helper()

	if err == nil {
		t.Fatalf("expected AppError with code %q, got nil", expectedCode)
	}

	var appErr *apperrors.AppError
	if !errors.As(err, &appErr) {
		t.Fatalf("expected *AppError, got %T: %v", err, err)
	}

	if appErr.Code != expectedCode {
		t.Errorf("expected error code %q, got %q (message: %s)", expectedCode, appErr.Code, appErr.Message)
	}
}

// AssertNoError fails the test if err is not nil.
func AssertNoError(t *testing.T, err error) {
	t.Helper()

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// AssertViolations checks that err is a validation failure naming exactly
// the given fields, in any order.
func AssertViolations(t *testing.T, err error, fields ...string) {
	t.Helper()
	AssertAppError(t, err, apperrors.ErrValidation.Code)

	var appErr *apperrors.AppError
	errors.As(err, &appErr)

	got := make(map[string]bool, len(appErr.Violations))
	for _, v := range appErr.Violations {
		got[v.Field] = true
	}
	if len(got) != len(fields) {
		t.Errorf("expected violations on %v, got %+v", fields, appErr.Violations)
		return
	}
	for _, f := range fields {
		if !got[f] {
			t.Errorf("expected a violation on %q, got %+v", f, appErr.Violations)
		}
	}
}
