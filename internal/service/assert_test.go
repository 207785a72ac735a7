package service

import (
	"errors"
	"testing"

	"auctions/internal/models"
)

func assertAppError(t *testing.T, err error, code string) *models.AppError {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %s error, got nil", code)
	}
	var appErr *models.AppError
	if !errors.As(err, &appErr) {
		t.Fatalf("expected AppError, got %T (%v)", err, err)
	}
	if appErr.Code != code {
		t.Fatalf("expected code %s, got %s (%s)", code, appErr.Code, appErr.Message)
	}
	return appErr
}

func assertValidationError(t *testing.T, err error, message string) {
	t.Helper()
	appErr := assertAppError(t, err, models.CodeValidation)
	if message != "" && appErr.Message != message {
		t.Fatalf("expected message %q, got %q", message, appErr.Message)
	}
}
