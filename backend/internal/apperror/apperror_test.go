package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestKindHTTPStatus(t *testing.T) {
	tests := []struct {
		err      error
		expected int
	}{
		{Validation("bad"), http.StatusBadRequest},
		{Conflict("dup"), http.StatusBadRequest},
		{InvalidCredentials(), http.StatusBadRequest},
		{Unauthenticated("no token"), http.StatusUnauthorized},
		{Forbidden("nope"), http.StatusForbidden},
		{NotFound("gone"), http.StatusNotFound},
		{Internal("boom", errors.New("db down")), http.StatusInternalServerError},
		{errors.New("plain"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		if got := KindOf(tt.err).HTTPStatus(); got != tt.expected {
			t.Errorf("HTTPStatus for %v = %d, expected %d", tt.err, got, tt.expected)
		}
	}
}

func TestKindOf_Wrapped(t *testing.T) {
	err := fmt.Errorf("loading task: %w", NotFound("task not found"))

	if !Is(err, KindNotFound) {
		t.Errorf("Expected wrapped error to be not found, got %v", KindOf(err))
	}
	if Is(nil, KindInternal) {
		t.Error("Expected nil error not to match any kind")
	}
}

func TestPublicMessage(t *testing.T) {
	if msg := PublicMessage(Forbidden("not allowed")); msg != "not allowed" {
		t.Errorf("Expected 'not allowed', got %s", msg)
	}
	if msg := PublicMessage(Internal("query failed", errors.New("secret detail"))); msg != "internal server error" {
		t.Errorf("Expected internal errors to be hidden, got %s", msg)
	}
}

func TestInternalUnwrap(t *testing.T) {
	cause := errors.New("connection reset")
	err := Internal("saving task", cause)

	if !errors.Is(err, cause) {
		t.Error("Expected internal error to unwrap to its cause")
	}
}
