package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestConstructors(t *testing.T) {
	cause := errors.New("boom")
	tests := []struct {
		err        *AppError
		wantType   ErrorType
		wantStatus int
	}{
		{NewValidationError("bad", cause), ErrorTypeValidation, http.StatusBadRequest},
		{NewNetworkError("net", cause), ErrorTypeNetwork, http.StatusBadGateway},
		{NewProcessingError("proc", cause), ErrorTypeProcessing, http.StatusUnprocessableEntity},
		{NewTimeoutError("slow", cause), ErrorTypeTimeout, http.StatusGatewayTimeout},
		{NewInternalError("oops", cause), ErrorTypeInternal, http.StatusInternalServerError},
		{NewNotFoundError("gone", cause), ErrorTypeNotFound, http.StatusNotFound},
		{NewUnanalyzableError("corrupt", cause), ErrorTypeUnanalyzable, http.StatusUnprocessableEntity},
	}

	for _, tt := range tests {
		if tt.err.Type != tt.wantType {
			t.Errorf("Expected type %s, got %s", tt.wantType, tt.err.Type)
		}
		if tt.err.StatusCode != tt.wantStatus {
			t.Errorf("Expected status %d for %s, got %d", tt.wantStatus, tt.wantType, tt.err.StatusCode)
		}
		if !errors.Is(tt.err, cause) {
			t.Errorf("Expected %s to unwrap to its cause", tt.wantType)
		}
	}
}

func TestWrappedAppErrors(t *testing.T) {
	wrapped := fmt.Errorf("scoring: %w", NewUnanalyzableError("corrupt image", nil))

	if !IsType(wrapped, ErrorTypeUnanalyzable) {
		t.Error("Expected wrapped error to keep its type")
	}
	if GetStatusCode(wrapped) != http.StatusUnprocessableEntity {
		t.Errorf("Expected 422, got %d", GetStatusCode(wrapped))
	}
	if GetStatusCode(errors.New("plain")) != http.StatusInternalServerError {
		t.Error("Expected plain errors to map to 500")
	}
}

func TestErrorString(t *testing.T) {
	if got := NewValidationError("bad input", nil).Error(); got != "validation: bad input" {
		t.Errorf("Unexpected message %q", got)
	}
	if got := NewNetworkError("fetch", errors.New("refused")).Error(); got != "network: fetch (caused by: refused)" {
		t.Errorf("Unexpected message %q", got)
	}
}
