package errors

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetHTTPStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"not found", NewNotFoundError("Record", "42"), http.StatusNotFound},
		{"wrapped not found", fmt.Errorf("show: %w", NewNotFoundError("Record", "42")), http.StatusNotFound},
		{"validation", NewValidationError("start", "must be a number"), http.StatusBadRequest},
		{"unauthorized", NewUnauthorizedError("missing token"), http.StatusUnauthorized},
		{"permission", NewPermissionError("import", "Contact"), http.StatusForbidden},
		{"conflict", NewConflictError("Registry page", "URLSegment", "contacts"), http.StatusConflict},
		{"internal", NewInternalError("query failed", fmt.Errorf("boom")), http.StatusInternalServerError},
		{"plain", fmt.Errorf("plain"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, GetHTTPStatus(tt.err))
		})
	}
}

func TestErrorMessages(t *testing.T) {
	assert.Equal(t, "Record with ID '7' not found", NewNotFoundError("Record", "7").Error())
	assert.Equal(t, "Registry page not found", NewNotFoundError("Registry page", "").Error())
	assert.Equal(t, "Registry page already exists with URLSegment='contacts'",
		NewConflictError("Registry page", "URLSegment", "contacts").Error())
}

func TestToResponse(t *testing.T) {
	resp := ToResponse(NewValidationError("body", "bad csv"))
	assert.Equal(t, "VALIDATION_ERROR", resp.Code)
	assert.Contains(t, resp.Message, "bad csv")

	assert.Equal(t, "UNKNOWN_ERROR", ToResponse(fmt.Errorf("x")).Code)
	assert.True(t, IsNotFound(fmt.Errorf("wrap: %w", NewNotFoundError("a", "b"))))
	assert.False(t, IsConflict(NewNotFoundError("a", "b")))
	assert.False(t, IsConflict(fmt.Errorf("plain")))
}

func TestInternalErrorUnwraps(t *testing.T) {
	cause := fmt.Errorf("disk full")
	err := fmt.Errorf("listing: %w", NewInternalError("query failed", cause))

	assert.ErrorIs(t, err, cause)
	assert.True(t, IsInternal(err))
	assert.Equal(t, "listing: internal error: query failed: disk full", err.Error())

	kind, ok := KindOf(err)
	assert.True(t, ok)
	assert.Equal(t, KindInternal, kind)

	_, ok = KindOf(cause)
	assert.False(t, ok)
}
