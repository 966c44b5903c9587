package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSentinelStatuses(t *testing.T) {
	cases := map[*Error]int{
		ErrInvalidCredentials: http.StatusUnauthorized,
		ErrInactiveAccount:    http.StatusForbidden,
		ErrNotFound:           http.StatusNotFound,
		ErrPermissionDenied:   http.StatusForbidden,
		ErrUnauthorized:       http.StatusUnauthorized,
		ErrConflict:           http.StatusConflict,
		ErrInvalidArgument:    http.StatusBadRequest,
		ErrValidation:         http.StatusBadRequest,
		ErrTooManyRequests:    http.StatusTooManyRequests,
		ErrUpstream:           http.StatusBadGateway,
		ErrCacheMiss:          http.StatusNotFound,
		ErrInternal:           http.StatusInternalServerError,
	}
	codes := map[string]bool{}
	for sentinel, status := range cases {
		assert.Equal(t, status, sentinel.Status, sentinel.Code)
		assert.False(t, codes[sentinel.Code], "duplicate code %s", sentinel.Code)
		codes[sentinel.Code] = true
	}
}

func TestCloneKeepsIdentity(t *testing.T) {
	err := Clone(ErrNotFound, "users not found")
	assert.Equal(t, "users not found", err.Message)
	assert.Equal(t, "resource not found", ErrNotFound.Message)
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.False(t, errors.Is(err, ErrPermissionDenied))

	wrapped := fmt.Errorf("load user: %w", err)
	assert.True(t, errors.Is(wrapped, ErrNotFound))
	assert.Same(t, err, FromError(wrapped))
}

func TestFromErrorDefaultsToInternal(t *testing.T) {
	assert.Nil(t, FromError(nil))

	cause := errors.New("connection reset")
	err := FromError(cause)
	require.NotNil(t, err)
	assert.Equal(t, ErrInternal.Code, err.Code)
	assert.Equal(t, http.StatusInternalServerError, err.Status)
	assert.True(t, errors.Is(err, cause))
	assert.Equal(t, "internal server error: connection reset", err.Error())
}

func TestWithDetails(t *testing.T) {
	err := WithDetails(ErrValidation, map[string]string{"username": "is required"})
	assert.Equal(t, "is required", err.Details["username"])
	assert.Empty(t, ErrValidation.Details)
	assert.Nil(t, WithDetails(nil, nil))
}
