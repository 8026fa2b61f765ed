package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAsAppError_ThroughWrapping(t *testing.T) {
	base := NewInsufficientStock("product", "p-1", 100, 8)
	wrapped := fmt.Errorf("apply global: %w", base)

	appErr, ok := AsAppError(wrapped)
	require.True(t, ok)
	assert.Equal(t, CodeInsufficientStock, appErr.Code)
	assert.Equal(t, int64(100), appErr.Details["requested"])
	assert.Equal(t, int64(8), appErr.Details["available"])
	assert.Equal(t, "p-1", appErr.Details["product_id"])
	assert.True(t, IsInsufficientStock(wrapped))
	assert.Equal(t, http.StatusUnprocessableEntity, GetHTTPStatus(wrapped))
}

func TestNewTransaction_KeepsCause(t *testing.T) {
	cause := errors.New("serialization failure")
	err := NewTransaction(cause)

	assert.Equal(t, CodeTransaction, err.Code)
	assert.Equal(t, http.StatusConflict, err.HTTPStatus)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "serialization failure")
}

func TestWithDetail(t *testing.T) {
	err := NewInvariantViolation("remaining quantity exceeds initial").
		WithDetail("batch_id", "b-1").
		WithDetail("line", 2)

	assert.True(t, IsInvariantViolation(err))
	assert.Equal(t, "b-1", err.Details["batch_id"])
	assert.Equal(t, 2, err.Details["line"])
}

func TestGetHTTPStatus_PlainError(t *testing.T) {
	assert.Equal(t, http.StatusInternalServerError, GetHTTPStatus(errors.New("boom")))
	assert.False(t, IsNotFound(errors.New("boom")))
}
