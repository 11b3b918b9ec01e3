package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidationError(t *testing.T) {
	err := ValidationError("invalid input")

	assert.Equal(t, TypeValidation, err.Type)
	assert.Equal(t, "invalid input", err.Message)
	assert.Nil(t, err.Cause)
	assert.NotNil(t, err.Context)
	assert.Equal(t, http.StatusBadRequest, err.HTTPStatus())
	assert.Contains(t, err.Error(), "validation")
	assert.Contains(t, err.Error(), "invalid input")
}

func TestNotFoundError(t *testing.T) {
	err := NotFoundError("project not found")

	assert.Equal(t, TypeNotFound, err.Type)
	assert.Equal(t, http.StatusNotFound, err.HTTPStatus())
	assert.Contains(t, err.Error(), "not_found")
}

func TestConflictError(t *testing.T) {
	err := ConflictError("version has moved")

	assert.Equal(t, TypeConflict, err.Type)
	assert.Equal(t, http.StatusConflict, err.HTTPStatus())
	assert.Contains(t, err.Error(), "conflict")
}

func TestPreconditionError(t *testing.T) {
	err := PreconditionError("stale If-Match")

	assert.Equal(t, TypePrecondition, err.Type)
	assert.Equal(t, http.StatusPreconditionFailed, err.HTTPStatus())
	assert.Contains(t, err.Error(), "precondition")
}

func TestInternalError(t *testing.T) {
	cause := fmt.Errorf("database connection failed")
	err := InternalError("failed to save project", cause)

	assert.Equal(t, TypeInternal, err.Type)
	assert.Equal(t, cause, err.Cause)
	assert.Equal(t, http.StatusInternalServerError, err.HTTPStatus())
	assert.Contains(t, err.Error(), "database connection failed")
}

func TestInternalErrorWithoutCause(t *testing.T) {
	err := InternalError("something went wrong", nil)

	assert.Nil(t, err.Cause)
	assert.NotContains(t, err.Error(), "<nil>")
}

func TestWithField(t *testing.T) {
	err := ValidationError("invalid input").
		WithField("field", "progress").
		WithField("value", 2.5)

	assert.Len(t, err.Context, 2)
	assert.Equal(t, "progress", err.Context["field"])
	assert.Equal(t, 2.5, err.Context["value"])
}

func TestUnwrap(t *testing.T) {
	cause := fmt.Errorf("row scan failed")
	err := InternalError("query failed", cause)

	assert.True(t, errors.Is(err, cause))
}

func TestAsStructuredError(t *testing.T) {
	t.Run("nil stays nil", func(t *testing.T) {
		assert.Nil(t, AsStructuredError(nil))
	})

	t.Run("structured error passes through", func(t *testing.T) {
		original := NotFoundError("project not found")
		assert.Same(t, original, AsStructuredError(original))
	})

	t.Run("wrapped structured error is unwrapped", func(t *testing.T) {
		original := ConflictError("version has moved")
		wrapped := fmt.Errorf("apply bulk: %w", original)
		assert.Same(t, original, AsStructuredError(wrapped))
	})

	t.Run("plain error becomes internal", func(t *testing.T) {
		err := AsStructuredError(fmt.Errorf("boom"))
		require.NotNil(t, err)
		assert.Equal(t, TypeInternal, err.Type)
		assert.Equal(t, "internal server error", err.Message)
	})
}

func TestToResponse(t *testing.T) {
	err := PreconditionError("version has moved").
		WithField("expected", int64(3)).
		WithField("found", int64(5))

	resp := err.ToResponse()

	assert.Equal(t, "version has moved", resp.Error)
	assert.Equal(t, TypePrecondition, resp.Type)
	assert.Equal(t, int64(3), resp.Context["expected"])
}
