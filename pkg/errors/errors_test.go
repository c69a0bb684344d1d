package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppError_HTTPStatus(t *testing.T) {
	tests := []struct {
		err  *AppError
		want int
	}{
		{NewValidationError("bad"), http.StatusBadRequest},
		{NewMethodNotAllowedError(http.MethodPost), http.StatusMethodNotAllowed},
		{NewNotFoundError("missing"), http.StatusNotFound},
		{NewExternalError("upstream", stderrors.New("boom")), http.StatusInternalServerError},
		{NewInternalError("oops", nil), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(string(tt.err.Type), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.HTTPStatus())
		})
	}
}

func TestAppError_WrapsCause(t *testing.T) {
	cause := stderrors.New("connection refused")
	err := fmt.Errorf("fetch: %w", NewExternalError("registry unavailable", cause))

	appErr, ok := As(err)
	require.True(t, ok)
	assert.Equal(t, ErrorTypeExternal, appErr.Type)
	assert.ErrorIs(t, err, cause)
	assert.True(t, IsType(err, ErrorTypeExternal))
	assert.False(t, IsType(err, ErrorTypeValidation))
	assert.Equal(t, "EXTERNAL: registry unavailable: connection refused", appErr.Error())
}

func TestAs_PlainError(t *testing.T) {
	_, ok := As(stderrors.New("plain"))
	assert.False(t, ok)
	assert.False(t, IsType(nil, ErrorTypeInternal))
}
