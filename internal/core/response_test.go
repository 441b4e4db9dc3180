// AngelaMos | 2026
// response_test.go

package core

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSONErrorMapsSentinels(t *testing.T) {
	tests := []struct {
		err      error
		wantCode int
		wantTag  string
	}{
		{fmt.Errorf("get user: %w", ErrNotFound), http.StatusNotFound, "NOT_FOUND"},
		{fmt.Errorf("create: %w", ErrDuplicateKey), http.StatusConflict, "DUPLICATE"},
		{fmt.Errorf("body: %w", ErrValidation), http.StatusBadRequest, "VALIDATION_ERROR"},
		{fmt.Errorf("guard: %w", ErrUnauthorized), http.StatusUnauthorized, "UNAUTHORIZED"},
		{fmt.Errorf("guard: %w", ErrForbidden), http.StatusForbidden, "FORBIDDEN"},
		{fmt.Errorf("token: %w", ErrTokenRevoked), http.StatusUnauthorized, "TOKEN_REVOKED"},
		{errors.New("pq: connection reset"), http.StatusInternalServerError, "INTERNAL_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.wantTag, func(t *testing.T) {
			rec := httptest.NewRecorder()
			JSONError(rec, tt.err)

			assert.Equal(t, tt.wantCode, rec.Code)

			var body Response
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.False(t, body.Success)
			require.NotNil(t, body.Error)
			assert.Equal(t, tt.wantTag, body.Error.Code)
		})
	}
}

func TestInternalErrorsStayOpaque(t *testing.T) {
	rec := httptest.NewRecorder()
	InternalServerError(rec, errors.New("dial tcp 10.0.0.5:5432: refused"))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "10.0.0.5")
}

func TestFormatValidationError(t *testing.T) {
	type form struct {
		Username string `validate:"required,username"`
		Email    string `validate:"required,email"`
		Password string `validate:"min=8"`
	}

	err := NewValidator().Struct(form{Username: "1abc", Email: "nope", Password: "short"})
	require.Error(t, err)

	msg := FormatValidationError(err)
	assert.Contains(t, msg, "username may only contain")
	assert.Contains(t, msg, "email must be a valid email")
	assert.Contains(t, msg, "password must be at least 8 characters")
}

func TestUsernameTag(t *testing.T) {
	v := NewValidator()
	type form struct {
		Username string `validate:"username"`
	}

	assert.NoError(t, v.Struct(form{Username: "josé_99.x"}))
	assert.Error(t, v.Struct(form{Username: "_leading"}))
	assert.Error(t, v.Struct(form{Username: "has space"}))
}
