package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *AppError
		want string
	}{
		{
			name: "message only",
			err:  New(ErrCodeNotFound, "record 7 not found"),
			want: "record 7 not found",
		},
		{
			name: "message with cause",
			err:  Wrap(errors.New("dial tcp: refused"), ErrCodeUnavailable, "list objects"),
			want: "list objects: dial tcp: refused",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}

func TestWrap(t *testing.T) {
	cause := errors.New("boom")
	err := Wrapf(cause, ErrCodeInternal, "page %d", 3)
	require.NotNil(t, err)
	assert.Equal(t, "page 3: boom", err.Error())
	assert.ErrorIs(t, err, cause)
	assert.Nil(t, Wrap(nil, ErrCodeInternal, "x"))
}

func TestCodeHelpers(t *testing.T) {
	tests := []struct {
		err   error
		check func(error) bool
		code  ErrorCode
	}{
		{NotFoundf("file %q", "a.jl"), IsNotFound, ErrCodeNotFound},
		{Conflictf("review %d", 1), IsConflict, ErrCodeConflict},
		{Validation("page size must be positive"), IsValidation, ErrCodeValidation},
		{Validationf("bad scheme %q", "gs"), IsValidation, ErrCodeValidation},
		{New(ErrCodeForeignKey, "fk"), IsForeignKey, ErrCodeForeignKey},
		{New(ErrCodeUnavailable, "down"), IsUnavailable, ErrCodeUnavailable},
		{New(ErrCodeTimeout, "slow"), IsTimeout, ErrCodeTimeout},
		{New(ErrCodeCanceled, "stop"), IsCanceled, ErrCodeCanceled},
		{Internalf("unexpected %s", "state"), func(err error) bool { return HasCode(err, ErrCodeInternal) }, ErrCodeInternal},
	}
	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			assert.True(t, tt.check(tt.err))
			assert.True(t, tt.check(fmt.Errorf("outer: %w", tt.err)), "wrapped")
			assert.Equal(t, tt.code, GetCode(tt.err))
		})
	}

	plain := errors.New("plain")
	assert.False(t, IsNotFound(plain))
	assert.Empty(t, GetCode(plain))
	assert.Empty(t, GetField(plain))
}

func TestValidationField(t *testing.T) {
	err := ValidationField("uri", "scheme must be s3 or s3a")
	assert.True(t, IsValidation(err))
	assert.Equal(t, "uri", GetField(fmt.Errorf("parse: %w", err)))
}
