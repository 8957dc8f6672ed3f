package domainerrors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHasCode(t *testing.T) {
	t.Run("matches nested coded errors", func(t *testing.T) {
		inner := New(CodeBackendContract, "bad envelope")
		outer := Wrap(inner, CodeInternal, "submit failed")
		assert.True(t, HasCode(outer, CodeBackendContract))
		assert.True(t, HasCode(outer, CodeInternal))
		assert.False(t, HasCode(outer, CodeValidation))
	})

	t.Run("sees through fmt wrapping", func(t *testing.T) {
		err := fmt.Errorf("context: %w", New(CodeTransport, "timeout"))
		assert.True(t, HasCode(err, CodeTransport))
		assert.Equal(t, CodeTransport, CodeOf(err))
	})

	t.Run("plain errors carry no code", func(t *testing.T) {
		err := errors.New("boom")
		assert.False(t, HasCode(err, CodeInternal))
		assert.Equal(t, CodeInternal, CodeOf(err))
	})
}

func TestWrapNil(t *testing.T) {
	assert.NoError(t, Wrap(nil, CodeInternal, "nothing"))
}

func TestRetryableAndFatal(t *testing.T) {
	assert.True(t, Retryable(New(CodeTransport, "x")))
	assert.True(t, Retryable(New(CodeBusinessRejection, "x")))
	assert.False(t, Retryable(New(CodeValidation, "x")))
	assert.False(t, Retryable(New(CodeBackendContract, "x")))

	assert.True(t, Fatal(New(CodeIdentityMismatch, "x")))
	assert.True(t, Fatal(New(CodeNotInitialized, "x")))
	assert.False(t, Fatal(New(CodeBusinessRejection, "x")))
}

func TestToHTTPStatus(t *testing.T) {
	cases := map[Code]int{
		CodeValidation:        http.StatusBadRequest,
		CodeGateClosed:        http.StatusConflict,
		CodeInFlight:          http.StatusConflict,
		CodeBusinessRejection: http.StatusUnprocessableEntity,
		CodeTransport:         http.StatusBadGateway,
		CodeBackendContract:   http.StatusInternalServerError,
		CodeNotFound:          http.StatusNotFound,
	}
	for code, want := range cases {
		assert.Equal(t, want, ToHTTPStatus(code), string(code))
	}
}
