package domainerrors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHasCode(t *testing.T) {
	err := New(CodeDuplicatePayment, "payment already recorded")
	assert.True(t, HasCode(err, CodeDuplicatePayment))
	assert.False(t, HasCode(err, CodeNotFound))

	wrapped := fmt.Errorf("command failed: %w", err)
	assert.True(t, HasCode(wrapped, CodeDuplicatePayment))

	assert.False(t, HasCode(errors.New("plain"), CodeDuplicatePayment))
}

func TestCodeOf(t *testing.T) {
	assert.Equal(t, CodeWeakPassword, CodeOf(New(CodeWeakPassword, "too short")))
	assert.Equal(t, CodeInternal, CodeOf(errors.New("driver: bad connection")))
}

func TestWrapPreservesCause(t *testing.T) {
	cause := errors.New("pq: unique violation")
	err := Wrap(cause, CodeDuplicateCallSign, "call sign already exists")
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "call sign already exists")
}

func TestToHTTPStatus(t *testing.T) {
	cases := map[Code]int{
		CodeValidation:        http.StatusBadRequest,
		CodeInvalidDate:       http.StatusBadRequest,
		CodeWeakPassword:      http.StatusBadRequest,
		CodeNotFound:          http.StatusNotFound,
		CodeDuplicateCallSign: http.StatusConflict,
		CodeDuplicateEmail:    http.StatusConflict,
		CodeDuplicatePayment:  http.StatusConflict,
		CodePasswordMismatch:  http.StatusUnauthorized,
		CodeForbidden:         http.StatusForbidden,
		CodeInternal:          http.StatusInternalServerError,
		Code("unknown"):       http.StatusInternalServerError,
	}
	for code, want := range cases {
		assert.Equal(t, want, ToHTTPStatus(code), "code %s", code)
	}
}
