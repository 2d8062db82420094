package errs

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFromStatus(t *testing.T) {
	tests := []struct {
		status int
		code   string
	}{
		{http.StatusConflict, CodeConflict},
		{http.StatusNotFound, CodeNotFound},
		{http.StatusUnauthorized, CodeUnauthorized},
		{http.StatusForbidden, CodeUnauthorized},
		{http.StatusBadRequest, CodeServer},
		{http.StatusInternalServerError, CodeServer},
	}

	for _, tt := range tests {
		err := FromStatus("op", tt.status, "")
		assert.Equal(t, tt.code, err.Code, "status %d", tt.status)
		assert.Equal(t, http.StatusText(tt.status), err.Message)
	}
}

func TestErrorMessageIncludesOpAndCause(t *testing.T) {
	cause := errors.New("invalid attribute name: bogus")
	err := Caller(cause).WithOp("[Shipment] Update")

	assert.Equal(t, "[Shipment] Update: caller error: invalid attribute name: bogus", err.Error())
	assert.ErrorIs(t, err, cause)
}

func TestClassifiersSeeThroughWrapping(t *testing.T) {
	err := fmt.Errorf("updating: %w", FromStatus("op", http.StatusConflict, "expected version doesn't match current version"))

	assert.True(t, IsConflict(err))
	assert.False(t, IsLocal(err))
	assert.True(t, IsLocal(fmt.Errorf("x: %w", Precondition(errors.New("no specimens")))))
	assert.False(t, IsCode(errors.New("plain"), CodeServer))
}

func TestUnauthorizedIsLocalOnlyBeforeSending(t *testing.T) {
	assert.True(t, IsLocal(Unusable("op", errors.New("token is expired"))))
	assert.False(t, IsLocal(FromStatus("op", http.StatusUnauthorized, "")))
	assert.False(t, IsLocal(FromStatus("op", http.StatusForbidden, "")))
}
