package utils

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHTTPStatus(t *testing.T) {
	cases := []struct {
		err    error
		status int
	}{
		{&ValidationError{Message: "bad input"}, http.StatusBadRequest},
		{&ConflictError{Message: "duplicate"}, http.StatusConflict},
		{&StateError{Message: "wrong state"}, http.StatusUnprocessableEntity},
		{&NotFoundError{Message: "missing"}, http.StatusNotFound},
		{&TransportError{Message: "smtp down"}, http.StatusBadGateway},
		{errors.New("anything else"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.status, HTTPStatus(tc.err), "for %T", tc.err)
	}
}

func TestHTTPStatusUnwrapsWrappedErrors(t *testing.T) {
	wrapped := fmt.Errorf("processing enrollment: %w", &ConflictError{Message: "duplicate"})
	assert.Equal(t, http.StatusConflict, HTTPStatus(wrapped))
}

func TestTransportErrorUnwrap(t *testing.T) {
	cause := errors.New("dial tcp: connection refused")
	err := &TransportError{Message: "failed to send email", Err: cause}
	assert.ErrorIs(t, err, cause)
}
