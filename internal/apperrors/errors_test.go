package apperrors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorFormatting(t *testing.T) {
	err := New(CodeConnection, "database unreachable")
	assert.Equal(t, "connection_error: database unreachable", err.Error())

	wrapped := Wrap(CodeQueryExecution, "query failed", errors.New("syntax error at or near \"SELEC\""))
	assert.Equal(t, `query_execution_error: query failed: syntax error at or near "SELEC"`, wrapped.Error())
}

func TestUnwrap(t *testing.T) {
	cause := errors.New("dial tcp: connection refused")
	err := Wrap(CodeConnection, "could not reach database", cause)

	assert.ErrorIs(t, err, cause)
	assert.ErrorIs(t, fmt.Errorf("answering question: %w", err), cause)
}

func TestCodeOf(t *testing.T) {
	err := New(CodeModelUnavailable, "model not pulled")
	assert.Equal(t, CodeModelUnavailable, CodeOf(err))
	assert.Equal(t, CodeModelUnavailable, CodeOf(fmt.Errorf("outer: %w", err)))
	assert.Equal(t, Code(""), CodeOf(errors.New("plain")))
	assert.Equal(t, Code(""), CodeOf(nil))
}

func TestIs(t *testing.T) {
	err := Wrap(CodeGeneration, "empty completion", nil)
	assert.True(t, Is(err, CodeGeneration))
	assert.False(t, Is(err, CodeConnection))
	assert.False(t, Is(errors.New("plain"), CodeGeneration))
}

func TestHTTPStatus(t *testing.T) {
	cases := []struct {
		code Code
		want int
	}{
		{CodeConfiguration, http.StatusInternalServerError},
		{CodeConnection, http.StatusBadGateway},
		{CodeModelUnavailable, http.StatusServiceUnavailable},
		{CodeQueryExecution, http.StatusBadGateway},
		{CodeGeneration, http.StatusBadGateway},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, HTTPStatus(New(tc.code, "x")), string(tc.code))
	}
	assert.Equal(t, http.StatusInternalServerError, HTTPStatus(errors.New("plain")))
}
