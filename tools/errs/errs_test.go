package errs

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWithDetailKeepsSentinelIdentity(t *testing.T) {
	err := ErrNotFound.WithDetail("comment 42")
	require.ErrorIs(t, err, ErrNotFound)
	require.NotErrorIs(t, err, ErrForbidden)
	require.Contains(t, err.Error(), "comment 42")
}

func TestUpstreamWrapsCause(t *testing.T) {
	err := Upstream(errors.New("dial tcp: refused"), "comment insert")
	require.ErrorIs(t, err, ErrUpstream)
	require.Contains(t, err.Error(), "comment insert: dial tcp: refused")
	require.Nil(t, Upstream(nil, "noop"))
}

func TestHTTPStatus(t *testing.T) {
	require.Equal(t, http.StatusUnauthorized, HTTPStatus(ErrUnauthorized))
	require.Equal(t, http.StatusForbidden, HTTPStatus(ErrForbidden))
	require.Equal(t, http.StatusNotFound, HTTPStatus(ErrNotFound.WithDetail("x")))
	require.Equal(t, http.StatusBadRequest, HTTPStatus(ErrValidation))
	require.Equal(t, http.StatusBadGateway, HTTPStatus(ErrUpstream))
	require.Equal(t, http.StatusInternalServerError, HTTPStatus(errors.New("plain")))
}

func TestPayload(t *testing.T) {
	code, msg := Payload(ErrValidation.WithDetail("empty content"))
	require.Equal(t, CodeValidation, code)
	require.Equal(t, "validation failed: empty content", msg)

	code, msg = Payload(errors.New("something broke"))
	require.Equal(t, CodeUpstream, code)
	require.Equal(t, "something broke", msg)
}
