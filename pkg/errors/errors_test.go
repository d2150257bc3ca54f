package errors

import (
	stdErrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestErrorStringIncludesInternal(t *testing.T) {
	err := Wrap(stdErrors.New("dial tcp: connection refused"), "load visibility rule")
	require.Equal(t, "load visibility rule: dial tcp: connection refused", err.Error())
}

func TestWithInternalLeavesSentinelUntouched(t *testing.T) {
	cause := stdErrors.New("record not found")
	err := ErrNotFound.WithInternal(cause)

	require.NotSame(t, ErrNotFound, err)
	require.ErrorIs(t, err, cause)
	require.Nil(t, ErrNotFound.Internal)
}

func TestFromErrorKeepsAppErrorsThroughWrapping(t *testing.T) {
	wrapped := fmt.Errorf("approve viewer: %w", ErrForbidden)

	out := FromError(wrapped)
	require.Equal(t, ErrForbidden.Code, out.Code)
	require.Equal(t, http.StatusForbidden, out.StatusCode)
}

func TestFromErrorDefaultsToInternalServer(t *testing.T) {
	raw := stdErrors.New("database is locked")

	out := FromError(raw)
	require.Equal(t, ErrInternalServer.Code, out.Code)
	require.Equal(t, ErrInternalServer.Message, out.Message)
	require.ErrorIs(t, out, raw)
}

func TestFromErrorNil(t *testing.T) {
	require.Nil(t, FromError(nil))
}

func TestNewBadRequest(t *testing.T) {
	err := NewBadRequest("start_date must be RFC 3339 formatted")

	require.Equal(t, ErrBadRequest.Code, err.Code)
	require.Equal(t, http.StatusBadRequest, err.StatusCode)
	require.Equal(t, "start_date must be RFC 3339 formatted", err.Message)
}

func TestAuthSentinelsMapToUnauthorized(t *testing.T) {
	require.Equal(t, http.StatusUnauthorized, ErrInvalidCredentials.StatusCode)
	require.Equal(t, http.StatusUnauthorized, ErrUnauthorized.StatusCode)
	require.NotEqual(t, ErrInvalidCredentials.Code, ErrUnauthorized.Code)
}
