package errors

import (
	goerrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/turtacn/uats/pkg/constants"
)

func TestErrBackend_FallsBackToStatusMessage(t *testing.T) {
	err := ErrBackend(http.StatusServiceUnavailable, "")
	assert.Equal(t, "HTTP 503", err.Error())
	assert.Equal(t, http.StatusBadGateway, err.HTTPStatus())
	assert.Equal(t, http.StatusServiceUnavailable, err.Metadata()["status"])

	err = ErrBackend(http.StatusBadRequest, "Invalid or expired challenge")
	assert.Equal(t, "Invalid or expired challenge", err.Error())
	assert.Equal(t, http.StatusBadRequest, err.HTTPStatus())
}

func TestPredicates_FollowWrappedChains(t *testing.T) {
	wrapped := fmt.Errorf("list devices: %w", ErrUnauthorized("token expired"))

	assert.True(t, IsUnauthorized(wrapped))
	assert.True(t, IsBackend(wrapped))
	assert.False(t, IsPrecondition(wrapped))
	assert.Equal(t, http.StatusUnauthorized, StatusOf(wrapped))

	assert.True(t, IsPrecondition(ErrNoAuthToken()))
	assert.Equal(t, constants.MsgNoAuthToken, ErrNoAuthToken().Error())
}

func TestErrTransport_KeepsCause(t *testing.T) {
	cause := goerrors.New("dial tcp 127.0.0.1:8000: connect: connection refused")
	err := ErrTransport(cause)

	assert.True(t, IsTransport(err))
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, cause.Error(), err.Error())
}

func TestToGenericErrorResponse(t *testing.T) {
	resp := ToGenericErrorResponse(ErrMissingParameter("keyName"))
	require.NotNil(t, resp)
	assert.Equal(t, string(constants.ErrCodePreconditionFailed), resp.Error)
	assert.Equal(t, "Missing required parameter: keyName", resp.Message)
	assert.Equal(t, "keyName", resp.Metadata["parameter"])

	resp = ToGenericErrorResponse(goerrors.New("boom"))
	assert.Equal(t, string(constants.ErrCodeInternal), resp.Error)
	assert.Equal(t, http.StatusInternalServerError, StatusOf(goerrors.New("boom")))
}
