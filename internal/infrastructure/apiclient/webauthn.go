package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/url"

	"github.com/turtacn/uats/internal/domain/models"
	"github.com/turtacn/uats/pkg/errors"
)

// ListDevices calls GET /webauthn/user/{userId}/devices.
func (c *Client) ListDevices(ctx context.Context, token, userID string) ([]models.DeviceRecord, error) {
	var raw json.RawMessage
	if err := c.do(ctx, http.MethodGet, "/webauthn/user/"+url.PathEscape(userID)+"/devices", token, nil, &raw); err != nil {
		return nil, err
	}
	devices, err := decodeList[models.DeviceRecord](raw, "devices")
	if err != nil {
		return nil, errors.ErrBackend(http.StatusOK, "Malformed device list").WithCause(err)
	}
	return devices, nil
}

// BeginRegistration calls POST /webauthn/register/begin.
func (c *Client) BeginRegistration(ctx context.Context, token string, req models.RegistrationBeginRequest) (*models.CredentialCreationOptions, error) {
	var raw json.RawMessage
	if err := c.do(ctx, http.MethodPost, "/webauthn/register/begin", token, req, &raw); err != nil {
		return nil, err
	}
	var opts models.CredentialCreationOptions
	challenge, err := unwrapOptions(raw, &opts)
	if err != nil {
		return nil, errors.ErrBackend(http.StatusOK, "Malformed registration options").WithCause(err)
	}
	opts.ServerChallenge = challenge
	return &opts, nil
}

// CompleteRegistration calls POST /webauthn/register/complete.
func (c *Client) CompleteRegistration(ctx context.Context, token string, req models.RegistrationCompleteRequest) (*models.Confirmation, error) {
	var out models.Confirmation
	if err := c.do(ctx, http.MethodPost, "/webauthn/register/complete", token, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// BeginAuthentication calls POST /webauthn/authenticate/begin.
func (c *Client) BeginAuthentication(ctx context.Context, token string, req models.AuthenticationBeginRequest) (*models.CredentialRequestOptions, error) {
	var raw json.RawMessage
	if err := c.do(ctx, http.MethodPost, "/webauthn/authenticate/begin", token, req, &raw); err != nil {
		return nil, err
	}
	var opts models.CredentialRequestOptions
	challenge, err := unwrapOptions(raw, &opts)
	if err != nil {
		return nil, errors.ErrBackend(http.StatusOK, "Malformed authentication options").WithCause(err)
	}
	opts.ServerChallenge = challenge
	return &opts, nil
}

// CompleteAuthentication calls POST /webauthn/authenticate/complete.
func (c *Client) CompleteAuthentication(ctx context.Context, token string, req models.AuthenticationCompleteRequest) (*models.Confirmation, error) {
	var out models.Confirmation
	if err := c.do(ctx, http.MethodPost, "/webauthn/authenticate/complete", token, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteDevice calls DELETE /webauthn/device/{deviceId}.
func (c *Client) DeleteDevice(ctx context.Context, token, deviceID string) (*models.Confirmation, error) {
	var out models.Confirmation
	if err := c.do(ctx, http.MethodDelete, "/webauthn/device/"+url.PathEscape(deviceID), token, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// unwrapOptions decodes ceremony options, bare or enveloped, into out and returns the server challenge if any.
// An enveloped body carries an "options" key, which may hold a JSON document encoded as a string,
// and a string "challenge" that the server expects back on completion.
func unwrapOptions(raw json.RawMessage, out interface{}) (string, error) {
	var env map[string]json.RawMessage
	if err := json.Unmarshal(raw, &env); err != nil {
		return "", err
	}
	options, ok := env["options"]
	if !ok {
		return "", json.Unmarshal(raw, out)
	}

	inner := bytes.TrimSpace(options)
	if len(inner) > 0 && inner[0] == '"' {
		var encoded string
		if err := json.Unmarshal(inner, &encoded); err != nil {
			return "", err
		}
		inner = []byte(encoded)
	}
	if err := json.Unmarshal(inner, out); err != nil {
		return "", err
	}

	var challenge string
	if rawChallenge, ok := env["challenge"]; ok {
		if err := json.Unmarshal(rawChallenge, &challenge); err != nil {
			return "", err
		}
	}
	return challenge, nil
}

//Personal.AI order the ending
