package apiclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"

	"github.com/turtacn/uats/internal/domain/models"
	"github.com/turtacn/uats/pkg/errors"
)

// Balances calls GET /assets/user/{userId}/balances.
func (c *Client) Balances(ctx context.Context, token, userID string) ([]models.Balance, error) {
	var raw json.RawMessage
	if err := c.do(ctx, http.MethodGet, "/assets/user/"+url.PathEscape(userID)+"/balances", token, nil, &raw); err != nil {
		return nil, err
	}
	balances, err := decodeList[models.Balance](raw, "balances", "data")
	if err != nil {
		return nil, errors.ErrBackend(http.StatusOK, "Malformed balance list").WithCause(err)
	}
	return balances, nil
}

// Transfer calls POST /assets/transfer.
func (c *Client) Transfer(ctx context.Context, token string, req models.TransferRequest) (*models.TransferReceipt, error) {
	var out models.TransferReceipt
	if err := c.do(ctx, http.MethodPost, "/assets/transfer", token, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// History calls GET /assets/user/{userId}/history.
func (c *Client) History(ctx context.Context, token, userID string) ([]models.TransferRecord, error) {
	var raw json.RawMessage
	if err := c.do(ctx, http.MethodGet, "/assets/user/"+url.PathEscape(userID)+"/history", token, nil, &raw); err != nil {
		return nil, err
	}
	history, err := decodeList[models.TransferRecord](raw, "history", "transfers", "data")
	if err != nil {
		return nil, errors.ErrBackend(http.StatusOK, "Malformed transfer history").WithCause(err)
	}
	return history, nil
}

// Profile calls GET /user/{userId}/profile.
func (c *Client) Profile(ctx context.Context, token, userID string) (*models.Profile, error) {
	var out models.Profile
	if err := c.do(ctx, http.MethodGet, "/user/"+url.PathEscape(userID)+"/profile", token, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateProfile calls PUT /user/{userId}/profile with the changed fields only.
func (c *Client) UpdateProfile(ctx context.Context, token, userID string, update models.ProfileUpdate) (*models.Profile, error) {
	var out models.Profile
	if err := c.do(ctx, http.MethodPut, "/user/"+url.PathEscape(userID)+"/profile", token, update, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
