// Package apiclient implements the backend REST contract consumed by the orchestration layer.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/turtacn/uats/pkg/constants"
	"github.com/turtacn/uats/pkg/errors"
	"github.com/turtacn/uats/pkg/logger"
)

// maxErrorBody bounds how much of a failed response is read for its message.
const maxErrorBody = 64 << 10

// UnauthorizedHook is invoked on every 401 with the configured sign-in URL.
type UnauthorizedHook func(ctx context.Context, signInURL string)

// Options configures a Client.
type Options struct {
	BaseURL        string
	BasePath       string
	Timeout        time.Duration
	SignInURL      string
	HTTPClient     *http.Client
	Logger         logger.Logger
	OnUnauthorized UnauthorizedHook
}

// Client talks to the backend API. It is safe for concurrent use.
type Client struct {
	endpoint       string
	http           *http.Client
	log            logger.Logger
	perf           *logger.PerformanceLogger
	signInURL      string
	onUnauthorized UnauthorizedHook
}

// New creates a Client. Outgoing requests carry W3C trace context through the otelhttp transport.
func New(opts Options) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = constants.DefaultAPIBaseURL
	}
	if opts.BasePath == "" {
		opts.BasePath = constants.DefaultAPIBasePath
	}
	if opts.Timeout <= 0 {
		opts.Timeout = constants.DefaultAPITimeout
	}
	if opts.SignInURL == "" {
		opts.SignInURL = constants.DefaultSignInURL
	}
	if opts.Logger == nil {
		opts.Logger = logger.NewNoopLogger()
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout: opts.Timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport,
				otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
					return "uats-api " + r.Method + " " + r.URL.Path
				}),
			),
		}
	}

	endpoint := strings.TrimRight(opts.BaseURL, "/")
	if path := strings.Trim(opts.BasePath, "/"); path != "" {
		endpoint += "/" + path
	}

	return &Client{
		endpoint:       endpoint,
		http:           httpClient,
		log:            opts.Logger.WithComponent("apiclient"),
		perf:           logger.NewPerformanceLogger(opts.Logger),
		signInURL:      opts.SignInURL,
		onUnauthorized: opts.OnUnauthorized,
	}
}

// Endpoint is the resolved API root, e.g. http://localhost:8000/api/v1.
func (c *Client) Endpoint() string {
	return c.endpoint
}

// do sends one request. body is JSON-encoded when non-nil; a 2xx body is decoded into out when non-nil.
func (c *Client) do(ctx context.Context, method, path, token string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return errors.ErrInvalidRequest("failed to encode request body").WithCause(err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.endpoint+path, reader)
	if err != nil {
		return errors.ErrInternal("failed to build request").WithCause(err)
	}

	requestID := requestIDFrom(ctx)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", requestID)
	if token != "" && token != constants.NullToken {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	done := c.perf.StartOperation(ctx, method+" "+path)
	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Warn(ctx, "Backend unreachable",
			logger.String("method", method),
			logger.String("path", path),
			logger.String("request_id", requestID),
			logger.Err(err),
		)
		return errors.ErrTransport(err)
	}
	defer resp.Body.Close()

	done(logger.String("request_id", requestID), logger.Int("status", resp.StatusCode))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return c.failure(ctx, resp)
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.ErrTransport(err)
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return errors.ErrBackend(resp.StatusCode, "Malformed response from "+path).WithCause(err)
	}
	return nil
}

// failure converts a non-2xx response into an error and fires the unauthorized hook on 401.
func (c *Client) failure(ctx context.Context, resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	message := errorMessage(raw)

	if resp.StatusCode == http.StatusUnauthorized {
		if c.onUnauthorized != nil {
			c.onUnauthorized(ctx, c.signInURL)
		}
		return errors.ErrUnauthorized(message).WithMetadata("redirect", c.signInURL)
	}
	return errors.ErrBackend(resp.StatusCode, message)
}

// errorBody covers the shapes the backend uses for failures.
type errorBody struct {
	Message string          `json:"message"`
	Error   string          `json:"error"`
	Detail  json.RawMessage `json:"detail"`
}

// errorMessage extracts the failure message: message, else error, else detail. Empty means none.
func errorMessage(raw []byte) string {
	var body errorBody
	if err := json.Unmarshal(raw, &body); err != nil {
		return ""
	}
	if body.Message != "" {
		return body.Message
	}
	if body.Error != "" {
		return body.Error
	}
	if len(body.Detail) > 0 {
		var detail string
		if err := json.Unmarshal(body.Detail, &detail); err == nil {
			return detail
		}
		return string(body.Detail)
	}
	return ""
}

func requestIDFrom(ctx context.Context) string {
	if id, ok := ctx.Value(constants.ContextKeyRequestID).(string); ok && id != "" {
		return id
	}
	return uuid.NewString()
}

// decodeList reads a list that is either a bare JSON array or an object holding it under one of keys.
func decodeList[T any](raw json.RawMessage, keys ...string) ([]T, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return []T{}, nil
	}
	if trimmed[0] == '[' {
		var out []T
		if err := json.Unmarshal(trimmed, &out); err != nil {
			return nil, err
		}
		return out, nil
	}

	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &envelope); err != nil {
		return nil, err
	}
	for _, key := range keys {
		if inner, ok := envelope[key]; ok {
			return decodeList[T](inner)
		}
	}
	return nil, fmt.Errorf("expected a list under one of %v", keys)
}

//Personal.AI order the ending
