// Package rest is the low-level HTTP plumbing for the remote clinic API:
// one base URL, a bearer token per request, JSON bodies in and out, and a
// typed error carrying the server's message field.
package rest

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"
)

// TokenSource supplies the bearer token attached to every request. The
// context is the request's, so implementations can carry per-session tokens
// through it. An empty token sends the request unauthenticated.
type TokenSource interface {
	Token(ctx context.Context) string
}

// StaticToken is a fixed-token TokenSource, mainly for tests.
type StaticToken string

func (s StaticToken) Token(context.Context) string { return string(s) }

// APIError is a non-2xx response from the clinic API. Message is the server's
// own message field when the body carried one, otherwise empty; callers fall
// back to a generic message in that case.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("clinic api: %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("clinic api: %d", e.StatusCode)
}

// Client wraps two resty clients bound to the same base URL: reads retry a
// bounded number of times, writes never retry.
type Client struct {
	reads  *resty.Client
	writes *resty.Client
	tokens TokenSource
	logger zerolog.Logger
}

type Options struct {
	BaseURL   string
	Timeout   time.Duration
	ReadRetry int
	TokenFrom TokenSource
	Logger    zerolog.Logger
}

func NewClient(opts Options) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}

	reads := resty.New().
		SetBaseURL(opts.BaseURL).
		SetTimeout(opts.Timeout).
		SetRetryCount(opts.ReadRetry).
		SetRetryWaitTime(250*time.Millisecond).
		SetRetryMaxWaitTime(2*time.Second).
		SetHeader("Accept", "application/json").
		AddRetryCondition(func(r *resty.Response, err error) bool {
			return err != nil || r.StatusCode() >= http.StatusInternalServerError
		})

	writes := resty.New().
		SetBaseURL(opts.BaseURL).
		SetTimeout(opts.Timeout).
		SetHeader("Accept", "application/json")

	logErrors := func(_ *resty.Client, resp *resty.Response) error {
		if resp.IsError() {
			opts.Logger.Warn().
				Int("status", resp.StatusCode()).
				Str("method", resp.Request.Method).
				Str("url", resp.Request.URL).
				Msg("clinic api error")
		}
		return nil
	}
	reads.OnAfterResponse(logErrors)
	writes.OnAfterResponse(logErrors)

	return &Client{
		reads:  reads,
		writes: writes,
		tokens: opts.TokenFrom,
		logger: opts.Logger,
	}
}

func (c *Client) request(ctx context.Context, rc *resty.Client) *resty.Request {
	r := rc.R().SetContext(ctx)
	if c.tokens != nil {
		if tok := c.tokens.Token(ctx); tok != "" {
			r.SetAuthToken(tok)
		}
	}
	return r
}

// GetJSON fetches path and decodes the response body into out.
func (c *Client) GetJSON(ctx context.Context, path string, out any) error {
	resp, err := c.request(ctx, c.reads).Get(path)
	if err != nil {
		return fmt.Errorf("get %s: %w", path, err)
	}
	if resp.IsError() {
		return apiError(resp)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(resp.Body(), out); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

// PostJSON posts body as JSON and decodes the response into out (out may be nil).
func (c *Client) PostJSON(ctx context.Context, path string, body, out any) error {
	return c.sendJSON(ctx, http.MethodPost, path, body, out)
}

// PatchJSON patches body as JSON and decodes the response into out (out may be nil).
func (c *Client) PatchJSON(ctx context.Context, path string, body, out any) error {
	return c.sendJSON(ctx, http.MethodPatch, path, body, out)
}

// Delete issues a DELETE. The response body is discarded.
func (c *Client) Delete(ctx context.Context, path string) error {
	resp, err := c.request(ctx, c.writes).Delete(path)
	if err != nil {
		return fmt.Errorf("delete %s: %w", path, err)
	}
	if resp.IsError() {
		return apiError(resp)
	}
	return nil
}

func (c *Client) sendJSON(ctx context.Context, method, path string, body, out any) error {
	req := c.request(ctx, c.writes).
		SetHeader("Content-Type", "application/json").
		SetBody(body)

	resp, err := req.Execute(method, path)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	if resp.IsError() {
		return apiError(resp)
	}
	if out != nil && len(resp.Body()) > 0 {
		if err := json.Unmarshal(resp.Body(), out); err != nil {
			return fmt.Errorf("decode %s: %w", path, err)
		}
	}
	return nil
}

// PostMultipart uploads a file under the "file" form field with an optional
// free-text comment field, and decodes the JSON response into out.
func (c *Client) PostMultipart(ctx context.Context, path, fileName string, file io.Reader, comment string, out any) error {
	req := c.request(ctx, c.writes).
		SetFileReader("file", fileName, file)
	if comment != "" {
		req.SetFormData(map[string]string{"comment": comment})
	}

	resp, err := req.Post(path)
	if err != nil {
		return fmt.Errorf("upload %s: %w", path, err)
	}
	if resp.IsError() {
		return apiError(resp)
	}
	if out != nil && len(resp.Body()) > 0 {
		if err := json.Unmarshal(resp.Body(), out); err != nil {
			return fmt.Errorf("decode %s: %w", path, err)
		}
	}
	return nil
}

// GetBlob fetches binary content, returning the raw bytes and the response
// content type.
func (c *Client) GetBlob(ctx context.Context, path string) ([]byte, string, error) {
	resp, err := c.request(ctx, c.reads).Get(path)
	if err != nil {
		return nil, "", fmt.Errorf("get %s: %w", path, err)
	}
	if resp.IsError() {
		return nil, "", apiError(resp)
	}
	contentType := resp.Header().Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	return resp.Body(), contentType, nil
}

func apiError(resp *resty.Response) error {
	apiErr := &APIError{StatusCode: resp.StatusCode()}
	var body struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(resp.Body(), &body); err == nil {
		apiErr.Message = body.Message
	}
	return apiErr
}
