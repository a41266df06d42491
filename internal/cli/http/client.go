package httpclient

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	pkgerrors "scoreboard/pkg/errors"
)

const maxBody = 8 << 20

// envelope mirrors the server's response body.
type envelope struct {
	Code    pkgerrors.ErrorCode `json:"code"`
	Message string              `json:"message"`
	Data    json.RawMessage     `json:"data"`
}

// Client calls the scoreboard API on behalf of the reveal console.
type Client struct {
	baseURL string
	http    *http.Client
	token   func() string
}

// New builds a client. token is read before every request and may return "".
func New(baseURL string, timeout time.Duration, token func() string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		token:   token,
	}
}

func (c *Client) BaseURL() string {
	return c.baseURL
}

// Call sends a bodyless request and decodes the envelope data into out.
// A failed envelope becomes an error carrying the server's code and message.
func (c *Client) Call(ctx context.Context, method, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, nil)
	if err != nil {
		return pkgerrors.Wrapf(err, pkgerrors.InvalidParams, "build request: %v", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.token != nil {
		if token := c.token(); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return pkgerrors.Wrapf(err, pkgerrors.ServiceUnavailable, "%s %s: %v", method, path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return pkgerrors.Wrapf(err, pkgerrors.ServiceUnavailable, "read response: %v", err)
	}
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return pkgerrors.Newf(pkgerrors.ServiceUnavailable, "unexpected HTTP %d from %s", resp.StatusCode, c.baseURL)
	}
	if env.Code != pkgerrors.Success {
		return pkgerrors.New(env.Code).WithMessage(env.Message)
	}
	if out == nil || len(env.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("decode response data failed: %w", err)
	}
	return nil
}
