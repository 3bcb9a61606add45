package rosterload

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/okian/huddle/internal/domain/types"
)

const maxErrorBody = 512

// Client talks to the matching API.
type Client struct {
	client  *http.Client
	baseURL string
}

// NewClient creates a client with the given request timeout.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		client:  &http.Client{Timeout: timeout},
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

// Health checks /healthz.
func (c *Client) Health(ctx context.Context) error {
	resp, err := c.do(ctx, http.MethodGet, "/healthz", nil)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrUnhealthy, err)
	}
	defer closeBody(resp)
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: status %d", ErrUnhealthy, resp.StatusCode)
	}
	return nil
}

// Submit posts a matching request. Both 202 and 200 (duplicate) succeed;
// 429 returns ErrBackpressure.
func (c *Client) Submit(ctx context.Context, req types.MatchRequest) (types.Submission, error) { //nolint:gocritic // hugeParam: marshaled once
	body, err := json.Marshal(req)
	if err != nil {
		return types.Submission{}, fmt.Errorf("marshal request: %w", err)
	}
	resp, err := c.do(ctx, http.MethodPost, "/matchings", body)
	if err != nil {
		return types.Submission{}, err
	}
	defer closeBody(resp)

	switch resp.StatusCode {
	case http.StatusAccepted, http.StatusOK:
		var sub types.Submission
		if err := json.NewDecoder(resp.Body).Decode(&sub); err != nil {
			return types.Submission{}, fmt.Errorf("decode submission: %w", err)
		}
		return sub, nil
	case http.StatusTooManyRequests:
		return types.Submission{}, ErrBackpressure
	default:
		return types.Submission{}, unexpected(resp)
	}
}

// Run fetches the state of a run.
func (c *Client) Run(ctx context.Context, id string) (types.Run, error) {
	resp, err := c.do(ctx, http.MethodGet, "/matchings/"+url.PathEscape(id), nil)
	if err != nil {
		return types.Run{}, err
	}
	defer closeBody(resp)

	if resp.StatusCode != http.StatusOK {
		return types.Run{}, unexpected(resp)
	}
	var run types.Run
	if err := json.NewDecoder(resp.Body).Decode(&run); err != nil {
		return types.Run{}, fmt.Errorf("decode run: %w", err)
	}
	return run, nil
}

func (c *Client) do(ctx context.Context, method, path string, body []byte) (*http.Response, error) {
	var r io.Reader
	if body != nil {
		r = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, r)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	return resp, nil
}

func unexpected(resp *http.Response) error {
	msg, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	return fmt.Errorf("%w: %d %s", ErrUnexpectedStatus, resp.StatusCode, strings.TrimSpace(string(msg)))
}

func closeBody(resp *http.Response) {
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()
}
