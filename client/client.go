// Package client is a Go client for the marketplace API that keeps the
// caller signed in by refreshing expired access tokens.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"
)

// ErrSessionExpired is returned when the refresh token can no longer be
// exchanged; the stored tokens have been cleared and the user must log in.
var ErrSessionExpired = errors.New("session expired")

// APIError is a non-2xx response from the API
type APIError struct {
	Status  int
	Message string
	Details map[string]any
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.Status, e.Message)
}

type Client struct {
	BaseURL string
	HTTP    *http.Client
	Session *Session

	refreshMu sync.Mutex
}

// New returns a client for the API mounted at baseURL, e.g. http://host:8080/api
func New(baseURL string, session *Session) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTP:    &http.Client{Timeout: 15 * time.Second},
		Session: session,
	}
}

// credentialPaths answer 401 for bad credentials, not for an expired session
var credentialPaths = map[string]bool{
	"/auth/login":    true,
	"/auth/register": true,
	"/auth/refresh":  true,
	"/auth/logout":   true,
}

// Do sends a JSON request and decodes a JSON response into out.
// A 401 on an authenticated request triggers a single refresh and replay.
func (c *Client) Do(ctx context.Context, method, path string, body, out any) error {
	var payload []byte
	if body != nil {
		var err error
		if payload, err = json.Marshal(body); err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
	}

	access := c.Session.Tokens().AccessToken
	resp, err := c.send(ctx, method, path, payload, access)
	if err != nil {
		return err
	}
	if resp.StatusCode == http.StatusUnauthorized && access != "" && !credentialPaths[path] {
		resp.Body.Close()
		if access, err = c.refresh(ctx, access); err != nil {
			return err
		}
		if resp, err = c.send(ctx, method, path, payload, access); err != nil {
			return err
		}
	}
	return decodeResponse(resp, out)
}

func (c *Client) send(ctx context.Context, method, path string, payload []byte, access string) (*http.Response, error) {
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, body)
	if err != nil {
		return nil, err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if access != "" {
		req.Header.Set("Authorization", "Bearer "+access)
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	return resp, nil
}

func decodeResponse(resp *http.Response, out any) error {
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var body struct {
			Error   string         `json:"error"`
			Message string         `json:"message"`
			Details map[string]any `json:"details"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&body)
		msg := body.Error
		if msg == "" {
			msg = body.Message
		}
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return &APIError{Status: resp.StatusCode, Message: msg, Details: body.Details}
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

type tokenResponse struct {
	Tokens Tokens `json:"tokens"`
}

// refresh trades the refresh token for a new pair. Concurrent callers that
// saw the same stale access token share a single refresh.
func (c *Client) refresh(ctx context.Context, stale string) (string, error) {
	c.refreshMu.Lock()
	defer c.refreshMu.Unlock()

	current := c.Session.Tokens()
	if current.AccessToken != "" && current.AccessToken != stale {
		return current.AccessToken, nil
	}
	if current.RefreshToken == "" {
		_ = c.Session.Clear()
		return "", ErrSessionExpired
	}

	payload, err := json.Marshal(map[string]string{"refreshToken": current.RefreshToken})
	if err != nil {
		return "", err
	}
	resp, err := c.send(ctx, http.MethodPost, "/auth/refresh", payload, "")
	if err != nil {
		return "", err
	}
	var out tokenResponse
	if err := decodeResponse(resp, &out); err != nil {
		_ = c.Session.Clear()
		return "", fmt.Errorf("%w: %w", ErrSessionExpired, err)
	}
	if out.Tokens.AccessToken == "" {
		_ = c.Session.Clear()
		return "", fmt.Errorf("%w: refresh returned no access token", ErrSessionExpired)
	}
	if err := c.Session.Set(out.Tokens); err != nil {
		return "", fmt.Errorf("failed to persist tokens: %w", err)
	}
	return out.Tokens.AccessToken, nil
}
