// Package client talks to a running solendir backend over HTTP. It is used
// by the CLI commands and the chat TUI.
package client

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
)

const (
	DefaultBaseURL = "http://127.0.0.1:8000"
	defaultTimeout = 90 * time.Second

	notionTokenHeader = "X-Notion-Token"
)

type Client struct {
	BaseURL    string
	HTTPClient *http.Client
	// NotionToken, when set, is sent as a per-request override instead of
	// relying on the token stored by the backend.
	NotionToken string
}

func New(baseURL string) *Client {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		HTTPClient: &http.Client{Timeout: defaultTimeout},
	}
}

// StatusError is returned for non-2xx responses.
type StatusError struct {
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("backend returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("backend returned status %d: %s", e.StatusCode, e.Message)
}

// APIError carries an {"error": ...} body the backend sent with status 200.
type APIError struct {
	Message string
}

func (e *APIError) Error() string { return e.Message }

// Health returns the liveness message.
func (c *Client) Health(ctx context.Context) (string, error) {
	var out struct {
		Message string `json:"message"`
	}
	if err := c.do(ctx, http.MethodGet, "/", nil, &out); err != nil {
		return "", err
	}
	return out.Message, nil
}

// Chat sends one message and returns the backend's response text. Relay
// failures come back as a normal response starting with "Error: ".
func (c *Client) Chat(ctx context.Context, message string) (string, error) {
	var out struct {
		Response string `json:"response"`
	}
	if err := c.do(ctx, http.MethodPost, "/chat", map[string]string{"message": message}, &out); err != nil {
		return "", err
	}
	return out.Response, nil
}

func (c *Client) SetToken(ctx context.Context, token string) error {
	return c.do(ctx, http.MethodPost, "/notion/token", map[string]string{"token": token}, nil)
}

func (c *Client) ClearToken(ctx context.Context) error {
	return c.do(ctx, http.MethodDelete, "/notion/token", nil, nil)
}

// Pages returns the raw workspace search body. An empty cursor asks for the
// first page.
func (c *Client) Pages(ctx context.Context, cursor string) (json.RawMessage, error) {
	path := "/notion/pages"
	if cursor != "" {
		path += "?cursor=" + url.QueryEscape(cursor)
	}
	var out struct {
		Raw   json.RawMessage `json:"raw"`
		Error *string         `json:"error"`
	}
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	if out.Error != nil {
		return nil, &APIError{Message: *out.Error}
	}
	return out.Raw, nil
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.NotionToken != "" {
		req.Header.Set(notionTokenHeader, c.NotionToken)
	}

	httpClient := c.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var e struct {
			Error string `json:"error"`
		}
		_ = json.Unmarshal(raw, &e)
		return &StatusError{StatusCode: resp.StatusCode, Message: e.Error}
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
