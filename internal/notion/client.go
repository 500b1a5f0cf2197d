package notion

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"solendir/internal/model"
)

const (
	DefaultBaseURL = "https://api.notion.com"
	DefaultVersion = "2022-06-28"
	defaultTimeout = 30 * time.Second
	providerName   = "notion"
)

var tracer trace.Tracer = otel.Tracer("solendir/notion")

type Client struct {
	BaseURL    string
	Version    string
	HTTPClient *http.Client
}

type searchRequest struct {
	PageSize    int    `json:"page_size,omitempty"`
	StartCursor string `json:"start_cursor,omitempty"`
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		BaseURL:    baseURL,
		Version:    DefaultVersion,
		HTTPClient: &http.Client{Timeout: timeout},
	}
}

// Search calls POST /v1/search with the caller's bearer token and returns the
// raw body together with the extracted workspace items.
func (c *Client) Search(ctx context.Context, token string, query model.SearchQuery) (model.SearchResult, error) {
	ctx, span := tracer.Start(ctx, "notion.search", trace.WithAttributes(
		attribute.Int("notion.page_size", query.PageSize),
		attribute.Bool("notion.cursor", query.StartCursor != ""),
	))
	defer span.End()

	result, err := c.search(ctx, token, query)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, string(model.KindOf(err)))
		return model.SearchResult{}, err
	}
	span.SetAttributes(attribute.Int("notion.items", len(result.Items)))
	return result, nil
}

func (c *Client) search(ctx context.Context, token string, query model.SearchQuery) (model.SearchResult, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return model.SearchResult{}, &model.ProviderError{
			Provider: providerName,
			Kind:     model.KindAuth,
			Message:  "missing Notion token",
		}
	}

	payload, err := json.Marshal(searchRequest{PageSize: query.PageSize, StartCursor: query.StartCursor})
	if err != nil {
		return model.SearchResult{}, &model.ProviderError{Provider: providerName, Kind: model.KindConfig, Message: "failed to marshal search request", Cause: err}
	}

	baseURL := strings.TrimRight(strings.TrimSpace(c.BaseURL), "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	version := strings.TrimSpace(c.Version)
	if version == "" {
		version = DefaultVersion
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, baseURL+"/v1/search", bytes.NewReader(payload))
	if err != nil {
		return model.SearchResult{}, &model.ProviderError{Provider: providerName, Kind: model.KindConfig, Message: "failed to build search request", Cause: err}
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Notion-Version", version)
	req.Header.Set("Content-Type", "application/json")

	httpClient := c.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		return model.SearchResult{}, &model.ProviderError{Provider: providerName, Kind: model.KindNetwork, Message: "search request failed", Cause: err}
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return model.SearchResult{}, &model.ProviderError{Provider: providerName, Kind: model.KindNetwork, Message: "failed to read search response", StatusCode: resp.StatusCode, Cause: err}
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		message := strings.TrimSpace(string(body))
		if message == "" {
			message = fmt.Sprintf("search returned status %d", resp.StatusCode)
		}
		return model.SearchResult{}, &model.ProviderError{
			Provider:   providerName,
			Kind:       model.KindForStatus(resp.StatusCode),
			Message:    message,
			StatusCode: resp.StatusCode,
		}
	}

	if !json.Valid(body) {
		return model.SearchResult{}, &model.ProviderError{Provider: providerName, Kind: model.KindParse, Message: "search response is not valid JSON", StatusCode: resp.StatusCode}
	}

	return parseSearchBody(body), nil
}
