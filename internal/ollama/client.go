package ollama

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
	DefaultBaseURL = "http://localhost:11434"
	DefaultModel   = "llama3"
	defaultTimeout = 60 * time.Second
	providerName   = "ollama"
)

var tracer = otel.Tracer("solendir/ollama")

type Client struct {
	BaseURL    string
	HTTPClient *http.Client
}

type generateRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Stream bool   `json:"stream"`
}

type generateResponse struct {
	Response *string `json:"response"`
}

// NewClient returns a client for the Ollama HTTP API. timeout bounds each
// generate call end to end.
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
		HTTPClient: &http.Client{Timeout: timeout},
	}
}

// Generate posts a non-streaming request to /api/generate.
func (c *Client) Generate(ctx context.Context, req model.GenerateRequest) (model.GenerateResult, error) {
	modelName := strings.TrimSpace(req.Model)
	if modelName == "" {
		modelName = DefaultModel
	}

	ctx, span := tracer.Start(ctx, "ollama.generate", trace.WithAttributes(
		attribute.String("gen_ai.operation.name", "generate_content"),
		attribute.String("gen_ai.provider.name", providerName),
		attribute.String("gen_ai.request.model", modelName),
	))
	defer span.End()

	result, err := c.generate(ctx, modelName, req.Prompt)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, string(model.KindOf(err)))
		return model.GenerateResult{}, err
	}
	span.SetAttributes(attribute.Bool("ollama.answered", result.Answered))
	return result, nil
}

func (c *Client) generate(ctx context.Context, modelName, prompt string) (model.GenerateResult, error) {
	payload, err := json.Marshal(generateRequest{Model: modelName, Prompt: prompt, Stream: false})
	if err != nil {
		return model.GenerateResult{}, &model.ProviderError{Provider: providerName, Kind: model.KindConfig, Message: "failed to marshal generate request", Cause: err}
	}

	baseURL := strings.TrimRight(strings.TrimSpace(c.BaseURL), "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, baseURL+"/api/generate", bytes.NewReader(payload))
	if err != nil {
		return model.GenerateResult{}, &model.ProviderError{Provider: providerName, Kind: model.KindConfig, Message: "failed to build generate request", Cause: err}
	}
	httpReq.Header.Set("Content-Type", "application/json")

	httpClient := c.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}

	resp, err := httpClient.Do(httpReq)
	if err != nil {
		return model.GenerateResult{}, &model.ProviderError{Provider: providerName, Kind: model.KindNetwork, Message: "generate request failed", Cause: err}
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return model.GenerateResult{}, &model.ProviderError{Provider: providerName, Kind: model.KindNetwork, Message: "failed to read generate response", StatusCode: resp.StatusCode, Cause: err}
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		message := strings.TrimSpace(string(body))
		if message == "" {
			message = fmt.Sprintf("generate returned status %d", resp.StatusCode)
		}
		return model.GenerateResult{}, &model.ProviderError{
			Provider:   providerName,
			Kind:       model.KindForStatus(resp.StatusCode),
			Message:    message,
			StatusCode: resp.StatusCode,
		}
	}

	var parsed generateResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return model.GenerateResult{}, &model.ProviderError{Provider: providerName, Kind: model.KindParse, Message: "failed to decode generate response", StatusCode: resp.StatusCode, Cause: err}
	}
	if parsed.Response == nil {
		return model.GenerateResult{}, nil
	}
	return model.GenerateResult{Text: *parsed.Response, Answered: true}, nil
}

// Version asks the server for its version. serve uses it as a startup probe.
func (c *Client) Version(ctx context.Context) (string, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(c.BaseURL), "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+"/api/version", nil)
	if err != nil {
		return "", &model.ProviderError{Provider: providerName, Kind: model.KindConfig, Message: "failed to build version request", Cause: err}
	}
	httpClient := c.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}
	resp, err := httpClient.Do(httpReq)
	if err != nil {
		return "", &model.ProviderError{Provider: providerName, Kind: model.KindNetwork, Message: "version request failed", Cause: err}
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode != http.StatusOK {
		return "", &model.ProviderError{
			Provider:   providerName,
			Kind:       model.KindForStatus(resp.StatusCode),
			Message:    fmt.Sprintf("version returned status %d", resp.StatusCode),
			StatusCode: resp.StatusCode,
		}
	}
	var parsed struct {
		Version string `json:"version"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", &model.ProviderError{Provider: providerName, Kind: model.KindParse, Message: "failed to decode version response", Cause: err}
	}
	return parsed.Version, nil
}
