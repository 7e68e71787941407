// Package azure implements a minimal client for the Azure OpenAI chat
// completions and legacy completions APIs. Every call goes through the
// caller-supplied http.Client, which is expected to carry the
// transcript transport so each physical attempt is recorded.
package azure

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/mshnjffr/azure-openai/internal/retry"
)

// Client talks to one Azure OpenAI resource.
type Client struct {
	endpoint   string
	apiKey     string
	apiVersion string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a client for the given resource endpoint
// (e.g. https://myresource.openai.azure.com/). The httpClient should be
// built by httpkit.NewClient with the transcript transport layered in.
func NewClient(endpoint, apiKey, apiVersion string, httpClient *http.Client, logger *slog.Logger) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		endpoint:   strings.TrimRight(endpoint, "/"),
		apiKey:     apiKey,
		apiVersion: apiVersion,
		httpClient: httpClient,
		logger:     logger,
	}
}

// operationURL builds the deployment-scoped operation URL:
// {endpoint}/openai/deployments/{deployment}/{op}?api-version={v}
func (c *Client) operationURL(deployment, op string) string {
	return fmt.Sprintf("%s/openai/deployments/%s/%s?api-version=%s",
		c.endpoint,
		url.PathEscape(deployment),
		op,
		url.QueryEscape(c.apiVersion),
	)
}

// Chat sends a chat completions request to the named deployment.
func (c *Client) Chat(ctx context.Context, deployment string, req *ChatRequest) (*ChatResponse, error) {
	var resp ChatResponse
	err := c.post(ctx, c.operationURL(deployment, "chat/completions"), req, &resp)
	if err != nil {
		return nil, err
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("chat completion returned no choices")
	}
	return &resp, nil
}

// Complete sends a legacy text completion request to the named deployment.
func (c *Client) Complete(ctx context.Context, deployment string, req *CompletionRequest) (*CompletionResponse, error) {
	var resp CompletionResponse
	err := c.post(ctx, c.operationURL(deployment, "completions"), req, &resp)
	if err != nil {
		return nil, err
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("completion returned no choices")
	}
	return &resp, nil
}

// post marshals payload, performs the call, and decodes into out.
// Non-2xx statuses become *APIError carrying the classified Kind.
func (c *Client) post(ctx context.Context, callURL string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, callURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("api-key", c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{
			StatusCode: resp.StatusCode,
			Kind:       retry.Classify(resp.StatusCode),
			Message:    strings.TrimSpace(string(respBody)),
		}
		var envelope errorEnvelope
		if json.Unmarshal(respBody, &envelope) == nil && envelope.Error.Message != "" {
			apiErr.Code = envelope.Error.Code
			apiErr.Message = envelope.Error.Message
		}
		c.logger.Error("API error",
			"status", resp.StatusCode,
			"kind", apiErr.Kind.String(),
			"message", apiErr.Message,
		)
		return apiErr
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
