package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"

	"github.com/xhad/ragchat/internal/models"
)

// APIVersion pins chat-completion calls; data_sources requires a
// preview version.
const APIVersion = "2024-08-01-preview"

const tokenScope = "https://cognitiveservices.azure.com/.default"

// ClientConfig represents the configuration for a chat client.
type ClientConfig struct {
	Endpoint   string
	Deployment string
	APIVersion string
	Credential azcore.TokenCredential
	HTTPClient *http.Client
}

// Client sends chat-completion requests to an Azure OpenAI deployment
// and hands back the raw response document, leaving interpretation to
// the caller.
type Client struct {
	config ClientConfig
	http   *http.Client
}

// NewWithConfig creates a new Client with the given configuration.
func NewWithConfig(config ClientConfig) (*Client, error) {
	if config.Endpoint == "" {
		return nil, fmt.Errorf("endpoint is required")
	}
	if config.Credential == nil {
		return nil, fmt.Errorf("credential is required")
	}
	if config.Deployment == "" {
		config.Deployment = "gpt-4"
	}
	if config.APIVersion == "" {
		config.APIVersion = APIVersion
	}

	httpClient := config.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 120 * time.Second}
	}

	return &Client{
		config: config,
		http:   httpClient,
	}, nil
}

type chatRequest struct {
	Messages    []models.Message    `json:"messages"`
	DataSources []models.DataSource `json:"data_sources,omitempty"`
}

// Send posts the conversation to the chat deployment. When source is
// non-nil the request carries the search data source so the service
// grounds its answer against the index.
func (c *Client) Send(ctx context.Context, messages []models.Message, source *models.DataSource) (string, error) {
	request := chatRequest{Messages: messages}
	if source != nil {
		request.DataSources = []models.DataSource{*source}
	}

	payload, err := json.Marshal(request)
	if err != nil {
		return "", fmt.Errorf("failed to encode request: %w", err)
	}

	url := fmt.Sprintf("%s/openai/deployments/%s/chat/completions?api-version=%s",
		strings.TrimRight(c.config.Endpoint, "/"), c.config.Deployment, c.config.APIVersion)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	token, err := c.config.Credential.GetToken(ctx, policy.TokenRequestOptions{
		Scopes: []string{tokenScope},
	})
	if err != nil {
		return "", fmt.Errorf("failed to acquire token: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token.Token)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("chat request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("chat request returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	return string(body), nil
}

// ExtractAnswer returns the assistant text of the first choice in a raw
// response document.
func ExtractAnswer(raw string) (string, error) {
	var doc struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}

	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}
	if len(doc.Choices) == 0 {
		return "", fmt.Errorf("response contained no choices")
	}

	return doc.Choices[0].Message.Content, nil
}
