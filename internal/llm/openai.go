package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Groq defaults for the OpenAI-compatible client.
const (
	DefaultOpenAIBaseURL = "https://api.groq.com/openai/v1"
	DefaultOpenAIModel   = "llama-3.3-70b-versatile"
)

// OpenAIChat calls an OpenAI-compatible /chat/completions endpoint.
type OpenAIChat struct {
	apiKey  string
	baseURL string
	model   string
	client  *http.Client
}

// NewOpenAIChat creates a client. An empty apiKey yields a client whose
// Generate always returns ErrNotConfigured.
func NewOpenAIChat(apiKey, baseURL, model string, timeout time.Duration) *OpenAIChat {
	if baseURL == "" {
		baseURL = DefaultOpenAIBaseURL
	}
	if model == "" {
		model = DefaultOpenAIModel
	}
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &OpenAIChat{
		apiKey:  apiKey,
		baseURL: baseURL,
		model:   model,
		client:  &http.Client{Timeout: timeout},
	}
}

// Configured reports whether the client has an API key.
func (c *OpenAIChat) Configured() bool { return c.apiKey != "" }

type openAIRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature float64   `json:"temperature"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
}

type openAIResponse struct {
	Choices []struct {
		Message      Message `json:"message"`
		FinishReason string  `json:"finish_reason"`
	} `json:"choices"`
}

// Generate sends the conversation and returns the first choice's content.
func (c *OpenAIChat) Generate(ctx context.Context, messages []Message, opts Options) (string, error) {
	if !c.Configured() {
		return "", fmt.Errorf("%w: no API key", ErrNotConfigured)
	}

	body, err := json.Marshal(openAIRequest{
		Model:       c.model,
		Messages:    messages,
		Temperature: opts.Temperature,
		MaxTokens:   opts.MaxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("marshal chat request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create chat request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("chat request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("chat API returned %d: %s", resp.StatusCode, string(respBody))
	}

	var result openAIResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("decode chat response: %w", err)
	}
	if len(result.Choices) == 0 {
		return "", fmt.Errorf("chat API returned no choices")
	}

	return result.Choices[0].Message.Content, nil
}
