package mentor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// GenerativeClient is the provider-agnostic completion interface,
// generalized from the teacher's internal/llm.Client (Generate,
// GenerateJSON, Provider) to additionally carry a token budget and a
// context deadline, per §4.11/§5.
type GenerativeClient interface {
	Generate(ctx context.Context, prompt string, budget Budget) (string, error)
	Provider() string
}

// Budget bounds one generative call.
type Budget struct {
	MaxTokens   int
	Temperature float64
}

// OllamaGenerativeClient talks to a local Ollama-compatible host,
// trimmed from the teacher's internal/ollama.Client down to
// generation-only (no embedding-model bookkeeping, which is out of
// scope for this core).
type OllamaGenerativeClient struct {
	httpClient *http.Client
	baseURL    string
	model      string
}

// NewOllamaGenerativeClient constructs a client against baseURL.
func NewOllamaGenerativeClient(baseURL, model string, timeout time.Duration) *OllamaGenerativeClient {
	return &OllamaGenerativeClient{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    baseURL,
		model:      model,
	}
}

func (c *OllamaGenerativeClient) Provider() string { return "ollama" }

type ollamaGenerateRequest struct {
	Model   string  `json:"model"`
	Prompt  string  `json:"prompt"`
	Stream  bool    `json:"stream"`
	Options options `json:"options"`
}

type options struct {
	Temperature float64 `json:"temperature"`
	NumPredict  int     `json:"num_predict"`
}

type ollamaGenerateResponse struct {
	Response string `json:"response"`
	Done     bool   `json:"done"`
}

// Generate issues a single non-streaming completion request, respecting
// ctx's deadline. A context timeout or non-2xx response is reported to
// the caller as an error, which the Hybrid Router feeds to the Circuit
// Breaker as a failure.
func (c *OllamaGenerativeClient) Generate(ctx context.Context, prompt string, budget Budget) (string, error) {
	body, err := json.Marshal(ollamaGenerateRequest{
		Model:  c.model,
		Prompt: prompt,
		Stream: false,
		Options: options{
			Temperature: budget.Temperature,
			NumPredict:  budget.MaxTokens,
		},
	})
	if err != nil {
		return "", fmt.Errorf("encode generate request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/generate", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build generate request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return "", fmt.Errorf("generation timeout: %w", ctx.Err())
		}
		return "", fmt.Errorf("connect to generative host: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("generative host returned %d", resp.StatusCode)
	}

	var out ollamaGenerateResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode generate response: %w", err)
	}

	return out.Response, nil
}
