package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"shop-assistant-be/pkg/llm"
)

const providerName = "ollama"

// OllamaProvider talks to a local or proxied Ollama server. The credential is
// sent as a bearer token only when non-empty, for servers behind an auth proxy.
type OllamaProvider struct {
	BaseURL string
	Client  *http.Client
}

// Ensure OllamaProvider implements llm.Provider
var _ llm.Provider = &OllamaProvider{}

func NewOllamaProvider(baseURL string) *OllamaProvider {
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	return &OllamaProvider{
		BaseURL: baseURL,
		Client: &http.Client{
			Timeout: 120 * time.Second,
		},
	}
}

// --- Request/Response structs (Internal to this package) ---

type ollamaChatRequest struct {
	Model    string          `json:"model"`
	Messages []ollamaMessage `json:"messages"`
	Stream   bool            `json:"stream"`
	Format   string          `json:"format,omitempty"`
	Options  *ollamaOptions  `json:"options,omitempty"`
}

type ollamaMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ollamaOptions struct {
	Temperature float64 `json:"temperature,omitempty"`
	NumPredict  int     `json:"num_predict,omitempty"`
}

type ollamaChatResponse struct {
	Model   string        `json:"model"`
	Message ollamaMessage `json:"message"`
	Done    bool          `json:"done"`
	Error   string        `json:"error,omitempty"`
}

func (o *OllamaProvider) Name() string {
	return providerName
}

func (o *OllamaProvider) Generate(ctx context.Context, prompt, model, credential string, opts ...llm.Option) (string, error) {
	options := llm.ApplyOptions(0.7, opts...)

	reqPayload := ollamaChatRequest{
		Model:    model,
		Messages: []ollamaMessage{{Role: "user", Content: prompt}},
		Stream:   false,
		Options: &ollamaOptions{
			Temperature: options.Temperature,
			NumPredict:  options.MaxTokens,
		},
	}
	if options.JSONOutput {
		reqPayload.Format = "json"
	}

	payloadBytes, err := json.Marshal(reqPayload)
	if err != nil {
		return "", llm.NewFatal(providerName, llm.KindBadRequest, fmt.Errorf("marshal request: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.BaseURL+"/api/chat", bytes.NewBuffer(payloadBytes))
	if err != nil {
		return "", llm.NewFatal(providerName, llm.KindBadRequest, fmt.Errorf("create request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")
	if credential != "" {
		req.Header.Set("Authorization", "Bearer "+credential)
	}

	resp, err := o.Client.Do(req)
	if err != nil {
		return "", llm.ClassifyTransport(providerName, err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", llm.ClassifyTransport(providerName, err)
	}

	if resp.StatusCode != http.StatusOK {
		// A missing model means this tier entry is unusable; let the cascade move on.
		if resp.StatusCode == http.StatusNotFound {
			return "", llm.NewRetryable(providerName, llm.KindUnavailable,
				fmt.Errorf("model %s not found: %s", model, string(bodyBytes)))
		}
		return "", llm.ClassifyStatus(providerName, resp.StatusCode, string(bodyBytes))
	}

	var ollamaResp ollamaChatResponse
	if err := json.Unmarshal(bodyBytes, &ollamaResp); err != nil {
		return "", llm.NewFatal(providerName, llm.KindUnknown, fmt.Errorf("unmarshal response: %w", err))
	}
	if ollamaResp.Error != "" {
		return "", llm.ClassifyStatus(providerName, resp.StatusCode, ollamaResp.Error)
	}

	return ollamaResp.Message.Content, nil
}
