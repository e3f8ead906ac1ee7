package huggingface

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

const providerName = "huggingface"

// HuggingFaceProvider speaks the OpenAI-compatible chat completions API
// exposed by the Hugging Face router.
type HuggingFaceProvider struct {
	baseURL string
	client  *http.Client
}

var _ llm.Provider = &HuggingFaceProvider{}

// Request Payload Structure (OpenAI Compatible)
type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

func NewHuggingFaceProvider(baseURL string) *HuggingFaceProvider {
	if baseURL == "" {
		baseURL = "https://router.huggingface.co/v1" // Default Router URL
	}
	return &HuggingFaceProvider{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 120 * time.Second},
	}
}

func (p *HuggingFaceProvider) Name() string {
	return providerName
}

func (p *HuggingFaceProvider) Generate(ctx context.Context, prompt, model, credential string, options ...llm.Option) (string, error) {
	opts := llm.ApplyOptions(0.7, append([]llm.Option{llm.WithMaxTokens(500)}, options...)...)

	reqBody := chatRequest{
		Model:       model,
		Messages:    []chatMessage{{Role: "user", Content: prompt}},
		MaxTokens:   opts.MaxTokens,
		Temperature: opts.Temperature,
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return "", llm.NewFatal(providerName, llm.KindBadRequest, fmt.Errorf("failed to marshal request: %w", err))
	}

	url := fmt.Sprintf("%s/chat/completions", p.baseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(jsonData))
	if err != nil {
		return "", llm.NewFatal(providerName, llm.KindBadRequest, fmt.Errorf("failed to create request: %w", err))
	}

	req.Header.Set("Content-Type", "application/json")
	if credential != "" {
		req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", credential))
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return "", llm.ClassifyTransport(providerName, err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", llm.ClassifyTransport(providerName, err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", llm.ClassifyStatus(providerName, resp.StatusCode, string(bodyBytes))
	}

	var chatResp chatResponse
	if err := json.Unmarshal(bodyBytes, &chatResp); err != nil {
		return "", llm.NewFatal(providerName, llm.KindUnknown, fmt.Errorf("failed to decode response: %w", err))
	}

	if chatResp.Error != nil {
		return "", llm.ClassifyStatus(providerName, resp.StatusCode, chatResp.Error.Message)
	}

	if len(chatResp.Choices) == 0 {
		return "", llm.NewFatal(providerName, llm.KindUnknown, fmt.Errorf("empty choices from huggingface api"))
	}
	if chatResp.Choices[0].FinishReason == "content_filter" {
		return "", llm.NewFatal(providerName, llm.KindSafety, fmt.Errorf("completion blocked by content filter"))
	}

	return chatResp.Choices[0].Message.Content, nil
}
