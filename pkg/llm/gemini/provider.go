package gemini

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

const (
	providerName   = "gemini"
	DefaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"
)

type Provider struct {
	BaseURL string
	Client  *http.Client
}

// Ensure Provider implements llm.Provider
var _ llm.Provider = &Provider{}

func NewProvider(baseURL string) *Provider {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Provider{
		BaseURL: baseURL,
		Client: &http.Client{
			Timeout: 120 * time.Second,
		},
	}
}

// --- Request/Response structs ---

type chatPart struct {
	Text string `json:"text"`
}

type chatContent struct {
	Parts []*chatPart `json:"parts"`
	Role  string      `json:"role,omitempty"`
}

type generationConfig struct {
	Temperature      float64 `json:"temperature"`
	MaxOutputTokens  int     `json:"maxOutputTokens,omitempty"`
	ResponseMimeType string  `json:"responseMimeType,omitempty"`
}

type chatRequest struct {
	Contents         []*chatContent    `json:"contents"`
	GenerationConfig *generationConfig `json:"generationConfig,omitempty"`
}

type chatCandidate struct {
	Content      *chatContent `json:"content"`
	FinishReason string       `json:"finishReason"`
}

type promptFeedback struct {
	BlockReason string `json:"blockReason"`
}

type chatResponse struct {
	Candidates     []*chatCandidate `json:"candidates"`
	PromptFeedback *promptFeedback  `json:"promptFeedback,omitempty"`
}

func (p *Provider) Name() string {
	return providerName
}

func (p *Provider) Generate(ctx context.Context, prompt, model, credential string, opts ...llm.Option) (string, error) {
	options := llm.ApplyOptions(0.7, opts...)

	payload := chatRequest{
		Contents: []*chatContent{
			{Parts: []*chatPart{{Text: prompt}}, Role: "user"},
		},
		GenerationConfig: &generationConfig{
			Temperature:     options.Temperature,
			MaxOutputTokens: options.MaxTokens,
		},
	}
	if options.JSONOutput {
		payload.GenerationConfig.ResponseMimeType = "application/json"
	}

	payloadJson, err := json.Marshal(payload)
	if err != nil {
		return "", llm.NewFatal(providerName, llm.KindBadRequest, fmt.Errorf("marshal request: %w", err))
	}

	url := fmt.Sprintf("%s/models/%s:generateContent", p.BaseURL, model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(payloadJson))
	if err != nil {
		return "", llm.NewFatal(providerName, llm.KindBadRequest, fmt.Errorf("create request: %w", err))
	}
	req.Header.Set("x-goog-api-key", credential)
	req.Header.Set("Content-Type", "application/json")

	res, err := p.Client.Do(req)
	if err != nil {
		return "", llm.ClassifyTransport(providerName, err)
	}
	defer res.Body.Close()

	resBody, err := io.ReadAll(res.Body)
	if err != nil {
		return "", llm.ClassifyTransport(providerName, err)
	}

	if res.StatusCode != http.StatusOK {
		return "", llm.ClassifyStatus(providerName, res.StatusCode, string(resBody))
	}

	var geminiRes chatResponse
	if err := json.Unmarshal(resBody, &geminiRes); err != nil {
		return "", llm.NewFatal(providerName, llm.KindUnknown, fmt.Errorf("unmarshal response: %w", err))
	}

	if geminiRes.PromptFeedback != nil && geminiRes.PromptFeedback.BlockReason != "" {
		return "", llm.NewFatal(providerName, llm.KindSafety,
			fmt.Errorf("prompt blocked: %s", geminiRes.PromptFeedback.BlockReason))
	}
	if len(geminiRes.Candidates) == 0 {
		return "", llm.NewFatal(providerName, llm.KindUnknown, fmt.Errorf("empty candidates"))
	}

	candidate := geminiRes.Candidates[0]
	if candidate.FinishReason == "SAFETY" || candidate.FinishReason == "PROHIBITED_CONTENT" {
		return "", llm.NewFatal(providerName, llm.KindSafety, fmt.Errorf("candidate blocked: %s", candidate.FinishReason))
	}
	if candidate.Content == nil || len(candidate.Content.Parts) == 0 {
		return "", llm.NewFatal(providerName, llm.KindUnknown, fmt.Errorf("candidate has no content"))
	}

	return candidate.Content.Parts[0].Text, nil
}
