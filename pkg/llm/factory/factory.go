package factory

import (
	"fmt"

	"shop-assistant-be/pkg/llm"
	"shop-assistant-be/pkg/llm/gemini"
	"shop-assistant-be/pkg/llm/huggingface"
	"shop-assistant-be/pkg/llm/ollama"
)

func NewLLMProvider(providerType, baseURL string) (llm.Provider, error) {
	switch providerType {
	case "gemini":
		return gemini.NewProvider(baseURL), nil
	case "ollama":
		return ollama.NewOllamaProvider(baseURL), nil
	case "huggingface":
		return huggingface.NewHuggingFaceProvider(baseURL), nil
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", providerType)
	}
}
