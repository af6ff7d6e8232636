package factory

import (
	"fmt"

	"ai-procedure-assistant-be/pkg/llm"
	"ai-procedure-assistant-be/pkg/llm/ollama"
)

// NewLLMProvider builds an LLM provider from config values.
func NewLLMProvider(providerType, modelName, baseURL string) (llm.LLMProvider, error) {
	switch providerType {
	case "ollama":
		if baseURL == "" {
			baseURL = "http://localhost:11434" // Default
		}
		return ollama.NewOllamaProvider(baseURL, modelName), nil
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", providerType)
	}
}
