// internal/llm/factory/factory.go
package factory

import (
	"fmt"

	"github.com/kyuwon/tradewind/internal/config"
	"github.com/kyuwon/tradewind/internal/llm"
	"github.com/kyuwon/tradewind/internal/llm/claude"
	"github.com/kyuwon/tradewind/internal/llm/ollama"
	"github.com/kyuwon/tradewind/internal/llm/openai"
)

// New creates an LLM client based on configuration.
func New(cfg config.LLMConfig) (llm.Client, error) {
	switch cfg.Provider {
	case "claude":
		return claude.New(cfg.Claude.APIKey, cfg.Claude.Model)
	case "openai":
		return openai.New(cfg.OpenAI.APIKey, cfg.OpenAI.Model)
	case "ollama":
		return ollama.New(cfg.Ollama.Endpoint, cfg.Ollama.Model)
	default:
		return nil, fmt.Errorf("unknown LLM provider: %s", cfg.Provider)
	}
}
