package config

import "fmt"

var embeddingProviders = map[string]bool{
	"hash": true,
}

var reasoningProviders = map[string]bool{
	"mock":      true,
	"openai":    true,
	"anthropic": true,
}

// Validate checks a fully-defaulted configuration for values that would
// misbehave at runtime.
func Validate(cfg *Config) error {
	if !embeddingProviders[cfg.Embedding.Provider] {
		return fmt.Errorf("unknown embedding provider '%s'", cfg.Embedding.Provider)
	}
	if cfg.Embedding.Dimension < 1 {
		return fmt.Errorf("embedding dimension must be positive, got %d", cfg.Embedding.Dimension)
	}
	if !reasoningProviders[cfg.Orchestrator.Provider] {
		return fmt.Errorf("unknown orchestrator provider '%s'", cfg.Orchestrator.Provider)
	}
	if cfg.Orchestrator.MaxTurns < 1 {
		return fmt.Errorf("orchestrator maxTurns must be positive, got %d", cfg.Orchestrator.MaxTurns)
	}
	if cfg.Orchestrator.MaxTokens < 1 {
		return fmt.Errorf("orchestrator maxTokens must be positive, got %d", cfg.Orchestrator.MaxTokens)
	}
	if cfg.Orchestrator.Temperature < 0 || cfg.Orchestrator.Temperature > 2 {
		return fmt.Errorf("orchestrator temperature must be in [0, 2], got %g", cfg.Orchestrator.Temperature)
	}
	return nil
}
