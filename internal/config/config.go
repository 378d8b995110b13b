/*
Package config handles loading, saving, and validating intent-hub configuration.

Configuration is stored in ~/.intent-hub.json.

Schema:

	{
	  "storage": {
	    "path": "/home/user/.intent-hub/intent-hub.db"
	  },
	  "embedding": {
	    "provider": "hash",
	    "dimension": 384
	  },
	  "orchestrator": {
	    "provider": "mock",
	    "model": "",
	    "temperature": 0.2,
	    "maxTokens": 1024,
	    "maxTurns": 3
	  }
	}
*/
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// Config represents the root configuration structure.
type Config struct {
	// Storage configures the persistence layer.
	Storage *StorageConfig `json:"storage,omitempty"`

	// Embedding configures the embedding provider.
	Embedding *EmbeddingConfig `json:"embedding,omitempty"`

	// Orchestrator configures the reasoning loop.
	Orchestrator *OrchestratorConfig `json:"orchestrator,omitempty"`
}

// StorageConfig configures the SQLite store.
type StorageConfig struct {
	// Path is the SQLite database file. Empty uses the default under
	// ~/.intent-hub; the value "memory" disables persistence entirely.
	Path string `json:"path,omitempty"`
}

// EmbeddingConfig configures how semantic vectors are produced.
type EmbeddingConfig struct {
	// Provider selects the embedding backend ("hash").
	Provider string `json:"provider,omitempty"`

	// Dimension is the vector width for providers that support it.
	Dimension int `json:"dimension,omitempty"`
}

// OrchestratorConfig configures the bounded reasoning loop.
type OrchestratorConfig struct {
	// Provider selects the reasoning backend ("mock", "openai", "anthropic").
	Provider string `json:"provider,omitempty"`

	// Model is the provider-specific model name. Empty uses the provider default.
	Model string `json:"model,omitempty"`

	// Temperature is the sampling temperature.
	Temperature float64 `json:"temperature,omitempty"`

	// MaxTokens caps the response length per turn.
	MaxTokens int `json:"maxTokens,omitempty"`

	// MaxTurns caps the number of reasoning turns per dispatch.
	MaxTurns int `json:"maxTurns,omitempty"`
}

// NewConfig creates a configuration populated with defaults.
func NewConfig() *Config {
	return &Config{
		Storage: &StorageConfig{},
		Embedding: &EmbeddingConfig{
			Provider:  "hash",
			Dimension: 384,
		},
		Orchestrator: &OrchestratorConfig{
			Provider:    "mock",
			Temperature: 0.2,
			MaxTokens:   1024,
			MaxTurns:    3,
		},
	}
}

// GetDefaultConfigPath returns the path to ~/.intent-hub.json
func GetDefaultConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".intent-hub.json"), nil
}

// GetDefaultStoragePath returns the path to ~/.intent-hub/intent-hub.db
func GetDefaultStoragePath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".intent-hub", "intent-hub.db"), nil
}

// Load reads the configuration from the default path. A missing file is not
// an error; defaults apply.
func Load() (*Config, error) {
	configPath, err := GetDefaultConfigPath()
	if err != nil {
		return nil, err
	}
	cfg, err := LoadFrom(configPath)
	if err != nil {
		var notFound *NotFoundError
		if errors.As(err, &notFound) {
			return NewConfig(), nil
		}
		return nil, err
	}
	return cfg, nil
}

// LoadFrom reads the configuration from a specific path.
func LoadFrom(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &NotFoundError{
				Path: path,
				Hint: "run 'intent-hub init' to create one, or rely on defaults",
			}
		}
		if os.IsPermission(err) {
			return nil, &PermissionError{
				Path: path,
				Op:   "read",
				Fix:  fmt.Sprintf("chmod u+r %s", path),
			}
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, &InvalidError{
			Path:    path,
			Message: err.Error(),
			Hint:    "check the file for JSON syntax errors",
		}
	}

	applyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, &InvalidError{
			Path:    path,
			Message: err.Error(),
		}
	}

	return &cfg, nil
}

// Save writes the configuration to the specified path.
func Save(cfg *Config, path string) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		if os.IsPermission(err) {
			return &PermissionError{
				Path: path,
				Op:   "write",
				Fix:  fmt.Sprintf("chmod u+w %s", path),
			}
		}
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

func applyDefaults(cfg *Config) {
	defaults := NewConfig()
	if cfg.Storage == nil {
		cfg.Storage = defaults.Storage
	}
	if cfg.Embedding == nil {
		cfg.Embedding = defaults.Embedding
	}
	if cfg.Embedding.Provider == "" {
		cfg.Embedding.Provider = defaults.Embedding.Provider
	}
	if cfg.Embedding.Dimension == 0 {
		cfg.Embedding.Dimension = defaults.Embedding.Dimension
	}
	if cfg.Orchestrator == nil {
		cfg.Orchestrator = defaults.Orchestrator
	}
	if cfg.Orchestrator.Provider == "" {
		cfg.Orchestrator.Provider = defaults.Orchestrator.Provider
	}
	if cfg.Orchestrator.MaxTokens == 0 {
		cfg.Orchestrator.MaxTokens = defaults.Orchestrator.MaxTokens
	}
	if cfg.Orchestrator.MaxTurns == 0 {
		cfg.Orchestrator.MaxTurns = defaults.Orchestrator.MaxTurns
	}
}
