// Package config holds recall configuration: defaults, the TOML file
// format, and loading.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
)

// Config holds all recall configuration.
type Config struct {
	Server    ServerConfig    `toml:"server"`
	Database  DatabaseConfig  `toml:"database"`
	Retriever RetrieverConfig `toml:"retriever"`
	Embedding EmbeddingConfig `toml:"embedding"`
}

type ServerConfig struct {
	Bind string `toml:"bind"`
	Port int    `toml:"port"`
}

type DatabaseConfig struct {
	Path string `toml:"path"`
}

type RetrieverConfig struct {
	DecayRate       float64  `toml:"decay_rate"`       // per-hour forgetting rate in [0,1]
	K               int      `toml:"k"`                // default result count
	ScoreKeys       []string `toml:"score_keys"`       // metadata keys added into the score
	DefaultSalience float64  `toml:"default_salience"` // used when a score key is absent
}

type EmbeddingConfig struct {
	Provider   string `toml:"provider"` // "ollama", "openai", "hash"
	OllamaURL  string `toml:"ollama_url"`
	Model      string `toml:"model"`
	OpenAIURL  string `toml:"openai_url"`
	OpenAIKey  string `toml:"openai_key"`
	Dimensions int    `toml:"dimensions"`
}

// Default returns a Config with sensible defaults.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Bind: "127.0.0.1",
			Port: 37710,
		},
		Database: DatabaseConfig{
			Path: "", // resolved at runtime via store.DefaultDBPath()
		},
		Retriever: RetrieverConfig{
			DecayRate: 0.01,
			K:         4,
		},
		Embedding: EmbeddingConfig{
			Provider:   "", // auto-detect: ollama if reachable, else hash
			OllamaURL:  "http://localhost:11434",
			Model:      "nomic-embed-text",
			Dimensions: 768,
		},
	}
}

// DefaultPath returns the default config file path: ~/.recall/config.toml
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home dir: %w", err)
	}
	return filepath.Join(home, ".recall", "config.toml"), nil
}

// Load reads the TOML config at path, layered over Default(). A missing
// file is not an error — defaults are returned as-is.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}

	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// ListenAddr returns the bind:port address string.
func (c *Config) ListenAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.Bind, c.Server.Port)
}
