package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaults(t *testing.T) {
	cfg := Default()

	if cfg.Retriever.DecayRate != 0.01 {
		t.Errorf("decay rate = %v, want 0.01", cfg.Retriever.DecayRate)
	}
	if cfg.Retriever.K != 4 {
		t.Errorf("k = %d, want 4", cfg.Retriever.K)
	}
	if cfg.ListenAddr() != "127.0.0.1:37710" {
		t.Errorf("listen addr = %q", cfg.ListenAddr())
	}
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Retriever.DecayRate != 0.01 {
		t.Errorf("decay rate = %v, want default 0.01", cfg.Retriever.DecayRate)
	}
}

func TestLoadOverlaysDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
[server]
port = 9999

[retriever]
decay_rate = 0.5
k = 10
score_keys = ["importance"]
default_salience = 0.1

[embedding]
provider = "hash"
dimensions = 64
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Server.Port != 9999 {
		t.Errorf("port = %d, want 9999", cfg.Server.Port)
	}
	// Unset fields keep defaults
	if cfg.Server.Bind != "127.0.0.1" {
		t.Errorf("bind = %q, want default", cfg.Server.Bind)
	}
	if cfg.Retriever.DecayRate != 0.5 || cfg.Retriever.K != 10 {
		t.Errorf("retriever = %+v", cfg.Retriever)
	}
	if len(cfg.Retriever.ScoreKeys) != 1 || cfg.Retriever.ScoreKeys[0] != "importance" {
		t.Errorf("score keys = %v", cfg.Retriever.ScoreKeys)
	}
	if cfg.Embedding.Provider != "hash" || cfg.Embedding.Dimensions != 64 {
		t.Errorf("embedding = %+v", cfg.Embedding)
	}
}

func TestLoadRejectsMalformedTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[server\nport="), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	if _, err := Load(path); err == nil {
		t.Error("expected parse error")
	}
}
