package cli

import (
	"fmt"
	"os"

	"github.com/lazypower/recall/internal/config"
	"github.com/lazypower/recall/internal/embed"
	"github.com/lazypower/recall/internal/retriever"
	"github.com/lazypower/recall/internal/store"
)

// app bundles the wired-up pieces every command needs: config, the
// snapshot database, the embedder, and a retriever restored from disk.
type app struct {
	cfg config.Config
	db  *store.DB
	emb embed.Embedder
	ret *retriever.Retriever
}

func openApp() (*app, error) {
	cfgPath := flagConfig
	if cfgPath == "" {
		var err error
		cfgPath, err = config.DefaultPath()
		if err != nil {
			return nil, fmt.Errorf("resolve config path: %w", err)
		}
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, err
	}

	dbPath := flagDB
	if dbPath == "" {
		dbPath = cfg.Database.Path
	}
	if dbPath == "" {
		dbPath, err = store.DefaultDBPath()
		if err != nil {
			return nil, fmt.Errorf("resolve db path: %w", err)
		}
	}

	db, err := store.Open(dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	emb := newEmbedder(cfg.Embedding)

	ret, err := retriever.New(emb, retriever.Options{
		DecayRate:       cfg.Retriever.DecayRate,
		K:               cfg.Retriever.K,
		ScoreKeys:       cfg.Retriever.ScoreKeys,
		DefaultSalience: cfg.Retriever.DefaultSalience,
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	docs, err := db.LoadDocuments()
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("restore collection: %w", err)
	}
	ret.Restore(docs)

	return &app{cfg: cfg, db: db, emb: emb, ret: ret}, nil
}

func (a *app) Close() {
	a.db.Close()
}

// newEmbedder picks an embedding provider. An explicit provider in the
// config wins; otherwise Ollama is used when reachable, with the
// deterministic hash embedder as the offline fallback.
func newEmbedder(cfg config.EmbeddingConfig) embed.Embedder {
	switch cfg.Provider {
	case "ollama":
		return embed.NewOllamaEmbedder(cfg.OllamaURL, cfg.Model, cfg.Dimensions)
	case "openai":
		key := cfg.OpenAIKey
		if key == "" {
			key = os.Getenv("OPENAI_API_KEY")
		}
		return embed.NewOpenAIEmbedder(cfg.OpenAIURL, key, cfg.Model, cfg.Dimensions)
	case "hash":
		return embed.NewHashEmbedder(cfg.Dimensions)
	}

	if embed.ProbeOllama(cfg.OllamaURL, cfg.Model) {
		return embed.NewOllamaEmbedder(cfg.OllamaURL, cfg.Model, cfg.Dimensions)
	}
	return embed.NewHashEmbedder(cfg.Dimensions)
}

func exitErr(context string, err error) {
	fmt.Fprintf(os.Stderr, "%s: %v\n", context, err)
	os.Exit(1)
}
