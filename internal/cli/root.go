// Package cli implements the minerva CLI commands.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/minerva-ai/minerva/internal/config"
	"github.com/minerva-ai/minerva/internal/embedding"
	"github.com/minerva-ai/minerva/internal/engine"
	"github.com/minerva-ai/minerva/internal/storage"
	"github.com/minerva-ai/minerva/internal/storage/postgres"
	"github.com/minerva-ai/minerva/internal/storage/sqlite"
)

var configFlag string

// RootCmd is the top-level command.
var RootCmd = &cobra.Command{
	Use:   "minerva",
	Short: "Memory relevance and priority engine",
	Long: "Minerva stores memories with hash-based deduplication and retrieves them\n" +
		"by combining embedding similarity with relevance boosts and retention scoring.",
	SilenceUsage: true,
}

func init() {
	RootCmd.PersistentFlags().StringVarP(&configFlag, "config", "c", "", "Config file path (optional, YAML)")
}

func loadConfig() *config.Config {
	cfg, err := config.Load(configFlag)
	if err != nil {
		exitErr("load config", err)
	}
	return cfg
}

// openStore builds the configured backend with the importance heuristic
// wired in.
func openStore(cfg *config.Config) storage.MemoryStore {
	ranker := engine.NewPriorityRanker(rankerConfig(cfg))

	switch cfg.Storage.Engine {
	case "postgres":
		store, err := postgres.NewMemoryStore(cfg.Storage.PostgresDSN,
			postgres.WithImportanceSuggester(ranker))
		if err != nil {
			exitErr("open postgres store", err)
		}
		return store
	default:
		store, err := sqlite.NewMemoryStore(cfg.Storage.DataPath,
			sqlite.WithImportanceSuggester(ranker))
		if err != nil {
			exitErr("open sqlite store", err)
		}
		return store
	}
}

func newRanker(cfg *config.Config) *engine.PriorityRanker {
	return engine.NewPriorityRanker(rankerConfig(cfg))
}

func rankerConfig(cfg *config.Config) engine.RankerConfig {
	rc := engine.DefaultRankerConfig()
	if cfg.Engine.HalfLifeDays > 0 {
		rc.RecencyHalfLifeDays = cfg.Engine.HalfLifeDays
	}
	if cfg.Engine.CleanupThreshold > 0 {
		rc.CleanupThreshold = cfg.Engine.CleanupThreshold
	}
	return rc
}

// newRetrieval assembles the retrieval engine around the store, with the
// configured embedding provider behind a circuit breaker.
func newRetrieval(cfg *config.Config, store storage.MemoryStore) *engine.RetrievalEngine {
	var embedder embedding.Embedder
	switch cfg.Embedding.Provider {
	case "ollama":
		embedder = embedding.NewBreakerEmbedder(
			embedding.NewOllamaEmbedder(cfg.Embedding.OllamaURL, cfg.Embedding.OllamaModel),
			embedding.DefaultBreakerConfig())
	case "none":
		embedder = nil
	default:
		embedder = embedding.NewLocalEmbedder()
	}

	rc := engine.DefaultRetrievalConfig()
	if cfg.Engine.MaxResults > 0 {
		rc.MaxResults = cfg.Engine.MaxResults
	}
	if cfg.Embedding.CacheSize > 0 {
		rc.EmbeddingCacheSize = cfg.Embedding.CacheSize
	}
	if cfg.Engine.HistoryTurns > 0 {
		rc.HistoryTurns = cfg.Engine.HistoryTurns
	}

	scorer := engine.NewRelevanceScorer(engine.DefaultScorerConfig())
	return engine.NewRetrievalEngine(store, scorer, embedder, rc)
}

func exitErr(msg string, err error) {
	fmt.Fprintf(os.Stderr, "error: %s: %v\n", msg, err)
	os.Exit(1)
}
