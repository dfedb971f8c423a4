package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/match-scorer/internal/ai"
	"github.com/spigell/match-scorer/internal/ai/gemini"
	"github.com/spigell/match-scorer/internal/logger"
	"github.com/spigell/match-scorer/internal/secrets"
	"github.com/spigell/match-scorer/internal/store"
)

// setup builds the logger and reads the config shared by every command.
func setup() (*zap.Logger, *Config) {
	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	// do not bother error since there is a valid parseable config
	pretty, _ := json.MarshalIndent(config.redacted(), "", "  ")
	logger.Debug(fmt.Sprintf("starting with config: \n %s", pretty))

	return logger, config
}

func openSource(ctx context.Context, cfg *SourceConfig, logger *zap.Logger) (store.Source, error) {
	storeCfg := &store.Config{
		Type: cfg.Type,
		File: cfg.File,
	}

	if cfg.SQLite != nil {
		storeCfg.SQLite = &store.SQLiteConfig{Path: cfg.SQLite.Path}
	}

	if cfg.REST != nil {
		apiKey, err := secrets.Load(secrets.Source{
			Name:  "source api key",
			Value: cfg.REST.APIKey,
			Env:   "MATCH_SCORER_SOURCE_API_KEY_FILE",
			File:  cfg.REST.APIKeyFile,
		})
		if err != nil && strings.EqualFold(cfg.Type, store.TypeREST) {
			return nil, fmt.Errorf("%w (set source.rest.api-key-file or MATCH_SCORER_SOURCE_API_KEY_FILE)", err)
		}

		storeCfg.REST = &store.RESTConfig{
			URL:             cfg.REST.URL,
			APIKey:          apiKey,
			JobsTable:       cfg.REST.JobsTable,
			CandidatesTable: cfg.REST.CandidatesTable,
			PageSize:        cfg.REST.PageSize,
			UserAgent:       cfg.REST.UserAgent,
		}
	}

	return store.Open(ctx, storeCfg, logger)
}

// newExplainer returns the guarded explainer. When AI is disabled or cannot be
// configured the guard only produces fallback explanations.
func newExplainer(ctx context.Context, cfg *AIConfig, logger *zap.Logger) *ai.Guard {
	if cfg == nil || !cfg.Enabled {
		return ai.Guarded(nil, 0, logger)
	}

	explainer, err := newAIExplainer(ctx, cfg, logger)
	if err != nil {
		logger.Warn("ai explanations are unavailable, using fallback", zap.Error(err))
		return ai.Guarded(nil, cfg.Timeout, logger)
	}

	return ai.Guarded(explainer, cfg.Timeout, logger)
}

func newAIExplainer(ctx context.Context, cfg *AIConfig, logger *zap.Logger) (ai.Explainer, error) {
	provider := strings.TrimSpace(strings.ToLower(cfg.Provider))
	if provider != "" && provider != "gemini" {
		return nil, fmt.Errorf("unsupported ai provider: %s", cfg.Provider)
	}

	if cfg.Gemini == nil {
		cfg.Gemini = &GeminiConfig{}
	}

	apiKey, err := secrets.Load(secrets.Source{
		Name:  "gemini api key",
		Value: cfg.Gemini.APIKey,
		Env:   "GEMINI_API_KEY_FILE",
		File:  cfg.Gemini.APIKeyFile,
	})
	if err != nil {
		return nil, fmt.Errorf("%w (set ai.gemini.api-key-file or GEMINI_API_KEY_FILE)", err)
	}

	genLogger := logger.With(
		zap.String("provider", "gemini"),
		zap.String("model", cfg.Gemini.Model),
		zap.Int("ai_retry_attempts", cfg.Gemini.MaxRetries),
	)

	generator, err := gemini.NewGenerator(ctx, apiKey, cfg.Gemini.Model, cfg.Gemini.MaxRetries, genLogger)
	if err != nil {
		return nil, err
	}

	return gemini.NewExplainer(generator, cfg.Gemini.MaxLogLength, logger), nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
