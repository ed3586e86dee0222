package main

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/drift-audit/internal/mandate"
	"github.com/sells-group/drift-audit/internal/pdf"
	"github.com/sells-group/drift-audit/internal/pipeline"
	"github.com/sells-group/drift-audit/internal/store"
	anthropicpkg "github.com/sells-group/drift-audit/pkg/anthropic"
	"github.com/sells-group/drift-audit/pkg/nli"
)

// pipelineEnv holds the store and the pipeline built on it.
type pipelineEnv struct {
	Store    store.Store
	Pipeline *pipeline.Pipeline
}

// Close releases resources held by the pipeline environment.
func (pe *pipelineEnv) Close() {
	if pe.Store != nil {
		_ = pe.Store.Close()
	}
}

// initPipeline validates the config for mode, opens the store and builds the
// Pipeline. Callers should defer env.Close().
func initPipeline(ctx context.Context, mode string) (*pipelineEnv, error) {
	if err := cfg.Validate(mode); err != nil {
		return nil, err
	}

	mandates, err := mandate.LoadCatalog(cfg.Evaluate.MandatePath)
	if err != nil {
		return nil, err
	}

	pages, err := pdf.NewExtractor(cfg.OCR, cfg.OCR.MistralKey)
	if err != nil {
		return nil, err
	}

	st, err := openStore(ctx)
	if err != nil {
		return nil, err
	}

	aiClient := anthropicpkg.NewRateLimitedClient(
		anthropicpkg.NewClient(cfg.Anthropic.Key),
		cfg.Anthropic.RequestsPerMinute,
	)

	p := pipeline.New(cfg, st, pages, aiClient, newClassifier(), mandates)

	zap.L().Debug("pipeline initialised",
		zap.String("model", cfg.Anthropic.Model),
		zap.String("nli_url", cfg.NLI.BaseURL),
		zap.String("nli_model", cfg.NLI.Model),
		zap.String("ocr", cfg.OCR.Provider),
		zap.String("store", cfg.Store.Driver),
	)
	return &pipelineEnv{Store: st, Pipeline: p}, nil
}

func newClassifier() nli.Client {
	return nli.NewClient(cfg.NLI.BaseURL,
		nli.WithEmbedURL(cfg.NLI.EmbedURL),
		nli.WithTimeout(time.Duration(cfg.NLI.TimeoutSecs)*time.Second),
	)
}

// mustMode returns an error for an unusable config before any client is built.
func mustMode(mode string) error {
	if cfg == nil {
		return eris.New("config not loaded")
	}
	return cfg.Validate(mode)
}
