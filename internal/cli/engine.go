package cli

import (
	"fmt"
	"net/http"
	"os"

	"github.com/buemura/contractlens/internal/ai"
	"github.com/buemura/contractlens/internal/config"
	"github.com/buemura/contractlens/internal/engine"
)

// newEngine builds an engine from appConfig. An HTTP analyzer is attached
// when an AI endpoint is configured.
func newEngine(cfg config.Engine, opts ...engine.Option) (*engine.Engine, error) {
	opts = append([]engine.Option{engine.WithLogger(logger)}, opts...)
	a, err := analyzerFor(appConfig)
	if err != nil {
		return nil, err
	}
	if a != nil {
		opts = append(opts, engine.WithAnalyzer(a))
	} else if cfg.EnableAIAnalysis {
		logger.Warnw("ai analysis enabled without an endpoint; reports will be pattern-only")
	}
	return engine.New(cfg, opts...)
}

func analyzerFor(cfg *config.Config) (ai.Analyzer, error) {
	if cfg == nil || cfg.AI.Endpoint == "" {
		return nil, nil
	}
	h := &ai.HTTPAnalyzer{
		Endpoint: cfg.AI.Endpoint,
		Model:    cfg.AI.Model,
		APIKey:   cfg.AI.APIKey,
		Client:   &http.Client{},
	}
	if cfg.AI.ContextFile != "" {
		pc, err := ai.LoadContext(cfg.AI.ContextFile)
		if err != nil {
			return nil, err
		}
		h.Context = pc
	}
	return h, nil
}

func readSource(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", path, err)
	}
	return string(data), nil
}
