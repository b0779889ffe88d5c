// Package pipeline wires the fetch, extraction, annotation, classification,
// flattening and mining stages from one configuration.
package pipeline

import (
	"context"

	"modelcat/internal/annotator"
	"modelcat/internal/classifier"
	"modelcat/internal/config"
	"modelcat/internal/crawler"
	"modelcat/internal/extractor"
	"modelcat/internal/flatten"
	"modelcat/internal/metrics"
	"modelcat/internal/miner"
	"modelcat/internal/models"
	"modelcat/internal/version"
	"modelcat/pkg/logger"
)

type Pipeline struct {
	Extractor  *extractor.Extractor
	Annotator  *annotator.Annotator
	Classifier *classifier.Classifier
	Miner      *miner.Miner
}

// NewHTTPClient builds the link fetcher described by cfg.
func NewHTTPClient(cfg config.HTTPConfig) *crawler.HTTPClient {
	ua := cfg.UserAgent
	if ua == "" {
		ua = version.UserAgent()
	}
	opts := []crawler.Option{
		crawler.WithUserAgent(ua),
		crawler.WithRateLimit(cfg.RateLimit, cfg.RateBurst),
	}
	if cfg.Retry.Enabled {
		opts = append(opts, crawler.WithRetry(crawler.RetryPolicy{
			MaxAttempts:     cfg.Retry.MaxAttempts,
			InitialInterval: cfg.Retry.InitialInterval,
		}))
	}
	return crawler.NewHTTPClient(cfg.Timeout, cfg.DialTimeout, cfg.MaxBodyBytes, opts...)
}

func New(cfg *config.Config, l *logger.Logger, m *metrics.Metrics) *Pipeline {
	if l == nil {
		l = logger.Nop()
	}
	if m == nil {
		m = metrics.Nop()
	}
	ext := extractor.New(NewHTTPClient(cfg.HTTP), l, m)
	return &Pipeline{
		Extractor: ext,
		Annotator: annotator.New(ext,
			annotator.WithWorkers(cfg.Annotator.Workers),
			annotator.WithDedupe(cfg.Annotator.Dedupe),
			annotator.WithLogger(l),
		),
		Classifier: classifier.New(),
		Miner:      miner.New(m),
	}
}

// ExtractAll runs the extractor over urls in order.
func (p *Pipeline) ExtractAll(ctx context.Context, urls []string) []models.Annotation {
	out := make([]models.Annotation, 0, len(urls))
	for _, u := range urls {
		out = append(out, p.Extractor.Extract(ctx, u))
	}
	return out
}

// AnnotateAndMine annotates entries in place and returns their facts.
func (p *Pipeline) AnnotateAndMine(ctx context.Context, entries []models.CatalogEntry) []models.MinedFact {
	return p.Miner.MineAll(p.Annotator.Annotate(ctx, entries))
}

// AnnotateAndFlatten annotates entries in place and returns one row per entry.
func (p *Pipeline) AnnotateAndFlatten(ctx context.Context, entries []models.CatalogEntry) ([]*flatten.Record, error) {
	return flatten.Entries(p.Annotator.Annotate(ctx, entries))
}
