// Package extractor turns one web link into an Annotation: a single fetch
// followed by independent JSON, structured-data and meta-tag extraction.
package extractor

import (
	"context"
	"encoding/json"
	"time"

	"modelcat/internal/crawler"
	"modelcat/internal/metrics"
	"modelcat/internal/models"
	"modelcat/internal/parser"
	"modelcat/internal/structured"
	"modelcat/pkg/logger"
)

// Fetcher is the outbound HTTP dependency. *crawler.HTTPClient satisfies it.
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string) (*crawler.Response, error)
}

type Extractor struct {
	fetcher Fetcher
	parser  *parser.Parser
	log     *logger.Logger
	metrics *metrics.Metrics
}

func New(f Fetcher, l *logger.Logger, m *metrics.Metrics) *Extractor {
	if l == nil {
		l = logger.Nop()
	}
	if m == nil {
		m = metrics.Nop()
	}
	return &Extractor{fetcher: f, parser: parser.New(), log: l, metrics: m}
}

// Extract fetches rawURL once and never returns an error: a failed fetch is
// recorded in ErrorCondition, failed extractions leave their field absent.
func (e *Extractor) Extract(ctx context.Context, rawURL string) models.Annotation {
	ann := models.Annotation{URL: rawURL}

	start := time.Now()
	resp, err := e.fetcher.Fetch(ctx, rawURL)
	e.metrics.ObserveFetch(err == nil, time.Since(start))
	if err != nil {
		e.log.Debugf("fetch %s: %v", rawURL, err)
		ann.ErrorCondition = &models.ErrorCondition{Kind: models.FetchFailed, Message: err.Error()}
		return ann
	}

	ann.JSONResponse = e.jsonResponse(resp.Body)

	body := e.parser.Decode(resp.Body, resp.ContentType)
	doc, err := e.parser.Document(body)
	if err != nil {
		e.metrics.ExtractionFailed("html")
		e.log.Debugf("parse html %s: %v", rawURL, err)
		ann.MetaContent = map[string]string{}
		return ann
	}

	data, err := structured.Extract(doc, body, structured.BaseURL(doc, resp.FinalURL))
	if err != nil {
		e.metrics.ExtractionFailed("structured_data")
		e.log.Debugf("structured data %s: %v", rawURL, err)
	} else {
		ann.StructuredData = data
	}

	ann.MetaContent = e.parser.MetaContent(doc)
	return ann
}

func (e *Extractor) jsonResponse(body []byte) any {
	var v any
	if err := json.Unmarshal(body, &v); err != nil {
		e.metrics.ExtractionFailed("json")
		return nil
	}
	return v
}
