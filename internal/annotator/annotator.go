// Package annotator attaches an extraction Annotation to every web link of a
// batch of catalog entries.
package annotator

import (
	"context"
	"sync"

	"modelcat/internal/models"
	"modelcat/pkg/logger"
)

// LinkExtractor is satisfied by *extractor.Extractor.
type LinkExtractor interface {
	Extract(ctx context.Context, rawURL string) models.Annotation
}

type Annotator struct {
	ext     LinkExtractor
	workers int
	dedupe  bool
	log     *logger.Logger
}

type Option func(*Annotator)

// WithWorkers sets how many links are fetched at once. The default of 1 keeps
// fetches strictly sequential.
func WithWorkers(n int) Option {
	return func(a *Annotator) {
		if n > 0 {
			a.workers = n
		}
	}
}

// WithDedupe fetches each distinct URL once per batch and gives every link
// with that URL its own deep copy of the result.
func WithDedupe(on bool) Option { return func(a *Annotator) { a.dedupe = on } }

func WithLogger(l *logger.Logger) Option {
	return func(a *Annotator) {
		if l != nil {
			a.log = l
		}
	}
}

func New(ext LinkExtractor, opts ...Option) *Annotator {
	a := &Annotator{ext: ext, workers: 1, log: logger.Nop()}
	for _, o := range opts {
		o(a)
	}
	return a
}

type slot struct{ entry, link int }

// job is one fetch and the link slots that receive its result.
type job struct {
	url   string
	slots []slot
}

// Annotate sets WebLink.Annotation on every link of entries in place and
// returns entries. Failures stay on the link they happened to.
func (a *Annotator) Annotate(ctx context.Context, entries []models.CatalogEntry) []models.CatalogEntry {
	var jobs []job
	byURL := map[string]int{}
	for i := range entries {
		for j := range entries[i].WebLinks {
			u := entries[i].WebLinks[j].URI
			if k, seen := byURL[u]; seen && a.dedupe {
				jobs[k].slots = append(jobs[k].slots, slot{i, j})
				continue
			}
			byURL[u] = len(jobs)
			jobs = append(jobs, job{url: u, slots: []slot{{i, j}}})
		}
	}

	results := make([]models.Annotation, len(jobs))
	sem := make(chan struct{}, a.workers)
	var wg sync.WaitGroup
	for k, jb := range jobs {
		k, u := k, jb.url
		sem <- struct{}{} // acquire
		wg.Add(1)
		go func() {
			defer func() { <-sem; wg.Done() }()
			if err := ctx.Err(); err != nil {
				results[k] = models.Annotation{URL: u, ErrorCondition: &models.ErrorCondition{
					Kind: models.FetchFailed, Message: err.Error(),
				}}
				return
			}
			results[k] = a.ext.Extract(ctx, u)
		}()
	}
	wg.Wait()

	failed := 0
	for k, jb := range jobs {
		if results[k].Failed() {
			failed++
		}
		for _, s := range jb.slots {
			ann := results[k].Clone()
			entries[s.entry].WebLinks[s.link].Annotation = &ann
		}
	}
	a.log.Infof("annotated %d entries, %d fetches, %d failed", len(entries), len(jobs), failed)
	return entries
}
