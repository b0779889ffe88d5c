package main

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"modelcat/internal/classifier"
	"modelcat/internal/flatten"
	"modelcat/internal/models"
	"modelcat/internal/pipeline"
	"modelcat/pkg/logger"
)

const maxRequestBytes = 32 << 20

type server struct {
	pipe *pipeline.Pipeline
	log  *logger.Logger
	reg  *prometheus.Registry
}

func newServer(p *pipeline.Pipeline, l *logger.Logger, reg *prometheus.Registry) *server {
	return &server{pipe: p, log: l, reg: reg}
}

func (s *server) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	mux.HandleFunc("/extract", s.post(s.extract))
	mux.HandleFunc("/annotate", s.post(s.annotate))
	mux.HandleFunc("/mine", s.post(s.mine))
	mux.HandleFunc("/flatten", s.post(s.flattenValues))
	mux.HandleFunc("/classify", s.post(s.classify))
	mux.Handle("/metrics", promhttp.HandlerFor(s.reg, promhttp.HandlerOpts{}))
	return mux
}

// post rejects other methods and hands the handler a batch-tagged logger.
func (s *server) post(h func(w http.ResponseWriter, r *http.Request, batchID string, l *logger.Logger)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
			return
		}
		r.Body = http.MaxBytesReader(w, r.Body, maxRequestBytes)
		id := uuid.NewString()
		h(w, r, id, s.log.With("batch_id", id, "path", r.URL.Path))
	}
}

type extractReq struct {
	URL  string   `json:"url"`
	URLs []string `json:"urls"`
}

// POST /extract  {"url": "..."} or {"urls": ["...", "..."]}
func (s *server) extract(w http.ResponseWriter, r *http.Request, batchID string, l *logger.Logger) {
	var req extractReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid payload")
		return
	}
	urls := req.URLs
	if req.URL != "" {
		urls = append([]string{req.URL}, urls...)
	}
	if len(urls) == 0 {
		badRequest(w, "url or urls required")
		return
	}
	l.Infof("extracting %d links", len(urls))
	writeJSON(w, http.StatusOK, map[string]any{
		"batch_id": batchID,
		"records":  s.pipe.ExtractAll(r.Context(), urls),
	})
}

type entriesReq struct {
	Entries   []models.CatalogEntry `json:"entries"`
	Annotated bool                  `json:"annotated"`
}

func decodeEntries(w http.ResponseWriter, r *http.Request) (entriesReq, bool) {
	var req entriesReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Entries == nil {
		badRequest(w, "invalid payload")
		return req, false
	}
	for i := range req.Entries {
		if req.Entries[i].WebLinks == nil {
			req.Entries[i].WebLinks = []models.WebLink{}
		}
	}
	return req, true
}

// POST /annotate  {"entries": [...]}
func (s *server) annotate(w http.ResponseWriter, r *http.Request, batchID string, l *logger.Logger) {
	req, ok := decodeEntries(w, r)
	if !ok {
		return
	}
	l.Infof("annotating %d entries", len(req.Entries))
	writeJSON(w, http.StatusOK, map[string]any{
		"batch_id": batchID,
		"entries":  s.pipe.Annotator.Annotate(r.Context(), req.Entries),
	})
}

// POST /mine  {"entries": [...], "annotated": false}
func (s *server) mine(w http.ResponseWriter, r *http.Request, batchID string, l *logger.Logger) {
	req, ok := decodeEntries(w, r)
	if !ok {
		return
	}
	entries := req.Entries
	if !req.Annotated {
		entries = s.pipe.Annotator.Annotate(r.Context(), entries)
	}
	facts := s.pipe.Miner.MineAll(entries)
	l.Infof("mined %d facts from %d entries", len(facts), len(entries))
	writeJSON(w, http.StatusOK, map[string]any{"batch_id": batchID, "facts": facts})
}

// POST /flatten  {"values": [...]}
func (s *server) flattenValues(w http.ResponseWriter, r *http.Request, batchID string, l *logger.Logger) {
	var req struct {
		Values []any `json:"values"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid payload")
		return
	}
	rows := make([]*flatten.Record, 0, len(req.Values))
	for _, v := range req.Values {
		rec, err := flatten.Flatten(v)
		if err != nil {
			badRequest(w, err.Error())
			return
		}
		rows = append(rows, rec)
	}
	l.Debugf("flattened %d values", len(rows))
	writeJSON(w, http.StatusOK, map[string]any{
		"batch_id": batchID,
		"columns":  flatten.Columns(rows),
		"rows":     rows,
	})
}

type classifyReq struct {
	Records []models.Annotation `json:"records"`
	Bucket  string              `json:"bucket"`
}

// POST /classify  {"records": [...], "bucket": "json-ld"}
func (s *server) classify(w http.ResponseWriter, r *http.Request, batchID string, l *logger.Logger) {
	var req classifyReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid payload")
		return
	}
	if req.Bucket == "" {
		req.Bucket = string(classifier.All)
	}
	b, err := classifier.ParseBucket(req.Bucket)
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	kept, err := s.pipe.Classifier.Classify(req.Records, b)
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	l.Infof("bucket %s kept %d of %d", b, len(kept), len(req.Records))
	writeJSON(w, http.StatusOK, map[string]any{
		"batch_id": batchID,
		"bucket":   b,
		"records":  kept,
		"counts":   s.pipe.Classifier.Summarize(req.Records),
	})
}

func badRequest(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, map[string]string{"error": msg})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
