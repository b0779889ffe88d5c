// Package miner turns annotated catalog entries into one fact row per
// discovered field per link.
package miner

import (
	"encoding/json"
	"sort"
	"strings"

	"modelcat/internal/metrics"
	"modelcat/internal/models"
)

const (
	TypeTitle          = "title"
	TypeAbstract       = "abstract"
	TypeStructuredData = "structured data"
	TypeXMLMetadata    = "xml metadata"

	SourceTitleTag        = "Title Tag"
	SourceDescriptionTag  = "Description Meta Tag"
	SourceAbstractTag     = "Abstract Meta Tag"
	sourceMicrodataPrefix = "Microdata Property: "
	sourceOpenGraphPrefix = "OpenGraph Property: "
	sourceXMLPrefix       = "XML Metadata Summary: "
)

type Miner struct {
	metrics *metrics.Metrics
}

func New(m *metrics.Metrics) *Miner {
	if m == nil {
		m = metrics.Nop()
	}
	return &Miner{metrics: m}
}

// Mine returns the facts of every annotated link of entry. Every attempt is
// independent; a missing or malformed field only skips that attempt.
func (mn *Miner) Mine(entry models.CatalogEntry) []models.MinedFact {
	var facts []models.MinedFact
	for _, link := range entry.WebLinks {
		ann := link.Annotation
		if ann == nil || ann.Failed() {
			continue
		}
		base := models.MinedFact{
			ModelID:    entry.ID,
			ModelURL:   entry.CatalogURL,
			ModelTitle: entry.Title,
			LinkTitle:  link.Title,
			LinkURL:    link.URI,
		}
		emit := func(infoType, source, content string) {
			f := base
			f.InfoType, f.InfoSource, f.InfoContent = infoType, source, content
			facts = append(facts, f)
		}

		for _, a := range metaAttempts {
			if v, ok := metaValue(ann, a.key); ok {
				emit(a.infoType, a.source, v)
			} else {
				mn.metrics.MiningSkipped("meta_content." + a.key)
			}
		}

		if props, ok := microdataProperties(ann); ok {
			for _, k := range sortedKeys(props) {
				emit(TypeStructuredData, sourceMicrodataPrefix+k, render(props[k]))
			}
		} else {
			mn.metrics.MiningSkipped("microdata")
		}

		if pairs, ok := openGraphPairs(ann); ok {
			for _, p := range pairs {
				emit(TypeStructuredData, sourceOpenGraphPrefix+p[0], p[1])
			}
		} else {
			mn.metrics.MiningSkipped("opengraph")
		}

		if len(ann.XMLMetaSummary) > 0 {
			for _, k := range sortedKeys(ann.XMLMetaSummary) {
				emit(TypeXMLMetadata, sourceXMLPrefix+k, render(ann.XMLMetaSummary[k]))
			}
		} else {
			mn.metrics.MiningSkipped("xml_meta_summary")
		}
	}
	mn.metrics.FactsMined(len(facts))
	return facts
}

// MineAll concatenates the facts of entries in order.
func (mn *Miner) MineAll(entries []models.CatalogEntry) []models.MinedFact {
	var facts []models.MinedFact
	for _, e := range entries {
		facts = append(facts, mn.Mine(e)...)
	}
	return facts
}

var metaAttempts = []struct {
	key, infoType, source string
}{
	{"title", TypeTitle, SourceTitleTag},
	{"description", TypeAbstract, SourceDescriptionTag},
	{"abstract", TypeAbstract, SourceAbstractTag},
}

func metaValue(ann *models.Annotation, key string) (string, bool) {
	v, ok := ann.MetaContent[key]
	if !ok || strings.TrimSpace(v) == "" {
		return "", false
	}
	return v, true
}

// firstEntry returns the first property mapping extracted for vocabulary v.
func firstEntry(ann *models.Annotation, v models.Vocabulary) (map[string]any, bool) {
	if ann.StructuredData == nil {
		return nil, false
	}
	entries := ann.StructuredData[v]
	if len(entries) == 0 || entries[0] == nil {
		return nil, false
	}
	return entries[0], true
}

func microdataProperties(ann *models.Annotation) (map[string]any, bool) {
	item, ok := firstEntry(ann, models.Microdata)
	if !ok {
		return nil, false
	}
	props, ok := item["properties"].(map[string]any)
	if !ok || len(props) == 0 {
		return nil, false
	}
	return props, true
}

// openGraphPairs reads the first opengraph entry's properties as a sequence
// of [property, value] pairs. A mapping is not accepted; only elements that
// are two-element sequences with a string property contribute.
func openGraphPairs(ann *models.Annotation) ([][2]string, bool) {
	item, ok := firstEntry(ann, models.OpenGraph)
	if !ok {
		return nil, false
	}
	seq, ok := item["properties"].([]any)
	if !ok {
		return nil, false
	}
	var pairs [][2]string
	for _, e := range seq {
		pair, ok := e.([]any)
		if !ok || len(pair) != 2 {
			continue
		}
		prop, ok := pair[0].(string)
		if !ok {
			continue
		}
		pairs = append(pairs, [2]string{prop, render(pair[1])})
	}
	return pairs, len(pairs) > 0
}

// render keeps strings as they are and encodes anything else as JSON.
func render(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	b, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(b)
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
