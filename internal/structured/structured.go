// Package structured extracts embedded structured-data markup from HTML
// documents: microdata, JSON-LD, Open Graph, microformats2 and RDFa.
//
// Output shapes follow the layout common to structured-data extraction tools:
// each vocabulary maps to a list of property mappings, and every vocabulary is
// present in the result even when nothing was found.
package structured

import (
	"bytes"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"modelcat/internal/models"
)

// BaseURL returns the URL relative references in doc resolve against: the
// document's <base href> resolved against finalURL, or finalURL itself.
func BaseURL(doc *goquery.Document, finalURL string) string {
	base, err := url.Parse(finalURL)
	if err != nil {
		return finalURL
	}
	if doc != nil {
		if href, ok := doc.Find("base[href]").First().Attr("href"); ok {
			if ref, err := url.Parse(strings.TrimSpace(href)); err == nil {
				return base.ResolveReference(ref).String()
			}
		}
	}
	return base.String()
}

// Extract runs every vocabulary extractor over one document. body is the
// decoded HTML the document was built from. A panic inside an extractor is
// turned into an error so callers can treat the whole step as absent.
func Extract(doc *goquery.Document, body []byte, baseURL string) (data models.StructuredData, err error) {
	defer func() {
		if r := recover(); r != nil {
			data, err = nil, fmt.Errorf("structured data extraction: %v", r)
		}
	}()

	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("base url: %w", err)
	}

	mf, err := microformats2(bytes.NewReader(body), base)
	if err != nil {
		return nil, err
	}

	return models.StructuredData{
		models.Microdata:   microdata(doc, base),
		models.JSONLD:      jsonLD(doc),
		models.OpenGraph:   openGraph(doc),
		models.Microformat: mf,
		models.RDFa:        rdfa(doc, base),
	}, nil
}

// text returns the selection text with whitespace runs collapsed.
func text(s *goquery.Selection) string {
	return strings.Join(strings.Fields(s.Text()), " ")
}

func resolve(base *url.URL, ref string) string {
	ref = strings.TrimSpace(ref)
	u, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	return base.ResolveReference(u).String()
}
