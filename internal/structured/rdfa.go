package structured

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// rdfa groups property-bearing elements by subject into expanded-JSON-LD-like
// nodes: {"@id": subject, "@type": [...], iri: [{"@value": v} | {"@id": iri}]}.
// It covers about/typeof/property/content/resource/href/src/vocab/prefix, not
// the full RDFa 1.1 processing model (no chaining via rel/rev, no lists).
func rdfa(doc *goquery.Document, base *url.URL) []map[string]any {
	prefixes := declaredPrefixes(doc)
	for p, ns := range ogNamespaces {
		if _, ok := prefixes[p]; !ok {
			prefixes[p] = ns
		}
	}
	doc.Find("[prefix]").Each(func(_ int, s *goquery.Selection) {
		parsePrefixes(s.AttrOr("prefix", ""), prefixes)
	})

	r := &rdfaState{
		base:     base,
		prefixes: prefixes,
		nodes:    map[string]map[string]any{},
		blanks:   map[*html.Node]string{},
	}

	doc.Find("[typeof]").Each(func(_ int, s *goquery.Selection) {
		subject := r.subjectOf(s)
		var types []any
		vocab := r.vocab(s)
		for _, t := range strings.Fields(s.AttrOr("typeof", "")) {
			types = append(types, r.expand(t, vocab))
		}
		if len(types) > 0 {
			node := r.node(subject)
			prev, _ := node["@type"].([]any)
			node["@type"] = append(prev, types...)
		}
	})

	doc.Find("[property]").Each(func(_ int, s *goquery.Selection) {
		subject := r.subjectOf(s.Parent())
		if _, self := s.Attr("about"); self {
			subject = r.subjectOf(s)
		}
		value := r.value(s)
		vocab := r.vocab(s)
		node := r.node(subject)
		for _, p := range strings.Fields(s.AttrOr("property", "")) {
			iri := r.expand(p, vocab)
			prev, _ := node[iri].([]any)
			node[iri] = append(prev, value)
		}
	})

	out := make([]map[string]any, 0, len(r.order))
	for _, id := range r.order {
		if len(r.nodes[id]) > 1 {
			out = append(out, r.nodes[id])
		}
	}
	return out
}

type rdfaState struct {
	base     *url.URL
	prefixes map[string]string
	nodes    map[string]map[string]any
	order    []string
	blanks   map[*html.Node]string
}

func (r *rdfaState) node(id string) map[string]any {
	n, ok := r.nodes[id]
	if !ok {
		n = map[string]any{"@id": id}
		r.nodes[id] = n
		r.order = append(r.order, id)
	}
	return n
}

// subjectOf walks up from s to the nearest element that establishes a subject.
func (r *rdfaState) subjectOf(s *goquery.Selection) string {
	for cur := s; cur.Length() > 0; cur = cur.Parent() {
		if about, ok := cur.Attr("about"); ok {
			return resolve(r.base, about)
		}
		if _, ok := cur.Attr("typeof"); ok {
			if res, ok := cur.Attr("resource"); ok {
				return resolve(r.base, res)
			}
			return r.blank(cur.Get(0))
		}
	}
	return r.base.String()
}

func (r *rdfaState) blank(n *html.Node) string {
	if id, ok := r.blanks[n]; ok {
		return id
	}
	id := fmt.Sprintf("_:b%d", len(r.blanks))
	r.blanks[n] = id
	return id
}

func (r *rdfaState) vocab(s *goquery.Selection) string {
	if v := s.Closest("[vocab]"); v.Length() > 0 {
		return v.AttrOr("vocab", "")
	}
	return ""
}

// expand turns a CURIE or vocabulary term into an IRI. Unknown terms are kept.
func (r *rdfaState) expand(term, vocab string) string {
	if prefix, local, ok := strings.Cut(term, ":"); ok {
		if ns, known := r.prefixes[prefix]; known {
			return ns + local
		}
		return term
	}
	if vocab != "" {
		return vocab + term
	}
	return term
}

func (r *rdfaState) value(s *goquery.Selection) map[string]any {
	if c, ok := s.Attr("content"); ok {
		return map[string]any{"@value": strings.TrimSpace(c)}
	}
	for _, attr := range []string{"resource", "href", "src"} {
		if ref, ok := s.Attr(attr); ok {
			return map[string]any{"@id": resolve(r.base, ref)}
		}
	}
	if dt, ok := s.Attr("datetime"); ok {
		return map[string]any{"@value": dt}
	}
	return map[string]any{"@value": text(s)}
}
