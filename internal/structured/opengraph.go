package structured

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// ogNamespaces are the prefixes recognised without an explicit prefix declaration.
var ogNamespaces = map[string]string{
	"og":      "http://ogp.me/ns#",
	"fb":      "http://ogp.me/ns/fb#",
	"article": "http://ogp.me/ns/article#",
	"book":    "http://ogp.me/ns/book#",
	"profile": "http://ogp.me/ns/profile#",
	"music":   "http://ogp.me/ns/music#",
	"video":   "http://ogp.me/ns/video#",
	"website": "http://ogp.me/ns/website#",
}

// openGraph returns at most one entry for the document:
// {"namespace": {prefix: uri}, "properties": [[property, content], ...]}.
// Properties are ordered pairs since names like og:image repeat.
func openGraph(doc *goquery.Document) []map[string]any {
	known := declaredPrefixes(doc)
	for p, ns := range ogNamespaces {
		if _, ok := known[p]; !ok {
			known[p] = ns
		}
	}

	used := map[string]any{}
	props := []any{}
	doc.Find("meta[property]").Each(func(_ int, s *goquery.Selection) {
		prop := strings.TrimSpace(s.AttrOr("property", ""))
		content, ok := s.Attr("content")
		if !ok {
			return
		}
		prefix, _, found := strings.Cut(prop, ":")
		if !found {
			return
		}
		ns, ok := known[prefix]
		if !ok {
			return
		}
		used[prefix] = ns
		props = append(props, []any{prop, strings.TrimSpace(content)})
	})

	if len(props) == 0 {
		return []map[string]any{}
	}
	return []map[string]any{{"namespace": used, "properties": props}}
}

// declaredPrefixes reads RDFa-style prefix="og: http://ogp.me/ns#" declarations
// from the html and head elements.
func declaredPrefixes(doc *goquery.Document) map[string]string {
	out := map[string]string{}
	doc.Find("html[prefix], head[prefix]").Each(func(_ int, s *goquery.Selection) {
		parsePrefixes(s.AttrOr("prefix", ""), out)
	})
	return out
}

func parsePrefixes(decl string, into map[string]string) {
	fields := strings.Fields(decl)
	for i := 0; i < len(fields)-1; i++ {
		if p, ok := strings.CutSuffix(fields[i], ":"); ok {
			into[p] = fields[i+1]
			i++
		}
	}
}
