package structured

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// microdata returns one mapping per top-level itemscope:
// {"type": ..., "id": ..., "properties": {name: value | []value}}.
func microdata(doc *goquery.Document, base *url.URL) []map[string]any {
	items := []map[string]any{}
	doc.Find("[itemscope]").Each(func(_ int, s *goquery.Selection) {
		if _, nested := s.Attr("itemprop"); nested {
			return
		}
		items = append(items, microdataItem(s, base, map[*html.Node]bool{}))
	})
	return items
}

func microdataItem(item *goquery.Selection, base *url.URL, seen map[*html.Node]bool) map[string]any {
	node := item.Get(0)
	seen[node] = true
	defer delete(seen, node)

	out := map[string]any{}
	if types := strings.Fields(item.AttrOr("itemtype", "")); len(types) > 0 {
		list := make([]any, len(types))
		for i, t := range types {
			list[i] = t
		}
		out["type"] = list
	}
	if id, ok := item.Attr("itemid"); ok {
		out["id"] = resolve(base, id)
	}

	props := map[string]any{}
	item.Find("[itemprop]").Each(func(_ int, p *goquery.Selection) {
		// only properties whose nearest enclosing item is this one
		owner := p.Parent().Closest("[itemscope]")
		if owner.Length() == 0 || owner.Get(0) != node {
			return
		}
		var value any
		if _, scoped := p.Attr("itemscope"); scoped {
			if seen[p.Get(0)] {
				return
			}
			value = microdataItem(p, base, seen)
		} else {
			value = microdataValue(p, base)
		}
		for _, name := range strings.Fields(p.AttrOr("itemprop", "")) {
			addProperty(props, name, value)
		}
	})
	out["properties"] = props
	return out
}

// addProperty stores repeated property names as a list, single ones as a value.
func addProperty(props map[string]any, name string, value any) {
	prev, ok := props[name]
	if !ok {
		props[name] = value
		return
	}
	if list, isList := prev.([]any); isList {
		props[name] = append(list, value)
		return
	}
	props[name] = []any{prev, value}
}

func microdataValue(p *goquery.Selection, base *url.URL) any {
	switch goquery.NodeName(p) {
	case "meta":
		return strings.TrimSpace(p.AttrOr("content", ""))
	case "audio", "embed", "iframe", "img", "source", "track", "video":
		return resolve(base, p.AttrOr("src", ""))
	case "a", "area", "link":
		return resolve(base, p.AttrOr("href", ""))
	case "object":
		return resolve(base, p.AttrOr("data", ""))
	case "data", "meter":
		return p.AttrOr("value", "")
	case "time":
		if dt, ok := p.Attr("datetime"); ok {
			return dt
		}
	}
	if c, ok := p.Attr("content"); ok {
		return strings.TrimSpace(c)
	}
	return text(p)
}
