package structured

import (
	"encoding/json"
	"fmt"
	"io"
	"net/url"

	"willnorris.com/go/microformats"
)

// microformats2 parses h-* roots into {"type": [...], "properties": {...}, "children": [...]}.
func microformats2(r io.Reader, base *url.URL) ([]map[string]any, error) {
	data := microformats.Parse(r, base)
	out := []map[string]any{}
	if data == nil {
		return out, nil
	}
	for _, item := range data.Items {
		raw, err := json.Marshal(item)
		if err != nil {
			return nil, fmt.Errorf("microformat item: %w", err)
		}
		var m map[string]any
		if err := json.Unmarshal(raw, &m); err != nil {
			return nil, fmt.Errorf("microformat item: %w", err)
		}
		out = append(out, m)
	}
	return out, nil
}
