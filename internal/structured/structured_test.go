package structured

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"modelcat/internal/models"
)

const modelPage = `<!doctype html>
<html prefix="dc: http://purl.org/dc/terms/">
<head>
<base href="/docs/">
<title>Hydro Model</title>
<meta property="og:title" content="Hydro Model">
<meta property="og:image" content="https://example.org/a.png">
<meta property="og:image" content="https://example.org/b.png">
<meta property="twitter:card" content="summary">
<script type="application/ld+json">{"@context":"https://schema.org","@type":"SoftwareApplication","name":"Hydro"}</script>
<script type="application/ld+json">[{"@type":"Person","name":"A"},{"@type":"Person","name":"B"}, 3]</script>
<script type="application/ld+json">{ not json </script>
</head>
<body>
<div itemscope itemtype="https://schema.org/SoftwareApplication">
  <span itemprop="name">Hydro</span>
  <meta itemprop="softwareVersion" content="1.0">
  <a itemprop="url" href="hydro.html">home</a>
  <span itemprop="keywords">water</span>
  <span itemprop="keywords">flow</span>
  <div itemprop="author" itemscope itemtype="https://schema.org/Person">
    <span itemprop="name">Jane   Doe</span>
  </div>
</div>
<div class="h-card"><span class="p-name">Jane Doe</span></div>
<div vocab="https://schema.org/" typeof="Dataset" about="#output">
  <span property="name">Hydro Output</span>
  <span property="dc:creator">Jane</span>
</div>
</body></html>`

func extract(t *testing.T, page, finalURL string) models.StructuredData {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page))
	require.NoError(t, err)
	data, err := Extract(doc, []byte(page), BaseURL(doc, finalURL))
	require.NoError(t, err)
	return data
}

func TestBaseURL(t *testing.T) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(modelPage))
	require.NoError(t, err)
	assert.Equal(t, "https://example.org/docs/", BaseURL(doc, "https://example.org/models/hydro"))

	plain, err := goquery.NewDocumentFromReader(strings.NewReader("<p>x</p>"))
	require.NoError(t, err)
	assert.Equal(t, "https://example.org/models/hydro", BaseURL(plain, "https://example.org/models/hydro"))
}

func TestAllVocabulariesPresent(t *testing.T) {
	data := extract(t, "<html><body>nothing here</body></html>", "https://example.org/")
	for _, v := range models.Vocabularies() {
		items, ok := data[v]
		assert.True(t, ok, "missing %s", v)
		assert.NotNil(t, items, "%s should be empty, not nil", v)
		assert.Empty(t, items, "%s", v)
	}
}

func TestMicrodata(t *testing.T) {
	data := extract(t, modelPage, "https://example.org/models/hydro")
	require.Len(t, data[models.Microdata], 1)
	item := data[models.Microdata][0]
	assert.Equal(t, []any{"https://schema.org/SoftwareApplication"}, item["type"])

	props := item["properties"].(map[string]any)
	assert.Equal(t, "Hydro", props["name"])
	assert.Equal(t, "1.0", props["softwareVersion"])
	assert.Equal(t, "https://example.org/docs/hydro.html", props["url"])
	assert.Equal(t, []any{"water", "flow"}, props["keywords"])

	author := props["author"].(map[string]any)
	assert.Equal(t, []any{"https://schema.org/Person"}, author["type"])
	assert.Equal(t, map[string]any{"name": "Jane Doe"}, author["properties"])
}

func TestJSONLD(t *testing.T) {
	data := extract(t, modelPage, "https://example.org/")
	ld := data[models.JSONLD]
	require.Len(t, ld, 3)
	assert.Equal(t, "SoftwareApplication", ld[0]["@type"])
	assert.Equal(t, "A", ld[1]["name"])
	assert.Equal(t, "B", ld[2]["name"])
}

func TestOpenGraphKeepsOrderedPairs(t *testing.T) {
	data := extract(t, modelPage, "https://example.org/")
	og := data[models.OpenGraph]
	require.Len(t, og, 1)
	assert.Equal(t, map[string]any{"og": "http://ogp.me/ns#"}, og[0]["namespace"])
	assert.Equal(t, []any{
		[]any{"og:title", "Hydro Model"},
		[]any{"og:image", "https://example.org/a.png"},
		[]any{"og:image", "https://example.org/b.png"},
	}, og[0]["properties"])
}

func TestMicroformats(t *testing.T) {
	data := extract(t, modelPage, "https://example.org/")
	mf := data[models.Microformat]
	require.Len(t, mf, 1)
	assert.Equal(t, []any{"h-card"}, mf[0]["type"])
	props := mf[0]["properties"].(map[string]any)
	assert.Equal(t, []any{"Jane Doe"}, props["name"])
}

func TestRDFa(t *testing.T) {
	data := extract(t, modelPage, "https://example.org/models/hydro")
	var dataset map[string]any
	for _, n := range data[models.RDFa] {
		if n["@id"] == "https://example.org/docs/#output" {
			dataset = n
		}
	}
	require.NotNil(t, dataset, "rdfa nodes: %#v", data[models.RDFa])
	assert.Equal(t, []any{"https://schema.org/Dataset"}, dataset["@type"])
	assert.Equal(t, []any{map[string]any{"@value": "Hydro Output"}}, dataset["https://schema.org/name"])
	assert.Equal(t, []any{map[string]any{"@value": "Jane"}}, dataset["http://purl.org/dc/terms/creator"])
}

func TestRDFaIncludesOpenGraphMeta(t *testing.T) {
	page := `<html><head><meta property="og:title" content="Hydro"></head><body></body></html>`
	data := extract(t, page, "https://example.org/")
	assert.Equal(t, []map[string]any{{
		"@id":                    "https://example.org/",
		"http://ogp.me/ns#title": []any{map[string]any{"@value": "Hydro"}},
	}}, data[models.RDFa])
}
