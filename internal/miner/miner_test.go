package miner

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"modelcat/internal/models"
)

func entryWith(ann *models.Annotation) models.CatalogEntry {
	return models.CatalogEntry{
		ID:         "abc",
		Title:      "Hydro",
		CatalogURL: "https://www.sciencebase.gov/catalog/item/abc",
		WebLinks: []models.WebLink{{
			URI:        "https://example.org/hydro",
			Title:      models.LinkTitleReference,
			Annotation: ann,
		}},
	}
}

func TestMineTitleOnly(t *testing.T) {
	facts := New(nil).Mine(entryWith(&models.Annotation{
		URL:         "https://example.org/hydro",
		MetaContent: map[string]string{"title": "Foo"},
	}))
	require.Len(t, facts, 1)
	f := facts[0]
	assert.Equal(t, TypeTitle, f.InfoType)
	assert.Equal(t, "Foo", f.InfoContent)
	assert.Equal(t, "abc", f.ModelID)
	assert.Equal(t, "https://www.sciencebase.gov/catalog/item/abc", f.ModelURL)
	assert.Equal(t, "Hydro", f.ModelTitle)
	assert.Equal(t, models.LinkTitleReference, f.LinkTitle)
	assert.Equal(t, "https://example.org/hydro", f.LinkURL)
}

func TestMineMicrodataProperties(t *testing.T) {
	facts := New(nil).Mine(entryWith(&models.Annotation{
		URL:         "https://example.org/hydro",
		MetaContent: map[string]string{},
		StructuredData: models.StructuredData{
			models.Microdata: {
				{"type": []any{"https://schema.org/SoftwareApplication"}, "properties": map[string]any{"name": "X", "version": "1.0"}},
				{"properties": map[string]any{"ignored": "second item"}},
			},
		},
	}))
	require.Len(t, facts, 2)
	assert.Equal(t, "Microdata Property: name", facts[0].InfoSource)
	assert.Equal(t, "X", facts[0].InfoContent)
	assert.Equal(t, "Microdata Property: version", facts[1].InfoSource)
	assert.Equal(t, "1.0", facts[1].InfoContent)
}

func TestMineDescriptionAndAbstractBothKept(t *testing.T) {
	facts := New(nil).Mine(entryWith(&models.Annotation{
		MetaContent: map[string]string{"description": "d", "abstract": "a"},
	}))
	require.Len(t, facts, 2)
	assert.Equal(t, TypeAbstract, facts[0].InfoType)
	assert.Equal(t, SourceDescriptionTag, facts[0].InfoSource)
	assert.Equal(t, TypeAbstract, facts[1].InfoType)
	assert.Equal(t, SourceAbstractTag, facts[1].InfoSource)
}

func TestMineOpenGraphPairs(t *testing.T) {
	facts := New(nil).Mine(entryWith(&models.Annotation{
		StructuredData: models.StructuredData{
			models.OpenGraph: {{
				"namespace":  map[string]any{"og": "http://ogp.me/ns#"},
				"properties": []any{[]any{"og:title", "Hydro"}, []any{"og:image", "a.png"}, []any{"og:image", "b.png"}},
			}},
		},
	}))
	require.Len(t, facts, 3)
	assert.Equal(t, "OpenGraph Property: og:title", facts[0].InfoSource)
	assert.Equal(t, "Hydro", facts[0].InfoContent)
	assert.Equal(t, "b.png", facts[2].InfoContent)
}

func TestMineOpenGraphMappingYieldsNothing(t *testing.T) {
	facts := New(nil).Mine(entryWith(&models.Annotation{
		StructuredData: models.StructuredData{
			models.OpenGraph: {{"properties": map[string]any{"og:title": "Hydro"}}},
		},
	}))
	assert.Empty(t, facts)
}

func TestMineXMLSummary(t *testing.T) {
	facts := New(nil).Mine(entryWith(&models.Annotation{
		XMLMetaSummary: map[string]any{"purpose": "flood forecasting", "year": 2019.0},
	}))
	require.Len(t, facts, 2)
	assert.Equal(t, TypeXMLMetadata, facts[0].InfoType)
	assert.Equal(t, "XML Metadata Summary: purpose", facts[0].InfoSource)
	assert.Equal(t, "2019", facts[1].InfoContent)
}

func TestMineSkipsMalformedAndFailed(t *testing.T) {
	entry := entryWith(&models.Annotation{
		MetaContent: map[string]string{"title": "T"},
		StructuredData: models.StructuredData{
			models.Microdata: {{"properties": "not a mapping"}},
			models.OpenGraph: {{"properties": []any{"not a pair", []any{1, "x"}}}},
		},
	})
	entry.WebLinks = append(entry.WebLinks,
		models.WebLink{URI: "https://broken", Annotation: &models.Annotation{
			URL: "https://broken", ErrorCondition: &models.ErrorCondition{Kind: models.FetchFailed, Message: "dns"},
		}},
		models.WebLink{URI: "https://unannotated"},
	)
	facts := New(nil).Mine(entry)
	require.Len(t, facts, 1)
	assert.Equal(t, "T", facts[0].InfoContent)
}

func TestMineAllKeepsOrder(t *testing.T) {
	a := entryWith(&models.Annotation{MetaContent: map[string]string{"title": "A"}})
	b := entryWith(&models.Annotation{MetaContent: map[string]string{"title": "B"}})
	b.ID = "def"
	facts := New(nil).MineAll([]models.CatalogEntry{a, b})
	require.Len(t, facts, 2)
	assert.Equal(t, "abc", facts[0].ModelID)
	assert.Equal(t, "def", facts[1].ModelID)
}
