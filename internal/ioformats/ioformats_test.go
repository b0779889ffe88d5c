package ioformats

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"modelcat/internal/flatten"
	"modelcat/internal/models"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	return p
}

func TestReadURLs(t *testing.T) {
	csvPath := writeFile(t, "links.csv", "title,URL\nA,https://a.example\nB,\nC, https://c.example \n")
	urls, err := ReadURLs(csvPath)
	require.NoError(t, err)
	assert.Equal(t, []string{"https://a.example", "https://c.example"}, urls)

	nd := writeFile(t, "links.ndjson", "{\"url\":\"https://a.example\"}\n\n{\"uri\":\"https://b.example\"}\nhttps://c.example\n")
	urls, err = ReadURLs(nd)
	require.NoError(t, err)
	assert.Equal(t, []string{"https://a.example", "https://b.example", "https://c.example"}, urls)

	_, err = ReadURLs(writeFile(t, "bad.csv", "title\nA\n"))
	assert.Error(t, err)
}

func TestReadJSONArrayAndStream(t *testing.T) {
	arr, err := ReadJSON[models.CatalogEntry](strings.NewReader(`  [{"id":"a","title":"A","webLinks":[]},{"id":"b","title":"B","webLinks":[]}]`))
	require.NoError(t, err)
	require.Len(t, arr, 2)
	assert.Equal(t, "b", arr[1].ID)

	stream, err := ReadJSON[models.CatalogEntry](strings.NewReader("{\"id\":\"a\",\"title\":\"A\"}\n{\"id\":\"b\",\"title\":\"B\"}\n"))
	require.NoError(t, err)
	assert.Len(t, stream, 2)

	empty, err := ReadJSON[models.CatalogEntry](strings.NewReader("\n  "))
	require.NoError(t, err)
	assert.Empty(t, empty)

	_, err = ReadJSON[models.CatalogEntry](strings.NewReader("{\"id\":"))
	assert.Error(t, err)
}

func TestReadEntriesFillsWebLinks(t *testing.T) {
	p := writeFile(t, "entries.json", `{"id":"a","title":"A"}`)
	entries, err := ReadEntries(p)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.NotNil(t, entries[0].WebLinks)
}

func TestWriteFactsCSV(t *testing.T) {
	var buf bytes.Buffer
	err := WriteFactsCSV(&buf, []models.MinedFact{{
		ModelID: "m1", ModelTitle: "Hydro", LinkURL: "https://a.example",
		InfoType: "meta", InfoSource: "Title Tag", InfoContent: "Hydro, the model",
	}})
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, strings.Join(models.FactColumns, ","), lines[0])
	assert.Equal(t, `m1,,Hydro,,https://a.example,meta,Title Tag,"Hydro, the model"`, lines[1])
}

func TestWriteRecordsCSV(t *testing.T) {
	a, err := flatten.Flatten(map[string]any{"id": "a", "n": 1.5, "ok": true})
	require.NoError(t, err)
	b, err := flatten.Flatten(map[string]any{"id": "b", "extra": nil})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteRecordsCSV(&buf, []*flatten.Record{a, b}))
	assert.Equal(t, "id,n,ok,extra\na,1.5,true,\nb,,,\n", buf.String())
}

func TestCell(t *testing.T) {
	assert.Equal(t, "", Cell(nil))
	assert.Equal(t, "3", Cell(3.0))
	assert.Equal(t, "{}", Cell(map[string]any{}))
	assert.Equal(t, `["a<b"]`, Cell([]any{"a<b"}))
}

func TestModelsSheetRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	header := []string{HeaderModelName, HeaderContacts, HeaderLink, "Output", "Output", "Unnamed: 5", "Notes"}
	require.NoError(t, WriteSheet(&buf, "Models", header, [][]string{
		{"Hydro", "a@usgs.gov;b@usgs.gov", "https://ref", "https://out1", "", "junk", "n1"},
		{"", "", "", "", "", "", ""},
		{"Geo", "c@usgs.gov", "https://geo"},
	}))

	rows, err := ReadModelsSheet(&buf)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, "Hydro", rows[0].Name)
	assert.Equal(t, "a@usgs.gov;b@usgs.gov", rows[0].Contacts)
	assert.Equal(t, "https://ref", rows[0].Link)
	assert.Equal(t, []string{"https://out1", ""}, rows[0].OutputLinks)
	assert.Equal(t, map[string]string{"Notes": "n1"}, rows[0].Extra)

	assert.Equal(t, "Geo", rows[1].Name)
	assert.Equal(t, []string{"", ""}, rows[1].OutputLinks)
}

func TestWriteCatalogList(t *testing.T) {
	path := filepath.Join(t.TempDir(), "list.xlsx")
	cols := []string{"Model Name", "Contact"}
	require.NoError(t, WriteCatalogList(path, cols, []map[string]string{
		{"Model Name": "Hydro", "Contact": "Jane"},
		{"Model Name": "Geo", "Contact": "Bob"},
	}))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()
	assert.Equal(t, []string{"Models"}, f.GetSheetList())
	got, err := f.GetRows("Models")
	require.NoError(t, err)
	assert.Equal(t, [][]string{
		{"Model Name", "Contact"},
		{"Hydro", "Jane"},
		{"Geo", "Bob"},
	}, got)
}
