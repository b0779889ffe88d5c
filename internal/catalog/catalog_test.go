package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"modelcat/internal/models"
)

// fakeCatalog serves two pages of models under "cat" and records mutations.
type fakeCatalog struct {
	mu      sync.Mutex
	deleted []string
	created []models.CatalogEntry
	srv     *httptest.Server
}

func newFakeCatalog(t *testing.T) *fakeCatalog {
	t.Helper()
	f := &fakeCatalog{}
	mux := http.NewServeMux()
	mux.HandleFunc("/items", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		switch {
		case q.Get("parentId") == "cat" && q.Get("page") == "":
			writeJSON(w, map[string]any{
				"total": 3,
				"items": []any{
					map[string]any{
						"id": "m1", "title": "Model One",
						"link": map[string]any{"rel": "self", "url": "https://sb/item/m1"},
						"webLinks": []any{
							map[string]any{"uri": "https://b.example", "title": "Model Reference Link"},
							map[string]any{"uri": "https://a.example", "title": "Model Output Data"},
						},
						"contacts": []any{map[string]any{"name": "Jane Doe", "type": "Contact"}},
					},
					map[string]any{"id": "m2", "title": "Model Two", "webLinks": []any{
						map[string]any{"uri": "https://a.example", "title": "Model Output Data"},
					}},
				},
				"nextlink": map[string]any{"rel": "next", "url": f.srv.URL + "/items?parentId=cat&page=2"},
			})
		case q.Get("parentId") == "cat":
			writeJSON(w, map[string]any{"total": 3, "items": []any{
				map[string]any{"id": "m3", "title": "Model Three"},
			}})
		case q.Get("parentId") == "root" && q.Get("lq") != "" && q.Get("page") == "":
			writeJSON(w, map[string]any{"total": 2, "items": []any{
				map[string]any{"id": "old", "title": "USGS Model Catalog", "hasChildren": true},
			}, "nextlink": map[string]any{"rel": "next", "url": f.srv.URL + "/items?parentId=root&lq=dup&page=2"}})
		case q.Get("parentId") == "root" && q.Get("lq") != "":
			writeJSON(w, map[string]any{"total": 2, "items": []any{
				map[string]any{"id": "old2", "title": "USGS Model Catalog"},
			}})
		case q.Get("parentId") == "old":
			writeJSON(w, map[string]any{"total": 2, "items": []any{
				map[string]any{"id": "c1"}, map[string]any{"id": "c2"},
			}})
		default:
			writeJSON(w, map[string]any{"total": 0, "items": []any{}})
		}
	})
	mux.HandleFunc("/item/", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodDelete {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		f.mu.Lock()
		f.deleted = append(f.deleted, strings.TrimPrefix(r.URL.Path, "/item/"))
		f.mu.Unlock()
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/item", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		var e models.CatalogEntry
		if err := json.NewDecoder(r.Body).Decode(&e); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		f.mu.Lock()
		f.created = append(f.created, e)
		f.mu.Unlock()
		writeJSON(w, map[string]any{"id": "new", "title": e.Title, "link": map[string]any{"url": "https://sb/item/new"}})
	})
	mux.HandleFunc("/forbidden/items", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "login required", http.StatusForbidden)
	})
	f.srv = httptest.NewServer(mux)
	t.Cleanup(f.srv.Close)
	return f
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func TestGetModelsWalksPages(t *testing.T) {
	f := newFakeCatalog(t)
	c := NewClient(f.srv.URL)

	entries, links, err := c.GetModels(context.Background(), "cat")
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, "m1", entries[0].ID)
	assert.Equal(t, "https://sb/item/m1", entries[0].CatalogURL)
	assert.Equal(t, "m3", entries[2].ID)
	assert.NotNil(t, entries[2].WebLinks)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, links)
}

func TestListOut(t *testing.T) {
	f := newFakeCatalog(t)
	c := NewClient(f.srv.URL)

	opts := ListOptions{Contact: true, ReferenceLink: true, CatalogLink: true}
	rows, err := c.ListOut(context.Background(), "cat", opts)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, map[string]string{
		ColModelName:     "Model One",
		ColContact:       "Jane Doe",
		ColReferenceLink: "https://b.example",
		ColCatalogLink:   "https://sb/item/m1",
	}, rows[0])
	assert.Equal(t, "", rows[1][ColContact])
	assert.Equal(t, "", rows[1][ColReferenceLink])
	assert.Equal(t, []string{ColModelName, ColContact, ColReferenceLink, ColCatalogLink}, opts.Columns())
	assert.Equal(t, []string{ColModelName}, ListOptions{}.Columns())
}

func TestCreateModelCatalogReplacesExisting(t *testing.T) {
	f := newFakeCatalog(t)
	c := NewClient(f.srv.URL)

	created, err := c.CreateModelCatalog(context.Background(), CatalogSpec{
		ParentID: "root", Body: "Models", DeleteIfExists: true,
	})
	require.NoError(t, err)
	assert.Equal(t, "new", created.ID)
	assert.Equal(t, []string{"c1", "c2", "old", "old2"}, f.deleted, "matches on every page are removed")
	require.Len(t, f.created, 1)
	assert.Equal(t, "USGS Model Catalog", f.created[0].Title)
	assert.Equal(t, "root", f.created[0].ParentID)
	assert.Equal(t, "Models", f.created[0].Body)

	_, err = c.CreateModelCatalog(context.Background(), CatalogSpec{})
	assert.Error(t, err)
}

func TestStatusErrors(t *testing.T) {
	f := newFakeCatalog(t)
	c := NewClient(f.srv.URL + "/forbidden")
	_, err := c.FindItems(context.Background(), Query{ParentID: "x"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrStatus))
	assert.Contains(t, err.Error(), "login required")
}

type stubResolver struct{}

func (stubResolver) PartyToContact(_ context.Context, term string) models.Contact {
	return models.Contact{Name: term, Type: "Contact", Email: term}
}

func TestBuildModelDocuments(t *testing.T) {
	rows := []models.ModelRow{{
		Name:        "Hydro",
		Contacts:    "a@usgs.gov; b@usgs.gov;",
		Link:        "https://ref1;https://ref2",
		OutputLinks: []string{"https://ref1", "", "  ", "https://out1", "https://out1"},
	}}
	docs := BuildModelDocuments(context.Background(), "catalog-1", rows, stubResolver{})
	require.Len(t, docs, 1)
	d := docs[0]
	assert.Equal(t, "catalog-1", d.ParentID)
	assert.Equal(t, "Hydro", d.Title)
	require.Len(t, d.Contacts, 2)
	assert.Equal(t, "b@usgs.gov", d.Contacts[1].Email)

	var got [][2]string
	for _, l := range d.WebLinks {
		got = append(got, [2]string{l.URI, l.Title})
		assert.Equal(t, "webLink", l.Type)
		assert.Equal(t, "related", l.Rel)
	}
	assert.Equal(t, [][2]string{
		{"https://ref1", models.LinkTitleReference},
		{"https://ref2", models.LinkTitleReference},
		{"https://out1", models.LinkTitleOutput},
	}, got)
}
