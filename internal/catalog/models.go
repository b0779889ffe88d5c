package catalog

import (
	"context"
	"fmt"
	"sort"

	"modelcat/internal/models"
)

// List-out column names.
const (
	ColModelName     = "Model Name"
	ColContact       = "Contact"
	ColReferenceLink = "Model Reference Link"
	ColCatalogLink   = "ScienceBase Link"
)

// GetModels returns every model under catalogID (title and web links only)
// together with the sorted set of distinct link URLs across them.
func (c *Client) GetModels(ctx context.Context, catalogID string) ([]models.CatalogEntry, []string, error) {
	var entries []models.CatalogEntry
	seen := map[string]bool{}
	var links []string
	q := Query{ParentID: catalogID, Fields: []string{"title", "webLinks"}, Max: 100}
	err := c.Walk(ctx, q, func(p *Page) error {
		for _, e := range p.Items {
			for _, l := range e.WebLinks {
				if !seen[l.URI] {
					seen[l.URI] = true
					links = append(links, l.URI)
				}
			}
			entries = append(entries, e)
		}
		return nil
	})
	if err != nil {
		return nil, nil, fmt.Errorf("get models of %s: %w", catalogID, err)
	}
	sort.Strings(links)
	return entries, links, nil
}

// CatalogSpec describes the root item CreateModelCatalog makes.
type CatalogSpec struct {
	ParentID       string
	Title          string
	Body           string
	DeleteIfExists bool
}

// CreateModelCatalog creates the catalog root item under spec.ParentID. With
// DeleteIfExists, same-titled items under the parent and their children are
// removed first.
func (c *Client) CreateModelCatalog(ctx context.Context, spec CatalogSpec) (models.CatalogEntry, error) {
	if spec.ParentID == "" {
		return models.CatalogEntry{}, fmt.Errorf("create model catalog: parent id is required")
	}
	if spec.Title == "" {
		spec.Title = "USGS Model Catalog"
	}

	if spec.DeleteIfExists {
		// collect every match first so deletions do not shift later pages
		var existing []item
		q := Query{ParentID: spec.ParentID, Lucene: fmt.Sprintf("title:%q", spec.Title)}
		err := c.Walk(ctx, q, func(p *Page) error {
			existing = append(existing, p.raw...)
			return nil
		})
		if err != nil {
			return models.CatalogEntry{}, fmt.Errorf("find existing catalog: %w", err)
		}
		for _, it := range existing {
			if it.HasChildren {
				ids, err := c.ChildIDs(ctx, it.ID)
				if err != nil {
					return models.CatalogEntry{}, err
				}
				if err := c.DeleteItems(ctx, ids); err != nil {
					return models.CatalogEntry{}, fmt.Errorf("delete children of %s: %w", it.ID, err)
				}
			}
			if err := c.DeleteItem(ctx, it.ID); err != nil {
				return models.CatalogEntry{}, fmt.Errorf("delete existing catalog %s: %w", it.ID, err)
			}
			c.log.Infof("deleted existing catalog item %s", it.ID)
		}
	}

	return c.CreateItem(ctx, models.CatalogEntry{
		ParentID: spec.ParentID,
		Title:    spec.Title,
		Body:     spec.Body,
		WebLinks: []models.WebLink{},
	})
}

// ListOptions picks the optional list-out columns.
type ListOptions struct {
	Contact       bool
	ReferenceLink bool
	CatalogLink   bool
}

// Columns returns the selected column names in output order.
func (o ListOptions) Columns() []string {
	cols := []string{ColModelName}
	if o.Contact {
		cols = append(cols, ColContact)
	}
	if o.ReferenceLink {
		cols = append(cols, ColReferenceLink)
	}
	if o.CatalogLink {
		cols = append(cols, ColCatalogLink)
	}
	return cols
}

// ListOut summarises every model under catalogID as one row per model.
func (c *Client) ListOut(ctx context.Context, catalogID string, opts ListOptions) ([]map[string]string, error) {
	var rows []map[string]string
	q := Query{ParentID: catalogID, Fields: []string{"title", "webLinks", "contacts"}}
	err := c.Walk(ctx, q, func(p *Page) error {
		for _, e := range p.Items {
			rows = append(rows, ListRow(e, opts))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list out %s: %w", catalogID, err)
	}
	return rows, nil
}

// ListRow summarises one entry. Missing values are empty strings.
func ListRow(e models.CatalogEntry, opts ListOptions) map[string]string {
	row := map[string]string{ColModelName: e.Title}
	if opts.Contact {
		row[ColContact] = ""
		if len(e.Contacts) > 0 {
			row[ColContact] = e.Contacts[0].Name
		}
	}
	if opts.ReferenceLink {
		row[ColReferenceLink] = ""
		for _, l := range e.WebLinks {
			if l.Title == models.LinkTitleReference {
				row[ColReferenceLink] = l.URI
				break
			}
		}
	}
	if opts.CatalogLink {
		row[ColCatalogLink] = e.CatalogURL
	}
	return row
}
