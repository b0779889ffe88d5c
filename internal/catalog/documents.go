package catalog

import (
	"context"
	"strings"

	"modelcat/internal/models"
)

// ContactResolver turns a spreadsheet contact term into a catalog contact.
// *directory.Client satisfies it.
type ContactResolver interface {
	PartyToContact(ctx context.Context, term string) models.Contact
}

// BuildModelDocuments converts spreadsheet rows into catalog items ready to
// be created under parentID.
func BuildModelDocuments(ctx context.Context, parentID string, rows []models.ModelRow, contacts ContactResolver) []models.CatalogEntry {
	docs := make([]models.CatalogEntry, 0, len(rows))
	for _, row := range rows {
		doc := models.CatalogEntry{
			ParentID: parentID,
			Title:    row.Name,
			WebLinks: []models.WebLink{},
		}

		for _, term := range splitList(row.Contacts) {
			doc.Contacts = append(doc.Contacts, contacts.PartyToContact(ctx, term))
		}

		present := map[string]bool{}
		for _, u := range splitList(row.Link) {
			doc.WebLinks = append(doc.WebLinks, models.NewWebLink(u, models.LinkTitleReference))
			present[u] = true
		}
		for _, u := range row.OutputLinks {
			u = strings.TrimSpace(u)
			if u == "" || present[u] {
				continue
			}
			doc.WebLinks = append(doc.WebLinks, models.NewWebLink(u, models.LinkTitleOutput))
			present[u] = true
		}

		docs = append(docs, doc)
	}
	return docs
}

// splitList splits a semicolon-delimited cell, dropping blanks.
func splitList(cell string) []string {
	var out []string
	for _, part := range strings.Split(cell, ";") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
