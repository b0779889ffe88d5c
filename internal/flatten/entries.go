package flatten

import (
	"fmt"

	"modelcat/internal/models"
)

// Entries flattens each annotated entry into one row.
func Entries(entries []models.CatalogEntry) ([]*Record, error) {
	rows := make([]*Record, 0, len(entries))
	for i, e := range entries {
		r, err := FlattenValue(e)
		if err != nil {
			return nil, fmt.Errorf("entry %d (%s): %w", i, e.ID, err)
		}
		rows = append(rows, r)
	}
	return rows, nil
}

// Annotations flattens extractor results, one row per annotation.
func Annotations(records []models.Annotation) ([]*Record, error) {
	rows := make([]*Record, 0, len(records))
	for _, a := range records {
		r, err := FlattenValue(a)
		if err != nil {
			return nil, fmt.Errorf("annotation %s: %w", a.URL, err)
		}
		rows = append(rows, r)
	}
	return rows, nil
}
