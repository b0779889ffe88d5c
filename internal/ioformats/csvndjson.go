
package ioformats

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"modelcat/internal/flatten"
	"modelcat/internal/models"
)

// ReadURLs reads link URLs from a CSV (expects header with "url") or NDJSON file.
// If ext cannot be determined, tries CSV first then NDJSON.
func ReadURLs(path string) ([]string, error) {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".csv":
		return readCSV(path)
	case ".ndjson", ".jsonl":
		return readNDJSON(path)
	default:
		if urls, err := readCSV(path); err == nil && len(urls) > 0 {
			return urls, nil
		}
		return readNDJSON(path)
	}
}

func readCSV(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	rows, err := r.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, errors.New("empty csv")
	}
	col := -1
	for i, h := range rows[0] {
		if strings.EqualFold(strings.TrimSpace(h), "url") {
			col = i
			break
		}
	}
	if col == -1 {
		return nil, errors.New("csv must contain a 'url' header column")
	}
	var out []string
	for _, row := range rows[1:] {
		if col < len(row) {
			if u := strings.TrimSpace(row[col]); u != "" {
				out = append(out, u)
			}
		}
	}
	return out, nil
}

func readNDJSON(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	var out []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		// {"url": "..."} or {"uri": "..."} objects, else the raw line
		if strings.HasPrefix(line, "{") {
			var obj map[string]any
			if err := json.Unmarshal([]byte(line), &obj); err == nil {
				if s := firstString(obj, "url", "uri"); s != "" {
					out = append(out, s)
					continue
				}
			}
		}
		out = append(out, line)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, errors.New("no urls found in ndjson")
	}
	return out, nil
}

func firstString(obj map[string]any, keys ...string) string {
	for _, k := range keys {
		if s, ok := obj[k].(string); ok && s != "" {
			return s
		}
	}
	return ""
}

// ReadJSON decodes either a JSON array of T or a stream of T values (NDJSON).
func ReadJSON[T any](r io.Reader) ([]T, error) {
	br := bufio.NewReader(r)
	first, err := peekNonSpace(br)
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	dec := json.NewDecoder(br)
	if first == '[' {
		var out []T
		if err := dec.Decode(&out); err != nil {
			return nil, fmt.Errorf("decode json array: %w", err)
		}
		return out, nil
	}
	var out []T
	for i := 0; ; i++ {
		var v T
		err := dec.Decode(&v)
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return nil, fmt.Errorf("decode value %d: %w", i, err)
		}
		out = append(out, v)
	}
}

func peekNonSpace(br *bufio.Reader) (byte, error) {
	for {
		b, err := br.Peek(1)
		if err != nil {
			return 0, err
		}
		switch b[0] {
		case ' ', '\t', '\r', '\n':
			_, _ = br.ReadByte()
		default:
			return b[0], nil
		}
	}
}

// ReadEntries reads catalog entries from a JSON array or NDJSON file.
func ReadEntries(path string) ([]models.CatalogEntry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	entries, err := ReadJSON[models.CatalogEntry](f)
	if err != nil {
		return nil, fmt.Errorf("read entries %s: %w", path, err)
	}
	for i := range entries {
		if entries[i].WebLinks == nil {
			entries[i].WebLinks = []models.WebLink{}
		}
	}
	return entries, nil
}

// ReadAnnotations reads extractor results from a JSON array or NDJSON file.
func ReadAnnotations(path string) ([]models.Annotation, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	recs, err := ReadJSON[models.Annotation](f)
	if err != nil {
		return nil, fmt.Errorf("read annotations %s: %w", path, err)
	}
	return recs, nil
}

// WriteNDJSON writes any JSON-marshalable items as NDJSON to w.
func WriteNDJSON[T any](w io.Writer, items []T) error {
	enc := json.NewEncoder(w)
	for _, it := range items {
		if err := enc.Encode(it); err != nil {
			return err
		}
	}
	return nil
}

// WriteCSV writes header and rows; short rows are padded with empty cells.
func WriteCSV(w io.Writer, header []string, rows [][]string) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return err
	}
	for _, row := range rows {
		if len(row) < len(header) {
			row = append(row, make([]string, len(header)-len(row))...)
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteFactsCSV writes mined facts with FactColumns as the header.
func WriteFactsCSV(w io.Writer, facts []models.MinedFact) error {
	return WriteCSV(w, models.FactColumns, FactRows(facts))
}

func FactRows(facts []models.MinedFact) [][]string {
	rows := make([][]string, 0, len(facts))
	for _, f := range facts {
		rows = append(rows, f.Row())
	}
	return rows
}

// RecordRows lays flattened records out under the union of their keys.
// Missing keys become empty cells.
func RecordRows(records []*flatten.Record) ([]string, [][]string) {
	cols := flatten.Columns(records)
	rows := make([][]string, 0, len(records))
	for _, r := range records {
		row := make([]string, len(cols))
		for i, c := range cols {
			if v, ok := r.Get(c); ok {
				row[i] = Cell(v)
			}
		}
		rows = append(rows, row)
	}
	return cols, rows
}

// WriteRecordsCSV writes flattened records as a CSV table.
func WriteRecordsCSV(w io.Writer, records []*flatten.Record) error {
	cols, rows := RecordRows(records)
	return WriteCSV(w, cols, rows)
}

// Cell renders a flattened leaf value as spreadsheet text.
func Cell(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case bool:
		return strconv.FormatBool(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case json.Number:
		return t.String()
	default:
		var buf bytes.Buffer
		enc := json.NewEncoder(&buf)
		enc.SetEscapeHTML(false)
		if err := enc.Encode(t); err != nil {
			return fmt.Sprint(t)
		}
		return strings.TrimSpace(buf.String())
	}
}
