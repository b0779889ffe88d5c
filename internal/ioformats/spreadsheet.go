package ioformats

import (
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/xuri/excelize/v2"

	"modelcat/internal/models"
)

// Headers of the models spreadsheet.
const (
	HeaderModelName = "Model Name"
	HeaderContacts  = "Contact(s)"
	HeaderLink      = "Link"
	HeaderOutput    = "Output"
)

// outputHeader matches "Output" and the "Output.1"… spelling some exports use
// for repeated headers.
var outputHeader = regexp.MustCompile(`^Output(\.\d+)?$`)

// LoadModelsSheet reads the first sheet of the models workbook at path.
func LoadModelsSheet(path string) ([]models.ModelRow, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open models sheet: %w", err)
	}
	defer f.Close()
	return modelRows(f)
}

// ReadModelsSheet is LoadModelsSheet for an in-memory workbook.
func ReadModelsSheet(r io.Reader) ([]models.ModelRow, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open models sheet: %w", err)
	}
	defer f.Close()
	return modelRows(f)
}

// modelRows maps each data row to a ModelRow. Every Output column is merged
// into OutputLinks in column order; blank and "Unnamed" headers are dropped;
// any other header lands in Extra. Rows without a model name are skipped.
func modelRows(f *excelize.File) ([]models.ModelRow, error) {
	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("models sheet: workbook has no sheets")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("models sheet: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}

	header := make([]string, len(rows[0]))
	for i, h := range rows[0] {
		header[i] = strings.TrimSpace(h)
	}

	var out []models.ModelRow
	for _, cells := range rows[1:] {
		var row models.ModelRow
		for i, h := range header {
			val := ""
			if i < len(cells) {
				val = strings.TrimSpace(cells[i])
			}
			switch {
			case h == "" || strings.Contains(h, "Unnamed"):
			case h == HeaderModelName:
				row.Name = val
			case h == HeaderContacts:
				row.Contacts = val
			case h == HeaderLink:
				row.Link = val
			case outputHeader.MatchString(h):
				row.OutputLinks = append(row.OutputLinks, val)
			default:
				if row.Extra == nil {
					row.Extra = map[string]string{}
				}
				row.Extra[h] = val
			}
		}
		if row.Name == "" {
			continue
		}
		out = append(out, row)
	}
	return out, nil
}

// WriteSheet writes header and rows to a single-sheet workbook on w. The
// header row is bold and frozen.
func WriteSheet(w io.Writer, sheet string, header []string, rows [][]string) error {
	f, err := newSheet(sheet, header, rows)
	if err != nil {
		return err
	}
	defer f.Close()
	return f.Write(w)
}

// WriteRows saves a single-sheet workbook to path.
func WriteRows(path, sheet string, header []string, rows [][]string) error {
	f, err := newSheet(sheet, header, rows)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save %s: %w", path, err)
	}
	return nil
}

// WriteCatalogList saves list-out rows under columns, in column order.
func WriteCatalogList(path string, columns []string, rows []map[string]string) error {
	return WriteRows(path, "Models", columns, MapRows(columns, rows))
}

// MapRows projects keyed rows onto columns.
func MapRows(columns []string, rows []map[string]string) [][]string {
	out := make([][]string, 0, len(rows))
	for _, r := range rows {
		line := make([]string, len(columns))
		for i, c := range columns {
			line[i] = r[c]
		}
		out = append(out, line)
	}
	return out
}

func newSheet(sheet string, header []string, rows [][]string) (*excelize.File, error) {
	if sheet == "" {
		sheet = "Sheet1"
	}
	f := excelize.NewFile()
	if def := f.GetSheetName(0); def != sheet {
		if err := f.SetSheetName(def, sheet); err != nil {
			f.Close()
			return nil, err
		}
	}

	if err := setRow(f, sheet, 1, header); err != nil {
		f.Close()
		return nil, err
	}
	for i, r := range rows {
		if err := setRow(f, sheet, i+2, r); err != nil {
			f.Close()
			return nil, err
		}
	}

	if len(header) > 0 {
		style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
		if err != nil {
			f.Close()
			return nil, err
		}
		last, err := excelize.CoordinatesToCellName(len(header), 1)
		if err != nil {
			f.Close()
			return nil, err
		}
		if err := f.SetCellStyle(sheet, "A1", last, style); err != nil {
			f.Close()
			return nil, err
		}
		if err := f.SetPanes(sheet, &excelize.Panes{
			Freeze:      true,
			YSplit:      1,
			TopLeftCell: "A2",
			ActivePane:  "bottomLeft",
		}); err != nil {
			f.Close()
			return nil, err
		}
	}
	return f, nil
}

func setRow(f *excelize.File, sheet string, n int, values []string) error {
	if len(values) == 0 {
		return nil
	}
	cell, err := excelize.CoordinatesToCellName(1, n)
	if err != nil {
		return err
	}
	row := make([]any, len(values))
	for i, v := range values {
		row[i] = v
	}
	return f.SetSheetRow(sheet, cell, &row)
}
