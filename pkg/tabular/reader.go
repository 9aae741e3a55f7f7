package tabular

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Row is one raw sheet row: normalized column label to cell value. Empty
// cells are nil.
type Row map[string]any

// Options selects a sheet and the header row within it. Zero values mean
// "first sheet, first row".
type Options struct {
	Sheet     string
	HeaderRow int
}

// Reader produces the raw rows of one logical sheet of a rate file.
type Reader interface {
	Read(path string, opts Options) ([]Row, error)
}

// ForFile picks a reader by file extension.
func ForFile(path string) (Reader, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xls":
		return NewExcelReader(), nil
	case ".csv":
		return NewCSVReader(), nil
	default:
		return nil, fmt.Errorf("unsupported file format: %s", filepath.Ext(path))
	}
}

// NormalizeLabel cleans a raw header cell the way the column mapper expects:
// lowercase, trimmed, inner spaces replaced by underscores.
func NormalizeLabel(label string) string {
	return strings.ReplaceAll(strings.TrimSpace(strings.ToLower(label)), " ", "_")
}

// buildRows pairs header labels with cell values. Blank headers get a
// positional "unnamed:_N" label so downstream strategies can skip them.
func buildRows(records [][]string, headerRow int) []Row {
	if headerRow >= len(records) {
		return nil
	}

	// Spreadsheet readers trim trailing empty header cells, so size the
	// labels to the widest record and pad with positional names.
	header := records[headerRow]
	width := len(header)
	for _, record := range records[headerRow+1:] {
		if len(record) > width {
			width = len(record)
		}
	}

	labels := make([]string, width)
	for i := range labels {
		var label string
		if i < len(header) {
			label = NormalizeLabel(header[i])
		}
		if label == "" {
			label = fmt.Sprintf("unnamed:_%d", i)
		}
		labels[i] = label
	}

	rows := make([]Row, 0, len(records)-headerRow-1)
	for _, record := range records[headerRow+1:] {
		row := make(Row, len(labels))
		empty := true
		for i, label := range labels {
			var cell string
			if i < len(record) {
				cell = strings.TrimSpace(record[i])
			}
			if cell == "" {
				row[label] = nil
			} else {
				row[label] = cell
				empty = false
			}
		}
		if !empty {
			rows = append(rows, row)
		}
	}
	return rows
}
