package store

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
)

// Table is an ordered set of rows plus the column order used when writing it back.
type Table struct {
	Columns []string
	Rows    []Row
}

func (t *Table) clone() *Table {
	out := &Table{Columns: append([]string(nil), t.Columns...), Rows: make([]Row, len(t.Rows))}
	for i, r := range t.Rows {
		out.Rows[i] = r.Clone()
	}
	return out
}

// ensureColumns appends schema columns missing from the header.
func (t *Table) ensureColumns(columns []string) {
	have := make(map[string]bool, len(t.Columns))
	for _, c := range t.Columns {
		have[c] = true
	}
	for _, c := range columns {
		if !have[c] {
			t.Columns = append(t.Columns, c)
			have[c] = true
		}
	}
}

// decodeCSV parses a CSV blob with a mandatory header row. Columns may appear in any order;
// unknown columns are kept so they survive a rewrite.
func decodeCSV(data []byte, schema Schema) (*Table, error) {
	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%s: missing header row", schema.Blob())
	}
	if err != nil {
		return nil, fmt.Errorf("%s: read header: %w", schema.Blob(), err)
	}
	if len(header) > 0 {
		// tolerate a UTF-8 BOM written by spreadsheet tools
		header[0] = trimBOM(header[0])
	}

	t := &Table{Columns: header}
	for line := 2; ; line++ {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%s: line %d: %w", schema.Blob(), line, err)
		}
		row := make(Row, len(header))
		for i, col := range header {
			if i < len(rec) {
				row[col] = rec[i]
			}
		}
		t.Rows = append(t.Rows, row)
	}
	t.ensureColumns(schema.Columns)
	return t, nil
}

// encodeCSV serializes the whole table, header first.
func encodeCSV(t *Table) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(t.Columns); err != nil {
		return nil, err
	}
	rec := make([]string, len(t.Columns))
	for _, row := range t.Rows {
		for i, col := range t.Columns {
			rec[i] = row[col]
		}
		if err := w.Write(rec); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func trimBOM(s string) string {
	return strings.TrimPrefix(s, "\ufeff")
}
