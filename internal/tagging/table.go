package tagging

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Table is an in-memory tabular file. Column order and row order are
// preserved exactly as read.
type Table struct {
	Header []string
	Rows   [][]string
}

// Column returns the index of the named column, matching case-insensitively
// and ignoring surrounding whitespace, or -1.
func (t Table) Column(name string) int {
	for i, h := range t.Header {
		if strings.EqualFold(strings.TrimSpace(h), name) {
			return i
		}
	}
	return -1
}

// ReadTable reads a tabular file by extension: .xlsx through the
// spreadsheet reader, everything else as CSV. The table must carry a
// header row with an "item" column; anything else is malformed.
func ReadTable(path string) (Table, error) {
	var (
		t   Table
		err error
	)
	if strings.EqualFold(filepath.Ext(path), ".xlsx") {
		t, err = ReadXLSX(path)
	} else {
		t, err = ReadCSV(path)
	}
	if err != nil {
		return Table{}, err
	}
	if t.Column("item") < 0 {
		return Table{}, fmt.Errorf("%s: no %q column in header %v", path, "item", t.Header)
	}
	return t, nil
}

// ReadCSV reads a CSV file into a Table. The first record is the header;
// records with a different field count are a parse error.
func ReadCSV(path string) (Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return Table{}, fmt.Errorf("opening table: %w", err)
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return Table{}, fmt.Errorf("parsing %s: %w", path, err)
	}
	if len(records) == 0 {
		return Table{}, fmt.Errorf("%s: missing header row", path)
	}

	return Table{Header: records[0], Rows: records[1:]}, nil
}

// WriteCSV writes the table to a CSV file, header first.
func (t Table) WriteCSV(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating output: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(t.Header); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	for _, row := range t.Rows {
		if err := w.Write(row); err != nil {
			return fmt.Errorf("writing row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flushing output: %w", err)
	}
	return nil
}

// OutputPath derives the tagged output path: same directory, the input
// stem with a _tagged suffix, always CSV.
func OutputPath(inputPath string) string {
	base := filepath.Base(inputPath)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	return filepath.Join(filepath.Dir(inputPath), stem+"_tagged.csv")
}
