package tagging

import (
	"fmt"

	"github.com/tealeg/xlsx/v2"
)

// ReadXLSX reads the first sheet of a spreadsheet into a Table. Sheets omit
// trailing empty cells, so short rows are padded to the header width; rows
// wider than the header are malformed.
func ReadXLSX(path string) (Table, error) {
	f, err := xlsx.OpenFile(path)
	if err != nil {
		return Table{}, fmt.Errorf("opening spreadsheet: %w", err)
	}
	if len(f.Sheets) == 0 {
		return Table{}, fmt.Errorf("%s: no sheets", path)
	}

	sheet := f.Sheets[0]
	if len(sheet.Rows) == 0 {
		return Table{}, fmt.Errorf("%s: missing header row", path)
	}

	header := rowStrings(sheet.Rows[0])
	rows := make([][]string, 0, len(sheet.Rows)-1)
	for i, row := range sheet.Rows[1:] {
		cells := rowStrings(row)
		if len(cells) > len(header) {
			return Table{}, fmt.Errorf("%s: row %d has %d cells, header has %d", path, i+2, len(cells), len(header))
		}
		for len(cells) < len(header) {
			cells = append(cells, "")
		}
		rows = append(rows, cells)
	}

	return Table{Header: header, Rows: rows}, nil
}

func rowStrings(row *xlsx.Row) []string {
	cells := make([]string, len(row.Cells))
	for i, cell := range row.Cells {
		cells[i] = cell.String()
	}
	return cells
}
