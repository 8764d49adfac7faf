package tagging

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
)

// jobColumn is the identifier column added (or refilled) by tagging.
const jobColumn = "job_id"

// Assignments maps rows to job identifiers. Keys are the stringified
// 0-based row index or the row's item value; index wins when both match.
// Rows with no mapping get the empty identifier.
type Assignments map[string]string

// LoadAssignments reads an assignments file: a single JSON object of
// key to job identifier.
func LoadAssignments(path string) (Assignments, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading assignments: %w", err)
	}
	var a Assignments
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, fmt.Errorf("parsing assignments: %w", err)
	}
	return a, nil
}

// PromptAssignments walks the table row by row, presenting each row's item
// (and price, when that column exists) and blocking for one line of input,
// which becomes the row's job identifier. Empty input is accepted as-is.
// EOF stops prompting; remaining rows are left unassigned.
func PromptAssignments(t Table, in io.Reader, out io.Writer) (Assignments, error) {
	itemCol := t.Column("item")
	priceCol := t.Column("price")

	a := make(Assignments, len(t.Rows))
	scanner := bufio.NewScanner(in)
	for i, row := range t.Rows {
		if priceCol >= 0 {
			fmt.Fprintf(out, "Item: %s | Cost: %s\n", cellAt(row, itemCol), cellAt(row, priceCol))
		} else {
			fmt.Fprintf(out, "Item: %s\n", cellAt(row, itemCol))
		}
		fmt.Fprint(out, "Enter job ID: ")

		if !scanner.Scan() {
			if err := scanner.Err(); err != nil {
				return nil, fmt.Errorf("reading input: %w", err)
			}
			fmt.Fprintln(out)
			break
		}
		a[strconv.Itoa(i)] = scanner.Text()
	}
	return a, nil
}

// Apply returns a copy of the table with the job_id column filled from the
// assignments. An existing job_id column is refilled in place; otherwise
// the column is appended. Original columns and row order are untouched.
func Apply(t Table, a Assignments) Table {
	jobCol := t.Column(jobColumn)
	itemCol := t.Column("item")

	out := Table{Header: append([]string(nil), t.Header...)}
	if jobCol < 0 {
		out.Header = append(out.Header, jobColumn)
	}

	out.Rows = make([][]string, len(t.Rows))
	for i, row := range t.Rows {
		id := lookup(a, i, cellAt(row, itemCol))
		newRow := append([]string(nil), row...)
		if jobCol >= 0 {
			newRow[jobCol] = id
		} else {
			newRow = append(newRow, id)
		}
		out.Rows[i] = newRow
	}
	return out
}

func lookup(a Assignments, index int, item string) string {
	if id, ok := a[strconv.Itoa(index)]; ok {
		return id
	}
	if id, ok := a[item]; ok {
		return id
	}
	return ""
}

func cellAt(row []string, col int) string {
	if col < 0 || col >= len(row) {
		return ""
	}
	return row[col]
}
