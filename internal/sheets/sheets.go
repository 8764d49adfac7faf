// Package sheets builds the blank spreadsheet templates the crew fills in
// by hand: the per-vehicle fuel log and the customer quote form. Both carry
// an item column and a job-code column so filled-in sheets can go straight
// through the job tagger.
package sheets

import (
	"fmt"
	"path/filepath"

	"github.com/tealeg/xlsx/v2"
)

// FuelLogHeader is the column layout of the fuel log template. The "item"
// and "price" columns match what the tagger prompts on.
var FuelLogHeader = []string{"date", "vehicle", "item", "gallons", "price", "odometer", "job_id"}

// QuoteHeader is the line-item column layout of the quote template.
var QuoteHeader = []string{"item", "description", "quantity", "unit_price", "price", "job_id"}

// FuelLog builds the fuel purchase log template: the column header first so
// a filled copy reads straight into the tagger, then empty entry rows.
func FuelLog() *xlsx.File {
	f := xlsx.NewFile()
	sheet, err := f.AddSheet("Fuel Log")
	if err != nil {
		// AddSheet only fails on a duplicate or invalid name; ours is fixed
		panic(err)
	}

	addRow(sheet, FuelLogHeader...)
	for i := 0; i < 20; i++ {
		addRow(sheet)
	}
	return f
}

// Quote builds the customer quote template: line-item columns and a totals
// row. Same header-first layout as the fuel log.
func Quote() *xlsx.File {
	f := xlsx.NewFile()
	sheet, err := f.AddSheet("Quote")
	if err != nil {
		panic(err)
	}

	addRow(sheet, QuoteHeader...)
	for i := 0; i < 12; i++ {
		addRow(sheet)
	}
	addRow(sheet, "", "", "", "Total:")
	return f
}

// WriteTemplates saves both templates into dir.
func WriteTemplates(dir string) error {
	if err := FuelLog().Save(filepath.Join(dir, "fuel-log.xlsx")); err != nil {
		return fmt.Errorf("writing fuel log template: %w", err)
	}
	if err := Quote().Save(filepath.Join(dir, "quote.xlsx")); err != nil {
		return fmt.Errorf("writing quote template: %w", err)
	}
	return nil
}

func addRow(sheet *xlsx.Sheet, cells ...string) {
	row := sheet.AddRow()
	for _, value := range cells {
		row.AddCell().SetString(value)
	}
}
