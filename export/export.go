// Package export writes annotation records to CSV, XLSX, and a terminal
// table preview.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/xuri/excelize/v2"

	"github.com/KunalKalawant/Engineering-Drawing/annotate"
)

// Columns is the fixed export column order, shared by every format.
var Columns = []string{"page_index", "balloon", "field_name", "text", "confidence", "manual_override"}

func row(r annotate.Record) []string {
	return []string{
		strconv.Itoa(r.Page),
		strconv.Itoa(r.Balloon),
		r.FieldName,
		r.Text,
		strconv.FormatFloat(r.Confidence, 'f', 2, 64),
		strconv.FormatBool(r.ManualOverride),
	}
}

// WriteCSV writes records as CSV with a header row.
func WriteCSV(w io.Writer, records []annotate.Record) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Columns); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, r := range records {
		if err := cw.Write(row(r)); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}

// WriteXLSX writes records as a single-sheet workbook at path.
func WriteXLSX(path string, records []annotate.Record) error {
	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Annotations"
	f.SetSheetName(f.GetSheetName(0), sheet)

	header := make([]interface{}, len(Columns))
	for i, c := range Columns {
		header[i] = c
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("write xlsx header: %w", err)
	}
	for i, r := range records {
		cells := []interface{}{r.Page, r.Balloon, r.FieldName, r.Text, r.Confidence, r.ManualOverride}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return fmt.Errorf("xlsx cell name: %w", err)
		}
		if err := f.SetSheetRow(sheet, cell, &cells); err != nil {
			return fmt.Errorf("write xlsx row %d: %w", i, err)
		}
	}
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save xlsx: %w", err)
	}
	return nil
}

// RenderTable writes a compact terminal preview of the records.
func RenderTable(w io.Writer, records []annotate.Record) {
	table := tablewriter.NewWriter(w)
	table.SetHeader(Columns)
	table.SetBorder(false)
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(true)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetTablePadding("\t")
	table.SetNoWhiteSpace(true)

	for _, r := range records {
		table.Append(row(r))
	}
	table.Render()
}
