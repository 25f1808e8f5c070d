package core

// export.go writes ledger views as CSV or XLSX and converts uploaded XLSX
// workbooks to delimited text for the parser.
//
// Export column order is fixed; re-parsing an exported CSV recovers the
// name and customer number of every entry.

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
)

// ExportHeader is the fixed export column order.
var ExportHeader = []string{
	"TX No", "Name", "Customer No", "Source", "Transaction Type",
	"Origin Source", "List Group", "Created Date", "Created User",
}

// ExportFormat selects the export container.
type ExportFormat string

const (
	FormatCSV  ExportFormat = "csv"
	FormatXLSX ExportFormat = "xlsx"
)

// exportSheet is the sheet name used for XLSX export.
const exportSheet = "Entries"

// xlsxDelimiter joins converted XLSX cells; tabs rarely occur in names.
const xlsxDelimiter = "\t"

// ExportRecord returns the export fields of e in ExportHeader order.
func ExportRecord(e CheckEntry) []string {
	return []string{
		e.TxNo, e.Name, e.CustomerNo, string(e.Source), string(e.TransactionType),
		e.OriginSource, e.ListGroup, e.CreatedDate, e.CreatedUser,
	}
}

// ExportFileName builds the download name for a transaction export.
func ExportFileName(txNo string, day time.Time, format ExportFormat) string {
	return fmt.Sprintf("customer-check-%s-%s.%s", txNo, day.Format(DateLayout), format)
}

// WriteCSV writes the header and one record per entry.
func WriteCSV(w io.Writer, entries []CheckEntry) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(ExportHeader); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, e := range entries {
		if err := cw.Write(ExportRecord(e)); err != nil {
			return fmt.Errorf("write record: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteXLSX writes entries to a single-sheet workbook.
func WriteXLSX(w io.Writer, entries []CheckEntry) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), exportSheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	sw, err := f.NewStreamWriter(exportSheet)
	if err != nil {
		return fmt.Errorf("stream writer: %w", err)
	}

	if err := sw.SetRow("A1", toCells(ExportHeader)); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for i, e := range entries {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := sw.SetRow(cell, toCells(ExportRecord(e))); err != nil {
			return fmt.Errorf("write row %d: %w", i+1, err)
		}
	}
	if err := sw.Flush(); err != nil {
		return fmt.Errorf("flush: %w", err)
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

// ConvertXLSX reads the first sheet of a workbook and returns it as delimited
// text together with the delimiter used.
func ConvertXLSX(r io.Reader) (string, string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return "", "", fmt.Errorf("%w: open workbook: %v", ErrUnsupportedFormat, err)
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	rows, err := f.GetRows(sheet)
	if err != nil {
		return "", "", fmt.Errorf("read sheet %q: %w", sheet, err)
	}

	var b strings.Builder
	for _, row := range rows {
		for i, cell := range row {
			if i > 0 {
				b.WriteString(xlsxDelimiter)
			}
			b.WriteString(strings.NewReplacer("\t", " ", "\r", " ", "\n", " ").Replace(cell))
		}
		b.WriteByte('\n')
	}
	return b.String(), xlsxDelimiter, nil
}

func toCells(values []string) []interface{} {
	cells := make([]interface{}, len(values))
	for i, v := range values {
		cells[i] = v
	}
	return cells
}
