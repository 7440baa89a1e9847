// Package export renders reports as spreadsheet files.
package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"orderledger/internal/domain/reports"
)

// ContentTypeXLSX is the MIME type of the files written here.
const ContentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

const (
	summarySheet  = "Summary"
	ordersSheet   = "Orders"
	paymentsSheet = "Payments"
	dateFormat    = "2006-01-02"
)

var (
	orderHeader   = []any{"Order code", "Order date", "Order value", "Total paid", "Amount due", "Payment status", "Order status"}
	paymentHeader = []any{"Order code", "Payment code", "Date paid", "Amount paid", "Notes"}
)

// WriteStatement writes st as an xlsx workbook with summary, orders and payments sheets.
func WriteStatement(w io.Writer, st *reports.Statement) error {
	f := excelize.NewFile()
	defer f.Close()

	// the default sheet becomes the summary
	if err := f.SetSheetName("Sheet1", summarySheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	if err := writeSummary(f, st); err != nil {
		return err
	}

	if _, err := f.NewSheet(ordersSheet); err != nil {
		return fmt.Errorf("create orders sheet: %w", err)
	}
	rows := make([][]any, 0, len(st.Orders))
	for _, o := range st.Orders {
		rows = append(rows, []any{
			o.OrderCode,
			o.OrderDate.Format(dateFormat),
			o.OrderValue.InexactFloat64(),
			o.TotalPaid.InexactFloat64(),
			o.AmountDue.InexactFloat64(),
			string(o.PaymentStatus),
			string(o.OrderStatus),
		})
	}
	if err := writeTable(f, ordersSheet, orderHeader, rows); err != nil {
		return err
	}

	if _, err := f.NewSheet(paymentsSheet); err != nil {
		return fmt.Errorf("create payments sheet: %w", err)
	}
	rows = rows[:0]
	for _, p := range st.Payments {
		notes := ""
		if p.Notes != nil {
			notes = *p.Notes
		}
		rows = append(rows, []any{
			p.OrderCode,
			p.PaymentCode,
			p.DatePaid.Format(dateFormat),
			p.AmountPaid.InexactFloat64(),
			notes,
		})
	}
	if err := writeTable(f, paymentsSheet, paymentHeader, rows); err != nil {
		return err
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func writeSummary(f *excelize.File, st *reports.Statement) error {
	rows := [][]any{
		{"Party", st.Name},
		{"Kind", string(st.Kind)},
		{"Currency", string(st.Currency)},
		{"Total paid", st.TotalPaid.InexactFloat64()},
		{"Total due", st.TotalDue.InexactFloat64()},
		{"Orders", len(st.Orders)},
		{"Generated", st.GeneratedAt.Format("2006-01-02 15:04 MST")},
	}
	return writeTable(f, summarySheet, nil, rows)
}

func writeTable(f *excelize.File, sheet string, header []any, rows [][]any) error {
	rowNo := 1
	if header != nil {
		if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
			return fmt.Errorf("write %s header: %w", sheet, err)
		}
		rowNo++
	}
	for _, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, rowNo)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("write %s row %d: %w", sheet, rowNo, err)
		}
		rowNo++
	}
	return nil
}
