package sheets

import (
	"context"

	"github.com/shopspring/decimal"

	"soda/internal/core"
)

// ReportHeader is the first row of the weekly report.
var ReportHeader = []string{"Semana", "Desde", "Hasta", "Facturas", "Ventas", "Gastos", "Ganancia"}

// Ports for outbound adapters.
type (
	// ReportWriter replaces the weekly report with the given rows.
	ReportWriter interface {
		WriteWeeklyReport(ctx context.Context, rows []WeekRow) error
	}

	// WeekRow is one line of the weekly report.
	WeekRow struct {
		Key      core.WeekKey
		From     core.Date
		To       core.Date
		Count    int
		Sales    decimal.Decimal
		Expenses decimal.Decimal
		Profit   decimal.Decimal
	}
)

// BuildWeekRows turns sorted week groups into report rows, keeping order.
func BuildWeekRows(weeks []core.Week) []WeekRow {
	rows := make([]WeekRow, 0, len(weeks))
	for _, w := range weeks {
		t := core.ComputeGroupTotals(w)
		rows = append(rows, WeekRow{
			Key:      w.Key,
			From:     w.Start,
			To:       w.End,
			Count:    t.Count,
			Sales:    t.Sales,
			Expenses: t.Expenses,
			Profit:   t.Profit,
		})
	}
	return rows
}

// Values renders a row the way the sheet stores it.
func (r WeekRow) Values() []any {
	return []any{
		string(r.Key),
		r.From.Format("02/01/2006"),
		r.To.Format("02/01/2006"),
		r.Count,
		r.Sales.InexactFloat64(),
		r.Expenses.InexactFloat64(),
		r.Profit.InexactFloat64(),
	}
}
