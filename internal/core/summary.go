package core

import "github.com/shopspring/decimal"

type (
	// Fields are the user-editable values of a daily summary.
	Fields struct {
		Date         Date
		Sales        decimal.Decimal
		MunicipalTax decimal.Decimal
		Invoices     decimal.Decimal
		Allowance    decimal.Decimal
		Salaries     decimal.Decimal
	}

	// StoredTotals carries totals a backend may have computed already.
	StoredTotals struct {
		TotalExpenses decimal.NullDecimal
		FinalProfit   decimal.NullDecimal
	}

	// Summary is one day's sales and expense entry with resolved totals.
	Summary struct {
		ID string
		Fields
		TotalExpenses decimal.Decimal
		FinalProfit   decimal.Decimal
	}
)

// Expenses sums the four expense columns.
func (f Fields) Expenses() decimal.Decimal {
	return f.MunicipalTax.Add(f.Invoices).Add(f.Allowance).Add(f.Salaries)
}

// Profit is sales minus expenses.
func (f Fields) Profit() decimal.Decimal {
	return f.Sales.Sub(f.Expenses())
}

// Validate checks the fields a backend cannot do without.
func (f Fields) Validate() error {
	if err := f.Date.Validate(); err != nil {
		return &ValidationError{Field: "date", Err: err}
	}
	return nil
}

// NewSummary resolves a summary's totals. Values supplied by the backend win;
// anything missing is computed from the fields, and a computed profit uses
// whichever expense total was resolved.
func NewSummary(id string, f Fields, stored StoredTotals) Summary {
	s := Summary{ID: id, Fields: f}

	if stored.TotalExpenses.Valid {
		s.TotalExpenses = stored.TotalExpenses.Decimal
	} else {
		s.TotalExpenses = f.Expenses()
	}

	if stored.FinalProfit.Valid {
		s.FinalProfit = stored.FinalProfit.Decimal
	} else {
		s.FinalProfit = f.Sales.Sub(s.TotalExpenses)
	}

	return s
}

// Totals returns the resolved totals in the shape backends persist them.
func (s Summary) Totals() StoredTotals {
	return StoredTotals{
		TotalExpenses: decimal.NewNullDecimal(s.TotalExpenses),
		FinalProfit:   decimal.NewNullDecimal(s.FinalProfit),
	}
}
