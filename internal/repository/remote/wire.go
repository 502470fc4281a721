package remote

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/shopspring/decimal"

	"soda/internal/core"
)

// summaryDoc is a summary as the backend returns it.
type summaryDoc struct {
	ID            string `json:"_id"`
	Date          string `json:"fecha"`
	Sales         amount `json:"ventas"`
	MunicipalTax  amount `json:"municipalidad"`
	Invoices      amount `json:"facturas"`
	Allowance     amount `json:"mesada"`
	Salaries      amount `json:"salarios"`
	TotalExpenses amount `json:"totalGastos"`
	FinalProfit   amount `json:"gananciaFinal"`
}

// amount accepts a JSON number or a numeric string. Anything else decodes
// without error as an absent value, with the raw text kept in bad.
type amount struct {
	decimal.NullDecimal
	bad string
}

func (a *amount) UnmarshalJSON(data []byte) error {
	*a = amount{}
	text := string(bytes.TrimSpace(data))
	if text == "null" {
		return nil
	}
	if strings.HasPrefix(text, `"`) {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			a.bad = text
			return nil
		}
		text = strings.TrimSpace(s)
		if text == "" {
			a.bad = `""`
			return nil
		}
	}
	d, err := decimal.NewFromString(text)
	if err != nil {
		a.bad = text
		return nil
	}
	a.NullDecimal = decimal.NewNullDecimal(d)
	return nil
}

// fieldsDoc is the request body for create and update. Amounts go out as
// JSON numbers.
type fieldsDoc struct {
	Date         string      `json:"fecha"`
	Sales        json.Number `json:"ventas"`
	MunicipalTax json.Number `json:"municipalidad"`
	Invoices     json.Number `json:"facturas"`
	Allowance    json.Number `json:"mesada"`
	Salaries     json.Number `json:"salarios"`
}

func toFieldsDoc(f core.Fields) fieldsDoc {
	return fieldsDoc{
		Date:         f.Date.String(),
		Sales:        json.Number(f.Sales.String()),
		MunicipalTax: json.Number(f.MunicipalTax.String()),
		Invoices:     json.Number(f.Invoices.String()),
		Allowance:    json.Number(f.Allowance.String()),
		Salaries:     json.Number(f.Salaries.String()),
	}
}

// toSummary converts a document. An unparseable date leaves the summary
// undated and unreadable amounts are zero; unreadable stored totals are
// recomputed. The names of unreadable amounts are returned.
func (d summaryDoc) toSummary() (core.Summary, []string) {
	var unreadable []string
	for _, a := range []struct {
		name string
		v    amount
	}{
		{"ventas", d.Sales},
		{"municipalidad", d.MunicipalTax},
		{"facturas", d.Invoices},
		{"mesada", d.Allowance},
		{"salarios", d.Salaries},
		{"totalGastos", d.TotalExpenses},
		{"gananciaFinal", d.FinalProfit},
	} {
		if a.v.bad != "" {
			unreadable = append(unreadable, a.name+"="+a.v.bad)
		}
	}

	date, _ := core.ParseDate(d.Date)
	f := core.Fields{
		Date:         date,
		Sales:        d.Sales.Decimal,
		MunicipalTax: d.MunicipalTax.Decimal,
		Invoices:     d.Invoices.Decimal,
		Allowance:    d.Allowance.Decimal,
		Salaries:     d.Salaries.Decimal,
	}
	return core.NewSummary(d.ID, f, core.StoredTotals{
		TotalExpenses: d.TotalExpenses.NullDecimal,
		FinalProfit:   d.FinalProfit.NullDecimal,
	}), unreadable
}
