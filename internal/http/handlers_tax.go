package http

import (
	"errors"
	"net/http"
	"net/url"
	"strconv"

	"github.com/shopspring/decimal"

	"soda/internal/identity"
	"soda/internal/tax"
)

// handleTax renders the calculator at the signed-in identity's rate.
func (s *Server) handleTax(w http.ResponseWriter, r *http.Request) {
	id := identityFrom(r.Context())
	rate := identity.DefaultTaxRate
	if id != nil {
		rate = id.TaxRate
	}
	s.renderTax(w, r, "/tax", []decimal.Decimal{rate}, []string{"amount"})
}

// handleTaxPair renders two calculators side by side.
func (s *Server) handleTaxPair(w http.ResponseWriter, r *http.Request) {
	rates := []decimal.Decimal{s.pairRates[0], s.pairRates[1]}
	s.renderTax(w, r, "/tax/pair", rates, []string{"amount1", "amount2"})
}

// renderTax computes one calculator per rate. An htmx request targeting a
// single calculator gets only that calculator back.
func (s *Server) renderTax(w http.ResponseWriter, r *http.Request, action string, rates []decimal.Decimal, params []string) {
	q := r.URL.Query()
	view := taxView{
		page:   page{Title: "Calculadora de Impuesto", User: identityFrom(r.Context())},
		Action: action,
	}
	for i, rate := range rates {
		view.Calculators = append(view.Calculators, calculator(i, params[i], q, rate))
	}

	if isHTMX(r) {
		target := r.Header.Get("HX-Target")
		for _, c := range view.Calculators {
			if target == "calc-"+strconv.Itoa(c.Index) {
				s.render(w, r, http.StatusOK, "tax_result", c)
				return
			}
		}
	}
	s.render(w, r, http.StatusOK, "tax.html", view)
}

// calculator reads its amount from param and the shared mode, which
// defaults to forward.
func calculator(index int, param string, q url.Values, rate decimal.Decimal) calculatorView {
	mode := tax.Forward
	if m, err := tax.ParseMode(q.Get("mode" + strconv.Itoa(index))); err == nil {
		mode = m
	}

	amount := tax.SanitizeInput(q.Get(param))
	c := calculatorView{Index: index, Param: param, Mode: mode}
	if q.Get(param) != "" {
		c.Amount = amount.String()
	}

	split, err := tax.Compute(mode, amount, rate)
	if err != nil {
		if errors.Is(err, tax.ErrInvalidRate) {
			c.Error = "Tasa de impuesto inválida"
		} else {
			c.Error = err.Error()
		}
		c.Split = tax.Split{Mode: mode, Amount: amount, Rate: rate}
		return c
	}
	c.Split = split
	return c
}
