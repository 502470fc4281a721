package http

import (
	"errors"
	"net/url"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"soda/internal/core"
)

// Form field names. Summary fields reuse the names the backend API uses.
const (
	fieldUsername = "username"
	fieldPassword = "password"
	fieldRemember = "remember"

	fieldID           = "id"
	fieldDate         = "fecha"
	fieldSales        = "ventas"
	fieldMunicipalTax = "municipalidad"
	fieldInvoices     = "facturas"
	fieldAllowance    = "mesada"
	fieldSalaries     = "salarios"
	fieldWeek         = "week"
)

var fieldLabels = map[string]string{
	fieldDate:         "Fecha",
	fieldSales:        "Ventas",
	fieldMunicipalTax: "Municipalidad",
	fieldInvoices:     "Facturas",
	fieldAllowance:    "Mesada",
	fieldSalaries:     "Salarios",
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		if name := f.Tag.Get("form"); name != "" {
			return name
		}
		return f.Name
	})
	_ = v.RegisterValidation("amount", func(fl validator.FieldLevel) bool {
		_, err := core.ParseAmount(fl.Field().String())
		return err == nil
	})
	_ = v.RegisterValidation("isodate", func(fl validator.FieldLevel) bool {
		_, err := core.ParseDate(fl.Field().String())
		return err == nil
	})
	return v
}

// LoginInput is the submitted login form.
type LoginInput struct {
	Username string `form:"username" validate:"required"`
	Password string `form:"password" validate:"required,min=4"`
	Remember bool   `form:"remember"`
}

// ParseLoginForm reads the login form. The username is sanitized; the
// password is taken verbatim.
func ParseLoginForm(form url.Values) LoginInput {
	return LoginInput{
		Username: sanitizeInput(form.Get(fieldUsername)),
		Password: form.Get(fieldPassword),
		Remember: parseCheckbox(form.Get(fieldRemember)),
	}
}

// Validate returns the message to show for the first problem found.
func (in LoginInput) Validate() string {
	err := validate.Struct(in)
	if err == nil {
		return ""
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return "Datos de inicio de sesión inválidos"
	}
	if verrs[0].Field() == fieldUsername {
		return "El usuario es requerido"
	}
	return "La contraseña debe tener al menos 4 caracteres"
}

func parseCheckbox(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "on", "true", "1", "yes":
		return true
	}
	return false
}

// SummaryInput is the submitted summary form, kept as text so it can be
// shown back to the user unchanged when it is rejected.
type SummaryInput struct {
	ID           string `form:"id"`
	Date         string `form:"fecha" validate:"omitempty,isodate"`
	Sales        string `form:"ventas" validate:"omitempty,amount"`
	MunicipalTax string `form:"municipalidad" validate:"omitempty,amount"`
	Invoices     string `form:"facturas" validate:"omitempty,amount"`
	Allowance    string `form:"mesada" validate:"omitempty,amount"`
	Salaries     string `form:"salarios" validate:"omitempty,amount"`
	Week         string `form:"week"`
}

// ParseSummaryForm reads the summary form.
func ParseSummaryForm(form url.Values) SummaryInput {
	return SummaryInput{
		ID:           sanitizeInput(form.Get(fieldID)),
		Date:         sanitizeInput(form.Get(fieldDate)),
		Sales:        sanitizeInput(form.Get(fieldSales)),
		MunicipalTax: sanitizeInput(form.Get(fieldMunicipalTax)),
		Invoices:     sanitizeInput(form.Get(fieldInvoices)),
		Allowance:    sanitizeInput(form.Get(fieldAllowance)),
		Salaries:     sanitizeInput(form.Get(fieldSalaries)),
		Week:         sanitizeInput(form.Get(fieldWeek)),
	}
}

// InputFromForm renders form state back into form text.
func InputFromForm(f core.Form, week string) SummaryInput {
	in := SummaryInput{Week: week}
	if f.IsEditing() {
		in.ID = f.TargetID
	}
	if !f.IsEditing() && f.Fields.Date.IsZero() {
		return in
	}
	in.Date = f.Fields.Date.String()
	in.Sales = f.Fields.Sales.String()
	in.MunicipalTax = f.Fields.MunicipalTax.String()
	in.Invoices = f.Fields.Invoices.String()
	in.Allowance = f.Fields.Allowance.String()
	in.Salaries = f.Fields.Salaries.String()
	return in
}

// Validate reports malformed dates and amounts. A blank date passes here;
// the form state machine rejects it.
func (in SummaryInput) Validate() []string {
	err := validate.Struct(in)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []string{err.Error()}
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		label := fieldLabels[fe.Field()]
		if fe.Tag() == "isodate" {
			msgs = append(msgs, label+": fecha inválida")
			continue
		}
		msgs = append(msgs, label+": monto inválido")
	}
	return msgs
}

// Form builds the form state for the input. Call Validate first; amounts
// that do not parse are read as zero.
func (in SummaryInput) Form() core.Form {
	f := core.NewForm()
	if in.ID != "" {
		f.Mode = core.FormEdit
		f.TargetID = in.ID
	}
	f.Fields.Date, _ = core.ParseDate(in.Date)
	f.Fields.Sales, _ = core.ParseAmount(in.Sales)
	f.Fields.MunicipalTax, _ = core.ParseAmount(in.MunicipalTax)
	f.Fields.Invoices, _ = core.ParseAmount(in.Invoices)
	f.Fields.Allowance, _ = core.ParseAmount(in.Allowance)
	f.Fields.Salaries, _ = core.ParseAmount(in.Salaries)
	return f
}
