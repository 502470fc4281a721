package http

import (
	"bytes"
	"fmt"
	"html/template"
	"net/http"
	"net/url"

	"github.com/shopspring/decimal"

	"soda/internal/core"
	"soda/internal/identity"
	applog "soda/internal/log"
	"soda/internal/repository"
	"soda/internal/services"
	"soda/internal/tax"
	appweb "soda/web"
)

const (
	toastCreated = "created"
	toastUpdated = "updated"
	toastDeleted = "deleted"
)

var toastMessages = map[string]string{
	toastCreated: "Resumen guardado correctamente",
	toastUpdated: "Resumen actualizado correctamente",
	toastDeleted: "Resumen eliminado correctamente",
}

type (
	page struct {
		Title string
		User  *identity.Identity
	}

	loginView struct {
		page
		Username string
		Remember bool
		Error    string
	}

	weekOption struct {
		Key      string
		Label    string
		Selected bool
	}

	weekView struct {
		Key    string
		Label  string
		Totals core.WeekTotals
		Rows   []core.Summary
		Open   bool
	}

	bannerView struct {
		Message string
		Detail  string
	}

	dashboardView struct {
		page
		Form          SummaryInput
		Editing       bool
		FormErrors    []string
		PreviewCost   decimal.Decimal
		PreviewProfit decimal.Decimal
		Week          string
		WeekOptions   []weekOption
		Weeks         []weekView
		OverallProfit decimal.Decimal
		Banner        *bannerView
		Toast         string
	}

	calculatorView struct {
		Index  int
		Param  string
		Amount string
		Mode   tax.Mode
		Split  tax.Split
		Error  string
	}

	taxView struct {
		page
		Action      string
		Calculators []calculatorView
	}
)

func (p page) CanUseDashboard() bool {
	return p.User != nil && p.User.Role == identity.RoleFull
}

var templateFuncs = template.FuncMap{
	"colones":      core.FormatColones,
	"invoiceLabel": invoiceLabel,
	"signClass": func(d decimal.Decimal) string {
		if d.IsNegative() {
			return "negative"
		}
		return "positive"
	},
	"dashURL": dashboardURL,
	"rate": func(d decimal.Decimal) string {
		return d.String() + "%"
	},
}

func parseTemplates() (*template.Template, error) {
	return template.New("").Funcs(templateFuncs).ParseFS(appweb.TemplatesFS, "templates/*.html")
}

// dashboardURL builds a dashboard link keeping the non-empty query values,
// given as name/value pairs.
func dashboardURL(pairs ...string) string {
	q := url.Values{}
	for i := 0; i+1 < len(pairs); i += 2 {
		if pairs[i+1] != "" {
			q.Set(pairs[i], pairs[i+1])
		}
	}
	if len(q) == 0 {
		return "/dashboard"
	}
	return "/dashboard?" + q.Encode()
}

// render executes a template into a buffer so a failure can still become a
// clean 500.
func (s *Server) render(w http.ResponseWriter, r *http.Request, status int, name string, data any) {
	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, name, data); err != nil {
		applog.FromContext(r.Context()).ErrorContext(r.Context(), "Template execution failed",
			applog.FieldOperation, applog.OpRender,
			"template", name,
			applog.FieldError, err)
		InternalServerError("Error interno del servidor").Write(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

// loadBanner describes a failed reload.
func loadBanner(err error) *bannerView {
	msg := repository.Message(err, "Error de red")
	text := "Error al obtener resúmenes: " + msg
	if st := repository.Status(err); st > 0 {
		text = fmt.Sprintf("Error al obtener resúmenes (HTTP %d): %s", st, msg)
	}
	return &bannerView{Message: text, Detail: err.Error()}
}

// buildDashboard turns a snapshot into the dashboard view. week filters the
// listed weeks; open names the expanded one.
func buildDashboard(user *identity.Identity, snap services.Snapshot, in SummaryInput, week, open string) dashboardView {
	form := in.Form()
	v := dashboardView{
		page:          page{Title: "Dashboard Financiero", User: user},
		Form:          in,
		Editing:       form.IsEditing(),
		PreviewCost:   form.Fields.Expenses(),
		PreviewProfit: form.Fields.Profit(),
		Week:          week,
		OverallProfit: snap.OverallProfit,
	}
	if v.Week == "" {
		v.Week = core.AllWeeks
	}

	v.WeekOptions = append(v.WeekOptions, weekOption{Key: core.AllWeeks, Label: "Todas las semanas", Selected: v.Week == core.AllWeeks})
	for _, wk := range snap.Weeks {
		label := wk.Label() + " (" + invoiceLabel(len(wk.Summaries)) + ")"
		v.WeekOptions = append(v.WeekOptions, weekOption{Key: string(wk.Key), Label: label, Selected: string(wk.Key) == v.Week})
	}

	for _, wk := range core.FilterWeeks(snap.Weeks, v.Week) {
		v.Weeks = append(v.Weeks, weekView{
			Key:    string(wk.Key),
			Label:  wk.Label(),
			Totals: core.ComputeGroupTotals(wk),
			Rows:   wk.Summaries,
			Open:   string(wk.Key) == open,
		})
	}
	return v
}
