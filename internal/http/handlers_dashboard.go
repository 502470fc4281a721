package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"soda/internal/core"
	applog "soda/internal/log"
	"soda/internal/repository"
	"soda/internal/services"
)

const backendTimeout = 20 * time.Second

// handleDashboard reloads every summary and renders the dashboard. Query
// values: week filters, open expands a week, edit loads a summary into the
// form, toast shows a success message and dismiss hides the load banner.
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	week := sanitizeInput(q.Get(fieldWeek))

	snap, loadErr := s.reload(r.Context())

	form := core.NewForm()
	if editID := sanitizeInput(q.Get("edit")); editID != "" {
		if sum, ok := snap.Find(editID); ok {
			form.Select(sum)
		}
	}

	view := buildDashboard(identityFrom(r.Context()), snap, InputFromForm(form, week), week, sanitizeInput(q.Get("open")))
	view.Toast = toastMessages[q.Get("toast")]
	if loadErr != nil && q.Get("dismiss") == "" {
		view.Banner = loadBanner(loadErr)
	}
	s.render(w, r, http.StatusOK, "dashboard.html", view)
}

// handleSaveSummary creates a summary, or updates one when the form carries
// an id. On success the browser is sent back to the dashboard; on failure
// the form is shown again with what was typed.
func (s *Server) handleSaveSummary(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		BadRequestError("Formato de solicitud inválido").Write(w, r)
		return
	}
	in := ParseSummaryForm(r.PostForm)

	if msgs := in.Validate(); len(msgs) > 0 {
		s.renderDashboardError(w, r, http.StatusUnprocessableEntity, in, msgs)
		return
	}

	form := in.Form()
	editing := form.IsEditing()

	ctx, cancel := context.WithTimeout(r.Context(), backendTimeout)
	defer cancel()
	if _, err := form.Save(ctx, s.summaries); err != nil {
		var verr *core.ValidationError
		if errors.As(err, &verr) {
			s.renderDashboardError(w, r, http.StatusUnprocessableEntity, in, []string{"La fecha es requerida"})
			return
		}
		applog.FromContext(r.Context()).ErrorContext(r.Context(), "Saving summary failed",
			applog.FieldSummaryID, in.ID,
			applog.FieldStatusCode, repository.Status(err),
			applog.FieldError, err)
		msg := repository.Message(err, "Error al guardar/actualizar resumen")
		s.renderDashboardError(w, r, failureStatus(err), in, []string{msg})
		return
	}

	toast := toastCreated
	if editing {
		toast = toastUpdated
	}
	NewResponse().Redirect(dashboardURL(fieldWeek, in.Week, "toast", toast)).Write(w, r)
}

// handleCancel leaves edit mode.
func (s *Server) handleCancel(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		BadRequestError("Formato de solicitud inválido").Write(w, r)
		return
	}
	form := ParseSummaryForm(r.PostForm).Form()
	form.Cancel()
	NewResponse().Redirect(dashboardURL(fieldWeek, sanitizeInput(r.PostForm.Get(fieldWeek)))).Write(w, r)
}

func (s *Server) handleDeleteSummary(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		BadRequestError("Formato de solicitud inválido").Write(w, r)
		return
	}
	id := chi.URLParam(r, "id")
	week := sanitizeInput(r.PostForm.Get(fieldWeek))

	ctx, cancel := context.WithTimeout(r.Context(), backendTimeout)
	defer cancel()
	if err := s.summaries.Delete(ctx, id); err != nil {
		applog.FromContext(r.Context()).ErrorContext(r.Context(), "Deleting summary failed",
			applog.FieldSummaryID, id,
			applog.FieldStatusCode, repository.Status(err),
			applog.FieldError, err)
		msg := repository.Message(err, "Error al eliminar resumen")
		s.renderDashboardError(w, r, failureStatus(err), SummaryInput{Week: week}, []string{msg})
		return
	}
	NewResponse().Redirect(dashboardURL(fieldWeek, week, "toast", toastDeleted)).Write(w, r)
}

// renderDashboardError shows the dashboard with the rejected form and its
// messages. The list is reloaded first so it reflects the backend.
func (s *Server) renderDashboardError(w http.ResponseWriter, r *http.Request, status int, in SummaryInput, msgs []string) {
	snap, loadErr := s.reload(r.Context())
	view := buildDashboard(identityFrom(r.Context()), snap, in, in.Week, "")
	view.FormErrors = msgs
	if loadErr != nil {
		view.Banner = loadBanner(loadErr)
	}
	s.render(w, r, status, "dashboard.html", view)
}

// reload fetches the latest snapshot. When that fails the previous snapshot,
// if any, is returned with the error.
func (s *Server) reload(ctx context.Context) (services.Snapshot, error) {
	ctx, cancel := context.WithTimeout(ctx, backendTimeout)
	defer cancel()
	snap, err := s.summaries.Reload(ctx)
	if err != nil {
		prev, _ := s.summaries.Latest()
		return prev, err
	}
	return snap, nil
}

// failureStatus maps a repository failure onto the response status. Calls
// that never got an answer are reported as a bad gateway.
func failureStatus(err error) int {
	if st := repository.Status(err); st >= 400 && st < 600 {
		return st
	}
	return http.StatusBadGateway
}
