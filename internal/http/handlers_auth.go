package http

import (
	"context"
	"errors"
	"net/http"

	"soda/internal/access"
	"soda/internal/identity"
	applog "soda/internal/log"
	"soda/internal/session"
)

type identityKey struct{}

// identityFrom returns the identity resolved for the request, or nil.
func identityFrom(ctx context.Context) *identity.Identity {
	id, _ := ctx.Value(identityKey{}).(*identity.Identity)
	return id
}

// withIdentity resolves the signed-in identity once per request.
func (s *Server) withIdentity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if id, ok := s.resolver.Current(ctx, s.scopes(w, r)); ok {
			ctx = context.WithValue(ctx, identityKey{}, &id)
			logger := applog.FromContext(ctx).With(applog.FieldUsername, id.Username)
			ctx = applog.NewContext(ctx, logger)
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// requireRole gates the wrapped routes. An empty role admits any signed-in
// identity.
func (s *Server) requireRole(role identity.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			d := access.Authorize(identityFrom(r.Context()), role)
			if !d.Allowed {
				NewResponse().Redirect(d.Redirect).Write(w, r)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (s *Server) handleLanding(w http.ResponseWriter, r *http.Request) {
	NewResponse().Redirect(access.Landing(identityFrom(r.Context()))).Write(w, r)
}

func (s *Server) handleLoginPage(w http.ResponseWriter, r *http.Request) {
	if id := identityFrom(r.Context()); id != nil {
		NewResponse().Redirect(access.Landing(id)).Write(w, r)
		return
	}
	s.render(w, r, http.StatusOK, "login.html", loginView{page: page{Title: "Iniciar Sesión"}})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		BadRequestError("Formato de solicitud inválido").Write(w, r)
		return
	}
	in := ParseLoginForm(r.PostForm)
	view := loginView{page: page{Title: "Iniciar Sesión"}, Username: in.Username, Remember: in.Remember}

	if msg := in.Validate(); msg != "" {
		view.Error = msg
		s.render(w, r, http.StatusUnprocessableEntity, "login.html", view)
		return
	}

	logger := applog.FromContext(r.Context())
	id, err := s.resolver.Login(r.Context(), s.scopes(w, r), session.Credentials{
		Username: in.Username,
		Password: in.Password,
		Remember: in.Remember,
	})
	if err != nil {
		if errors.Is(err, identity.ErrInvalidCredentials) {
			logger.WarnContext(r.Context(), "Login rejected",
				applog.FieldOperation, applog.OpLogin,
				applog.FieldUsername, identity.Normalize(in.Username))
			view.Error = "Usuario o contraseña incorrectos"
			s.render(w, r, http.StatusUnauthorized, "login.html", view)
			return
		}
		logger.ErrorContext(r.Context(), "Login failed",
			applog.FieldOperation, applog.OpLogin,
			applog.FieldError, err)
		view.Error = "No se pudo iniciar sesión. Intente de nuevo."
		s.render(w, r, http.StatusInternalServerError, "login.html", view)
		return
	}

	NewResponse().Redirect(access.Landing(&id)).Write(w, r)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if err := s.resolver.Logout(r.Context(), s.scopes(w, r)); err != nil {
		applog.FromContext(r.Context()).WarnContext(r.Context(), "Logout could not clear every scope",
			applog.FieldOperation, applog.OpLogout,
			applog.FieldError, err)
	}
	NewResponse().Redirect(access.LoginPath).Write(w, r)
}
