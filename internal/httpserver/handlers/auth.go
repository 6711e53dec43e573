package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/MrSnakeDoc/gieok/internal/domain"
	"github.com/MrSnakeDoc/gieok/internal/httpserver/deps"
	"github.com/MrSnakeDoc/gieok/internal/identity"
	"github.com/MrSnakeDoc/gieok/internal/logger"
)

type loginRequest struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	ReturnURL string `json:"returnUrl,omitempty"`
}

type loginResponse struct {
	Session  identity.Session `json:"session"`
	Redirect string           `json:"redirect"`
}

// Login signs in and stores the access token in the session cookie. The
// redirect target is sanitized the same way the login page guard does it.
func Login(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req loginRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, r, d.Logger, err)
			return
		}

		verr := &domain.ValidationError{}
		if strings.TrimSpace(req.Email) == "" {
			verr.Add("email", "email is required")
		}
		if req.Password == "" {
			verr.Add("password", "password is required")
		}
		if err := verr.OrNil(); err != nil {
			writeError(w, r, d.Logger, err)
			return
		}

		s, err := d.Identity.SignIn(r.Context(), strings.TrimSpace(req.Email), req.Password)
		switch {
		case errors.Is(err, identity.ErrInvalidCredentials):
			writeJSON(w, http.StatusUnauthorized, errorResponse{Error: identity.ErrInvalidCredentials.Error()})
			return
		case err != nil:
			d.Logger.Warn("sign in failed", logger.Error(err))
			writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "sign in failed, please try again"})
			return
		}

		d.Cookies.Set(w, s)
		writeJSON(w, http.StatusOK, loginResponse{
			Session:  s,
			Redirect: d.Guard.SafeReturn(req.ReturnURL),
		})
	}
}

// Logout always clears the cookie, even when the provider call fails.
func Logout(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if token := d.Cookies.Token(r); token != "" {
			if err := d.Identity.SignOut(r.Context(), token); err != nil {
				d.Logger.Warn("sign out failed at provider", logger.Error(err))
			}
		}
		d.Cookies.Clear(w)
		w.WriteHeader(http.StatusNoContent)
	}
}

// Session reports the caller's session. An unreachable provider reads as
// signed out.
func Session(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-store")
		writeJSON(w, http.StatusOK, d.Sessions.Resolve(r))
	}
}
