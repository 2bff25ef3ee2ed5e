package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"

	"github.com/video-stream/editor/internal/api/middleware"
	"github.com/video-stream/editor/internal/auth"
	"github.com/video-stream/editor/internal/project"
)

type AuthHandler struct {
	auth         *auth.Manager
	validate     *validator.Validate
	cookieSecure bool
	log          logrus.FieldLogger
}

func NewAuthHandler(m *auth.Manager, validate *validator.Validate, cookieSecure bool, log logrus.FieldLogger) *AuthHandler {
	return &AuthHandler{auth: m, validate: validate, cookieSecure: cookieSecure, log: log}
}

type registerRequest struct {
	Username string  `json:"username" validate:"required,min=3,max=50"`
	Password string  `json:"password" validate:"required,min=6,max=72"`
	Email    *string `json:"email,omitempty" validate:"omitempty,email,max=255"`
}

type loginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBodyError(w, err)
		return
	}
	err := project.Validate(h.validate, req)
	if err == nil && len(req.Password) > auth.MaxPasswordBytes {
		err = &project.ValidationError{Errors: []string{
			fmt.Sprintf("Field 'password' failed on the 'max' tag (value: %d bytes)", auth.MaxPasswordBytes),
		}}
	}
	if err != nil {
		writeError(w, h.log, err)
		return
	}

	login, err := h.auth.Register(r.Context(), req.Username, req.Password, req.Email)
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	h.setSessionCookie(w, login.Token, login.Session.ExpiresAt)
	jsonResponse(w, login.User.Public(), http.StatusCreated)
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBodyError(w, err)
		return
	}
	if req.Username == "" || req.Password == "" {
		jsonError(w, "invalid credentials", http.StatusUnauthorized)
		return
	}

	login, err := h.auth.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	h.setSessionCookie(w, login.Token, login.Session.ExpiresAt)
	jsonResponse(w, login.User.Public(), http.StatusOK)
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if c, err := r.Cookie(middleware.SessionCookie); err == nil && c.Value != "" {
		if err := h.auth.Logout(r.Context(), c.Value); err != nil {
			h.log.WithError(err).Error("logout failed")
			jsonError(w, "failed to log out", http.StatusInternalServerError)
			return
		}
	}
	h.clearSessionCookie(w)
	jsonResponse(w, map[string]string{"message": "logged out"}, http.StatusOK)
}

func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	id := middleware.GetIdentity(r)
	if id == nil {
		jsonError(w, "authentication required", http.StatusUnauthorized)
		return
	}

	user, err := h.auth.CurrentUser(r.Context(), id)
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	jsonResponse(w, user.Public(), http.StatusOK)
}

func (h *AuthHandler) setSessionCookie(w http.ResponseWriter, token string, expires time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookie,
		Value:    token,
		Path:     "/",
		Expires:  expires,
		MaxAge:   int(time.Until(expires).Seconds()),
		HttpOnly: true,
		Secure:   h.cookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *AuthHandler) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.cookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}
