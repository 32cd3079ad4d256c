package handlers

import (
	"errors"
	"net/http"
	"time"

	"budget-tracker/internal/auth"
	"budget-tracker/internal/ledger"
	"budget-tracker/internal/log"
	"budget-tracker/internal/models"
)

// Pinger reports whether the database is reachable.
type Pinger interface {
	Ping() error
}

// Options configures Handlers.
type Options struct {
	PageSize     int
	SecureCookie bool
	StartedAt    time.Time
}

// Handlers holds dependencies for HTTP handlers.
type Handlers struct {
	auth         *auth.Service
	ledger       *ledger.Service
	db           Pinger
	pageSize     int
	secureCookie bool
	startedAt    time.Time
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(authSvc *auth.Service, ledgerSvc *ledger.Service, db Pinger, opts Options) *Handlers {
	if opts.StartedAt.IsZero() {
		opts.StartedAt = time.Now()
	}
	return &Handlers{
		auth:         authSvc,
		ledger:       ledgerSvc,
		db:           db,
		pageSize:     opts.PageSize,
		secureCookie: opts.SecureCookie,
		startedAt:    opts.StartedAt,
	}
}

type registerRequest struct {
	Username        string `json:"username"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Register creates a new account.
func (h *Handlers) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	user, err := h.auth.Register(r.Context(), auth.Registration{
		Username:        req.Username,
		Email:           req.Email,
		Password:        req.Password,
		ConfirmPassword: req.ConfirmPassword,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	log.FromContext(r.Context()).Info("user registered",
		log.FieldOperation, log.OpRegister, log.FieldUserID, user.ID, log.FieldUsername, user.Username)
	writeJSON(w, r, http.StatusCreated, "registration successful, please log in", user)
}

// Login handles credential submission and opens a session.
func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	var ve models.ValidationError
	if req.Username == "" {
		ve.Add("username", "username is required")
	}
	if req.Password == "" {
		ve.Add("password", "password is required")
	}
	if err := ve.Err(); err != nil {
		writeError(w, r, err)
		return
	}

	user, session, err := h.auth.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			log.FromContext(r.Context()).Warn("login failed", log.FieldOperation, log.OpLogin)
		}
		writeError(w, r, err)
		return
	}

	h.setSessionCookie(w, session.Token, session.ExpiresAt)
	log.FromContext(r.Context()).Info("user logged in", log.FieldOperation, log.OpLogin, log.FieldUserID, user.ID)
	writeJSON(w, r, http.StatusOK, "login successful", user)
}

// Logout ends the current session, if any.
func (h *Handlers) Logout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(SessionCookieName); err == nil {
		if err := h.auth.Logout(r.Context(), cookie.Value); err != nil {
			log.FromContext(r.Context()).Error("failed to delete session", log.Err(err)...)
		}
	}
	h.clearSessionCookie(w)
	writeJSON(w, r, http.StatusOK, "you have been logged out", nil)
}

// Me returns the authenticated user.
func (h *Handlers) Me(w http.ResponseWriter, r *http.Request) {
	id, _ := IdentityFromContext(r.Context())
	user, err := h.auth.GetUserByID(r.Context(), id.UserID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, "ok", user)
}

// Categories lists the transaction categories.
func (h *Handlers) Categories(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, "ok", models.Categories())
}

// Health reports database reachability and uptime.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	status, code := "ok", http.StatusOK
	if h.db != nil {
		if err := h.db.Ping(); err != nil {
			log.FromContext(r.Context()).Error("health check failed", log.Err(err)...)
			status, code = "unavailable", http.StatusServiceUnavailable
		}
	}
	writeJSON(w, r, code, status, map[string]string{
		"status": status,
		"uptime": time.Since(h.startedAt).Truncate(time.Second).String(),
	})
}

// Root redirects to the dashboard.
func (h *Handlers) Root(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/dashboard", http.StatusFound)
}

// NotFound answers unknown routes.
func (h *Handlers) NotFound(w http.ResponseWriter, r *http.Request) {
	write(w, r, Envelope{Code: http.StatusNotFound, Message: "not found"})
}
