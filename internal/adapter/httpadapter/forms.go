package httpadapter

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/couchcryptid/form-assist-service/internal/assistant"
	"github.com/couchcryptid/form-assist-service/internal/domain"
	"github.com/couchcryptid/form-assist-service/internal/fieldstore"
	"github.com/couchcryptid/form-assist-service/internal/observability"
	"github.com/couchcryptid/form-assist-service/internal/theme"
)

const maxBodyBytes = 64 << 10

// SessionResolver maps a session cookie value to that session's store,
// starting a new session when the value is empty, unknown, or expired.
type SessionResolver interface {
	Resolve(id string) (sessionID string, store domain.SessionStore, created bool)
}

// FormConfig holds the form settings the handler needs.
type FormConfig struct {
	CookieName string
	// SecureCookie marks the session cookie Secure even on plain HTTP
	// requests, for deployments behind a TLS-terminating proxy.
	SecureCookie   bool
	RequiredFields []domain.Field
}

// FormHandler translates form API requests into assistant events. It holds
// no form state: each request carries the values shown on the page.
type FormHandler struct {
	sessions  SessionResolver
	lookup    domain.AddressLookup
	publisher assistant.SubmissionPublisher
	cfg       FormConfig
	logger    *slog.Logger
	metrics   *observability.Metrics
}

// NewFormHandler creates a FormHandler. publisher may be nil.
func NewFormHandler(sessions SessionResolver, lookup domain.AddressLookup, publisher assistant.SubmissionPublisher,
	cfg FormConfig, logger *slog.Logger, metrics *observability.Metrics,
) *FormHandler {
	return &FormHandler{
		sessions:  sessions,
		lookup:    lookup,
		publisher: publisher,
		cfg:       cfg,
		logger:    logger,
		metrics:   metrics,
	}
}

// Register mounts the form API on r.
func (h *FormHandler) Register(r chi.Router) {
	r.Route("/api", func(r chi.Router) {
		r.Get("/form", h.handleLoad)
		r.Put("/form", h.handleInput)
		r.Post("/form/postal-code", h.handlePostalCodeBlur)
		r.Post("/form/submit", h.handleSubmit)
		r.Post("/form/reset", h.handleReset)
		r.Get("/theme", h.handleTheme)
		r.Post("/theme/toggle", h.handleToggleTheme)
	})
}

// formRequest is the page state sent with every event.
type formRequest struct {
	Form  domain.FormRecord `json:"form"`
	Theme string            `json:"theme,omitempty"` // theme currently applied on the page
}

type formResponse struct {
	Form        domain.FormRecord `json:"form"`
	Theme       domain.Theme      `json:"theme"`
	ToggleLabel string            `json:"toggle_label"`
	Notice      string            `json:"notice,omitempty"`
	Missing     []domain.Field    `json:"missing,omitempty"`
}

type themeResponse struct {
	Theme       domain.Theme `json:"theme"`
	ToggleLabel string       `json:"toggle_label"`
}

func (h *FormHandler) handleLoad(w http.ResponseWriter, r *http.Request) {
	a := h.assistantFor(w, r)
	form := assistant.NewFormState(domain.FormRecord{}, h.cfg.RequiredFields)
	view := &theme.State{}

	a.Load(form, view)

	writeJSON(w, http.StatusOK, response(form, view, ""))
}

func (h *FormHandler) handleInput(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decode(w, r)
	if !ok {
		return
	}
	a := h.assistantFor(w, r)
	form := assistant.NewFormState(req.Form, h.cfg.RequiredFields)

	a.Input(form)

	writeJSON(w, http.StatusOK, response(form, h.appliedView(a, req), ""))
}

func (h *FormHandler) handlePostalCodeBlur(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decode(w, r)
	if !ok {
		return
	}
	a := h.assistantFor(w, r)
	form := assistant.NewFormState(req.Form, h.cfg.RequiredFields)

	err := a.PostalCodeBlur(r.Context(), form)

	writeJSON(w, statusFor(err), response(form, h.appliedView(a, req), domain.Notice(err)))
}

func (h *FormHandler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decode(w, r)
	if !ok {
		return
	}
	a := h.assistantFor(w, r)
	form := assistant.NewFormState(req.Form, h.cfg.RequiredFields)

	err := a.Submit(r.Context(), form)

	resp := response(form, h.appliedView(a, req), domain.NoticeSaved)
	if err != nil {
		resp.Notice = domain.Notice(err)
		var verr *domain.ValidationError
		if errors.As(err, &verr) {
			resp.Missing = verr.Missing
		}
	}
	writeJSON(w, statusFor(err), resp)
}

func (h *FormHandler) handleReset(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeOptional(w, r)
	if !ok {
		return
	}
	a := h.assistantFor(w, r)
	form := assistant.NewFormState(req.Form, h.cfg.RequiredFields)
	// Reset leaves the applied theme alone; read it before the store is cleared.
	view := h.appliedView(a, req)

	a.Reset(form)

	writeJSON(w, http.StatusOK, response(form, view, ""))
}

func (h *FormHandler) handleTheme(w http.ResponseWriter, r *http.Request) {
	a := h.assistantFor(w, r)
	view := &theme.State{}

	a.ApplyStoredTheme(view)

	writeJSON(w, http.StatusOK, themeResponse{Theme: view.Theme, ToggleLabel: view.ToggleLabel})
}

func (h *FormHandler) handleToggleTheme(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeOptional(w, r)
	if !ok {
		return
	}
	a := h.assistantFor(w, r)
	view := h.appliedView(a, req)

	a.ToggleTheme(view)

	writeJSON(w, http.StatusOK, themeResponse{Theme: view.Theme, ToggleLabel: view.ToggleLabel})
}

// assistantFor resolves the caller's session, issuing a cookie for a new one,
// and wires an Assistant over its store.
func (h *FormHandler) assistantFor(w http.ResponseWriter, r *http.Request) *assistant.Assistant {
	var cookieID string
	if c, err := r.Cookie(h.cfg.CookieName); err == nil {
		cookieID = c.Value
	}

	id, store, created := h.sessions.Resolve(cookieID)
	if created {
		http.SetCookie(w, &http.Cookie{
			Name:     h.cfg.CookieName,
			Value:    id,
			Path:     "/",
			HttpOnly: true,
			Secure:   h.cfg.SecureCookie || r.TLS != nil,
			SameSite: http.SameSiteLaxMode,
		})
	}

	return assistant.New(assistant.Deps{
		SessionID: id,
		Session:   store,
		Fields:    fieldstore.New(store, h.logger, h.metrics),
		Lookup:    h.lookup,
		Theme:     theme.NewController(store, h.metrics),
		Publisher: h.publisher,
		Logger:    h.logger,
		Metrics:   h.metrics,
	})
}

// appliedView is the theme the page reports as applied, or the stored one
// when the page did not say.
func (h *FormHandler) appliedView(a *assistant.Assistant, req formRequest) *theme.State {
	if req.Theme != "" {
		return theme.NewState(domain.ParseTheme(req.Theme))
	}
	view := &theme.State{}
	a.ApplyStoredTheme(view)
	return view
}

func (h *FormHandler) decode(w http.ResponseWriter, r *http.Request) (formRequest, bool) {
	var req formRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		h.logger.Debug("invalid form request body", "error", err, "path", r.URL.Path)
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return formRequest{}, false
	}
	return req, true
}

// decodeOptional is decode for routes where an empty body is fine.
func (h *FormHandler) decodeOptional(w http.ResponseWriter, r *http.Request) (formRequest, bool) {
	var req formRequest
	err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req)
	if err != nil && !errors.Is(err, io.EOF) {
		h.logger.Debug("invalid form request body", "error", err, "path", r.URL.Path)
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return formRequest{}, false
	}
	return req, true
}

func response(form *assistant.FormState, view *theme.State, notice string) formResponse {
	return formResponse{
		Form:        form.Values(),
		Theme:       view.Theme,
		ToggleLabel: view.ToggleLabel,
		Notice:      notice,
	}
}

func statusFor(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, domain.ErrValidation):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrLookupNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrLookupTransport):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // best-effort response
}
