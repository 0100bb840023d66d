// Package assistant translates form events into field store, lookup and theme
// operations. Each handler performs one core operation; the transport layer
// above it only decodes the event and renders the result.
package assistant

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/couchcryptid/form-assist-service/internal/domain"
	"github.com/couchcryptid/form-assist-service/internal/observability"
	"github.com/couchcryptid/form-assist-service/internal/theme"
)

// FieldStore persists the form record.
type FieldStore interface {
	Save(r domain.FormRecord)
	Restore() (domain.FormRecord, bool, error)
}

// ThemeController reads, applies and toggles the theme preference.
type ThemeController interface {
	Current() domain.Theme
	Apply(v theme.View, t domain.Theme)
	Toggle(v theme.View) domain.Theme
}

// SubmissionPublisher forwards a saved submission downstream.
type SubmissionPublisher interface {
	PublishSubmission(ctx context.Context, sessionID string, r domain.FormRecord) error
}

// Form is the visible form. Its values are the source of truth that every
// write-through copies into the session store.
type Form interface {
	Values() domain.FormRecord
	Fill(r domain.FormRecord)
	// MissingRequired reports required fields that are empty.
	MissingRequired() []domain.Field
	Reset()
}

// Deps are the collaborators of one session's Assistant.
type Deps struct {
	SessionID string
	Session   domain.SessionStore
	Fields    FieldStore
	Lookup    domain.AddressLookup
	Theme     ThemeController
	Publisher SubmissionPublisher // nil disables publishing
	Logger    *slog.Logger
	Metrics   *observability.Metrics
}

// Assistant holds the event handlers for one session.
type Assistant struct {
	sessionID string
	session   domain.SessionStore
	fields    FieldStore
	lookup    domain.AddressLookup
	theme     ThemeController
	publisher SubmissionPublisher
	logger    *slog.Logger
	metrics   *observability.Metrics
}

// New creates an Assistant from its collaborators.
func New(d Deps) *Assistant {
	return &Assistant{
		sessionID: d.SessionID,
		session:   d.Session,
		fields:    d.Fields,
		lookup:    d.Lookup,
		theme:     d.Theme,
		publisher: d.Publisher,
		logger:    d.Logger.With("session_id", d.SessionID),
		metrics:   d.Metrics,
	}
}

// Load restores the stored record into the form and applies the stored theme.
// A malformed stored record is discarded and the form is left as it is.
func (a *Assistant) Load(form Form, view theme.View) {
	r, ok, err := a.fields.Restore()
	switch {
	case err != nil:
		a.logger.Warn("discarding malformed stored form record", "error", err)
	case ok:
		form.Fill(r)
	}
	a.ApplyStoredTheme(view)
}

// ApplyStoredTheme puts the stored theme preference on the view and returns it.
func (a *Assistant) ApplyStoredTheme(view theme.View) domain.Theme {
	t := a.theme.Current()
	a.theme.Apply(view, t)
	return t
}

// Input writes the form through to the store after a keystroke.
func (a *Assistant) Input(form Form) {
	a.fields.Save(form.Values())
}

// PostalCodeBlur looks up the postal code when it normalizes to eight digits.
// On success the four address fields are overwritten and the form is saved.
// It returns domain.ErrLookupNotFound or an error wrapping
// domain.ErrLookupTransport without touching the form; an ineligible code is
// not looked up and returns nil.
func (a *Assistant) PostalCodeBlur(ctx context.Context, form Form) error {
	code, ok := domain.NormalizePostalCode(form.Values().PostalCode)
	if !ok {
		a.metrics.LookupSkipped.Inc()
		return nil
	}

	result := a.lookup.Lookup(ctx, code)
	switch result.Status {
	case domain.LookupFound:
		form.Fill(form.Values().WithAddress(result.Address))
		a.fields.Save(form.Values())
		a.logger.Debug("postal code resolved", "postal_code", code)
		return nil
	case domain.LookupNotFound:
		a.logger.Info("postal code not found", "postal_code", code)
		return domain.ErrLookupNotFound
	default:
		if errors.Is(result.Err, domain.ErrLookupTransport) {
			return result.Err
		}
		return fmt.Errorf("%w: %v", domain.ErrLookupTransport, result.Err)
	}
}

// Submit saves the form when every required field is filled, then publishes
// the record if a publisher is configured. A publish failure is logged; the
// submit still counts as saved.
func (a *Assistant) Submit(ctx context.Context, form Form) error {
	if missing := form.MissingRequired(); len(missing) > 0 {
		a.metrics.Submissions.WithLabelValues("invalid").Inc()
		return &domain.ValidationError{Missing: missing}
	}

	r := form.Values()
	a.fields.Save(r)
	a.metrics.Submissions.WithLabelValues("saved").Inc()

	if a.publisher == nil {
		return nil
	}
	if err := a.publisher.PublishSubmission(ctx, a.sessionID, r); err != nil {
		a.logger.Error("publish submission failed", "error", err)
		a.metrics.SubmissionsPublished.WithLabelValues("error").Inc()
		return nil
	}
	a.metrics.SubmissionsPublished.WithLabelValues("ok").Inc()
	return nil
}

// Reset clears every session key and empties the form.
func (a *Assistant) Reset(form Form) {
	a.session.Clear()
	form.Reset()
}

// ToggleTheme flips the applied theme and persists it.
func (a *Assistant) ToggleTheme(view theme.View) domain.Theme {
	return a.theme.Toggle(view)
}
