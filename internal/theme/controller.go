// Package theme tracks the light/dark preference of a session and applies it
// to the page.
package theme

import (
	"github.com/couchcryptid/form-assist-service/internal/domain"
	"github.com/couchcryptid/form-assist-service/internal/observability"
)

// View is the visual state the controller drives: whether the dark theme is
// applied and what the toggle control says.
type View interface {
	Dark() bool
	SetDark(dark bool)
	SetToggleLabel(label string)
}

// Controller reads and persists the preference under domain.ThemeKey.
type Controller struct {
	session domain.SessionStore
	metrics *observability.Metrics
}

// NewController creates a Controller over one session's key/value map.
func NewController(session domain.SessionStore, metrics *observability.Metrics) *Controller {
	return &Controller{session: session, metrics: metrics}
}

// Current returns the stored preference, light when absent or unrecognized.
func (c *Controller) Current() domain.Theme {
	v, _ := c.session.GetItem(domain.ThemeKey)
	return domain.ParseTheme(v)
}

// Apply puts t on the view.
func (c *Controller) Apply(v View, t domain.Theme) {
	v.SetDark(t == domain.ThemeDark)
	v.SetToggleLabel(t.ToggleLabel())
}

// Toggle flips the theme currently applied to the view, applies and persists
// the new one, and returns it.
func (c *Controller) Toggle(v View) domain.Theme {
	applied := domain.ThemeLight
	if v.Dark() {
		applied = domain.ThemeDark
	}
	next := applied.Toggled()
	c.Apply(v, next)
	c.session.SetItem(domain.ThemeKey, string(next))
	c.metrics.ThemeToggles.WithLabelValues(string(next)).Inc()
	return next
}

// State is a View held in memory, used when the page reports its applied
// theme with each request.
type State struct {
	Theme       domain.Theme
	ToggleLabel string
}

// NewState returns a State with t applied.
func NewState(t domain.Theme) *State {
	return &State{Theme: t, ToggleLabel: t.ToggleLabel()}
}

func (s *State) Dark() bool { return s.Theme == domain.ThemeDark }

func (s *State) SetDark(dark bool) {
	if dark {
		s.Theme = domain.ThemeDark
		return
	}
	s.Theme = domain.ThemeLight
}

func (s *State) SetToggleLabel(label string) { s.ToggleLabel = label }
