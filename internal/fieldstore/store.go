// Package fieldstore persists the form record in a session store.
package fieldstore

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/couchcryptid/form-assist-service/internal/domain"
	"github.com/couchcryptid/form-assist-service/internal/observability"
)

// Store reads and writes the FormRecord under domain.FormKey.
type Store struct {
	session domain.SessionStore
	logger  *slog.Logger
	metrics *observability.Metrics
}

// New creates a Store over one session's key/value map.
func New(session domain.SessionStore, logger *slog.Logger, metrics *observability.Metrics) *Store {
	return &Store{session: session, logger: logger, metrics: metrics}
}

// Save serializes r and overwrites any prior stored record.
func (s *Store) Save(r domain.FormRecord) {
	data, err := json.Marshal(r)
	if err != nil {
		// Only string fields; unreachable in practice.
		s.logger.Error("encode form record", "error", err)
		return
	}
	s.session.SetItem(domain.FormKey, string(data))
	s.metrics.FormSaves.Inc()
}

// Restore returns the stored record. ok is false when nothing is stored.
// A stored value that does not decode yields an error wrapping
// domain.ErrMalformedRecord; callers treat that as no data.
func (s *Store) Restore() (domain.FormRecord, bool, error) {
	raw, found := s.session.GetItem(domain.FormKey)
	if !found || raw == "" {
		s.metrics.FormRestores.WithLabelValues("absent").Inc()
		return domain.FormRecord{}, false, nil
	}

	var r *domain.FormRecord
	if err := json.Unmarshal([]byte(raw), &r); err != nil {
		s.metrics.FormRestores.WithLabelValues("malformed").Inc()
		return domain.FormRecord{}, false, fmt.Errorf("%w: %w", domain.ErrMalformedRecord, err)
	}
	if r == nil {
		s.metrics.FormRestores.WithLabelValues("malformed").Inc()
		return domain.FormRecord{}, false, fmt.Errorf("%w: stored value is null", domain.ErrMalformedRecord)
	}
	s.metrics.FormRestores.WithLabelValues("found").Inc()
	return *r, true, nil
}
