package assistant

import "github.com/couchcryptid/form-assist-service/internal/domain"

// FormState is a Form held in memory, built from the values a page reports.
type FormState struct {
	Record   domain.FormRecord
	Required []domain.Field
}

// NewFormState returns a FormState over r with the given required fields.
func NewFormState(r domain.FormRecord, required []domain.Field) *FormState {
	return &FormState{Record: r, Required: required}
}

func (f *FormState) Values() domain.FormRecord { return f.Record }

func (f *FormState) Fill(r domain.FormRecord) { f.Record = r }

func (f *FormState) MissingRequired() []domain.Field {
	return f.Record.MissingRequired(f.Required)
}

func (f *FormState) Reset() { f.Record = domain.FormRecord{} }
