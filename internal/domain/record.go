package domain

import "fmt"

// Field names a FormRecord field.
type Field string

const (
	FieldName       Field = "name"
	FieldEmail      Field = "email"
	FieldPostalCode Field = "postalCode"
	FieldStreet     Field = "street"
	FieldDistrict   Field = "district"
	FieldCity       Field = "city"
	FieldRegion     Field = "region"
)

// Fields lists every FormRecord field in form order.
var Fields = []Field{
	FieldName,
	FieldEmail,
	FieldPostalCode,
	FieldStreet,
	FieldDistrict,
	FieldCity,
	FieldRegion,
}

// ParseField resolves a field name, rejecting anything outside Fields.
func ParseField(s string) (Field, error) {
	for _, f := range Fields {
		if string(f) == s {
			return f, nil
		}
	}
	return "", fmt.Errorf("unknown form field %q", s)
}

// FormRecord is the contact and address data entered on the form.
type FormRecord struct {
	Name       string `json:"nome"`
	Email      string `json:"email"`
	PostalCode string `json:"cep"`
	Street     string `json:"rua"`
	District   string `json:"bairro"`
	City       string `json:"cidade"`
	Region     string `json:"estado"`
}

// Value returns the value held by f, or "" for an unknown field.
func (r FormRecord) Value(f Field) string {
	switch f {
	case FieldName:
		return r.Name
	case FieldEmail:
		return r.Email
	case FieldPostalCode:
		return r.PostalCode
	case FieldStreet:
		return r.Street
	case FieldDistrict:
		return r.District
	case FieldCity:
		return r.City
	case FieldRegion:
		return r.Region
	}
	return ""
}

// WithAddress returns a copy of r whose four address fields are replaced by a.
// Name, email and postal code are left alone.
func (r FormRecord) WithAddress(a Address) FormRecord {
	r.Street = a.Street
	r.District = a.District
	r.City = a.City
	r.Region = a.Region
	return r
}

// MissingRequired returns the required fields whose value is empty, in the
// order given.
func (r FormRecord) MissingRequired(required []Field) []Field {
	var missing []Field
	for _, f := range required {
		if r.Value(f) == "" {
			missing = append(missing, f)
		}
	}
	return missing
}
