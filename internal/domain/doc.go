// Package domain models the address form handled by the form assistant.
//
// # Form Record
//
// The form has seven free-text fields. Internally they carry English names;
// on the wire (and in the session store) they keep the Portuguese keys of the
// registration form so a stored payload stays readable by the browser client:
//
//	name       → "nome"
//	email      → "email"
//	postalCode → "cep"
//	street     → "rua"
//	district   → "bairro"
//	city       → "cidade"
//	region     → "estado"
//
// Every field defaults to the empty string. A restored record replaces the
// visible form wholesale; fields missing from the stored JSON come back empty.
//
// # Postal Codes
//
// Brazilian postal codes (CEP) have eight digits, usually written "01001-000".
// [NormalizePostalCode] strips everything that is not an ASCII digit and
// reports whether exactly eight remain. Only eligible codes are sent to the
// lookup service.
//
// # Session Keys
//
// Two keys are used in a session store:
//
//	"formulario"  JSON-encoded FormRecord
//	"tema"        theme literal, "light" or "dark"
//
// Any theme literal other than exactly "dark" reads as light.
//
// # Lookup Results
//
// The address service either resolves a code to street, district, city and
// region ([LookupFound]), reports it unknown ([LookupNotFound]), or fails in
// transit ([LookupTransportError]). Only a found result mutates the form, and
// it overwrites all four address fields, blanking any the service omitted.
package domain
