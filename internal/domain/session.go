package domain

// Session store keys.
const (
	FormKey  = "formulario"
	ThemeKey = "tema"
)

// SessionStore is a string key/value map scoped to one user session.
type SessionStore interface {
	GetItem(key string) (string, bool)
	SetItem(key, value string)
	Clear()
}
