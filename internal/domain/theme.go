package domain

// Theme is the light/dark visual preference.
type Theme string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

// Labels shown on the theme toggle control.
const (
	ToggleLabelLight = "switch to light"
	ToggleLabelDark  = "switch to dark"
)

// ParseTheme maps a stored literal to a Theme. Only "dark" is dark.
func ParseTheme(s string) Theme {
	if s == string(ThemeDark) {
		return ThemeDark
	}
	return ThemeLight
}

// Toggled returns the opposite theme.
func (t Theme) Toggled() Theme {
	if t == ThemeDark {
		return ThemeLight
	}
	return ThemeDark
}

// ToggleLabel is the label the toggle control shows while t is applied.
func (t Theme) ToggleLabel() string {
	if t == ThemeDark {
		return ToggleLabelLight
	}
	return ToggleLabelDark
}
