package nanitws

import "strings"

// Theme selects the visual theme of the birthday screen.
type Theme int

const (
	ThemePelican Theme = iota + 1
	ThemeFox
	ThemeElephant
)

// ParseTheme maps the wire value case-insensitively. Unknown values map to ThemeFox
// instead of failing the decode.
func ParseTheme(s string) Theme {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "pelican":
		return ThemePelican
	case "fox":
		return ThemeFox
	case "elephant":
		return ThemeElephant
	default:
		return ThemeFox
	}
}

func (t Theme) String() string {
	switch t {
	case ThemePelican:
		return "pelican"
	case ThemeFox:
		return "fox"
	case ThemeElephant:
		return "elephant"
	}
	return "unknown"
}
