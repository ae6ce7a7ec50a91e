package model

// IconFallback is used when a stored icon name is no longer in the
// supported set.
const IconFallback = "clipboard"

var icons = map[string]bool{
	"clipboard": true,
	"check":     true,
	"wrench":    true,
	"truck":     true,
	"factory":   true,
	"gauge":     true,
	"flask":     true,
	"shield":    true,
	"alert":     true,
	"star":      true,
}

// ValidIcon reports whether name is a supported icon identifier.
// Unknown names are rejected when a checklist is saved.
func ValidIcon(name string) bool {
	return icons[name]
}

// ResolveIcon maps a stored icon name to a renderable identifier,
// falling back for names that have since been removed from the set.
func ResolveIcon(name string) string {
	if icons[name] {
		return name
	}
	return IconFallback
}
