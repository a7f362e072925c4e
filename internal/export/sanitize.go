package export

import (
	"strings"
	"unicode"
)

// SanitizeName strips control characters, replaces anything outside a small
// safe set with '_' and truncates to maxLen runes.
func SanitizeName(s string, maxLen int) string {
	var b strings.Builder
	for _, r := range s {
		if unicode.IsControl(r) {
			continue
		}
		if isAllowedNameRune(r) {
			b.WriteRune(r)
		} else {
			b.WriteRune('_')
		}
	}

	cleaned := strings.TrimSpace(b.String())
	if maxLen > 0 {
		runes := []rune(cleaned)
		if len(runes) > maxLen {
			cleaned = strings.TrimSpace(string(runes[:maxLen]))
		}
	}
	return cleaned
}

func isAllowedNameRune(r rune) bool {
	if unicode.IsLetter(r) || unicode.IsDigit(r) {
		return true
	}
	switch r {
	case ' ', '-', '_', '.', ',', '(', ')':
		return true
	default:
		return false
	}
}

// FileName is the suggested download name for an export of the given format.
func FileName(projectName string, f Format) string {
	name := SanitizeName(projectName, maxProjectNameLen)
	if name == "" {
		name = "export"
	}
	return strings.ReplaceAll(name, " ", "_") + f.Extension
}
