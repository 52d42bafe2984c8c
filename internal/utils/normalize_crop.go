package utils

import "strings"

// NormalizeCropKey reduces a crop name to its catalog key.
// Trims whitespace, collapses inner runs of spaces, and lowercases.
func NormalizeCropKey(raw string) string {
	normalized := strings.TrimSpace(raw)
	normalized = strings.Join(strings.Fields(normalized), " ")
	normalized = strings.ToLower(normalized)
	return normalized
}
