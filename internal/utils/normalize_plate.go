package utils

import "strings"

// NormalizePlate strips spaces and dashes from a registration number and
// uppercases it, so lookups and the unique index see one canonical form.
func NormalizePlate(raw string) string {
	normalized := strings.TrimSpace(raw)
	normalized = strings.ReplaceAll(normalized, " ", "")
	normalized = strings.ReplaceAll(normalized, "-", "")
	normalized = strings.ToUpper(normalized)
	return normalized
}

// NormalizeVIN uppercases a VIN and drops separators. I, O and Q are not
// part of the VIN alphabet; transcriptions using them are mapped to the
// digits they are usually mistaken for.
func NormalizeVIN(raw string) string {
	normalized := NormalizePlate(raw)
	normalized = strings.ReplaceAll(normalized, "I", "1")
	normalized = strings.ReplaceAll(normalized, "O", "0")
	normalized = strings.ReplaceAll(normalized, "Q", "0")
	return normalized
}
