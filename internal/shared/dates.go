package shared

import "strings"

// CompactDate converts a hyphenated date (2024-05-01) to the compact form
// (20240501) some upstream product configurations require. Total function:
// non-date input passes through unchanged, validation is the caller's job.
func CompactDate(s string) string {
	return strings.ReplaceAll(s, "-", "")
}
