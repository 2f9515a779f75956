package core

import "strings"

// CleanString trims all leading and trailing whitespace in `s` and optionally
// lowers it. Emails, roles and content kinds pass through it before validation.
func CleanString(s string, lower ...bool) string {
	s = strings.TrimSpace(s)
	if len(lower) > 0 && lower[0] {
		return strings.ToLower(s)
	}
	return s
}
