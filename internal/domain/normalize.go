package domain

import "strings"

// NormalizeEmail trims leading/trailing whitespace.
// It is used for the presence check on signup/unregister input.
func NormalizeEmail(s string) Email {
	return Email(strings.TrimSpace(s))
}
