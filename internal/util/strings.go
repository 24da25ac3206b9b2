package util

import "strings"

// DefaultString returns the fallback value if v is empty or consists entirely
// of whitespace; otherwise it returns v unchanged.
func DefaultString(v, fallback string) string {
	if strings.TrimSpace(v) == "" {
		return fallback
	}
	return v
}

// EmptyDash returns "-" if s is empty or consists entirely of whitespace;
// otherwise it returns s unchanged. Used by the CLI and the live view to show
// a visible placeholder for optional fields (group, pid) in table output.
func EmptyDash(s string) string {
	return DefaultString(s, "-")
}

// TitleCase upper-cases the first letter of s, leaving the rest untouched.
// OS process status strings arrive lower-case ("sleep", "running") and are
// displayed title-cased ("Sleep", "Running").
func TitleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
