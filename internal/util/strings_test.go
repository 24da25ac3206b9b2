package util

import "testing"

func TestDefaultString(t *testing.T) {
	if got := DefaultString("hello", "world"); got != "hello" {
		t.Fatalf("expected hello, got %q", got)
	}
	if got := DefaultString("  ", "world"); got != "world" {
		t.Fatalf("expected fallback, got %q", got)
	}
}

func TestEmptyDash(t *testing.T) {
	if got := EmptyDash(""); got != "-" {
		t.Fatalf("expected dash, got %q", got)
	}
	if got := EmptyDash("prod"); got != "prod" {
		t.Fatalf("expected passthrough, got %q", got)
	}
}

func TestTitleCase(t *testing.T) {
	cases := map[string]string{
		"":           "",
		"sleep":      "Sleep",
		"running":    "Running",
		"Zombie":     "Zombie",
		"disk-sleep": "Disk-sleep",
	}
	for in, want := range cases {
		if got := TitleCase(in); got != want {
			t.Fatalf("TitleCase(%q) = %q, want %q", in, got, want)
		}
	}
}
