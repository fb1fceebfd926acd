package main

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestTruncate(t *testing.T) {
	if got := truncate("short", 50); got != "short" {
		t.Errorf("short string changed: %q", got)
	}
	if got := truncate("line one\nline two", 50); strings.Contains(got, "\n") {
		t.Errorf("newline survived: %q", got)
	}
	long := strings.Repeat("a", 60)
	if got := truncate(long, 50); got != strings.Repeat("a", 47)+"..." {
		t.Errorf("bad ascii truncation: %q", got)
	}
}

func TestTruncate_MultiByteRunes(t *testing.T) {
	// Byte-based slicing would cut the last 3-byte rune in half.
	s := strings.Repeat("通", 20)
	got := truncate(s, 10)
	if !utf8.ValidString(got) {
		t.Fatalf("truncation produced invalid UTF-8: %q", got)
	}
	if got != strings.Repeat("通", 7)+"..." {
		t.Errorf("bad rune truncation: %q", got)
	}
	if n := utf8.RuneCountInString(got); n != 10 {
		t.Errorf("expected 10 runes, got %d", n)
	}
}

func TestShortID(t *testing.T) {
	if got := shortID("0123456789abcdef"); got != "01234567" {
		t.Errorf("shortID = %q", got)
	}
	if got := shortID("abc"); got != "abc" {
		t.Errorf("short input changed: %q", got)
	}
}
