package validators

import (
	"testing"
	"unicode/utf8"
)

func TestSanitizeStringTrimsAndCaps(t *testing.T) {
	if got := SanitizeString("  panadol  ", 0); got != "panadol" {
		t.Fatalf("expected trimmed value, got %q", got)
	}
	if got := SanitizeString("paracetamol", 4); got != "para" {
		t.Fatalf("expected ascii cut at 4 bytes, got %q", got)
	}
}

func TestSanitizeStringKeepsRunesWhole(t *testing.T) {
	// Each Urdu letter is two bytes, so a cut at 5 lands mid-character.
	input := "فاطمہ علی"
	for maxLen := 1; maxLen <= len(input); maxLen++ {
		got := SanitizeString(input, maxLen)
		if !utf8.ValidString(got) {
			t.Fatalf("maxLen %d produced invalid utf-8 %q", maxLen, got)
		}
		if len(got) > maxLen {
			t.Fatalf("maxLen %d produced %d bytes", maxLen, len(got))
		}
	}
	if got := SanitizeString(input, 5); got != "فا" {
		t.Fatalf("expected two whole letters, got %q", got)
	}
}
