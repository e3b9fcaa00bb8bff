package services

import "testing"

func TestCleanText(t *testing.T) {
	tests := []struct {
		name     string
		in       string
		preserve bool
		want     string
	}{
		{"empty", "", false, ""},
		{"whitespace only", "   \n\t  ", false, ""},
		{"collapses whitespace runs", "hello   \n\n  world", false, "hello world"},
		{"joins hyphenated wraps", "co- operative", false, "cooperative"},
		{"hyphenated across newline", "multi-\nline", false, "multiline"},
		{"strips space before punctuation", "hello , world", false, "hello, world"},
		{"inserts space after punctuation", "one.two,three", false, "one. two, three"},
		{"strips special characters", "total: $100 (approx)", false, "total: 100 approx"},
		{"preserves technical symbols", "total: $100 (approx)", true, "total: $100 approx"},
		{"keeps unicode letters", "naïve résumé", false, "naïve résumé"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CleanText(tt.in, tt.preserve)
			if got != tt.want {
				t.Fatalf("CleanText(%q, %v) = %q, want %q", tt.in, tt.preserve, got, tt.want)
			}
		})
	}
}

func TestCleanTextNeverPanicsOnPunctuationAtEnd(t *testing.T) {
	got := CleanText("ends with period.", false)
	if got != "ends with period." {
		t.Fatalf("got %q", got)
	}
}
