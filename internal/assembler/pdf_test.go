package assembler

import (
	"testing"
	"unicode/utf8"
)

func TestTruncate(t *testing.T) {
	tests := []struct {
		name string
		in   string
		n    int
		want string
	}{
		{"short passes through", "region", 24, "region"},
		{"exact length passes through", "abcd", 4, "abcd"},
		{"long ascii", "a very long column header", 10, "a very lo~"},
		{"accented runes kept whole", "región de operación", 8, "región ~"},
		{"multi-byte at the cut point", "añoañoaño", 4, "año~"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := truncate(tt.in, tt.n)
			if got != tt.want {
				t.Errorf("truncate(%q, %d) = %q, want %q", tt.in, tt.n, got, tt.want)
			}
			if !utf8.ValidString(got) {
				t.Errorf("truncate(%q, %d) produced invalid UTF-8", tt.in, tt.n)
			}
		})
	}
}

func TestProfileExcerpt(t *testing.T) {
	got := profileExcerpt(map[string]string{
		"role":   "finance analyst",
		"region": "EMEA",
	})

	if got != "region: EMEA; role: finance analyst" {
		t.Errorf("excerpt = %q", got)
	}
}

func TestProfileExcerptEmpty(t *testing.T) {
	if got := profileExcerpt(nil); got != "" {
		t.Errorf("excerpt = %q, want empty", got)
	}
}
