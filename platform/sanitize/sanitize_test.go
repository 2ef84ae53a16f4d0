package sanitize

import (
	"strings"
	"testing"
)

func TestText(t *testing.T) {
	tests := []struct {
		name string
		in   string
		max  int
		want string
	}{
		{"plain", "Kirkegata 5", 0, "Kirkegata 5"},
		{"collapses whitespace", "  Kirkegata \t 5\n", 0, "Kirkegata 5"},
		{"strips tags", "<b>Storgata</b> 1", 0, "Storgata 1"},
		{"strips encoded tags", "&lt;script&gt;alert(1)&lt;/script&gt;Oslo", 0, "alert(1)Oslo"},
		{"cuts by rune", strings.Repeat("ø", 10), 4, "øøøø"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Text(tt.in, tt.max); got != tt.want {
				t.Fatalf("Text(%q, %d) = %q, want %q", tt.in, tt.max, got, tt.want)
			}
		})
	}
}
