package normalize

import (
	"encoding/json"
	"strconv"
	"strings"
	"testing"
)

func TestPadPostcode4(t *testing.T) {
	tests := []struct {
		in   any
		want string
	}{
		{"1", "0001"},
		{"37", "0037"},
		{"372", "0372"},
		{"0372", "0372"},
		{"9999", "9999"},
		{372.0, "0372"},
		{json.Number("372"), "0372"},
		{" 03-72 ", "0372"},
		{"12345", "1234"},
		{"", ""},
		{nil, ""},
		{"abc", ""},
	}

	for _, tt := range tests {
		if got := PadPostcode4(tt.in); got != tt.want {
			t.Fatalf("PadPostcode4(%#v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestPadPostcode4Property(t *testing.T) {
	for n := 0; n < 10000; n++ {
		in := strconv.Itoa(n)
		got := PadPostcode4(in)
		if len(got) != 4 {
			t.Fatalf("PadPostcode4(%q) = %q, want 4 chars", in, got)
		}
		if want := strings.Repeat("0", 4-len(in)) + in; got != want {
			t.Fatalf("PadPostcode4(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestCleanDigitsAndText(t *testing.T) {
	if got := CleanDigits("11-99 01"); got != "119901" {
		t.Fatalf("CleanDigits = %q", got)
	}
	if got := CleanDigits(nil); got != "" {
		t.Fatalf("CleanDigits(nil) = %q", got)
	}
	if got := Text(119901.0); got != "119901" {
		t.Fatalf("Text(float) = %q", got)
	}
	if got := Text(2.5); got != "2.5" {
		t.Fatalf("Text(2.5) = %q", got)
	}
	if got := TrimText("  Kirkegata \t"); got != "Kirkegata" {
		t.Fatalf("TrimText = %q", got)
	}
}

func TestParseWeekday(t *testing.T) {
	tests := []struct {
		in   any
		want int
	}{
		{"3", 3},
		{3.0, 3},
		{" 7 ", 7},
		{"9", 9},
		{"", 0},
		{"man", 0},
		{nil, 0},
		{"99999999999999999999999", 0},
	}

	for _, tt := range tests {
		if got := ParseWeekday(tt.in); got != tt.want {
			t.Fatalf("ParseWeekday(%#v) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestHeaderKeyAndResolveField(t *testing.T) {
	if got := HeaderKey(" Gate/vei "); got != "gatevei" {
		t.Fatalf("HeaderKey = %q", got)
	}
	if got := HeaderKey("Betegnelse tekn. pl."); got != "betegnelseteknpl" {
		t.Fatalf("HeaderKey = %q", got)
	}

	row := map[string]any{
		"POST NR":  "372",
		"gate_vei": "Kirkegata",
		"Sted":     "Oslo",
	}

	if v, ok := ResolveField(row, []string{"Postnummer", "Postnr"}); !ok || v != "372" {
		t.Fatalf("expected Postnr alias to match POST NR, got %v %v", v, ok)
	}
	if v, ok := ResolveField(row, []string{"Gate/vei", "Gate"}); !ok || v != "Kirkegata" {
		t.Fatalf("expected gate_vei to match Gate/vei, got %v %v", v, ok)
	}
	if _, ok := ResolveField(row, []string{"Ukedag", "Dag"}); ok {
		t.Fatal("expected missing field to be unresolved")
	}
}

func TestIsBlank(t *testing.T) {
	if !IsBlank(map[string]any{"Postnummer": "", "Gate": "  ", "Husnr": nil}) {
		t.Fatal("expected whitespace-only row to be blank")
	}
	if IsBlank(map[string]any{"Postnummer": "", "Gate": "Kirkegata"}) {
		t.Fatal("expected row with a street to be non-blank")
	}
}
