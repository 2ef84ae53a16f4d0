// Package normalize turns raw spreadsheet and JSON cell values into canonical
// address fields. Every function is pure and total: bad input yields the zero
// value, and callers decide whether that rejects the row.
package normalize

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// Text renders a raw cell value as a string. JSON numbers and spreadsheet
// numerics arrive as float64; whole values render without a fraction so that
// 372 and "372" normalize identically.
func Text(v any) string {
	switch value := v.(type) {
	case nil:
		return ""
	case string:
		return value
	case float64:
		return strconv.FormatFloat(value, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(value), 'f', -1, 32)
	case int:
		return strconv.Itoa(value)
	case int64:
		return strconv.FormatInt(value, 10)
	case json.Number:
		return value.String()
	case bool:
		return strconv.FormatBool(value)
	case fmt.Stringer:
		return value.String()
	default:
		return fmt.Sprint(value)
	}
}

// TrimText coerces v to a string and trims surrounding whitespace.
func TrimText(v any) string {
	return strings.TrimSpace(Text(v))
}

// CleanDigits strips every non-digit character.
func CleanDigits(v any) string {
	text := Text(v)
	var b strings.Builder
	b.Grow(len(text))
	for _, r := range text {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// PadPostcode4 returns the first four digits of v, left-padded with zeros.
// Input without digits yields "" rather than "0000".
func PadPostcode4(v any) string {
	digits := CleanDigits(v)
	if digits == "" {
		return ""
	}
	if len(digits) < 4 {
		digits = strings.Repeat("0", 4-len(digits)) + digits
	}
	return digits[:4]
}

// Prefix3 returns the first three digits of v, without padding.
func Prefix3(v any) string {
	digits := CleanDigits(v)
	if len(digits) > 3 {
		return digits[:3]
	}
	return digits
}

// ParseWeekday returns the ISO weekday in v, or 0 when v holds no number.
// Range checking is left to the caller.
func ParseWeekday(v any) int {
	digits := CleanDigits(v)
	if digits == "" {
		return 0
	}
	day, err := strconv.Atoi(digits)
	if err != nil {
		return 0
	}
	return day
}

// HeaderKey folds a column header for comparison: lower case, with
// whitespace and the separators . _ - / removed.
func HeaderKey(name string) string {
	var b strings.Builder
	b.Grow(len(name))
	for _, r := range strings.ToLower(name) {
		if unicode.IsSpace(r) {
			continue
		}
		switch r {
		case '.', '_', '-', '/':
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// ResolveField returns the value of the first candidate header present in
// row, comparing headers with HeaderKey.
func ResolveField(row map[string]any, candidates []string) (any, bool) {
	return NewIndex(row).Resolve(candidates)
}

// Index pre-folds the headers of one row so several fields can be resolved
// without re-folding.
type Index struct {
	row    map[string]any
	folded map[string]string
}

// NewIndex folds the headers of row. When two headers fold to the same key
// the lexically smaller one wins so resolution is deterministic.
func NewIndex(row map[string]any) Index {
	folded := make(map[string]string, len(row))
	for key := range row {
		hk := HeaderKey(key)
		if existing, seen := folded[hk]; !seen || key < existing {
			folded[hk] = key
		}
	}
	return Index{row: row, folded: folded}
}

// Resolve returns the value of the first candidate header present.
func (i Index) Resolve(candidates []string) (any, bool) {
	for _, candidate := range candidates {
		if key, ok := i.folded[HeaderKey(candidate)]; ok {
			return i.row[key], true
		}
	}
	return nil, false
}

// IsBlank reports whether every value in row is empty after trimming.
func IsBlank(row map[string]any) bool {
	for _, value := range row {
		if TrimText(value) != "" {
			return false
		}
	}
	return true
}
