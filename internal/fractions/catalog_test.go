package fractions

import (
	"reflect"
	"testing"

	"avfall_backend/platform/apperr"
)

func TestDefaultCatalog(t *testing.T) {
	catalog := Default()

	group, err := catalog.Resolve("rest")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	want := []string{"119901", "119911", "119912", "119902", "119903"}
	if !reflect.DeepEqual(group.Codes, want) {
		t.Fatalf("unexpected REST codes %v", group.Codes)
	}
	if len(catalog.Groups()) != 7 {
		t.Fatalf("expected 7 groups, got %d", len(catalog.Groups()))
	}
}

func TestResolveRejectsUnknownGroups(t *testing.T) {
	catalog := Default()

	for _, code := range []string{"", "  ", "HAGEAVFALL"} {
		if _, err := catalog.Resolve(code); !apperr.Is(err, apperr.KindValidation) {
			t.Fatalf("expected validation error for %q, got %v", code, err)
		}
	}
}

func TestParseRejectsInvalidCatalogs(t *testing.T) {
	cases := map[string]string{
		"no codes":  "groups:\n  - code: MAT\n    label: Mat\n",
		"duplicate": "groups:\n  - code: MAT\n    codes: [\"1\"]\n  - code: mat\n    codes: [\"2\"]\n",
		"no code":   "groups:\n  - label: Mat\n    codes: [\"1\"]\n",
	}
	for name, data := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := Parse([]byte(data)); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}
