// Package fractions maps the waste fraction groups shown to users onto the
// fraction codes stored on address rows.
package fractions

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"avfall_backend/platform/apperr"

	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var defaultCatalogYAML []byte

// Group is one selectable fraction category.
type Group struct {
	Code  string   `yaml:"code" json:"code"`
	Label string   `yaml:"label" json:"label"`
	Codes []string `yaml:"codes" json:"codes"`
}

// Catalog resolves group codes. It is read-only after construction.
type Catalog struct {
	groups []Group
	byCode map[string]Group
}

type catalogFile struct {
	Groups []Group `yaml:"groups"`
}

// Default returns the built-in catalog.
func Default() *Catalog {
	catalog, err := Parse(defaultCatalogYAML)
	if err != nil {
		panic("fractions: embedded catalog.yaml is invalid: " + err.Error())
	}
	return catalog
}

// Load reads a catalog file, or returns the default when path is empty.
func Load(path string) (*Catalog, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fractions file: %w", err)
	}
	return Parse(data)
}

// Parse decodes a YAML catalog. Group codes are matched case-insensitively
// and must be unique; every group needs at least one fraction code.
func Parse(data []byte) (*Catalog, error) {
	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("decode fractions: %w", err)
	}

	catalog := &Catalog{byCode: make(map[string]Group, len(file.Groups))}
	for _, group := range file.Groups {
		key := strings.ToUpper(strings.TrimSpace(group.Code))
		if key == "" {
			return nil, fmt.Errorf("fraction group without code")
		}
		if _, dup := catalog.byCode[key]; dup {
			return nil, fmt.Errorf("duplicate fraction group %q", key)
		}
		if len(group.Codes) == 0 {
			return nil, fmt.Errorf("fraction group %q has no codes", key)
		}
		group.Code = key
		catalog.byCode[key] = group
		catalog.groups = append(catalog.groups, group)
	}
	return catalog, nil
}

// Resolve returns the group for code. An empty or unknown code is a
// validation error.
func (c *Catalog) Resolve(code string) (Group, error) {
	key := strings.ToUpper(strings.TrimSpace(code))
	if key == "" {
		return Group{}, apperr.Validation("Velg fraksjon først.")
	}
	group, ok := c.byCode[key]
	if !ok {
		return Group{}, apperr.Validation(fmt.Sprintf("Ukjent fraksjon %q.", code))
	}
	return group, nil
}

// Groups lists the groups in file order.
func (c *Catalog) Groups() []Group {
	out := make([]Group, len(c.groups))
	copy(out, c.groups)
	return out
}
