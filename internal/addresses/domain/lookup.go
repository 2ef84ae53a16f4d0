package domain

// MaxLookupRows caps a single collection query.
const MaxLookupRows = 5000

// Scope selects how a lookup matches postcodes.
type Scope string

const (
	ScopeExact  Scope = "exact"
	ScopePrefix Scope = "prefix"
)

// LookupFilter selects collection rows for one postcode (or postcode prefix)
// and a set of fraction codes.
type LookupFilter struct {
	Scope    Scope
	Postcode string
	Prefix3  string
	Codes    []string
	Limit    int
}

// EffectiveLimit clamps Limit to (0, MaxLookupRows].
func (f LookupFilter) EffectiveLimit() int {
	if f.Limit <= 0 || f.Limit > MaxLookupRows {
		return MaxLookupRows
	}
	return f.Limit
}
