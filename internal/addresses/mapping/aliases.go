package mapping

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Field is a canonical input field.
type Field string

const (
	FieldPostcode          Field = "postcode"
	FieldPostcodePrefix3   Field = "postcodePrefix3"
	FieldPlace             Field = "place"
	FieldStreet            Field = "street"
	FieldHouseNumber       Field = "houseNumber"
	FieldFractionCode      Field = "fractionCode"
	FieldWeekday           Field = "weekday"
	FieldRoute             Field = "route"
	FieldSequence          Field = "sequence"
	FieldCustomer          Field = "customer"
	FieldCustomerName      Field = "customerName"
	FieldTechnicalLocation Field = "technicalLocation"
	FieldWeeklyInterval    Field = "weeklyInterval"
	FieldContainerCount    Field = "containerCount"
	FieldContainerType     Field = "containerType"
)

var knownFields = map[Field]bool{
	FieldPostcode: true, FieldPostcodePrefix3: true, FieldPlace: true, FieldStreet: true,
	FieldHouseNumber: true, FieldFractionCode: true, FieldWeekday: true, FieldRoute: true,
	FieldSequence: true, FieldCustomer: true, FieldCustomerName: true, FieldTechnicalLocation: true,
	FieldWeeklyInterval: true, FieldContainerCount: true, FieldContainerType: true,
}

// Aliases maps each canonical field to its accepted header spellings.
type Aliases map[Field][]string

//go:embed aliases.yaml
var defaultAliasesYAML []byte

// DefaultAliases returns the built-in alias table.
func DefaultAliases() Aliases {
	aliases, err := ParseAliases(defaultAliasesYAML)
	if err != nil {
		panic("mapping: embedded aliases.yaml is invalid: " + err.Error())
	}
	return aliases
}

// ParseAliases decodes a YAML alias table and rejects unknown fields.
func ParseAliases(data []byte) (Aliases, error) {
	var raw map[string][]string
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode aliases: %w", err)
	}

	aliases := make(Aliases, len(raw))
	for name, spellings := range raw {
		field := Field(name)
		if !knownFields[field] {
			return nil, fmt.Errorf("unknown field %q in aliases", name)
		}
		if len(spellings) == 0 {
			return nil, fmt.Errorf("field %q has no spellings", name)
		}
		aliases[field] = spellings
	}
	return aliases, nil
}

// LoadAliases returns the default table with the fields in path replaced.
// An empty path yields the defaults.
func LoadAliases(path string) (Aliases, error) {
	aliases := DefaultAliases()
	if path == "" {
		return aliases, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read aliases file: %w", err)
	}
	overrides, err := ParseAliases(data)
	if err != nil {
		return nil, err
	}
	for field, spellings := range overrides {
		aliases[field] = spellings
	}
	return aliases, nil
}
