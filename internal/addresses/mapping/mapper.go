// Package mapping converts loosely structured input rows into canonical
// address records.
package mapping

import (
	"errors"

	"avfall_backend/internal/addresses/domain"
	"avfall_backend/internal/addresses/normalize"
)

// ErrBlankRow marks a row whose every cell is empty.
var ErrBlankRow = errors.New("blank row")

// Rejection describes one row that could not be mapped.
type Rejection struct {
	Row    int    `json:"row"`
	Reason string `json:"reason"`
}

// Result is the outcome of mapping a set of rows. Records keep input order.
type Result struct {
	Records      []domain.AddressRecord
	Rejected     []Rejection
	SkippedBlank int
}

// Sample returns up to n leading records.
func (r Result) Sample(n int) []domain.AddressRecord {
	if n > len(r.Records) {
		n = len(r.Records)
	}
	return r.Records[:n]
}

// Mapper applies an alias table to raw rows.
type Mapper struct {
	aliases Aliases
}

// New creates a mapper for aliases.
func New(aliases Aliases) *Mapper {
	return &Mapper{aliases: aliases}
}

// Map maps every row. Row numbers in rejections are 1-based input positions.
func (m *Mapper) Map(rows []map[string]any) Result {
	result := Result{Records: make([]domain.AddressRecord, 0, len(rows))}
	for i, row := range rows {
		record, err := m.MapRow(row)
		switch {
		case errors.Is(err, ErrBlankRow):
			result.SkippedBlank++
		case err != nil:
			result.Rejected = append(result.Rejected, Rejection{Row: i + 1, Reason: err.Error()})
		default:
			result.Records = append(result.Records, record)
		}
	}
	return result
}

// MapRow maps one row, returning ErrBlankRow or a rejection reason.
func (m *Mapper) MapRow(row map[string]any) (domain.AddressRecord, error) {
	if normalize.IsBlank(row) {
		return domain.AddressRecord{}, ErrBlankRow
	}

	idx := normalize.NewIndex(row)
	text := func(field Field) string {
		value, _ := idx.Resolve(m.aliases[field])
		return normalize.TrimText(value)
	}
	raw := func(field Field) any {
		value, _ := idx.Resolve(m.aliases[field])
		return value
	}

	record := domain.AddressRecord{
		Postcode:     normalize.PadPostcode4(raw(FieldPostcode)),
		Place:        text(FieldPlace),
		Street:       text(FieldStreet),
		HouseNumber:  text(FieldHouseNumber),
		FractionCode: normalize.CleanDigits(raw(FieldFractionCode)),
		Weekday:      normalize.ParseWeekday(raw(FieldWeekday)),

		Route:             text(FieldRoute),
		Sequence:          text(FieldSequence),
		Customer:          text(FieldCustomer),
		CustomerName:      text(FieldCustomerName),
		TechnicalLocation: text(FieldTechnicalLocation),
		WeeklyInterval:    text(FieldWeeklyInterval),
		ContainerCount:    text(FieldContainerCount),
		ContainerType:     text(FieldContainerType),
	}

	if err := record.Validate(); err != nil {
		return domain.AddressRecord{}, err
	}

	record.PostcodePrefix3 = normalize.Prefix3(raw(FieldPostcodePrefix3))
	if record.PostcodePrefix3 == "" {
		record.PostcodePrefix3 = record.Postcode[:3]
	}
	record.Key = record.ComputeKey()

	return record, nil
}
