package domain

import (
	"fmt"
	"strings"
)

// Column names a column of the address table.
type Column string

const (
	ColumnDedupKey          Column = "dedup_key"
	ColumnPostcode          Column = "postcode"
	ColumnPostcodePrefix3   Column = "postcode_prefix3"
	ColumnPlace             Column = "place"
	ColumnStreet            Column = "street"
	ColumnHouseNumber       Column = "house_number"
	ColumnFractionCode      Column = "fraction_code"
	ColumnWeekday           Column = "weekday"
	ColumnRoute             Column = "route"
	ColumnSequence          Column = "sequence"
	ColumnCustomer          Column = "customer"
	ColumnCustomerName      Column = "customer_name"
	ColumnTechnicalLocation Column = "technical_location"
	ColumnWeeklyInterval    Column = "weekly_interval"
	ColumnContainerCount    Column = "container_count"
	ColumnContainerType     Column = "container_type"
)

// WriteColumns lists every column an upsert writes, in statement order.
var WriteColumns = []Column{
	ColumnDedupKey,
	ColumnPostcode,
	ColumnPostcodePrefix3,
	ColumnPlace,
	ColumnStreet,
	ColumnHouseNumber,
	ColumnFractionCode,
	ColumnWeekday,
	ColumnRoute,
	ColumnSequence,
	ColumnCustomer,
	ColumnCustomerName,
	ColumnTechnicalLocation,
	ColumnWeeklyInterval,
	ColumnContainerCount,
	ColumnContainerType,
}

// IsOptional reports whether the column may be dropped from an upsert when
// the target table lacks it.
func (c Column) IsOptional() bool {
	switch c {
	case ColumnDedupKey, ColumnPostcode, ColumnPlace, ColumnStreet,
		ColumnHouseNumber, ColumnFractionCode, ColumnWeekday:
		return false
	}
	return true
}

// ParseColumn matches name against the known write columns.
func ParseColumn(name string) (Column, bool) {
	name = strings.Trim(strings.TrimSpace(name), `"`)
	for _, col := range WriteColumns {
		if string(col) == name {
			return col, true
		}
	}
	return "", false
}

// Value returns the record's value for col. Empty optional text is nil so it
// is stored as NULL.
func (r AddressRecord) Value(col Column) any {
	switch col {
	case ColumnDedupKey:
		return r.Key
	case ColumnPostcode:
		return r.Postcode
	case ColumnPostcodePrefix3:
		return nullable(r.PostcodePrefix3)
	case ColumnPlace:
		return r.Place
	case ColumnStreet:
		return r.Street
	case ColumnHouseNumber:
		return nullable(r.HouseNumber)
	case ColumnFractionCode:
		return r.FractionCode
	case ColumnWeekday:
		return r.Weekday
	case ColumnRoute:
		return nullable(r.Route)
	case ColumnSequence:
		return nullable(r.Sequence)
	case ColumnCustomer:
		return nullable(r.Customer)
	case ColumnCustomerName:
		return nullable(r.CustomerName)
	case ColumnTechnicalLocation:
		return nullable(r.TechnicalLocation)
	case ColumnWeeklyInterval:
		return nullable(r.WeeklyInterval)
	case ColumnContainerCount:
		return nullable(r.ContainerCount)
	case ColumnContainerType:
		return nullable(r.ContainerType)
	}
	return nil
}

func nullable(value string) any {
	if value == "" {
		return nil
	}
	return value
}

// MissingColumnError is returned by a store when the target table has no
// column for a value the upsert tried to write.
type MissingColumnError struct {
	Column Column
	Err    error
}

func (e *MissingColumnError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("column %q does not exist: %v", e.Column, e.Err)
	}
	return fmt.Sprintf("column %q does not exist", e.Column)
}

func (e *MissingColumnError) Unwrap() error {
	return e.Err
}
