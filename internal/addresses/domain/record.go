// Package domain holds the canonical address-collection record, its dedup key
// and the column set shared by every store implementation.
package domain

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// AddressRecord is one collection fact: a fraction collected on a weekday at
// a street address.
type AddressRecord struct {
	Key             string `json:"key"`
	Postcode        string `json:"postcode"`
	PostcodePrefix3 string `json:"postcodePrefix3"`
	Place           string `json:"place"`
	Street          string `json:"street"`
	HouseNumber     string `json:"houseNumber,omitempty"`
	FractionCode    string `json:"fractionCode"`
	Weekday         int    `json:"weekday"`

	Route             string `json:"route,omitempty"`
	Sequence          string `json:"sequence,omitempty"`
	Customer          string `json:"customer,omitempty"`
	CustomerName      string `json:"customerName,omitempty"`
	TechnicalLocation string `json:"technicalLocation,omitempty"`
	WeeklyInterval    string `json:"weeklyInterval,omitempty"`
	ContainerCount    string `json:"containerCount,omitempty"`
	ContainerType     string `json:"containerType,omitempty"`
}

var keyEscaper = strings.NewReplacer(`\`, `\\`, "|", `\|`)

// DedupKey joins the identifying fields, lower-cased, with "|". A "|" or
// backslash inside a field is escaped with a backslash.
func DedupKey(postcode, place, street, houseNumber, fractionCode string, weekday int) string {
	parts := []string{
		postcode,
		place,
		street,
		houseNumber,
		fractionCode,
		strconv.Itoa(weekday),
	}
	for i, part := range parts {
		parts[i] = keyEscaper.Replace(strings.ToLower(strings.TrimSpace(part)))
	}
	return strings.Join(parts, "|")
}

// ComputeKey recomputes the record's dedup key from its fields.
func (r AddressRecord) ComputeKey() string {
	return DedupKey(r.Postcode, r.Place, r.Street, r.HouseNumber, r.FractionCode, r.Weekday)
}

// Validate reports why the record cannot be stored, or nil.
func (r AddressRecord) Validate() error {
	switch {
	case r.Postcode == "":
		return fmt.Errorf("missing postcode")
	case r.Place == "":
		return fmt.Errorf("missing place")
	case r.Street == "":
		return fmt.Errorf("missing street")
	case r.FractionCode == "":
		return fmt.Errorf("missing fraction code")
	case !ValidWeekday(r.Weekday):
		return fmt.Errorf("weekday %d outside 1-7", r.Weekday)
	}
	return nil
}

// Address renders "<street> <house>, <postcode> <place>" with whitespace
// collapsed. Used for grouping markers and as geocoder input.
func (r AddressRecord) Address() string {
	raw := fmt.Sprintf("%s %s, %s %s", r.Street, r.HouseNumber, r.Postcode, r.Place)
	collapsed := strings.Join(strings.Fields(raw), " ")
	return strings.ReplaceAll(collapsed, " ,", ",")
}

// ValidWeekday reports whether day is an ISO weekday.
func ValidWeekday(day int) bool {
	return day >= 1 && day <= 7
}

var weekdayNames = [...]string{"", "Mandag", "Tirsdag", "Onsdag", "Torsdag", "Fredag", "Lørdag", "Søndag"}

// WeekdayName returns the Norwegian name of an ISO weekday, or "" when out of range.
func WeekdayName(day int) string {
	if !ValidWeekday(day) {
		return ""
	}
	return weekdayNames[day]
}

// WeekdayNames maps days to their names.
func WeekdayNames(days []int) []string {
	names := make([]string, 0, len(days))
	for _, day := range days {
		names = append(names, WeekdayName(day))
	}
	return names
}

// DistinctWeekdays returns the valid weekdays in records, sorted ascending.
func DistinctWeekdays(records []AddressRecord) []int {
	seen := make(map[int]struct{}, 7)
	for _, record := range records {
		if ValidWeekday(record.Weekday) {
			seen[record.Weekday] = struct{}{}
		}
	}
	days := make([]int, 0, len(seen))
	for day := range seen {
		days = append(days, day)
	}
	sort.Ints(days)
	return days
}
