package service

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"avfall_backend/internal/addresses/domain"
	"avfall_backend/internal/addresses/normalize"
	"avfall_backend/internal/addresses/transport"
	"avfall_backend/internal/fractions"
	"avfall_backend/platform/apperr"
	"avfall_backend/platform/logger"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

const (
	// MarkerRows caps how many matches are grouped into markers.
	MarkerRows = 150
	// MaxMarkers caps how many grouped addresses are geocoded.
	MaxMarkers = 5

	countrySuffix = ", Norge"

	msgNoQuery         = "Skriv minst postkode eller adresse."
	msgInvalidPostcode = "Postkode må være 4 siffer (f.eks. 0372)."
	msgNotGeocoded     = "Adressen ble ikke funnet i geokoder."
)

// Geocoder resolves free text to a point. A miss is (nil, nil).
type Geocoder interface {
	Locate(ctx context.Context, query string) (*transport.Point, error)
}

// SearchLogEntry is one recorded lookup.
type SearchLogEntry struct {
	UserID       *uuid.UUID
	Postcode     string
	Place        string
	Address      string
	Fraction     string
	Prefix3      string
	Codes        []string
	ResultsCount int
	Location     *transport.Point
}

// SearchLogger records lookups for analytics.
type SearchLogger interface {
	Record(ctx context.Context, entry SearchLogEntry) error
}

// Lookup answers collection-day queries.
type Lookup struct {
	store     Store
	catalog   *fractions.Catalog
	geocoder  Geocoder
	searchLog SearchLogger
	log       *logger.Logger
}

// NewLookup creates the lookup service. geocoder and searchLog may be nil.
func NewLookup(store Store, catalog *fractions.Catalog, geocoder Geocoder, searchLog SearchLogger, log *logger.Logger) *Lookup {
	return &Lookup{
		store:     store,
		catalog:   catalog,
		geocoder:  geocoder,
		searchLog: searchLog,
		log:       log,
	}
}

// SetGeocoder enables centre points and markers.
func (s *Lookup) SetGeocoder(geocoder Geocoder) {
	s.geocoder = geocoder
}

// SetSearchLogger enables search analytics.
func (s *Lookup) SetSearchLogger(searchLog SearchLogger) {
	s.searchLog = searchLog
}

// query is a resolved lookup request.
type query struct {
	group    fractions.Group
	post4    string
	hasPost  bool
	prefix3  string
	filter   domain.LookupFilter
	runnable bool
}

func (s *Lookup) resolve(req transport.LookupRequest) (query, error) {
	group, err := s.catalog.Resolve(req.Fraction)
	if err != nil {
		return query{}, err
	}

	scope := domain.ScopeExact
	if strings.EqualFold(strings.TrimSpace(req.Scope), string(domain.ScopePrefix)) {
		scope = domain.ScopePrefix
	}

	q := query{group: group}
	digits := normalize.CleanDigits(req.Postcode)
	switch {
	case scope == domain.ScopePrefix && len(digits) == 3:
		// A three digit input is already a prefix and must not be padded.
		q.prefix3 = digits
	default:
		q.post4 = normalize.PadPostcode4(req.Postcode)
		q.hasPost = len(q.post4) == 4 && q.post4 != "0000"
		if q.hasPost {
			q.prefix3 = q.post4[:3]
		} else if len(digits) >= 3 {
			q.prefix3 = digits[:3]
		}
	}

	q.filter = domain.LookupFilter{
		Scope:    scope,
		Postcode: q.post4,
		Prefix3:  q.prefix3,
		Codes:    group.Codes,
		Limit:    domain.MaxLookupRows,
	}
	if scope == domain.ScopePrefix {
		q.runnable = len(q.prefix3) == 3 && q.prefix3 != "000"
	} else {
		q.runnable = q.hasPost
	}

	return q, nil
}

// centreQuery is the free text geocoded for the map centre.
func centreQuery(req transport.LookupRequest, q query) string {
	parts := make([]string, 0, 3)
	if address := strings.TrimSpace(req.Address); address != "" {
		parts = append(parts, address)
	}
	if q.hasPost {
		parts = append(parts, q.post4)
	}
	if place := strings.TrimSpace(req.Place); place != "" {
		parts = append(parts, place)
	}
	return strings.Join(parts, ", ")
}

// Lookup returns the distinct collection weekdays for a postcode (or prefix)
// and fraction group. The map centre is geocoded alongside the store query;
// geocoder trouble only adds a message.
func (s *Lookup) Lookup(ctx context.Context, userID *uuid.UUID, req transport.LookupRequest) (*transport.LookupResponse, error) {
	q, err := s.resolve(req)
	if err != nil {
		return nil, err
	}

	centre := centreQuery(req, q)
	if centre == "" && !q.runnable {
		return nil, apperr.Validation(msgNoQuery)
	}

	var (
		records  []domain.AddressRecord
		location *transport.Point
		messages []string
		geoMsg   string
	)

	g, gctx := errgroup.WithContext(ctx)
	if q.runnable {
		g.Go(func() error {
			found, err := s.store.FindCollections(gctx, q.filter)
			if err != nil {
				return err
			}
			records = found
			return nil
		})
	}
	if centre != "" && s.geocoder != nil {
		g.Go(func() error {
			point, err := s.geocoder.Locate(gctx, centre+countrySuffix)
			switch {
			case err != nil:
				geoMsg = fmt.Sprintf("Geokoding feilet: %v", err)
			case point == nil:
				geoMsg = msgNotGeocoded
			default:
				location = point
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "DB error: "+err.Error(), err).WithOp("addresses.Lookup")
	}

	if geoMsg != "" {
		messages = append(messages, geoMsg)
	}
	if !q.runnable {
		messages = append(messages, msgInvalidPostcode)
	}

	weekdays := domain.DistinctWeekdays(records)
	names := domain.WeekdayNames(weekdays)

	resp := &transport.LookupResponse{
		OK:            true,
		Prefix3:       q.prefix3,
		Scope:         string(q.filter.Scope),
		Fraction:      q.group.Code,
		FractionLabel: q.group.Label,
		Count:         len(records),
		Weekdays:      weekdays,
		WeekdayNames:  names,
		Summary:       summary(q.group.Label, names),
		Location:      location,
		Message:       strings.Join(messages, " "),
	}
	if q.hasPost {
		resp.Postcode = q.post4
	}

	s.record(ctx, userID, req, q, len(records), location)
	return resp, nil
}

func summary(label string, names []string) string {
	if len(names) == 0 {
		return label + " i området: ingen ukedager funnet."
	}
	return label + " i området kan tømmes " + strings.Join(names, " / ")
}

func (s *Lookup) record(ctx context.Context, userID *uuid.UUID, req transport.LookupRequest, q query, count int, location *transport.Point) {
	if s.searchLog == nil {
		return
	}

	postcode := strings.TrimSpace(req.Postcode)
	if q.hasPost {
		postcode = q.post4
	}

	entry := SearchLogEntry{
		UserID:       userID,
		Postcode:     postcode,
		Place:        strings.TrimSpace(req.Place),
		Address:      strings.TrimSpace(req.Address),
		Fraction:     q.group.Code,
		Prefix3:      q.prefix3,
		Codes:        q.group.Codes,
		ResultsCount: count,
		Location:     location,
	}
	if err := s.searchLog.Record(ctx, entry); err != nil {
		s.log.WithContext(ctx).Warn("search log insert failed", slog.String("error", err.Error()))
	}
}

// addressGroup is one rendered address and the weekdays collected there.
type addressGroup struct {
	address string
	days    map[int]struct{}
}

func (a addressGroup) weekdays() []int {
	days := make([]int, 0, len(a.days))
	for day := range a.days {
		days = append(days, day)
	}
	sort.Ints(days)
	return days
}

// groupByAddress groups records by rendered address in first-seen order.
func groupByAddress(records []domain.AddressRecord) []addressGroup {
	groups := make([]addressGroup, 0)
	index := make(map[string]int)
	for _, record := range records {
		address := record.Address()
		i, ok := index[address]
		if !ok {
			i = len(groups)
			index[address] = i
			groups = append(groups, addressGroup{address: address, days: make(map[int]struct{})})
		}
		if domain.ValidWeekday(record.Weekday) {
			groups[i].days[record.Weekday] = struct{}{}
		}
	}
	return groups
}

// Markers geocodes up to MaxMarkers addresses among the first MarkerRows
// matches. Addresses the geocoder cannot place are skipped.
func (s *Lookup) Markers(ctx context.Context, req transport.LookupRequest) (*transport.MarkersResponse, error) {
	q, err := s.resolve(req)
	if err != nil {
		return nil, err
	}
	if !q.runnable {
		return nil, apperr.Validation(msgInvalidPostcode)
	}

	filter := q.filter
	filter.Limit = MarkerRows
	records, err := s.store.FindCollections(ctx, filter)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "DB error: "+err.Error(), err).WithOp("addresses.Markers")
	}

	groups := groupByAddress(records)
	if len(groups) > MaxMarkers {
		groups = groups[:MaxMarkers]
	}

	resp := &transport.MarkersResponse{OK: true, Markers: make([]transport.Marker, 0, len(groups)), Tried: len(groups)}
	if s.geocoder == nil {
		return resp, nil
	}

	log := s.log.WithContext(ctx)
	for _, group := range groups {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		point, err := s.geocoder.Locate(ctx, group.address+countrySuffix)
		if err != nil {
			log.Debug("marker geocode failed", slog.String("address", group.address), slog.String("error", err.Error()))
			continue
		}
		if point == nil {
			continue
		}
		days := group.weekdays()
		resp.Markers = append(resp.Markers, transport.Marker{
			Address:      group.address,
			Weekdays:     days,
			WeekdayNames: domain.WeekdayNames(days),
			Lat:          point.Lat,
			Lon:          point.Lon,
		})
	}
	resp.Plotted = len(resp.Markers)

	return resp, nil
}

// FractionGroups lists the selectable fraction groups.
func (s *Lookup) FractionGroups() transport.FractionGroupsResponse {
	groups := s.catalog.Groups()
	resp := transport.FractionGroupsResponse{OK: true, Groups: make([]transport.FractionGroup, 0, len(groups))}
	for _, group := range groups {
		resp.Groups = append(resp.Groups, transport.FractionGroup{Code: group.Code, Label: group.Label})
	}
	return resp
}
