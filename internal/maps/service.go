// Package maps geocodes free-text addresses through Nominatim, pacing
// outbound calls and caching results.
package maps

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"avfall_backend/platform/config"
	"avfall_backend/platform/logger"

	"golang.org/x/time/rate"
)

const (
	requestTimeout = 5 * time.Second
	maxDetailBytes = 200
)

// UpstreamError is a non-2xx answer from Nominatim.
type UpstreamError struct {
	Status int
	Detail string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("Nominatim %d", e.Status)
}

// Service looks up the first Nominatim match for a query.
type Service struct {
	client    *http.Client
	baseURL   string
	country   string
	language  string
	userAgent string
	limiter   *rate.Limiter
	cache     Cache
	ttl       time.Duration
	log       *logger.Logger
}

// NewService creates a geocoder. cache may be nil to disable caching.
func NewService(cfg config.GeocoderConfig, cache Cache, log *logger.Logger) *Service {
	return &Service{
		client:    &http.Client{Timeout: requestTimeout},
		baseURL:   cfg.GetNominatimURL(),
		country:   cfg.GetGeocoderCountry(),
		language:  cfg.GetGeocoderLanguage(),
		userAgent: cfg.GetGeocoderUserAgent(),
		limiter:   rate.NewLimiter(rate.Every(cfg.GetGeocoderInterval()), 1),
		cache:     cache,
		ttl:       cfg.GetGeocoderCacheTTL(),
		log:       log,
	}
}

// Search returns the first match for query, or nil when there is none.
// Cached answers (misses included) skip the pacing gate.
func (s *Service) Search(ctx context.Context, query string) (*Place, error) {
	query = strings.TrimSpace(query)
	key := cacheKey(query)
	log := s.log.WithContext(ctx)

	if s.cache != nil {
		place, ok, err := s.cache.Get(ctx, key)
		if err != nil {
			log.Warn("geocode cache read failed", "error", err)
		} else if ok {
			log.GeocodeEvent(query, true, place != nil)
			return place, nil
		}
	}

	if err := s.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	place, err := s.fetch(ctx, query)
	if err != nil {
		return nil, err
	}
	log.GeocodeEvent(query, false, place != nil)

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, place, s.ttl); err != nil {
			log.Warn("geocode cache write failed", "error", err)
		}
	}

	return place, nil
}

// Locate returns the coordinates of the first match, or nil when there is none.
func (s *Service) Locate(ctx context.Context, query string) (lat, lon float64, found bool, err error) {
	place, err := s.Search(ctx, query)
	if err != nil || place == nil {
		return 0, 0, false, err
	}

	lat, latErr := strconv.ParseFloat(place.Lat, 64)
	lon, lonErr := strconv.ParseFloat(place.Lon, 64)
	if latErr != nil || lonErr != nil {
		return 0, 0, false, nil
	}
	return lat, lon, true, nil
}

func (s *Service) fetch(ctx context.Context, query string) (*Place, error) {
	params := url.Values{}
	params.Add("q", query)
	params.Add("format", "json")
	params.Add("limit", "1")
	params.Add("addressdetails", "1")
	if s.country != "" {
		params.Add("countrycodes", s.country)
	}
	if s.language != "" {
		params.Add("accept-language", s.language)
	}

	reqURL := fmt.Sprintf("%s?%s", s.baseURL, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, err
	}

	req.Header.Set("User-Agent", s.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		s.log.Error("nominatim request failed", "error", err)
		return nil, err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxDetailBytes))
		s.log.Error("nominatim upstream error", "status", resp.StatusCode)
		return nil, &UpstreamError{Status: resp.StatusCode, Detail: string(body)}
	}

	var rawResults []nominatimResponse
	if err := json.NewDecoder(resp.Body).Decode(&rawResults); err != nil {
		s.log.Error("failed to decode nominatim payload", "error", err)
		return nil, err
	}
	if len(rawResults) == 0 {
		return nil, nil
	}

	return buildPlace(rawResults[0]), nil
}

func buildPlace(raw nominatimResponse) *Place {
	place := &Place{
		DisplayName: raw.DisplayName,
		Lat:         raw.Lat,
		Lon:         raw.Lon,
		Address:     raw.Address,
	}
	place.Label = buildLabel(raw)
	return place
}

func pickCity(address PlaceAddress) string {
	if address.City != "" {
		return address.City
	}
	if address.Town != "" {
		return address.Town
	}
	if address.Village != "" {
		return address.Village
	}
	if address.Municipality != "" {
		return address.Municipality
	}
	return address.Hamlet
}

// buildLabel renders "<road> <number>, <postcode> <city>" and falls back to
// the display name when the match is not a street address.
func buildLabel(raw nominatimResponse) string {
	city := pickCity(raw.Address)
	if raw.Address.Road == "" || city == "" {
		return raw.DisplayName
	}

	parts := []string{raw.Address.Road}
	if raw.Address.HouseNumber != "" {
		parts = append(parts, raw.Address.HouseNumber)
	}
	parts = append(parts, ",")
	if raw.Address.Postcode != "" {
		parts = append(parts, raw.Address.Postcode)
	}
	parts = append(parts, city)

	label := strings.Join(parts, " ")
	label = strings.ReplaceAll(label, " ,", ",")
	return strings.TrimSpace(label)
}
