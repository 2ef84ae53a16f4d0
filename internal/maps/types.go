package maps

// GeocodeRequest represents the query parameters of the geocode proxy.
type GeocodeRequest struct {
	Query string `form:"q"`
}

// Place is the first Nominatim match for a query, trimmed to what the map needs.
type Place struct {
	Label       string       `json:"label"`
	DisplayName string       `json:"display_name"`
	Lat         string       `json:"lat"`
	Lon         string       `json:"lon"`
	Address     PlaceAddress `json:"address"`
}

// PlaceAddress is the structured part of a match.
type PlaceAddress struct {
	Road         string `json:"road,omitempty"`
	HouseNumber  string `json:"house_number,omitempty"`
	Postcode     string `json:"postcode,omitempty"`
	City         string `json:"city,omitempty"`
	Town         string `json:"town,omitempty"`
	Village      string `json:"village,omitempty"`
	Municipality string `json:"municipality,omitempty"`
	Hamlet       string `json:"hamlet,omitempty"`
	County       string `json:"county,omitempty"`
}

// GeocodeResponse wraps the match; Item is null when nothing was found.
type GeocodeResponse struct {
	Item *Place `json:"item"`
}

// upstreamErrorResponse mirrors the shape callers of the proxy already parse.
type upstreamErrorResponse struct {
	OK     bool   `json:"ok"`
	Error  string `json:"error"`
	Detail string `json:"detail,omitempty"`
}

// nominatimResponse mirrors the relevant parts of the OSM search payload.
type nominatimResponse struct {
	DisplayName string       `json:"display_name"`
	Lat         string       `json:"lat"`
	Lon         string       `json:"lon"`
	Address     PlaceAddress `json:"address"`
}
