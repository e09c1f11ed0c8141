package query

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

var (
	// 2 alphanumerics (IATA, admits codes such as 5X) or 3 letters (ICAO), then 1-4 digits
	flightNumberPattern = regexp.MustCompile(`^([A-Z0-9]{2}|[A-Z]{3})[ -]?(\d{1,4})$`)

	nearMePattern       = regexp.MustCompile(`(?i)^(?:flights?\s+)?near\s+me$`)
	nearLocationPattern = regexp.MustCompile(`(?i)^(?:flights?\s+)?(?:near|around|close\s+to)\s+(.+)$`)

	routePattern = regexp.MustCompile(`(?i)^([a-z]{3,4})(?:\s+to\s+|\s*(?:→|->|-)\s*|\s+)([a-z]{3,4})$`)

	aircraftTypePattern = regexp.MustCompile(`(?i)^[a-z]{1,3}\d{1,3}[a-z0-9]?$`)
)

// minRouteLength keeps a lone airport code from being read as a route
const minRouteLength = 5

// AirlineCodes is the airline reference data the flight number rule needs
type AirlineCodes interface {
	IsKnownICAO(code string) bool
	ICAOForIATA(code string) (string, bool)
}

// AirportCodes resolves airport codes for route validation
type AirportCodes interface {
	IsKnownCode(code string) bool
}

// Classifier turns raw search box input into exactly one Intent.
// It holds only immutable reference data and is safe for concurrent use.
type Classifier struct {
	airlines AirlineCodes
	airports AirportCodes
}

// Option configures a Classifier
type Option func(*Classifier)

// WithRouteValidation makes Classify accept a route only when both codes are known
// airports. ParseRouteQuery stays purely syntactic.
func WithRouteValidation(airports AirportCodes) Option {
	return func(c *Classifier) {
		c.airports = airports
	}
}

// NewClassifier creates a classifier backed by the given airline codes
func NewClassifier(airlines AirlineCodes, opts ...Option) *Classifier {
	c := &Classifier{airlines: airlines}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Classify applies the rules in priority order and returns the first match:
// flight number, near me, near location, route, aircraft type, free text.
// A string such as "UA123" that is both a flight number and an aircraft type
// designator is always a flight number.
func (c *Classifier) Classify(raw string) Intent {
	input := strings.TrimSpace(raw)

	if fn, ok := c.ParseFlightNumberIntent(input); ok {
		return fn
	}
	if g, ok := ParseGeoQuery(input); ok {
		return g
	}
	if r, ok := ParseRouteQuery(input); ok && c.routeKnown(r) {
		return r
	}
	if IsAircraftTypeQuery(input) {
		return AircraftType{TypeCode: strings.ToUpper(input)}
	}
	return FreeText{Raw: input}
}

func (c *Classifier) routeKnown(r Route) bool {
	if c.airports == nil {
		return true
	}
	return c.airports.IsKnownCode(r.Origin) && c.airports.IsKnownCode(r.Destination)
}

// ParseFlightNumber returns the canonical ICAO callsign ("UAL123") for inputs like
// "UA123", "ua 123", "UA-123" or "UAL123"
func (c *Classifier) ParseFlightNumber(raw string) (string, bool) {
	fn, ok := c.ParseFlightNumberIntent(raw)
	if !ok {
		return "", false
	}
	return fn.Callsign(), true
}

// ParseFlightNumberIntent is ParseFlightNumber returning the structured intent
func (c *Classifier) ParseFlightNumberIntent(raw string) (FlightNumber, bool) {
	if c.airlines == nil {
		return FlightNumber{}, false
	}

	m := flightNumberPattern.FindStringSubmatch(strings.ToUpper(strings.TrimSpace(raw)))
	if m == nil {
		return FlightNumber{}, false
	}
	code, digits := m[1], m[2]

	if len(code) == 3 {
		if !c.airlines.IsKnownICAO(code) {
			return FlightNumber{}, false
		}
		return FlightNumber{ICAOPrefix: code, Digits: digits}, true
	}

	icao, ok := c.airlines.ICAOForIATA(code)
	if !ok {
		return FlightNumber{}, false
	}
	return FlightNumber{ICAOPrefix: icao, Digits: digits}, true
}

// ParseGeoQuery recognises "near me" style queries (GeoNearMe) and "near <place>",
// "around <place>", "close to <place>" (GeoNearLocation, place case preserved)
func ParseGeoQuery(raw string) (Intent, bool) {
	input := strings.TrimSpace(raw)

	if nearMePattern.MatchString(input) {
		return GeoNearMe{}, true
	}

	m := nearLocationPattern.FindStringSubmatch(input)
	if m == nil {
		return nil, false
	}
	location := strings.TrimSpace(m[1])
	if location == "" {
		return nil, false
	}
	return GeoNearLocation{Location: location}, true
}

// ParseRouteQuery recognises two 3-4 letter codes joined by "to", an arrow, a dash or
// whitespace, e.g. "JFK to LAX", "JFK→LAX", "jfk-lax", "JFK LAX"
func ParseRouteQuery(raw string) (Route, bool) {
	input := strings.TrimSpace(raw)
	if utf8.RuneCountInString(input) < minRouteLength {
		return Route{}, false
	}

	m := routePattern.FindStringSubmatch(input)
	if m == nil {
		return Route{}, false
	}
	return Route{
		Origin:      strings.ToUpper(m[1]),
		Destination: strings.ToUpper(m[2]),
	}, true
}

// IsAircraftTypeQuery reports whether raw looks like an aircraft type designator:
// 1-3 letters, 1-3 digits and an optional trailing letter or digit (B737, A320, C172S)
func IsAircraftTypeQuery(raw string) bool {
	return aircraftTypePattern.MatchString(strings.TrimSpace(raw))
}
