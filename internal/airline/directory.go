package airline

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"
)

var (
	// ErrDuplicateICAO is returned when two airlines share an ICAO designator
	ErrDuplicateICAO = errors.New("duplicate airline ICAO code")
	// ErrDuplicateIATA is returned when an IATA designator would map to more than one ICAO code
	ErrDuplicateIATA = errors.New("duplicate airline IATA code")
	// ErrInvalidCode is returned for designators of the wrong shape
	ErrInvalidCode = errors.New("invalid airline code")
)

var (
	icaoPattern = regexp.MustCompile(`^[A-Z]{3}$`)
	iataPattern = regexp.MustCompile(`^[A-Z0-9]{2}$`)

	flightNumberPattern = regexp.MustCompile(`[A-Z]{2,3}(\d+[A-Z]?)`)
	usTailPattern       = regexp.MustCompile(`^N\d`)
	euroTailPattern     = regexp.MustCompile(`^[GDF]-[A-Z]`)
)

// Airline is an operator record keyed by its 3-letter ICAO designator
type Airline struct {
	ICAO     string `json:"icao"`
	IATA     string `json:"iata,omitempty"`
	Name     string `json:"name"`
	Country  string `json:"country,omitempty"`
	Callsign string `json:"callsign,omitempty"` // Radio telephony designator (e.g. "SPEEDBIRD")
}

// Directory is an immutable airline catalog with an IATA->ICAO translation table.
// It is safe for concurrent use once constructed.
type Directory struct {
	airlines []Airline
	byICAO   map[string]int
	iataICAO map[string]string
}

// NewDirectory validates the catalog and builds the lookup tables.
// Airlines keep the order they were supplied in.
func NewDirectory(airlines []Airline) (*Directory, error) {
	d := &Directory{
		airlines: make([]Airline, 0, len(airlines)),
		byICAO:   make(map[string]int, len(airlines)),
		iataICAO: make(map[string]string, len(airlines)),
	}

	for _, a := range airlines {
		a.ICAO = strings.ToUpper(strings.TrimSpace(a.ICAO))
		a.IATA = strings.ToUpper(strings.TrimSpace(a.IATA))
		a.Name = strings.TrimSpace(a.Name)

		if !icaoPattern.MatchString(a.ICAO) {
			return nil, fmt.Errorf("%w: ICAO %q (%s)", ErrInvalidCode, a.ICAO, a.Name)
		}
		if _, exists := d.byICAO[a.ICAO]; exists {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateICAO, a.ICAO)
		}

		if a.IATA != "" {
			if !iataPattern.MatchString(a.IATA) {
				return nil, fmt.Errorf("%w: IATA %q for %s", ErrInvalidCode, a.IATA, a.ICAO)
			}
			if existing, exists := d.iataICAO[a.IATA]; exists {
				return nil, fmt.Errorf("%w: %s maps to both %s and %s", ErrDuplicateIATA, a.IATA, existing, a.ICAO)
			}
			d.iataICAO[a.IATA] = a.ICAO
		}

		d.byICAO[a.ICAO] = len(d.airlines)
		d.airlines = append(d.airlines, a)
	}

	return d, nil
}

// Len returns the number of airlines in the catalog
func (d *Directory) Len() int {
	return len(d.airlines)
}

// All returns a copy of the catalog in load order
func (d *Directory) All() []Airline {
	out := make([]Airline, len(d.airlines))
	copy(out, d.airlines)
	return out
}

// Lookup returns the airline registered under the given ICAO code
func (d *Directory) Lookup(icao string) (Airline, bool) {
	i, ok := d.byICAO[strings.ToUpper(strings.TrimSpace(icao))]
	if !ok {
		return Airline{}, false
	}
	return d.airlines[i], true
}

// IsKnownICAO reports whether code is a registered airline ICAO designator
func (d *Directory) IsKnownICAO(code string) bool {
	_, ok := d.byICAO[strings.ToUpper(code)]
	return ok
}

// ICAOForIATA translates a 2-character IATA airline designator to its ICAO code
func (d *Directory) ICAOForIATA(code string) (string, bool) {
	icao, ok := d.iataICAO[strings.ToUpper(code)]
	return icao, ok
}

func normalizeCallsign(callsign string) string {
	return strings.ToUpper(strings.TrimSpace(callsign))
}

// ExtractAirlineCode returns the first three characters of the callsign when they are a
// registered airline ICAO code
func (d *Directory) ExtractAirlineCode(callsign string) (string, bool) {
	cs := normalizeCallsign(callsign)
	if len(cs) < 3 {
		return "", false
	}
	code := cs[:3]
	if !d.IsKnownICAO(code) {
		return "", false
	}
	return code, true
}

// AirlineFromCallsign resolves the operator of a callsign
func (d *Directory) AirlineFromCallsign(callsign string) (Airline, bool) {
	code, ok := d.ExtractAirlineCode(callsign)
	if !ok {
		return Airline{}, false
	}
	return d.Lookup(code)
}

// ExtractFlightNumber returns the numeric part (plus optional trailing letter) of a callsign
func ExtractFlightNumber(callsign string) (string, bool) {
	m := flightNumberPattern.FindStringSubmatch(normalizeCallsign(callsign))
	if m == nil {
		return "", false
	}
	return m[1], true
}

// ExtractFlightNumber is the method form of the package-level function
func (d *Directory) ExtractFlightNumber(callsign string) (string, bool) {
	return ExtractFlightNumber(callsign)
}

// FormatFlightDisplay renders a callsign as "{Airline} {number}", e.g. "United 123"
func (d *Directory) FormatFlightDisplay(callsign string) string {
	trimmed := strings.TrimSpace(callsign)
	if trimmed == "" {
		return "Unknown"
	}

	al, ok := d.AirlineFromCallsign(trimmed)
	if !ok {
		return trimmed
	}
	number, ok := ExtractFlightNumber(trimmed)
	if !ok {
		return trimmed
	}

	words := strings.Fields(al.Name)
	if len(words) == 0 {
		return trimmed
	}
	return words[0] + " " + number
}

// IsPrivateFlight reports whether a callsign looks like general aviation.
// Anything that is not clearly an airline callsign counts as private.
func (d *Directory) IsPrivateFlight(callsign string) bool {
	cs := normalizeCallsign(callsign)
	if cs == "" {
		return true
	}
	if usTailPattern.MatchString(cs) || euroTailPattern.MatchString(cs) {
		return true
	}
	_, ok := d.ExtractAirlineCode(cs)
	return !ok
}

// Match is an airline search hit
type Match struct {
	Airline Airline `json:"airline"`
	Score   int     `json:"score"`
}

// Search finds airlines by code or name. Exact ICAO/IATA matches score 100, name prefixes
// 50 and name substrings 10. Queries shorter than two characters return nothing.
func (d *Directory) Search(query string, limit int) []Match {
	q := strings.ToLower(strings.TrimSpace(query))
	if utf8.RuneCountInString(q) < 2 {
		return nil
	}
	if limit <= 0 {
		limit = 5
	}

	matches := make([]Match, 0)
	for _, a := range d.airlines {
		name := strings.ToLower(a.Name)
		score := 0
		switch {
		case q == strings.ToLower(a.ICAO) || (a.IATA != "" && q == strings.ToLower(a.IATA)):
			score = 100
		case strings.HasPrefix(name, q):
			score = 50
		case strings.Contains(name, q) || strings.Contains(strings.ToLower(a.Callsign), q):
			score = 10
		}
		if score > 0 {
			matches = append(matches, Match{Airline: a, Score: score})
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})
	if len(matches) > limit {
		matches = matches[:limit]
	}
	return matches
}
