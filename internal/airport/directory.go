package airport

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/yegors/flightfinder/internal/geo"
)

var (
	// ErrDuplicateICAO is returned when two airports share an ICAO code
	ErrDuplicateICAO = errors.New("duplicate airport ICAO code")
	// ErrInvalidCode is returned for airport codes of the wrong shape
	ErrInvalidCode = errors.New("invalid airport code")
)

var (
	icaoPattern = regexp.MustCompile(`^[A-Z0-9]{4}$`)
	iataPattern = regexp.MustCompile(`^[A-Z]{3}$`)
)

// Airport is an immutable airport record
type Airport struct {
	ICAO      string  `json:"icao"`
	IATA      string  `json:"iata,omitempty"`
	Name      string  `json:"name"`
	City      string  `json:"city,omitempty"`
	Country   string  `json:"country,omitempty"`
	Latitude  float64 `json:"lat"`
	Longitude float64 `json:"lon"`
}

// IndexEntry is one searchable key pointing back at an airport
type IndexEntry struct {
	Key  string
	ICAO string
}

// Directory is the airport catalog plus its flattened search index.
// It is never mutated after NewDirectory returns.
type Directory struct {
	airports []Airport
	byICAO   map[string]int
	byIATA   map[string]int
	index    []IndexEntry
}

// NewDirectory validates the catalog and builds the search index. For each airport the
// ICAO code, IATA code, name and city are indexed, lowercased, in that order.
func NewDirectory(airports []Airport) (*Directory, error) {
	d := &Directory{
		airports: make([]Airport, 0, len(airports)),
		byICAO:   make(map[string]int, len(airports)),
		byIATA:   make(map[string]int, len(airports)),
		index:    make([]IndexEntry, 0, len(airports)*4),
	}

	for _, ap := range airports {
		ap.ICAO = strings.ToUpper(strings.TrimSpace(ap.ICAO))
		ap.IATA = strings.ToUpper(strings.TrimSpace(ap.IATA))
		ap.Name = strings.TrimSpace(ap.Name)
		ap.City = strings.TrimSpace(ap.City)

		if !icaoPattern.MatchString(ap.ICAO) {
			return nil, fmt.Errorf("%w: ICAO %q (%s)", ErrInvalidCode, ap.ICAO, ap.Name)
		}
		if ap.IATA != "" && !iataPattern.MatchString(ap.IATA) {
			return nil, fmt.Errorf("%w: IATA %q for %s", ErrInvalidCode, ap.IATA, ap.ICAO)
		}
		if _, exists := d.byICAO[ap.ICAO]; exists {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateICAO, ap.ICAO)
		}

		i := len(d.airports)
		d.byICAO[ap.ICAO] = i
		// First airport wins when an IATA code is reused
		if _, exists := d.byIATA[ap.IATA]; ap.IATA != "" && !exists {
			d.byIATA[ap.IATA] = i
		}
		d.airports = append(d.airports, ap)

		for _, key := range []string{ap.ICAO, ap.IATA, ap.Name, ap.City} {
			if key == "" {
				continue
			}
			d.index = append(d.index, IndexEntry{Key: strings.ToLower(key), ICAO: ap.ICAO})
		}
	}

	return d, nil
}

// Len returns the number of airports
func (d *Directory) Len() int {
	return len(d.airports)
}

// All returns a copy of the catalog in load order
func (d *Directory) All() []Airport {
	out := make([]Airport, len(d.airports))
	copy(out, d.airports)
	return out
}

// Index returns a copy of the flattened search index
func (d *Directory) Index() []IndexEntry {
	out := make([]IndexEntry, len(d.index))
	copy(out, d.index)
	return out
}

// ByICAO looks up an airport by its ICAO code
func (d *Directory) ByICAO(code string) (Airport, bool) {
	i, ok := d.byICAO[strings.ToUpper(strings.TrimSpace(code))]
	if !ok {
		return Airport{}, false
	}
	return d.airports[i], true
}

// ByIATA looks up an airport by its IATA code
func (d *Directory) ByIATA(code string) (Airport, bool) {
	i, ok := d.byIATA[strings.ToUpper(strings.TrimSpace(code))]
	if !ok {
		return Airport{}, false
	}
	return d.airports[i], true
}

// Lookup resolves a 3-letter IATA or 4-character ICAO code
func (d *Directory) Lookup(code string) (Airport, bool) {
	code = strings.ToUpper(strings.TrimSpace(code))
	switch len(code) {
	case 3:
		return d.ByIATA(code)
	case 4:
		return d.ByICAO(code)
	}
	return Airport{}, false
}

// IsKnownCode reports whether code resolves to an airport
func (d *Directory) IsKnownCode(code string) bool {
	_, ok := d.Lookup(code)
	return ok
}

// Distance is an airport paired with its distance from a reference point
type Distance struct {
	Airport    Airport `json:"airport"`
	DistanceKm float64 `json:"distance_km"`
	BearingDeg float64 `json:"bearing_deg"`
}

// Nearest returns up to limit airports ordered by great-circle distance from lat/lon
func (d *Directory) Nearest(lat, lon float64, limit int) []Distance {
	if limit <= 0 {
		limit = DefaultLimit
	}

	all := make([]Distance, 0, len(d.airports))
	for _, ap := range d.airports {
		all = append(all, Distance{
			Airport:    ap,
			DistanceKm: geo.DistanceKm(lat, lon, ap.Latitude, ap.Longitude),
			BearingDeg: geo.BearingDegrees(lat, lon, ap.Latitude, ap.Longitude),
		})
	}

	sort.SliceStable(all, func(i, j int) bool {
		return all[i].DistanceKm < all[j].DistanceKm
	})
	if len(all) > limit {
		all = all[:limit]
	}
	return all
}
