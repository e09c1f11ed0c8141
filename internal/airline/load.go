package airline

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

// Record represents an airline entry in the airlines.json file
type Record struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Alias    string `json:"alias"`
	IATA     string `json:"iata"`
	ICAO     string `json:"icao"`
	Callsign string `json:"callsign"`
	Country  string `json:"country"`
	Active   string `json:"active"`
}

// placeholder values used by the upstream data set for "no code"
func isPlaceholder(s string) bool {
	switch strings.TrimSpace(s) {
	case "", "-", "N/A", `\N`:
		return true
	}
	return false
}

// DecodeJSON reads an airlines.json array. Inactive airlines and rows without an ICAO
// designator are skipped.
func DecodeJSON(r io.Reader) ([]Airline, error) {
	var records []Record
	if err := json.NewDecoder(r).Decode(&records); err != nil {
		return nil, fmt.Errorf("failed to parse airline data: %w", err)
	}

	airlines := make([]Airline, 0, len(records))
	for _, rec := range records {
		if isPlaceholder(rec.ICAO) || strings.EqualFold(rec.Active, "N") {
			continue
		}

		al := Airline{
			ICAO:     rec.ICAO,
			Name:     rec.Name,
			Country:  rec.Country,
			Callsign: rec.Callsign,
		}
		if !isPlaceholder(rec.IATA) {
			al.IATA = rec.IATA
		}
		airlines = append(airlines, al)
	}

	return airlines, nil
}
