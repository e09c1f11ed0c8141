package airport

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Columns read from an OurAirports style airports.csv
const (
	colIdent     = "ident"
	colGPSCode   = "gps_code"
	colIATA      = "iata_code"
	colName      = "name"
	colCity      = "municipality"
	colCountry   = "iso_country"
	colLatitude  = "latitude_deg"
	colLongitude = "longitude_deg"
	colType      = "type"
)

// DecodeCSV parses an OurAirports style CSV. Columns are located by header name so extra
// columns and ordering differences are tolerated. Closed airports, rows without a usable
// 4-character code or coordinates, and repeated codes are skipped.
func DecodeCSV(r io.Reader) ([]Airport, error) {
	reader := csv.NewReader(r)
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}

	cols := make(map[string]int, len(header))
	for i, h := range header {
		cols[strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))] = i
	}

	for _, required := range []string{colIdent, colName, colLatitude, colLongitude} {
		if _, ok := cols[required]; !ok {
			return nil, fmt.Errorf("missing required column: %s", required)
		}
	}

	field := func(record []string, name string) string {
		i, ok := cols[name]
		if !ok || i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}

	airports := make([]Airport, 0)
	seen := make(map[string]bool)
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to parse airports CSV: %w", err)
		}

		if field(record, colType) == "closed" {
			continue
		}

		code := strings.ToUpper(field(record, colGPSCode))
		if !icaoPattern.MatchString(code) {
			code = strings.ToUpper(field(record, colIdent))
		}
		if !icaoPattern.MatchString(code) || seen[code] {
			continue
		}

		lat, latErr := strconv.ParseFloat(field(record, colLatitude), 64)
		lon, lonErr := strconv.ParseFloat(field(record, colLongitude), 64)
		if latErr != nil || lonErr != nil {
			continue
		}

		iata := strings.ToUpper(field(record, colIATA))
		if !iataPattern.MatchString(iata) {
			iata = ""
		}

		seen[code] = true
		airports = append(airports, Airport{
			ICAO:      code,
			IATA:      iata,
			Name:      field(record, colName),
			City:      field(record, colCity),
			Country:   field(record, colCountry),
			Latitude:  lat,
			Longitude: lon,
		})
	}

	return airports, nil
}
