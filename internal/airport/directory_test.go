package airport

import (
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testAirports() []Airport {
	return []Airport{
		{ICAO: "KLAX", IATA: "LAX", Name: "Los Angeles International", City: "Los Angeles", Country: "US", Latitude: 33.9416, Longitude: -118.4085},
		{ICAO: "KJFK", IATA: "JFK", Name: "John F Kennedy International", City: "New York", Country: "US", Latitude: 40.6413, Longitude: -73.7781},
		{ICAO: "KLGA", IATA: "LGA", Name: "LaGuardia", City: "New York", Country: "US", Latitude: 40.7769, Longitude: -73.8740},
		{ICAO: "EGLL", IATA: "LHR", Name: "London Heathrow", City: "London", Country: "GB", Latitude: 51.4700, Longitude: -0.4543},
		{ICAO: "LFPG", IATA: "CDG", Name: "Charles de Gaulle", City: "Paris", Country: "FR", Latitude: 49.0097, Longitude: 2.5479},
		{ICAO: "KEWR", IATA: "EWR", Name: "Newark Liberty International", City: "Newark", Country: "US", Latitude: 40.6895, Longitude: -74.1745},
	}
}

func testDirectory(t *testing.T) *Directory {
	t.Helper()
	d, err := NewDirectory(testAirports())
	require.NoError(t, err)
	return d
}

func TestNewDirectory_IndexOrder(t *testing.T) {
	d := testDirectory(t)
	index := d.Index()

	require.Len(t, index, 4*len(testAirports()))
	assert.Equal(t, IndexEntry{Key: "klax", ICAO: "KLAX"}, index[0])
	assert.Equal(t, IndexEntry{Key: "lax", ICAO: "KLAX"}, index[1])
	assert.Equal(t, IndexEntry{Key: "los angeles international", ICAO: "KLAX"}, index[2])
	assert.Equal(t, IndexEntry{Key: "los angeles", ICAO: "KLAX"}, index[3])
	assert.Equal(t, "kjfk", index[4].Key)
}

func TestNewDirectory_SkipsEmptyKeys(t *testing.T) {
	d, err := NewDirectory([]Airport{{ICAO: "XAAA", Name: "Strip"}})
	require.NoError(t, err)
	assert.Len(t, d.Index(), 2)
}

func TestNewDirectory_RejectsDuplicatesAndBadCodes(t *testing.T) {
	_, err := NewDirectory([]Airport{{ICAO: "KJFK"}, {ICAO: "kjfk"}})
	assert.ErrorIs(t, err, ErrDuplicateICAO)

	_, err = NewDirectory([]Airport{{ICAO: "JFK"}})
	assert.ErrorIs(t, err, ErrInvalidCode)

	_, err = NewDirectory([]Airport{{ICAO: "KJFK", IATA: "JF"}})
	assert.ErrorIs(t, err, ErrInvalidCode)
}

func TestLookup(t *testing.T) {
	d := testDirectory(t)

	ap, ok := d.Lookup("jfk")
	require.True(t, ok)
	assert.Equal(t, "KJFK", ap.ICAO)

	ap, ok = d.Lookup(" egll ")
	require.True(t, ok)
	assert.Equal(t, "LHR", ap.IATA)

	assert.False(t, d.IsKnownCode("ZZZ"))
	assert.False(t, d.IsKnownCode("NEWYORK"))
	assert.True(t, d.IsKnownCode("LAX"))
}

func TestSearch_ExactCodeRanksFirst(t *testing.T) {
	d := testDirectory(t)

	matches := d.SearchScored("jfk", 5, ScanBounded)
	require.NotEmpty(t, matches)
	assert.Equal(t, "KJFK", matches[0].Airport.ICAO)
	assert.Equal(t, ScoreExactCode, matches[0].Score)

	matches = d.SearchScored("KJFK", 5, ScanBounded)
	require.NotEmpty(t, matches)
	assert.Equal(t, ScoreExactCode, matches[0].Score)
}

func TestSearch_PrefixMatchesKeepScanOrder(t *testing.T) {
	d := testDirectory(t)

	matches := d.SearchScored("new", 5, ScanBounded)
	require.Len(t, matches, 3)
	assert.Equal(t, "KJFK", matches[0].Airport.ICAO)
	assert.Equal(t, "KLGA", matches[1].Airport.ICAO)
	assert.Equal(t, "KEWR", matches[2].Airport.ICAO)
	for _, m := range matches {
		assert.Equal(t, ScorePrefix, m.Score)
	}
}

func TestSearch_LongExactKeyScoresAsPrefix(t *testing.T) {
	d := testDirectory(t)

	matches := d.SearchScored("paris", 5, ScanBounded)
	require.Len(t, matches, 1)
	assert.Equal(t, ScorePrefix, matches[0].Score)
}

func TestSearch_Substring(t *testing.T) {
	d := testDirectory(t)

	airports := d.Search("international", 5)
	require.Len(t, airports, 3)
	assert.Equal(t, "KLAX", airports[0].ICAO)
	assert.Equal(t, "KJFK", airports[1].ICAO)
	assert.Equal(t, "KEWR", airports[2].ICAO)
}

func TestSearch_ShortOrEmptyQuery(t *testing.T) {
	d := testDirectory(t)

	assert.Empty(t, d.Search("", 5))
	assert.Empty(t, d.Search("  j  ", 5))
	assert.Empty(t, d.Search("zzzz", 5))
}

func TestSearch_DefaultLimit(t *testing.T) {
	var airports []Airport
	for _, c := range "ABCDEFGH" {
		airports = append(airports, Airport{ICAO: "X" + strings.Repeat(string(c), 3), Name: "Field " + string(c)})
	}
	d, err := NewDirectory(airports)
	require.NoError(t, err)

	assert.Len(t, d.Search("field", 0), DefaultLimit)
	assert.Len(t, d.Search("field", 3), 3)
}

func TestSearch_BoundedScanCanMissLateExactMatch(t *testing.T) {
	d, err := NewDirectory([]Airport{
		{ICAO: "XAAA", Name: "Mewr Field"},
		{ICAO: "XBBB", Name: "Hewr Strip"},
		{ICAO: "KEWR", IATA: "EWR", Name: "Newark Liberty International", City: "Newark"},
	})
	require.NoError(t, err)

	bounded := d.SearchScored("ewr", 1, ScanBounded)
	require.Len(t, bounded, 1)
	assert.Equal(t, "XAAA", bounded[0].Airport.ICAO)

	full := d.SearchScored("ewr", 1, ScanFull)
	require.Len(t, full, 1)
	assert.Equal(t, "KEWR", full[0].Airport.ICAO)
	assert.Equal(t, ScoreExactCode, full[0].Score)
}

func TestSearch_BoundedScanStopsAtCandidateCap(t *testing.T) {
	d, err := NewDirectory([]Airport{
		{ICAO: "XAAA", Name: "Mewr Field"},
		{ICAO: "KEWR", IATA: "EWR", Name: "Newark Liberty International", City: "Newark"},
	})
	require.NoError(t, err)

	// KEWR is collected through its ICAO key and fills the cap, so its exact IATA key
	// is never scanned
	bounded := d.SearchScored("ewr", 1, ScanBounded)
	require.Len(t, bounded, 1)
	assert.Equal(t, "XAAA", bounded[0].Airport.ICAO)
	assert.Equal(t, ScoreSubstring, bounded[0].Score)

	full := d.SearchScored("ewr", 1, ScanFull)
	require.Len(t, full, 1)
	assert.Equal(t, "KEWR", full[0].Airport.ICAO)
}

func TestSearch_HugeLimit(t *testing.T) {
	d := testDirectory(t)

	for _, mode := range []ScanMode{ScanBounded, ScanFull} {
		assert.NotPanics(t, func() {
			matches := d.SearchScored("on", math.MaxInt, mode)
			assert.LessOrEqual(t, len(matches), d.Len())
		})
	}

	empty, err := NewDirectory(nil)
	require.NoError(t, err)
	assert.Empty(t, empty.SearchScored("on", math.MaxInt, ScanBounded))
}

func TestSearch_Deterministic(t *testing.T) {
	d := testDirectory(t)
	first := d.SearchScored("o", 5, ScanBounded)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, d.SearchScored("o", 5, ScanBounded))
	}
	first = d.SearchScored("on", 5, ScanFull)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, d.SearchScored("on", 5, ScanFull))
	}
}

func TestParseScanMode(t *testing.T) {
	m, ok := ParseScanMode("FULL")
	assert.True(t, ok)
	assert.Equal(t, ScanFull, m)

	m, ok = ParseScanMode("")
	assert.True(t, ok)
	assert.Equal(t, ScanBounded, m)

	_, ok = ParseScanMode("sometimes")
	assert.False(t, ok)
}

func TestNearest(t *testing.T) {
	d := testDirectory(t)

	nearest := d.Nearest(40.6413, -73.7781, 3)
	require.Len(t, nearest, 3)
	assert.Equal(t, "KJFK", nearest[0].Airport.ICAO)
	assert.Equal(t, 0.0, nearest[0].DistanceKm)
	assert.Equal(t, "KLGA", nearest[1].Airport.ICAO)
	assert.Equal(t, "KEWR", nearest[2].Airport.ICAO)
	assert.LessOrEqual(t, nearest[1].DistanceKm, nearest[2].DistanceKm)

	assert.Len(t, d.Nearest(0, 0, 0), DefaultLimit)
}

func TestDecodeCSV(t *testing.T) {
	input := strings.Join([]string{
		`"id","ident","type","name","latitude_deg","longitude_deg","iso_country","municipality","gps_code","iata_code"`,
		`1,"KJFK","large_airport","John F Kennedy International Airport",40.639801,-73.7789,"US","New York","KJFK","JFK"`,
		`2,"00A","heliport","Total Rf Heliport",40.07080078125,-74.93360137939453,"US","Bensalem","K00A",""`,
		`3,"XCLS","closed","Closed Field",1,1,"US","Nowhere","XCLS",""`,
		`4,"EGLL","large_airport","London Heathrow Airport",51.4706,-0.461941,"GB","London","EGLL","LHR"`,
		`5,"BAD1","small_airport","Broken",north,west,"US","","",""`,
		`6,"KJFK","small_airport","Duplicate",1,1,"US","","KJFK",""`,
		`7,"ZZZZ","small_airport","Weird IATA",1,2,"US","","","Z1"`,
	}, "\n")

	airports, err := DecodeCSV(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, airports, 4)

	assert.Equal(t, "KJFK", airports[0].ICAO)
	assert.Equal(t, "JFK", airports[0].IATA)
	assert.Equal(t, "New York", airports[0].City)
	assert.InDelta(t, 40.639801, airports[0].Latitude, 1e-9)

	assert.Equal(t, "K00A", airports[1].ICAO, "gps_code preferred over ident")
	assert.Equal(t, "EGLL", airports[2].ICAO)
	assert.Equal(t, "ZZZZ", airports[3].ICAO)
	assert.Empty(t, airports[3].IATA)

	_, err = DecodeCSV(strings.NewReader("foo,bar\n1,2\n"))
	assert.Error(t, err)
}
