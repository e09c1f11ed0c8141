package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yegors/flightfinder/internal/airline"
	"github.com/yegors/flightfinder/internal/airport"
	"github.com/yegors/flightfinder/pkg/logger"
)

func newTestStore(t *testing.T) *ReferenceStore {
	t.Helper()

	store, err := NewReferenceStore(filepath.Join(t.TempDir(), "reference.db"), logger.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

var (
	testAirports = []airport.Airport{
		{ICAO: "KJFK", IATA: "JFK", Name: "John F Kennedy International Airport", City: "New York", Country: "US", Latitude: 40.6398, Longitude: -73.7789},
		{ICAO: "EGLL", IATA: "LHR", Name: "London Heathrow Airport", City: "London", Country: "GB", Latitude: 51.4706, Longitude: -0.461941},
		{ICAO: "CYTZ", Name: "Billy Bishop Toronto City Airport", Latitude: 43.6275, Longitude: -79.3962},
	}
	testAirlines = []airline.Airline{
		{ICAO: "UAL", IATA: "UA", Name: "United Airlines", Country: "United States", Callsign: "UNITED"},
		{ICAO: "BAW", IATA: "BA", Name: "British Airways", Country: "United Kingdom", Callsign: "SPEEDBIRD"},
		{ICAO: "XAX", Name: "No IATA Air"},
	}
)

func TestReferenceStore_RoundTripPreservesOrder(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	builtAt := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, store.SaveCatalog(ctx, testAirports, testAirlines, "embedded", builtAt))

	airports, err := store.LoadAirports(ctx)
	require.NoError(t, err)
	assert.Equal(t, testAirports, airports)

	airlines, err := store.LoadAirlines(ctx)
	require.NoError(t, err)
	assert.Equal(t, testAirlines, airlines)

	info, ok, err := store.Info(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, builtAt, info.BuiltAt)
	assert.Equal(t, "embedded", info.Source)
	assert.Equal(t, 3, info.Airports)
	assert.Equal(t, 3, info.Airlines)
}

func TestReferenceStore_SaveReplacesPreviousSnapshot(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveCatalog(ctx, testAirports, testAirlines, "first", time.Now()))
	require.NoError(t, store.SaveCatalog(ctx, testAirports[:1], testAirlines[:2], "second", time.Now()))

	airports, err := store.LoadAirports(ctx)
	require.NoError(t, err)
	assert.Len(t, airports, 1)

	info, ok, err := store.Info(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "second", info.Source)
	assert.Equal(t, 2, info.Airlines)
}

func TestReferenceStore_DuplicateRollsBack(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveCatalog(ctx, testAirports, testAirlines, "good", time.Now()))

	dupes := append([]airport.Airport{}, testAirports[0], testAirports[0])
	err := store.SaveCatalog(ctx, dupes, testAirlines, "bad", time.Now())
	require.Error(t, err)

	airports, err := store.LoadAirports(ctx)
	require.NoError(t, err)
	assert.Len(t, airports, len(testAirports))
}

func TestReferenceStore_EmptyInfo(t *testing.T) {
	store := newTestStore(t)

	_, ok, err := store.Info(context.Background())
	require.NoError(t, err)
	assert.False(t, ok)

	airports, err := store.LoadAirports(context.Background())
	require.NoError(t, err)
	assert.Empty(t, airports)
}
