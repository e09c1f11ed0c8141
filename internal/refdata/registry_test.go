package refdata

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/klauspost/compress/zstd"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yegors/flightfinder/internal/airline"
	"github.com/yegors/flightfinder/internal/airport"
	"github.com/yegors/flightfinder/internal/config"
	"github.com/yegors/flightfinder/internal/storage/sqlite"
	"github.com/yegors/flightfinder/pkg/logger"
)

func nopLogger() *logger.Logger {
	return logger.NewNop()
}

var loadTime = time.Date(2025, 6, 1, 8, 30, 0, 0, time.UTC)

func TestLoad_Embedded(t *testing.T) {
	clock := clockwork.NewFakeClockAt(loadTime)

	reg, err := Load(context.Background(), config.ReferenceConfig{Source: config.SourceEmbedded}, clock, nopLogger())
	require.NoError(t, err)

	assert.Equal(t, config.SourceEmbedded, reg.Source)
	assert.Equal(t, loadTime, reg.LoadedAt)
	assert.Greater(t, reg.Airports.Len(), 50)
	assert.Greater(t, reg.Airlines.Len(), 40)

	jfk, ok := reg.Airports.Lookup("JFK")
	require.True(t, ok)
	assert.Equal(t, "KJFK", jfk.ICAO)

	// Closed airports are not loaded
	_, ok = reg.Airports.ByICAO("KFLP")
	assert.False(t, ok)

	icao, ok := reg.Airlines.ICAOForIATA("5X")
	require.True(t, ok)
	assert.Equal(t, "UPS", icao)

	// Inactive airlines and rows without an ICAO code are not loaded
	assert.False(t, reg.Airlines.IsKnownICAO("PAA"))
	_, ok = reg.Airlines.ICAOForIATA("W9")
	assert.False(t, ok)

	// NetJets has no IATA code
	ej, ok := reg.Airlines.Lookup("EJA")
	require.True(t, ok)
	assert.Empty(t, ej.IATA)
}

func TestLoad_EmbeddedJFKRanksFirst(t *testing.T) {
	reg, err := Load(context.Background(), config.ReferenceConfig{}, clockwork.NewFakeClock(), nopLogger())
	require.NoError(t, err)

	results := reg.Airports.Search("jfk", 5)
	require.NotEmpty(t, results)
	assert.Equal(t, "KJFK", results[0].ICAO)
}

func writeZstd(t *testing.T, path string, data []byte) {
	t.Helper()

	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	zw, err := zstd.NewWriter(f)
	require.NoError(t, err)
	_, err = zw.Write(data)
	require.NoError(t, err)
	require.NoError(t, zw.Close())
}

func TestLoad_Files(t *testing.T) {
	dir := t.TempDir()
	airportsPath := filepath.Join(dir, "airports.csv.zst")
	airlinesPath := filepath.Join(dir, "airlines.json")

	writeZstd(t, airportsPath, []byte(
		"ident,type,name,latitude_deg,longitude_deg,iso_country,municipality,gps_code,iata_code\n"+
			"EGLL,large_airport,London Heathrow Airport,51.4706,-0.461941,GB,London,EGLL,LHR\n"+
			"LFPG,large_airport,Charles de Gaulle International Airport,49.012798,2.55,FR,Paris,LFPG,CDG\n"))
	require.NoError(t, os.WriteFile(airlinesPath, []byte(
		`[{"name":"British Airways","iata":"BA","icao":"BAW","callsign":"SPEEDBIRD","country":"United Kingdom","active":"Y"}]`), 0o644))

	reg, err := Load(context.Background(), config.ReferenceConfig{
		Source:         config.SourceFiles,
		AirportsDBPath: airportsPath,
		AirlinesDBPath: airlinesPath,
	}, clockwork.NewFakeClock(), nopLogger())
	require.NoError(t, err)

	assert.Equal(t, 2, reg.Airports.Len())
	assert.Equal(t, 1, reg.Airlines.Len())
	assert.True(t, reg.Airports.IsKnownCode("CDG"))
}

func TestLoad_FilesMissing(t *testing.T) {
	_, err := Load(context.Background(), config.ReferenceConfig{
		Source:         config.SourceFiles,
		AirportsDBPath: filepath.Join(t.TempDir(), "missing.csv"),
		AirlinesDBPath: filepath.Join(t.TempDir(), "missing.json"),
	}, clockwork.NewFakeClock(), nopLogger())
	require.Error(t, err)
	assert.ErrorContains(t, err, "failed to load reference data")
}

func TestLoad_SQLite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ref.db")

	store, err := sqlite.NewReferenceStore(path, nopLogger())
	require.NoError(t, err)
	require.NoError(t, store.SaveCatalog(context.Background(),
		[]airport.Airport{{ICAO: "KSFO", IATA: "SFO", Name: "San Francisco International Airport", City: "San Francisco", Latitude: 37.62, Longitude: -122.37}},
		[]airline.Airline{{ICAO: "UAL", IATA: "UA", Name: "United Airlines"}},
		"test", loadTime))
	require.NoError(t, store.Close())

	reg, err := Load(context.Background(), config.ReferenceConfig{Source: config.SourceSQLite, SQLitePath: path},
		clockwork.NewFakeClock(), nopLogger())
	require.NoError(t, err)

	assert.Equal(t, config.SourceSQLite, reg.Source)
	assert.True(t, reg.Airports.IsKnownCode("KSFO"))
	icao, ok := reg.Airlines.ICAOForIATA("UA")
	assert.True(t, ok)
	assert.Equal(t, "UAL", icao)
}

func TestLoad_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Load(ctx, config.ReferenceConfig{
		Source:         config.SourceFiles,
		AirportsDBPath: "unused.csv",
		AirlinesDBPath: "unused.json",
	}, clockwork.NewFakeClock(), nopLogger())
	require.ErrorIs(t, err, context.Canceled)
}

func TestLoad_UnknownSource(t *testing.T) {
	_, err := Load(context.Background(), config.ReferenceConfig{Source: "ftp"}, clockwork.NewFakeClock(), nopLogger())
	assert.ErrorContains(t, err, "unknown reference source")
}

func TestNew_DuplicateIATA(t *testing.T) {
	_, err := New(nil, []airline.Airline{
		{ICAO: "AAA", IATA: "ZZ", Name: "First"},
		{ICAO: "BBB", IATA: "ZZ", Name: "Second"},
	})
	require.ErrorIs(t, err, airline.ErrDuplicateIATA)
}
