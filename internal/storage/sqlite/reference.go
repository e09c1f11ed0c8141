package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/yegors/flightfinder/internal/airline"
	"github.com/yegors/flightfinder/internal/airport"
	"github.com/yegors/flightfinder/pkg/logger"
	_ "modernc.org/sqlite"
)

// SnapshotInfo describes the catalog currently stored in the database
type SnapshotInfo struct {
	BuiltAt  time.Time `json:"built_at"`
	Source   string    `json:"source"`
	Airports int       `json:"airports"`
	Airlines int       `json:"airlines"`
}

// ReferenceStore is a SQLite snapshot of the airport and airline catalogs
type ReferenceStore struct {
	db     *sql.DB
	logger *logger.Logger
}

// NewReferenceStore opens (or creates) a reference snapshot database
func NewReferenceStore(dbPath string, log *logger.Logger) (*ReferenceStore, error) {
	storageLogger := log.Named("sqlite")

	storageLogger.Info("Opening reference store",
		logger.String("path", dbPath))

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one writer at a time
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to apply %q: %w", pragma, err)
		}
	}

	if err := initDatabase(db, storageLogger); err != nil {
		db.Close()
		return nil, err
	}

	return &ReferenceStore{
		db:     db,
		logger: storageLogger,
	}, nil
}

// Close closes the database connection
func (s *ReferenceStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// initDatabase initializes the database schema
func initDatabase(db *sql.DB, log *logger.Logger) error {
	log.Debug("Initializing reference schema")

	// seq preserves catalog order, which drives search ranking ties
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS airports (
			seq INTEGER NOT NULL,
			icao TEXT PRIMARY KEY,
			iata TEXT,
			name TEXT NOT NULL,
			city TEXT,
			country TEXT,
			latitude REAL NOT NULL,
			longitude REAL NOT NULL
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create airports table: %w", err)
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS airlines (
			seq INTEGER NOT NULL,
			icao TEXT PRIMARY KEY,
			iata TEXT,
			name TEXT NOT NULL,
			country TEXT,
			callsign TEXT
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create airlines table: %w", err)
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS snapshot_info (
			id INTEGER PRIMARY KEY CHECK (id = 1),
			built_at TIMESTAMP NOT NULL,
			source TEXT
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create snapshot_info table: %w", err)
	}

	return nil
}

// SaveCatalog replaces the stored catalogs with the given airports and airlines in one
// transaction
func (s *ReferenceStore) SaveCatalog(ctx context.Context, airports []airport.Airport, airlines []airline.Airline, source string, builtAt time.Time) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, table := range []string{"airports", "airlines", "snapshot_info"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}

	airportStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO airports (seq, icao, iata, name, city, country, latitude, longitude)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare airport insert statement: %w", err)
	}
	defer airportStmt.Close()

	for i, ap := range airports {
		if _, err := airportStmt.ExecContext(ctx, i, ap.ICAO, nullString(ap.IATA), ap.Name,
			nullString(ap.City), nullString(ap.Country), ap.Latitude, ap.Longitude); err != nil {
			return fmt.Errorf("failed to insert airport %s: %w", ap.ICAO, err)
		}
	}

	airlineStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO airlines (seq, icao, iata, name, country, callsign)
		VALUES (?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare airline insert statement: %w", err)
	}
	defer airlineStmt.Close()

	for i, al := range airlines {
		if _, err := airlineStmt.ExecContext(ctx, i, al.ICAO, nullString(al.IATA), al.Name,
			nullString(al.Country), nullString(al.Callsign)); err != nil {
			return fmt.Errorf("failed to insert airline %s: %w", al.ICAO, err)
		}
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO snapshot_info (id, built_at, source) VALUES (1, ?, ?)`,
		builtAt.UTC().Format(time.RFC3339), source,
	); err != nil {
		return fmt.Errorf("failed to record snapshot info: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit reference snapshot: %w", err)
	}

	s.logger.Info("Saved reference snapshot",
		logger.Int("airports", len(airports)),
		logger.Int("airlines", len(airlines)),
		logger.String("source", source))

	return nil
}

// LoadAirports returns the stored airports in catalog order
func (s *ReferenceStore) LoadAirports(ctx context.Context) ([]airport.Airport, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT icao, iata, name, city, country, latitude, longitude
		FROM airports
		ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("failed to query airports: %w", err)
	}
	defer rows.Close()

	airports := make([]airport.Airport, 0)
	for rows.Next() {
		var ap airport.Airport
		var iata, city, country sql.NullString

		if err := rows.Scan(&ap.ICAO, &iata, &ap.Name, &city, &country, &ap.Latitude, &ap.Longitude); err != nil {
			return nil, fmt.Errorf("failed to scan airport: %w", err)
		}
		ap.IATA = iata.String
		ap.City = city.String
		ap.Country = country.String

		airports = append(airports, ap)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate airports: %w", err)
	}

	return airports, nil
}

// LoadAirlines returns the stored airlines in catalog order
func (s *ReferenceStore) LoadAirlines(ctx context.Context) ([]airline.Airline, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT icao, iata, name, country, callsign
		FROM airlines
		ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("failed to query airlines: %w", err)
	}
	defer rows.Close()

	airlines := make([]airline.Airline, 0)
	for rows.Next() {
		var al airline.Airline
		var iata, country, callsign sql.NullString

		if err := rows.Scan(&al.ICAO, &iata, &al.Name, &country, &callsign); err != nil {
			return nil, fmt.Errorf("failed to scan airline: %w", err)
		}
		al.IATA = iata.String
		al.Country = country.String
		al.Callsign = callsign.String

		airlines = append(airlines, al)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate airlines: %w", err)
	}

	return airlines, nil
}

// Info returns metadata about the stored snapshot. The second return value is false when
// nothing has been saved yet.
func (s *ReferenceStore) Info(ctx context.Context) (SnapshotInfo, bool, error) {
	var info SnapshotInfo
	var builtAt string
	var source sql.NullString

	err := s.db.QueryRowContext(ctx,
		`SELECT built_at, source FROM snapshot_info WHERE id = 1`,
	).Scan(&builtAt, &source)
	if err == sql.ErrNoRows {
		return SnapshotInfo{}, false, nil
	}
	if err != nil {
		return SnapshotInfo{}, false, fmt.Errorf("failed to query snapshot info: %w", err)
	}

	info.BuiltAt, err = time.Parse(time.RFC3339, builtAt)
	if err != nil {
		return SnapshotInfo{}, false, fmt.Errorf("failed to parse built_at: %w", err)
	}
	info.Source = source.String

	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM airports`).Scan(&info.Airports); err != nil {
		return SnapshotInfo{}, false, fmt.Errorf("failed to count airports: %w", err)
	}
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM airlines`).Scan(&info.Airlines); err != nil {
		return SnapshotInfo{}, false, fmt.Errorf("failed to count airlines: %w", err)
	}

	return info, true, nil
}

func nullString(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
