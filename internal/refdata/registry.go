package refdata

import (
	"bytes"
	"context"
	_ "embed"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/klauspost/compress/zstd"
	"golang.org/x/sync/errgroup"

	"github.com/yegors/flightfinder/internal/airline"
	"github.com/yegors/flightfinder/internal/airport"
	"github.com/yegors/flightfinder/internal/config"
	"github.com/yegors/flightfinder/internal/storage/sqlite"
	"github.com/yegors/flightfinder/pkg/logger"
)

//go:embed data/airports.csv
var embeddedAirports []byte

//go:embed data/airlines.json
var embeddedAirlines []byte

// Registry holds the immutable reference catalogs shared by the classifier, the search
// service and the HTTP layer
type Registry struct {
	Airports *airport.Directory
	Airlines *airline.Directory
	Source   string
	LoadedAt time.Time
}

// Load builds the registry from the configured source. Airports and airlines are loaded
// concurrently; the first failure cancels the other loader.
func Load(ctx context.Context, cfg config.ReferenceConfig, clock clockwork.Clock, log *logger.Logger) (*Registry, error) {
	refLogger := log.Named("refdata")
	start := clock.Now()

	var (
		airports []airport.Airport
		airlines []airline.Airline
	)

	g, gctx := errgroup.WithContext(ctx)

	switch cfg.Source {
	case config.SourceEmbedded, "":
		g.Go(func() error {
			var err error
			airports, err = airport.DecodeCSV(bytes.NewReader(embeddedAirports))
			return err
		})
		g.Go(func() error {
			var err error
			airlines, err = airline.DecodeJSON(bytes.NewReader(embeddedAirlines))
			return err
		})

	case config.SourceFiles:
		g.Go(func() error {
			return readFile(gctx, cfg.AirportsDBPath, func(r io.Reader) error {
				var err error
				airports, err = airport.DecodeCSV(r)
				return err
			})
		})
		g.Go(func() error {
			return readFile(gctx, cfg.AirlinesDBPath, func(r io.Reader) error {
				var err error
				airlines, err = airline.DecodeJSON(r)
				return err
			})
		})

	case config.SourceSQLite:
		store, err := sqlite.NewReferenceStore(cfg.SQLitePath, log)
		if err != nil {
			return nil, fmt.Errorf("failed to open reference store: %w", err)
		}
		defer store.Close()

		g.Go(func() error {
			var err error
			airports, err = store.LoadAirports(gctx)
			return err
		})
		g.Go(func() error {
			var err error
			airlines, err = store.LoadAirlines(gctx)
			return err
		})

	default:
		return nil, fmt.Errorf("unknown reference source: %s", cfg.Source)
	}

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to load reference data: %w", err)
	}

	reg, err := New(airports, airlines)
	if err != nil {
		return nil, err
	}
	reg.Source = cfg.Source
	if reg.Source == "" {
		reg.Source = config.SourceEmbedded
	}
	reg.LoadedAt = clock.Now()

	refLogger.Info("Reference data loaded",
		logger.String("source", reg.Source),
		logger.Int("airports", reg.Airports.Len()),
		logger.Int("airlines", reg.Airlines.Len()),
		logger.Int("index_entries", len(reg.Airports.Index())),
		logger.Duration("took", clock.Since(start)))

	return reg, nil
}

// New builds a registry from already decoded catalogs
func New(airports []airport.Airport, airlines []airline.Airline) (*Registry, error) {
	apDir, err := airport.NewDirectory(airports)
	if err != nil {
		return nil, fmt.Errorf("failed to build airport directory: %w", err)
	}
	alDir, err := airline.NewDirectory(airlines)
	if err != nil {
		return nil, fmt.Errorf("failed to build airline directory: %w", err)
	}
	return &Registry{Airports: apDir, Airlines: alDir}, nil
}

// readFile opens path and hands decode a reader, transparently decompressing .zst files
func readFile(ctx context.Context, path string, decode func(io.Reader) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	var r io.Reader = f
	if filepath.Ext(path) == ".zst" {
		zr, err := zstd.NewReader(f, zstd.WithDecoderConcurrency(0))
		if err != nil {
			return fmt.Errorf("failed to create zstd reader for %s: %w", path, err)
		}
		defer zr.Close()
		r = zr
	}

	if err := decode(r); err != nil {
		return fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return nil
}
