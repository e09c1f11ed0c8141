// Command refdb writes the airport and airline catalogs into a SQLite snapshot that the
// server can load with reference.source = "sqlite".
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/jonboulle/clockwork"

	"github.com/yegors/flightfinder/internal/config"
	"github.com/yegors/flightfinder/internal/refdata"
	"github.com/yegors/flightfinder/internal/storage/sqlite"
	"github.com/yegors/flightfinder/pkg/logger"
)

func main() {
	airportsPath := flag.String("airports", "", "OurAirports airports.csv (optionally .zst); empty uses the embedded catalog")
	airlinesPath := flag.String("airlines", "", "airlines.json (optionally .zst); empty uses the embedded catalog")
	outPath := flag.String("out", "data/reference.db", "Snapshot database to write")
	logLevel := flag.String("log-level", "info", "Log level")
	flag.Parse()

	log, err := logger.New(logger.Config{Level: *logLevel, Format: "console"})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	if err := run(*airportsPath, *airlinesPath, *outPath, log); err != nil {
		log.Error("Failed to build reference snapshot", logger.Error(err))
		log.Sync()
		os.Exit(1)
	}
}

func run(airportsPath, airlinesPath, outPath string, log *logger.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	refCfg := config.ReferenceConfig{Source: config.SourceEmbedded}
	if airportsPath != "" || airlinesPath != "" {
		refCfg = config.ReferenceConfig{
			Source:         config.SourceFiles,
			AirportsDBPath: airportsPath,
			AirlinesDBPath: airlinesPath,
		}
		if err := (&config.Config{Reference: refCfg}).ValidateReference(); err != nil {
			return err
		}
	}

	clock := clockwork.NewRealClock()
	registry, err := refdata.Load(ctx, refCfg, clock, log)
	if err != nil {
		return err
	}

	if dir := filepath.Dir(outPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	store, err := sqlite.NewReferenceStore(outPath, log)
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.SaveCatalog(ctx, registry.Airports.All(), registry.Airlines.All(), registry.Source, clock.Now()); err != nil {
		return err
	}

	log.Info("Reference snapshot written",
		logger.String("path", outPath),
		logger.String("source", registry.Source),
		logger.Int("airports", registry.Airports.Len()),
		logger.Int("airlines", registry.Airlines.Len()))
	return nil
}
