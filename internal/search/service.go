package search

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/jonboulle/clockwork"

	"github.com/yegors/flightfinder/internal/airline"
	"github.com/yegors/flightfinder/internal/airport"
	"github.com/yegors/flightfinder/internal/config"
	"github.com/yegors/flightfinder/internal/geo"
	"github.com/yegors/flightfinder/internal/observability"
	"github.com/yegors/flightfinder/internal/query"
	"github.com/yegors/flightfinder/internal/refdata"
	"github.com/yegors/flightfinder/pkg/logger"
)

// MaxLimit caps the number of results any caller can ask for
const MaxLimit = 50

// ErrInvalidPosition is returned for coordinates outside the valid lat/lon range
var ErrInvalidPosition = errors.New("invalid position")

// Position is the caller's own location, used for "near me" queries
type Position struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Validate checks the coordinate ranges
func (p Position) Validate() error {
	if math.IsNaN(p.Lat) || math.IsNaN(p.Lon) || p.Lat < -90 || p.Lat > 90 || p.Lon < -180 || p.Lon > 180 {
		return fmt.Errorf("%w: %v,%v", ErrInvalidPosition, p.Lat, p.Lon)
	}
	return nil
}

// Request is a single search box submission
type Request struct {
	Query    string
	Limit    int
	Position *Position
}

// FlightResult is a flight number intent resolved against the airline directory
type FlightResult struct {
	Callsign     string           `json:"callsign"`
	FlightNumber string           `json:"flight_number"`
	Display      string           `json:"display"`
	Airline      *airline.Airline `json:"airline,omitempty"`
}

// RouteResult is a route intent resolved against the airport directory
type RouteResult struct {
	Origin             *airport.Airport `json:"origin,omitempty"`
	Destination        *airport.Airport `json:"destination,omitempty"`
	Resolved           bool             `json:"resolved"`
	DistanceKm         float64          `json:"distance_km,omitempty"`
	DistanceNM         float64          `json:"distance_nm,omitempty"`
	BearingDeg         float64          `json:"bearing_deg,omitempty"`
	MagneticBearingDeg float64          `json:"magnetic_bearing_deg,omitempty"`
}

// Result is a classified query with the reference data it points at.
// Results may be shared through the cache and must not be modified.
type Result struct {
	Query         string             `json:"query"`
	Kind          query.Kind         `json:"kind"`
	Intent        query.Intent       `json:"intent"`
	Flight        *FlightResult      `json:"flight,omitempty"`
	Route         *RouteResult       `json:"route,omitempty"`
	Airports      []airport.Match    `json:"airports,omitempty"`
	Airlines      []airline.Match    `json:"airlines,omitempty"`
	Nearby        []airport.Distance `json:"nearby,omitempty"`
	NeedsLocation bool               `json:"needs_location,omitempty"`
}

// Service classifies search strings and resolves the resulting intents
type Service struct {
	registry   *refdata.Registry
	classifier *query.Classifier
	cfg        config.SearchConfig
	scanMode   airport.ScanMode
	cache      *lru.Cache[string, *Result]
	metrics    *observability.Metrics
	clock      clockwork.Clock
	logger     *logger.Logger
}

// NewService creates a search service over the given registry
func NewService(reg *refdata.Registry, cfg config.SearchConfig, metrics *observability.Metrics, clock clockwork.Clock, log *logger.Logger) (*Service, error) {
	if reg == nil {
		return nil, fmt.Errorf("reference registry is required")
	}

	mode, ok := airport.ParseScanMode(cfg.ScanMode)
	if !ok {
		return nil, fmt.Errorf("invalid scan mode: %s", cfg.ScanMode)
	}
	if cfg.DefaultLimit <= 0 {
		cfg.DefaultLimit = airport.DefaultLimit
	}
	if cfg.NearestLimit <= 0 {
		cfg.NearestLimit = airport.DefaultLimit
	}

	var opts []query.Option
	if cfg.ValidateRouteCodes {
		opts = append(opts, query.WithRouteValidation(reg.Airports))
	}

	if metrics == nil {
		return nil, fmt.Errorf("metrics are required")
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}

	s := &Service{
		registry:   reg,
		classifier: query.NewClassifier(reg.Airlines, opts...),
		cfg:        cfg,
		scanMode:   mode,
		metrics:    metrics,
		clock:      clock,
		logger:     log.Named("search"),
	}

	if cfg.CacheSize > 0 {
		cache, err := lru.New[string, *Result](cfg.CacheSize)
		if err != nil {
			return nil, fmt.Errorf("failed to create result cache: %w", err)
		}
		s.cache = cache
	}

	return s, nil
}

// Registry returns the reference data backing the service
func (s *Service) Registry() *refdata.Registry {
	return s.registry
}

// Classify interprets raw without resolving it
func (s *Service) Classify(raw string) query.Intent {
	intent := s.classifier.Classify(raw)
	s.metrics.Classifications.WithLabelValues(string(intent.Kind())).Inc()
	return intent
}

// ParseFlightNumber exposes the classifier's flight number normalization
func (s *Service) ParseFlightNumber(raw string) (string, bool) {
	return s.classifier.ParseFlightNumber(raw)
}

// Search classifies the request query and attaches matching reference data
func (s *Service) Search(ctx context.Context, req Request) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if req.Position != nil {
		if err := req.Position.Validate(); err != nil {
			return nil, err
		}
	}

	limit := req.Limit
	if limit <= 0 {
		limit = s.cfg.DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}

	start := s.clock.Now()

	key := cacheKey(req.Query, limit)
	// Position dependent results are never cached
	if s.cache != nil && req.Position == nil {
		if cached, ok := s.cache.Get(key); ok {
			s.metrics.Cache.WithLabelValues("hit").Inc()
			s.metrics.Classifications.WithLabelValues(string(cached.Kind)).Inc()
			return cached, nil
		}
		s.metrics.Cache.WithLabelValues("miss").Inc()
	}

	intent := s.Classify(req.Query)
	result := s.resolve(intent, limit, req.Position)
	result.Query = strings.TrimSpace(req.Query)

	if s.cache != nil && req.Position == nil {
		s.cache.Add(key, result)
	}

	elapsed := s.clock.Since(start)
	s.metrics.SearchDuration.WithLabelValues(string(result.Kind)).Observe(elapsed.Seconds())

	s.logger.Debug("Query resolved",
		logger.String("query", result.Query),
		logger.String("kind", string(result.Kind)),
		logger.Int("airports", len(result.Airports)),
		logger.Int("airlines", len(result.Airlines)),
		logger.Duration("took", elapsed))

	return result, nil
}

func cacheKey(raw string, limit int) string {
	return strconv.Itoa(limit) + "|" + strings.TrimSpace(raw)
}

func (s *Service) resolve(intent query.Intent, limit int, pos *Position) *Result {
	result := &Result{Kind: intent.Kind(), Intent: intent}

	switch in := intent.(type) {
	case query.FlightNumber:
		result.Flight = s.ResolveFlight(in.Callsign())

	case query.GeoNearMe:
		if pos == nil {
			result.NeedsLocation = true
			break
		}
		result.Nearby = s.registry.Airports.Nearest(pos.Lat, pos.Lon, s.cfg.NearestLimit)

	case query.GeoNearLocation:
		result.Airports = s.registry.Airports.SearchScored(in.Location, limit, s.scanMode)
		if len(result.Airports) > 0 {
			anchor := result.Airports[0].Airport
			result.Nearby = s.registry.Airports.Nearest(anchor.Latitude, anchor.Longitude, s.cfg.NearestLimit)
		}

	case query.Route:
		result.Route = s.ResolveRoute(in.Origin, in.Destination)

	case query.AircraftType:
		// Type designators carry no reference data of their own

	case query.FreeText:
		result.Airports = s.registry.Airports.SearchScored(in.Raw, limit, s.scanMode)
		result.Airlines = s.registry.Airlines.Search(in.Raw, limit)
	}

	return result
}

// ResolveFlight describes a callsign using the airline directory
func (s *Service) ResolveFlight(callsign string) *FlightResult {
	dir := s.registry.Airlines
	cs := strings.ToUpper(strings.TrimSpace(callsign))

	fr := &FlightResult{
		Callsign: cs,
		Display:  dir.FormatFlightDisplay(cs),
	}
	if number, ok := dir.ExtractFlightNumber(cs); ok {
		fr.FlightNumber = number
	}
	if al, ok := dir.AirlineFromCallsign(cs); ok {
		fr.Airline = &al
	}
	return fr
}

// ResolveRoute looks up both airports and, when both are known, the great-circle
// distance and initial bearing between them
func (s *Service) ResolveRoute(origin, destination string) *RouteResult {
	rr := &RouteResult{}

	from, fromOK := s.registry.Airports.Lookup(origin)
	if fromOK {
		rr.Origin = &from
	}
	to, toOK := s.registry.Airports.Lookup(destination)
	if toOK {
		rr.Destination = &to
	}
	if !fromOK || !toOK {
		return rr
	}

	rr.Resolved = true
	rr.DistanceKm = geo.DistanceKm(from.Latitude, from.Longitude, to.Latitude, to.Longitude)
	rr.DistanceNM = geo.KmToNM(rr.DistanceKm)
	rr.BearingDeg = geo.BearingDegrees(from.Latitude, from.Longitude, to.Latitude, to.Longitude)
	rr.MagneticBearingDeg = geo.MagneticBearing(from.Latitude, from.Longitude, to.Latitude, to.Longitude, s.clock.Now())
	return rr
}
