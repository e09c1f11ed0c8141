package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jonboulle/clockwork"

	"github.com/yegors/flightfinder/internal/airport"
	"github.com/yegors/flightfinder/internal/config"
	"github.com/yegors/flightfinder/internal/geo"
	"github.com/yegors/flightfinder/internal/search"
	"github.com/yegors/flightfinder/internal/websocket"
	"github.com/yegors/flightfinder/pkg/logger"
)

// Handler contains the API handlers
type Handler struct {
	search    *search.Service
	wsServer  *websocket.Server
	config    *config.Config
	clock     clockwork.Clock
	startedAt time.Time
	logger    *logger.Logger
}

// NewHandler creates a new API handler
func NewHandler(searchService *search.Service, wsServer *websocket.Server, config *config.Config, clock clockwork.Clock, logger *logger.Logger) *Handler {
	return &Handler{
		search:    searchService,
		wsServer:  wsServer,
		config:    config,
		clock:     clock,
		startedAt: clock.Now(),
		logger:    logger.Named("api-handler"),
	}
}

// Search classifies the q parameter and resolves it against the reference data
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	limit, err := parseLimit(r, h.config.Search.DefaultLimit)
	if err != nil {
		WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	req := search.Request{Query: r.URL.Query().Get("q"), Limit: limit}

	pos, err := parseOptionalPosition(r, "lat", "lon")
	if err != nil {
		WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	req.Position = pos

	result, err := h.search.Search(r.Context(), req)
	if err != nil {
		if errors.Is(err, search.ErrInvalidPosition) {
			WriteError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.logger.Error("Search failed", logger.Error(err), logger.String("query", req.Query))
		WriteError(w, http.StatusInternalServerError, "search failed")
		return
	}

	WriteJSON(w, http.StatusOK, result)
}

// Classify returns the intent for q without resolving it
func (h *Handler) Classify(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("q")
	intent := h.search.Classify(raw)

	response := map[string]interface{}{
		"query":  strings.TrimSpace(raw),
		"kind":   intent.Kind(),
		"intent": intent,
	}
	if callsign, ok := h.search.ParseFlightNumber(raw); ok {
		response["callsign"] = callsign
	}

	WriteJSON(w, http.StatusOK, response)
}

// SearchAirports ranks airports by code, name and city
func (h *Handler) SearchAirports(w http.ResponseWriter, r *http.Request) {
	limit, err := parseLimit(r, h.config.Search.DefaultLimit)
	if err != nil {
		WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	modeParam := r.URL.Query().Get("scan")
	if modeParam == "" {
		modeParam = h.config.Search.ScanMode
	}
	mode, ok := airport.ParseScanMode(modeParam)
	if !ok {
		WriteError(w, http.StatusBadRequest, fmt.Sprintf("invalid scan mode: %s", modeParam))
		return
	}

	q := r.URL.Query().Get("q")
	results := h.search.Registry().Airports.SearchScored(q, limit, mode)

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"query":     strings.TrimSpace(q),
		"scan_mode": mode.String(),
		"count":     len(results),
		"results":   results,
	})
}

// NearestAirports returns the airports closest to lat/lon
func (h *Handler) NearestAirports(w http.ResponseWriter, r *http.Request) {
	pos, err := parseOptionalPosition(r, "lat", "lon")
	if err != nil {
		WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	if pos == nil {
		WriteError(w, http.StatusBadRequest, "lat and lon are required")
		return
	}
	if err := pos.Validate(); err != nil {
		WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	limit, err := parseLimit(r, h.config.Search.NearestLimit)
	if err != nil {
		WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	results := h.search.Registry().Airports.Nearest(pos.Lat, pos.Lon, limit)
	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"count":   len(results),
		"results": results,
	})
}

// GetAirport returns an airport by ICAO or IATA code
func (h *Handler) GetAirport(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")

	ap, ok := h.search.Registry().Airports.Lookup(code)
	if !ok {
		WriteError(w, http.StatusNotFound, fmt.Sprintf("airport not found: %s", code))
		return
	}

	WriteJSON(w, http.StatusOK, ap)
}

// SearchAirlines finds airlines by code or name
func (h *Handler) SearchAirlines(w http.ResponseWriter, r *http.Request) {
	limit, err := parseLimit(r, h.config.Search.DefaultLimit)
	if err != nil {
		WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	q := r.URL.Query().Get("q")
	results := h.search.Registry().Airlines.Search(q, limit)

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"query":   strings.TrimSpace(q),
		"count":   len(results),
		"results": results,
	})
}

// GetAirline returns an airline by ICAO designator
func (h *Handler) GetAirline(w http.ResponseWriter, r *http.Request) {
	icao := chi.URLParam(r, "icao")

	al, ok := h.search.Registry().Airlines.Lookup(icao)
	if !ok {
		WriteError(w, http.StatusNotFound, fmt.Sprintf("airline not found: %s", icao))
		return
	}

	WriteJSON(w, http.StatusOK, al)
}

// GetCallsign describes a callsign: operator, flight number, display form and whether
// it looks like general aviation
func (h *Handler) GetCallsign(w http.ResponseWriter, r *http.Request) {
	callsign := chi.URLParam(r, "callsign")
	flight := h.search.ResolveFlight(callsign)

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"callsign":      flight.Callsign,
		"airline":       flight.Airline,
		"flight_number": flight.FlightNumber,
		"display":       flight.Display,
		"private":       h.search.Registry().Airlines.IsPrivateFlight(callsign),
	})
}

// GetDistance returns the great-circle distance and bearings between two points
func (h *Handler) GetDistance(w http.ResponseWriter, r *http.Request) {
	from, err := parseOptionalPosition(r, "lat1", "lon1")
	if err != nil {
		WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	to, err := parseOptionalPosition(r, "lat2", "lon2")
	if err != nil {
		WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	if from == nil || to == nil {
		WriteError(w, http.StatusBadRequest, "lat1, lon1, lat2 and lon2 are required")
		return
	}
	for _, p := range []*search.Position{from, to} {
		if err := p.Validate(); err != nil {
			WriteError(w, http.StatusBadRequest, err.Error())
			return
		}
	}

	km := geo.DistanceKm(from.Lat, from.Lon, to.Lat, to.Lon)
	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"distance_km":          km,
		"distance_nm":          geo.KmToNM(km),
		"bearing_deg":          geo.BearingDegrees(from.Lat, from.Lon, to.Lat, to.Lon),
		"magnetic_bearing_deg": geo.MagneticBearing(from.Lat, from.Lon, to.Lat, to.Lon, h.clock.Now()),
	})
}

// HandleWebSocket upgrades the request to a live search connection
func (h *Handler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	h.wsServer.HandleConnection(w, r)
}

// GetHealth returns the health status of the API
func (h *Handler) GetHealth(w http.ResponseWriter, r *http.Request) {
	reg := h.search.Registry()

	response := map[string]interface{}{
		"status":            "ok",
		"source":            reg.Source,
		"loaded_at":         reg.LoadedAt,
		"airports":          reg.Airports.Len(),
		"airlines":          reg.Airlines.Len(),
		"index_entries":     len(reg.Airports.Index()),
		"uptime_seconds":    int64(h.clock.Since(h.startedAt).Seconds()),
		"websocket_clients": h.wsServer.ClientCount(),
	}

	WriteJSON(w, http.StatusOK, response)
}

func parseLimit(r *http.Request, fallback int) (int, error) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return fallback, nil
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit <= 0 {
		return 0, fmt.Errorf("invalid limit: %s", raw)
	}
	if limit > search.MaxLimit {
		limit = search.MaxLimit
	}
	return limit, nil
}

// parseOptionalPosition returns nil when neither coordinate is present
func parseOptionalPosition(r *http.Request, latKey, lonKey string) (*search.Position, error) {
	latRaw := r.URL.Query().Get(latKey)
	lonRaw := r.URL.Query().Get(lonKey)
	if latRaw == "" && lonRaw == "" {
		return nil, nil
	}
	if latRaw == "" || lonRaw == "" {
		return nil, fmt.Errorf("%s and %s must be given together", latKey, lonKey)
	}

	lat, err := strconv.ParseFloat(latRaw, 64)
	if err != nil || math.IsNaN(lat) || math.IsInf(lat, 0) {
		return nil, fmt.Errorf("invalid %s: %s", latKey, latRaw)
	}
	lon, err := strconv.ParseFloat(lonRaw, 64)
	if err != nil || math.IsNaN(lon) || math.IsInf(lon, 0) {
		return nil, fmt.Errorf("invalid %s: %s", lonKey, lonRaw)
	}
	return &search.Position{Lat: lat, Lon: lon}, nil
}

// WriteJSON writes a JSON response
func WriteJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// WriteError writes a JSON error body
func WriteError(w http.ResponseWriter, status int, message string) {
	WriteJSON(w, status, map[string]string{"error": message})
}
