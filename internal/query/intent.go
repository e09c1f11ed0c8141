package query

// Kind identifies the type of a classified query
type Kind string

const (
	KindFlightNumber    Kind = "flight_number"
	KindGeoNearMe       Kind = "geo_near_me"
	KindGeoNearLocation Kind = "geo_near_location"
	KindRoute           Kind = "route"
	KindAircraftType    Kind = "aircraft_type"
	KindFreeText        Kind = "free_text"
)

// Kinds lists every intent kind in classification priority order
var Kinds = []Kind{
	KindFlightNumber,
	KindGeoNearMe,
	KindGeoNearLocation,
	KindRoute,
	KindAircraftType,
	KindFreeText,
}

// Intent is the structured interpretation of a search string. The set of implementations
// is closed: FlightNumber, GeoNearMe, GeoNearLocation, Route, AircraftType and FreeText.
type Intent interface {
	Kind() Kind
	isIntent()
}

// FlightNumber is an airline flight, normalized to its ICAO callsign
type FlightNumber struct {
	ICAOPrefix string `json:"icao_prefix"`
	Digits     string `json:"digits"`
}

// Callsign returns the ICAO callsign, e.g. "UAL123"
func (f FlightNumber) Callsign() string {
	return f.ICAOPrefix + f.Digits
}

// GeoNearMe asks for flights around the user's own position
type GeoNearMe struct{}

// GeoNearLocation asks for flights around a named place
type GeoNearLocation struct {
	Location string `json:"location"`
}

// Route is an origin/destination airport code pair
type Route struct {
	Origin      string `json:"origin"`
	Destination string `json:"destination"`
}

// AircraftType is an ICAO aircraft type designator such as B737
type AircraftType struct {
	TypeCode string `json:"type_code"`
}

// FreeText is the fallback for anything no rule recognised
type FreeText struct {
	Raw string `json:"raw"`
}

func (FlightNumber) Kind() Kind    { return KindFlightNumber }
func (GeoNearMe) Kind() Kind       { return KindGeoNearMe }
func (GeoNearLocation) Kind() Kind { return KindGeoNearLocation }
func (Route) Kind() Kind           { return KindRoute }
func (AircraftType) Kind() Kind    { return KindAircraftType }
func (FreeText) Kind() Kind        { return KindFreeText }

func (FlightNumber) isIntent()    {}
func (GeoNearMe) isIntent()       {}
func (GeoNearLocation) isIntent() {}
func (Route) isIntent()           {}
func (AircraftType) isIntent()    {}
func (FreeText) isIntent()        {}
