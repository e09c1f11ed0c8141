package geo

import (
	"math"
	"time"

	"github.com/westphae/geomag/pkg/egm96"
	"github.com/westphae/geomag/pkg/wmm"
)

// Constants
const (
	EarthRadiusKm = 6371.0   // Mean Earth radius used by the haversine formula
	KmPerNM       = 1.852    // Kilometres per nautical mile
	EarthRadiusNM = 3440.065 // 6371 km / 1.852 km/nm
	FeetToMeters  = 0.3048
)

// MaxDistanceKm is the antipodal (half circumference) distance
var MaxDistanceKm = math.Pi * EarthRadiusKm

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}

func toDegrees(rad float64) float64 {
	return rad * 180 / math.Pi
}

// DistanceKm returns the great-circle distance in kilometres between two lat/lon points
func DistanceKm(lat1, lon1, lat2, lon2 float64) float64 {
	lat1Rad := toRadians(lat1)
	lat2Rad := toRadians(lat2)
	dlat := toRadians(lat2 - lat1)
	dlon := toRadians(lon2 - lon1)

	a := math.Pow(math.Sin(dlat/2), 2) + math.Cos(lat1Rad)*math.Cos(lat2Rad)*math.Pow(math.Sin(dlon/2), 2)

	// Rounding can push a slightly outside [0,1] near antipodal points
	a = math.Max(0, math.Min(1, a))

	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return EarthRadiusKm * c
}

// DistanceNM returns the great-circle distance in nautical miles
func DistanceNM(lat1, lon1, lat2, lon2 float64) float64 {
	return KmToNM(DistanceKm(lat1, lon1, lat2, lon2))
}

// KmToNM converts kilometres to nautical miles
func KmToNM(km float64) float64 {
	return km / KmPerNM
}

// BearingDegrees calculates the initial bearing from point 1 to point 2.
// Returns a value in [0, 360) (0 = North, 90 = East, etc.)
func BearingDegrees(lat1, lon1, lat2, lon2 float64) float64 {
	lat1Rad := toRadians(lat1)
	lat2Rad := toRadians(lat2)
	dlon := toRadians(lon2 - lon1)

	y := math.Sin(dlon) * math.Cos(lat2Rad)
	x := math.Cos(lat1Rad)*math.Sin(lat2Rad) - math.Sin(lat1Rad)*math.Cos(lat2Rad)*math.Cos(dlon)
	return NormalizeHeading(toDegrees(math.Atan2(y, x)))
}

// NormalizeHeading maps any finite angle into [0, 360)
func NormalizeHeading(deg float64) float64 {
	h := math.Mod(math.Mod(deg, 360)+360, 360)
	if h >= 360 {
		h = 0
	}
	return h
}

// DestinationPoint calculates a destination point given a starting point, bearing, and distance
func DestinationPoint(lat, lon, bearingDeg, distanceNM float64) (float64, float64) {
	latRad := toRadians(lat)
	lonRad := toRadians(lon)
	bearing := toRadians(bearingDeg)

	distRatio := distanceNM / EarthRadiusNM
	lat2 := math.Asin(math.Sin(latRad)*math.Cos(distRatio) + math.Cos(latRad)*math.Sin(distRatio)*math.Cos(bearing))
	lon2 := lonRad + math.Atan2(
		math.Sin(bearing)*math.Sin(distRatio)*math.Cos(latRad),
		math.Cos(distRatio)-math.Sin(latRad)*math.Sin(lat2),
	)

	// Keep longitude within [-180, 180]
	lon2Deg := math.Mod(toDegrees(lon2)+540, 360) - 180
	return toDegrees(lat2), lon2Deg
}

// MagneticVariation calculates the magnetic declination for a given position and time.
// Returns declination in degrees (+East, -West), or 0 when the model cannot be evaluated.
func MagneticVariation(lat, lon, altFt float64, date time.Time) float64 {
	loc := egm96.NewLocationGeodetic(lat, lon, altFt*FeetToMeters)

	mag, err := wmm.CalculateWMMMagneticField(loc, date)
	if err != nil {
		return 0.0
	}

	d := mag.D()
	if math.IsNaN(d) || math.IsInf(d, 0) {
		return 0.0
	}
	return d
}

// MagneticBearing converts the true initial bearing between two points into a magnetic
// bearing using the declination at the origin
func MagneticBearing(lat1, lon1, lat2, lon2 float64, date time.Time) float64 {
	trueBearing := BearingDegrees(lat1, lon1, lat2, lon2)
	return NormalizeHeading(trueBearing - MagneticVariation(lat1, lon1, 0, date))
}
