// Package geo provides the distance math shared by the map, list and
// sidebar views.
package geo

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// EarthRadiusKm is the mean Earth radius used by DistanceKm.
const EarthRadiusKm = 6371.0

// Point is a WGS84 coordinate.
type Point struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// DistanceKm returns the haversine great-circle distance between a and b.
func DistanceKm(a, b Point) float64 {
	if a == b {
		return 0
	}

	lat1 := toRadians(a.Lat)
	lat2 := toRadians(b.Lat)
	dLat := lat2 - lat1
	dLng := toRadians(b.Lng - a.Lng)

	sinLat := math.Sin(dLat / 2)
	sinLng := math.Sin(dLng / 2)
	h := sinLat*sinLat + math.Cos(lat1)*math.Cos(lat2)*sinLng*sinLng

	// Rounding can push h a hair outside [0, 1] for antipodal points.
	h = math.Min(1, math.Max(0, h))

	return 2 * EarthRadiusKm * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}

// FormatDistance renders km for display: "N/A" for NaN, whole meters below
// one kilometer, one decimal kilometer otherwise.
func FormatDistance(km float64) string {
	if math.IsNaN(km) {
		return "N/A"
	}
	if km < 1 {
		return fmt.Sprintf("%dm", int64(math.Round(km*1000)))
	}
	return strconv.FormatFloat(km, 'f', 1, 64) + "km"
}

// FormatCoordinate renders a raw latitude or longitude with six decimals,
// or "N/A" when it is empty or not a number.
func FormatCoordinate(raw string) string {
	v, ok := ParseCoordinate(raw)
	if !ok {
		return "N/A"
	}
	return strconv.FormatFloat(v, 'f', 6, 64)
}

// ParseCoordinate parses a raw coordinate. Empty, non-numeric and
// non-finite input is rejected.
func ParseCoordinate(raw string) (float64, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}
