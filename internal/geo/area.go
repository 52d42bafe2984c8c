package geo

import (
	"fmt"
	"math"
)

// PolygonAreaSqM estimates the surface area of a small polygon using the spherical
// excess line integral. Point order does not matter for the result, and self-intersecting
// rings give an undefined but finite value.
func PolygonAreaSqM(points []Coordinate) float64 {
	if len(points) < 3 {
		return 0
	}
	return math.Abs(ringSum(points) * EarthRadiusMeters * EarthRadiusMeters / 2)
}

// ringSum is positive for clockwise rings and negative for counter-clockwise ones.
func ringSum(points []Coordinate) float64 {
	total := 0.0
	for i := range points {
		p1 := points[i]
		p2 := points[(i+1)%len(points)]
		lat1 := toRadians(p1.Latitude)
		lat2 := toRadians(p2.Latitude)
		total += (toRadians(p2.Longitude) - toRadians(p1.Longitude)) * (2 + math.Sin(lat1) + math.Sin(lat2))
	}
	return total
}

func IsCounterClockwise(points []Coordinate) bool {
	if len(points) < 3 {
		return false
	}
	return ringSum(points) < 0
}

// CounterClockwise returns the ring in counter-clockwise order, reversing a copy when needed.
func CounterClockwise(points []Coordinate) []Coordinate {
	out := make([]Coordinate, len(points))
	copy(out, points)
	if len(out) < 3 || IsCounterClockwise(out) {
		return out
	}
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out
}

func SqMToHectares(areaSqM float64) float64 {
	return areaSqM / 10000
}

func FormatHectares(areaSqM float64) string {
	return fmt.Sprintf("%.2f ha", SqMToHectares(areaSqM))
}
