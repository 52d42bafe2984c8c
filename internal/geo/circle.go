package geo

import "math"

const (
	DefaultRadiusMeters  = 1000.0
	DefaultPolygonPoints = 48
)

// GeneratePolygon approximates a circle of radiusMeters around center with numPoints
// vertices. Vertex i lies on bearing 2π·i/numPoints, so the ring starts due north and
// runs clockwise. The ring is implicitly closed: the first point is not repeated.
func GeneratePolygon(center Coordinate, radiusMeters float64, numPoints int) []Coordinate {
	if numPoints <= 0 {
		return []Coordinate{}
	}

	d := radiusMeters / EarthRadiusMeters
	lat1 := toRadians(center.Latitude)
	lon1 := toRadians(center.Longitude)

	sinLat1, cosLat1 := math.Sin(lat1), math.Cos(lat1)
	sinD, cosD := math.Sin(d), math.Cos(d)

	points := make([]Coordinate, 0, numPoints)
	for i := 0; i < numPoints; i++ {
		bearing := 2 * math.Pi * float64(i) / float64(numPoints)
		lat2 := math.Asin(sinLat1*cosD + cosLat1*sinD*math.Cos(bearing))
		lon2 := lon1 + math.Atan2(math.Sin(bearing)*sinD*cosLat1, cosD-sinLat1*math.Sin(lat2))
		points = append(points, Coordinate{
			Latitude:  toDegrees(lat2),
			Longitude: toDegrees(lon2),
		})
	}
	return points
}
