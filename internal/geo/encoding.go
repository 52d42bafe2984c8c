package geo

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"
	"github.com/twpayne/go-geom/encoding/wkt"
)

// SRIDWGS84 is the spatial reference of every Coordinate.
const SRIDWGS84 = 4326

var errTooFewPoints = errors.New("polygon needs at least 3 points")

// ToGeomPolygon builds a closed, counter-clockwise go-geom polygon. Coordinates are
// stored as (lon, lat) per the WKT/GeoJSON axis order.
func ToGeomPolygon(points []Coordinate) (*geom.Polygon, error) {
	if len(points) < 3 {
		return nil, errTooFewPoints
	}

	ring := CounterClockwise(points)
	coords := make([]geom.Coord, 0, len(ring)+1)
	for _, p := range ring {
		coords = append(coords, geom.Coord{p.Longitude, p.Latitude})
	}
	first, last := ring[0], ring[len(ring)-1]
	if first != last {
		coords = append(coords, geom.Coord{first.Longitude, first.Latitude})
	}

	polygon, err := geom.NewPolygon(geom.XY).SetCoords([][]geom.Coord{coords})
	if err != nil {
		return nil, fmt.Errorf("failed to build polygon: %w", err)
	}
	polygon.SetSRID(SRIDWGS84)
	return polygon, nil
}

func ToWKT(points []Coordinate) (string, error) {
	polygon, err := ToGeomPolygon(points)
	if err != nil {
		return "", err
	}
	out, err := wkt.Marshal(polygon)
	if err != nil {
		return "", fmt.Errorf("failed to marshal to WKT: %w", err)
	}
	return out, nil
}

func ToGeoJSON(points []Coordinate) (json.RawMessage, error) {
	polygon, err := ToGeomPolygon(points)
	if err != nil {
		return nil, err
	}
	out, err := geojson.Marshal(polygon)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal to GeoJSON: %w", err)
	}
	return out, nil
}
