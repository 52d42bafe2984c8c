package model

import (
	"encoding/json"

	"agro-service/internal/geo"
)

// FieldBoundary is a display polygon derived from a center point. It is never persisted.
type FieldBoundary struct {
	Center       geo.Coordinate   `json:"center"`
	RadiusMeters float64          `json:"radiusMeters"`
	Points       []geo.Coordinate `json:"points"`
	AreaSqM      float64          `json:"areaSqM"`
	AreaHectares float64          `json:"areaHectares"`
	AreaLabel    string           `json:"areaLabel"`
	GeometryWKT  string           `json:"geometryWkt"`
	GeoJSON      json.RawMessage  `json:"geojson"`
}
