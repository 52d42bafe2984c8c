package service

import (
	"fmt"
	"math"

	"agro-service/internal/config"
	"agro-service/internal/geo"
	"agro-service/internal/model"
)

const maxPolygonPoints = 720

type FieldService struct {
	defaultRadius float64
	defaultPoints int
}

func NewFieldService(cfg *config.Config) *FieldService {
	return &FieldService{
		defaultRadius: cfg.Field.RadiusMeters,
		defaultPoints: cfg.Field.PolygonPoints,
	}
}

// Boundary approximates the field around center as a circle. Nil radius or points use
// the configured defaults.
func (s *FieldService) Boundary(center geo.Coordinate, radiusMeters *float64, points *int) (*model.FieldBoundary, error) {
	if err := center.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	radius := s.defaultRadius
	if radiusMeters != nil {
		radius = *radiusMeters
	}
	if !isFinite(radius) || radius <= 0 {
		return nil, fmt.Errorf("%w: radius must be positive", ErrInvalidInput)
	}
	// A ring must stay within one hemisphere.
	if radius > math.Pi*geo.EarthRadiusMeters/2 {
		return nil, fmt.Errorf("%w: radius too large", ErrInvalidInput)
	}

	n := s.defaultPoints
	if points != nil {
		n = *points
	}
	if n < 3 || n > maxPolygonPoints {
		return nil, fmt.Errorf("%w: points must be between 3 and %d", ErrInvalidInput, maxPolygonPoints)
	}

	ring := geo.GeneratePolygon(center, radius, n)
	area := geo.PolygonAreaSqM(ring)

	wkt, err := geo.ToWKT(ring)
	if err != nil {
		return nil, fmt.Errorf("encode wkt: %w", err)
	}
	geoJSON, err := geo.ToGeoJSON(ring)
	if err != nil {
		return nil, fmt.Errorf("encode geojson: %w", err)
	}

	return &model.FieldBoundary{
		Center:       center,
		RadiusMeters: radius,
		Points:       ring,
		AreaSqM:      roundTo(area, 1),
		AreaHectares: roundTo(geo.SqMToHectares(area), 2),
		AreaLabel:    geo.FormatHectares(area),
		GeometryWKT:  wkt,
		GeoJSON:      geoJSON,
	}, nil
}
