package service

import (
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"agro-service/internal/config"
	"agro-service/internal/geo"
)

func newTestFieldService() *FieldService {
	return NewFieldService(&config.Config{Field: config.FieldConfig{RadiusMeters: 1000, PolygonPoints: 48}})
}

func TestFieldService_BoundaryDefaults(t *testing.T) {
	b, err := newTestFieldService().Boundary(testFarm, nil, nil)
	require.NoError(t, err)

	assert.Len(t, b.Points, 48)
	assert.Equal(t, 1000.0, b.RadiusMeters)
	assert.InEpsilon(t, math.Pi*1e6, b.AreaSqM, 0.01)
	assert.InEpsilon(t, 314.16, b.AreaHectares, 0.01)
	assert.True(t, strings.HasSuffix(b.AreaLabel, " ha"))
	assert.True(t, strings.HasPrefix(b.GeometryWKT, "POLYGON"))
	assert.Contains(t, string(b.GeoJSON), `"Polygon"`)

	for _, p := range b.Points {
		assert.InEpsilon(t, 1000.0, geo.HaversineMeters(testFarm, p), 0.005)
	}
}

func TestFieldService_BoundaryOverrides(t *testing.T) {
	b, err := newTestFieldService().Boundary(testFarm, ptr(250.0), ptr(12))
	require.NoError(t, err)

	assert.Len(t, b.Points, 12)
	assert.Equal(t, 250.0, b.RadiusMeters)
}

func TestFieldService_BoundaryValidation(t *testing.T) {
	svc := newTestFieldService()

	_, err := svc.Boundary(geo.Coordinate{Latitude: -91}, nil, nil)
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.Boundary(testFarm, ptr(0.0), nil)
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.Boundary(testFarm, ptr(math.NaN()), nil)
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.Boundary(testFarm, nil, ptr(2))
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.Boundary(testFarm, nil, ptr(5000))
	assert.ErrorIs(t, err, ErrInvalidInput)
}
