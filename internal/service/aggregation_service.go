package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"agro-service/internal/client"
	"agro-service/internal/config"
	"agro-service/internal/geo"
	"agro-service/internal/model"
)

const ndviWindow = 30 * 24 * time.Hour

type SoilSensorSource interface {
	GetSoil(ctx context.Context, coord geo.Coordinate) (*client.AgroSoil, error)
}

type VegetationSource interface {
	GetNDVIHistory(ctx context.Context, polygonID string, start, end time.Time) ([]client.NDVIPoint, error)
}

type SoilChemistrySource interface {
	GetTopsoil(ctx context.Context, coord geo.Coordinate) (map[string]client.LayerMean, error)
}

type WeatherSource interface {
	GetHourly(ctx context.Context, coord geo.Coordinate) (*model.HourlySeries, error)
}

type Sources struct {
	SoilSensor    SoilSensorSource
	Vegetation    VegetationSource
	SoilChemistry SoilChemistrySource
	Weather       WeatherSource
}

type AggregateOptions struct {
	StoreResult   bool
	NDVIPolygonID string
}

type AggregationService struct {
	sources Sources
	store   EnvironmentStore
	timeout time.Duration
	log     zerolog.Logger
	now     func() time.Time
}

func NewAggregationService(cfg *config.Config, sources Sources, store EnvironmentStore, log zerolog.Logger) *AggregationService {
	return &AggregationService{
		sources: sources,
		store:   store,
		timeout: cfg.ExternalServices.SourceTimeout,
		log:     log,
		now:     time.Now,
	}
}

// sourceResult is written by exactly one fetch goroutine.
type sourceResult struct {
	status model.SourceStatus
	err    error
}

// Aggregate fetches every source concurrently and merges whatever succeeded. A failed
// source leaves its section nil. The call fails only when no source produced data.
// When the result cannot be stored the snapshot is still returned together with an
// error wrapping ErrPersistenceFailure.
func (s *AggregationService) Aggregate(ctx context.Context, farmID string, coord geo.Coordinate, opts AggregateOptions) (*model.EnvironmentalSnapshot, error) {
	farmID = strings.TrimSpace(farmID)
	if err := validateFarmID(farmID); err != nil {
		return nil, err
	}
	if err := coord.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	now := s.now().UTC()
	var (
		sections                                  model.EnvironmentSections
		soilRes, vegRes, chemistryRes, weatherRes sourceResult
		g                                         errgroup.Group
	)

	g.Go(func() error {
		sctx, cancel := context.WithTimeout(ctx, s.timeout)
		defer cancel()
		soil, err := s.sources.SoilSensor.GetSoil(sctx, coord)
		if err != nil {
			soilRes = failed(err)
			return nil
		}
		sections.SoilSensor = normalizeSoilSensor(soil, now)
		soilRes = produced(sections.SoilSensor != nil)
		return nil
	})

	polygonID := strings.TrimSpace(opts.NDVIPolygonID)
	if polygonID == "" {
		vegRes = sourceResult{status: model.SourceStatus{State: model.SourceStateSkipped}}
	} else {
		g.Go(func() error {
			sctx, cancel := context.WithTimeout(ctx, s.timeout)
			defer cancel()
			points, err := s.sources.Vegetation.GetNDVIHistory(sctx, polygonID, now.Add(-ndviWindow), now)
			if err != nil {
				vegRes = failed(err)
				return nil
			}
			if reading := latestNDVI(points); reading != nil {
				sections.Vegetation = &model.VegetationSection{
					PolygonID: polygonID,
					NDVI:      reading,
					FetchedAt: now,
					Provider:  providerAgro,
				}
			}
			vegRes = produced(sections.Vegetation != nil)
			return nil
		})
	}

	g.Go(func() error {
		sctx, cancel := context.WithTimeout(ctx, s.timeout)
		defer cancel()
		layers, err := s.sources.SoilChemistry.GetTopsoil(sctx, coord)
		if err != nil {
			chemistryRes = failed(err)
			return nil
		}
		sections.SoilChemistry = normalizeSoilChemistry(layers, now)
		chemistryRes = produced(sections.SoilChemistry != nil)
		return nil
	})

	g.Go(func() error {
		sctx, cancel := context.WithTimeout(ctx, s.timeout)
		defer cancel()
		series, err := s.sources.Weather.GetHourly(sctx, coord)
		if err != nil {
			weatherRes = failed(err)
			return nil
		}
		sections.Weather = normalizeWeather(series, now)
		weatherRes = produced(sections.Weather != nil)
		return nil
	})

	_ = g.Wait()

	results := map[model.SourceName]sourceResult{
		model.SourceSoilSensor:    soilRes,
		model.SourceVegetation:    vegRes,
		model.SourceSoilChemistry: chemistryRes,
		model.SourceWeather:       weatherRes,
	}
	statuses := make(map[model.SourceName]model.SourceStatus, len(results))
	var errs []error
	for name, res := range results {
		statuses[name] = res.status
		if res.err != nil {
			s.log.Warn().
				Err(res.err).
				Str("farm_id", farmID).
				Str("source", string(name)).
				Msg("source unavailable")
			errs = append(errs, fmt.Errorf("%s: %w", name, res.err))
		}
	}

	if sections.Empty() {
		if len(errs) == 0 {
			return nil, ErrAllSourcesFailed
		}
		return nil, fmt.Errorf("%w: %w", ErrAllSourcesFailed, errors.Join(errs...))
	}

	snapshot := &model.EnvironmentalSnapshot{
		FarmID:        farmID,
		Location:      coord,
		SoilMoisture:  model.NewSoilMoistureRecord(sections.SoilSensor, sections.Vegetation),
		SoilChemistry: sections.SoilChemistry,
		Weather:       sections.Weather,
		Sources:       statuses,
		FetchedAt:     now,
	}

	if !opts.StoreResult {
		return snapshot, nil
	}
	if err := s.store.UpsertSections(ctx, farmID, coord, sections); err != nil {
		s.log.Error().Err(err).Str("farm_id", farmID).Msg("failed to store environment")
		return snapshot, fmt.Errorf("%w: %v", ErrPersistenceFailure, err)
	}
	snapshot.Persisted = true
	return snapshot, nil
}

// Stored returns the last persisted document of a farm.
func (s *AggregationService) Stored(ctx context.Context, farmID string) (*model.FarmEnvironmentDocument, error) {
	farmID = strings.TrimSpace(farmID)
	if err := validateFarmID(farmID); err != nil {
		return nil, err
	}
	doc, err := s.store.Get(ctx, farmID)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, ErrNotFound
	}
	return doc, nil
}

func failed(err error) sourceResult {
	return sourceResult{
		status: model.SourceStatus{State: model.SourceStateUnavailable, Error: err.Error()},
		err:    err,
	}
}

func produced(ok bool) sourceResult {
	if ok {
		return sourceResult{status: model.SourceStatus{State: model.SourceStateOK}}
	}
	return sourceResult{status: model.SourceStatus{State: model.SourceStateEmpty}}
}
