package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"gorm.io/datatypes"

	"agro-service/internal/geo"
	"agro-service/internal/model"
	"agro-service/internal/utils"
)

const (
	defaultMaxCostIndex = 3
	maxRecommendations  = 5
	baseCropScore       = 50
	rotationPenalty     = 15
)

type CatalogCrop struct {
	Crop        string
	Key         string
	BaseKc      float64
	WaterDemand model.WaterLevel
	CostIndex   int
	TempMin     float64
	TempMax     float64
}

// CropCatalog is ordered; ties in scoring keep this order.
var CropCatalog = []CatalogCrop{
	{Crop: "Corn", Key: "corn", BaseKc: 1.1, WaterDemand: model.WaterHigh, CostIndex: 3, TempMin: 15, TempMax: 30},
	{Crop: "Wheat", Key: "wheat", BaseKc: 1.0, WaterDemand: model.WaterMedium, CostIndex: 2, TempMin: 5, TempMax: 25},
	{Crop: "Rice", Key: "rice", BaseKc: 1.05, WaterDemand: model.WaterHigh, CostIndex: 3, TempMin: 18, TempMax: 35},
	{Crop: "Soybean", Key: "soybean", BaseKc: 1.05, WaterDemand: model.WaterMedium, CostIndex: 2, TempMin: 10, TempMax: 30},
	{Crop: "Barley", Key: "barley", BaseKc: 0.95, WaterDemand: model.WaterLow, CostIndex: 1, TempMin: 3, TempMax: 22},
	{Crop: "Sorghum", Key: "sorghum", BaseKc: 0.9, WaterDemand: model.WaterLow, CostIndex: 1, TempMin: 15, TempMax: 35},
}

type CropScoringInput struct {
	WaterAvailability model.WaterLevel
	CropHistory       []model.CropHistoryEntry
	MaxCostIndex      int
	AvgTemp           *float64
}

// ScoreCrops ranks the catalog against the farm's conditions and returns at most five crops.
func ScoreCrops(catalog []CatalogCrop, input CropScoringInput) []model.CropRecommendation {
	lastCrop := mostRecentCrop(input.CropHistory)

	out := make([]model.CropRecommendation, 0, len(catalog))
	for _, c := range catalog {
		if c.CostIndex > input.MaxCostIndex {
			continue
		}

		score := baseCropScore + waterAdjustment(input.WaterAvailability, c.WaterDemand)

		if lastCrop != "" && c.Key == lastCrop {
			score -= rotationPenalty
		}

		if input.AvgTemp != nil {
			if *input.AvgTemp >= c.TempMin && *input.AvgTemp <= c.TempMax {
				score += 10
			} else {
				score -= 10
			}
		}

		score += (3 - c.CostIndex) * 3

		out = append(out, model.CropRecommendation{
			Crop:  c.Crop,
			Key:   c.Key,
			Score: clampScore(score),
			Hints: model.CropHints{
				Water:     c.WaterDemand,
				BaseKc:    c.BaseKc,
				CostIndex: c.CostIndex,
			},
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Score > out[j].Score
	})
	if len(out) > maxRecommendations {
		out = out[:maxRecommendations]
	}
	return out
}

func waterAdjustment(available, demand model.WaterLevel) int {
	switch {
	case available == model.WaterLow && demand == model.WaterLow:
		return 20
	case available == model.WaterLow && demand == model.WaterHigh:
		return -20
	case available == model.WaterHigh && demand != model.WaterHigh:
		return -5
	case available == model.WaterMedium && demand == model.WaterMedium:
		return 10
	}
	return 0
}

// mostRecentCrop returns the normalized crop of the first entry with the highest year.
// Entries without a year count as year zero.
func mostRecentCrop(history []model.CropHistoryEntry) string {
	if len(history) == 0 {
		return ""
	}
	latest := 0
	for i, h := range history {
		if h.Year > history[latest].Year {
			latest = i
		}
	}
	return utils.NormalizeCropKey(history[latest].Crop)
}

func clampScore(score int) int {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

type CropService struct {
	store RecommendationStore
	now   func() time.Time
}

func NewCropService(store RecommendationStore) *CropService {
	return &CropService{store: store, now: time.Now}
}

type RecommendCropsInput struct {
	Location          *geo.Coordinate
	WaterAvailability string
	History           []model.CropHistoryEntry
	MaxCostIndex      *int
	AvgTemp           *float64
}

// Recommend scores the catalog and stores the result for the farm. A store failure
// returns the record together with an error wrapping ErrPersistenceFailure.
func (s *CropService) Recommend(ctx context.Context, farmID string, input RecommendCropsInput) (*model.CropRecommendationRecord, error) {
	farmID = strings.TrimSpace(farmID)
	if err := validateFarmID(farmID); err != nil {
		return nil, err
	}

	water := model.WaterMedium
	if raw := strings.TrimSpace(strings.ToLower(input.WaterAvailability)); raw != "" {
		water = model.WaterLevel(raw)
		if !water.Valid() {
			return nil, fmt.Errorf("%w: waterAvailability must be low, medium or high", ErrInvalidInput)
		}
	}

	maxCost := defaultMaxCostIndex
	if input.MaxCostIndex != nil {
		maxCost = *input.MaxCostIndex
	}

	if input.AvgTemp != nil && !isFinite(*input.AvgTemp) {
		return nil, fmt.Errorf("%w: avgTemp must be finite", ErrInvalidInput)
	}

	history := input.History
	if history == nil {
		history = []model.CropHistoryEntry{}
	}

	record := &model.CropRecommendationRecord{
		FarmID:            farmID,
		WaterAvailability: water,
		MaxCostIndex:      maxCost,
		AvgTemp:           input.AvgTemp,
		History:           datatypes.JSONSlice[model.CropHistoryEntry](history),
		Recommendations: datatypes.JSONSlice[model.CropRecommendation](ScoreCrops(CropCatalog, CropScoringInput{
			WaterAvailability: water,
			CropHistory:       history,
			MaxCostIndex:      maxCost,
			AvgTemp:           input.AvgTemp,
		})),
		GeneratedAt: s.now().UTC(),
	}
	if input.Location != nil {
		if err := input.Location.Validate(); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
		lat, lon := input.Location.Latitude, input.Location.Longitude
		record.Latitude = &lat
		record.Longitude = &lon
	}

	if err := s.store.Upsert(ctx, record); err != nil {
		return record, fmt.Errorf("%w: %v", ErrPersistenceFailure, err)
	}
	return record, nil
}

func (s *CropService) Latest(ctx context.Context, farmID string) (*model.CropRecommendationRecord, error) {
	farmID = strings.TrimSpace(farmID)
	if err := validateFarmID(farmID); err != nil {
		return nil, err
	}
	record, err := s.store.Get(ctx, farmID)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, ErrNotFound
	}
	return record, nil
}
