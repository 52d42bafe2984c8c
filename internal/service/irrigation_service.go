package service

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"agro-service/internal/model"
	"agro-service/internal/utils"
)

const (
	scheduleNotes         = "Heuristic schedule. Calibrate with local evapotranspiration data."
	defaultScheduleTemp   = 20.0
	defaultMoistureAdj    = 2
	fallbackET0           = 4.0
	recentRainHours       = 72
	effectiveRainFraction = 0.8
)

var (
	scheduleBaseDays = map[string]int{"rice": 8, "corn": 6, "maize": 6}
	cropKc           = map[string]float64{"corn": 1.1, "maize": 1.1, "wheat": 1.0, "rice": 1.05, "soybean": 1.05, "barley": 0.95}
	rootingDepthM    = map[string]float64{"corn": 0.6, "maize": 0.6, "wheat": 0.5, "rice": 0.4, "soybean": 0.5, "barley": 0.5}
	maturityDays     = map[string]float64{"corn": 110, "maize": 110, "wheat": 120, "rice": 135, "soybean": 105, "barley": 95}
)

func lookup[T any](m map[string]T, crop string, fallback T) T {
	if v, ok := m[utils.NormalizeCropKey(crop)]; ok {
		return v
	}
	return fallback
}

// ComputeSchedule derives the days between irrigations from the crop, soil moisture
// and hourly temperatures.
func ComputeSchedule(crop string, moisturePercent *float64, hourlyTemps []float64) model.IrrigationSchedule {
	avgTemp, ok := mean(hourlyTemps)
	if !ok {
		avgTemp = defaultScheduleTemp
	}

	base := lookup(scheduleBaseDays, crop, 4)
	tempAdj := int(math.Max(0, roundHalfUp((avgTemp-18)/5)))
	moistureAdj := defaultMoistureAdj
	if m := finitePtr(moisturePercent); m != nil {
		moistureAdj = int(roundHalfUp(*m / 20))
	}

	days := base + tempAdj - moistureAdj
	if days < 1 {
		days = 1
	}

	return model.IrrigationSchedule{
		Crop:              crop,
		AvgTemp:           roundTo(avgTemp, 1),
		DaysPerIrrigation: days,
		Notes:             scheduleNotes,
	}
}

// totalAvailableWater returns mm of water per metre of soil for a texture class.
func totalAvailableWater(texture *model.SoilTexture) float64 {
	if texture == nil {
		return 120
	}
	t := strings.ToLower(string(*texture))
	switch {
	case strings.Contains(t, "sand"):
		return 80
	case strings.Contains(t, "clay"):
		return 140
	}
	return 120
}

// ComputeWaterBalance builds an ET based plan. Without temperatures ET0 falls back to
// 4 mm/day; without soil texture a loam is assumed.
func ComputeWaterBalance(crop string, weather *model.HourlySeries, soil *model.SoilChemistryRecord, today time.Time) model.WaterBalance {
	var temps []float64
	var rain model.HourlyValues
	if weather != nil {
		temps = weather.Temperature2m.Present()
		rain = weather.Precipitation
	}

	plan := model.WaterBalance{Crop: crop, ET0: fallbackET0}
	if avg, ok := mean(temps); ok {
		rounded := roundTo(avg, 1)
		plan.AvgTemp = &rounded
		plan.ET0 = clamp(0.1*(avg+10), 2, 8)
	}

	var texture *model.SoilTexture
	if soil != nil {
		texture = soil.Texture
	}

	plan.Kc = lookup(cropKc, crop, 0.95)
	plan.RootDepthM = lookup(rootingDepthM, crop, 0.5)
	plan.TAW = totalAvailableWater(texture)
	plan.RAW = 0.5 * plan.TAW * plan.RootDepthM
	plan.ETc = plan.ET0 * plan.Kc

	depth := int(roundHalfUp(clamp(plan.RAW*0.6, 10, 40)))
	plan.DepthPerEvent = depth

	if len(rain) > recentRainHours {
		rain = rain[len(rain)-recentRainHours:]
	}
	plan.RecentRain = sumFinite(rain.Present())
	effectiveRain := math.Max(0, plan.RecentRain*effectiveRainFraction)

	plan.WeeklyNeed = int(math.Max(0, roundHalfUp(plan.ETc*7-effectiveRain)))
	plan.EventsPerWeek = int(math.Max(1, roundHalfUp(float64(plan.WeeklyNeed)/float64(depth))))
	plan.DaysToDepletion = int(math.Max(1, roundHalfUp(plan.RAW/math.Max(1, plan.ETc))))
	plan.NextIrrigationDate = today.AddDate(0, 0, plan.DaysToDepletion)

	plan.ET0 = roundTo(plan.ET0, 2)
	plan.ETc = roundTo(plan.ETc, 2)
	plan.RAW = roundTo(plan.RAW, 1)
	plan.RecentRain = roundTo(plan.RecentRain, 1)
	return plan
}

// EstimateDaysToMaturity adjusts the crop's base season length for temperature and soil.
// The result is never below 60 days.
func EstimateDaysToMaturity(crop string, avgTemp *float64, soil *model.SoilChemistryRecord) int {
	days := lookup(maturityDays, crop, 100)

	if t := finitePtr(avgTemp); t != nil {
		switch {
		case *t >= 18 && *t <= 25:
			days *= 0.9
		case *t < 10:
			days *= 1.2
		case *t > 30:
			days *= 1.1
		}
	}

	if soil != nil {
		if om := finitePtr(soil.OrganicMatter); om != nil && *om > 4 {
			days *= 0.95
		}
		if ph := finitePtr(soil.PH); ph != nil && (*ph < 5.5 || *ph > 7.5) {
			days *= 1.05
		}
	}

	return int(math.Max(60, roundHalfUp(days)))
}

type IrrigationService struct {
	store EnvironmentStore
	now   func() time.Time
}

func NewIrrigationService(store EnvironmentStore) *IrrigationService {
	return &IrrigationService{store: store, now: time.Now}
}

type ScheduleInput struct {
	Crop            string
	MoisturePercent *float64
	HourlyTemps     []float64
}

// Schedule fills omitted moisture and temperatures from the farm's stored readings.
func (s *IrrigationService) Schedule(ctx context.Context, farmID string, input ScheduleInput) (*model.IrrigationSchedule, error) {
	crop, err := requireCrop(farmID, input.Crop)
	if err != nil {
		return nil, err
	}

	moisture := input.MoisturePercent
	temps := input.HourlyTemps
	if moisture == nil || temps == nil {
		doc, err := s.store.Get(ctx, strings.TrimSpace(farmID))
		if err != nil {
			return nil, err
		}
		if doc != nil {
			if moisture == nil && doc.Sections.SoilSensor != nil {
				moisture = doc.Sections.SoilSensor.MoisturePercent
			}
			if temps == nil && doc.Sections.Weather != nil {
				temps = doc.Sections.Weather.Hourly.Temperature2m.Present()
			}
		}
	}

	schedule := ComputeSchedule(crop, moisture, temps)
	return &schedule, nil
}

func (s *IrrigationService) Plan(ctx context.Context, farmID, crop string) (*model.WaterBalance, error) {
	crop, err := requireCrop(farmID, crop)
	if err != nil {
		return nil, err
	}

	doc, err := s.store.Get(ctx, strings.TrimSpace(farmID))
	if err != nil {
		return nil, err
	}
	var weather *model.HourlySeries
	var soil *model.SoilChemistryRecord
	if doc != nil {
		if doc.Sections.Weather != nil {
			weather = &doc.Sections.Weather.Hourly
		}
		soil = doc.Sections.SoilChemistry
	}

	plan := ComputeWaterBalance(crop, weather, soil, startOfDay(s.now()))
	return &plan, nil
}

// CropCycle estimates the season from plantingDate, or from today when it is nil.
func (s *IrrigationService) CropCycle(ctx context.Context, farmID, crop string, plantingDate *time.Time) (*model.CropCycle, error) {
	crop, err := requireCrop(farmID, crop)
	if err != nil {
		return nil, err
	}

	doc, err := s.store.Get(ctx, strings.TrimSpace(farmID))
	if err != nil {
		return nil, err
	}
	var avgTemp *float64
	var soil *model.SoilChemistryRecord
	if doc != nil {
		if doc.Sections.Weather != nil {
			if avg, ok := mean(doc.Sections.Weather.Hourly.Temperature2m.Present()); ok {
				rounded := roundTo(avg, 1)
				avgTemp = &rounded
			}
		}
		soil = doc.Sections.SoilChemistry
	}

	start := startOfDay(s.now())
	if plantingDate != nil {
		start = startOfDay(*plantingDate)
	}
	days := EstimateDaysToMaturity(crop, avgTemp, soil)

	return &model.CropCycle{
		Crop:           crop,
		AvgTemp:        avgTemp,
		DaysToMaturity: days,
		PlantingDate:   start,
		MidSeasonDate:  start.AddDate(0, 0, int(roundHalfUp(float64(days)/2))),
		HarvestDate:    start.AddDate(0, 0, days),
	}, nil
}

func requireCrop(farmID, crop string) (string, error) {
	if err := validateFarmID(strings.TrimSpace(farmID)); err != nil {
		return "", err
	}
	crop = strings.TrimSpace(crop)
	if crop == "" {
		return "", fmt.Errorf("%w: crop is required", ErrInvalidInput)
	}
	return crop, nil
}

func startOfDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
