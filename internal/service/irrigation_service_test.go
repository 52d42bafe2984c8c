package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"agro-service/internal/model"
)

func TestComputeSchedule(t *testing.T) {
	s := ComputeSchedule("rice", ptr(40.0), []float64{20, 20, 20})
	assert.Equal(t, 20.0, s.AvgTemp)
	assert.Equal(t, 6, s.DaysPerIrrigation)
	assert.NotEmpty(t, s.Notes)

	s = ComputeSchedule("Corn", nil, nil)
	assert.Equal(t, 20.0, s.AvgTemp)
	assert.Equal(t, 4, s.DaysPerIrrigation)

	s = ComputeSchedule("wheat", ptr(0.0), []float64{38})
	assert.Equal(t, 8, s.DaysPerIrrigation)

	s = ComputeSchedule("beans", ptr(100.0), []float64{10})
	assert.Equal(t, 1, s.DaysPerIrrigation)
}

func TestComputeWaterBalance(t *testing.T) {
	today := time.Date(2024, 5, 10, 0, 0, 0, 0, time.UTC)

	plan := ComputeWaterBalance("corn", &model.HourlySeries{Temperature2m: model.HourlyValuesOf(20, 20)}, nil, today)
	require.NotNil(t, plan.AvgTemp)
	assert.Equal(t, 20.0, *plan.AvgTemp)
	assert.Equal(t, 3.0, plan.ET0)
	assert.Equal(t, 1.1, plan.Kc)
	assert.Equal(t, 3.3, plan.ETc)
	assert.Equal(t, 120.0, plan.TAW)
	assert.Equal(t, 36.0, plan.RAW)
	assert.Equal(t, 22, plan.DepthPerEvent)
	assert.Equal(t, 23, plan.WeeklyNeed)
	assert.Equal(t, 1, plan.EventsPerWeek)
	assert.Equal(t, 11, plan.DaysToDepletion)
	assert.Equal(t, today.AddDate(0, 0, 11), plan.NextIrrigationDate)
}

func TestComputeWaterBalance_SandyRainyNoTemps(t *testing.T) {
	rain := make(model.HourlyValues, 100)
	for i := range rain {
		v := 0.5
		rain[i] = &v
	}
	sand := model.TextureSandyLoam

	plan := ComputeWaterBalance("rice", &model.HourlySeries{Precipitation: rain}, &model.SoilChemistryRecord{Texture: &sand}, time.Now())

	assert.Nil(t, plan.AvgTemp)
	assert.Equal(t, 4.0, plan.ET0)
	assert.Equal(t, 80.0, plan.TAW)
	assert.Equal(t, 16.0, plan.RAW)
	assert.Equal(t, 10, plan.DepthPerEvent)
	assert.Equal(t, 36.0, plan.RecentRain)
	assert.Equal(t, 1, plan.WeeklyNeed)
	assert.Equal(t, 1, plan.EventsPerWeek)
	assert.Equal(t, 4, plan.DaysToDepletion)
}

func TestComputeWaterBalance_SkipsEmptyHours(t *testing.T) {
	weather := &model.HourlySeries{
		Temperature2m: model.HourlyValues{ptr(30.0), nil, ptr(30.0)},
		Precipitation: model.HourlyValues{nil, ptr(1.0), nil},
	}

	plan := ComputeWaterBalance("corn", weather, nil, time.Now())

	require.NotNil(t, plan.AvgTemp)
	assert.Equal(t, 30.0, *plan.AvgTemp)
	assert.Equal(t, 4.0, plan.ET0)
	assert.Equal(t, 1.0, plan.RecentRain)
}

func TestEstimateDaysToMaturity(t *testing.T) {
	assert.Equal(t, 99, EstimateDaysToMaturity("corn", ptr(20.0), &model.SoilChemistryRecord{
		OrganicMatter: ptr(5.0),
		PH:            ptr(5.0),
	}))
	assert.Equal(t, 114, EstimateDaysToMaturity("Barley", ptr(5.0), nil))
	assert.Equal(t, 100, EstimateDaysToMaturity("lentil", nil, nil))
	assert.Equal(t, 121, EstimateDaysToMaturity("corn", ptr(31.0), nil))
}

func TestIrrigationService_ScheduleUsesStoredReadings(t *testing.T) {
	store := newMemEnvironmentStore()
	require.NoError(t, store.UpsertSections(context.Background(), "farm-1", testFarm, model.EnvironmentSections{
		SoilSensor: &model.SoilSensorSection{MoisturePercent: ptr(40.0)},
		Weather:    &model.WeatherRecord{Hourly: model.HourlySeries{Temperature2m: model.HourlyValuesOf(20, 20, 20)}},
	}))
	svc := NewIrrigationService(store)

	s, err := svc.Schedule(context.Background(), "farm-1", ScheduleInput{Crop: "rice"})
	require.NoError(t, err)
	assert.Equal(t, 6, s.DaysPerIrrigation)

	s, err = svc.Schedule(context.Background(), "farm-1", ScheduleInput{Crop: "rice", MoisturePercent: ptr(0.0)})
	require.NoError(t, err)
	assert.Equal(t, 8, s.DaysPerIrrigation)

	_, err = svc.Schedule(context.Background(), "farm-1", ScheduleInput{Crop: " "})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestIrrigationService_PlanAndCycle(t *testing.T) {
	store := newMemEnvironmentStore()
	clay := model.TextureClay
	require.NoError(t, store.UpsertSections(context.Background(), "farm-1", testFarm, model.EnvironmentSections{
		SoilChemistry: &model.SoilChemistryRecord{Texture: &clay, PH: ptr(6.5)},
		Weather:       &model.WeatherRecord{Hourly: model.HourlySeries{Temperature2m: model.HourlyValuesOf(22, 22)}},
	}))
	svc := NewIrrigationService(store)
	svc.now = func() time.Time { return fixedNow }

	plan, err := svc.Plan(context.Background(), "farm-1", "wheat")
	require.NoError(t, err)
	assert.Equal(t, 140.0, plan.TAW)
	assert.Equal(t, 22.0, *plan.AvgTemp)

	planting := time.Date(2024, 3, 1, 15, 30, 0, 0, time.UTC)
	cycle, err := svc.CropCycle(context.Background(), "farm-1", "wheat", &planting)
	require.NoError(t, err)
	assert.Equal(t, 108, cycle.DaysToMaturity)
	assert.Equal(t, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), cycle.PlantingDate)
	assert.Equal(t, cycle.PlantingDate.AddDate(0, 0, 54), cycle.MidSeasonDate)
	assert.Equal(t, cycle.PlantingDate.AddDate(0, 0, 108), cycle.HarvestDate)

	cycle, err = svc.CropCycle(context.Background(), "unknown-farm", "wheat", nil)
	require.NoError(t, err)
	assert.Equal(t, 120, cycle.DaysToMaturity)
	assert.Equal(t, time.Date(2024, 5, 10, 0, 0, 0, 0, time.UTC), cycle.PlantingDate)
}
