package model

import (
	"math"
	"time"

	"agro-service/internal/geo"
)

type SoilTexture string

const (
	TextureClay      SoilTexture = "clay"
	TextureSand      SoilTexture = "sand"
	TextureSilt      SoilTexture = "silt"
	TextureSandyLoam SoilTexture = "sandy loam"
	TextureClayLoam  SoilTexture = "clay loam"
	TextureLoam      SoilTexture = "loam"
)

type SourceName string

const (
	SourceSoilSensor    SourceName = "soil_sensor"
	SourceVegetation    SourceName = "vegetation"
	SourceSoilChemistry SourceName = "soil_chemistry"
	SourceWeather       SourceName = "weather"
)

type SourceState string

const (
	SourceStateOK          SourceState = "ok"
	SourceStateUnavailable SourceState = "unavailable"
	SourceStateSkipped     SourceState = "skipped"
	SourceStateEmpty       SourceState = "empty"
)

type SourceStatus struct {
	State SourceState `json:"state"`
	Error string      `json:"error,omitempty"`
}

type NDVIReading struct {
	Date  int64    `json:"date"`
	Value *float64 `json:"value"`
}

// SoilSensorSection is owned by the soil-sensor source.
type SoilSensorSection struct {
	MoisturePercent *float64  `json:"moisturePercent"`
	SurfaceTempC    *float64  `json:"surfaceTempC"`
	Temp10cmC       *float64  `json:"temp10cmC"`
	FetchedAt       time.Time `json:"fetchedAt"`
	Provider        string    `json:"provider"`
}

// VegetationSection is owned by the vegetation index source.
type VegetationSection struct {
	PolygonID string       `json:"polygonId"`
	NDVI      *NDVIReading `json:"ndvi"`
	FetchedAt time.Time    `json:"fetchedAt"`
	Provider  string       `json:"provider"`
}

type SoilFractions struct {
	Sand *float64 `json:"sand"`
	Silt *float64 `json:"silt"`
	Clay *float64 `json:"clay"`
}

type SoilChemistryRecord struct {
	PH            *float64      `json:"ph"`
	OrganicMatter *float64      `json:"organicMatter"`
	Texture       *SoilTexture  `json:"texture"`
	Fractions     SoilFractions `json:"fractions"`
	FetchedAt     time.Time     `json:"fetchedAt"`
	Provider      string        `json:"provider"`
}

// HourlyValues is one hourly series as the provider sent it. A nil entry is an hour
// the provider left empty.
type HourlyValues []*float64

func HourlyValuesOf(values ...float64) HourlyValues {
	out := make(HourlyValues, len(values))
	for i := range values {
		v := values[i]
		out[i] = &v
	}
	return out
}

// Present returns the finite values in order, skipping empty hours.
func (h HourlyValues) Present() []float64 {
	out := make([]float64, 0, len(h))
	for _, v := range h {
		if v == nil || math.IsNaN(*v) || math.IsInf(*v, 0) {
			continue
		}
		out = append(out, *v)
	}
	return out
}

type HourlySeries struct {
	Time          []string     `json:"time"`
	Temperature2m HourlyValues `json:"temperature_2m"`
	Precipitation HourlyValues `json:"precipitation"`
}

type WeatherRecord struct {
	Hourly    HourlySeries `json:"hourly"`
	FetchedAt time.Time    `json:"fetchedAt"`
	Provider  string       `json:"provider"`
}

// EnvironmentSections holds one entry per source; nil means the source contributed nothing.
type EnvironmentSections struct {
	SoilSensor    *SoilSensorSection   `json:"soilSensor,omitempty"`
	Vegetation    *VegetationSection   `json:"vegetation,omitempty"`
	SoilChemistry *SoilChemistryRecord `json:"soilChemistry,omitempty"`
	Weather       *WeatherRecord       `json:"weather,omitempty"`
}

func (s EnvironmentSections) Empty() bool {
	return s.SoilSensor == nil && s.Vegetation == nil && s.SoilChemistry == nil && s.Weather == nil
}

// SoilMoistureRecord is the combined soil-sensor and vegetation view returned to callers.
type SoilMoistureRecord struct {
	MoisturePercent *float64     `json:"moisturePercent"`
	SurfaceTempC    *float64     `json:"surfaceTempC"`
	Temp10cmC       *float64     `json:"temp10cmC"`
	NDVI            *NDVIReading `json:"ndvi"`
	FetchedAt       time.Time    `json:"fetchedAt"`
	Provider        string       `json:"provider"`
}

func NewSoilMoistureRecord(soil *SoilSensorSection, vegetation *VegetationSection) *SoilMoistureRecord {
	if soil == nil && vegetation == nil {
		return nil
	}
	record := &SoilMoistureRecord{}
	if soil != nil {
		record.MoisturePercent = soil.MoisturePercent
		record.SurfaceTempC = soil.SurfaceTempC
		record.Temp10cmC = soil.Temp10cmC
		record.FetchedAt = soil.FetchedAt
		record.Provider = soil.Provider
	}
	if vegetation != nil {
		record.NDVI = vegetation.NDVI
		if record.Provider == "" {
			record.FetchedAt = vegetation.FetchedAt
			record.Provider = vegetation.Provider
		}
	}
	return record
}

type EnvironmentalSnapshot struct {
	FarmID        string                      `json:"farmId"`
	Location      geo.Coordinate              `json:"location"`
	SoilMoisture  *SoilMoistureRecord         `json:"soilMoisture"`
	SoilChemistry *SoilChemistryRecord        `json:"soilChemistry"`
	Weather       *WeatherRecord              `json:"weather"`
	Sources       map[SourceName]SourceStatus `json:"sources"`
	Persisted     bool                        `json:"persisted"`
	FetchedAt     time.Time                   `json:"fetchedAt"`
}

// FarmEnvironmentDocument is the decoded per-farm document as read back from a store.
type FarmEnvironmentDocument struct {
	FarmID    string              `json:"farmId"`
	Location  *geo.Coordinate     `json:"location"`
	Sections  EnvironmentSections `json:"sections"`
	UpdatedAt time.Time           `json:"updatedAt"`
}

func (d *FarmEnvironmentDocument) SoilMoisture() *SoilMoistureRecord {
	return NewSoilMoistureRecord(d.Sections.SoilSensor, d.Sections.Vegetation)
}
