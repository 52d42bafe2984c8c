package service

import (
	"math"
	"time"

	"agro-service/internal/client"
	"agro-service/internal/model"
)

const (
	kelvinOffset     = 273.15
	socToOMFactor    = 1.724
	providerAgro     = "agromonitoring"
	providerSoilGrid = "soilgrids"
	providerMeteo    = "open-meteo"
)

// roundHalfUp rounds halves toward positive infinity.
func roundHalfUp(v float64) float64 {
	return math.Floor(v + 0.5)
}

func roundTo(v float64, decimals int) float64 {
	p := math.Pow(10, float64(decimals))
	return roundHalfUp(v*p) / p
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// finitePtr returns nil for nil or non-finite input.
func finitePtr(v *float64) *float64 {
	if v == nil || !isFinite(*v) {
		return nil
	}
	return v
}

func roundedPtr(v *float64, decimals int) *float64 {
	if v = finitePtr(v); v == nil {
		return nil
	}
	r := roundTo(*v, decimals)
	return &r
}

// MoistureToPercent converts a volumetric fraction (0..1) to percent with 2 decimals.
func MoistureToPercent(fraction float64) float64 {
	return roundTo(fraction*100, 2)
}

func KelvinToCelsius(kelvin float64) float64 {
	return roundTo(kelvin-kelvinOffset, 1)
}

// OrganicMatterFromSOC converts soil organic carbon in g/kg to organic matter percent.
func OrganicMatterFromSOC(socGPerKg float64) float64 {
	return roundTo((socGPerKg/10)*socToOMFactor, 2)
}

// ClassifyTexture returns nil unless all three fractions are known and finite.
func ClassifyTexture(sand, silt, clay *float64) *model.SoilTexture {
	if finitePtr(sand) == nil || finitePtr(silt) == nil || finitePtr(clay) == nil {
		return nil
	}
	s, si, c := *sand, *silt, *clay

	var texture model.SoilTexture
	switch {
	case c >= 40:
		texture = model.TextureClay
	case s >= 70:
		texture = model.TextureSand
	case si >= 80:
		texture = model.TextureSilt
	case s >= 43 && s <= 85 && c >= 7 && c <= 20:
		texture = model.TextureSandyLoam
	case c >= 20 && c <= 35 && s <= 45:
		texture = model.TextureClayLoam
	default:
		texture = model.TextureLoam
	}
	return &texture
}

func normalizeSoilSensor(soil *client.AgroSoil, fetchedAt time.Time) *model.SoilSensorSection {
	if soil == nil {
		return nil
	}
	section := &model.SoilSensorSection{FetchedAt: fetchedAt, Provider: providerAgro}
	if m := finitePtr(soil.Moisture); m != nil {
		v := MoistureToPercent(*m)
		section.MoisturePercent = &v
	}
	if t := finitePtr(soil.T0); t != nil {
		v := KelvinToCelsius(*t)
		section.SurfaceTempC = &v
	}
	if t := finitePtr(soil.T10); t != nil {
		v := KelvinToCelsius(*t)
		section.Temp10cmC = &v
	}
	if section.MoisturePercent == nil && section.SurfaceTempC == nil && section.Temp10cmC == nil {
		return nil
	}
	return section
}

// latestNDVI picks the entry with the largest timestamp that carries a finite mean.
func latestNDVI(points []client.NDVIPoint) *model.NDVIReading {
	var latest *client.NDVIPoint
	for i := range points {
		p := &points[i]
		if finitePtr(p.Mean) == nil {
			continue
		}
		if latest == nil || p.Dt > latest.Dt {
			latest = p
		}
	}
	if latest == nil {
		return nil
	}
	return &model.NDVIReading{Date: latest.Dt, Value: roundedPtr(latest.Mean, 3)}
}

// scaledMean divides the SoilGrids mapped value by its conversion factor when one is given.
func scaledMean(layers map[string]client.LayerMean, property string) *float64 {
	layer, ok := layers[property]
	if !ok {
		return nil
	}
	mean := finitePtr(layer.Mean)
	if mean == nil {
		return nil
	}
	v := *mean
	if layer.DFactor > 0 {
		v /= layer.DFactor
	}
	return &v
}

func normalizeSoilChemistry(layers map[string]client.LayerMean, fetchedAt time.Time) *model.SoilChemistryRecord {
	sand := scaledMean(layers, client.PropertySand)
	silt := scaledMean(layers, client.PropertySilt)
	clay := scaledMean(layers, client.PropertyClay)

	record := &model.SoilChemistryRecord{
		PH:      roundedPtr(scaledMean(layers, client.PropertyPH), 2),
		Texture: ClassifyTexture(sand, silt, clay),
		Fractions: model.SoilFractions{
			Sand: roundedPtr(sand, 1),
			Silt: roundedPtr(silt, 1),
			Clay: roundedPtr(clay, 1),
		},
		FetchedAt: fetchedAt,
		Provider:  providerSoilGrid,
	}
	if soc := scaledMean(layers, client.PropertySOC); soc != nil {
		om := OrganicMatterFromSOC(*soc)
		record.OrganicMatter = &om
	}

	if record.PH == nil && record.OrganicMatter == nil && sand == nil && silt == nil && clay == nil {
		return nil
	}
	return record
}

func normalizeWeather(series *model.HourlySeries, fetchedAt time.Time) *model.WeatherRecord {
	if series == nil || len(series.Time) == 0 {
		return nil
	}
	return &model.WeatherRecord{Hourly: *series, FetchedAt: fetchedAt, Provider: providerMeteo}
}

func mean(values []float64) (float64, bool) {
	var sum float64
	var n int
	for _, v := range values {
		if !isFinite(v) {
			continue
		}
		sum += v
		n++
	}
	if n == 0 {
		return 0, false
	}
	return sum / float64(n), true
}

func sumFinite(values []float64) float64 {
	var sum float64
	for _, v := range values {
		if isFinite(v) {
			sum += v
		}
	}
	return sum
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
