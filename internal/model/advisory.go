package model

import "time"

type IrrigationSchedule struct {
	Crop              string  `json:"crop"`
	AvgTemp           float64 `json:"avgTemp"`
	DaysPerIrrigation int     `json:"daysPerIrrigation"`
	Notes             string  `json:"notes"`
}

// WaterBalance is the evapotranspiration based irrigation plan. Depths are in mm.
type WaterBalance struct {
	Crop               string    `json:"crop"`
	AvgTemp            *float64  `json:"avgTemp"`
	ET0                float64   `json:"et0"`
	Kc                 float64   `json:"kc"`
	ETc                float64   `json:"etc"`
	RootDepthM         float64   `json:"rootDepthM"`
	TAW                float64   `json:"taw"`
	RAW                float64   `json:"raw"`
	DepthPerEvent      int       `json:"depthPerEvent"`
	RecentRain         float64   `json:"recentRain"`
	WeeklyNeed         int       `json:"weeklyNeed"`
	EventsPerWeek      int       `json:"eventsPerWeek"`
	DaysToDepletion    int       `json:"daysToDepletion"`
	NextIrrigationDate time.Time `json:"nextIrrigationDate"`
}

type CropCycle struct {
	Crop           string    `json:"crop"`
	AvgTemp        *float64  `json:"avgTemp"`
	DaysToMaturity int       `json:"daysToMaturity"`
	PlantingDate   time.Time `json:"plantingDate"`
	MidSeasonDate  time.Time `json:"midSeasonDate"`
	HarvestDate    time.Time `json:"harvestDate"`
}

type PlaceSuggestion struct {
	Label     string  `json:"label"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}
