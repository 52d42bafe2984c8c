package model

import (
	"time"

	"gorm.io/datatypes"
)

type WaterLevel string

const (
	WaterLow    WaterLevel = "low"
	WaterMedium WaterLevel = "medium"
	WaterHigh   WaterLevel = "high"
)

func (w WaterLevel) Valid() bool {
	switch w {
	case WaterLow, WaterMedium, WaterHigh:
		return true
	}
	return false
}

type CropHistoryEntry struct {
	Crop string `json:"crop"`
	Year int    `json:"year,omitempty"`
}

type CropHints struct {
	Water     WaterLevel `json:"water"`
	BaseKc    float64    `json:"baseKc"`
	CostIndex int        `json:"costIndex"`
}

type CropRecommendation struct {
	Crop  string    `json:"crop"`
	Key   string    `json:"key"`
	Score int       `json:"score"`
	Hints CropHints `json:"hints"`
}

type CropRecommendationRecord struct {
	FarmID            string                                  `gorm:"type:varchar(128);primaryKey" json:"farmId"`
	Latitude          *float64                                `json:"latitude"`
	Longitude         *float64                                `json:"longitude"`
	WaterAvailability WaterLevel                              `gorm:"type:varchar(16)" json:"waterAvailability"`
	MaxCostIndex      int                                     `json:"maxCostIndex"`
	AvgTemp           *float64                                `json:"avgTemp"`
	History           datatypes.JSONSlice[CropHistoryEntry]   `json:"history"`
	Recommendations   datatypes.JSONSlice[CropRecommendation] `json:"recommendations"`
	GeneratedAt       time.Time                               `json:"generatedAt"`
}

func (CropRecommendationRecord) TableName() string {
	return "crop_recommendations"
}
