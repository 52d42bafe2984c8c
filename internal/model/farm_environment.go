package model

import (
	"time"

	"gorm.io/datatypes"
)

// Column names of the per-source sections. Each source writes only its own column.
const (
	ColumnSoilSensor    = "soil_sensor"
	ColumnVegetation    = "vegetation"
	ColumnSoilChemistry = "soil_chemistry"
	ColumnWeather       = "weather"
)

type FarmEnvironment struct {
	FarmID        string         `gorm:"type:varchar(128);primaryKey" json:"farm_id"`
	Latitude      *float64       `json:"latitude"`
	Longitude     *float64       `json:"longitude"`
	SoilSensor    datatypes.JSON `gorm:"column:soil_sensor" json:"soil_sensor"`
	Vegetation    datatypes.JSON `gorm:"column:vegetation" json:"vegetation"`
	SoilChemistry datatypes.JSON `gorm:"column:soil_chemistry" json:"soil_chemistry"`
	Weather       datatypes.JSON `gorm:"column:weather" json:"weather"`
	CreatedAt     time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
}

func (FarmEnvironment) TableName() string {
	return "farm_environments"
}
