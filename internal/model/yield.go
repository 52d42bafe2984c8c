package model

import (
	"time"

	"gorm.io/datatypes"
)

type YieldEntry struct {
	Year  int     `json:"year"`
	Yield float64 `json:"yield"`
	Crop  string  `json:"crop,omitempty"`
}

type YieldSummary struct {
	Entries      int       `json:"entries"`
	EarliestYear *int      `json:"earliestYear"`
	LatestYear   *int      `json:"latestYear"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// YieldHistory is the imported harvest record of a farm. An import replaces the
// previous entries.
type YieldHistory struct {
	FarmID  string                           `gorm:"type:varchar(128);primaryKey" json:"farmId"`
	Summary datatypes.JSONType[YieldSummary] `json:"summary"`
	Entries datatypes.JSONSlice[YieldEntry]  `json:"entries"`
}

func (YieldHistory) TableName() string {
	return "yield_history"
}
