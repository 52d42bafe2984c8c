package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"agro-service/internal/geo"
	"agro-service/internal/model"
)

type FarmEnvironmentRepository struct {
	db *gorm.DB
}

func NewFarmEnvironmentRepository(db *gorm.DB) *FarmEnvironmentRepository {
	return &FarmEnvironmentRepository{db: db}
}

// UpsertSections writes the non-nil sections of one farm. Columns of absent sections are
// left untouched, so a weather-only write keeps previously stored soil data.
func (r *FarmEnvironmentRepository) UpsertSections(ctx context.Context, farmID string, location geo.Coordinate, sections model.EnvironmentSections) error {
	lat, lon := location.Latitude, location.Longitude
	row := model.FarmEnvironment{
		FarmID:    farmID,
		Latitude:  &lat,
		Longitude: &lon,
	}
	columns := []string{"latitude", "longitude", "updated_at"}

	if sections.SoilSensor != nil {
		raw, err := json.Marshal(sections.SoilSensor)
		if err != nil {
			return fmt.Errorf("encode %s: %w", model.ColumnSoilSensor, err)
		}
		row.SoilSensor = datatypes.JSON(raw)
		columns = append(columns, model.ColumnSoilSensor)
	}
	if sections.Vegetation != nil {
		raw, err := json.Marshal(sections.Vegetation)
		if err != nil {
			return fmt.Errorf("encode %s: %w", model.ColumnVegetation, err)
		}
		row.Vegetation = datatypes.JSON(raw)
		columns = append(columns, model.ColumnVegetation)
	}
	if sections.SoilChemistry != nil {
		raw, err := json.Marshal(sections.SoilChemistry)
		if err != nil {
			return fmt.Errorf("encode %s: %w", model.ColumnSoilChemistry, err)
		}
		row.SoilChemistry = datatypes.JSON(raw)
		columns = append(columns, model.ColumnSoilChemistry)
	}
	if sections.Weather != nil {
		raw, err := json.Marshal(sections.Weather)
		if err != nil {
			return fmt.Errorf("encode %s: %w", model.ColumnWeather, err)
		}
		row.Weather = datatypes.JSON(raw)
		columns = append(columns, model.ColumnWeather)
	}

	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "farm_id"}},
			DoUpdates: clause.AssignmentColumns(columns),
		}).
		Create(&row).Error
}

func (r *FarmEnvironmentRepository) Get(ctx context.Context, farmID string) (*model.FarmEnvironmentDocument, error) {
	var row model.FarmEnvironment
	err := r.db.WithContext(ctx).Where("farm_id = ?", farmID).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return toEnvironmentDocument(&row)
}

func toEnvironmentDocument(row *model.FarmEnvironment) (*model.FarmEnvironmentDocument, error) {
	doc := &model.FarmEnvironmentDocument{
		FarmID:    row.FarmID,
		UpdatedAt: row.UpdatedAt,
	}
	if row.Latitude != nil && row.Longitude != nil {
		doc.Location = &geo.Coordinate{Latitude: *row.Latitude, Longitude: *row.Longitude}
	}

	if err := decodeSection(row.SoilSensor, &doc.Sections.SoilSensor); err != nil {
		return nil, fmt.Errorf("decode %s: %w", model.ColumnSoilSensor, err)
	}
	if err := decodeSection(row.Vegetation, &doc.Sections.Vegetation); err != nil {
		return nil, fmt.Errorf("decode %s: %w", model.ColumnVegetation, err)
	}
	if err := decodeSection(row.SoilChemistry, &doc.Sections.SoilChemistry); err != nil {
		return nil, fmt.Errorf("decode %s: %w", model.ColumnSoilChemistry, err)
	}
	if err := decodeSection(row.Weather, &doc.Sections.Weather); err != nil {
		return nil, fmt.Errorf("decode %s: %w", model.ColumnWeather, err)
	}
	return doc, nil
}

// decodeSection leaves *out nil for NULL or empty columns.
func decodeSection[T any](raw datatypes.JSON, out **T) error {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	var section T
	if err := json.Unmarshal(raw, &section); err != nil {
		return err
	}
	*out = &section
	return nil
}
