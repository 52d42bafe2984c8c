package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"agro-service/internal/model"
)

type CropRecommendationRepository struct {
	db *gorm.DB
}

func NewCropRecommendationRepository(db *gorm.DB) *CropRecommendationRepository {
	return &CropRecommendationRepository{db: db}
}

func (r *CropRecommendationRepository) Upsert(ctx context.Context, record *model.CropRecommendationRecord) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "farm_id"}},
			UpdateAll: true,
		}).
		Create(record).Error
}

func (r *CropRecommendationRepository) Get(ctx context.Context, farmID string) (*model.CropRecommendationRecord, error) {
	var record model.CropRecommendationRecord
	err := r.db.WithContext(ctx).Where("farm_id = ?", farmID).First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &record, nil
}
