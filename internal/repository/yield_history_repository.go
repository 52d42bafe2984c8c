package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"agro-service/internal/model"
)

type YieldHistoryRepository struct {
	db *gorm.DB
}

func NewYieldHistoryRepository(db *gorm.DB) *YieldHistoryRepository {
	return &YieldHistoryRepository{db: db}
}

func (r *YieldHistoryRepository) Upsert(ctx context.Context, history *model.YieldHistory) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "farm_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"summary", "entries"}),
		}).
		Create(history).Error
}

func (r *YieldHistoryRepository) Get(ctx context.Context, farmID string) (*model.YieldHistory, error) {
	var history model.YieldHistory
	err := r.db.WithContext(ctx).Where("farm_id = ?", farmID).First(&history).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &history, nil
}
