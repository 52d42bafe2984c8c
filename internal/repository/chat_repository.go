package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"agro-service/internal/model"
)

type ChatRepository struct {
	db *gorm.DB
}

func NewChatRepository(db *gorm.DB) *ChatRepository {
	return &ChatRepository{db: db}
}

// Upsert keeps created_at of an existing thread and replaces everything else.
func (r *ChatRepository) Upsert(ctx context.Context, thread *model.ChatThread) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "farm_id"}, {Name: "thread_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"model", "messages", "last", "updated_at"}),
		}).
		Create(thread).Error
}

func (r *ChatRepository) Get(ctx context.Context, farmID, threadID string) (*model.ChatThread, error) {
	var thread model.ChatThread
	err := r.db.WithContext(ctx).
		Where("farm_id = ? AND thread_id = ?", farmID, threadID).
		First(&thread).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &thread, nil
}

func (r *ChatRepository) ListByFarm(ctx context.Context, farmID string) ([]model.ChatThread, error) {
	var threads []model.ChatThread
	err := r.db.WithContext(ctx).
		Where("farm_id = ?", farmID).
		Order("updated_at DESC").
		Find(&threads).Error
	return threads, err
}
