package service

import (
	"context"

	"agro-service/internal/geo"
	"agro-service/internal/model"
)

// EnvironmentStore persists per-farm environmental sections. Implementations must only
// write the sections that are non-nil. Get returns nil, nil when the farm is unknown.
type EnvironmentStore interface {
	UpsertSections(ctx context.Context, farmID string, location geo.Coordinate, sections model.EnvironmentSections) error
	Get(ctx context.Context, farmID string) (*model.FarmEnvironmentDocument, error)
}

type RecommendationStore interface {
	Upsert(ctx context.Context, record *model.CropRecommendationRecord) error
	Get(ctx context.Context, farmID string) (*model.CropRecommendationRecord, error)
}

type ChatStore interface {
	Upsert(ctx context.Context, thread *model.ChatThread) error
	Get(ctx context.Context, farmID, threadID string) (*model.ChatThread, error)
	ListByFarm(ctx context.Context, farmID string) ([]model.ChatThread, error)
}

type YieldStore interface {
	Upsert(ctx context.Context, history *model.YieldHistory) error
	Get(ctx context.Context, farmID string) (*model.YieldHistory, error)
}
