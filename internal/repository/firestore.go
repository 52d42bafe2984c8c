package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	firebase "firebase.google.com/go/v4"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"agro-service/internal/config"
	"agro-service/internal/geo"
	"agro-service/internal/model"
)

const (
	collectionFarmEnvironments    = "farmEnvironments"
	collectionCropRecommendations = "cropRecommendations"
	collectionChats               = "chats"
	collectionYieldHistory        = "yieldHistory"
	subcollectionThreads          = "threads"
)

// Section keys inside a farm environment document.
const (
	fieldSections    = "sections"
	keySoilSensor    = "soilSensor"
	keyVegetation    = "vegetation"
	keySoilChemistry = "soilChemistry"
	keyWeather       = "weather"
	fieldUpdatedAt   = "updatedAt"
	fieldLocation    = "location"
	fieldFarmID      = "farmId"
)

func NewFirestoreClient(ctx context.Context, cfg *config.Config) (*firestore.Client, error) {
	var opts []option.ClientOption
	if cfg.Store.FirebaseCredentials != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.Store.FirebaseCredentials))
	}

	app, err := firebase.NewApp(ctx, &firebase.Config{
		ProjectID: cfg.Store.FirebaseProjectID,
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("error initializing firebase app: %w", err)
	}

	client, err := app.Firestore(ctx)
	if err != nil {
		return nil, fmt.Errorf("error getting firestore client: %w", err)
	}
	return client, nil
}

type FirestoreEnvironmentRepository struct {
	client *firestore.Client
}

func NewFirestoreEnvironmentRepository(client *firestore.Client) *FirestoreEnvironmentRepository {
	return &FirestoreEnvironmentRepository{client: client}
}

// UpsertSections merges only the field paths of the sections present, so each source
// replaces its own sub-document and never touches the others.
func (r *FirestoreEnvironmentRepository) UpsertSections(ctx context.Context, farmID string, location geo.Coordinate, sections model.EnvironmentSections) error {
	data := map[string]interface{}{
		fieldFarmID:    farmID,
		fieldLocation:  map[string]interface{}{"latitude": location.Latitude, "longitude": location.Longitude},
		fieldUpdatedAt: time.Now().UTC(),
	}
	paths := []firestore.FieldPath{{fieldFarmID}, {fieldLocation}, {fieldUpdatedAt}}

	owned := make(map[string]interface{}, 4)
	add := func(key string, section any) error {
		m, err := toFirestoreMap(section)
		if err != nil {
			return fmt.Errorf("encode %s: %w", key, err)
		}
		owned[key] = m
		paths = append(paths, firestore.FieldPath{fieldSections, key})
		return nil
	}
	if sections.SoilSensor != nil {
		if err := add(keySoilSensor, sections.SoilSensor); err != nil {
			return err
		}
	}
	if sections.Vegetation != nil {
		if err := add(keyVegetation, sections.Vegetation); err != nil {
			return err
		}
	}
	if sections.SoilChemistry != nil {
		if err := add(keySoilChemistry, sections.SoilChemistry); err != nil {
			return err
		}
	}
	if sections.Weather != nil {
		if err := add(keyWeather, sections.Weather); err != nil {
			return err
		}
	}
	data[fieldSections] = owned

	_, err := r.client.Collection(collectionFarmEnvironments).Doc(farmID).
		Set(ctx, data, firestore.Merge(paths...))
	return err
}

func (r *FirestoreEnvironmentRepository) Get(ctx context.Context, farmID string) (*model.FarmEnvironmentDocument, error) {
	snap, err := r.client.Collection(collectionFarmEnvironments).Doc(farmID).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, nil
		}
		return nil, err
	}

	var doc model.FarmEnvironmentDocument
	if err := fromFirestoreMap(snap.Data(), &doc); err != nil {
		return nil, fmt.Errorf("decode farm environment: %w", err)
	}
	return &doc, nil
}

type FirestoreCropRecommendationRepository struct {
	client *firestore.Client
}

func NewFirestoreCropRecommendationRepository(client *firestore.Client) *FirestoreCropRecommendationRepository {
	return &FirestoreCropRecommendationRepository{client: client}
}

func (r *FirestoreCropRecommendationRepository) Upsert(ctx context.Context, record *model.CropRecommendationRecord) error {
	data, err := toFirestoreMap(record)
	if err != nil {
		return fmt.Errorf("encode crop recommendation: %w", err)
	}
	_, err = r.client.Collection(collectionCropRecommendations).Doc(record.FarmID).
		Set(ctx, data, firestore.MergeAll)
	return err
}

func (r *FirestoreCropRecommendationRepository) Get(ctx context.Context, farmID string) (*model.CropRecommendationRecord, error) {
	snap, err := r.client.Collection(collectionCropRecommendations).Doc(farmID).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, nil
		}
		return nil, err
	}

	var record model.CropRecommendationRecord
	if err := fromFirestoreMap(snap.Data(), &record); err != nil {
		return nil, fmt.Errorf("decode crop recommendation: %w", err)
	}
	return &record, nil
}

type FirestoreYieldHistoryRepository struct {
	client *firestore.Client
}

func NewFirestoreYieldHistoryRepository(client *firestore.Client) *FirestoreYieldHistoryRepository {
	return &FirestoreYieldHistoryRepository{client: client}
}

func (r *FirestoreYieldHistoryRepository) Upsert(ctx context.Context, history *model.YieldHistory) error {
	data, err := toFirestoreMap(history)
	if err != nil {
		return fmt.Errorf("encode yield history: %w", err)
	}
	_, err = r.client.Collection(collectionYieldHistory).Doc(history.FarmID).
		Set(ctx, data, firestore.MergeAll)
	return err
}

func (r *FirestoreYieldHistoryRepository) Get(ctx context.Context, farmID string) (*model.YieldHistory, error) {
	snap, err := r.client.Collection(collectionYieldHistory).Doc(farmID).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, nil
		}
		return nil, err
	}

	var history model.YieldHistory
	if err := fromFirestoreMap(snap.Data(), &history); err != nil {
		return nil, fmt.Errorf("decode yield history: %w", err)
	}
	return &history, nil
}

type FirestoreChatRepository struct {
	client *firestore.Client
}

func NewFirestoreChatRepository(client *firestore.Client) *FirestoreChatRepository {
	return &FirestoreChatRepository{client: client}
}

func (r *FirestoreChatRepository) threads(farmID string) *firestore.CollectionRef {
	return r.client.Collection(collectionChats).Doc(farmID).Collection(subcollectionThreads)
}

func (r *FirestoreChatRepository) Upsert(ctx context.Context, thread *model.ChatThread) error {
	data, err := toFirestoreMap(thread)
	if err != nil {
		return fmt.Errorf("encode chat thread: %w", err)
	}
	// Stored as a timestamp so threads can be ordered server side.
	data[fieldUpdatedAt] = thread.UpdatedAt.UTC()
	_, err = r.threads(thread.FarmID).Doc(thread.ThreadID).Set(ctx, data, firestore.MergeAll)
	return err
}

func (r *FirestoreChatRepository) Get(ctx context.Context, farmID, threadID string) (*model.ChatThread, error) {
	snap, err := r.threads(farmID).Doc(threadID).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, nil
		}
		return nil, err
	}

	var thread model.ChatThread
	if err := fromFirestoreMap(snap.Data(), &thread); err != nil {
		return nil, fmt.Errorf("decode chat thread: %w", err)
	}
	return &thread, nil
}

func (r *FirestoreChatRepository) ListByFarm(ctx context.Context, farmID string) ([]model.ChatThread, error) {
	snaps, err := r.threads(farmID).OrderBy(fieldUpdatedAt, firestore.Desc).Documents(ctx).GetAll()
	if err != nil {
		return nil, err
	}

	threads := make([]model.ChatThread, 0, len(snaps))
	for _, snap := range snaps {
		var thread model.ChatThread
		if err := fromFirestoreMap(snap.Data(), &thread); err != nil {
			return nil, fmt.Errorf("decode chat thread %s: %w", snap.Ref.ID, err)
		}
		threads = append(threads, thread)
	}
	return threads, nil
}

// toFirestoreMap converts a JSON-tagged value to the map form Firestore stores.
func toFirestoreMap(v any) (map[string]interface{}, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var out map[string]interface{}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func fromFirestoreMap(data map[string]interface{}, out any) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, out)
}
