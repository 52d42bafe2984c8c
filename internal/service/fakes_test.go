package service

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"agro-service/internal/client"
	"agro-service/internal/geo"
	"agro-service/internal/model"
)

func ptr[T any](v T) *T { return &v }

var errUpstream = &client.SourceUnavailableError{Source: "test", StatusCode: 503, Err: errors.New("service unavailable")}

type fakeSoilSensor struct {
	soil  *client.AgroSoil
	err   error
	calls int32
}

func (f *fakeSoilSensor) GetSoil(ctx context.Context, _ geo.Coordinate) (*client.AgroSoil, error) {
	atomic.AddInt32(&f.calls, 1)
	return f.soil, f.err
}

type fakeVegetation struct {
	points     []client.NDVIPoint
	err        error
	calls      int32
	start, end time.Time
}

func (f *fakeVegetation) GetNDVIHistory(_ context.Context, _ string, start, end time.Time) ([]client.NDVIPoint, error) {
	atomic.AddInt32(&f.calls, 1)
	f.start, f.end = start, end
	return f.points, f.err
}

type fakeSoilChemistry struct {
	layers map[string]client.LayerMean
	err    error
	calls  int32
}

func (f *fakeSoilChemistry) GetTopsoil(_ context.Context, _ geo.Coordinate) (map[string]client.LayerMean, error) {
	atomic.AddInt32(&f.calls, 1)
	return f.layers, f.err
}

type fakeWeather struct {
	series *model.HourlySeries
	err    error
	block  bool
	calls  int32
}

func (f *fakeWeather) GetHourly(ctx context.Context, _ geo.Coordinate) (*model.HourlySeries, error) {
	atomic.AddInt32(&f.calls, 1)
	if f.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return f.series, f.err
}

type memEnvironmentStore struct {
	mu     sync.Mutex
	docs   map[string]*model.FarmEnvironmentDocument
	err    error
	writes int
}

func newMemEnvironmentStore() *memEnvironmentStore {
	return &memEnvironmentStore{docs: map[string]*model.FarmEnvironmentDocument{}}
}

func (m *memEnvironmentStore) UpsertSections(_ context.Context, farmID string, location geo.Coordinate, sections model.EnvironmentSections) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.writes++
	doc, ok := m.docs[farmID]
	if !ok {
		doc = &model.FarmEnvironmentDocument{FarmID: farmID}
		m.docs[farmID] = doc
	}
	loc := location
	doc.Location = &loc
	if sections.SoilSensor != nil {
		doc.Sections.SoilSensor = sections.SoilSensor
	}
	if sections.Vegetation != nil {
		doc.Sections.Vegetation = sections.Vegetation
	}
	if sections.SoilChemistry != nil {
		doc.Sections.SoilChemistry = sections.SoilChemistry
	}
	if sections.Weather != nil {
		doc.Sections.Weather = sections.Weather
	}
	return nil
}

func (m *memEnvironmentStore) Get(_ context.Context, farmID string) (*model.FarmEnvironmentDocument, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	return m.docs[farmID], nil
}

type memRecommendationStore struct {
	records map[string]*model.CropRecommendationRecord
	err     error
}

func (m *memRecommendationStore) Upsert(_ context.Context, record *model.CropRecommendationRecord) error {
	if m.err != nil {
		return m.err
	}
	if m.records == nil {
		m.records = map[string]*model.CropRecommendationRecord{}
	}
	m.records[record.FarmID] = record
	return nil
}

func (m *memRecommendationStore) Get(_ context.Context, farmID string) (*model.CropRecommendationRecord, error) {
	return m.records[farmID], nil
}

type memChatStore struct {
	threads map[string]*model.ChatThread
	err     error
}

func (m *memChatStore) key(farmID, threadID string) string { return farmID + "/" + threadID }

func (m *memChatStore) Upsert(_ context.Context, thread *model.ChatThread) error {
	if m.err != nil {
		return m.err
	}
	if m.threads == nil {
		m.threads = map[string]*model.ChatThread{}
	}
	m.threads[m.key(thread.FarmID, thread.ThreadID)] = thread
	return nil
}

func (m *memChatStore) Get(_ context.Context, farmID, threadID string) (*model.ChatThread, error) {
	return m.threads[m.key(farmID, threadID)], nil
}

func (m *memChatStore) ListByFarm(_ context.Context, farmID string) ([]model.ChatThread, error) {
	var out []model.ChatThread
	for _, t := range m.threads {
		if t.FarmID == farmID {
			out = append(out, *t)
		}
	}
	return out, nil
}

type fakeCompleter struct {
	reply    string
	err      error
	model    string
	received []model.ChatMessage
}

func (f *fakeCompleter) Complete(_ context.Context, modelName string, messages []model.ChatMessage) (string, error) {
	f.model = modelName
	f.received = messages
	return f.reply, f.err
}

type memYieldStore struct {
	histories map[string]*model.YieldHistory
	err       error
}

func (m *memYieldStore) Upsert(_ context.Context, history *model.YieldHistory) error {
	if m.err != nil {
		return m.err
	}
	if m.histories == nil {
		m.histories = map[string]*model.YieldHistory{}
	}
	m.histories[history.FarmID] = history
	return nil
}

func (m *memYieldStore) Get(_ context.Context, farmID string) (*model.YieldHistory, error) {
	return m.histories[farmID], nil
}
