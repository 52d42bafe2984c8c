package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"agro-service/internal/client"
	"agro-service/internal/config"
	"agro-service/internal/geo"
	"agro-service/internal/model"
	"agro-service/internal/repository"
	"agro-service/internal/service"
)

type stubSources struct {
	soilErr    error
	weatherErr error
	topsoilErr error
}

func (s *stubSources) GetSoil(context.Context, geo.Coordinate) (*client.AgroSoil, error) {
	if s.soilErr != nil {
		return nil, s.soilErr
	}
	m, t0 := 0.35, 295.65
	return &client.AgroSoil{Moisture: &m, T0: &t0}, nil
}

func (s *stubSources) GetNDVIHistory(context.Context, string, time.Time, time.Time) ([]client.NDVIPoint, error) {
	return nil, errors.New("ndvi down")
}

func (s *stubSources) GetTopsoil(context.Context, geo.Coordinate) (map[string]client.LayerMean, error) {
	if s.topsoilErr != nil {
		return nil, s.topsoilErr
	}
	ph := 65.0
	return map[string]client.LayerMean{client.PropertyPH: {Mean: &ph, DFactor: 10}}, nil
}

func (s *stubSources) GetHourly(context.Context, geo.Coordinate) (*model.HourlySeries, error) {
	if s.weatherErr != nil {
		return nil, s.weatherErr
	}
	return &model.HourlySeries{
		Time:          []string{"2024-05-01T00:00", "2024-05-01T01:00", "2024-05-01T02:00"},
		Temperature2m: model.HourlyValuesOf(20, 20, 20),
		Precipitation: model.HourlyValuesOf(0, 0, 0),
	}, nil
}

type stubSearcher struct{}

func (stubSearcher) Search(_ context.Context, q string) ([]model.PlaceSuggestion, error) {
	if q == "" {
		return []model.PlaceSuggestion{}, nil
	}
	return []model.PlaceSuggestion{{Label: q, Latitude: 1, Longitude: 2}}, nil
}

type envelope struct {
	Data     json.RawMessage `json:"data"`
	Error    string          `json:"error"`
	Warnings []string        `json:"warnings"`
}

type failingEnvironmentStore struct{}

func (failingEnvironmentStore) UpsertSections(context.Context, string, geo.Coordinate, model.EnvironmentSections) error {
	return errors.New("connection refused")
}

func (failingEnvironmentStore) Get(context.Context, string) (*model.FarmEnvironmentDocument, error) {
	return nil, nil
}

func newTestRouter(t *testing.T, sources *stubSources) *gin.Engine {
	return newTestRouterWithStore(t, sources, nil)
}

func newTestRouterWithStore(t *testing.T, sources *stubSources, envStore service.EnvironmentStore) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	database, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := database.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, database.AutoMigrate(&model.FarmEnvironment{}, &model.CropRecommendationRecord{}, &model.ChatThread{}, &model.YieldHistory{}))

	cfg := &config.Config{
		ExternalServices: config.ExternalServicesConfig{SourceTimeout: time.Second, GeminiModel: "gemini-2.0-flash"},
		Field:            config.FieldConfig{RadiusMeters: 1000, PolygonPoints: 48},
	}
	log := zerolog.Nop()
	var envRepo service.EnvironmentStore = repository.NewFarmEnvironmentRepository(database)
	if envStore != nil {
		envRepo = envStore
	}

	handler := NewHandler(
		service.NewAggregationService(cfg, service.Sources{
			SoilSensor:    sources,
			Vegetation:    sources,
			SoilChemistry: sources,
			Weather:       sources,
		}, envRepo, log),
		service.NewFieldService(cfg),
		service.NewCropService(repository.NewCropRecommendationRepository(database)),
		service.NewIrrigationService(envRepo),
		service.NewChatService(cfg, client.NewDemoCompleter(), repository.NewChatRepository(database)),
		service.NewPlaceService(stubSearcher{}, log),
		service.NewYieldService(repository.NewYieldHistoryRepository(database)),
		log,
	)
	return NewRouter(handler, log, "test")
}

func doRequest(t *testing.T, r *gin.Engine, method, path string, body interface{}) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return w, env
}

func TestHealthz(t *testing.T) {
	r := newTestRouter(t, &stubSources{})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestRefreshThenReadEnvironment(t *testing.T) {
	r := newTestRouter(t, &stubSources{})

	w, env := doRequest(t, r, http.MethodGet, "/farms/farm-1/environment", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, env = doRequest(t, r, http.MethodGet, "/farms/farm-1/environment/refresh?latitude=13.75&longitude=100.5&polyId=p1", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var snap model.EnvironmentalSnapshot
	require.NoError(t, json.Unmarshal(env.Data, &snap))
	assert.Equal(t, 35.0, *snap.SoilMoisture.MoisturePercent)
	assert.Nil(t, snap.SoilMoisture.NDVI)
	assert.Equal(t, model.SourceStateUnavailable, snap.Sources[model.SourceVegetation].State)
	assert.True(t, snap.Persisted)
	assert.Empty(t, env.Warnings)

	w, env = doRequest(t, r, http.MethodGet, "/farms/farm-1/environment", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var stored struct {
		SoilMoisture  *model.SoilMoistureRecord  `json:"soilMoisture"`
		SoilChemistry *model.SoilChemistryRecord `json:"soilChemistry"`
		Weather       *model.WeatherRecord       `json:"weather"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &stored))
	assert.Equal(t, 35.0, *stored.SoilMoisture.MoisturePercent)
	assert.Equal(t, 6.5, *stored.SoilChemistry.PH)
	assert.Len(t, stored.Weather.Hourly.Time, 3)
}

func TestRefreshEnvironmentStoreFailureReturnsLiveData(t *testing.T) {
	r := newTestRouterWithStore(t, &stubSources{}, failingEnvironmentStore{})

	w, env := doRequest(t, r, http.MethodGet, "/farms/farm-1/environment/refresh?latitude=13.75&longitude=100.5", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, []string{persistenceWarning}, env.Warnings)

	var snap model.EnvironmentalSnapshot
	require.NoError(t, json.Unmarshal(env.Data, &snap))
	assert.False(t, snap.Persisted)
	require.NotNil(t, snap.SoilMoisture)
	assert.Equal(t, 35.0, *snap.SoilMoisture.MoisturePercent)

	w, _ = doRequest(t, r, http.MethodGet, "/farms/farm-1/environment", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRefreshEnvironmentErrors(t *testing.T) {
	down := errors.New("down")
	r := newTestRouter(t, &stubSources{soilErr: down, weatherErr: down, topsoilErr: down})

	w, env := doRequest(t, r, http.MethodGet, "/farms/farm-1/environment/refresh?latitude=13.75&longitude=100.5", nil)
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Contains(t, env.Error, "all data sources failed")

	w, _ = doRequest(t, r, http.MethodGet, "/farms/farm-1/environment/refresh?latitude=95&longitude=100.5", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = doRequest(t, r, http.MethodGet, "/farms/farm-1/environment/refresh?latitude=abc&longitude=100.5", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = doRequest(t, r, http.MethodGet, "/farms/farm-1/environment/refresh?latitude=1&longitude=1&store=maybe", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestFieldBoundaryEndpoint(t *testing.T) {
	r := newTestRouter(t, &stubSources{})

	w, env := doRequest(t, r, http.MethodGet, "/geo/boundary?latitude=13.75&longitude=100.5&points=24", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var b model.FieldBoundary
	require.NoError(t, json.Unmarshal(env.Data, &b))
	assert.Len(t, b.Points, 24)
	assert.Equal(t, 1000.0, b.RadiusMeters)
	assert.NotEmpty(t, b.GeometryWKT)

	w, _ = doRequest(t, r, http.MethodGet, "/geo/boundary?latitude=13.75&longitude=100.5&radius=-5", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCropEndpoints(t *testing.T) {
	r := newTestRouter(t, &stubSources{})

	w, env := doRequest(t, r, http.MethodPost, "/farms/farm-1/crops", map[string]interface{}{
		"waterAvailability": "low",
		"history":           []map[string]interface{}{{"crop": "Sorghum", "year": 2024}},
		"affordability":     map[string]interface{}{"maxCostIndex": 2},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var record model.CropRecommendationRecord
	require.NoError(t, json.Unmarshal(env.Data, &record))
	require.NotEmpty(t, record.Recommendations)
	assert.Equal(t, "barley", record.Recommendations[0].Key)
	for _, rec := range record.Recommendations {
		assert.LessOrEqual(t, rec.Hints.CostIndex, 2)
	}

	w, env = doRequest(t, r, http.MethodGet, "/farms/farm-1/crops", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var latest model.CropRecommendationRecord
	require.NoError(t, json.Unmarshal(env.Data, &latest))
	assert.Equal(t, record.Recommendations, latest.Recommendations)

	w, _ = doRequest(t, r, http.MethodPost, "/farms/farm-1/crops", map[string]interface{}{"waterAvailability": "lots"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestIrrigationEndpoints(t *testing.T) {
	r := newTestRouter(t, &stubSources{})

	w, env := doRequest(t, r, http.MethodPost, "/farms/farm-1/irrigation/schedule", map[string]interface{}{
		"crop":            "rice",
		"moisturePercent": 40,
		"hourlyTemps":     []float64{20, 20, 20},
	})
	require.Equal(t, http.StatusOK, w.Code)
	var schedule model.IrrigationSchedule
	require.NoError(t, json.Unmarshal(env.Data, &schedule))
	assert.Equal(t, 6, schedule.DaysPerIrrigation)

	w, _ = doRequest(t, r, http.MethodPost, "/farms/farm-1/irrigation/schedule", map[string]interface{}{})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, env = doRequest(t, r, http.MethodPost, "/farms/farm-1/irrigation/plan", map[string]interface{}{"crop": "corn"})
	require.Equal(t, http.StatusOK, w.Code)
	var plan model.WaterBalance
	require.NoError(t, json.Unmarshal(env.Data, &plan))
	assert.Equal(t, 4.0, plan.ET0)

	w, env = doRequest(t, r, http.MethodPost, "/farms/farm-1/crop-cycle", map[string]interface{}{
		"crop":         "rice",
		"plantingDate": "2024-04-01",
	})
	require.Equal(t, http.StatusOK, w.Code)
	var cycle model.CropCycle
	require.NoError(t, json.Unmarshal(env.Data, &cycle))
	assert.Equal(t, 135, cycle.DaysToMaturity)
	assert.Equal(t, time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC), cycle.PlantingDate.UTC())

	w, _ = doRequest(t, r, http.MethodPost, "/farms/farm-1/crop-cycle", map[string]interface{}{
		"crop":         "rice",
		"plantingDate": "first of april",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestChatEndpoints(t *testing.T) {
	r := newTestRouter(t, &stubSources{})

	w, env := doRequest(t, r, http.MethodPost, "/farms/farm-1/chat", map[string]interface{}{
		"messages": []map[string]string{{"role": "user", "content": "Is it going to rain?"}},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var reply service.ChatReply
	require.NoError(t, json.Unmarshal(env.Data, &reply))
	assert.Equal(t, "Demo reply: Is it going to rain?", reply.Reply)
	assert.NotEmpty(t, reply.ThreadID)

	w, env = doRequest(t, r, http.MethodGet, "/farms/farm-1/chat/"+reply.ThreadID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var thread model.ChatThread
	require.NoError(t, json.Unmarshal(env.Data, &thread))
	assert.Len(t, thread.Messages, 2)

	w, env = doRequest(t, r, http.MethodGet, "/farms/farm-1/chat", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var list struct {
		Threads []model.ChatThread `json:"threads"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &list))
	assert.Len(t, list.Threads, 1)

	w, _ = doRequest(t, r, http.MethodGet, "/farms/farm-1/chat/nope", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, _ = doRequest(t, r, http.MethodPost, "/farms/farm-1/chat", map[string]interface{}{"messages": []string{}})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = doRequest(t, r, http.MethodPost, "/farms/farm-1/chat", map[string]interface{}{
		"threadId": strings.Repeat("t", 65),
		"messages": []map[string]string{{"role": "user", "content": "hi"}},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = doRequest(t, r, http.MethodGet, "/farms/"+strings.Repeat("f", 129)+"/environment/refresh?latitude=1&longitude=1", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return env
}

func TestYieldEndpoints(t *testing.T) {
	r := newTestRouter(t, &stubSources{})

	w, _ := doRequest(t, r, http.MethodGet, "/farms/farm-1/yield", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	req := httptest.NewRequest(http.MethodPost, "/farms/farm-1/yield", strings.NewReader("year,yield,crop\n2021,3.5,rice\n2022,bad,rice\n2019,2.0,corn\n"))
	req.Header.Set("Content-Type", "text/csv")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var history model.YieldHistory
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, w).Data, &history))
	assert.Equal(t, "farm-1", history.FarmID)
	assert.Len(t, history.Entries, 2)
	assert.Equal(t, 2, history.Summary.Data().Entries)
	assert.Equal(t, 2019, *history.Summary.Data().EarliestYear)
	assert.Equal(t, 2021, *history.Summary.Data().LatestYear)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", "yield.csv")
	require.NoError(t, err)
	_, err = part.Write([]byte("year,yield_t_ha\n2023,4.2\n"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req = httptest.NewRequest(http.MethodPost, "/farms/farm-1/yield", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w, env := doRequest(t, r, http.MethodGet, "/farms/farm-1/yield", nil)
	require.Equal(t, http.StatusOK, w.Code)
	history = model.YieldHistory{}
	require.NoError(t, json.Unmarshal(env.Data, &history))
	assert.Equal(t, []model.YieldEntry{{Year: 2023, Yield: 4.2}}, []model.YieldEntry(history.Entries))

	w, env = doRequest(t, r, http.MethodPost, "/farms/farm-1/yield", map[string]interface{}{
		"entries": []map[string]interface{}{{"year": 2024, "yield": 5.1, "crop": "wheat"}},
	})
	require.Equal(t, http.StatusOK, w.Code)
	history = model.YieldHistory{}
	require.NoError(t, json.Unmarshal(env.Data, &history))
	assert.Equal(t, 2024, *history.Summary.Data().LatestYear)

	req = httptest.NewRequest(http.MethodPost, "/farms/farm-1/yield", strings.NewReader("season,harvest\n2021,3\n"))
	req.Header.Set("Content-Type", "text/csv")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, decodeEnvelope(t, w).Error, "year")
}

func TestSearchPlaces(t *testing.T) {
	r := newTestRouter(t, &stubSources{})

	w, env := doRequest(t, r, http.MethodGet, "/places?q=Hanoi", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var places []model.PlaceSuggestion
	require.NoError(t, json.Unmarshal(env.Data, &places))
	require.Len(t, places, 1)
	assert.Equal(t, "Hanoi", places[0].Label)
}

func TestParseTime(t *testing.T) {
	got, err := parseTime("2024-04-01")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC), got)

	_, err = parseTime("yesterday")
	assert.Error(t, err)
}
