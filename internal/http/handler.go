package http

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"agro-service/internal/geo"
	"agro-service/internal/http/middleware"
	"agro-service/internal/model"
	"agro-service/internal/service"
)

const (
	persistenceWarning  = "result was not saved; showing live data"
	maxYieldUploadBytes = 5 << 20
)

type Handler struct {
	aggregationService *service.AggregationService
	fieldService       *service.FieldService
	cropService        *service.CropService
	irrigationService  *service.IrrigationService
	chatService        *service.ChatService
	placeService       *service.PlaceService
	yieldService       *service.YieldService
	log                zerolog.Logger
}

func NewHandler(
	aggregationService *service.AggregationService,
	fieldService *service.FieldService,
	cropService *service.CropService,
	irrigationService *service.IrrigationService,
	chatService *service.ChatService,
	placeService *service.PlaceService,
	yieldService *service.YieldService,
	log zerolog.Logger,
) *Handler {
	return &Handler{
		aggregationService: aggregationService,
		fieldService:       fieldService,
		cropService:        cropService,
		irrigationService:  irrigationService,
		chatService:        chatService,
		placeService:       placeService,
		yieldService:       yieldService,
		log:                log,
	}
}

func (h *Handler) Register(r *gin.Engine) {
	farms := r.Group("/farms/:farmId")
	{
		farms.GET("/environment", h.getEnvironment)
		farms.GET("/environment/refresh", h.refreshEnvironment)

		farms.GET("/crops", h.getCropRecommendations)
		farms.POST("/crops", h.recommendCrops)

		farms.POST("/irrigation/schedule", h.irrigationSchedule)
		farms.POST("/irrigation/plan", h.irrigationPlan)
		farms.POST("/crop-cycle", h.cropCycle)

		farms.GET("/chat", h.listChats)
		farms.POST("/chat", h.sendChat)
		farms.GET("/chat/:threadId", h.getChat)

		farms.GET("/yield", h.getYieldHistory)
		farms.POST("/yield", h.importYieldHistory)
	}

	r.GET("/geo/boundary", h.fieldBoundary)
	r.GET("/places", h.searchPlaces)
}

func (h *Handler) getEnvironment(c *gin.Context) {
	doc, err := h.aggregationService.Stored(c.Request.Context(), c.Param("farmId"))
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(gin.H{
		"farmId":        doc.FarmID,
		"location":      doc.Location,
		"soilMoisture":  doc.SoilMoisture(),
		"soilChemistry": doc.Sections.SoilChemistry,
		"weather":       doc.Sections.Weather,
		"updatedAt":     doc.UpdatedAt,
	}))
}

func (h *Handler) refreshEnvironment(c *gin.Context) {
	coord, err := parseCoordinate(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
		return
	}

	store := true
	if raw := c.Query("store"); raw != "" {
		store, err = strconv.ParseBool(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, errorResponse("store must be a boolean"))
			return
		}
	}

	snapshot, err := h.aggregationService.Aggregate(c.Request.Context(), c.Param("farmId"), coord, service.AggregateOptions{
		StoreResult:   store,
		NDVIPolygonID: c.Query("polyId"),
	})
	h.respond(c, http.StatusOK, snapshot, err)
}

func (h *Handler) fieldBoundary(c *gin.Context) {
	coord, err := parseCoordinate(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
		return
	}

	var radius *float64
	if raw := c.Query("radius"); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, errorResponse("radius must be a number"))
			return
		}
		radius = &v
	}

	var points *int
	if raw := c.Query("points"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, errorResponse("points must be an integer"))
			return
		}
		points = &v
	}

	boundary, err := h.fieldService.Boundary(coord, radius, points)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(boundary))
}

func (h *Handler) recommendCrops(c *gin.Context) {
	var req struct {
		Location          *geo.Coordinate          `json:"location"`
		WaterAvailability string                   `json:"waterAvailability"`
		History           []model.CropHistoryEntry `json:"history"`
		Affordability     *struct {
			MaxCostIndex *int `json:"maxCostIndex"`
		} `json:"affordability"`
		AvgTemp *float64 `json:"avgTemp"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
		return
	}

	input := service.RecommendCropsInput{
		Location:          req.Location,
		WaterAvailability: req.WaterAvailability,
		History:           req.History,
		AvgTemp:           req.AvgTemp,
	}
	if req.Affordability != nil {
		input.MaxCostIndex = req.Affordability.MaxCostIndex
	}

	record, err := h.cropService.Recommend(c.Request.Context(), c.Param("farmId"), input)
	h.respond(c, http.StatusOK, record, err)
}

func (h *Handler) getCropRecommendations(c *gin.Context) {
	record, err := h.cropService.Latest(c.Request.Context(), c.Param("farmId"))
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(record))
}

func (h *Handler) irrigationSchedule(c *gin.Context) {
	var req struct {
		Crop            string    `json:"crop" binding:"required"`
		MoisturePercent *float64  `json:"moisturePercent"`
		HourlyTemps     []float64 `json:"hourlyTemps"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
		return
	}

	schedule, err := h.irrigationService.Schedule(c.Request.Context(), c.Param("farmId"), service.ScheduleInput{
		Crop:            req.Crop,
		MoisturePercent: req.MoisturePercent,
		HourlyTemps:     req.HourlyTemps,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(schedule))
}

func (h *Handler) irrigationPlan(c *gin.Context) {
	var req struct {
		Crop string `json:"crop" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
		return
	}

	plan, err := h.irrigationService.Plan(c.Request.Context(), c.Param("farmId"), req.Crop)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(plan))
}

func (h *Handler) cropCycle(c *gin.Context) {
	var req struct {
		Crop         string `json:"crop" binding:"required"`
		PlantingDate string `json:"plantingDate"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
		return
	}

	var plantingDate *time.Time
	if req.PlantingDate != "" {
		t, err := parseTime(req.PlantingDate)
		if err != nil {
			c.JSON(http.StatusBadRequest, errorResponse("plantingDate: "+err.Error()))
			return
		}
		plantingDate = &t
	}

	cycle, err := h.irrigationService.CropCycle(c.Request.Context(), c.Param("farmId"), req.Crop, plantingDate)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(cycle))
}

func (h *Handler) sendChat(c *gin.Context) {
	var req struct {
		ThreadID string              `json:"threadId"`
		Model    string              `json:"model"`
		Messages []model.ChatMessage `json:"messages"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
		return
	}

	reply, err := h.chatService.Send(c.Request.Context(), c.Param("farmId"), service.SendChatInput{
		ThreadID: req.ThreadID,
		Model:    req.Model,
		Messages: req.Messages,
	})
	h.respond(c, http.StatusOK, reply, err)
}

func (h *Handler) listChats(c *gin.Context) {
	threads, err := h.chatService.List(c.Request.Context(), c.Param("farmId"))
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(gin.H{
		"farmId":  c.Param("farmId"),
		"threads": threads,
	}))
}

func (h *Handler) getChat(c *gin.Context) {
	thread, err := h.chatService.Get(c.Request.Context(), c.Param("farmId"), c.Param("threadId"))
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(thread))
}

// importYieldHistory accepts a JSON body with entries, a multipart upload in the
// "file" field, or a raw CSV body.
func (h *Handler) importYieldHistory(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxYieldUploadBytes)
	ctx := c.Request.Context()
	farmID := c.Param("farmId")

	switch c.ContentType() {
	case "application/json":
		var req struct {
			Entries []model.YieldEntry `json:"entries"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
			return
		}
		history, err := h.yieldService.Import(ctx, farmID, req.Entries)
		h.respond(c, http.StatusOK, history, err)
	case "multipart/form-data":
		fileHeader, err := c.FormFile("file")
		if err != nil {
			c.JSON(http.StatusBadRequest, errorResponse("file is required"))
			return
		}
		file, err := fileHeader.Open()
		if err != nil {
			c.JSON(http.StatusBadRequest, errorResponse("unable to read file"))
			return
		}
		defer file.Close()
		history, err := h.yieldService.ImportCSV(ctx, farmID, file)
		h.respond(c, http.StatusOK, history, err)
	default:
		history, err := h.yieldService.ImportCSV(ctx, farmID, c.Request.Body)
		h.respond(c, http.StatusOK, history, err)
	}
}

func (h *Handler) getYieldHistory(c *gin.Context) {
	history, err := h.yieldService.Latest(c.Request.Context(), c.Param("farmId"))
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(history))
}

func (h *Handler) searchPlaces(c *gin.Context) {
	places := h.placeService.Search(c.Request.Context(), c.Query("q"))
	c.JSON(http.StatusOK, successResponse(places))
}

// respond writes data on success. A persistence failure still carries data, so it is
// reported as a warning next to it.
func (h *Handler) respond(c *gin.Context, status int, data interface{}, err error) {
	if err == nil {
		c.JSON(status, successResponse(data))
		return
	}
	if errors.Is(err, service.ErrPersistenceFailure) {
		h.log.Warn().
			Err(err).
			Str("request_id", middleware.GetRequestID(c)).
			Msg("responding without persistence")
		c.JSON(status, gin.H{
			"data":     data,
			"warnings": []string{persistenceWarning},
		})
		return
	}
	h.handleError(c, err)
}

func (h *Handler) handleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, errorResponse(err.Error()))
	case errors.Is(err, service.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
	case errors.Is(err, service.ErrAllSourcesFailed), errors.Is(err, service.ErrAssistantUnavailable):
		h.log.Warn().Err(err).Str("request_id", middleware.GetRequestID(c)).Msg("upstream failure")
		c.JSON(http.StatusBadGateway, errorResponse(err.Error()))
	default:
		h.log.Error().Err(err).Str("request_id", middleware.GetRequestID(c)).Msg("handler error")
		c.JSON(http.StatusInternalServerError, errorResponse("internal error"))
	}
}

func successResponse(data interface{}) gin.H {
	return gin.H{
		"data": data,
	}
}

func errorResponse(message string) gin.H {
	return gin.H{
		"error": message,
	}
}

func parseCoordinate(c *gin.Context) (geo.Coordinate, error) {
	rawLat := strings.TrimSpace(c.Query("latitude"))
	rawLon := strings.TrimSpace(c.Query("longitude"))
	if rawLat == "" || rawLon == "" {
		return geo.Coordinate{}, errors.New("latitude and longitude are required")
	}

	lat, err := strconv.ParseFloat(rawLat, 64)
	if err != nil {
		return geo.Coordinate{}, fmt.Errorf("invalid latitude %q", rawLat)
	}
	lon, err := strconv.ParseFloat(rawLon, 64)
	if err != nil {
		return geo.Coordinate{}, fmt.Errorf("invalid longitude %q", rawLon)
	}

	coord := geo.Coordinate{Latitude: lat, Longitude: lon}
	if err := coord.Validate(); err != nil {
		return geo.Coordinate{}, err
	}
	return coord, nil
}

func parseTime(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	layouts := []string{
		time.RFC3339,
		"2006-01-02",
		"2006-01-02T15:04:05",
		"2006-01-02T15:04:05Z",
	}
	for _, layout := range layouts {
		if parsed, err := time.Parse(layout, raw); err == nil {
			return parsed, nil
		}
	}
	return time.Time{}, errors.New("invalid time format")
}
