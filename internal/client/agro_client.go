package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"agro-service/internal/config"
	"agro-service/internal/geo"
)

const (
	SourceAgroSoil = "agromonitoring soil"
	SourceAgroNDVI = "agromonitoring ndvi"
)

var errAgroKeyMissing = errors.New("agro API key not configured")

// AgroSoil is the Agromonitoring current soil response. Temperatures are in Kelvin and
// moisture is a volumetric fraction (m³/m³).
type AgroSoil struct {
	Dt       int64    `json:"dt"`
	Moisture *float64 `json:"moisture"`
	T0       *float64 `json:"t0"`
	T10      *float64 `json:"t10"`
}

type NDVIPoint struct {
	Dt   int64
	Mean *float64
}

type AgroClient struct {
	baseURL string
	apiKey  string
	getter  jsonGetter
}

func NewAgroClient(cfg *config.Config) *AgroClient {
	return &AgroClient{
		baseURL: cfg.ExternalServices.AgroAPIURL,
		apiKey:  cfg.ExternalServices.AgroAPIKey,
		getter:  newJSONGetter(cfg.ExternalServices.SourceTimeout),
	}
}

func (c *AgroClient) GetSoil(ctx context.Context, coord geo.Coordinate) (*AgroSoil, error) {
	if c.apiKey == "" {
		return nil, unavailable(SourceAgroSoil, 0, errAgroKeyMissing)
	}

	u, err := url.Parse(c.baseURL + "/soil")
	if err != nil {
		return nil, unavailable(SourceAgroSoil, 0, fmt.Errorf("invalid agro API URL: %w", err))
	}
	q := u.Query()
	q.Set("lat", formatFloat(coord.Latitude))
	q.Set("lon", formatFloat(coord.Longitude))
	q.Set("appid", c.apiKey)
	u.RawQuery = q.Encode()

	var soil AgroSoil
	if err := c.getter.getJSON(ctx, SourceAgroSoil, u.String(), nil, &soil); err != nil {
		return nil, err
	}
	return &soil, nil
}

// GetNDVIHistory returns the NDVI series for a registered polygon between start and end.
// Entries that do not decode are skipped, and a body that is not an array yields an
// empty series rather than an error.
func (c *AgroClient) GetNDVIHistory(ctx context.Context, polygonID string, start, end time.Time) ([]NDVIPoint, error) {
	if c.apiKey == "" {
		return nil, unavailable(SourceAgroNDVI, 0, errAgroKeyMissing)
	}

	u, err := url.Parse(c.baseURL + "/ndvi/history")
	if err != nil {
		return nil, unavailable(SourceAgroNDVI, 0, fmt.Errorf("invalid agro API URL: %w", err))
	}
	q := u.Query()
	q.Set("polyid", polygonID)
	q.Set("start", strconv.FormatInt(start.Unix(), 10))
	q.Set("end", strconv.FormatInt(end.Unix(), 10))
	q.Set("appid", c.apiKey)
	u.RawQuery = q.Encode()

	body, err := c.getter.get(ctx, SourceAgroNDVI, u.String(), nil)
	if err != nil {
		return nil, err
	}

	var entries []json.RawMessage
	if err := json.Unmarshal(body, &entries); err != nil {
		return []NDVIPoint{}, nil
	}

	points := make([]NDVIPoint, 0, len(entries))
	for _, raw := range entries {
		var entry struct {
			Dt   *int64 `json:"dt"`
			Data *struct {
				Mean *float64 `json:"mean"`
			} `json:"data"`
		}
		if err := json.Unmarshal(raw, &entry); err != nil || entry.Dt == nil {
			continue
		}
		point := NDVIPoint{Dt: *entry.Dt}
		if entry.Data != nil {
			point.Mean = entry.Data.Mean
		}
		points = append(points, point)
	}
	return points, nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
