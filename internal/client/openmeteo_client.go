package client

import (
	"context"
	"fmt"
	"net/url"

	"agro-service/internal/config"
	"agro-service/internal/geo"
	"agro-service/internal/model"
)

const SourceOpenMeteo = "open-meteo"

type OpenMeteoClient struct {
	baseURL string
	getter  jsonGetter
}

func NewOpenMeteoClient(cfg *config.Config) *OpenMeteoClient {
	return &OpenMeteoClient{
		baseURL: cfg.ExternalServices.OpenMeteoAPIURL,
		getter:  newJSONGetter(cfg.ExternalServices.SourceTimeout),
	}
}

// GetHourly returns the hourly temperature and precipitation forecast as the provider
// sends it. Missing arrays come back empty, never nil; null hours stay nil.
func (c *OpenMeteoClient) GetHourly(ctx context.Context, coord geo.Coordinate) (*model.HourlySeries, error) {
	u, err := url.Parse(c.baseURL + "/forecast")
	if err != nil {
		return nil, unavailable(SourceOpenMeteo, 0, fmt.Errorf("invalid open-meteo URL: %w", err))
	}
	q := u.Query()
	q.Set("latitude", formatFloat(coord.Latitude))
	q.Set("longitude", formatFloat(coord.Longitude))
	q.Set("hourly", "temperature_2m,precipitation")
	u.RawQuery = q.Encode()

	var resp struct {
		Hourly *model.HourlySeries `json:"hourly"`
	}
	if err := c.getter.getJSON(ctx, SourceOpenMeteo, u.String(), nil, &resp); err != nil {
		return nil, err
	}

	series := model.HourlySeries{}
	if resp.Hourly != nil {
		series = *resp.Hourly
	}
	if series.Time == nil {
		series.Time = []string{}
	}
	if series.Temperature2m == nil {
		series.Temperature2m = model.HourlyValues{}
	}
	if series.Precipitation == nil {
		series.Precipitation = model.HourlyValues{}
	}
	return &series, nil
}
