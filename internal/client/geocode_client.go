package client

import (
	"context"
	"fmt"
	"math"
	"net/url"
	"strconv"
	"strings"

	"agro-service/internal/config"
	"agro-service/internal/model"
)

const (
	SourceNominatim     = "nominatim"
	maxPlaceSuggestions = 5
)

type GeocodeClient struct {
	baseURL string
	getter  jsonGetter
}

func NewGeocodeClient(cfg *config.Config) *GeocodeClient {
	return &GeocodeClient{
		baseURL: cfg.ExternalServices.NominatimAPIURL,
		getter:  newJSONGetter(cfg.ExternalServices.SourceTimeout),
	}
}

func (c *GeocodeClient) Search(ctx context.Context, query string) ([]model.PlaceSuggestion, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []model.PlaceSuggestion{}, nil
	}

	u, err := url.Parse(c.baseURL + "/search")
	if err != nil {
		return nil, unavailable(SourceNominatim, 0, fmt.Errorf("invalid nominatim URL: %w", err))
	}
	q := u.Query()
	q.Set("format", "json")
	q.Set("q", query)
	q.Set("addressdetails", "0")
	q.Set("limit", strconv.Itoa(maxPlaceSuggestions))
	u.RawQuery = q.Encode()

	var places []struct {
		DisplayName string `json:"display_name"`
		Lat         string `json:"lat"`
		Lon         string `json:"lon"`
	}
	headers := map[string]string{"Accept-Language": "en"}
	if err := c.getter.getJSON(ctx, SourceNominatim, u.String(), headers, &places); err != nil {
		return nil, err
	}

	if len(places) > maxPlaceSuggestions {
		places = places[:maxPlaceSuggestions]
	}

	out := make([]model.PlaceSuggestion, 0, len(places))
	for _, p := range places {
		lat, latErr := strconv.ParseFloat(p.Lat, 64)
		lon, lonErr := strconv.ParseFloat(p.Lon, 64)
		if latErr != nil || lonErr != nil || math.IsInf(lat, 0) || math.IsInf(lon, 0) || math.IsNaN(lat) || math.IsNaN(lon) {
			continue
		}
		label := p.DisplayName
		if label == "" {
			label = "Unknown"
		}
		out = append(out, model.PlaceSuggestion{Label: label, Latitude: lat, Longitude: lon})
	}
	return out, nil
}
