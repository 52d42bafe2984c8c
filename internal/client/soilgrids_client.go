package client

import (
	"context"
	"fmt"
	"net/url"

	"agro-service/internal/config"
	"agro-service/internal/geo"
)

const SourceSoilGrids = "soilgrids"

const (
	PropertyPH   = "phh2o"
	PropertySOC  = "soc"
	PropertySand = "sand"
	PropertySilt = "silt"
	PropertyClay = "clay"
)

var soilProperties = []string{PropertyPH, PropertySOC, PropertySand, PropertySilt, PropertyClay}

// LayerMean is the mean of the top depth interval of one SoilGrids property in mapped
// units. Divide by DFactor (when positive) to get target units.
type LayerMean struct {
	Mean    *float64
	DFactor float64
}

type soilGridsResponse struct {
	Properties struct {
		Layers []struct {
			Name        string `json:"name"`
			UnitMeasure *struct {
				DFactor float64 `json:"d_factor"`
			} `json:"unit_measure"`
			Depths []struct {
				Label  string `json:"label"`
				Values struct {
					Mean *float64 `json:"mean"`
				} `json:"values"`
			} `json:"depths"`
		} `json:"layers"`
	} `json:"properties"`
}

type SoilGridsClient struct {
	baseURL string
	getter  jsonGetter
}

func NewSoilGridsClient(cfg *config.Config) *SoilGridsClient {
	return &SoilGridsClient{
		baseURL: cfg.ExternalServices.SoilGridsAPIURL,
		getter:  newJSONGetter(cfg.ExternalServices.SourceTimeout),
	}
}

// GetTopsoil queries pH, organic carbon and particle fractions for the 0-5cm layer.
// Properties absent from the response are absent from the result.
func (c *SoilGridsClient) GetTopsoil(ctx context.Context, coord geo.Coordinate) (map[string]LayerMean, error) {
	u, err := url.Parse(c.baseURL + "/properties/query")
	if err != nil {
		return nil, unavailable(SourceSoilGrids, 0, fmt.Errorf("invalid soilgrids URL: %w", err))
	}
	q := u.Query()
	q.Set("lat", formatFloat(coord.Latitude))
	q.Set("lon", formatFloat(coord.Longitude))
	for _, p := range soilProperties {
		q.Add("property", p)
	}
	q.Set("depth", "0-5cm")
	q.Set("value", "mean")
	u.RawQuery = q.Encode()

	var resp soilGridsResponse
	if err := c.getter.getJSON(ctx, SourceSoilGrids, u.String(), nil, &resp); err != nil {
		return nil, err
	}

	out := make(map[string]LayerMean, len(resp.Properties.Layers))
	for _, layer := range resp.Properties.Layers {
		if len(layer.Depths) == 0 {
			continue
		}
		mean := LayerMean{Mean: layer.Depths[0].Values.Mean}
		if layer.UnitMeasure != nil {
			mean.DFactor = layer.UnitMeasure.DFactor
		}
		out[layer.Name] = mean
	}
	return out, nil
}
