package soilgrids

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/couchcryptid/crop-advisor-service/internal/domain"
	"github.com/couchcryptid/crop-advisor-service/internal/observability"
)

// Topsoil band and statistic requested for every property.
const (
	depth     = "0-5cm"
	statistic = "mean"
)

// Client implements domain.SoilProvider using the ISRIC SoilGrids v2.0 REST API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewClient creates a SoilGrids client.
func NewClient(baseURL string, timeout time.Duration, metrics *observability.Metrics, logger *slog.Logger) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL: baseURL,
		metrics: metrics,
		logger:  logger,
	}
}

// SoilProperties returns nitrogen, pH (water), and CEC means for the topsoil
// band at coord. Values are in SoilGrids' mapped units.
func (c *Client) SoilProperties(ctx context.Context, coord domain.Coordinate) (domain.SoilProperties, error) {
	params := url.Values{
		"lon":      {strconv.FormatFloat(coord.Lng, 'f', -1, 64)},
		"lat":      {strconv.FormatFloat(coord.Lat, 'f', -1, 64)},
		"property": {"nitrogen", "phh2o", "cec"},
		"depth":    {depth},
		"value":    {statistic},
	}

	start := time.Now()
	props, err := c.doRequest(ctx, c.baseURL+"/properties/query?"+params.Encode())
	c.metrics.UpstreamDuration.WithLabelValues("soil").Observe(time.Since(start).Seconds())
	if err != nil {
		c.metrics.UpstreamRequests.WithLabelValues("soil", "error").Inc()
		return domain.SoilProperties{}, err
	}
	c.metrics.UpstreamRequests.WithLabelValues("soil", "success").Inc()
	return props, nil
}

func (c *Client) doRequest(ctx context.Context, fullURL string) (domain.SoilProperties, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return domain.SoilProperties{}, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.SoilProperties{}, fmt.Errorf("soilgrids request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return domain.SoilProperties{}, fmt.Errorf("soilgrids API error: status %d: %s", resp.StatusCode, body)
	}

	var r response
	if err := json.NewDecoder(resp.Body).Decode(&r); err != nil {
		return domain.SoilProperties{}, fmt.Errorf("decode response: %w", err)
	}
	return parseLayers(r.Properties.Layers)
}

// parseLayers reads the first depth's mean for each known layer. A layer that
// is present but has no depth or a null mean (water, urban, or no-data
// pixels) is an error; an absent layer is left nil.
func parseLayers(layers []layer) (domain.SoilProperties, error) {
	var props domain.SoilProperties
	for _, l := range layers {
		var target **float64
		switch l.Name {
		case "nitrogen":
			target = &props.Nitrogen
		case "phh2o":
			target = &props.PH
		case "cec":
			target = &props.CEC
		default:
			continue
		}

		if len(l.Depths) == 0 {
			return domain.SoilProperties{}, fmt.Errorf("layer %s: no depth values", l.Name)
		}
		mean := l.Depths[0].Values.Mean
		if mean == nil {
			return domain.SoilProperties{}, fmt.Errorf("layer %s: no %s value at %s", l.Name, statistic, l.Depths[0].Label)
		}
		*target = mean
	}
	return props, nil
}

// SoilGrids API response types.

type response struct {
	Properties struct {
		Layers []layer `json:"layers"`
	} `json:"properties"`
}

type layer struct {
	Name        string `json:"name"`
	UnitMeasure struct {
		DFactor     float64 `json:"d_factor"`
		MappedUnits string  `json:"mapped_units"`
	} `json:"unit_measure"`
	Depths []struct {
		Label  string `json:"label"`
		Values struct {
			Mean *float64 `json:"mean"`
		} `json:"values"`
	} `json:"depths"`
}
