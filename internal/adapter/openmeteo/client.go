package openmeteo

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

const dateLayout = "2006-01-02"

// Client implements domain.WeatherProvider using the Open-Meteo forecast and
// historical archive APIs.
type Client struct {
	httpClient  *http.Client
	forecastURL string
	archiveURL  string
	metrics     *observability.Metrics
	logger      *slog.Logger
}

// NewClient creates an Open-Meteo client.
func NewClient(forecastURL, archiveURL string, timeout time.Duration, metrics *observability.Metrics, logger *slog.Logger) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		forecastURL: forecastURL,
		archiveURL:  archiveURL,
		metrics:     metrics,
		logger:      logger,
	}
}

// HourlyForecast returns the hourly temperature and relative humidity series
// for the provider's default forecast range. A null reading fails the fetch.
func (c *Client) HourlyForecast(ctx context.Context, coord domain.Coordinate) (domain.HourlyForecast, error) {
	params := coordParams(coord)
	params.Set("hourly", "temperature_2m,relative_humidity_2m")
	params.Set("timezone", "auto")

	var resp forecastResponse
	if err := c.get(ctx, "forecast", c.forecastURL+"?"+params.Encode(), &resp); err != nil {
		return domain.HourlyForecast{}, err
	}
	return domain.HourlyForecast{
		Temperature: values(resp.Hourly.Temperature),
		Humidity:    values(resp.Hourly.Humidity),
	}, nil
}

// DailyPrecipitation returns daily precipitation sums (mm) between start and
// end inclusive. Days the archive has not filled in yet come back null, which
// fails the fetch.
func (c *Client) DailyPrecipitation(ctx context.Context, coord domain.Coordinate, start, end time.Time) ([]float64, error) {
	params := coordParams(coord)
	params.Set("daily", "precipitation_sum")
	params.Set("start_date", start.Format(dateLayout))
	params.Set("end_date", end.Format(dateLayout))
	params.Set("timezone", "auto")

	var resp archiveResponse
	if err := c.get(ctx, "archive", c.archiveURL+"?"+params.Encode(), &resp); err != nil {
		return nil, err
	}
	return values(resp.Daily.PrecipitationSum), nil
}

func (c *Client) get(ctx context.Context, source, fullURL string, out any) error {
	start := time.Now()
	err := c.doRequest(ctx, source, fullURL, out)
	c.metrics.UpstreamDuration.WithLabelValues(source).Observe(time.Since(start).Seconds())
	if err != nil {
		c.metrics.UpstreamRequests.WithLabelValues(source, "error").Inc()
		return err
	}
	c.metrics.UpstreamRequests.WithLabelValues(source, "success").Inc()
	return nil
}

func (c *Client) doRequest(ctx context.Context, source, fullURL string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s request: %w", source, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		var apiErr errorResponse
		if json.Unmarshal(body, &apiErr) == nil && apiErr.Reason != "" {
			return fmt.Errorf("open-meteo %s error: status %d: %s", source, resp.StatusCode, apiErr.Reason)
		}
		return fmt.Errorf("open-meteo %s error: status %d: %s", source, resp.StatusCode, body)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", source, err)
	}
	if v, ok := out.(validator); ok {
		if err := v.validate(); err != nil {
			return fmt.Errorf("open-meteo %s response: %w", source, err)
		}
	}
	c.logger.Debug("open-meteo response decoded", "source", source)
	return nil
}

func coordParams(coord domain.Coordinate) url.Values {
	return url.Values{
		"latitude":  {strconv.FormatFloat(coord.Lat, 'f', -1, 64)},
		"longitude": {strconv.FormatFloat(coord.Lng, 'f', -1, 64)},
	}
}

// values unwraps a series already checked by nullIndex.
func values(series []*float64) []float64 {
	out := make([]float64, len(series))
	for i, v := range series {
		out[i] = *v
	}
	return out
}

// nullIndex returns the position of the first null entry, or -1.
func nullIndex(series []*float64) int {
	for i, v := range series {
		if v == nil {
			return i
		}
	}
	return -1
}

type validator interface {
	validate() error
}

// Open-Meteo API response types.

type forecastResponse struct {
	Hourly struct {
		Time        []string   `json:"time"`
		Temperature []*float64 `json:"temperature_2m"`
		Humidity    []*float64 `json:"relative_humidity_2m"`
	} `json:"hourly"`
}

type archiveResponse struct {
	Daily struct {
		Time             []string   `json:"time"`
		PrecipitationSum []*float64 `json:"precipitation_sum"`
	} `json:"daily"`
}

func (r *forecastResponse) validate() error {
	if i := nullIndex(r.Hourly.Temperature); i >= 0 {
		return fmt.Errorf("temperature_2m[%d] is null", i)
	}
	if i := nullIndex(r.Hourly.Humidity); i >= 0 {
		return fmt.Errorf("relative_humidity_2m[%d] is null", i)
	}
	return nil
}

func (r *archiveResponse) validate() error {
	if i := nullIndex(r.Daily.PrecipitationSum); i >= 0 {
		return fmt.Errorf("precipitation_sum[%d] is null", i)
	}
	return nil
}

type errorResponse struct {
	Error  bool   `json:"error"`
	Reason string `json:"reason"`
}
