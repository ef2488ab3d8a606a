package nominatim

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
	"golang.org/x/time/rate"
)

// Client implements domain.ReverseGeocoder using the Nominatim reverse API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	userAgent  string
	timeout    time.Duration
	limiter    *rate.Limiter
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewClient creates a Nominatim client. Requests are throttled to
// ratePerSec to stay inside the public instance's usage policy; timeout
// bounds both the wait for a rate-limit token and the request itself.
func NewClient(baseURL, userAgent string, ratePerSec float64, timeout time.Duration, metrics *observability.Metrics, logger *slog.Logger) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL:   baseURL,
		userAgent: userAgent,
		timeout:   timeout,
		limiter:   rate.NewLimiter(rate.Limit(ratePerSec), 1),
		metrics:   metrics,
		logger:    logger,
	}
}

// ReverseGeocode converts coordinates to a display name and address fields.
func (c *Client) ReverseGeocode(ctx context.Context, coord domain.Coordinate) (domain.Place, error) {
	params := url.Values{
		"format":         {"json"},
		"lat":            {strconv.FormatFloat(coord.Lat, 'f', -1, 64)},
		"lon":            {strconv.FormatFloat(coord.Lng, 'f', -1, 64)},
		"zoom":           {"18"},
		"addressdetails": {"1"},
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	start := time.Now()
	place, err := c.doRequest(ctx, c.baseURL+"/reverse?"+params.Encode())
	c.metrics.UpstreamDuration.WithLabelValues("geocode").Observe(time.Since(start).Seconds())
	if err != nil {
		c.metrics.UpstreamRequests.WithLabelValues("geocode", "error").Inc()
		return domain.Place{}, err
	}
	c.metrics.UpstreamRequests.WithLabelValues("geocode", "success").Inc()
	return place, nil
}

func (c *Client) doRequest(ctx context.Context, fullURL string) (domain.Place, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return domain.Place{}, fmt.Errorf("nominatim rate limit wait: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return domain.Place{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.Place{}, fmt.Errorf("reverse geocode request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return domain.Place{}, fmt.Errorf("nominatim API error: status %d: %s", resp.StatusCode, body)
	}

	var r response
	if err := json.NewDecoder(resp.Body).Decode(&r); err != nil {
		return domain.Place{}, fmt.Errorf("decode response: %w", err)
	}
	if r.Error != "" {
		return domain.Place{}, fmt.Errorf("nominatim error: %s", r.Error)
	}

	c.logger.Debug("reverse geocode resolved", "display_name", r.DisplayName)
	return domain.Place{
		DisplayName: r.DisplayName,
		Address:     r.Address,
	}, nil
}

// Nominatim API response types.

type response struct {
	DisplayName string            `json:"display_name"`
	Address     map[string]string `json:"address"`
	Error       string            `json:"error"`
}
