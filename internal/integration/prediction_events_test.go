//go:build integration

package integration_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	httpadapter "github.com/couchcryptid/crop-advisor-service/internal/adapter/http"
	"github.com/couchcryptid/crop-advisor-service/internal/adapter/kafka"
	"github.com/couchcryptid/crop-advisor-service/internal/adapter/nominatim"
	"github.com/couchcryptid/crop-advisor-service/internal/adapter/openmeteo"
	"github.com/couchcryptid/crop-advisor-service/internal/adapter/soilgrids"
	"github.com/couchcryptid/crop-advisor-service/internal/config"
	"github.com/couchcryptid/crop-advisor-service/internal/domain"
	"github.com/couchcryptid/crop-advisor-service/internal/model"
	"github.com/couchcryptid/crop-advisor-service/internal/observability"
	"github.com/couchcryptid/crop-advisor-service/internal/pipeline"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testPredictionTopic = "test-crop-predictions"

// fakeUpstreams serves canned Nominatim, Open-Meteo, and SoilGrids responses
// describing a warm, very wet paddy region.
func fakeUpstreams(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("GET /reverse", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"display_name": "Thanjavur, Tamil Nadu, India",
			"address": {"city": "Thanjavur", "state": "Tamil Nadu", "country": "India"}}`))
	})
	mux.HandleFunc("GET /forecast", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"hourly": {"temperature_2m": [23, 24.4], "relative_humidity_2m": [80, 84]}}`))
	})
	mux.HandleFunc("GET /archive", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"daily": {"precipitation_sum": [1200, 1160]}}`))
	})
	mux.HandleFunc("GET /properties/query", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"properties": {"layers": [
			{"name": "nitrogen", "depths": [{"label": "0-5cm", "values": {"mean": 80}}]},
			{"name": "phh2o", "depths": [{"label": "0-5cm", "values": {"mean": 6.4}}]},
			{"name": "cec", "depths": [{"label": "0-5cm", "values": {"mean": 60}}]}
		]}}`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func testModel(t *testing.T) *model.Bundle {
	t.Helper()
	a, err := model.FromCentroids([]model.Centroid{
		{Class: "chickpea", Mean: domain.FeatureVector{40, 68, 80, 18.9, 16.9, 7.3, 80}},
		{Class: "mothbeans", Mean: domain.FeatureVector{21.4, 48, 20.2, 28.2, 53.2, 6.8, 51.2}},
		{Class: "rice", Mean: domain.FeatureVector{80, 48, 40, 23.7, 82, 6.4, 236}},
	})
	require.NoError(t, err)
	b, err := model.New(a)
	require.NoError(t, err)
	return b
}

// TestPredictPublishesEvent drives POST /predict through the real adapters
// against fake upstreams and verifies the prediction event lands on Kafka.
func TestPredictPublishesEvent(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 90*time.Second)
	defer cancel()

	broker := startKafka(ctx, t)
	createTopic(t, broker, testPredictionTopic)

	upstream := fakeUpstreams(t)
	cfg := &config.Config{
		KafkaBrokers:         []string{broker},
		KafkaPredictionTopic: testPredictionTopic,
		UpstreamTimeout:      10 * time.Second,
	}
	metrics := observability.NewMetricsForTesting()
	logger := discardLogger()

	writer := kafka.NewWriter(cfg, logger)
	t.Cleanup(func() { _ = writer.Close() })

	bundle := testModel(t)
	p := pipeline.New(pipeline.Sources{
		Geocoder: nominatim.NewClient(upstream.URL, "crop-advisor-test/1.0", 100, cfg.UpstreamTimeout, metrics, logger),
		Weather:  openmeteo.NewClient(upstream.URL+"/forecast", upstream.URL+"/archive", cfg.UpstreamTimeout, metrics, logger),
		Soil:     soilgrids.NewClient(upstream.URL, cfg.UpstreamTimeout, metrics, logger),
	}, bundle, bundle, logger, metrics, pipeline.WithPublisher(writer))

	srv := httpadapter.NewServer(":0", p, p, []string{"*"}, metrics, logger)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/predict", strings.NewReader(`{"lat": "10.787", "lng": 79.1378}`))
	srv.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var pred domain.Prediction
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &pred))
	assert.Equal(t, "rice", pred.Crop)
	assert.Equal(t, "Thanjavur", pred.LocationName)
	assert.Equal(t, domain.FeatureVector{80, 48, 150, 23.7, 82, 6.4, 236}, pred.Features)

	consumer := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:   []string{broker},
		Topic:     testPredictionTopic,
		Partition: 0,
		MinBytes:  1,
		MaxBytes:  1 << 20,
	})
	t.Cleanup(func() { _ = consumer.Close() })

	readCtx, readCancel := context.WithTimeout(ctx, 30*time.Second)
	defer readCancel()
	msg, err := consumer.ReadMessage(readCtx)
	require.NoError(t, err, "read from prediction topic")

	var event domain.PredictionEvent
	require.NoError(t, json.Unmarshal(msg.Value, &event))
	assert.Equal(t, event.ID, string(msg.Key))
	assert.Equal(t, "rice", event.Prediction)
	assert.Equal(t, "Thanjavur", event.LocationName)
	assert.InDelta(t, 10.787, event.Lat, 1e-9)
	assert.Equal(t, pred.Features, event.Features)

	headers := make(map[string]string, len(msg.Headers))
	for _, h := range msg.Headers {
		headers[h.Key] = string(h.Value)
	}
	assert.Equal(t, "rice", headers["crop"])
	assert.NotEmpty(t, headers["predicted_at"])
}
