package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/couchcryptid/crop-advisor-service/internal/domain"
	"github.com/couchcryptid/crop-advisor-service/internal/observability"
)

// DefaultPublishTimeout bounds how long a prediction event may delay the
// response.
const DefaultPublishTimeout = 500 * time.Millisecond

// ErrModelNotLoaded is returned when no classifier was loaded at startup.
var ErrModelNotLoaded = errors.New("Model not loaded") //nolint:staticcheck // surfaced verbatim to API clients

// Classifier maps a feature vector to a numeric crop label.
type Classifier interface {
	Predict(v domain.FeatureVector) (int, error)
}

// LabelDecoder maps a numeric label back to a crop name.
type LabelDecoder interface {
	Decode(label int) (string, error)
}

// Publisher emits a record of each completed prediction.
type Publisher interface {
	Publish(ctx context.Context, event domain.PredictionEvent) error
}

// Sources groups the upstream data providers. A nil provider is treated as
// always failing, so its fallback is used.
type Sources struct {
	Geocoder domain.ReverseGeocoder
	Weather  domain.WeatherProvider
	Soil     domain.SoilProvider
}

// Pipeline enriches a coordinate with place, weather, and soil data and runs
// the classifier on the result.
type Pipeline struct {
	sources    Sources
	classifier Classifier
	decoder    LabelDecoder
	publisher  Publisher
	publishTTL time.Duration
	logger     *slog.Logger
	metrics    *observability.Metrics
}

// Option customizes a Pipeline.
type Option func(*Pipeline)

// WithPublisher enables prediction events.
func WithPublisher(p Publisher) Option {
	return func(pl *Pipeline) { pl.publisher = p }
}

// WithPublishTimeout overrides DefaultPublishTimeout.
func WithPublishTimeout(d time.Duration) Option {
	return func(pl *Pipeline) { pl.publishTTL = d }
}

// New creates a Pipeline. classifier and decoder may be nil when the model
// failed to load; Run then returns ErrModelNotLoaded.
func New(sources Sources, classifier Classifier, decoder LabelDecoder, logger *slog.Logger, metrics *observability.Metrics, opts ...Option) *Pipeline {
	p := &Pipeline{
		sources:    sources,
		classifier: classifier,
		decoder:    decoder,
		publishTTL: DefaultPublishTimeout,
		logger:     logger,
		metrics:    metrics,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// ModelLoaded reports whether a classifier and label decoder are available.
func (p *Pipeline) ModelLoaded() bool {
	return p.classifier != nil && p.decoder != nil
}

// CheckReadiness returns nil once a model is available.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if !p.ModelLoaded() {
		return errors.New("model not loaded")
	}
	return nil
}

// Run produces a crop recommendation for c. Upstream failures never fail the
// request; only a missing model or a classifier error does.
func (p *Pipeline) Run(ctx context.Context, c domain.Coordinate) (domain.Prediction, error) {
	if !p.ModelLoaded() {
		return domain.Prediction{}, ErrModelNotLoaded
	}
	start := time.Now()

	var (
		name    string
		weather domain.WeatherSample
		soil    domain.SoilSample
		wg      sync.WaitGroup
	)
	// Each aggregator degrades to its own fallback, so there is no error to
	// collect.
	wg.Go(func() { name = domain.ResolveLocationName(ctx, c, p.sources.Geocoder, p.logger) })
	wg.Go(func() { weather = domain.AggregateWeather(ctx, c, p.sources.Weather, p.logger) })
	wg.Go(func() { soil = domain.AggregateSoil(ctx, c, p.sources.Soil, p.logger) })
	wg.Wait()

	p.recordFallbacks(name, weather, soil)

	features := domain.AssembleFeatures(soil, weather)
	label, err := p.classifier.Predict(features)
	if err != nil {
		return domain.Prediction{}, fmt.Errorf("predict: %w", err)
	}
	crop, err := p.decoder.Decode(label)
	if err != nil {
		return domain.Prediction{}, fmt.Errorf("decode label: %w", err)
	}

	pred := domain.Prediction{
		Crop:         crop,
		LocationName: name,
		Features:     features,
	}
	p.metrics.Predictions.WithLabelValues(crop).Inc()
	p.metrics.PredictionDuration.Observe(time.Since(start).Seconds())
	p.logger.Info("prediction complete",
		"lat", c.Lat,
		"lng", c.Lng,
		"crop", crop,
		"location", name,
		"weather_source", weather.Source,
		"soil_source", soil.Source,
	)

	p.publish(ctx, c, pred)
	return pred, nil
}

func (p *Pipeline) recordFallbacks(name string, weather domain.WeatherSample, soil domain.SoilSample) {
	if name == domain.UnknownLocation {
		p.metrics.Fallbacks.WithLabelValues("geocode").Inc()
	}
	if weather.Source == domain.SourceFallback {
		p.metrics.Fallbacks.WithLabelValues("weather").Inc()
	}
	if soil.Source == domain.SourceFallback {
		p.metrics.Fallbacks.WithLabelValues("soil").Inc()
	}
	if n := len(soil.Imputed); n > 0 {
		p.metrics.Fallbacks.WithLabelValues("soil_zero").Add(float64(n))
	}
}

// publish sends a prediction event if a publisher is configured. Failures
// are logged and counted but never affect the response. The event outlives
// a cancelled request but is bounded by the publish timeout.
func (p *Pipeline) publish(ctx context.Context, c domain.Coordinate, pred domain.Prediction) {
	if p.publisher == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), p.publishTTL)
	defer cancel()

	event := domain.NewPredictionEvent(c, pred)
	if err := p.publisher.Publish(ctx, event); err != nil {
		p.metrics.EventsFailed.Inc()
		p.logger.Warn("publish prediction event failed", "id", event.ID, "error", err)
		return
	}
	p.metrics.EventsPublished.Inc()
}
