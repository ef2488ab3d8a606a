package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	httpadapter "github.com/couchcryptid/crop-advisor-service/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/crop-advisor-service/internal/adapter/kafka"
	"github.com/couchcryptid/crop-advisor-service/internal/adapter/nominatim"
	"github.com/couchcryptid/crop-advisor-service/internal/adapter/openmeteo"
	"github.com/couchcryptid/crop-advisor-service/internal/adapter/soilgrids"
	"github.com/couchcryptid/crop-advisor-service/internal/config"
	"github.com/couchcryptid/crop-advisor-service/internal/model"
	"github.com/couchcryptid/crop-advisor-service/internal/observability"
	"github.com/couchcryptid/crop-advisor-service/internal/pipeline"
	"golang.org/x/sync/errgroup"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	// A missing or invalid model is not fatal: the server still starts and
	// /predict reports "Model not loaded" until it is fixed and restarted.
	var (
		classifier pipeline.Classifier
		decoder    pipeline.LabelDecoder
	)
	if bundle, err := model.Load(cfg.ModelPath); err != nil {
		logger.Error("failed to load model", "path", cfg.ModelPath, "error", err)
		metrics.ModelLoaded.Set(0)
	} else {
		classifier, decoder = bundle, bundle
		metrics.ModelLoaded.Set(1)
		logger.Info("model loaded", "path", cfg.ModelPath, "classes", len(bundle.Classes()))
	}

	sources := pipeline.Sources{
		Geocoder: nominatim.NewClient(cfg.NominatimURL, cfg.NominatimUserAgent, cfg.NominatimRateLimit, cfg.UpstreamTimeout, metrics, logger),
		Weather:  openmeteo.NewClient(cfg.OpenMeteoForecastURL, cfg.OpenMeteoArchiveURL, cfg.UpstreamTimeout, metrics, logger),
		Soil:     soilgrids.NewClient(cfg.SoilGridsURL, cfg.UpstreamTimeout, metrics, logger),
	}

	var (
		opts   []pipeline.Option
		writer *kafkaadapter.Writer
	)
	if cfg.KafkaEnabled {
		writer = kafkaadapter.NewWriter(cfg, logger)
		opts = append(opts, pipeline.WithPublisher(writer))
		logger.Info("prediction events enabled", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaPredictionTopic)
	} else {
		logger.Info("prediction events disabled")
	}

	p := pipeline.New(sources, classifier, decoder, logger, metrics, opts...)

	srv := httpadapter.NewServer(cfg.HTTPAddr, p, p, cfg.CORSAllowedOrigins, metrics, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("http server shutdown: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("server stopped with error", "error", err)
	}
	if writer != nil {
		if err := writer.Close(); err != nil {
			logger.Error("kafka writer close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}
