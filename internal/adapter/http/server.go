package http

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/couchcryptid/crop-advisor-service/internal/domain"
	"github.com/couchcryptid/crop-advisor-service/internal/observability"
	"github.com/couchcryptid/crop-advisor-service/internal/pipeline"
	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

//go:embed static/index.html
var indexHTML []byte

const maxBodyBytes = 1 << 20

// Predictor runs the enrich-and-classify cycle for a coordinate.
type Predictor interface {
	ModelLoaded() bool
	Run(ctx context.Context, c domain.Coordinate) (domain.Prediction, error)
}

// Server exposes the prediction API, the landing page, and the health,
// readiness, and metrics endpoints.
type Server struct {
	httpServer *http.Server
	predictor  Predictor
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewServer creates an HTTP server with /, /predict, /healthz, /readyz, and
// /metrics routes. allowedOrigins configures CORS; "*" allows any origin.
func NewServer(addr string, predictor Predictor, ready sharedobs.ReadinessChecker, allowedOrigins []string, metrics *observability.Metrics, logger *slog.Logger) *Server {
	r := chi.NewRouter()

	s := &Server{
		httpServer: &http.Server{
			Addr:              addr,
			Handler:           r,
			ReadHeaderTimeout: 10 * time.Second,
			ReadTimeout:       10 * time.Second,
			// Three upstream lookups with their own timeouts run per request.
			WriteTimeout: 60 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		predictor: predictor,
		metrics:   metrics,
		logger:    logger,
	}

	r.Use(middleware.RequestID)
	r.Use(s.recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "Origin"},
		MaxAge:         300,
	}))

	r.Get("/", handleIndex)
	r.Post("/predict", s.handlePredict)
	r.Get("/healthz", sharedobs.LivenessHandler())
	r.Get("/readyz", sharedobs.ReadinessHandler(ready))
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

func handleIndex(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write(indexHTML) //nolint:errcheck // static page
}

func (s *Server) handlePredict(w http.ResponseWriter, r *http.Request) {
	if !s.predictor.ModelLoaded() {
		s.fail(w, r, pipeline.ErrModelNotLoaded)
		return
	}

	coord, err := decodeCoordinate(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		s.fail(w, r, err)
		return
	}

	pred, err := s.predictor.Run(r.Context(), coord)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	sharedobs.WriteJSON(w, http.StatusOK, pred)
}

// fail reports every predict error as a 500 with the message in "error",
// matching the API's established contract.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	s.metrics.PredictionErrors.Inc()
	s.logger.Error("prediction failed",
		"error", err,
		"request_id", middleware.GetReqID(r.Context()),
	)
	sharedobs.WriteJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
}

func (s *Server) recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler { //nolint:errorlint // sentinel panic value
				panic(rec)
			}
			s.fail(w, r, fmt.Errorf("internal error: %v", rec))
		}()
		next.ServeHTTP(w, r)
	})
}

type predictRequest struct {
	Lat *coordinateValue `json:"lat"`
	Lng *coordinateValue `json:"lng"`
}

// coordinateValue accepts a JSON number or a numeric string.
type coordinateValue float64

func (v *coordinateValue) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return fmt.Errorf("could not convert string to float: %q", s)
		}
		*v = coordinateValue(f)
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("expected a number, got %s", data)
	}
	*v = coordinateValue(f)
	return nil
}

func decodeCoordinate(body io.Reader) (domain.Coordinate, error) {
	var req predictRequest
	if err := json.NewDecoder(body).Decode(&req); err != nil {
		return domain.Coordinate{}, fmt.Errorf("invalid request body: %w", err)
	}
	if req.Lat == nil {
		return domain.Coordinate{}, errors.New("lat is required")
	}
	if req.Lng == nil {
		return domain.Coordinate{}, errors.New("lng is required")
	}
	return domain.NewCoordinate(float64(*req.Lat), float64(*req.Lng))
}
