package http

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"

	"github.com/atandjijero/Saas/internal/auth"
	"github.com/atandjijero/Saas/internal/config"
	"github.com/atandjijero/Saas/internal/http/apierr"
	"github.com/atandjijero/Saas/internal/http/metric"
	"github.com/atandjijero/Saas/internal/http/middleware"
	"github.com/atandjijero/Saas/internal/realtime"
	"github.com/atandjijero/Saas/internal/service"
	"github.com/atandjijero/Saas/internal/storage/db"
	"github.com/atandjijero/Saas/pkg/validator"
)

var tracer = otel.Tracer("internal/http")

// Service represents the HTTP service.
type Service struct {
	cfg      config.HTTP
	logger   *slog.Logger
	registry *prometheus.Registry
	metrics  *metric.Metrics
	validate validator.Validator
	verifier auth.TokenVerifier
	health   db.HealthChecker

	saleSvc    service.SaleService
	statsSvc   service.StatsService
	productSvc service.ProductService
	hub        *realtime.Hub
}

type CleanupFunc func(ctx context.Context) error

func New(
	cfg config.HTTP,
	log *slog.Logger,
	verifier auth.TokenVerifier,
	health db.HealthChecker,
	saleSvc service.SaleService,
	statsSvc service.StatsService,
	productSvc service.ProductService,
	hub *realtime.Hub,
) *Service {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return &Service{
		cfg:        cfg,
		logger:     log.With(slog.String("service", "http")),
		registry:   registry,
		metrics:    metric.New(registry),
		validate:   validator.NewDefaultValidator(),
		verifier:   verifier,
		health:     health,
		saleSvc:    saleSvc,
		statsSvc:   statsSvc,
		productSvc: productSvc,
		hub:        hub,
	}
}

func (s *Service) Run(ctx context.Context) (CleanupFunc, error) {
	r := chi.NewRouter()
	s.RegisterMiddlewares(r)
	s.RegisterHandlers(r)

	return s.RunWithServer(ctx, r)
}

func (s *Service) RunWithServer(ctx context.Context, handler http.Handler) (CleanupFunc, error) {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", s.cfg.Port),
		Handler:           handler,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 16, // 64 KB
		BaseContext: func(_ net.Listener) context.Context {
			return ctx
		},
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			panic(err)
		}
	}()

	return func(ctx context.Context) error {
		ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		return srv.Shutdown(ctx)
	}, nil
}

func (s *Service) RegisterMiddlewares(r chi.Router) {
	r.Use(
		middleware.Recoverer(s.logger),
		middleware.Trace(tracer),
		middleware.Metrics(s.metrics),
		middleware.CorrelationID(),
		middleware.Cors(s.cfg.AllowedOrigins),
		middleware.Logging(s.logger),
	)
}

func (s *Service) RegisterHandlers(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(middleware.Auth(s.verifier))

		r.Post("/sales/{tenantId}", s.handleCreateSale)
		r.Get("/sales/{tenantId}", s.handleListSales)

		r.Get("/stats/revenue/{tenantId}", s.handleGetRevenue)
		r.Get("/stats/all-revenue", s.handleGetAllTenantsRevenue)

		r.Get("/products/{tenantId}", s.handleListProducts)
		r.Post("/products/{tenantId}/{productId}/restock", s.handleRestock)
	})

	// The websocket endpoint resolves its own token: browsers cannot set an
	// Authorization header on the handshake.
	r.Get("/ws", s.handleWebsocket)

	r.Get("/healthz", s.handleHealthz)

	r.Handle(middleware.MetricsPath, promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{
		ErrorLog: log.Default(),
	}))
}

func (s *Service) handleHealthz(w http.ResponseWriter, r *http.Request) {
	if ok, err := s.health.IsHealthy(r.Context()); !ok {
		s.logger.ErrorContext(r.Context(), "health check failed", slog.Any("error", err))
		s.respondJSON(w, r, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	s.respondJSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Service) respondJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.ErrorContext(r.Context(), "error encoding response", slog.Any("error", err))
	}
}

func (s *Service) respondError(w http.ResponseWriter, r *http.Request, err error) {
	res := apierr.New(err)

	logLevel := slog.LevelInfo
	if res.StatusCode >= 500 {
		logLevel = slog.LevelError
	} else if res.StatusCode >= 400 {
		logLevel = slog.LevelWarn
	}
	s.logger.Log(r.Context(), logLevel, "http response error", slog.Any("error", err))

	s.respondJSON(w, r, res.StatusCode, res)
}
