package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"connectrpc.com/connect"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/mmynk/ebills/internal/app"
	"github.com/mmynk/ebills/internal/auth"
	"github.com/mmynk/ebills/internal/config"
	"github.com/mmynk/ebills/internal/middleware"
	"github.com/mmynk/ebills/internal/notify"
	"github.com/mmynk/ebills/internal/payment"
	"github.com/mmynk/ebills/internal/service"
	"github.com/mmynk/ebills/internal/storage/sqlite"
	"github.com/mmynk/ebills/pkg/api/apiconnect"
	"github.com/mmynk/ebills/pkg/logging"
	"github.com/mmynk/ebills/pkg/rabbitmq"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logging.Setup(cfg.LogLevel, cfg.LogFormat)
	logger := slog.Default()

	if dir := filepath.Dir(cfg.DBPath); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			slog.Error("Failed to create data directory", "path", dir, "error", err)
			os.Exit(1)
		}
	}

	// Initialize SQLite storage
	store, err := sqlite.New(cfg.DBPath)
	if err != nil {
		slog.Error("Failed to initialize storage", "error", err)
		os.Exit(1)
	}
	slog.Info("Storage initialized", "database", cfg.DBPath)

	notifier, closeNotifier := newNotifier(cfg, logger)

	jwtManager := auth.NewJWTManager(cfg.JWTSecret, cfg.TokenTTL)
	authenticator := auth.NewPasswordAuthenticator(store)
	gateway := payment.NewSignedGateway(cfg.PaymentMerchantKey, cfg.PaymentCheckoutURL)

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := middleware.NewMetrics(registry)

	interceptors := connect.WithInterceptors(
		metrics.Interceptor(),
		middleware.RequireAuth(jwtManager,
			apiconnect.AuthServiceRegisterProcedure,
			apiconnect.AuthServiceLoginProcedure,
			apiconnect.PaymentServiceConfirmPaymentProcedure,
		),
		middleware.LoggingInterceptor(logger),
	)

	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.Recoverer)
	r.Use(loggingMiddleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "Connect-Protocol-Version", "Connect-Timeout-Ms"},
		ExposedHeaders:   []string{"Connect-Protocol-Version", "Connect-Timeout-Ms"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// Register Connect services
	r.Mount(apiconnect.NewAuthServiceHandler(service.NewAuthService(authenticator, jwtManager, store, logger), interceptors))
	r.Mount(apiconnect.NewBillServiceHandler(service.NewBillService(store, notifier), interceptors))
	r.Mount(apiconnect.NewCommentServiceHandler(service.NewCommentService(store), interceptors))
	r.Mount(apiconnect.NewGroupServiceHandler(service.NewGroupService(store), interceptors))
	r.Mount(apiconnect.NewPaymentServiceHandler(service.NewPaymentService(store, gateway, notifier), interceptors))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := store.Ping(ctx); err != nil {
			slog.Warn("Health check failed", "error", err)
			http.Error(w, "storage unavailable", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	scheduler := app.NewScheduler(app.NewJobs(store, notifier, logger), logger, cfg.ReminderSchedule)
	if err := scheduler.Start(); err != nil {
		slog.Error("Failed to start scheduler", "schedule", cfg.ReminderSchedule, "error", err)
		closeNotifier()
		store.Close()
		os.Exit(1)
	}

	// Wrap with h2c for HTTP/2 without TLS (required for Connect)
	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           h2c.NewHandler(r, &http2.Server{}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		slog.Info("Connect server starting", "address", server.Addr, "url", fmt.Sprintf("http://localhost%s", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	exitCode := 0
	select {
	case <-quit:
		slog.Info("Shutting down server")
	case err := <-serveErr:
		slog.Error("Server failed", "error", err)
		exitCode = 1
	}

	<-scheduler.Stop().Done()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := server.Shutdown(ctx); err != nil {
		slog.Error("Server shutdown failed", "error", err)
	}
	cancel()

	closeNotifier()
	if err := store.Close(); err != nil {
		slog.Error("Failed to close storage", "error", err)
	}
	slog.Info("Server stopped")
	os.Exit(exitCode)
}

// newNotifier publishes events to RabbitMQ when a broker is configured and
// falls back to logging them otherwise.
func newNotifier(cfg *config.Config, logger *slog.Logger) (notify.Notifier, func()) {
	if cfg.RabbitMQURL == "" {
		slog.Info("No RabbitMQ URL configured, notifications will be logged")
		return notify.NewLogNotifier(logger), func() {}
	}

	producer, err := rabbitmq.NewEventProducer(cfg.RabbitMQURL)
	if err != nil {
		slog.Error("Failed to connect to RabbitMQ, notifications will be logged", "error", err)
		return notify.NewLogNotifier(logger), func() {}
	}
	slog.Info("RabbitMQ producer connected", "exchange", cfg.EventsExchange)
	return notify.NewBrokerNotifier(producer, cfg.EventsExchange), producer.Close
}

// loggingMiddleware logs all incoming requests
func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		slog.Debug("Request completed",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"request_id", chimiddleware.GetReqID(r.Context()),
			"remote_addr", r.RemoteAddr,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	})
}
