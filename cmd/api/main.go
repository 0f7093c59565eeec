package main

import (
	"context"
	"crypto/tls"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/clinicdesk/clinic-platform/internal/api/router"
	"github.com/clinicdesk/clinic-platform/internal/appointments"
	appconfig "github.com/clinicdesk/clinic-platform/internal/config"
	"github.com/clinicdesk/clinic-platform/internal/invoices"
	"github.com/clinicdesk/clinic-platform/internal/medicalrecords"
	"github.com/clinicdesk/clinic-platform/internal/observability/metrics"
	"github.com/clinicdesk/clinic-platform/internal/patients"
	"github.com/clinicdesk/clinic-platform/internal/practitioners"
	"github.com/clinicdesk/clinic-platform/internal/reports"
	"github.com/clinicdesk/clinic-platform/pkg/logging"
)

func main() {
	_ = godotenv.Load()
	cfg := appconfig.Load()

	logger := logging.New(cfg.LogLevel)
	logger.Info("starting clinic-platform API server",
		"env", cfg.Env,
		"port", cfg.Port,
	)

	if cfg.DatabaseURL == "" {
		logger.Error("DATABASE_URL is required")
		os.Exit(1)
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error("failed to create database pool", "error", err)
		os.Exit(1)
	}
	defer pool.Close()
	if err := pool.Ping(ctx); err != nil {
		logger.Error("failed to reach database", "error", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	schedulingMetrics := metrics.NewSchedulingMetrics(registry)
	reportMetrics := metrics.NewReportMetrics(registry)

	// Redis is optional. Without it reports are computed on every request.
	var reportCache *reports.Cache
	if cfg.RedisAddr != "" {
		opts := &redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword}
		if cfg.RedisTLS {
			opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
		}
		client := redis.NewClient(opts)
		if err := client.Ping(ctx).Err(); err != nil {
			logger.Warn("redis unreachable, report cache disabled", "error", err)
		} else {
			reportCache = reports.NewCache(client, cfg.ReportCacheTTL, logger)
		}
	}

	patientRepo := patients.NewRepository(pool)
	practitionerRepo := practitioners.NewRepository(pool)
	recordRepo := medicalrecords.NewRepository(pool)
	appointmentRepo := appointments.NewRepository(pool)
	invoiceRepo := invoices.NewRepository(pool)
	reportRepo := reports.NewRepository(pool)

	scheduler := appointments.NewScheduler(appointmentRepo, logger, schedulingMetrics).
		WithDefaultDuration(cfg.DefaultAppointmentMinutes).
		WithReportCache(reportCache)
	invoiceService := invoices.NewService(invoiceRepo, logger, reportCache)
	reportService := reports.NewService(reportRepo, reportCache, logger, reportMetrics)

	r := router.New(&router.Config{
		Logger:               logger,
		PatientsHandler:      patients.NewHandler(patientRepo, logger),
		PractitionersHandler: practitioners.NewHandler(practitionerRepo, logger),
		AppointmentsHandler:  appointments.NewHandler(scheduler, logger),
		InvoicesHandler:      invoices.NewHandler(invoiceService, logger),
		RecordsHandler:       medicalrecords.NewHandler(recordRepo, logger),
		ReportsHandler:       reports.NewHandler(reportService, invoiceService, logger),
		MetricsHandler:       promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		CORSAllowedOrigins:   cfg.CORSAllowedOrigins,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}
