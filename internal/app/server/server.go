package server

import (
	"context"
	"encoding/json"
	"log"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"

	"nomina/internal/domain/audit"
	"nomina/internal/domain/auth"
	"nomina/internal/domain/contributions"
	"nomina/internal/domain/employee"
	"nomina/internal/domain/notifications"
	"nomina/internal/domain/overtime"
	"nomina/internal/domain/payroll"
	"nomina/internal/domain/reports"
	"nomina/internal/domain/tax"
	"nomina/internal/platform/config"
	"nomina/internal/platform/crypto"
	"nomina/internal/platform/db"
	"nomina/internal/platform/email"
	"nomina/internal/platform/jobs"
	"nomina/internal/platform/metrics"
	audithandler "nomina/internal/transport/http/handlers/audit"
	authhandler "nomina/internal/transport/http/handlers/auth"
	employeeshandler "nomina/internal/transport/http/handlers/employees"
	notificationshandler "nomina/internal/transport/http/handlers/notifications"
	overtimehandler "nomina/internal/transport/http/handlers/overtime"
	payrollhandler "nomina/internal/transport/http/handlers/payroll"
	referencehandler "nomina/internal/transport/http/handlers/reference"
	reportshandler "nomina/internal/transport/http/handlers/reports"
	"nomina/internal/transport/http/middleware"
)

func Run() {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("config invalid: %v", err)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	ctx := context.Background()
	pool, err := db.Connect(ctx, cfg)
	if err != nil {
		log.Fatalf("db connect failed: %v", err)
	}
	defer pool.Close()

	if cfg.RunMigrations {
		if err := db.Migrate(ctx, pool, cfg.MigrationsDir); err != nil {
			log.Fatalf("migrations failed: %v", err)
		}
	}
	if cfg.RunSeed {
		if err := db.Seed(ctx, pool, cfg); err != nil {
			log.Fatalf("seed failed: %v", err)
		}
	}

	cryptoSvc, err := crypto.New(cfg.DataEncryptionKey)
	if err != nil {
		log.Fatalf("encryption init failed: %v", err)
	}

	authStore := auth.NewPGStore(pool)
	employeeStore := employee.NewPGStore(pool, cryptoSvc)
	taxStore := tax.NewPGStore(pool)
	rateStore := contributions.NewPGStore(pool)
	payrollStore := payroll.NewPGStore(pool)
	overtimeStore := overtime.NewPGStore(pool)

	auditSvc := audit.New(pool)
	authSvc := auth.NewService(authStore, cfg.JWTSecret, cfg.TokenTTL)
	employeeSvc := employee.NewService(employeeStore)

	notificationSvc := notifications.New(notifications.NewStore(pool), email.New(cfg))
	if cfg.EmailFrom != "" {
		notificationSvc.DefaultFrom = cfg.EmailFrom
	}

	overtimeSvc := overtime.NewService(overtimeStore, employeeStore, nil, notificationSvc, logger)
	payrollSvc := payroll.NewService(payrollStore, employeeStore, taxStore, rateStore, overtimeSvc, logger)
	overtimeSvc.SetPolicySource(payrollSvc)
	payrollSvc.SetNotifier(notificationSvc)

	reportsSvc := reports.NewService(payrollStore, employeeStore, overtimeSvc, reports.NewJobRunStore(pool))

	collector := metrics.New()

	jobRunner := jobs.New(pool, cfg, overtimeSvc)
	jobRunner.Start(ctx)

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Logger(logger, collector))
	router.Use(middleware.Recoverer)
	router.Use(middleware.SecureHeaders(cfg.Environment == "production"))
	router.Use(middleware.BodyLimit(cfg.MaxBodyBytes))
	router.Use(middleware.RateLimit(cfg.RateLimitPerMinute, time.Minute))
	router.Use(middleware.SensitiveMutationRateLimit(cfg.RateLimitPerMinute, time.Minute))
	router.Use(middleware.Auth(cfg.JWTSecret))

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	router.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := pool.Ping(ctx); err != nil {
			http.Error(w, "db not ready", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})

	if cfg.MetricsEnabled {
		router.With(middleware.RequirePermission(auth.PermSystemAdmin, authStore)).
			Get("/admin/metrics", func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				_ = json.NewEncoder(w).Encode(collector.Snapshot())
			})
	}

	router.Route("/api/v1", func(r chi.Router) {
		authhandler.NewHandler(authSvc, auditSvc).RegisterRoutes(r)
		employeeshandler.NewHandler(employeeSvc, authStore, auditSvc).RegisterRoutes(r)
		payrollhandler.NewHandler(payrollSvc, authStore, auditSvc, collector, middleware.NewIdempotencyStore(pool)).RegisterRoutes(r)
		overtimehandler.NewHandler(overtimeSvc, authStore, auditSvc).RegisterRoutes(r)
		referencehandler.NewHandler(taxStore, rateStore, overtimeSvc, authStore, auditSvc).RegisterRoutes(r)
		reportshandler.NewHandler(reportsSvc, authStore).RegisterRoutes(r)
		notificationshandler.NewHandler(notificationSvc, authStore, auditSvc).RegisterRoutes(r)
		audithandler.NewHandler(auditSvc, authStore).RegisterRoutes(r)
	})

	logger.Info("payroll server listening", "addr", cfg.Addr, "env", cfg.Environment)
	if err := http.ListenAndServe(cfg.Addr, router); err != nil {
		log.Fatalf("server failed: %v", err)
	}
}
