package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"time"

	"energy-dashboard/internal/observability/metrics"
	"energy-dashboard/internal/pipeline/application"
	pricingledger "energy-dashboard/internal/pricing/infrastructure/ledger"
	qualitydomain "energy-dashboard/internal/quality/domain"
	normalize "energy-dashboard/internal/readings/application"
	reporting "energy-dashboard/internal/reporting/domain"
	memoryrepo "energy-dashboard/internal/reporting/infrastructure/memory"
	postgresrepo "energy-dashboard/internal/reporting/infrastructure/postgres"
	reportinghttp "energy-dashboard/internal/reporting/interfaces/http"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	cfg := loadEnv()
	logger := log.New(os.Stdout, "", log.LstdFlags)

	pipelineCfg, err := application.LoadConfig(cfg.ConfigPath)
	if err != nil {
		logger.Fatalf("config error: %v", err)
	}

	var repo reporting.SeriesRepository
	if cfg.DatabaseURL != "" {
		db, err := sql.Open("pgx", cfg.DatabaseURL)
		if err != nil {
			logger.Fatalf("db open error: %v", err)
		}
		defer db.Close()
		if err := db.Ping(); err != nil {
			logger.Fatalf("db ping error: %v", err)
		}
		repo = postgresrepo.NewSeriesRepository(db)
	} else {
		logger.Printf("DATABASE_URL not set, using in-memory series store")
		repo = memoryrepo.NewSeriesRepository()
	}

	metrics.Init()

	normalizer, err := normalize.NewNormalizer(logger)
	if err != nil {
		logger.Fatalf("normalizer error: %v", err)
	}
	feedLoader, err := application.NewFormatLoader(logger)
	if err != nil {
		logger.Fatalf("feed loader error: %v", err)
	}

	ledgerLoader, err := pricingledger.NewLoader(logger)
	if err != nil {
		logger.Fatalf("ledger loader error: %v", err)
	}
	fuelLedger, err := ledgerLoader.LoadFile(pipelineCfg.Fuel.LedgerPath)
	if err != nil {
		logger.Fatalf("ledger load error: %v", err)
	}

	fuelService, err := application.NewFuelService(pipelineCfg.Fuel, feedLoader, normalizer, fuelLedger, repo, logger)
	if err != nil {
		logger.Fatalf("fuel service error: %v", err)
	}
	solarService, err := application.NewSolarService(pipelineCfg.Solar, pipelineCfg.Groups(), feedLoader, normalizer, repo, logger)
	if err != nil {
		logger.Fatalf("solar service error: %v", err)
	}
	factoryService, err := application.NewFactoryService(pipelineCfg.Factory, feedLoader, normalizer, repo, logger)
	if err != nil {
		logger.Fatalf("factory service error: %v", err)
	}

	runner, err := application.NewRunner(fuelService, solarService, factoryService)
	if err != nil {
		logger.Fatalf("runner error: %v", err)
	}
	if err := runner.RunAll(context.Background()); err != nil {
		// Feeds are re-read on every refresh; a partial first run still
		// serves whatever series did land.
		logger.Printf("initial pipeline run: %v", err)
	}

	var qualityOpts []application.QualityOption
	if from, to, ok, err := pipelineCfg.Quality.ExpectedRange(); err != nil {
		logger.Fatalf("quality config error: %v", err)
	} else if ok {
		qualityOpts = append(qualityOpts, application.WithExpectedRange(from, to))
	}
	qualityService, err := application.NewQualityService(repo, qualitydomain.NewScorer(pipelineCfg.Quality.MinPoints), qualityOpts...)
	if err != nil {
		logger.Fatalf("quality service error: %v", err)
	}

	seriesHandler, err := reportinghttp.NewSeriesHandler(repo)
	if err != nil {
		logger.Fatalf("series handler error: %v", err)
	}
	qualityHandler, err := reportinghttp.NewQualityHandler(qualityService)
	if err != nil {
		logger.Fatalf("quality handler error: %v", err)
	}
	exportHandler, err := reportinghttp.NewExportHandler(repo)
	if err != nil {
		logger.Fatalf("export handler error: %v", err)
	}
	refreshHandler, err := reportinghttp.NewRefreshHandler(runner, logger)
	if err != nil {
		logger.Fatalf("refresh handler error: %v", err)
	}

	mux := http.NewServeMux()
	mux.Handle("/api/v1/series", seriesHandler)
	mux.Handle("/api/v1/quality", qualityHandler)
	mux.Handle("/api/v1/exports/", exportHandler)
	mux.Handle("/api/v1/refresh", refreshHandler)
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	server := &http.Server{Addr: cfg.HTTPAddr, Handler: loggingMiddleware(mux, logger)}
	logger.Printf("http listening on %s", cfg.HTTPAddr)
	logger.Fatal(server.ListenAndServe())
}

type env struct {
	ConfigPath  string
	DatabaseURL string
	HTTPAddr    string
}

func loadEnv() env {
	cfg := env{
		ConfigPath:  getenvDefault("CONFIG_PATH", "config.yaml"),
		DatabaseURL: getenvDefault("DATABASE_URL", getenvDefault("PG_DSN", "")),
		HTTPAddr:    getenvDefault("HTTP_ADDR", ":8080"),
	}
	return cfg
}

func getenvDefault(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func loggingMiddleware(next http.Handler, logger *log.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		resp := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(resp, r)
		logger.Printf("http %s %s %d %s", r.Method, r.URL.Path, resp.status, time.Since(start))
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}
