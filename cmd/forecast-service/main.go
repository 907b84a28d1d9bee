// cmd/forecast-service/main.go
package main

import (
	"context"
	"encoding/json"
	"net/http"
	_ "net/http/pprof"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"interview-forecast/internal/accuracy"
	"interview-forecast/internal/collab"
	"interview-forecast/internal/common/config"
	"interview-forecast/internal/common/database"
	"interview-forecast/internal/common/logger"
	"interview-forecast/internal/common/observability"
	"interview-forecast/internal/engine"
	"interview-forecast/internal/factors"
	"interview-forecast/internal/forecast"
	"interview-forecast/internal/insights"
	"interview-forecast/internal/models"
	"interview-forecast/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		zapLog := logger.New("info", "console")
		zapLog.Fatal("config load failed", zap.Error(err))
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("starting forecast service",
		zap.String("environment", cfg.App.Environment),
		zap.String("version", cfg.App.Version),
	)

	obs := observability.New(cfg.App.Name)
	defer obs.Shutdown()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pg, err := database.NewPostgres(cfg.Database.Postgres)
	if err != nil {
		zapLog.Fatal("postgres init failed", zap.Error(err))
	}
	defer pg.Close()

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	if err := pg.Ping(pingCtx); err != nil {
		cancel()
		zapLog.Fatal("postgres unreachable", zap.Error(err))
	}
	cancel()

	rdb, err := database.NewRedis(cfg.Database.Redis)
	if err != nil {
		zapLog.Fatal("redis init failed", zap.Error(err))
	}
	defer rdb.Close()

	if err := rdb.Ping(ctx); err != nil {
		zapLog.Fatal("redis unreachable", zap.Error(err))
	}

	repo := collab.NewRepository(pg.DB, log)
	collector := factors.NewCollector(factors.Sources{
		Checklist: repo,
		Match:     repo,
		Practice:  repo,
		History:   repo,
	}, log)

	var generator insights.Generator
	if cfg.Insights.APIKey != "" {
		generator, err = insights.NewGemini(ctx, cfg.Insights)
		if err != nil {
			// The enrichment is advisory; run without it.
			zapLog.Warn("insight generator unavailable", zap.Error(err))
			generator = insights.NewNoop()
		}
	} else {
		generator = insights.NewNoop()
	}

	predictionStore := store.New(pg.DB, log)
	lock := store.NewInterviewLock(rdb.Client, cfg.Scoring.LockTTL)
	eng := engine.New(predictionStore, lock, collector, repo, generator, cfg.Scoring, cfg.Insights, log)

	tracker := accuracy.NewTracker(predictionStore, log)
	aggregator := forecast.NewAggregator(eng, predictionStore, repo, tracker, cfg.Scoring.ForecastConcurrency, log)

	// The real API surface lives in the surrounding application; these
	// internal endpoints exist for operators and the metrics scraper.
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/debug/pprof/", http.DefaultServeMux)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if err := pg.Ping(r.Context()); err != nil {
			http.Error(w, "postgres unreachable", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("GET /internal/forecast", func(w http.ResponseWriter, r *http.Request) {
		candidateID := r.URL.Query().Get("candidate_id")
		if candidateID == "" {
			http.Error(w, "candidate_id is required", http.StatusBadRequest)
			return
		}
		fc, err := aggregator.BuildForecast(r.Context(), candidateID)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		obs.RecordRequest(r.Context(), "build-forecast", "ok")
		json.NewEncoder(w).Encode(fc)
	})
	mux.HandleFunc("POST /internal/outcomes", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			PredictionID string `json:"predictionId"`
			Outcome      string `json:"outcome"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		pred, err := eng.RecordActualOutcome(r.Context(), req.PredictionID, models.Outcome(req.Outcome))
		if err != nil {
			http.Error(w, err.Error(), http.StatusUnprocessableEntity)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		obs.RecordRequest(r.Context(), "record-outcome", "ok")
		json.NewEncoder(w).Encode(pred)
	})

	srv := &http.Server{
		Addr:    cfg.Server.MetricsAddress,
		Handler: mux,
	}

	go func() {
		zapLog.Info("metrics server listening", zap.String("address", cfg.Server.MetricsAddress))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLog.Fatal("metrics server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	zapLog.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zapLog.Warn("metrics server shutdown failed", zap.Error(err))
	}
}
