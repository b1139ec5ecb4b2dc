// Command rainydays runs the app core as a standalone process for
// development: the owner loop, a static location provider seeded from config,
// and the HTTP control surface that stands in for the mobile UI.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/rainydays/core/internal/adapter/imagehost"
	"github.com/rainydays/core/internal/adapter/weather"
	"github.com/rainydays/core/internal/app"
	"github.com/rainydays/core/internal/config"
	"github.com/rainydays/core/internal/domain"
	"github.com/rainydays/core/internal/notify"
	"github.com/rainydays/core/internal/observability"
	"github.com/rainydays/core/internal/store"
	"github.com/rainydays/core/internal/store/boltdb"
	"github.com/rainydays/core/internal/store/jsondb"

	httpadapter "github.com/rainydays/core/internal/adapter/http"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	eventStore, err := newStore(cfg)
	if err != nil {
		logger.Error("failed to open event store", "error", err)
		os.Exit(1)
	}
	defer eventStore.Close()

	// Forecasts are feature-flagged via WEATHER_ENABLED / WEATHER_API_KEY.
	var forecasts app.Forecaster
	if cfg.WeatherEnabled {
		forecasts = weather.NewClient(cfg.WeatherBaseURL, cfg.WeatherAPIKey, cfg.WeatherUnits, cfg.WeatherTimeout, logger, metrics)
		logger.Info("weather advisories enabled", "base_url", cfg.WeatherBaseURL, "timeout", cfg.WeatherTimeout)
	} else {
		logger.Info("weather advisories disabled")
	}

	var uploader app.Uploader
	if cfg.ImageHostURL != "" {
		uploader = imagehost.NewClient(cfg.ImageHostURL, cfg.ImageHostPreset, cfg.ImageHostTimeout, logger, metrics)
	}

	banner := notify.NewController(cfg.NotifyDuration, clockwork.NewRealClock(), func(s notify.State) {
		if s.Visible {
			metrics.NotificationVisible.Set(1)
		} else {
			metrics.NotificationVisible.Set(0)
		}
	})

	core := app.New(app.Options{
		Store:        eventStore,
		Forecasts:    forecasts,
		Uploader:     uploader,
		Banner:       banner,
		ViewportSpan: cfg.ViewportSpan,
		Logger:       logger,
		Metrics:      metrics,
	})

	srv := httpadapter.NewServer(cfg.HTTPAddr, core, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Stand-in for the platform location service: one fix from config.
	if cfg.DefaultLatitude != 0 || cfg.DefaultLongitude != 0 {
		core.Tracker().Start(ctx, &staticProvider{
			pos: domain.Position{Latitude: cfg.DefaultLatitude, Longitude: cfg.DefaultLongitude},
		})
	}

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	go func() {
		if err := core.Run(ctx); err != nil {
			logger.Error("app loop error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}

	logger.Info("shutdown complete")
}

func newStore(cfg *config.Config) (store.EventStore, error) {
	if cfg.StoreBackend == config.BackendBolt {
		return boltdb.NewEventStore(cfg.StorePath)
	}
	return jsondb.NewEventStore(cfg.StorePath), nil
}

// staticProvider delivers a single configured fix shortly after start.
type staticProvider struct {
	pos domain.Position
}

func (p *staticProvider) Observe(ctx context.Context, onFix func(domain.Position), _ func(error)) {
	go func() {
		select {
		case <-ctx.Done():
		case <-time.After(100 * time.Millisecond):
			onFix(p.pos)
		}
	}()
}
