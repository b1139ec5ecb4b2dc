// Package app wires the tracker, forecast client, advisory banner, and event
// store behind a single owner goroutine. Every piece of shared state — the
// cached snapshot, the viewport, store mutations — is touched only by
// commands executed on that goroutine, so async completions (fetches, saves,
// timers) never race the presentation layer.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/rainydays/core/internal/domain"
	"github.com/rainydays/core/internal/location"
	"github.com/rainydays/core/internal/notify"
	"github.com/rainydays/core/internal/observability"
	"github.com/rainydays/core/internal/store"
)

// ErrNoImage is returned when event creation is attempted without a resolved
// image reference. The creation flow requires either a hosted URL or raw
// bytes to upload; there is no placeholder path.
var ErrNoImage = errors.New("event requires an image reference")

// Forecaster fetches a forecast for a position.
type Forecaster interface {
	Fetch(ctx context.Context, pos domain.Position) (domain.ForecastSnapshot, error)
}

// Uploader sends raw image bytes to a hosting service and returns the URL.
type Uploader interface {
	Upload(ctx context.Context, data []byte, filename string) (string, error)
}

// Banner is the advisory notification slot.
type Banner interface {
	Show(message string)
	State() notify.State
}

// Options collects the collaborators an App needs.
type Options struct {
	Store        store.EventStore
	Forecasts    Forecaster // nil disables weather advisories
	Uploader     Uploader   // nil disables image uploads
	Banner       Banner
	ViewportSpan float64
	Logger       *slog.Logger
	Metrics      *observability.Metrics
}

// App is the single logical owner of the core's state.
type App struct {
	store     store.EventStore
	forecasts Forecaster
	uploader  Uploader
	banner    Banner
	tracker   *location.Tracker
	logger    *slog.Logger
	metrics   *observability.Metrics

	commands chan func()
	quit     chan struct{}
	ready    atomic.Bool

	runCtx context.Context

	// Owner-loop state; only commands running on the loop touch these.
	snapshot    *domain.ForecastSnapshot
	fetchSeq    uint64
	lastApplied uint64
}

// New creates an App. Run must be called before commands take effect.
func New(opts Options) *App {
	a := &App{
		store:     opts.Store,
		forecasts: opts.Forecasts,
		uploader:  opts.Uploader,
		banner:    opts.Banner,
		logger:    opts.Logger,
		metrics:   opts.Metrics,
		commands:  make(chan func(), 64),
		quit:      make(chan struct{}),
	}
	a.tracker = location.New(opts.ViewportSpan, a.handleTrigger, opts.Logger)
	return a
}

// Tracker exposes the location tracker so a provider can be attached.
func (a *App) Tracker() *location.Tracker { return a.tracker }

// Run loads the store and then executes commands until ctx is cancelled.
// A load failure degrades to an empty event list; it never blocks startup.
func (a *App) Run(ctx context.Context) error {
	a.runCtx = ctx

	events, err := a.store.Load(ctx)
	if err != nil {
		a.logger.Warn("event store load failed, starting with empty list", "error", err)
	} else {
		a.logger.Info("event store loaded", "events", len(events))
	}
	a.metrics.EventsStored.Set(float64(len(a.store.List(ctx))))
	a.ready.Store(true)

	defer close(a.quit)
	for {
		select {
		case <-ctx.Done():
			a.logger.Info("app loop stopping", "reason", ctx.Err())
			return nil
		case cmd := <-a.commands:
			cmd()
		}
	}
}

// CheckReadiness reports whether the store has been loaded.
func (a *App) CheckReadiness(_ context.Context) error {
	if !a.ready.Load() {
		return errors.New("event store not loaded yet")
	}
	return nil
}

// Recenter recomputes the viewport from the latest fix and triggers a fetch.
func (a *App) Recenter() { a.tracker.Recenter() }

// Region returns the current map viewport.
func (a *App) Region() (domain.Region, bool) { return a.tracker.Viewport() }

// ShowAdvisory derives an advisory from the cached snapshot and displays it.
// With no successful fetch yet this shows the "unavailable" message.
func (a *App) ShowAdvisory() {
	a.post(func() {
		message := domain.Advise(a.snapshot)
		a.banner.Show(message)
		a.metrics.AdvisoriesShown.Inc()
		a.logger.Debug("advisory shown", "message", message)
	})
}

// Advisory returns the current banner state.
func (a *App) Advisory() notify.State { return a.banner.State() }

// Snapshot returns the cached forecast snapshot via the owner loop.
func (a *App) Snapshot() *domain.ForecastSnapshot {
	result := make(chan *domain.ForecastSnapshot, 1)
	a.post(func() { result <- a.snapshot })
	select {
	case s := <-result:
		return s
	case <-a.quit:
		return nil
	}
}

// CreateRequest carries validated form input for a new event. Exactly one of
// ImageRef (already hosted) or ImageData (bytes to upload) must be set.
type CreateRequest struct {
	Name        string
	DateTime    time.Time
	Description string
	Location    string
	Price       float64
	Audience    domain.Audience
	MinAge      int
	MaxAge      int

	ImageRef  string
	ImageData []byte
	ImageName string
}

// CreateEvent resolves the image reference, constructs the event, and hands
// it to the store. The upload blocks the caller; persistence does not — the
// caller observes the in-memory append immediately and a save failure is
// only logged.
func (a *App) CreateEvent(ctx context.Context, req CreateRequest) (domain.Event, error) {
	imageRef := req.ImageRef
	if len(req.ImageData) > 0 {
		if a.uploader == nil {
			return domain.Event{}, errors.New("image uploads are not configured")
		}
		hosted, err := a.uploader.Upload(ctx, req.ImageData, req.ImageName)
		if err != nil {
			return domain.Event{}, fmt.Errorf("image upload: %w", err)
		}
		imageRef = hosted
	}
	if imageRef == "" {
		return domain.Event{}, ErrNoImage
	}

	event := domain.Event{
		ID:          uuid.New(),
		Name:        req.Name,
		DateTime:    req.DateTime,
		Description: req.Description,
		Location:    req.Location,
		Price:       req.Price,
		Audience:    req.Audience,
		MinAge:      req.MinAge,
		MaxAge:      req.MaxAge,
		ImageRef:    imageRef,
	}

	a.post(func() {
		if err := a.store.Create(a.runCtx, event); err != nil {
			a.logger.Error("event save failed, in-memory list kept", "error", err, "event_id", event.ID)
			a.metrics.StoreSaves.WithLabelValues("create", "error").Inc()
		} else {
			a.metrics.StoreSaves.WithLabelValues("create", "success").Inc()
		}
		a.metrics.EventsStored.Set(float64(len(a.store.List(a.runCtx))))
	})
	return event, nil
}

// DeleteEvent removes an event by id. Unknown ids are a silent no-op.
func (a *App) DeleteEvent(id uuid.UUID) {
	a.post(func() {
		if err := a.store.Delete(a.runCtx, id); err != nil {
			a.logger.Error("event delete failed, in-memory list kept", "error", err, "event_id", id)
			a.metrics.StoreSaves.WithLabelValues("delete", "error").Inc()
		} else {
			a.metrics.StoreSaves.WithLabelValues("delete", "success").Inc()
		}
		a.metrics.EventsStored.Set(float64(len(a.store.List(a.runCtx))))
	})
}

// Events returns the in-memory event list in insertion order.
func (a *App) Events(ctx context.Context) []domain.Event {
	return a.store.List(ctx)
}

// handleTrigger receives fetch triggers from the tracker.
func (a *App) handleTrigger(pos domain.Position, source location.TriggerSource) {
	a.metrics.FetchTriggers.WithLabelValues(string(source)).Inc()
	if a.forecasts == nil {
		a.logger.Debug("weather disabled, ignoring fetch trigger", "source", source)
		return
	}
	a.post(func() {
		a.fetchSeq++
		go a.fetch(a.fetchSeq, pos)
	})
}

// fetch runs one forecast request and posts its completion back to the loop.
// Overlapping fetches complete in arbitrary order; the last completion wins
// the cache, and a stale overwrite is logged so the race stays observable.
func (a *App) fetch(gen uint64, pos domain.Position) {
	snapshot, err := a.forecasts.Fetch(a.runCtx, pos)
	a.post(func() {
		if err != nil {
			a.logger.Warn("forecast fetch failed, keeping previous snapshot", "error", err)
			return
		}
		if gen < a.lastApplied {
			a.logger.Debug("late forecast completion replaced a newer snapshot",
				"completed", gen, "newest", a.lastApplied)
		} else {
			a.lastApplied = gen
		}
		a.snapshot = &snapshot
	})
}

// post schedules a command on the owner loop.
func (a *App) post(cmd func()) {
	select {
	case a.commands <- cmd:
	case <-a.quit:
	}
}
