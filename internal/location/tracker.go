// Package location tracks the user's position and decides when that position
// should move the map viewport and trigger a forecast fetch.
package location

import (
	"context"
	"log/slog"
	"sync"

	"github.com/rainydays/core/internal/domain"
)

// TriggerSource says why a fetch trigger fired.
type TriggerSource string

const (
	TriggerFirstFix TriggerSource = "first_fix"
	TriggerRecenter TriggerSource = "recenter"
)

// Provider is a stream of position fixes. Implementations call onFix for
// every delivered fix and onError for provider failures, until ctx is done.
type Provider interface {
	Observe(ctx context.Context, onFix func(domain.Position), onError func(error))
}

// Tracker consumes position fixes. The first fix after start centers the
// viewport and emits a fetch trigger; later fixes only update the current
// position, so the viewport never fights the user's panning. Recenter always
// recomputes the viewport and triggers a fresh fetch.
type Tracker struct {
	span      float64
	onTrigger func(domain.Position, TriggerSource)
	logger    *slog.Logger

	mu           sync.Mutex
	current      *domain.Position
	viewport     *domain.Region
	centeredOnce bool
}

// New creates a Tracker. onTrigger receives every fetch trigger; it must not
// block for long, as it runs on the provider's delivery goroutine.
func New(span float64, onTrigger func(domain.Position, TriggerSource), logger *slog.Logger) *Tracker {
	return &Tracker{
		span:      span,
		onTrigger: onTrigger,
		logger:    logger,
	}
}

// Start subscribes the tracker to a provider's fix stream.
func (t *Tracker) Start(ctx context.Context, p Provider) {
	p.Observe(ctx, t.HandleFix, t.HandleError)
}

// HandleFix records a delivered position fix.
func (t *Tracker) HandleFix(pos domain.Position) {
	t.mu.Lock()
	t.current = &pos
	first := !t.centeredOnce
	if first {
		region := domain.RegionAround(pos, t.span)
		t.viewport = &region
		t.centeredOnce = true
	}
	t.mu.Unlock()

	if first {
		t.logger.Debug("initial fix, centering viewport",
			"lat", pos.Latitude, "lon", pos.Longitude)
		t.onTrigger(pos, TriggerFirstFix)
	}
}

// HandleError logs a provider failure. Location is best-effort: the error
// does not change tracker state and is never surfaced to callers.
func (t *Tracker) HandleError(err error) {
	t.logger.Warn("location provider error", "error", err)
}

// Recenter recomputes the viewport from the latest known position and emits
// a fetch trigger, regardless of whether the first fix already centered.
// Without any known position it does nothing.
func (t *Tracker) Recenter() {
	t.mu.Lock()
	if t.current == nil {
		t.mu.Unlock()
		t.logger.Debug("recenter requested before any fix")
		return
	}
	pos := *t.current
	region := domain.RegionAround(pos, t.span)
	t.viewport = &region
	t.mu.Unlock()

	t.onTrigger(pos, TriggerRecenter)
}

// Current returns the latest known position.
func (t *Tracker) Current() (domain.Position, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.current == nil {
		return domain.Position{}, false
	}
	return *t.current, true
}

// Viewport returns the current map viewport.
func (t *Tracker) Viewport() (domain.Region, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.viewport == nil {
		return domain.Region{}, false
	}
	return *t.viewport, true
}
