package transfer

import (
	"log/slog"
	"time"

	"github.com/tabletop-tools/campvault/internal/paths"
	"github.com/tabletop-tools/campvault/internal/retention"
	"github.com/tabletop-tools/campvault/internal/selector"
)

// Engine executes archive and restore runs against one campaign tree.
type Engine struct {
	layout   paths.Layout
	selector *selector.Selector
	policy   retention.Policy
	logger   *slog.Logger
	now      func() time.Time
}

// Option configures an Engine.
type Option func(*Engine)

// WithSelector replaces the default file selector, carrying configured
// scopes and exclusion rules into the engine.
func WithSelector(sel *selector.Selector) Option {
	return func(e *Engine) {
		if sel != nil {
			e.selector = sel
		}
	}
}

// WithRetention sets the policy applied after each new save.
func WithRetention(p retention.Policy) Option {
	return func(e *Engine) {
		if p != nil {
			e.policy = p
		}
	}
}

// WithLogger sets the logger runs report progress through.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithClock overrides the time source used for snapshot ids and manifest
// timestamps.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// New creates an Engine for the given tree layout.
func New(layout paths.Layout, opts ...Option) *Engine {
	e := &Engine{
		layout: layout,
		policy: retention.KeepAll{},
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.selector == nil {
		e.selector = selector.New(layout)
	}
	if e.logger == nil {
		e.logger = slog.Default()
	}
	return e
}

// Layout returns the tree layout the engine operates on.
func (e *Engine) Layout() paths.Layout { return e.layout }

// advance moves a run to its next state.
func (e *Engine) advance(res *Result, op string, s State) {
	res.Trail = append(res.Trail, s)
	e.logger.Debug(op+" state",
		"campaign", res.CampaignID,
		"snapshot", res.SnapshotID,
		"state", string(s))
}
