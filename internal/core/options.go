package core

import (
	"context"
	"time"
)

// Logger is the structured logging surface used by the engine. *slog.Logger
// satisfies it.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Clock supplies wall-clock time for operation timing.
type Clock interface {
	Now() time.Time
}

// ClockFunc adapts a function to Clock. A nil ClockFunc reports time.Now in UTC.
type ClockFunc func() time.Time

// Now implements Clock.
func (f ClockFunc) Now() time.Time {
	if f == nil {
		return time.Now().UTC()
	}
	return f()
}

// MetricsRecorder receives the outcome and duration of engine operations.
type MetricsRecorder interface {
	Observe(ctx context.Context, operation string, success bool, duration time.Duration)
}

type noopMetrics struct{}

func (noopMetrics) Observe(context.Context, string, bool, time.Duration) {}

// Operation names reported to MetricsRecorder.
const (
	OpSnap       = "snap"
	OpDrag       = "drag"
	OpStep       = "step"
	OpTick       = "playback_tick"
	OpLayout     = "tick_layout"
	OpRebuild    = "domain_rebuild"
	OpInitialize = "initialize_layer"
)

// DefaultDebounceDelay coalesces configuration bursts before steps are rebuilt.
const DefaultDebounceDelay = 50 * time.Millisecond

// DefaultLayoutCacheSize bounds the memoised tick layouts per slider.
const DefaultLayoutCacheSize = 64

type sliderOptions struct {
	logger        Logger
	clock         Clock
	metrics       MetricsRecorder
	scheduler     Scheduler
	debounceDelay time.Duration
	layoutCache   int
	measure       LabelMeasure
	defaultSteps  int
}

// Option customises a Slider.
type Option func(*sliderOptions)

func defaultSliderOptions() sliderOptions {
	return sliderOptions{
		logger:        noopLogger{},
		clock:         ClockFunc(nil),
		metrics:       noopMetrics{},
		debounceDelay: DefaultDebounceDelay,
		layoutCache:   DefaultLayoutCacheSize,
		measure:       EstimateLabelWidth,
	}
}

// WithLogger sets the logger; nil keeps the no-op default.
func WithLogger(l Logger) Option {
	return func(o *sliderOptions) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithClock overrides the clock used to time operations.
func WithClock(c Clock) Option {
	return func(o *sliderOptions) {
		if c != nil {
			o.clock = c
		}
	}
}

// WithMetricsRecorder reports operation outcomes to m.
func WithMetricsRecorder(m MetricsRecorder) Option {
	return func(o *sliderOptions) {
		if m != nil {
			o.metrics = m
		}
	}
}

// WithScheduler sets the scheduler driving playback ticks and debounced
// rebuilds. Without one the slider uses a ManualScheduler that never fires on
// its own.
func WithScheduler(s Scheduler) Option {
	return func(o *sliderOptions) {
		if s != nil {
			o.scheduler = s
		}
	}
}

// WithDebounceDelay sets how long configuration changes are coalesced.
func WithDebounceDelay(d time.Duration) Option {
	return func(o *sliderOptions) {
		if d >= 0 {
			o.debounceDelay = d
		}
	}
}

// WithLayoutCacheSize bounds the tick layout cache; zero disables caching.
func WithLayoutCacheSize(n int) Option {
	return func(o *sliderOptions) {
		if n >= 0 {
			o.layoutCache = n
		}
	}
}

// WithLabelMeasure replaces the label width estimator used for tick layout.
func WithLabelMeasure(m LabelMeasure) Option {
	return func(o *sliderOptions) {
		if m != nil {
			o.measure = m
		}
	}
}

// WithDefaultStepCount divides the full extent into n steps when a layer
// provides no step interval. Zero leaves such layers without steps.
func WithDefaultStepCount(n int) Option {
	return func(o *sliderOptions) {
		if n >= 0 {
			o.defaultSteps = n
		}
	}
}

func (o sliderOptions) observe(ctx context.Context, op string, started time.Time, success bool) {
	o.metrics.Observe(ctx, op, success, o.clock.Now().Sub(started))
}
