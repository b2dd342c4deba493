package core

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"timeslider/pkg/domain"
)

// Property names reported by OnPropertyChanged.
const (
	PropFullExtent          = "fullExtent"
	PropStepInterval        = "stepInterval"
	PropCurrentExtent       = "currentExtent"
	PropStartPinned         = "startPinned"
	PropEndPinned           = "endPinned"
	PropPlaybackInterval    = "playbackInterval"
	PropPlaybackDirection   = "playbackDirection"
	PropPlaybackLoopMode    = "playbackLoopMode"
	PropIsPlaying           = "isPlaying"
	PropLabelMode           = "labelMode"
	PropLabelFormat         = "labelFormat"
	PropTrackGeometry       = "trackGeometry"
	PropMinimumLabelSpacing = "minimumLabelSpacing"
)

type dragGesture struct {
	kind   DragKind
	origin domain.TimeExtent
}

// Slider is the observable surface of the engine. It owns the current
// window and is its only writer: drags, stepping and playback all publish
// through the snapper. A Slider is not safe for concurrent use; every call
// must come from the goroutine that runs its Scheduler callbacks.
type Slider struct {
	opts     sliderOptions
	sched    Scheduler
	domain   *TimeDomain
	rebuild  *Debouncer
	layout   *TickLayoutEngine
	playback *PlaybackScheduler

	fullExtent          *property[domain.TimeExtent]
	stepInterval        *property[*domain.TimeStepInterval]
	currentExtent       *property[domain.TimeExtent]
	startPinned         *property[bool]
	endPinned           *property[bool]
	playbackInterval    *property[time.Duration]
	playbackDirection   *property[domain.PlaybackDirection]
	loopMode            *property[domain.LoopMode]
	isPlaying           *property[bool]
	labelMode           *property[domain.LabelMode]
	labelFormat         *property[string]
	trackGeometry       *property[TrackGeometry]
	minimumLabelSpacing *property[float64]

	// currentSet is false until a caller picks a window; until then the
	// window follows the full extent.
	currentSet bool
	drag       *dragGesture

	propListeners map[uint64]func(name string)
	nextListener  uint64

	initGen    uint64
	initCancel context.CancelFunc
}

// NewSlider returns a slider with an empty domain, stopped playback and
// labels on the thumbs.
func NewSlider(opts ...Option) *Slider {
	o := defaultSliderOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if o.scheduler == nil {
		o.scheduler = NewManualScheduler()
	}
	s := &Slider{
		opts:          o,
		sched:         o.scheduler,
		layout:        NewTickLayoutEngine(o.measure, o.layoutCache),
		propListeners: make(map[uint64]func(string)),
	}
	s.fullExtent = newProperty(PropFullExtent, domain.TimeExtent{}, domain.TimeExtent.Equal)
	s.stepInterval = newProperty(PropStepInterval, (*domain.TimeStepInterval)(nil), intervalEqual)
	s.currentExtent = newProperty(PropCurrentExtent, domain.TimeExtent{}, domain.TimeExtent.Equal)
	s.startPinned = newProperty(PropStartPinned, false, comparableEqual[bool])
	s.endPinned = newProperty(PropEndPinned, false, comparableEqual[bool])
	s.playbackInterval = newProperty(PropPlaybackInterval, DefaultPlaybackInterval, comparableEqual[time.Duration])
	s.playbackDirection = newProperty(PropPlaybackDirection, domain.Forward, comparableEqual[domain.PlaybackDirection])
	s.loopMode = newProperty(PropPlaybackLoopMode, domain.LoopNone, comparableEqual[domain.LoopMode])
	s.isPlaying = newProperty(PropIsPlaying, false, comparableEqual[bool])
	s.labelMode = newProperty(PropLabelMode, domain.LabelOnThumbs, comparableEqual[domain.LabelMode])
	s.labelFormat = newProperty(PropLabelFormat, "", comparableEqual[string])
	s.trackGeometry = newProperty(PropTrackGeometry, TrackGeometry{}, comparableEqual[TrackGeometry])
	s.minimumLabelSpacing = newProperty(PropMinimumLabelSpacing, 0.0, comparableEqual[float64])

	forward(s, s.fullExtent)
	forward(s, s.stepInterval)
	forward(s, s.currentExtent)
	forward(s, s.startPinned)
	forward(s, s.endPinned)
	forward(s, s.playbackInterval)
	forward(s, s.playbackDirection)
	forward(s, s.loopMode)
	forward(s, s.isPlaying)
	forward(s, s.labelMode)
	forward(s, s.labelFormat)
	forward(s, s.trackGeometry)
	forward(s, s.minimumLabelSpacing)

	s.domain, _ = BuildTimeDomain(domain.TimeExtent{}, nil)
	s.rebuild = NewDebouncer(s.sched, o.debounceDelay, s.rebuildDomain)
	s.playback = NewPlaybackScheduler(s.sched, DefaultPlaybackInterval, s.onPlaybackTick)
	return s
}

func forward[T any](s *Slider, p *property[T]) {
	p.onSuppressed = func(name string) {
		s.opts.logger.Debug("nested change notification suppressed", "property", name)
	}
	p.Subscribe(func(T, T) { s.emitProperty(p.name) })
}

func intervalEqual(a, b *domain.TimeStepInterval) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func (s *Slider) emitProperty(name string) {
	for _, id := range sortedListenerIDs(s.propListeners) {
		if fn, ok := s.propListeners[id]; ok {
			fn(name)
		}
	}
}

func sortedListenerIDs(m map[uint64]func(string)) []uint64 {
	ids := make([]uint64, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// OnPropertyChanged registers fn for every property change.
func (s *Slider) OnPropertyChanged(fn func(name string)) Subscription {
	s.nextListener++
	id := s.nextListener
	s.propListeners[id] = fn
	return func() { delete(s.propListeners, id) }
}

// OnCurrentExtentChanged registers fn for window changes.
func (s *Slider) OnCurrentExtentChanged(fn func(old, new domain.TimeExtent)) Subscription {
	return s.currentExtent.Subscribe(fn)
}

// Close stops playback, pending rebuilds and in-flight initialization.
func (s *Slider) Close() {
	s.Pause()
	s.rebuild.Stop()
	if s.initCancel != nil {
		s.initCancel()
		s.initCancel = nil
	}
}

// ensureDomain applies a pending rebuild so reads never see stale steps.
func (s *Slider) ensureDomain() {
	s.rebuild.Flush()
}

func (s *Slider) rebuildDomain() {
	started := s.opts.clock.Now()
	d, err := BuildTimeDomain(s.fullExtent.Get(), s.stepInterval.Get())
	if err != nil {
		s.opts.logger.Error("rebuild time domain", "error", err)
		s.opts.observe(context.Background(), OpRebuild, started, false)
		return
	}
	s.domain = d
	if d.Truncated() {
		s.opts.logger.Warn("time steps truncated", "limit", MaxTimeSteps, "interval", d.StepInterval().String())
	}
	s.opts.logger.Debug("time domain rebuilt", "extent", d.FullExtent().String(), "steps", d.Len())

	if s.currentSet {
		cur := s.currentExtent.Get()
		s.publish(NewExtentSnapper(d).Snap(cur, cur, false))
	} else {
		s.publish(NewExtentSnapper(d).Snap(d.FullExtent(), d.FullExtent(), false))
	}
	if d.Empty() && s.playback.IsPlaying() {
		s.Pause()
	}
	s.opts.observe(context.Background(), OpRebuild, started, true)
}

// publish is the single write path of the current window.
func (s *Slider) publish(e domain.TimeExtent) {
	s.currentExtent.Set(e)
}

// FullExtent returns the full time range.
func (s *Slider) FullExtent() domain.TimeExtent { return s.fullExtent.Get() }

// SetFullExtent replaces the full range. Steps are rebuilt after the debounce
// delay, or on the next read.
func (s *Slider) SetFullExtent(e domain.TimeExtent) error {
	if !e.Valid() {
		return fmt.Errorf("%w: full extent end %s before start %s", domain.ErrInvalidDomain,
			e.End.Format(time.RFC3339), e.Start.Format(time.RFC3339))
	}
	if !domain.Representable(e.Start) || !domain.Representable(e.End) {
		return fmt.Errorf("%w: full extent %s outside the representable range", domain.ErrInvalidDomain, e)
	}
	if s.fullExtent.Set(e) {
		s.rebuild.Trigger()
	}
	return nil
}

// StepInterval returns the configured interval or nil.
func (s *Slider) StepInterval() *domain.TimeStepInterval {
	iv := s.stepInterval.Get()
	if iv == nil {
		return nil
	}
	c := *iv
	return &c
}

// SetStepInterval replaces the interval; nil clears it.
func (s *Slider) SetStepInterval(iv *domain.TimeStepInterval) error {
	var next *domain.TimeStepInterval
	if iv != nil {
		v, err := domain.NewTimeStepInterval(iv.Magnitude, iv.Unit)
		if err != nil {
			return err
		}
		next = &v
	}
	if s.stepInterval.Set(next) {
		s.rebuild.Trigger()
	}
	return nil
}

// Domain returns the current time domain, rebuilding it first if needed.
func (s *Slider) Domain() *TimeDomain {
	s.ensureDomain()
	return s.domain
}

// Steps returns a copy of the current steps.
func (s *Slider) Steps() []time.Time {
	return s.Domain().Steps()
}

// CurrentExtent returns the selected window.
func (s *Slider) CurrentExtent() domain.TimeExtent {
	s.ensureDomain()
	return s.currentExtent.Get()
}

// SetCurrentExtent snaps e against the current window and publishes it. The
// published window is returned.
func (s *Slider) SetCurrentExtent(e domain.TimeExtent) domain.TimeExtent {
	s.ensureDomain()
	started := s.opts.clock.Now()
	s.currentSet = true
	next := NewExtentSnapper(s.domain).Snap(s.currentExtent.Get(), e, false)
	s.publish(next)
	s.opts.observe(context.Background(), OpSnap, started, true)
	return s.currentExtent.Get()
}

// Pins returns both pin flags.
func (s *Slider) Pins() domain.PinState {
	return domain.PinState{StartPinned: s.startPinned.Get(), EndPinned: s.endPinned.Get()}
}

// StartPinned reports whether the window start is locked.
func (s *Slider) StartPinned() bool { return s.startPinned.Get() }

// SetStartPinned locks or unlocks the window start.
func (s *Slider) SetStartPinned(v bool) { s.startPinned.Set(v) }

// EndPinned reports whether the window end is locked.
func (s *Slider) EndPinned() bool { return s.endPinned.Get() }

// SetEndPinned locks or unlocks the window end.
func (s *Slider) SetEndPinned(v bool) { s.endPinned.Set(v) }

// PlaybackInterval returns the tick cadence.
func (s *Slider) PlaybackInterval() time.Duration { return s.playbackInterval.Get() }

// SetPlaybackInterval changes the cadence; non-positive selects the default.
func (s *Slider) SetPlaybackInterval(d time.Duration) {
	if d <= 0 {
		d = DefaultPlaybackInterval
	}
	s.playbackInterval.Set(d)
	s.playback.SetInterval(d)
}

// PlaybackDirection returns the direction of travel.
func (s *Slider) PlaybackDirection() domain.PlaybackDirection { return s.playbackDirection.Get() }

// SetPlaybackDirection changes the direction of travel.
func (s *Slider) SetPlaybackDirection(d domain.PlaybackDirection) error {
	d, err := domain.ParsePlaybackDirection(string(d))
	if err != nil {
		return err
	}
	s.playbackDirection.Set(d)
	return nil
}

// PlaybackLoopMode returns the boundary policy.
func (s *Slider) PlaybackLoopMode() domain.LoopMode { return s.loopMode.Get() }

// SetPlaybackLoopMode changes the boundary policy.
func (s *Slider) SetPlaybackLoopMode(m domain.LoopMode) error {
	m, err := domain.ParseLoopMode(string(m))
	if err != nil {
		return err
	}
	s.loopMode.Set(m)
	return nil
}

// IsPlaying reports whether playback runs.
func (s *Slider) IsPlaying() bool { return s.isPlaying.Get() }

// SetIsPlaying calls Play or Pause.
func (s *Slider) SetIsPlaying(v bool) {
	if v {
		s.Play()
		return
	}
	s.Pause()
}

// LabelMode returns where labels are shown.
func (s *Slider) LabelMode() domain.LabelMode { return s.labelMode.Get() }

// SetLabelMode changes where labels are shown.
func (s *Slider) SetLabelMode(m domain.LabelMode) error {
	m, err := domain.ParseLabelMode(string(m))
	if err != nil {
		return err
	}
	s.labelMode.Set(m)
	return nil
}

// LabelFormat returns the configured layout, possibly empty.
func (s *Slider) LabelFormat() string { return s.labelFormat.Get() }

// SetLabelFormat sets a Go time layout; empty selects one by step unit.
func (s *Slider) SetLabelFormat(f string) { s.labelFormat.Set(f) }

// EffectiveLabelFormat is the layout labels are rendered with.
func (s *Slider) EffectiveLabelFormat() string {
	if f := s.labelFormat.Get(); f != "" {
		return f
	}
	return DefaultLabelFormat(s.stepInterval.Get())
}

// TrackGeometry returns the track dimensions used for drags and layout.
func (s *Slider) TrackGeometry() TrackGeometry { return s.trackGeometry.Get() }

// SetTrackGeometry changes the track dimensions.
func (s *Slider) SetTrackGeometry(g TrackGeometry) { s.trackGeometry.Set(g) }

// MinimumLabelSpacing returns the gap required between major labels.
func (s *Slider) MinimumLabelSpacing() float64 { return s.minimumLabelSpacing.Get() }

// SetMinimumLabelSpacing changes the gap required between major labels.
func (s *Slider) SetMinimumLabelSpacing(v float64) {
	if v < 0 {
		v = 0
	}
	s.minimumLabelSpacing.Set(v)
}

// StepForward moves the window n steps later. It reports whether all n steps
// were applied; a boundary or a pin stops it early.
func (s *Slider) StepForward(n int) bool {
	return s.step(n)
}

// StepBack moves the window n steps earlier.
func (s *Slider) StepBack(n int) bool {
	return s.step(-n)
}

func (s *Slider) step(delta int) bool {
	s.ensureDomain()
	if delta == 0 {
		return true
	}
	started := s.opts.clock.Now()
	mv := moveBySteps(s.domain, s.currentExtent.Get(), s.Pins(), delta)
	if mv.applied > 0 {
		s.currentSet = true
		s.publish(mv.extent)
	}
	want := delta
	if want < 0 {
		want = -want
	}
	ok := mv.applied == want
	s.opts.observe(context.Background(), OpStep, started, ok)
	return ok
}

// InitializeTimeSteps divides the full extent into count-1 equal parts so
// that it carries count evenly spaced steps, both ends included. A count of 1
// still yields one part and therefore the two end steps.
func (s *Slider) InitializeTimeSteps(count int) error {
	iv, err := stepsFor(s.fullExtent.Get(), count)
	if err != nil {
		return err
	}
	return s.SetStepInterval(&iv)
}

func stepsFor(full domain.TimeExtent, count int) (domain.TimeStepInterval, error) {
	if count < 1 {
		return domain.TimeStepInterval{}, fmt.Errorf("%w: step count %d", domain.ErrInvalidDomain, count)
	}
	parts := count - 1
	if parts < 1 {
		parts = 1
	}
	return Divide(full, parts)
}

// InitializeFromTimeAwareLayer fetches the layer's time information and
// applies it. A newer initialization cancels this one, which then returns the
// context error. Layer failures are logged and leave the slider untouched.
func (s *Slider) InitializeFromTimeAwareLayer(ctx context.Context, layer domain.TimeAwareLayer) error {
	ictx, gen := s.beginInit(ctx)
	info, err := layer.TimeInfo(ictx)
	return s.finishInit(ictx, gen, info, err)
}

// InitializeAsync runs the layer fetch on its own goroutine so the slider's
// goroutine stays free. post must run its argument on the slider's goroutine,
// for example LoopScheduler.Post. done, when set, receives the outcome there.
func (s *Slider) InitializeAsync(ctx context.Context, layer domain.TimeAwareLayer, post func(func()) bool, done func(error)) {
	ictx, gen := s.beginInit(ctx)
	go func() {
		info, err := layer.TimeInfo(ictx)
		post(func() {
			res := s.finishInit(ictx, gen, info, err)
			if done != nil {
				done(res)
			}
		})
	}()
}

func (s *Slider) beginInit(ctx context.Context) (context.Context, uint64) {
	if s.initCancel != nil {
		s.initCancel()
	}
	ictx, cancel := context.WithCancel(ctx)
	s.initGen++
	s.initCancel = cancel
	return ictx, s.initGen
}

func (s *Slider) finishInit(ctx context.Context, gen uint64, info domain.LayerTimeInfo, fetchErr error) error {
	started := s.opts.clock.Now()
	if gen != s.initGen {
		if err := ctx.Err(); err != nil {
			return err
		}
		return context.Canceled
	}
	cancel := s.initCancel
	s.initCancel = nil
	defer cancel()

	if err := ctx.Err(); err != nil {
		s.opts.observe(ctx, OpInitialize, started, false)
		return err
	}
	if fetchErr != nil {
		if errors.Is(fetchErr, context.Canceled) || errors.Is(fetchErr, context.DeadlineExceeded) {
			s.opts.observe(ctx, OpInitialize, started, false)
			return fetchErr
		}
		s.opts.logger.Warn("layer time info unavailable", "error", fetchErr)
		s.opts.observe(ctx, OpInitialize, started, false)
		return nil
	}
	full := info.FullTimeExtent
	if full.IsZero() || !full.Valid() {
		s.opts.logger.Warn("layer reported no usable time extent", "extent", full.String())
		s.opts.observe(ctx, OpInitialize, started, false)
		return nil
	}
	if err := s.SetFullExtent(full); err != nil {
		s.opts.logger.Warn("layer time extent rejected", "error", err)
		s.opts.observe(ctx, OpInitialize, started, false)
		return nil
	}

	var iv *domain.TimeStepInterval
	switch {
	case info.TimeStepInterval != nil && info.TimeStepInterval.Magnitude >= 0:
		c := *info.TimeStepInterval
		iv = &c
	case s.opts.defaultSteps > 0:
		if v, err := stepsFor(full, s.opts.defaultSteps); err == nil {
			iv = &v
		}
	}
	if err := s.SetStepInterval(iv); err != nil {
		s.opts.logger.Warn("layer step interval rejected", "error", err)
		_ = s.SetStepInterval(nil)
	}
	s.ensureDomain()

	candidate := full
	if info.SupportsInstantaneousTime {
		candidate = domain.NewInstant(full.Start)
	}
	s.currentSet = true
	s.publish(NewExtentSnapper(s.domain).Snap(candidate, candidate, false))
	s.opts.logger.Info("slider initialized from layer", "extent", full.String(), "steps", s.domain.Len())
	s.opts.observe(ctx, OpInitialize, started, true)
	return nil
}

// Play starts playback. It reports false, doing nothing, when there are no
// steps to play through.
func (s *Slider) Play() bool {
	s.ensureDomain()
	if s.domain.Empty() {
		return false
	}
	s.playback.SetInterval(s.playbackInterval.Get())
	s.playback.Start()
	s.isPlaying.Set(true)
	return true
}

// Pause stops playback.
func (s *Slider) Pause() {
	s.playback.Stop()
	s.isPlaying.Set(false)
}

func (s *Slider) onPlaybackTick() {
	started := s.opts.clock.Now()
	s.ensureDomain()
	if s.domain.Empty() {
		s.Pause()
		s.opts.observe(context.Background(), OpTick, started, false)
		return
	}
	dir := s.playbackDirection.Get()
	mv := moveBySteps(s.domain, s.currentExtent.Get(), s.Pins(), dir.Sign())
	switch mv.outcome {
	case stepMoved:
		s.currentSet = true
		s.publish(mv.extent)
	case stepBlocked:
	case stepBoundary:
		s.boundaryReached(dir)
	}
	s.opts.observe(context.Background(), OpTick, started, mv.outcome != stepBlocked)
}

func (s *Slider) boundaryReached(dir domain.PlaybackDirection) {
	switch s.loopMode.Get() {
	case domain.LoopRepeat:
		if next, ok := wrapWindow(s.domain, s.currentExtent.Get(), s.Pins(), dir); ok {
			s.currentSet = true
			s.publish(next)
		}
	case domain.LoopReverse:
		s.playbackDirection.Set(dir.Reverse())
	default:
		s.Pause()
	}
}

// ApplyDrag moves kind by delta track units from the current window. It
// reports whether the drag was accepted. Playback stops first either way.
func (s *Slider) ApplyDrag(kind DragKind, delta float64) bool {
	s.Pause()
	s.ensureDomain()
	return s.dragFrom(s.currentExtent.Get(), kind, delta)
}

// BeginDrag starts a gesture; UpdateDrag deltas are measured from the window
// captured here.
func (s *Slider) BeginDrag(kind DragKind) {
	s.Pause()
	s.ensureDomain()
	s.drag = &dragGesture{kind: kind, origin: s.currentExtent.Get()}
}

// UpdateDrag applies the total distance moved since BeginDrag.
func (s *Slider) UpdateDrag(total float64) bool {
	if s.drag == nil {
		return false
	}
	s.ensureDomain()
	return s.dragFrom(s.drag.origin, s.drag.kind, total)
}

// EndDrag finishes the gesture.
func (s *Slider) EndDrag() {
	s.drag = nil
}

// Dragging reports whether a gesture is in progress.
func (s *Slider) Dragging() bool { return s.drag != nil }

func (s *Slider) dragFrom(origin domain.TimeExtent, kind DragKind, delta float64) bool {
	started := s.opts.clock.Now()
	ctrl := NewDragController(s.domain, s.trackGeometry.Get(), s.Pins())
	next, ok := ctrl.Compute(origin, kind, delta)
	if ok {
		s.currentSet = true
		s.publish(next)
	}
	s.opts.observe(context.Background(), OpDrag, started, ok)
	return ok
}

// DragController returns a controller bound to the current configuration.
func (s *Slider) DragController() DragController {
	s.ensureDomain()
	return NewDragController(s.domain, s.trackGeometry.Get(), s.Pins())
}

// TickPlacements lays out every step. Labels and major ticks are only
// produced in LabelOnTicks mode.
func (s *Slider) TickPlacements() []domain.TickPlacement {
	s.ensureDomain()
	started := s.opts.clock.Now()
	req := TickLayoutRequest{
		Steps:               s.domain.steps,
		FullExtent:          s.domain.FullExtent(),
		TrackLength:         s.trackGeometry.Get().Usable(),
		MinimumLabelSpacing: s.minimumLabelSpacing.Get(),
		Format:              s.EffectiveLabelFormat(),
	}
	if len(req.Steps) == 0 {
		return nil
	}
	if s.labelMode.Get() != domain.LabelOnTicks {
		positions := tickPositions(req)
		out := make([]domain.TickPlacement, len(req.Steps))
		for i, step := range req.Steps {
			out[i] = domain.TickPlacement{Step: step, Position: positions[i]}
		}
		return out
	}
	out := s.layout.Layout(req)
	s.opts.observe(context.Background(), OpLayout, started, true)
	return out
}

// Snapshot captures configuration and the current window.
func (s *Slider) Snapshot() domain.SliderState {
	s.ensureDomain()
	return domain.SliderState{
		FullExtent:    s.fullExtent.Get(),
		StepInterval:  s.StepInterval(),
		CurrentExtent: s.currentExtent.Get(),
		Pins:          s.Pins(),
		Playback: domain.PlaybackState{
			IsPlaying: s.isPlaying.Get(),
			Direction: s.playbackDirection.Get(),
			Interval:  s.playbackInterval.Get(),
			LoopMode:  s.loopMode.Get(),
		},
		LabelMode:   s.labelMode.Get(),
		LabelFormat: s.labelFormat.Get(),
	}
}

// Restore applies a snapshot. The window is snapped against the restored
// steps and playback resumes when the snapshot was playing.
func (s *Slider) Restore(state domain.SliderState) error {
	if err := state.Validate(); err != nil {
		return err
	}
	s.Pause()
	if err := s.SetFullExtent(state.FullExtent); err != nil {
		return err
	}
	if err := s.SetStepInterval(state.StepInterval); err != nil {
		return err
	}
	s.SetStartPinned(state.Pins.StartPinned)
	s.SetEndPinned(state.Pins.EndPinned)
	if state.Playback.Direction != "" {
		s.playbackDirection.Set(state.Playback.Direction)
	}
	if state.Playback.LoopMode != "" {
		s.loopMode.Set(state.Playback.LoopMode)
	}
	s.SetPlaybackInterval(state.Playback.Interval)
	if state.LabelMode != "" {
		s.labelMode.Set(state.LabelMode)
	}
	s.labelFormat.Set(state.LabelFormat)
	s.ensureDomain()
	s.currentSet = true
	cur := state.CurrentExtent
	s.publish(NewExtentSnapper(s.domain).Snap(cur, cur, false))
	if state.Playback.IsPlaying {
		s.Play()
	}
	return nil
}
