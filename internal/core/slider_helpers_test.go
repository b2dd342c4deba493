package core_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"timeslider/internal/core"
	"timeslider/pkg/domain"
)

type logEntry struct {
	level string
	msg   string
	args  []any
}

type recordingLogger struct {
	mu      sync.Mutex
	entries []logEntry
}

func (l *recordingLogger) record(level, msg string, args []any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, logEntry{level: level, msg: msg, args: args})
}

func (l *recordingLogger) Debug(msg string, args ...any) { l.record("debug", msg, args) }
func (l *recordingLogger) Info(msg string, args ...any)  { l.record("info", msg, args) }
func (l *recordingLogger) Warn(msg string, args ...any)  { l.record("warn", msg, args) }
func (l *recordingLogger) Error(msg string, args ...any) { l.record("error", msg, args) }

func (l *recordingLogger) count(level string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for _, e := range l.entries {
		if e.level == level {
			n++
		}
	}
	return n
}

type observation struct {
	op      string
	success bool
}

type recordingMetrics struct {
	observations []observation
}

func (m *recordingMetrics) Observe(_ context.Context, op string, success bool, _ time.Duration) {
	m.observations = append(m.observations, observation{op: op, success: success})
}

func (m *recordingMetrics) count(op string) int {
	n := 0
	for _, o := range m.observations {
		if o.op == op {
			n++
		}
	}
	return n
}

// newJanuarySlider returns a slider over January 2024 with daily steps and a
// track of 10 units per day.
func newJanuarySlider(t *testing.T, opts ...core.Option) (*core.Slider, *core.ManualScheduler) {
	t.Helper()
	sched := core.NewManualScheduler()
	s := core.NewSlider(append([]core.Option{core.WithScheduler(sched)}, opts...)...)
	if err := s.SetFullExtent(span(1, 31)); err != nil {
		t.Fatalf("set full extent: %v", err)
	}
	if err := s.SetStepInterval(daily()); err != nil {
		t.Fatalf("set step interval: %v", err)
	}
	s.SetTrackGeometry(track)
	t.Cleanup(s.Close)
	return s, sched
}

func stepIndex(s *core.Slider, e domain.TimeExtent) string {
	d := s.Domain()
	return fmt.Sprintf("[%d,%d]", d.IndexOf(e.Start), d.IndexOf(e.End))
}

type layerStub struct {
	info  domain.LayerTimeInfo
	err   error
	block chan struct{}
	calls int
}

func (l *layerStub) TimeInfo(ctx context.Context) (domain.LayerTimeInfo, error) {
	l.calls++
	if l.block != nil {
		select {
		case <-l.block:
		case <-ctx.Done():
			return domain.LayerTimeInfo{}, ctx.Err()
		}
	}
	return l.info, l.err
}
