package core

import (
	"errors"
	"sort"
	"sync"
	"time"
)

// Handle identifies a scheduled callback. The zero Handle is never issued.
type Handle uint64

// Scheduler runs callbacks after a delay on the engine's logical thread.
// Implementations must never run two callbacks concurrently.
type Scheduler interface {
	Schedule(delay time.Duration, fn func()) Handle
	Cancel(h Handle) bool
}

type manualTimer struct {
	handle Handle
	due    time.Duration
	fn     func()
}

// ManualScheduler is a virtual-time Scheduler. Callbacks only run from
// Advance or RunDue, on the caller's goroutine, in due order (ties in
// scheduling order).
type ManualScheduler struct {
	now    time.Duration
	next   Handle
	timers []manualTimer
}

// NewManualScheduler returns a scheduler at virtual time zero.
func NewManualScheduler() *ManualScheduler {
	return &ManualScheduler{}
}

// Schedule implements Scheduler.
func (m *ManualScheduler) Schedule(delay time.Duration, fn func()) Handle {
	if delay < 0 {
		delay = 0
	}
	m.next++
	m.timers = append(m.timers, manualTimer{handle: m.next, due: m.now + delay, fn: fn})
	return m.next
}

// Cancel implements Scheduler.
func (m *ManualScheduler) Cancel(h Handle) bool {
	for i, t := range m.timers {
		if t.handle == h {
			m.timers = append(m.timers[:i], m.timers[i+1:]...)
			return true
		}
	}
	return false
}

// Now reports elapsed virtual time.
func (m *ManualScheduler) Now() time.Duration { return m.now }

// Pending reports the number of scheduled callbacks.
func (m *ManualScheduler) Pending() int { return len(m.timers) }

// Advance moves virtual time forward by d, running every callback that falls
// due, including callbacks scheduled by earlier callbacks within the window.
// It returns the number of callbacks run.
func (m *ManualScheduler) Advance(d time.Duration) int {
	target := m.now + d
	ran := 0
	for {
		idx := m.nextDue(target)
		if idx < 0 {
			break
		}
		t := m.timers[idx]
		m.timers = append(m.timers[:idx], m.timers[idx+1:]...)
		if t.due > m.now {
			m.now = t.due
		}
		t.fn()
		ran++
	}
	m.now = target
	return ran
}

// RunDue runs callbacks already due at the current virtual time.
func (m *ManualScheduler) RunDue() int {
	return m.Advance(0)
}

func (m *ManualScheduler) nextDue(limit time.Duration) int {
	best := -1
	for i, t := range m.timers {
		if t.due > limit {
			continue
		}
		if best < 0 || t.due < m.timers[best].due || (t.due == m.timers[best].due && t.handle < m.timers[best].handle) {
			best = i
		}
	}
	return best
}

// ErrSchedulerClosed is returned by LoopScheduler.Do after Close.
var ErrSchedulerClosed = errors.New("scheduler closed")

// LoopScheduler runs every callback on a single dedicated goroutine, which
// plays the role of a UI thread for the slider. External callers hand work to
// that goroutine with Post or Do.
type LoopScheduler struct {
	queue chan func()
	done  chan struct{}

	mu     sync.Mutex
	next   Handle
	timers map[Handle]*time.Timer
	closed bool
	wg     sync.WaitGroup
}

// NewLoopScheduler starts the loop goroutine.
func NewLoopScheduler() *LoopScheduler {
	l := &LoopScheduler{
		queue:  make(chan func(), 64),
		done:   make(chan struct{}),
		timers: make(map[Handle]*time.Timer),
	}
	l.wg.Add(1)
	go l.loop()
	return l
}

func (l *LoopScheduler) loop() {
	defer l.wg.Done()
	for {
		select {
		case <-l.done:
			return
		case fn := <-l.queue:
			fn()
		}
	}
}

// Post queues fn to run on the loop goroutine. It reports false once closed.
func (l *LoopScheduler) Post(fn func()) bool {
	l.mu.Lock()
	closed := l.closed
	l.mu.Unlock()
	if closed {
		return false
	}
	select {
	case l.queue <- fn:
		return true
	case <-l.done:
		return false
	}
}

// Do runs fn on the loop goroutine and waits for it to return. It must not be
// called from the loop goroutine itself.
func (l *LoopScheduler) Do(fn func()) error {
	finished := make(chan struct{})
	if !l.Post(func() {
		defer close(finished)
		fn()
	}) {
		return ErrSchedulerClosed
	}
	select {
	case <-finished:
		return nil
	case <-l.done:
		return ErrSchedulerClosed
	}
}

// Schedule implements Scheduler. The callback is posted to the loop when the
// delay elapses unless cancelled first.
func (l *LoopScheduler) Schedule(delay time.Duration, fn func()) Handle {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.next++
	h := l.next
	if l.closed {
		return h
	}
	l.timers[h] = time.AfterFunc(delay, func() {
		l.Post(func() {
			l.mu.Lock()
			_, live := l.timers[h]
			delete(l.timers, h)
			l.mu.Unlock()
			if live {
				fn()
			}
		})
	})
	return h
}

// Cancel implements Scheduler.
func (l *LoopScheduler) Cancel(h Handle) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	t, ok := l.timers[h]
	if !ok {
		return false
	}
	t.Stop()
	delete(l.timers, h)
	return true
}

// Close stops all timers and the loop goroutine.
func (l *LoopScheduler) Close() {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return
	}
	l.closed = true
	for h, t := range l.timers {
		t.Stop()
		delete(l.timers, h)
	}
	l.mu.Unlock()
	close(l.done)
	l.wg.Wait()
}

// sortedHandles is used by tests to inspect pending manual timers.
func (m *ManualScheduler) sortedHandles() []Handle {
	out := make([]Handle, 0, len(m.timers))
	for _, t := range m.timers {
		out = append(out, t.handle)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
