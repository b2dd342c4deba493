package export

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"timeslider/internal/blob"
	"timeslider/internal/core"
)

// DefaultPrefix is the blob key prefix for exported artifacts.
const DefaultPrefix = "exports"

// Artifact describes one stored rendering of a timeline.
type Artifact struct {
	Key         string            `json:"key"`
	Format      Format            `json:"format"`
	ContentType string            `json:"content_type"`
	SizeBytes   int64             `json:"size_bytes"`
	ETag        string            `json:"etag,omitempty"`
	URL         string            `json:"url,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty"`
	CreatedAt   time.Time         `json:"created_at"`
}

// Exporter renders timelines and writes them to a blob store under
// <prefix>/<id>/<name>.<format>.
type Exporter struct {
	store  blob.Store
	prefix string
	logger core.Logger
	now    func() time.Time
}

// Option configures an Exporter.
type Option func(*Exporter)

// WithPrefix overrides DefaultPrefix.
func WithPrefix(prefix string) Option {
	return func(e *Exporter) {
		if p := strings.Trim(prefix, "/"); p != "" {
			e.prefix = p
		}
	}
}

// WithLogger sets the structured logger.
func WithLogger(l core.Logger) Option {
	return func(e *Exporter) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithNow overrides the artifact timestamp clock.
func WithNow(fn func() time.Time) Option {
	return func(e *Exporter) {
		if fn != nil {
			e.now = fn
		}
	}
}

// NewExporter binds an exporter to store.
func NewExporter(store blob.Store, opts ...Option) *Exporter {
	e := &Exporter{store: store, prefix: DefaultPrefix, logger: discard{}, now: func() time.Time { return time.Now().UTC() }}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Key returns the blob key of format f for export id.
func (e *Exporter) Key(id, name string, f Format) string {
	if name == "" {
		name = "timeline"
	}
	return path.Join(e.prefix, id, name+"."+string(f))
}

// Export renders tl in each distinct format and stores the results. Existing
// artifacts under the same id are replaced.
func (e *Exporter) Export(ctx context.Context, id string, tl Timeline, formats []Format) ([]Artifact, error) {
	if e.store == nil {
		return nil, fmt.Errorf("export store not configured")
	}
	formats, err := normalizeFormats(formats)
	if err != nil {
		return nil, err
	}
	artifacts := make([]Artifact, 0, len(formats))
	for _, f := range formats {
		if err := ctx.Err(); err != nil {
			return artifacts, err
		}
		payload, err := Render(f, tl)
		if err != nil {
			return artifacts, err
		}
		meta := map[string]string{
			"timeline": tl.Name,
			"steps":    strconv.Itoa(len(tl.Steps)),
		}
		key := e.Key(id, tl.Name, f)
		info, err := e.store.Put(ctx, key, bytes.NewReader(payload), blob.PutOptions{ContentType: f.ContentType(), Metadata: meta, Overwrite: true})
		if err != nil {
			return artifacts, fmt.Errorf("store %s artifact: %w", f, err)
		}
		a := Artifact{
			Key:         info.Key,
			Format:      f,
			ContentType: f.ContentType(),
			SizeBytes:   int64(len(payload)),
			ETag:        info.ETag,
			URL:         info.URL,
			Metadata:    meta,
			CreatedAt:   e.now(),
		}
		e.logger.Debug("export artifact stored", "key", a.Key, "format", string(f), "bytes", a.SizeBytes)
		artifacts = append(artifacts, a)
	}
	return artifacts, nil
}

func normalizeFormats(in []Format) ([]Format, error) {
	if len(in) == 0 {
		in = DefaultFormats
	}
	out := make([]Format, 0, len(in))
	seen := make(map[Format]struct{}, len(in))
	for _, f := range in {
		f, err := ParseFormat(string(f))
		if err != nil {
			return nil, err
		}
		if _, dup := seen[f]; dup {
			continue
		}
		seen[f] = struct{}{}
		out = append(out, f)
	}
	return out, nil
}

// Status is the lifecycle stage of a queued export.
type Status string

const (
	StatusQueued    Status = "queued"
	StatusRunning   Status = "running"
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
)

// Record tracks one export request.
type Record struct {
	ID          string     `json:"id"`
	Timeline    string     `json:"timeline"`
	Formats     []Format   `json:"formats"`
	Status      Status     `json:"status"`
	Error       string     `json:"error,omitempty"`
	Artifacts   []Artifact `json:"artifacts,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// Done reports whether the record reached a terminal status.
func (r Record) Done() bool { return r.Status == StatusSucceeded || r.Status == StatusFailed }

func (r Record) copy() Record {
	dup := r
	dup.Formats = append([]Format(nil), r.Formats...)
	dup.Artifacts = append([]Artifact(nil), r.Artifacts...)
	if r.CompletedAt != nil {
		t := *r.CompletedAt
		dup.CompletedAt = &t
	}
	return dup
}

// DefaultQueueSize bounds pending exports per worker.
const DefaultQueueSize = 32

type task struct {
	id       string
	timeline Timeline
}

// Worker runs exports on a background goroutine. Timelines are captured by
// the caller so the worker never touches a Slider.
type Worker struct {
	exporter *Exporter
	queue    chan task

	mu      sync.RWMutex
	jobs    map[string]*Record
	waiters map[string][]chan struct{}

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewWorker constructs a stopped worker; queueSize <= 0 uses DefaultQueueSize.
func NewWorker(exporter *Exporter, queueSize int) *Worker {
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Worker{
		exporter: exporter,
		queue:    make(chan task, queueSize),
		jobs:     make(map[string]*Record),
		waiters:  make(map[string][]chan struct{}),
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Start begins processing queued exports.
func (w *Worker) Start() {
	w.wg.Add(1)
	go w.loop()
}

// Stop halts the worker and waits for the in-flight export, or for ctx.
func (w *Worker) Stop(ctx context.Context) error {
	w.cancel()
	done := make(chan struct{})
	go func() {
		w.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (w *Worker) loop() {
	defer w.wg.Done()
	for {
		select {
		case <-w.ctx.Done():
			return
		case t := <-w.queue:
			w.process(t)
		}
	}
}

// Enqueue schedules tl for export and returns the queued record.
func (w *Worker) Enqueue(tl Timeline, formats []Format) (Record, error) {
	formats, err := normalizeFormats(formats)
	if err != nil {
		return Record{}, err
	}
	now := w.exporter.now()
	rec := &Record{
		ID:        uuid.NewString(),
		Timeline:  tl.Name,
		Formats:   formats,
		Status:    StatusQueued,
		CreatedAt: now,
		UpdatedAt: now,
	}
	w.mu.Lock()
	w.jobs[rec.ID] = rec
	snapshot := rec.copy()
	w.mu.Unlock()

	select {
	case w.queue <- task{id: rec.ID, timeline: tl}:
		return snapshot, nil
	default:
		w.finish(rec.ID, nil, fmt.Errorf("export queue full"))
		return Record{}, fmt.Errorf("export queue full")
	}
}

// Get returns a snapshot of the record for id.
func (w *Worker) Get(id string) (Record, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	rec, ok := w.jobs[id]
	if !ok {
		return Record{}, false
	}
	return rec.copy(), true
}

// Wait blocks until the export id completes or ctx ends.
func (w *Worker) Wait(ctx context.Context, id string) (Record, error) {
	w.mu.Lock()
	rec, ok := w.jobs[id]
	if !ok {
		w.mu.Unlock()
		return Record{}, fmt.Errorf("export %s not found", id)
	}
	if rec.Done() {
		snapshot := rec.copy()
		w.mu.Unlock()
		return snapshot, nil
	}
	ch := make(chan struct{})
	w.waiters[id] = append(w.waiters[id], ch)
	w.mu.Unlock()

	select {
	case <-ch:
		r, _ := w.Get(id)
		return r, nil
	case <-ctx.Done():
		return Record{}, ctx.Err()
	}
}

func (w *Worker) process(t task) {
	w.mu.Lock()
	rec, ok := w.jobs[t.id]
	if !ok {
		w.mu.Unlock()
		return
	}
	rec.Status = StatusRunning
	rec.UpdatedAt = w.exporter.now()
	formats := append([]Format(nil), rec.Formats...)
	w.mu.Unlock()

	artifacts, err := w.exporter.Export(w.ctx, t.id, t.timeline, formats)
	w.finish(t.id, artifacts, err)
}

func (w *Worker) finish(id string, artifacts []Artifact, err error) {
	now := w.exporter.now()
	w.mu.Lock()
	if rec, ok := w.jobs[id]; ok {
		rec.Artifacts = artifacts
		rec.UpdatedAt = now
		rec.CompletedAt = &now
		if err != nil {
			rec.Status = StatusFailed
			rec.Error = err.Error()
		} else {
			rec.Status = StatusSucceeded
		}
	}
	waiters := w.waiters[id]
	delete(w.waiters, id)
	w.mu.Unlock()
	for _, ch := range waiters {
		close(ch)
	}
	if err != nil {
		w.exporter.logger.Warn("export failed", "id", id, "error", err)
	} else {
		w.exporter.logger.Info("export completed", "id", id, "artifacts", len(artifacts))
	}
}

type discard struct{}

func (discard) Debug(string, ...any) {}
func (discard) Info(string, ...any)  {}
func (discard) Warn(string, ...any)  {}
func (discard) Error(string, ...any) {}
