package layers

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"timeslider/internal/blob"
	"timeslider/pkg/domain"
)

func day(d int) time.Time { return time.Date(2024, time.January, d, 0, 0, 0, 0, time.UTC) }

func extent(a, b int) domain.TimeExtent { return domain.TimeExtent{Start: day(a), End: day(b)} }

func interval(m float64, u domain.TimeUnit) *domain.TimeStepInterval {
	return &domain.TimeStepInterval{Magnitude: m, Unit: u}
}

func TestStatic(t *testing.T) {
	info := domain.LayerTimeInfo{FullTimeExtent: extent(1, 31), SupportsInstantaneousTime: true}
	got, err := Static{Info: info}.TimeInfo(context.Background())
	if err != nil {
		t.Fatalf("time info: %v", err)
	}
	if diff := cmp.Diff(info, got); diff != "" {
		t.Fatalf("mismatch (-want +got):\n%s", diff)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := (Static{Info: info}).TimeInfo(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestGroupMergesChildren(t *testing.T) {
	g := NewGroup(
		Static{Info: domain.LayerTimeInfo{FullTimeExtent: extent(5, 20), TimeStepInterval: interval(1, domain.Days), SupportsInstantaneousTime: true}},
		domain.TimeAwareLayerFunc(func(context.Context) (domain.LayerTimeInfo, error) {
			return domain.LayerTimeInfo{}, errors.New("service unavailable")
		}),
		Static{Info: domain.LayerTimeInfo{FullTimeExtent: extent(1, 10), TimeStepInterval: interval(6, domain.Hours), SupportsInstantaneousTime: true}},
		Static{Info: domain.LayerTimeInfo{FullTimeExtent: extent(15, 31), SupportsInstantaneousTime: false}},
		Static{},
	)
	got, err := g.TimeInfo(context.Background())
	if err != nil {
		t.Fatalf("time info: %v", err)
	}
	want := domain.LayerTimeInfo{FullTimeExtent: extent(1, 31), TimeStepInterval: interval(6, domain.Hours)}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("mismatch (-want +got):\n%s", diff)
	}
}

func TestGroupCalendarIntervals(t *testing.T) {
	g := NewGroup(
		Static{Info: domain.LayerTimeInfo{FullTimeExtent: extent(1, 2), TimeStepInterval: interval(1, domain.Years)}},
		Static{Info: domain.LayerTimeInfo{FullTimeExtent: extent(1, 2), TimeStepInterval: interval(2, domain.Months)}},
		Static{Info: domain.LayerTimeInfo{FullTimeExtent: extent(1, 2), TimeStepInterval: interval(0, domain.Days)}},
	)
	got, err := g.TimeInfo(context.Background())
	if err != nil {
		t.Fatalf("time info: %v", err)
	}
	if diff := cmp.Diff(interval(2, domain.Months), got.TimeStepInterval); diff != "" {
		t.Fatalf("interval mismatch (-want +got):\n%s", diff)
	}
}

func TestGroupWithoutUsableChildren(t *testing.T) {
	failing := domain.TimeAwareLayerFunc(func(context.Context) (domain.LayerTimeInfo, error) {
		return domain.LayerTimeInfo{}, errors.New("boom")
	})
	_, err := NewGroup(failing, nil, Static{}).TimeInfo(context.Background())
	if !errors.Is(err, ErrNoTemporalChildren) || !strings.Contains(err.Error(), "boom") {
		t.Fatalf("expected joined error, got %v", err)
	}
	if _, err := NewGroup().TimeInfo(context.Background()); !errors.Is(err, ErrNoTemporalChildren) {
		t.Fatalf("expected empty group error, got %v", err)
	}
}

func TestBlobDocuments(t *testing.T) {
	ctx := context.Background()
	store := blob.NewMemory()
	full := extent(1, 31)
	docs := map[string]Document{
		"layers/radar.json":  {FullTimeExtent: &full, TimeStepInterval: interval(1, domain.Days), SupportsInstantaneousTime: true},
		"layers/model.json":  {FullTimeExtent: ptr(extent(10, 31)), TimeStepInterval: interval(3, domain.Hours)},
		"layers/bundle.json": {Sublayers: []string{"layers/radar.json", "layers/model.json", "layers/missing.json"}},
	}
	for key, doc := range docs {
		if _, err := WriteDocument(ctx, store, key, doc); err != nil {
			t.Fatalf("write %s: %v", key, err)
		}
	}

	radar, err := NewBlob(store, "layers/radar.json").TimeInfo(ctx)
	if err != nil {
		t.Fatalf("radar: %v", err)
	}
	if !radar.SupportsInstantaneousTime || !radar.FullTimeExtent.Equal(full) {
		t.Fatalf("unexpected radar info %+v", radar)
	}

	bundle, err := NewBlob(store, "layers/bundle.json").TimeInfo(ctx)
	if err != nil {
		t.Fatalf("bundle: %v", err)
	}
	want := domain.LayerTimeInfo{FullTimeExtent: full, TimeStepInterval: interval(3, domain.Hours)}
	if diff := cmp.Diff(want, bundle); diff != "" {
		t.Fatalf("bundle mismatch (-want +got):\n%s", diff)
	}

	if _, err := NewBlob(store, "layers/missing.json").TimeInfo(ctx); !IsMissing(err) {
		t.Fatalf("expected missing document, got %v", err)
	}
}

func TestBlobRejectsBadDocuments(t *testing.T) {
	ctx := context.Background()
	store := blob.NewMemory()
	put := func(key, body string) {
		t.Helper()
		if _, err := store.Put(ctx, key, strings.NewReader(body), blob.PutOptions{}); err != nil {
			t.Fatalf("put %s: %v", key, err)
		}
	}
	put("bad/json", "{")
	put("bad/unknown", `{"full_time_extent":{"start":"2024-01-01T00:00:00Z","end":"2024-01-02T00:00:00Z"},"colour":"red"}`)
	put("bad/reversed", `{"full_time_extent":{"start":"2024-02-01T00:00:00Z","end":"2024-01-01T00:00:00Z"}}`)
	put("bad/empty", `{}`)
	put("bad/cycle", `{"sublayers":["bad/cycle"]}`)

	for _, key := range []string{"bad/json", "bad/unknown", "bad/empty", "bad/cycle"} {
		if _, err := NewBlob(store, key).TimeInfo(ctx); err == nil {
			t.Fatalf("%s: expected error", key)
		}
	}
	if _, err := NewBlob(store, "bad/reversed").TimeInfo(ctx); !errors.Is(err, domain.ErrInvalidDomain) {
		t.Fatalf("expected ErrInvalidDomain, got %v", err)
	}
	if _, err := ReadDocument(ctx, nil, "x"); err == nil {
		t.Fatalf("expected nil store error")
	}
}

func ptr[T any](v T) *T { return &v }
