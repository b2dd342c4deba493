package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	flag "github.com/spf13/pflag"

	"timeslider/internal/blob"
	"timeslider/internal/core"
	"timeslider/pkg/domain"
)

func parsed(t *testing.T, args ...string) *flag.FlagSet {
	t.Helper()
	f := flag.NewFlagSet("test", flag.ContinueOnError)
	AddOptions(f)
	if err := f.Parse(args); err != nil {
		t.Fatalf("parse flags: %v", err)
	}
	return f
}

func TestLoadDefaults(t *testing.T) {
	cfg, _, err := Load(parsed(t))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if diff := cmp.Diff(Default, cfg); diff != "" {
		t.Fatalf("defaults mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadPrecedence(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "timeslider.json")
	doc := map[string]any{
		"slider":  map[string]any{"track-length": 900.0, "loop-mode": "repeat", "playback-interval": "2s"},
		"storage": map[string]any{"driver": "memory"},
		"log":     map[string]any{"level": "debug"},
	}
	raw, _ := json.Marshal(doc)
	if err := os.WriteFile(path, raw, 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("TIMESLIDER_SLIDER__TRACK_LENGTH", "1000")
	t.Setenv("TIMESLIDER_LOG__LEVEL", "warn")

	cfg, _, err := Load(parsed(t, "--conf.file", path, "--log.level", "error"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Slider.TrackLength != 1000 {
		t.Fatalf("env should override file: track length %v", cfg.Slider.TrackLength)
	}
	if cfg.Slider.LoopMode != "repeat" || cfg.Slider.PlaybackInterval != 2*time.Second {
		t.Fatalf("file values not applied: %+v", cfg.Slider)
	}
	if cfg.Storage.Driver != "memory" {
		t.Fatalf("storage driver %q", cfg.Storage.Driver)
	}
	if cfg.Log.Level != "error" {
		t.Fatalf("flag should override env: level %q", cfg.Log.Level)
	}
	if cfg.Blob.Driver != Default.Blob.Driver {
		t.Fatalf("untouched key changed: %q", cfg.Blob.Driver)
	}
}

func TestLoadFileFromEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "c.json")
	if err := os.WriteFile(path, []byte(`{"metrics":{"backend":"expvar"}}`), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("TIMESLIDER_CONF__FILE", path)
	cfg, _, err := Load(parsed(t))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Metrics.Backend != "expvar" {
		t.Fatalf("backend %q", cfg.Metrics.Backend)
	}
}

func TestLoadRejects(t *testing.T) {
	cases := []struct {
		name string
		args []string
		want string
	}{
		{"loop mode", []string{"--slider.loop-mode", "sideways"}, "loop mode"},
		{"label mode", []string{"--slider.label-mode", "everywhere"}, "label mode"},
		{"storage", []string{"--storage.driver", "mongo"}, "storage driver"},
		{"blob", []string{"--blob.driver", "ftp"}, "blob driver"},
		{"s3 bucket", []string{"--blob.driver", "s3"}, "bucket"},
		{"log level", []string{"--log.level", "loud"}, "log level"},
		{"metrics", []string{"--metrics.backend", "statsd"}, "metrics backend"},
		{"geometry", []string{"--slider.track-length", "-1"}, "geometry"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := Load(parsed(t, tc.args...))
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("expected error containing %q, got %v", tc.want, err)
			}
		})
	}

	if _, _, err := Load(parsed(t, "--conf.file", filepath.Join(t.TempDir(), "missing.json"))); err == nil {
		t.Fatalf("expected missing file error")
	}
}

func TestDump(t *testing.T) {
	_, k, err := Load(parsed(t, "--storage.driver", "postgres"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	out, err := Dump(k)
	if err != nil {
		t.Fatalf("Dump: %v", err)
	}
	var doc map[string]map[string]any
	if err := json.Unmarshal(out, &doc); err != nil {
		t.Fatalf("dump is not JSON: %v", err)
	}
	if doc["storage"]["driver"] != "postgres" {
		t.Fatalf("dump storage section: %v", doc["storage"])
	}
}

func TestEnvKey(t *testing.T) {
	for in, want := range map[string]string{
		"TIMESLIDER_BLOB__S3__PATH_STYLE":      "blob.s3.path-style",
		"TIMESLIDER_SLIDER__LOOP_MODE":         "slider.loop-mode",
		"TIMESLIDER_STORAGE__POSTGRES_DSN":     "storage.postgres-dsn",
		"TIMESLIDER_METRICS__NAMESPACE":        "metrics.namespace",
		"TIMESLIDER_SLIDER__DEBOUNCE_DELAY":    "slider.debounce-delay",
		"TIMESLIDER_LOG__MAX_BACKUPS":          "log.max-backups",
		"TIMESLIDER_CONF__DUMP":                "conf.dump",
		"TIMESLIDER_SLIDER__LAYOUT_CACHE_SIZE": "slider.layout-cache-size",
	} {
		if got := envKey(in); got != want {
			t.Fatalf("envKey(%s) = %s, want %s", in, got, want)
		}
	}
}

func TestSliderApply(t *testing.T) {
	cfg := Default.Slider
	cfg.TrackLength = 1200
	cfg.LabelMode = "on-ticks"
	cfg.PlaybackDirection = "backward"
	cfg.LoopMode = "reverse"
	cfg.PlaybackInterval = 250 * time.Millisecond

	s := core.NewSlider(cfg.Options()...)
	defer s.Close()
	if err := cfg.Apply(s); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if got := s.TrackGeometry(); got.Length != 1200 || got.ThumbInset != cfg.ThumbInset {
		t.Fatalf("geometry %+v", got)
	}
	if s.LabelMode() != domain.LabelOnTicks || s.PlaybackDirection() != domain.Backward || s.PlaybackLoopMode() != domain.LoopReverse {
		t.Fatalf("enums not applied: %s %s %s", s.LabelMode(), s.PlaybackDirection(), s.PlaybackLoopMode())
	}
	if s.PlaybackInterval() != 250*time.Millisecond {
		t.Fatalf("interval %v", s.PlaybackInterval())
	}

	cfg.LoopMode = "bogus"
	if err := cfg.Apply(s); err == nil {
		t.Fatalf("expected loop mode error")
	}
}

func TestBackendMapping(t *testing.T) {
	sc, err := StorageConfig{Driver: "Postgres", PostgresDSN: "postgres://db/x"}.Core()
	if err != nil || sc.Driver != core.StoragePostgres || sc.PostgresDSN != "postgres://db/x" {
		t.Fatalf("storage mapping: %+v %v", sc, err)
	}
	bc, err := BlobConfig{Driver: "s3", S3: S3Config{Bucket: "b", AccessKey: "ak", SecretKey: "sk", PathStyle: true}}.Blob()
	if err != nil {
		t.Fatalf("blob mapping: %v", err)
	}
	if bc.Driver != blob.DriverS3 || bc.S3.Bucket != "b" || bc.S3.AccessKeyID != "ak" || bc.S3.SecretAccessKey != "sk" || !bc.S3.PathStyle {
		t.Fatalf("blob mapping: %+v", bc)
	}
	if _, err := (BlobConfig{Driver: "tape"}).Blob(); err == nil {
		t.Fatalf("expected unknown driver error")
	}
}
