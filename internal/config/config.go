// Package config loads the timeslider configuration. Sources are layered in
// increasing precedence: built-in defaults, an optional JSON file
// (--conf.file), TIMESLIDER_* environment variables and command-line flags.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf"
	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	flag "github.com/spf13/pflag"

	"timeslider/internal/blob"
	"timeslider/internal/core"
	"timeslider/pkg/domain"
)

// EnvPrefix marks environment variables read as configuration. A double
// underscore separates sections: TIMESLIDER_STORAGE__SQLITE_PATH sets
// storage.sqlite-path.
const EnvPrefix = "TIMESLIDER_"

type Config struct {
	Conf    ConfConfig    `koanf:"conf"`
	Slider  SliderConfig  `koanf:"slider"`
	Storage StorageConfig `koanf:"storage"`
	Blob    BlobConfig    `koanf:"blob"`
	Log     LogConfig     `koanf:"log"`
	Metrics MetricsConfig `koanf:"metrics"`
}

type ConfConfig struct {
	File string `koanf:"file"`
	Dump bool   `koanf:"dump"`
}

type SliderConfig struct {
	TrackLength       float64       `koanf:"track-length"`
	ThumbInset        float64       `koanf:"thumb-inset"`
	LabelSpacing      float64       `koanf:"label-spacing"`
	LabelFormat       string        `koanf:"label-format"`
	LabelMode         string        `koanf:"label-mode"`
	PlaybackInterval  time.Duration `koanf:"playback-interval"`
	PlaybackDirection string        `koanf:"playback-direction"`
	LoopMode          string        `koanf:"loop-mode"`
	DebounceDelay     time.Duration `koanf:"debounce-delay"`
	DefaultStepCount  int           `koanf:"default-step-count"`
	LayoutCacheSize   int           `koanf:"layout-cache-size"`
}

type StorageConfig struct {
	Driver      string `koanf:"driver"`
	SQLitePath  string `koanf:"sqlite-path"`
	PostgresDSN string `koanf:"postgres-dsn"`
}

type S3Config struct {
	Bucket    string `koanf:"bucket"`
	Region    string `koanf:"region"`
	Endpoint  string `koanf:"endpoint"`
	PathStyle bool   `koanf:"path-style"`
	AccessKey string `koanf:"access-key"`
	SecretKey string `koanf:"secret-key"`
}

type BlobConfig struct {
	Driver string   `koanf:"driver"`
	FSRoot string   `koanf:"fs-root"`
	S3     S3Config `koanf:"s3"`
}

type LogConfig struct {
	Level      string `koanf:"level"`
	Format     string `koanf:"format"`
	File       string `koanf:"file"`
	MaxSize    int    `koanf:"max-size"`
	MaxBackups int    `koanf:"max-backups"`
	MaxAge     int    `koanf:"max-age"`
	Compress   bool   `koanf:"compress"`
}

type MetricsConfig struct {
	Backend   string `koanf:"backend"`
	Listen    string `koanf:"listen"`
	Namespace string `koanf:"namespace"`
}

var Default = Config{
	Slider: SliderConfig{
		TrackLength:       600,
		ThumbInset:        8,
		LabelSpacing:      8,
		LabelMode:         string(domain.LabelOnThumbs),
		PlaybackInterval:  core.DefaultPlaybackInterval,
		PlaybackDirection: string(domain.Forward),
		LoopMode:          string(domain.LoopNone),
		DebounceDelay:     core.DefaultDebounceDelay,
		LayoutCacheSize:   core.DefaultLayoutCacheSize,
	},
	Storage: StorageConfig{
		Driver:     string(core.StorageSQLite),
		SQLitePath: "timeslider.db",
	},
	Blob: BlobConfig{
		Driver: string(blob.DriverFilesystem),
		FSRoot: "./blobdata",
	},
	Log: LogConfig{
		Level:      "info",
		Format:     "text",
		MaxSize:    100,
		MaxBackups: 5,
		MaxAge:     30,
	},
	Metrics: MetricsConfig{
		Backend:   "none",
		Listen:    "127.0.0.1:9464",
		Namespace: "timeslider",
	},
}

// AddOptions registers every configuration key as a flag on f.
func AddOptions(f *flag.FlagSet) {
	d := Default
	f.String("conf.file", d.Conf.File, "JSON configuration file")
	f.Bool("conf.dump", d.Conf.Dump, "print the effective configuration and exit")

	f.Float64("slider.track-length", d.Slider.TrackLength, "track length in rendering units")
	f.Float64("slider.thumb-inset", d.Slider.ThumbInset, "space reserved at each track end for half a thumb")
	f.Float64("slider.label-spacing", d.Slider.LabelSpacing, "minimum gap between tick labels")
	f.String("slider.label-format", d.Slider.LabelFormat, "Go time layout for labels (empty picks one per step unit)")
	f.String("slider.label-mode", d.Slider.LabelMode, "label mode: none|on_thumbs|on_ticks")
	f.Duration("slider.playback-interval", d.Slider.PlaybackInterval, "time between playback ticks")
	f.String("slider.playback-direction", d.Slider.PlaybackDirection, "playback direction: forward|backward")
	f.String("slider.loop-mode", d.Slider.LoopMode, "loop mode: none|repeat|reverse")
	f.Duration("slider.debounce-delay", d.Slider.DebounceDelay, "coalescing window for step rebuilds")
	f.Int("slider.default-step-count", d.Slider.DefaultStepCount, "steps used when a layer has no interval (0 leaves it without steps)")
	f.Int("slider.layout-cache-size", d.Slider.LayoutCacheSize, "memoised tick layouts (0 disables)")

	f.String("storage.driver", d.Storage.Driver, "state store: memory|sqlite|postgres")
	f.String("storage.sqlite-path", d.Storage.SQLitePath, "sqlite database file")
	f.String("storage.postgres-dsn", d.Storage.PostgresDSN, "postgres connection string")

	f.String("blob.driver", d.Blob.Driver, "artifact store: fs|s3|memory")
	f.String("blob.fs-root", d.Blob.FSRoot, "filesystem artifact root")
	f.String("blob.s3.bucket", d.Blob.S3.Bucket, "S3 bucket")
	f.String("blob.s3.region", d.Blob.S3.Region, "S3 region")
	f.String("blob.s3.endpoint", d.Blob.S3.Endpoint, "S3 endpoint override (MinIO)")
	f.Bool("blob.s3.path-style", d.Blob.S3.PathStyle, "use path-style S3 addressing")
	f.String("blob.s3.access-key", d.Blob.S3.AccessKey, "S3 access key")
	f.String("blob.s3.secret-key", d.Blob.S3.SecretKey, "S3 secret key")

	f.String("log.level", d.Log.Level, "log level: debug|info|warn|error")
	f.String("log.format", d.Log.Format, "log format: text|json")
	f.String("log.file", d.Log.File, "log file (rotated); empty logs to stderr")
	f.Int("log.max-size", d.Log.MaxSize, "log file size in MB before rotation")
	f.Int("log.max-backups", d.Log.MaxBackups, "rotated log files to keep")
	f.Int("log.max-age", d.Log.MaxAge, "days to keep rotated log files")
	f.Bool("log.compress", d.Log.Compress, "gzip rotated log files")

	f.String("metrics.backend", d.Metrics.Backend, "metrics backend: none|expvar|prometheus")
	f.String("metrics.listen", d.Metrics.Listen, "address serving /metrics for the prometheus backend")
	f.String("metrics.namespace", d.Metrics.Namespace, "metric name namespace")
}

// Load layers defaults, the configuration file, the environment and the
// already parsed flags in f.
func Load(f *flag.FlagSet) (Config, *koanf.Koanf, error) {
	k := koanf.New(".")
	if err := k.Load(confmap.Provider(defaultMap(), "."), nil); err != nil {
		return Config{}, nil, fmt.Errorf("load defaults: %w", err)
	}

	path := os.Getenv(EnvPrefix + "CONF__FILE")
	if f != nil {
		if fl := f.Lookup("conf.file"); fl != nil && fl.Changed {
			path = fl.Value.String()
		}
	}
	if path != "" {
		if err := k.Load(file.Provider(path), json.Parser()); err != nil {
			return Config{}, nil, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return Config{}, nil, fmt.Errorf("load environment: %w", err)
	}

	if f != nil {
		if err := k.Load(posflag.Provider(f, ".", k), nil); err != nil {
			return Config{}, nil, fmt.Errorf("load flags: %w", err)
		}
	}

	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return Config{}, nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, nil, err
	}
	return cfg, k, nil
}

// Dump renders the effective configuration as JSON.
func Dump(k *koanf.Koanf) ([]byte, error) {
	return k.Marshal(json.Parser())
}

// envKey maps TIMESLIDER_BLOB__S3__PATH_STYLE to blob.s3.path-style.
func envKey(s string) string {
	s = strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	parts := strings.Split(s, "__")
	for i, p := range parts {
		parts[i] = strings.ReplaceAll(p, "_", "-")
	}
	return strings.Join(parts, ".")
}

func defaultMap() map[string]any {
	d := Default
	return map[string]any{
		"conf.file": d.Conf.File,
		"conf.dump": d.Conf.Dump,

		"slider.track-length":       d.Slider.TrackLength,
		"slider.thumb-inset":        d.Slider.ThumbInset,
		"slider.label-spacing":      d.Slider.LabelSpacing,
		"slider.label-format":       d.Slider.LabelFormat,
		"slider.label-mode":         d.Slider.LabelMode,
		"slider.playback-interval":  d.Slider.PlaybackInterval.String(),
		"slider.playback-direction": d.Slider.PlaybackDirection,
		"slider.loop-mode":          d.Slider.LoopMode,
		"slider.debounce-delay":     d.Slider.DebounceDelay.String(),
		"slider.default-step-count": d.Slider.DefaultStepCount,
		"slider.layout-cache-size":  d.Slider.LayoutCacheSize,

		"storage.driver":       d.Storage.Driver,
		"storage.sqlite-path":  d.Storage.SQLitePath,
		"storage.postgres-dsn": d.Storage.PostgresDSN,

		"blob.driver":        d.Blob.Driver,
		"blob.fs-root":       d.Blob.FSRoot,
		"blob.s3.bucket":     d.Blob.S3.Bucket,
		"blob.s3.region":     d.Blob.S3.Region,
		"blob.s3.endpoint":   d.Blob.S3.Endpoint,
		"blob.s3.path-style": d.Blob.S3.PathStyle,
		"blob.s3.access-key": d.Blob.S3.AccessKey,
		"blob.s3.secret-key": d.Blob.S3.SecretKey,

		"log.level":       d.Log.Level,
		"log.format":      d.Log.Format,
		"log.file":        d.Log.File,
		"log.max-size":    d.Log.MaxSize,
		"log.max-backups": d.Log.MaxBackups,
		"log.max-age":     d.Log.MaxAge,
		"log.compress":    d.Log.Compress,

		"metrics.backend":   d.Metrics.Backend,
		"metrics.listen":    d.Metrics.Listen,
		"metrics.namespace": d.Metrics.Namespace,
	}
}

// Validate rejects unknown enum values and impossible numbers.
func (c Config) Validate() error {
	var errs []error
	if c.Slider.TrackLength < 0 || c.Slider.ThumbInset < 0 || c.Slider.LabelSpacing < 0 {
		errs = append(errs, fmt.Errorf("slider geometry must be non-negative"))
	}
	if _, err := domain.ParseLabelMode(c.Slider.LabelMode); err != nil {
		errs = append(errs, err)
	}
	if _, err := domain.ParsePlaybackDirection(c.Slider.PlaybackDirection); err != nil {
		errs = append(errs, err)
	}
	if _, err := domain.ParseLoopMode(c.Slider.LoopMode); err != nil {
		errs = append(errs, err)
	}
	if c.Slider.PlaybackInterval < 0 || c.Slider.DebounceDelay < 0 {
		errs = append(errs, fmt.Errorf("slider durations must be non-negative"))
	}
	if c.Slider.DefaultStepCount < 0 || c.Slider.LayoutCacheSize < 0 {
		errs = append(errs, fmt.Errorf("slider counts must be non-negative"))
	}
	if _, err := core.ParseStorageDriver(c.Storage.Driver); err != nil {
		errs = append(errs, err)
	}
	if d, err := blob.ParseDriver(c.Blob.Driver); err != nil {
		errs = append(errs, err)
	} else if d == blob.DriverS3 && c.Blob.S3.Bucket == "" {
		errs = append(errs, fmt.Errorf("blob.s3.bucket required for the s3 driver"))
	}
	if _, err := ParseLogLevel(c.Log.Level); err != nil {
		errs = append(errs, err)
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("unknown log format %q", c.Log.Format))
	}
	switch c.Metrics.Backend {
	case "none", "expvar", "prometheus":
	default:
		errs = append(errs, fmt.Errorf("unknown metrics backend %q", c.Metrics.Backend))
	}
	return errors.Join(errs...)
}
