package config

import (
	"timeslider/internal/blob"
	"timeslider/internal/core"
	"timeslider/pkg/domain"
)

// Options returns the slider construction options carried by the config.
func (c SliderConfig) Options() []core.Option {
	return []core.Option{
		core.WithDebounceDelay(c.DebounceDelay),
		core.WithLayoutCacheSize(c.LayoutCacheSize),
		core.WithDefaultStepCount(c.DefaultStepCount),
	}
}

// Apply sets the slider's presentation and playback properties. The config
// is expected to be validated.
func (c SliderConfig) Apply(s *core.Slider) error {
	s.SetTrackGeometry(core.TrackGeometry{Length: c.TrackLength, ThumbInset: c.ThumbInset})
	s.SetMinimumLabelSpacing(c.LabelSpacing)
	s.SetLabelFormat(c.LabelFormat)
	s.SetPlaybackInterval(c.PlaybackInterval)

	mode, err := domain.ParseLabelMode(c.LabelMode)
	if err != nil {
		return err
	}
	if err := s.SetLabelMode(mode); err != nil {
		return err
	}
	dir, err := domain.ParsePlaybackDirection(c.PlaybackDirection)
	if err != nil {
		return err
	}
	if err := s.SetPlaybackDirection(dir); err != nil {
		return err
	}
	loop, err := domain.ParseLoopMode(c.LoopMode)
	if err != nil {
		return err
	}
	return s.SetPlaybackLoopMode(loop)
}

func (c StorageConfig) Core() (core.StorageConfig, error) {
	driver, err := core.ParseStorageDriver(c.Driver)
	if err != nil {
		return core.StorageConfig{}, err
	}
	return core.StorageConfig{Driver: driver, SQLitePath: c.SQLitePath, PostgresDSN: c.PostgresDSN}, nil
}

func (c BlobConfig) Blob() (blob.Config, error) {
	driver, err := blob.ParseDriver(c.Driver)
	if err != nil {
		return blob.Config{}, err
	}
	return blob.Config{
		Driver: driver,
		FSRoot: c.FSRoot,
		S3: blob.S3Config{
			Bucket:          c.S3.Bucket,
			Region:          c.S3.Region,
			Endpoint:        c.S3.Endpoint,
			PathStyle:       c.S3.PathStyle,
			AccessKeyID:     c.S3.AccessKey,
			SecretAccessKey: c.S3.SecretKey,
		},
	}, nil
}
