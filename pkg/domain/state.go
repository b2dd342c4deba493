package domain

import (
	"fmt"
	"strings"
	"time"
)

// PlaybackDirection is the direction playback advances the window in.
type PlaybackDirection string

// Playback directions.
const (
	Forward  PlaybackDirection = "forward"
	Backward PlaybackDirection = "backward"
)

// Reverse returns the opposite direction.
func (d PlaybackDirection) Reverse() PlaybackDirection {
	if d == Backward {
		return Forward
	}
	return Backward
}

// Sign returns +1 for Forward and -1 for Backward.
func (d PlaybackDirection) Sign() int {
	if d == Backward {
		return -1
	}
	return 1
}

// LoopMode is the policy applied when playback reaches the last (or first) step.
type LoopMode string

// Loop modes.
const (
	LoopNone    LoopMode = "none"
	LoopRepeat  LoopMode = "repeat"
	LoopReverse LoopMode = "reverse"
)

// LabelMode controls where labels are shown.
type LabelMode string

// Label modes.
const (
	LabelNone     LabelMode = "none"
	LabelOnThumbs LabelMode = "on_thumbs"
	LabelOnTicks  LabelMode = "on_ticks"
)

// ParsePlaybackDirection accepts "forward" or "backward" (case-insensitive).
func ParsePlaybackDirection(s string) (PlaybackDirection, error) {
	switch d := PlaybackDirection(strings.ToLower(strings.TrimSpace(s))); d {
	case Forward, Backward:
		return d, nil
	}
	return "", fmt.Errorf("unknown playback direction %q", s)
}

// ParseLoopMode accepts "none", "repeat" or "reverse".
func ParseLoopMode(s string) (LoopMode, error) {
	switch m := LoopMode(strings.ToLower(strings.TrimSpace(s))); m {
	case LoopNone, LoopRepeat, LoopReverse:
		return m, nil
	}
	return "", fmt.Errorf("unknown loop mode %q", s)
}

// ParseLabelMode accepts "none", "on_thumbs" or "on_ticks" ("-" also accepted).
func ParseLabelMode(s string) (LabelMode, error) {
	norm := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "-", "_")
	switch m := LabelMode(norm); m {
	case LabelNone, LabelOnThumbs, LabelOnTicks:
		return m, nil
	}
	return "", fmt.Errorf("unknown label mode %q", s)
}

// PinState locks window endpoints against drag and playback movement.
type PinState struct {
	StartPinned bool `json:"start_pinned"`
	EndPinned   bool `json:"end_pinned"`
}

// PlaybackState describes the playback configuration and whether it runs.
type PlaybackState struct {
	IsPlaying bool              `json:"is_playing"`
	Direction PlaybackDirection `json:"direction"`
	Interval  time.Duration     `json:"interval"`
	LoopMode  LoopMode          `json:"loop_mode"`
}

// TickPlacement is one laid-out tick. Position is the fraction of the track
// in [0,1]; Label is empty for minor ticks.
type TickPlacement struct {
	Step     time.Time `json:"step"`
	IsMajor  bool      `json:"is_major"`
	Position float64   `json:"position"`
	Label    string    `json:"label,omitempty"`
}

// SliderState is a serializable snapshot of the slider configuration and
// the current window.
type SliderState struct {
	FullExtent    TimeExtent        `json:"full_extent"`
	StepInterval  *TimeStepInterval `json:"step_interval,omitempty"`
	CurrentExtent TimeExtent        `json:"current_extent"`
	Pins          PinState          `json:"pins"`
	Playback      PlaybackState     `json:"playback"`
	LabelMode     LabelMode         `json:"label_mode"`
	LabelFormat   string            `json:"label_format,omitempty"`
}

// Validate checks ordering and enum values.
func (s SliderState) Validate() error {
	if !s.FullExtent.Valid() {
		return fmt.Errorf("%w: full extent %s", ErrInvalidDomain, s.FullExtent)
	}
	if !s.CurrentExtent.Valid() {
		return fmt.Errorf("current extent %s is reversed", s.CurrentExtent)
	}
	if s.StepInterval != nil {
		if _, err := NewTimeStepInterval(s.StepInterval.Magnitude, s.StepInterval.Unit); err != nil {
			return err
		}
	}
	if s.Playback.Direction != "" {
		if _, err := ParsePlaybackDirection(string(s.Playback.Direction)); err != nil {
			return err
		}
	}
	if s.Playback.LoopMode != "" {
		if _, err := ParseLoopMode(string(s.Playback.LoopMode)); err != nil {
			return err
		}
	}
	if s.LabelMode != "" {
		if _, err := ParseLabelMode(string(s.LabelMode)); err != nil {
			return err
		}
	}
	return nil
}
