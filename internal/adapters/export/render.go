// Package export renders a slider timeline (steps, tick placements and the
// current window) as JSON, CSV or PNG artifacts and stores them in a blob store.
package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"strconv"
	"strings"
	"time"

	"timeslider/internal/core"
	"timeslider/pkg/domain"
)

// Format names an artifact encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatCSV  Format = "csv"
	FormatPNG  Format = "png"
)

// DefaultFormats are rendered when a request names none.
var DefaultFormats = []Format{FormatJSON, FormatCSV}

// ParseFormat accepts a format name case-insensitively.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatJSON, FormatCSV, FormatPNG:
		return f, nil
	}
	return "", fmt.Errorf("unsupported export format %q", s)
}

// ContentType returns the MIME type of f.
func (f Format) ContentType() string {
	switch f {
	case FormatJSON:
		return "application/json"
	case FormatCSV:
		return "text/csv"
	case FormatPNG:
		return "image/png"
	}
	return "application/octet-stream"
}

// Timeline is everything an export needs from a slider at one moment.
type Timeline struct {
	Name        string                 `json:"name"`
	State       domain.SliderState     `json:"state"`
	Steps       []time.Time            `json:"steps"`
	Ticks       []domain.TickPlacement `json:"ticks"`
	GeneratedAt time.Time              `json:"generated_at"`
}

// TimelineFromSlider captures s. Reads flush any pending step rebuild.
func TimelineFromSlider(name string, s *core.Slider, now time.Time) Timeline {
	return Timeline{
		Name:        name,
		State:       s.Snapshot(),
		Steps:       s.Steps(),
		Ticks:       s.TickPlacements(),
		GeneratedAt: now.UTC(),
	}
}

// Render encodes tl in format f.
func Render(f Format, tl Timeline) ([]byte, error) {
	switch f {
	case FormatJSON:
		b, err := json.MarshalIndent(tl, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("marshal json: %w", err)
		}
		return b, nil
	case FormatCSV:
		return renderCSV(tl)
	case FormatPNG:
		return renderPNG(tl, StripWidth, StripHeight)
	}
	return nil, fmt.Errorf("unsupported export format %q", f)
}

// renderCSV writes one row per step; in_window marks steps inside the
// current extent.
func renderCSV(tl Timeline) ([]byte, error) {
	buf := &bytes.Buffer{}
	w := csv.NewWriter(buf)
	if err := w.Write([]string{"index", "step", "position", "major", "label", "in_window"}); err != nil {
		return nil, err
	}
	ticks := make(map[int64]domain.TickPlacement, len(tl.Ticks))
	for _, t := range tl.Ticks {
		ticks[t.Step.UnixMilli()] = t
	}
	current := tl.State.CurrentExtent
	for i, step := range tl.Steps {
		tick := ticks[step.UnixMilli()]
		record := []string{
			strconv.Itoa(i),
			step.Format(time.RFC3339Nano),
			strconv.FormatFloat(tick.Position, 'f', 6, 64),
			strconv.FormatBool(tick.IsMajor),
			tick.Label,
			strconv.FormatBool(current.Contains(step)),
		}
		if err := w.Write(record); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Strip dimensions in pixels.
const (
	StripWidth  = 800
	StripHeight = 48
	stripInset  = 8
)

var (
	stripBackground = color.RGBA{245, 245, 245, 255}
	stripTrack      = color.RGBA{200, 200, 200, 255}
	stripWindow     = color.RGBA{0, 102, 204, 255}
	stripMinor      = color.RGBA{120, 120, 120, 255}
	stripMajor      = color.RGBA{20, 20, 20, 255}
)

// renderPNG draws the track, the current window and one tick per step,
// majors taller than minors.
func renderPNG(tl Timeline, width, height int) ([]byte, error) {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	fill(img, img.Bounds(), stripBackground)
	usable := width - 2*stripInset
	mid := height / 2
	fill(img, image.Rect(stripInset, mid-2, width-stripInset, mid+2), stripTrack)

	x := func(frac float64) int {
		frac = max(0, min(1, frac))
		return stripInset + int(frac*float64(usable-1)+0.5)
	}
	full := tl.State.FullExtent
	if span := full.Span(); span > 0 {
		cur := full.Clamp(tl.State.CurrentExtent)
		x0 := x(float64(cur.Start.Sub(full.Start).Milliseconds()) / float64(span))
		x1 := x(float64(cur.End.Sub(full.Start).Milliseconds()) / float64(span))
		fill(img, image.Rect(x0, mid-6, x1+1, mid+6), stripWindow)
	}
	for _, t := range tl.Ticks {
		tx := x(t.Position)
		if t.IsMajor {
			fill(img, image.Rect(tx, mid+8, tx+1, height-4), stripMajor)
		} else {
			fill(img, image.Rect(tx, mid+8, tx+1, mid+14), stripMinor)
		}
	}
	buf := &bytes.Buffer{}
	if err := png.Encode(buf, img); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

func fill(img draw.Image, r image.Rectangle, c color.Color) {
	draw.Draw(img, r, &image.Uniform{C: c}, image.Point{}, draw.Src)
}
