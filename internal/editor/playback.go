package editor

import (
	"fmt"
	"math"

	"github.com/video-stream/editor/internal/db/models"
)

const (
	MinZoom     = 1
	MaxZoom     = 100
	DefaultZoom = 50 // 1x timeline scale
)

// Playback tracks the player and timeline. It is independent of the pipeline.
type Playback struct {
	CurrentTime float64 `json:"currentTime"`
	IsPlaying   bool    `json:"isPlaying"`
	Duration    float64 `json:"duration"`
	Zoom        int     `json:"zoom"`
}

func NewPlayback() Playback {
	return Playback{Zoom: DefaultZoom}
}

// Seek moves the playhead, clamped to [0, Duration].
func (p Playback) Seek(t float64) Playback {
	if math.IsNaN(t) || t < 0 {
		t = 0
	}
	if t > p.Duration {
		t = p.Duration
	}
	p.CurrentTime = t
	return p
}

func (p Playback) Play() Playback {
	p.IsPlaying = p.Duration > 0
	return p
}

func (p Playback) Pause() Playback {
	p.IsPlaying = false
	return p
}

// SetDuration updates the media length and pulls the playhead back inside it.
func (p Playback) SetDuration(d float64) Playback {
	if d < 0 || math.IsNaN(d) {
		d = 0
	}
	p.Duration = d
	if d == 0 {
		p.IsPlaying = false
	}
	return p.Seek(p.CurrentTime)
}

func (p Playback) SetZoom(z int) Playback {
	if z < MinZoom {
		z = MinZoom
	}
	if z > MaxZoom {
		z = MaxZoom
	}
	p.Zoom = z
	return p
}

// Scale is the timeline magnification; DefaultZoom maps to 1.
func (p Playback) Scale() float64 {
	return float64(p.Zoom) / DefaultZoom
}

// ActiveSegment returns the index of the word under the playhead, or -1.
func (p Playback) ActiveSegment(segments models.Transcript) int {
	for i, s := range segments {
		if p.CurrentTime >= s.Start && p.CurrentTime < s.End {
			return i
		}
	}
	return -1
}

// Ticks returns timeline marker positions in seconds. The base interval is
// 30s at 1x and shrinks as the timeline is zoomed in.
func (p Playback) Ticks() []float64 {
	if p.Duration <= 0 {
		return nil
	}
	interval := 30 / p.Scale()
	if interval < 1 {
		interval = 1
	}
	var ticks []float64
	for t := 0.0; t <= p.Duration; t += interval {
		ticks = append(ticks, t)
	}
	return ticks
}

// FormatTimestamp renders seconds as m:ss.
func FormatTimestamp(seconds float64) string {
	if seconds < 0 || math.IsNaN(seconds) {
		seconds = 0
	}
	mins := int(seconds) / 60
	secs := int(seconds) % 60
	return fmt.Sprintf("%d:%02d", mins, secs)
}
