package editor

import (
	"github.com/video-stream/editor/internal/db/models"
)

// Tick is one timeline marker.
type Tick struct {
	At    float64 `json:"at"`
	Label string  `json:"label"`
}

// View is everything the timeline and player need to render a State.
type View struct {
	Section         Section                 `json:"section"`
	Processing      *models.ProcessingState `json:"processing,omitempty"`
	Playback        Playback                `json:"playback"`
	Scale           float64                 `json:"scale"`
	Ticks           []Tick                  `json:"ticks"`
	ActiveSegment   int                     `json:"activeSegment"`
	CurrentLabel    string                  `json:"currentLabel"`
	DurationLabel   string                  `json:"durationLabel"`
	KeptDuration    float64                 `json:"keptDuration"`
	Stats           Stats                   `json:"stats"`
	ShowExportModal bool                    `json:"showExportModal"`
}

func (s State) View() View {
	v := View{
		Section:         s.Section,
		Processing:      s.Processing,
		Playback:        s.Playback,
		Scale:           s.Playback.Scale(),
		Ticks:           []Tick{},
		ActiveSegment:   -1,
		CurrentLabel:    FormatTimestamp(s.Playback.CurrentTime),
		DurationLabel:   FormatTimestamp(s.Playback.Duration),
		Stats:           s.Stats(),
		ShowExportModal: s.ShowExportModal,
	}
	for _, at := range s.Playback.Ticks() {
		v.Ticks = append(v.Ticks, Tick{At: at, Label: FormatTimestamp(at)})
	}
	if s.Project != nil {
		v.ActiveSegment = s.Playback.ActiveSegment(s.Project.Transcript)
		v.KeptDuration = KeptDuration(s.Playback.Duration, s.Project.Cuts)
	}
	return v
}
