// Package editor holds the word-level transcript edit model, playback and
// timeline state, and the editing session state that ties them together.
// Every operation is a pure function or a method on an explicit value; there
// is no package-level state.
package editor

import (
	"errors"
	"fmt"
	"time"

	"github.com/video-stream/editor/internal/db/models"
)

// ErrIndexOutOfRange is returned when a word index does not exist.
var ErrIndexOutOfRange = errors.New("word index out of range")

// FillerTimeSaved is the placeholder saving credited per deleted filler word.
// It is a display heuristic, not a measured duration.
const FillerTimeSaved = 800 * time.Millisecond

// ToggleWordDeletion returns a copy of segments with isDeleted flipped at index.
// The input slice is never modified.
func ToggleWordDeletion(segments models.Transcript, index int) (models.Transcript, error) {
	if index < 0 || index >= len(segments) {
		return nil, fmt.Errorf("%w: %d (transcript has %d words)", ErrIndexOutOfRange, index, len(segments))
	}
	out := segments.Clone()
	out[index].IsDeleted = !out[index].IsDeleted
	return out, nil
}

// UpdateTranscript replaces the transcript wholesale. Ordering is the caller's
// responsibility; see CheckOrdering.
func UpdateTranscript(segments models.Transcript) models.Transcript {
	if segments == nil {
		return models.Transcript{}
	}
	return segments.Clone()
}

// RestoreAll clears isDeleted on every word.
func RestoreAll(segments models.Transcript) models.Transcript {
	out := segments.Clone()
	for i := range out {
		out[i].IsDeleted = false
	}
	return out
}

// CheckOrdering reports the first segment that breaks the timing invariant:
// start and end non-negative, start <= end, and starts non-decreasing.
func CheckOrdering(segments models.Transcript) error {
	prevStart := 0.0
	for i, s := range segments {
		if s.Start < 0 || s.End < 0 {
			return fmt.Errorf("segment %d: negative time", i)
		}
		if s.Start > s.End {
			return fmt.Errorf("segment %d: start %.3f after end %.3f", i, s.Start, s.End)
		}
		if s.Start < prevStart {
			return fmt.Errorf("segment %d: start %.3f before previous start %.3f", i, s.Start, prevStart)
		}
		prevStart = s.Start
	}
	return nil
}

// Stats are the derived values shown next to the transcript.
type Stats struct {
	TotalWords     int     `json:"totalWords"`
	DeletedWords   int     `json:"deletedWords"`
	DeletedFillers int     `json:"deletedFillers"`
	Remaining      int     `json:"remainingWords"`
	TimeSaved      float64 `json:"estimatedTimeSaved"` // seconds
}

func ComputeStats(segments models.Transcript) Stats {
	st := Stats{TotalWords: len(segments)}
	for _, s := range segments {
		if !s.IsDeleted {
			st.Remaining++
			continue
		}
		st.DeletedWords++
		if s.IsFiller {
			st.DeletedFillers++
		}
	}
	st.TimeSaved = float64(st.DeletedFillers) * FillerTimeSaved.Seconds()
	return st
}
