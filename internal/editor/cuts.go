package editor

import (
	"sort"

	"github.com/video-stream/editor/internal/db/models"
)

// DeriveCuts rebuilds the filler and manual cuts from the transcript's deleted
// words. Adjacent deleted words collapse into one cut; a run made only of
// fillers is a filler cut, anything else is manual. Silence cuts in existing
// are kept. The result is sorted by start time.
//
// Cuts are never derived implicitly by the toggle reducers; callers opt in.
func DeriveCuts(segments models.Transcript, existing models.Cuts) models.Cuts {
	out := models.Cuts{}
	for _, c := range existing {
		if c.Type == models.CutSilence {
			out = append(out, c)
		}
	}

	var (
		open    bool
		current models.CutSegment
		fillers bool
	)
	flush := func() {
		if !open {
			return
		}
		current.Type = models.CutManual
		if fillers {
			current.Type = models.CutFiller
		}
		out = append(out, current)
		open = false
	}

	for _, s := range segments {
		if !s.IsDeleted {
			flush()
			continue
		}
		if !open {
			open = true
			fillers = true
			current = models.CutSegment{Start: s.Start, End: s.End}
		} else if s.End > current.End {
			current.End = s.End
		}
		fillers = fillers && s.IsFiller
	}
	flush()

	sort.SliceStable(out, func(i, j int) bool { return out[i].Start < out[j].Start })
	return out
}

// KeptDuration is the playback length left after removing every cut from a
// video of the given duration. Overlapping cuts are only counted once.
func KeptDuration(duration float64, cuts models.Cuts) float64 {
	if duration <= 0 {
		return 0
	}
	sorted := append(models.Cuts{}, cuts...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Start < sorted[j].Start })

	removed := 0.0
	coveredTo := 0.0
	for _, c := range sorted {
		start, end := clamp(c.Start, 0, duration), clamp(c.End, 0, duration)
		if start < coveredTo {
			start = coveredTo
		}
		if end > start {
			removed += end - start
			coveredTo = end
		}
	}
	return duration - removed
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
