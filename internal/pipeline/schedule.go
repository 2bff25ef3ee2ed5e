package pipeline

import (
	"fmt"
	"time"

	"github.com/video-stream/editor/internal/db/models"
)

// Transition is a state the pipeline reports once At has elapsed since the
// run started.
type Transition struct {
	At    time.Duration
	State models.ProcessingState
}

type Schedule []Transition

// DefaultSchedule mirrors the processing screen: four steps reported at fixed
// offsets from the start of the run.
var DefaultSchedule = Schedule{
	{At: 0, State: models.ProcessingState{Step: models.StepExtracting, Progress: 0, Message: "Extracting audio..."}},
	{At: 2 * time.Second, State: models.ProcessingState{Step: models.StepTranscribing, Progress: 40, Message: "Transcribing speech..."}},
	{At: 5 * time.Second, State: models.ProcessingState{Step: models.StepCleaning, Progress: 80, Message: "Removing silence and filler words..."}},
	{At: 8 * time.Second, State: models.ProcessingState{Step: models.StepReady, Progress: 100, Message: "Processing complete!"}},
}

// Scaled returns a copy with every offset multiplied by factor.
func (s Schedule) Scaled(factor float64) Schedule {
	out := make(Schedule, len(s))
	for i, t := range s {
		out[i] = t
		out[i].At = time.Duration(float64(t.At) * factor)
	}
	return out
}

// Validate checks that offsets and progress never decrease and that the
// schedule ends in ready at 100.
func (s Schedule) Validate() error {
	if len(s) == 0 {
		return fmt.Errorf("empty schedule")
	}
	for i := 1; i < len(s); i++ {
		if s[i].At < s[i-1].At {
			return fmt.Errorf("transition %d: offset %s before %s", i, s[i].At, s[i-1].At)
		}
		if s[i].State.Progress < s[i-1].State.Progress {
			return fmt.Errorf("transition %d: progress %d below %d", i, s[i].State.Progress, s[i-1].State.Progress)
		}
	}
	last := s[len(s)-1].State
	if last.Step != models.StepReady || last.Progress != 100 {
		return fmt.Errorf("schedule must end in ready/100, ends in %s/%d", last.Step, last.Progress)
	}
	return nil
}
