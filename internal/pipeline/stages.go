package pipeline

import (
	"context"
	"fmt"

	"github.com/video-stream/editor/internal/db/models"
	"github.com/video-stream/editor/internal/editor"
)

// Audio is the output of the extraction stage.
type Audio struct {
	Path     string
	Duration float64 // seconds
}

// Stages are the external collaborators a run drives. A real implementation
// would shell out to an extractor and a speech-to-text engine; MockStages
// returns fixed data.
type Stages interface {
	Extract(ctx context.Context, p *models.VideoProject) (Audio, error)
	Transcribe(ctx context.Context, p *models.VideoProject, audio Audio) (models.Transcript, error)
	Clean(ctx context.Context, p *models.VideoProject, t models.Transcript) (models.Transcript, models.Cuts, error)
}

// StepError reports which stage failed.
type StepError struct {
	Step models.ProcessingStep
	Err  error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("%s failed: %v", e.Step, e.Err)
}

func (e *StepError) Unwrap() error { return e.Err }

// MockStages produces the demo transcript and silence map.
type MockStages struct{}

func (MockStages) Extract(ctx context.Context, p *models.VideoProject) (Audio, error) {
	if err := ctx.Err(); err != nil {
		return Audio{}, err
	}
	return Audio{Path: p.ID + ".wav", Duration: float64(p.Duration)}, nil
}

func (MockStages) Transcribe(ctx context.Context, p *models.VideoProject, audio Audio) (models.Transcript, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return MockTranscript(), nil
}

// Clean marks every filler as deleted and returns the detected silences
// together with the filler cuts derived from the transcript.
func (MockStages) Clean(ctx context.Context, p *models.VideoProject, t models.Transcript) (models.Transcript, models.Cuts, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}
	out := t.Clone()
	for i := range out {
		if out[i].IsFiller {
			out[i].IsDeleted = true
		}
	}
	return out, editor.DeriveCuts(out, MockSilences()), nil
}

func MockTranscript() models.Transcript {
	words := []struct {
		start, end float64
		text       string
		filler     bool
	}{
		{0, 1.2, "Hello", false},
		{1.2, 2.5, "everyone,", false},
		{2.5, 3.0, "welcome", false},
		{3.0, 3.4, "to", false},
		{3.4, 3.8, "my", false},
		{3.8, 4.1, "um", true},
		{4.1, 4.8, "coding", false},
		{4.8, 5.5, "tutorial.", false},
		{5.5, 6.0, "Today", false},
		{6.0, 6.4, "we're", false},
		{6.4, 6.8, "going", false},
		{6.8, 7.0, "to", false},
		{7.0, 7.3, "uh", true},
		{7.3, 7.8, "build", false},
		{7.8, 8.0, "a", false},
		{8.0, 8.6, "React", false},
		{8.6, 9.5, "application.", false},
	}
	t := make(models.Transcript, len(words))
	for i, w := range words {
		t[i] = models.TranscriptSegment{Start: w.start, End: w.end, Text: w.text, IsFiller: w.filler}
	}
	return t
}

func MockSilences() models.Cuts {
	return models.Cuts{
		{Start: 9.5, End: 11.2, Type: models.CutSilence},
		{Start: 15.3, End: 16.8, Type: models.CutSilence},
		{Start: 22.1, End: 23.5, Type: models.CutSilence},
	}
}
