// Package pipeline runs the media processing sequence for a project:
// extract audio, transcribe, clean, ready. Progress is reported on a fixed
// schedule measured from the start of the run, and every run can be
// cancelled through its context.
package pipeline

import (
	"context"
	"errors"
	"time"

	"github.com/video-stream/editor/internal/db/models"
)

// Result is what a completed run produces.
type Result struct {
	Audio      Audio
	Transcript models.Transcript
	Cuts       models.Cuts
}

type Pipeline struct {
	stages   Stages
	schedule Schedule
}

func New(stages Stages, schedule Schedule) *Pipeline {
	return &Pipeline{stages: stages, schedule: schedule}
}

// Run reports each scheduled state through emit, in order, and executes the
// stage belonging to each step right after reporting it. A state is never
// reported before its offset; a slow stage delays the following states.
// emit is called from the calling goroutine.
func (p *Pipeline) Run(ctx context.Context, project *models.VideoProject, emit func(models.ProcessingState)) (Result, error) {
	if err := p.schedule.Validate(); err != nil {
		return Result{}, err
	}

	var res Result
	start := time.Now()
	for _, tr := range p.schedule {
		if err := sleepUntil(ctx, start.Add(tr.At)); err != nil {
			return Result{}, err
		}
		emit(tr.State)

		if err := p.runStage(ctx, tr.State.Step, project, &res); err != nil {
			if ctx.Err() != nil {
				return Result{}, ctx.Err()
			}
			failed := tr.State
			failed.Error = err.Error()
			emit(failed)
			return Result{}, &StepError{Step: tr.State.Step, Err: err}
		}
	}
	if res.Transcript == nil {
		res.Transcript = models.Transcript{}
	}
	if res.Cuts == nil {
		res.Cuts = models.Cuts{}
	}
	return res, nil
}

func (p *Pipeline) runStage(ctx context.Context, step models.ProcessingStep, project *models.VideoProject, res *Result) error {
	var err error
	switch step {
	case models.StepExtracting:
		res.Audio, err = p.stages.Extract(ctx, project)
	case models.StepTranscribing:
		res.Transcript, err = p.stages.Transcribe(ctx, project, res.Audio)
	case models.StepCleaning:
		res.Transcript, res.Cuts, err = p.stages.Clean(ctx, project, res.Transcript)
	}
	return err
}

func sleepUntil(ctx context.Context, deadline time.Time) error {
	d := time.Until(deadline)
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// IsCancelled reports whether err ended a run because its context was done.
func IsCancelled(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
