package pipeline

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/video-stream/editor/internal/db/models"
	"github.com/video-stream/editor/internal/logging"
	"github.com/video-stream/editor/internal/project"
)

var (
	ErrAlreadyRunning = errors.New("processing already running for this project")
	ErrNoRun          = errors.New("no processing run for this project")
)

// ProjectUpdater persists pipeline output. *project.Service satisfies it.
type ProjectUpdater interface {
	Update(ctx context.Context, userID int64, id string, patch project.Patch) (*models.VideoProject, error)
}

// subscriberBuffer holds every state a run can publish, so publishing never
// blocks on a slow reader.
const subscriberBuffer = 16

// Run is one execution of the pipeline for a project.
type Run struct {
	ID        string
	ProjectID string
	UserID    int64
	StartedAt time.Time

	cancel context.CancelFunc
	done   chan struct{}

	mu          sync.Mutex
	states      []models.ProcessingState
	subscribers map[chan models.ProcessingState]struct{}
	finishedAt  *time.Time
	finished    bool
}

// RunInfo is the JSON view of a run.
type RunInfo struct {
	ID         string                 `json:"id"`
	ProjectID  string                 `json:"projectId"`
	State      models.ProcessingState `json:"state"`
	Running    bool                   `json:"running"`
	StartedAt  time.Time              `json:"startedAt"`
	FinishedAt *time.Time             `json:"finishedAt,omitempty"`
}

func (r *Run) Info() RunInfo {
	r.mu.Lock()
	defer r.mu.Unlock()
	info := RunInfo{
		ID:         r.ID,
		ProjectID:  r.ProjectID,
		Running:    !r.finished,
		StartedAt:  r.StartedAt,
		FinishedAt: r.finishedAt,
	}
	if n := len(r.states); n > 0 {
		info.State = r.states[n-1]
	}
	return info
}

// Done is closed once the run has finished.
func (r *Run) Done() <-chan struct{} { return r.done }

func (r *Run) publish(s models.ProcessingState) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.states = append(r.states, s)
	for ch := range r.subscribers {
		select {
		case ch <- s:
		default:
		}
	}
}

func (r *Run) finish() {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now().UTC()
	r.finishedAt = &now
	r.finished = true
	for ch := range r.subscribers {
		close(ch)
	}
	r.subscribers = nil
	close(r.done)
}

// subscribe replays the states published so far and then follows the run.
// The channel is closed when the run finishes or unsubscribe is called.
func (r *Run) subscribe() (<-chan models.ProcessingState, func()) {
	r.mu.Lock()
	defer r.mu.Unlock()

	ch := make(chan models.ProcessingState, subscriberBuffer)
	for _, s := range r.states {
		ch <- s
	}
	if r.finished {
		close(ch)
		return ch, func() {}
	}
	r.subscribers[ch] = struct{}{}
	return ch, func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		if _, ok := r.subscribers[ch]; ok {
			delete(r.subscribers, ch)
			close(ch)
		}
	}
}

// Runner owns the pipeline runs of the process. There is at most one active
// run per project; runs of different projects never interact.
type Runner struct {
	pipeline *Pipeline
	projects ProjectUpdater
	log      *logrus.Entry

	mu   sync.Mutex
	runs map[string]*Run // by project ID, latest run only

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewRunner(p *Pipeline, projects ProjectUpdater, log logrus.FieldLogger) *Runner {
	ctx, cancel := context.WithCancel(context.Background())
	return &Runner{
		pipeline: p,
		projects: projects,
		log:      logging.WithComponent(log, "pipeline"),
		runs:     make(map[string]*Run),
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Start marks the project as processing and launches a run in the
// background.
func (rn *Runner) Start(ctx context.Context, userID int64, p *models.VideoProject) (*Run, error) {
	rn.mu.Lock()
	defer rn.mu.Unlock()

	if existing, ok := rn.runs[p.ID]; ok && existing.Info().Running {
		return nil, ErrAlreadyRunning
	}

	status := models.StatusProcessing
	current, err := rn.projects.Update(ctx, userID, p.ID, project.Patch{Status: &status})
	if err != nil {
		return nil, err
	}

	runCtx, cancel := context.WithCancel(rn.ctx)
	run := &Run{
		ID:          uuid.New().String(),
		ProjectID:   p.ID,
		UserID:      userID,
		StartedAt:   time.Now().UTC(),
		cancel:      cancel,
		done:        make(chan struct{}),
		states:      []models.ProcessingState{{Step: models.StepUploading, Progress: 0, Message: "Uploading..."}},
		subscribers: make(map[chan models.ProcessingState]struct{}),
	}
	rn.runs[p.ID] = run

	rn.wg.Add(1)
	go rn.execute(runCtx, run, current)
	return run, nil
}

func (rn *Runner) execute(ctx context.Context, run *Run, p *models.VideoProject) {
	defer rn.wg.Done()
	defer run.finish()
	defer run.cancel()

	log := rn.log.WithFields(logrus.Fields{"project_id": run.ProjectID, "run_id": run.ID})
	log.Info("processing started")

	// ready is held back until the output is stored, so a client that
	// sees it can immediately load the finished project.
	var ready *models.ProcessingState
	emit := func(s models.ProcessingState) {
		log.WithFields(logrus.Fields{"step": s.Step, "progress": s.Progress}).Debug("processing state")
		if s.Step == models.StepReady && s.Error == "" {
			ready = &s
			return
		}
		run.publish(s)
	}

	res, err := rn.pipeline.Run(ctx, p, emit)
	switch {
	case IsCancelled(err):
		log.Info("processing cancelled")
		return
	case err != nil:
		log.WithError(err).Error("processing failed")
		return
	}

	status := models.StatusReady
	_, err = rn.projects.Update(context.Background(), run.UserID, run.ProjectID, project.Patch{
		Status:     &status,
		Transcript: &res.Transcript,
		Cuts:       &res.Cuts,
	})
	if err != nil {
		log.WithError(err).Error("failed to store processing result")
		last := run.Info().State
		last.Error = "failed to store processing result"
		run.publish(last)
		return
	}

	run.publish(*ready)
	log.Info("processing complete")
}

// Cancel stops the project's active run. It reports whether a run was
// cancelled.
func (rn *Runner) Cancel(userID int64, projectID string) bool {
	run, ok := rn.lookup(userID, projectID)
	if !ok || !run.Info().Running {
		return false
	}
	run.cancel()
	<-run.done
	return true
}

// Latest returns the most recent run of the project.
func (rn *Runner) Latest(userID int64, projectID string) (RunInfo, error) {
	run, ok := rn.lookup(userID, projectID)
	if !ok {
		return RunInfo{}, ErrNoRun
	}
	return run.Info(), nil
}

// Subscribe follows the project's latest run. States already published are
// delivered first.
func (rn *Runner) Subscribe(userID int64, projectID string) (<-chan models.ProcessingState, func(), error) {
	run, ok := rn.lookup(userID, projectID)
	if !ok {
		return nil, nil, ErrNoRun
	}
	ch, unsubscribe := run.subscribe()
	return ch, unsubscribe, nil
}

// Forget drops the run record of a deleted project, cancelling it first.
func (rn *Runner) Forget(userID int64, projectID string) {
	rn.Cancel(userID, projectID)
	rn.mu.Lock()
	defer rn.mu.Unlock()
	if run, ok := rn.runs[projectID]; ok && run.UserID == userID {
		delete(rn.runs, projectID)
	}
}

func (rn *Runner) lookup(userID int64, projectID string) (*Run, bool) {
	rn.mu.Lock()
	defer rn.mu.Unlock()
	run, ok := rn.runs[projectID]
	if !ok || run.UserID != userID {
		return nil, false
	}
	return run, true
}

// Stop cancels every active run and waits for them to exit.
func (rn *Runner) Stop() {
	rn.cancel()
	rn.wg.Wait()
}
