package pipeline

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/video-stream/editor/internal/db/models"
	"github.com/video-stream/editor/internal/project"
	"github.com/video-stream/editor/internal/store"
)

func newTestRunner(t *testing.T, stages Stages) (*Runner, *project.Service, *models.VideoProject) {
	t.Helper()
	log := logrus.New()
	log.SetOutput(io.Discard)

	st := store.NewMemoryStore()
	u := &models.User{Username: "owner", Password: "hash"}
	if err := st.CreateUser(context.Background(), u); err != nil {
		t.Fatal(err)
	}
	svc := project.NewService(st, log)
	d := 30
	p, err := svc.Create(context.Background(), u.ID, project.CreateInput{Name: "demo", OriginalFileName: "demo.mp4", Duration: &d})
	if err != nil {
		t.Fatal(err)
	}

	rn := NewRunner(New(stages, fastSchedule), svc, log)
	t.Cleanup(rn.Stop)
	return rn, svc, p
}

func waitDone(t *testing.T, run *Run) {
	t.Helper()
	select {
	case <-run.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("run did not finish")
	}
}

func TestRunner_CompletesAndPersists(t *testing.T) {
	rn, svc, p := newTestRunner(t, MockStages{})

	run, err := rn.Start(context.Background(), p.UserID, p)
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	waitDone(t, run)

	info, err := rn.Latest(p.UserID, p.ID)
	if err != nil {
		t.Fatal(err)
	}
	if info.Running || info.State.Step != models.StepReady || info.State.Progress != 100 {
		t.Errorf("latest = %+v", info)
	}

	stored, err := svc.Get(context.Background(), p.UserID, p.ID)
	if err != nil {
		t.Fatal(err)
	}
	if stored.Status != models.StatusReady {
		t.Errorf("status = %q, want ready", stored.Status)
	}
	if len(stored.Transcript) != 17 || len(stored.Cuts) != 5 {
		t.Errorf("stored transcript %d words, %d cuts", len(stored.Transcript), len(stored.Cuts))
	}
}

func TestRunner_SubscribeReplaysInOrder(t *testing.T) {
	rn, _, p := newTestRunner(t, MockStages{})
	if _, err := rn.Start(context.Background(), p.UserID, p); err != nil {
		t.Fatal(err)
	}
	ch, unsubscribe, err := rn.Subscribe(p.UserID, p.ID)
	if err != nil {
		t.Fatal(err)
	}
	defer unsubscribe()

	var progress []int
	timeout := time.After(5 * time.Second)
	for done := false; !done; {
		select {
		case s, ok := <-ch:
			if !ok {
				done = true
				break
			}
			progress = append(progress, s.Progress)
		case <-timeout:
			t.Fatal("timed out waiting for states")
		}
	}

	want := []int{0, 0, 40, 80, 100} // uploading, extracting, transcribing, cleaning, ready
	if len(progress) != len(want) {
		t.Fatalf("progress = %v, want %v", progress, want)
	}
	for i := range want {
		if progress[i] != want[i] {
			t.Errorf("progress = %v, want %v", progress, want)
			break
		}
	}
}

func TestRunner_OneRunPerProject(t *testing.T) {
	started := make(chan struct{})
	rn, svc, p := newTestRunner(t, blockingStages{started: started})

	if _, err := rn.Start(context.Background(), p.UserID, p); err != nil {
		t.Fatal(err)
	}
	<-started
	if _, err := rn.Start(context.Background(), p.UserID, p); !errors.Is(err, ErrAlreadyRunning) {
		t.Errorf("second Start() = %v, want ErrAlreadyRunning", err)
	}

	stored, _ := svc.Get(context.Background(), p.UserID, p.ID)
	if stored.Status != models.StatusProcessing {
		t.Errorf("status while running = %q, want processing", stored.Status)
	}

	if !rn.Cancel(p.UserID, p.ID) {
		t.Fatal("Cancel() = false")
	}
	info, _ := rn.Latest(p.UserID, p.ID)
	if info.Running {
		t.Error("run still active after cancel")
	}
	if rn.Cancel(p.UserID, p.ID) {
		t.Error("second Cancel() = true")
	}
}

func TestRunner_OwnerScoped(t *testing.T) {
	rn, _, p := newTestRunner(t, MockStages{})
	run, err := rn.Start(context.Background(), p.UserID, p)
	if err != nil {
		t.Fatal(err)
	}
	waitDone(t, run)

	other := p.UserID + 1
	if _, err := rn.Latest(other, p.ID); !errors.Is(err, ErrNoRun) {
		t.Errorf("Latest by other user = %v, want ErrNoRun", err)
	}
	if _, _, err := rn.Subscribe(other, p.ID); !errors.Is(err, ErrNoRun) {
		t.Errorf("Subscribe by other user = %v, want ErrNoRun", err)
	}
}

func TestRunner_StartUnknownProject(t *testing.T) {
	rn, _, p := newTestRunner(t, MockStages{})
	ghost := &models.VideoProject{ID: "missing"}
	if _, err := rn.Start(context.Background(), p.UserID, ghost); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("Start() = %v, want ErrNotFound", err)
	}
}
