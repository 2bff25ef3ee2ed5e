// Package storetest holds the behavioural contract every store.Store
// implementation must satisfy. Back-end packages call Run from their tests.
package storetest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/video-stream/editor/internal/db/models"
	"github.com/video-stream/editor/internal/store"
)

// Factory returns a fresh, empty store for one subtest.
type Factory func(t *testing.T) store.Store

func Run(t *testing.T, newStore Factory) {
	tests := []struct {
		name string
		fn   func(t *testing.T, s store.Store)
	}{
		{"UserRoundTrip", testUserRoundTrip},
		{"DuplicateUsername", testDuplicateUsername},
		{"DuplicateEmail", testDuplicateEmail},
		{"SessionLifecycle", testSessionLifecycle},
		{"ExpiredSessionsSwept", testExpiredSessionsSwept},
		{"MediaFileOwnership", testMediaFileOwnership},
		{"ProjectRoundTrip", testProjectRoundTrip},
		{"ProjectListOrder", testProjectListOrder},
		{"ProjectOwnerScoping", testProjectOwnerScoping},
		{"ProjectUpdateKeepsCreatedAt", testProjectUpdateKeepsCreatedAt},
		{"ProjectDeleteThenGet", testProjectDeleteThenGet},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newStore(t)
			defer s.Close()
			tt.fn(t, s)
		})
	}
}

func mustUser(t *testing.T, s store.Store, username string) *models.User {
	t.Helper()
	u := &models.User{Username: username, Password: "hash"}
	if err := s.CreateUser(context.Background(), u); err != nil {
		t.Fatalf("CreateUser(%s) error = %v", username, err)
	}
	if u.ID == 0 {
		t.Fatalf("CreateUser(%s) did not assign an ID", username)
	}
	return u
}

func newProject(userID int64, name string, createdAt time.Time) *models.VideoProject {
	return &models.VideoProject{
		ID:               uuid.NewString(),
		UserID:           userID,
		Name:             name,
		OriginalFileName: name + ".mp4",
		Duration:         347,
		Transcript:       models.Transcript{},
		Cuts:             models.Cuts{},
		Settings:         models.DefaultSettings(),
		Status:           models.StatusUploading,
		CreatedAt:        createdAt,
		UpdatedAt:        createdAt,
	}
}

func testUserRoundTrip(t *testing.T, s store.Store) {
	ctx := context.Background()
	email := "ana@example.com"
	u := &models.User{Username: "ana", Email: &email, Password: "hash"}
	if err := s.CreateUser(ctx, u); err != nil {
		t.Fatalf("CreateUser() error = %v", err)
	}

	byName, err := s.GetUserByUsername(ctx, "ana")
	if err != nil {
		t.Fatalf("GetUserByUsername() error = %v", err)
	}
	if byName.ID != u.ID || byName.Password != "hash" {
		t.Errorf("GetUserByUsername() = %+v, want id %d with stored hash", byName, u.ID)
	}
	if byName.Email == nil || *byName.Email != email {
		t.Errorf("Email = %v, want %s", byName.Email, email)
	}

	byID, err := s.GetUserByID(ctx, u.ID)
	if err != nil {
		t.Fatalf("GetUserByID() error = %v", err)
	}
	if byID.Username != "ana" {
		t.Errorf("Username = %q, want ana", byID.Username)
	}

	if _, err := s.GetUserByUsername(ctx, "nobody"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("GetUserByUsername(nobody) error = %v, want ErrNotFound", err)
	}
	if _, err := s.GetUserByID(ctx, u.ID+100); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("GetUserByID(missing) error = %v, want ErrNotFound", err)
	}
}

func testDuplicateUsername(t *testing.T, s store.Store) {
	mustUser(t, s, "dup")
	err := s.CreateUser(context.Background(), &models.User{Username: "dup", Password: "x"})
	if !errors.Is(err, store.ErrConflict) {
		t.Fatalf("second CreateUser() error = %v, want ErrConflict", err)
	}
}

func testDuplicateEmail(t *testing.T, s store.Store) {
	ctx := context.Background()
	email := "same@example.com"
	if err := s.CreateUser(ctx, &models.User{Username: "a", Email: &email, Password: "x"}); err != nil {
		t.Fatalf("CreateUser(a) error = %v", err)
	}
	err := s.CreateUser(ctx, &models.User{Username: "b", Email: &email, Password: "x"})
	if !errors.Is(err, store.ErrConflict) {
		t.Fatalf("CreateUser(b) error = %v, want ErrConflict", err)
	}
	// Users without email never conflict with each other.
	if err := s.CreateUser(ctx, &models.User{Username: "c", Password: "x"}); err != nil {
		t.Fatalf("CreateUser(c) error = %v", err)
	}
	if err := s.CreateUser(ctx, &models.User{Username: "d", Password: "x"}); err != nil {
		t.Fatalf("CreateUser(d) error = %v", err)
	}
}

func testSessionLifecycle(t *testing.T, s store.Store) {
	ctx := context.Background()
	u := mustUser(t, s, "sess")
	now := time.Now().UTC().Truncate(time.Second)
	sess := &models.Session{ID: uuid.NewString(), UserID: u.ID, CreatedAt: now, ExpiresAt: now.Add(24 * time.Hour)}

	if err := s.CreateSession(ctx, sess); err != nil {
		t.Fatalf("CreateSession() error = %v", err)
	}
	got, err := s.GetSession(ctx, sess.ID)
	if err != nil {
		t.Fatalf("GetSession() error = %v", err)
	}
	if got.UserID != u.ID || !got.ExpiresAt.Equal(sess.ExpiresAt) {
		t.Errorf("GetSession() = %+v, want user %d expiring %s", got, u.ID, sess.ExpiresAt)
	}

	if err := s.DeleteSession(ctx, sess.ID); err != nil {
		t.Fatalf("DeleteSession() error = %v", err)
	}
	if _, err := s.GetSession(ctx, sess.ID); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("GetSession() after delete error = %v, want ErrNotFound", err)
	}
	// Deleting again is not an error.
	if err := s.DeleteSession(ctx, sess.ID); err != nil {
		t.Errorf("second DeleteSession() error = %v", err)
	}
}

func testExpiredSessionsSwept(t *testing.T, s store.Store) {
	ctx := context.Background()
	u := mustUser(t, s, "sweep")
	now := time.Now().UTC().Truncate(time.Second)

	live := &models.Session{ID: uuid.NewString(), UserID: u.ID, CreatedAt: now, ExpiresAt: now.Add(time.Hour)}
	dead := &models.Session{ID: uuid.NewString(), UserID: u.ID, CreatedAt: now.Add(-2 * time.Hour), ExpiresAt: now.Add(-time.Hour)}
	for _, sess := range []*models.Session{live, dead} {
		if err := s.CreateSession(ctx, sess); err != nil {
			t.Fatalf("CreateSession() error = %v", err)
		}
	}

	n, err := s.DeleteExpiredSessions(ctx, now)
	if err != nil {
		t.Fatalf("DeleteExpiredSessions() error = %v", err)
	}
	if n != 1 {
		t.Errorf("DeleteExpiredSessions() removed %d, want 1", n)
	}
	if _, err := s.GetSession(ctx, live.ID); err != nil {
		t.Errorf("live session missing after sweep: %v", err)
	}
	if _, err := s.GetSession(ctx, dead.ID); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expired session still present: %v", err)
	}
}

func testMediaFileOwnership(t *testing.T, s store.Store) {
	ctx := context.Background()
	owner := mustUser(t, s, "owner")
	other := mustUser(t, s, "other")

	dur := 12.5
	f := &models.MediaFile{
		UserID:   owner.ID,
		Name:     "intro",
		Type:     models.MediaVideo,
		FileName: "intro.mp4",
		FileSize: 1024,
		Duration: &dur,
		Metadata: models.Metadata{"codec": "h264"},
	}
	if err := s.CreateMediaFile(ctx, f); err != nil {
		t.Fatalf("CreateMediaFile() error = %v", err)
	}
	if f.ID == 0 {
		t.Fatal("CreateMediaFile() did not assign an ID")
	}

	if err := s.DeleteMediaFile(ctx, other.ID, f.ID); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("DeleteMediaFile(other) error = %v, want ErrNotFound", err)
	}

	files, err := s.ListMediaFiles(ctx, owner.ID)
	if err != nil {
		t.Fatalf("ListMediaFiles() error = %v", err)
	}
	if len(files) != 1 {
		t.Fatalf("ListMediaFiles() returned %d files, want 1 (file must survive foreign delete)", len(files))
	}
	if files[0].Metadata["codec"] != "h264" {
		t.Errorf("Metadata = %v, want codec=h264", files[0].Metadata)
	}
	if files[0].Duration == nil || *files[0].Duration != dur {
		t.Errorf("Duration = %v, want %v", files[0].Duration, dur)
	}

	otherFiles, err := s.ListMediaFiles(ctx, other.ID)
	if err != nil {
		t.Fatalf("ListMediaFiles(other) error = %v", err)
	}
	if len(otherFiles) != 0 {
		t.Errorf("ListMediaFiles(other) returned %d files, want 0", len(otherFiles))
	}

	if err := s.DeleteMediaFile(ctx, owner.ID, f.ID); err != nil {
		t.Fatalf("DeleteMediaFile(owner) error = %v", err)
	}
	if err := s.DeleteMediaFile(ctx, owner.ID, f.ID); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("second DeleteMediaFile() error = %v, want ErrNotFound", err)
	}
}

func testProjectRoundTrip(t *testing.T, s store.Store) {
	ctx := context.Background()
	u := mustUser(t, s, "maker")
	now := time.Now().UTC().Truncate(time.Microsecond)
	conf := 0.93
	p := newProject(u.ID, "demo", now)
	p.Transcript = models.Transcript{
		{Start: 0, End: 0.4, Text: "um", IsFiller: true},
		{Start: 0.4, End: 1.1, Text: "hello", Confidence: &conf},
	}
	p.Cuts = models.Cuts{{Start: 9.5, End: 11.2, Type: models.CutSilence}}

	if err := s.CreateProject(ctx, p); err != nil {
		t.Fatalf("CreateProject() error = %v", err)
	}
	got, err := s.GetProject(ctx, u.ID, p.ID)
	if err != nil {
		t.Fatalf("GetProject() error = %v", err)
	}
	if got.Name != "demo" || got.Duration != 347 || got.Status != models.StatusUploading {
		t.Errorf("GetProject() = %+v", got)
	}
	if len(got.Transcript) != 2 || !got.Transcript[0].IsFiller || got.Transcript[1].Confidence == nil {
		t.Errorf("Transcript = %+v", got.Transcript)
	}
	if len(got.Cuts) != 1 || got.Cuts[0].Type != models.CutSilence {
		t.Errorf("Cuts = %+v", got.Cuts)
	}
	if got.Settings != models.DefaultSettings() {
		t.Errorf("Settings = %+v, want defaults", got.Settings)
	}
	if !got.CreatedAt.Equal(now) {
		t.Errorf("CreatedAt = %s, want %s", got.CreatedAt, now)
	}
}

func testProjectListOrder(t *testing.T, s store.Store) {
	ctx := context.Background()
	u := mustUser(t, s, "lister")
	base := time.Now().UTC().Truncate(time.Microsecond)
	names := []string{"first", "second", "third"}
	for i, name := range names {
		if err := s.CreateProject(ctx, newProject(u.ID, name, base.Add(time.Duration(i)*time.Second))); err != nil {
			t.Fatalf("CreateProject(%s) error = %v", name, err)
		}
	}

	list, err := s.ListProjects(ctx, u.ID)
	if err != nil {
		t.Fatalf("ListProjects() error = %v", err)
	}
	if len(list) != 3 {
		t.Fatalf("ListProjects() returned %d, want 3", len(list))
	}
	want := []string{"third", "second", "first"}
	for i, p := range list {
		if p.Name != want[i] {
			t.Errorf("list[%d] = %s, want %s", i, p.Name, want[i])
		}
	}
}

func testProjectOwnerScoping(t *testing.T, s store.Store) {
	ctx := context.Background()
	owner := mustUser(t, s, "p-owner")
	other := mustUser(t, s, "p-other")
	p := newProject(owner.ID, "private", time.Now().UTC().Truncate(time.Microsecond))
	if err := s.CreateProject(ctx, p); err != nil {
		t.Fatalf("CreateProject() error = %v", err)
	}

	if _, err := s.GetProject(ctx, other.ID, p.ID); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("GetProject(other) error = %v, want ErrNotFound", err)
	}
	list, err := s.ListProjects(ctx, other.ID)
	if err != nil {
		t.Fatalf("ListProjects(other) error = %v", err)
	}
	if len(list) != 0 {
		t.Errorf("ListProjects(other) returned %d, want 0", len(list))
	}

	hijack := p.Clone()
	hijack.UserID = other.ID
	hijack.Name = "stolen"
	if err := s.UpdateProject(ctx, hijack); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("UpdateProject(other) error = %v, want ErrNotFound", err)
	}
	if err := s.DeleteProject(ctx, other.ID, p.ID); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("DeleteProject(other) error = %v, want ErrNotFound", err)
	}

	got, err := s.GetProject(ctx, owner.ID, p.ID)
	if err != nil {
		t.Fatalf("GetProject(owner) error = %v", err)
	}
	if got.Name != "private" {
		t.Errorf("Name = %q after foreign update, want private", got.Name)
	}
}

func testProjectUpdateKeepsCreatedAt(t *testing.T, s store.Store) {
	ctx := context.Background()
	u := mustUser(t, s, "updater")
	created := time.Now().UTC().Truncate(time.Microsecond)
	p := newProject(u.ID, "before", created)
	if err := s.CreateProject(ctx, p); err != nil {
		t.Fatalf("CreateProject() error = %v", err)
	}

	upd := p.Clone()
	upd.Name = "after"
	upd.Status = models.StatusReady
	upd.CreatedAt = created.Add(time.Hour)
	upd.UpdatedAt = created.Add(time.Minute)
	upd.Transcript = models.Transcript{{Start: 0, End: 1, Text: "hi", IsDeleted: true}}
	if err := s.UpdateProject(ctx, upd); err != nil {
		t.Fatalf("UpdateProject() error = %v", err)
	}

	got, err := s.GetProject(ctx, u.ID, p.ID)
	if err != nil {
		t.Fatalf("GetProject() error = %v", err)
	}
	if got.Name != "after" || got.Status != models.StatusReady {
		t.Errorf("GetProject() = %+v", got)
	}
	if !got.CreatedAt.Equal(created) {
		t.Errorf("CreatedAt = %s, want unchanged %s", got.CreatedAt, created)
	}
	if !got.UpdatedAt.Equal(upd.UpdatedAt) {
		t.Errorf("UpdatedAt = %s, want %s", got.UpdatedAt, upd.UpdatedAt)
	}
	if len(got.Transcript) != 1 || !got.Transcript[0].IsDeleted {
		t.Errorf("Transcript = %+v", got.Transcript)
	}

	missing := newProject(u.ID, "ghost", created)
	if err := s.UpdateProject(ctx, missing); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("UpdateProject(missing) error = %v, want ErrNotFound", err)
	}
}

func testProjectDeleteThenGet(t *testing.T, s store.Store) {
	ctx := context.Background()
	u := mustUser(t, s, "deleter")
	p := newProject(u.ID, "doomed", time.Now().UTC().Truncate(time.Microsecond))
	if err := s.CreateProject(ctx, p); err != nil {
		t.Fatalf("CreateProject() error = %v", err)
	}
	if err := s.DeleteProject(ctx, u.ID, p.ID); err != nil {
		t.Fatalf("DeleteProject() error = %v", err)
	}
	if _, err := s.GetProject(ctx, u.ID, p.ID); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("GetProject() after delete error = %v, want ErrNotFound", err)
	}
	if err := s.DeleteProject(ctx, u.ID, p.ID); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("second DeleteProject() error = %v, want ErrNotFound", err)
	}
}
