package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"math"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"github.com/video-stream/editor/internal/api/middleware"
	"github.com/video-stream/editor/internal/auth"
	"github.com/video-stream/editor/internal/config"
	"github.com/video-stream/editor/internal/db/models"
	"github.com/video-stream/editor/internal/editor"
	"github.com/video-stream/editor/internal/pipeline"
	"github.com/video-stream/editor/internal/project"
	"github.com/video-stream/editor/internal/store"
)

// countingStore records every call that reaches storage.
type countingStore struct {
	inner store.Store
	calls atomic.Int64
}

func (c *countingStore) hit() { c.calls.Add(1) }

func (c *countingStore) CreateUser(ctx context.Context, u *models.User) error {
	c.hit()
	return c.inner.CreateUser(ctx, u)
}
func (c *countingStore) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	c.hit()
	return c.inner.GetUserByID(ctx, id)
}
func (c *countingStore) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	c.hit()
	return c.inner.GetUserByUsername(ctx, username)
}
func (c *countingStore) CreateSession(ctx context.Context, s *models.Session) error {
	c.hit()
	return c.inner.CreateSession(ctx, s)
}
func (c *countingStore) GetSession(ctx context.Context, id string) (*models.Session, error) {
	c.hit()
	return c.inner.GetSession(ctx, id)
}
func (c *countingStore) DeleteSession(ctx context.Context, id string) error {
	c.hit()
	return c.inner.DeleteSession(ctx, id)
}
func (c *countingStore) DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error) {
	c.hit()
	return c.inner.DeleteExpiredSessions(ctx, now)
}
func (c *countingStore) CreateMediaFile(ctx context.Context, f *models.MediaFile) error {
	c.hit()
	return c.inner.CreateMediaFile(ctx, f)
}
func (c *countingStore) ListMediaFiles(ctx context.Context, userID int64) ([]*models.MediaFile, error) {
	c.hit()
	return c.inner.ListMediaFiles(ctx, userID)
}
func (c *countingStore) DeleteMediaFile(ctx context.Context, userID, id int64) error {
	c.hit()
	return c.inner.DeleteMediaFile(ctx, userID, id)
}
func (c *countingStore) CreateProject(ctx context.Context, p *models.VideoProject) error {
	c.hit()
	return c.inner.CreateProject(ctx, p)
}
func (c *countingStore) GetProject(ctx context.Context, userID int64, id string) (*models.VideoProject, error) {
	c.hit()
	return c.inner.GetProject(ctx, userID, id)
}
func (c *countingStore) ListProjects(ctx context.Context, userID int64) ([]*models.VideoProject, error) {
	c.hit()
	return c.inner.ListProjects(ctx, userID)
}
func (c *countingStore) UpdateProject(ctx context.Context, p *models.VideoProject) error {
	c.hit()
	return c.inner.UpdateProject(ctx, p)
}
func (c *countingStore) DeleteProject(ctx context.Context, userID int64, id string) error {
	c.hit()
	return c.inner.DeleteProject(ctx, userID, id)
}
func (c *countingStore) Ping(ctx context.Context) error {
	c.hit()
	return c.inner.Ping(ctx)
}
func (c *countingStore) Close() error { return c.inner.Close() }

type testEnv struct {
	server  *httptest.Server
	handler http.Handler
	store   *countingStore
}

func newTestEnv(t *testing.T, authLimit int) *testEnv {
	t.Helper()
	log := logrus.New()
	log.SetOutput(io.Discard)

	cfg := &config.Config{
		StorageBackend: config.BackendMemory,
		SessionTTL:     time.Hour,
		CORSOrigins:    []string{"*"},
	}
	st := &countingStore{inner: store.NewMemoryStore()}
	projects := project.NewService(st, log)
	runner := pipeline.NewRunner(pipeline.New(pipeline.MockStages{}, pipeline.DefaultSchedule.Scaled(0.001)), projects, log)
	limiter := middleware.NewRateLimiter(authLimit)

	router := NewRouter(Deps{
		Config:   cfg,
		Store:    st,
		Auth:     auth.NewManager(st, auth.NewTokenService("test-secret"), cfg.SessionTTL, log),
		Projects: projects,
		Runner:   runner,
		Limiter:  limiter,
		Log:      log,
	})
	srv := httptest.NewServer(router)
	t.Cleanup(func() {
		srv.Close()
		runner.Stop()
		limiter.Stop()
	})
	return &testEnv{server: srv, handler: router, store: st}
}

func (e *testEnv) client(t *testing.T) *http.Client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatal(err)
	}
	return &http.Client{Jar: jar}
}

func (e *testEnv) do(t *testing.T, c *http.Client, method, path string, body interface{}) (int, []byte) {
	t.Helper()
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatal(err)
		}
		rd = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, e.server.URL+path, rd)
	if err != nil {
		t.Fatal(err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()
	out, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, out
}

func (e *testEnv) register(t *testing.T, username, password string) *http.Client {
	t.Helper()
	c := e.client(t)
	status, body := e.do(t, c, "POST", "/api/auth/register", map[string]string{"username": username, "password": password})
	if status != http.StatusCreated {
		t.Fatalf("register %s: %d %s", username, status, body)
	}
	return c
}

func decode(t *testing.T, b []byte, v interface{}) {
	t.Helper()
	if err := json.Unmarshal(b, v); err != nil {
		t.Fatalf("decode %s: %v", b, err)
	}
}

func createProject(t *testing.T, e *testEnv, c *http.Client) models.VideoProject {
	t.Helper()
	status, body := e.do(t, c, "POST", "/api/video-projects", map[string]interface{}{
		"name": "Tutorial", "originalFileName": "tutorial.mp4", "duration": 347,
	})
	if status != http.StatusCreated {
		t.Fatalf("create project: %d %s", status, body)
	}
	var p models.VideoProject
	decode(t, body, &p)
	return p
}

func TestUnauthenticated_RejectedBeforeStorage(t *testing.T) {
	e := newTestEnv(t, 100)
	c := e.client(t)

	paths := []struct{ method, path string }{
		{"GET", "/api/video-projects"},
		{"GET", "/api/video-projects/abc"},
		{"DELETE", "/api/media-files/1"},
		{"GET", "/api/media-files"},
		{"GET", "/api/auth/me"},
	}
	for _, p := range paths {
		status, body := e.do(t, c, p.method, p.path, nil)
		if status != http.StatusUnauthorized {
			t.Errorf("%s %s = %d, want 401", p.method, p.path, status)
		}
		if !strings.Contains(string(body), `"error"`) {
			t.Errorf("%s %s body = %s", p.method, p.path, body)
		}
	}
	if n := e.store.calls.Load(); n != 0 {
		t.Errorf("store was called %d times", n)
	}
}

func TestRegister_DuplicateKeepsFirstSession(t *testing.T) {
	e := newTestEnv(t, 100)
	first := e.register(t, "ana", "password1")

	status, body := e.do(t, e.client(t), "POST", "/api/auth/register", map[string]string{"username": "ana", "password": "password2"})
	if status != http.StatusBadRequest {
		t.Fatalf("duplicate register = %d %s, want 400", status, body)
	}

	status, body = e.do(t, first, "GET", "/api/auth/me", nil)
	if status != http.StatusOK {
		t.Fatalf("me after duplicate = %d %s", status, body)
	}
	var me models.PublicUser
	decode(t, body, &me)
	if me.Username != "ana" {
		t.Errorf("me = %+v", me)
	}
	if strings.Contains(string(body), "password") {
		t.Errorf("profile leaks password field: %s", body)
	}
}

func TestRegister_Validation(t *testing.T) {
	e := newTestEnv(t, 100)
	status, body := e.do(t, e.client(t), "POST", "/api/auth/register", map[string]string{"username": "a", "password": "x"})
	if status != http.StatusBadRequest {
		t.Fatalf("status = %d", status)
	}
	var resp struct {
		Error  string   `json:"error"`
		Errors []string `json:"errors"`
	}
	decode(t, body, &resp)
	if len(resp.Errors) != 2 {
		t.Errorf("errors = %v, want 2 field errors", resp.Errors)
	}
}

func TestLogin_EnumerationResistant(t *testing.T) {
	e := newTestEnv(t, 100)
	e.register(t, "ana", "password1")

	s1, wrongPw := e.do(t, e.client(t), "POST", "/api/auth/login", map[string]string{"username": "ana", "password": "nope"})
	s2, noUser := e.do(t, e.client(t), "POST", "/api/auth/login", map[string]string{"username": "ghost", "password": "password1"})
	if s1 != http.StatusUnauthorized || s2 != http.StatusUnauthorized {
		t.Fatalf("statuses = %d / %d, want 401", s1, s2)
	}
	if !bytes.Equal(wrongPw, noUser) {
		t.Errorf("bodies differ: %s vs %s", wrongPw, noUser)
	}

	c := e.client(t)
	status, _ := e.do(t, c, "POST", "/api/auth/login", map[string]string{"username": "ana", "password": "password1"})
	if status != http.StatusOK {
		t.Fatalf("login = %d", status)
	}
	if status, _ := e.do(t, c, "GET", "/api/auth/me", nil); status != http.StatusOK {
		t.Errorf("me after login = %d", status)
	}
}

func TestLogout(t *testing.T) {
	e := newTestEnv(t, 100)
	c := e.register(t, "ana", "password1")

	if status, _ := e.do(t, c, "POST", "/api/auth/logout", nil); status != http.StatusOK {
		t.Fatalf("logout = %d", status)
	}
	if status, _ := e.do(t, c, "GET", "/api/auth/me", nil); status != http.StatusUnauthorized {
		t.Errorf("me after logout = %d, want 401", status)
	}
}

func TestMediaFiles_ForeignDeleteIsNotFound(t *testing.T) {
	e := newTestEnv(t, 100)
	owner := e.register(t, "ana", "password1")
	other := e.register(t, "bob", "password1")

	status, body := e.do(t, owner, "POST", "/api/media-files", map[string]interface{}{
		"name": "clip", "type": "video", "fileName": "clip.mp4", "fileSize": 1024,
	})
	if status != http.StatusCreated {
		t.Fatalf("create = %d %s", status, body)
	}
	var f models.MediaFile
	decode(t, body, &f)

	path := "/api/media-files/" + jsonNumber(f.ID)
	if status, _ := e.do(t, other, "DELETE", path, nil); status != http.StatusNotFound {
		t.Errorf("foreign delete = %d, want 404", status)
	}

	_, body = e.do(t, owner, "GET", "/api/media-files", nil)
	var files []models.MediaFile
	decode(t, body, &files)
	if len(files) != 1 {
		t.Fatalf("owner sees %d files, want 1", len(files))
	}

	if status, _ := e.do(t, owner, "DELETE", path, nil); status != http.StatusNoContent {
		t.Errorf("owner delete = %d, want 204", status)
	}
}

func TestMediaFiles_Validation(t *testing.T) {
	e := newTestEnv(t, 100)
	c := e.register(t, "ana", "password1")
	status, _ := e.do(t, c, "POST", "/api/media-files", map[string]interface{}{
		"name": "clip", "type": "document", "fileName": "clip.pdf", "fileSize": 1,
	})
	if status != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", status)
	}
}

func TestProjects_CRUD(t *testing.T) {
	e := newTestEnv(t, 100)
	c := e.register(t, "ana", "password1")

	p := createProject(t, e, c)
	if p.Status != models.StatusUploading || p.Settings != models.DefaultSettings() || len(p.Transcript) != 0 {
		t.Errorf("created = %+v", p)
	}

	status, body := e.do(t, c, "PATCH", "/api/video-projects/"+p.ID, map[string]interface{}{"name": "Renamed"})
	if status != http.StatusOK {
		t.Fatalf("patch = %d %s", status, body)
	}
	var updated models.VideoProject
	decode(t, body, &updated)
	if updated.Name != "Renamed" || updated.ID != p.ID || !updated.CreatedAt.Equal(p.CreatedAt) || !updated.UpdatedAt.After(p.UpdatedAt) {
		t.Errorf("updated = %+v", updated)
	}

	_, body = e.do(t, c, "GET", "/api/video-projects", nil)
	var list []models.VideoProject
	decode(t, body, &list)
	if len(list) != 1 {
		t.Errorf("list has %d projects", len(list))
	}

	other := e.register(t, "bob", "password1")
	if status, _ := e.do(t, other, "GET", "/api/video-projects/"+p.ID, nil); status != http.StatusNotFound {
		t.Errorf("foreign get = %d, want 404", status)
	}
	if status, _ := e.do(t, other, "PATCH", "/api/video-projects/"+p.ID, map[string]string{"name": "x"}); status != http.StatusNotFound {
		t.Errorf("foreign patch = %d, want 404", status)
	}

	if status, _ := e.do(t, c, "DELETE", "/api/video-projects/"+p.ID, nil); status != http.StatusNoContent {
		t.Errorf("delete = %d, want 204", status)
	}
	if status, _ := e.do(t, c, "GET", "/api/video-projects/"+p.ID, nil); status != http.StatusNotFound {
		t.Errorf("get after delete = %d, want 404", status)
	}
	if status, _ := e.do(t, c, "DELETE", "/api/video-projects/"+p.ID, nil); status != http.StatusNotFound {
		t.Errorf("second delete = %d, want 404", status)
	}
}

func TestProjects_CreateValidation(t *testing.T) {
	e := newTestEnv(t, 100)
	c := e.register(t, "ana", "password1")
	status, body := e.do(t, c, "POST", "/api/video-projects", map[string]interface{}{"originalFileName": "a.mp4"})
	if status != http.StatusBadRequest {
		t.Fatalf("status = %d", status)
	}
	if !strings.Contains(string(body), "'name'") || !strings.Contains(string(body), "'duration'") {
		t.Errorf("body = %s", body)
	}
}

func TestTranscriptEndpoints(t *testing.T) {
	e := newTestEnv(t, 100)
	c := e.register(t, "ana", "password1")
	p := createProject(t, e, c)
	base := "/api/video-projects/" + p.ID

	status, body := e.do(t, c, "PUT", base+"/transcript", []map[string]interface{}{
		{"start": 0, "end": 0.3, "text": "um", "isFiller": true},
		{"start": 0.3, "end": 0.8, "text": "hello"},
	})
	if status != http.StatusOK {
		t.Fatalf("replace = %d %s", status, body)
	}

	if status, body := e.do(t, c, "POST", base+"/transcript/toggle", map[string]int{"index": 0}); status != http.StatusOK {
		t.Fatalf("toggle = %d %s", status, body)
	}
	if status, _ := e.do(t, c, "POST", base+"/transcript/toggle", map[string]int{"index": 9}); status != http.StatusBadRequest {
		t.Errorf("toggle out of range = %d, want 400", status)
	}

	_, body = e.do(t, c, "GET", base+"/transcript/stats", nil)
	var st struct {
		DeletedFillers     int     `json:"deletedFillers"`
		RemainingWords     int     `json:"remainingWords"`
		EstimatedTimeSaved float64 `json:"estimatedTimeSaved"`
	}
	decode(t, body, &st)
	if st.DeletedFillers != 1 || st.RemainingWords != 1 || st.EstimatedTimeSaved != 0.8 {
		t.Errorf("stats = %+v", st)
	}

	_, body = e.do(t, c, "POST", base+"/cuts/reconcile", nil)
	var reconciled models.VideoProject
	decode(t, body, &reconciled)
	if len(reconciled.Cuts) != 1 || reconciled.Cuts[0].Type != models.CutFiller {
		t.Errorf("cuts = %+v", reconciled.Cuts)
	}

	_, body = e.do(t, c, "POST", base+"/transcript/restore", nil)
	var restored models.VideoProject
	decode(t, body, &restored)
	if restored.Transcript[0].IsDeleted {
		t.Error("restore left word deleted")
	}
}

func TestProcessing_WebsocketStream(t *testing.T) {
	e := newTestEnv(t, 100)
	c := e.register(t, "ana", "password1")
	p := createProject(t, e, c)
	base := "/api/video-projects/" + p.ID + "/processing"

	if status, _ := e.do(t, c, "GET", base, nil); status != http.StatusNotFound {
		t.Errorf("status before start = %d, want 404", status)
	}
	status, body := e.do(t, c, "POST", base, nil)
	if status != http.StatusAccepted {
		t.Fatalf("start = %d %s", status, body)
	}

	u, _ := url.Parse(e.server.URL)
	header := http.Header{}
	for _, ck := range c.Jar.Cookies(u) {
		header.Add("Cookie", ck.String())
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	conn, _, err := websocket.Dial(ctx, "ws"+strings.TrimPrefix(e.server.URL, "http")+base+"/ws", &websocket.DialOptions{HTTPHeader: header})
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "")

	var states []models.ProcessingState
	for {
		var s models.ProcessingState
		if err := wsjson.Read(ctx, conn, &s); err != nil {
			if websocket.CloseStatus(err) != websocket.StatusNormalClosure {
				t.Fatalf("read: %v", err)
			}
			break
		}
		states = append(states, s)
	}

	wantSteps := []models.ProcessingStep{models.StepUploading, models.StepExtracting, models.StepTranscribing, models.StepCleaning, models.StepReady}
	wantProgress := []int{0, 0, 40, 80, 100}
	if len(states) != len(wantSteps) {
		t.Fatalf("states = %+v", states)
	}
	for i := range states {
		if states[i].Step != wantSteps[i] || states[i].Progress != wantProgress[i] {
			t.Errorf("state %d = %s/%d, want %s/%d", i, states[i].Step, states[i].Progress, wantSteps[i], wantProgress[i])
		}
	}

	_, body = e.do(t, c, "GET", "/api/video-projects/"+p.ID, nil)
	var done models.VideoProject
	decode(t, body, &done)
	if done.Status != models.StatusReady || len(done.Transcript) != 17 {
		t.Errorf("project after processing: status %q, %d words", done.Status, len(done.Transcript))
	}
}

func TestProcessing_ForeignProject(t *testing.T) {
	e := newTestEnv(t, 100)
	owner := e.register(t, "ana", "password1")
	p := createProject(t, e, owner)
	other := e.register(t, "bob", "password1")

	if status, _ := e.do(t, other, "POST", "/api/video-projects/"+p.ID+"/processing", nil); status != http.StatusNotFound {
		t.Errorf("foreign start = %d, want 404", status)
	}
}

func TestAuthRateLimit(t *testing.T) {
	e := newTestEnv(t, 2)
	c := e.client(t)
	creds := map[string]string{"username": "ghost", "password": "whatever"}

	for i := 0; i < 2; i++ {
		if status, _ := e.do(t, c, "POST", "/api/auth/login", creds); status != http.StatusUnauthorized {
			t.Fatalf("attempt %d = %d, want 401", i, status)
		}
	}
	if status, _ := e.do(t, c, "POST", "/api/auth/login", creds); status != http.StatusTooManyRequests {
		t.Errorf("third attempt = %d, want 429", status)
	}
}

func TestHealth(t *testing.T) {
	e := newTestEnv(t, 100)
	status, body := e.do(t, e.client(t), "GET", "/api/health", nil)
	if status != http.StatusOK || !strings.Contains(string(body), `"memory"`) {
		t.Errorf("health = %d %s", status, body)
	}
}

func TestBodyLimit(t *testing.T) {
	e := newTestEnv(t, 100)
	c := e.register(t, "ana", "password1")
	u, _ := url.Parse(e.server.URL)

	huge, _ := json.Marshal(map[string]string{"name": strings.Repeat("x", middleware.DefaultMaxBody+10), "originalFileName": "a.mp4"})
	req := httptest.NewRequest("POST", "/api/video-projects", bytes.NewReader(huge))
	req.Header.Set("Content-Type", "application/json")
	for _, ck := range c.Jar.Cookies(u) {
		req.AddCookie(ck)
	}
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("status = %d, want 413", rec.Code)
	}
}

func jsonNumber(n int64) string {
	b, _ := json.Marshal(n)
	return string(b)
}

func TestRegister_MultibytePasswordOverBcryptLimit(t *testing.T) {
	e := newTestEnv(t, 100)
	// 40 characters pass the length rule but are 80 bytes.
	status, body := e.do(t, e.client(t), "POST", "/api/auth/register", map[string]string{
		"username": "ana", "password": strings.Repeat("é", 40),
	})
	if status != http.StatusBadRequest {
		t.Fatalf("status = %d %s, want 400", status, body)
	}
	if !strings.Contains(string(body), "'password'") {
		t.Errorf("body = %s", body)
	}
}

func TestReplaceTranscript_WarnsOnOrdering(t *testing.T) {
	e := newTestEnv(t, 100)
	c := e.register(t, "ana", "password1")
	p := createProject(t, e, c)

	status, body := e.do(t, c, "PUT", "/api/video-projects/"+p.ID+"/transcript", []map[string]interface{}{
		{"start": 1, "end": 2, "text": "second"},
		{"start": 0, "end": 0.5, "text": "first"},
	})
	if status != http.StatusOK {
		t.Fatalf("replace = %d %s", status, body)
	}
	var resp struct {
		models.VideoProject
		Warnings []string `json:"warnings"`
	}
	decode(t, body, &resp)
	if len(resp.Warnings) != 1 {
		t.Errorf("warnings = %v, want one ordering warning", resp.Warnings)
	}
	if len(resp.Transcript) != 2 || resp.Transcript[0].Text != "second" || resp.ID != p.ID {
		t.Errorf("transcript not stored as sent: %+v", resp.VideoProject)
	}

	status, body = e.do(t, c, "PUT", "/api/video-projects/"+p.ID+"/transcript", []map[string]interface{}{
		{"start": 0, "end": 0.5, "text": "first"},
	})
	if status != http.StatusOK || strings.Contains(string(body), "warnings") {
		t.Errorf("ordered replace = %d %s", status, body)
	}
}

func TestToggle_EmptyTranscriptIsNoOp(t *testing.T) {
	e := newTestEnv(t, 100)
	c := e.register(t, "ana", "password1")
	p := createProject(t, e, c)

	status, body := e.do(t, c, "POST", "/api/video-projects/"+p.ID+"/transcript/toggle", map[string]int{"index": 0})
	if status != http.StatusOK {
		t.Errorf("toggle on empty transcript = %d %s, want 200", status, body)
	}
}

func TestTimeline(t *testing.T) {
	e := newTestEnv(t, 100)
	c := e.register(t, "ana", "password1")
	p := createProject(t, e, c)
	base := "/api/video-projects/" + p.ID + "/timeline"

	status, body := e.do(t, c, "GET", base+"?zoom=100&t=1000&export=true", nil)
	if status != http.StatusOK {
		t.Fatalf("timeline = %d %s", status, body)
	}
	var v editor.View
	decode(t, body, &v)
	if v.Section != editor.SectionUpload {
		t.Errorf("section = %q, want upload", v.Section)
	}
	if v.Playback.CurrentTime != 347 || v.Playback.Zoom != 100 || v.Scale != 2 {
		t.Errorf("playback = %+v scale %v", v.Playback, v.Scale)
	}
	// 15s interval over 347s: 0, 15, ..., 345.
	if len(v.Ticks) != 24 || v.Ticks[1].Label != "0:15" {
		t.Errorf("ticks = %d, second %+v", len(v.Ticks), v.Ticks)
	}
	if v.DurationLabel != "5:47" || v.KeptDuration != 347 || !v.ShowExportModal {
		t.Errorf("view = %+v", v)
	}

	e.do(t, c, "PUT", "/api/video-projects/"+p.ID+"/transcript", []map[string]interface{}{
		{"start": 0, "end": 0.3, "text": "um", "isFiller": true},
		{"start": 0.3, "end": 0.8, "text": "hello"},
	})
	e.do(t, c, "POST", "/api/video-projects/"+p.ID+"/transcript/toggle", map[string]int{"index": 0})
	e.do(t, c, "POST", "/api/video-projects/"+p.ID+"/cuts/reconcile", nil)

	_, body = e.do(t, c, "GET", base+"?t=0.5", nil)
	decode(t, body, &v)
	if v.ActiveSegment != 1 || v.Stats.DeletedFillers != 1 {
		t.Errorf("active %d, stats %+v", v.ActiveSegment, v.Stats)
	}
	if math.Abs(v.KeptDuration-346.7) > 1e-9 {
		t.Errorf("KeptDuration = %v, want 346.7", v.KeptDuration)
	}

	if status, _ := e.do(t, c, "GET", base+"?zoom=abc", nil); status != http.StatusBadRequest {
		t.Errorf("bad zoom = %d, want 400", status)
	}
	other := e.register(t, "bob", "password1")
	if status, _ := e.do(t, other, "GET", base, nil); status != http.StatusNotFound {
		t.Errorf("foreign timeline = %d, want 404", status)
	}
}

func TestCORSOptions(t *testing.T) {
	if corsOptions([]string{"*"}).AllowCredentials {
		t.Error("wildcard origin allows credentials")
	}
	if corsOptions(nil).AllowCredentials {
		t.Error("default origin allows credentials")
	}
	opts := corsOptions([]string{"http://app.example"})
	if !opts.AllowCredentials || opts.AllowedOrigins[0] != "http://app.example" {
		t.Errorf("explicit origin options = %+v", opts)
	}
}

func TestCORSPreflight(t *testing.T) {
	e := newTestEnv(t, 100)
	req, _ := http.NewRequest("OPTIONS", e.server.URL+"/api/video-projects", nil)
	req.Header.Set("Origin", "http://app.example")
	req.Header.Set("Access-Control-Request-Method", "PATCH")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if got := resp.Header.Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("Allow-Origin = %q, want *", got)
	}
	if n := e.store.calls.Load(); n != 0 {
		t.Errorf("preflight reached storage %d times", n)
	}
}
