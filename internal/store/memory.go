package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/video-stream/editor/internal/db/models"
)

// MemoryStore keeps everything in process memory. Data is lost on restart;
// it exists for development and tests.
type MemoryStore struct {
	mu         sync.RWMutex
	users      map[int64]*models.User
	sessions   map[string]*models.Session
	mediaFiles map[int64]*models.MediaFile
	projects   map[string]*models.VideoProject
	nextUserID int64
	nextFileID int64
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:      make(map[int64]*models.User),
		sessions:   make(map[string]*models.Session),
		mediaFiles: make(map[int64]*models.MediaFile),
		projects:   make(map[string]*models.VideoProject),
	}
}

func (m *MemoryStore) CreateUser(ctx context.Context, u *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, existing := range m.users {
		if existing.Username == u.Username {
			return ErrConflict
		}
		if u.Email != nil && existing.Email != nil && *existing.Email == *u.Email {
			return ErrConflict
		}
	}

	m.nextUserID++
	u.ID = m.nextUserID
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}
	cp := *u
	m.users[u.ID] = &cp
	return nil
}

func (m *MemoryStore) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *MemoryStore) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, u := range m.users {
		if u.Username == username {
			cp := *u
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (m *MemoryStore) CreateSession(ctx context.Context, s *models.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *s
	m.sessions[s.ID] = &cp
	return nil
}

func (m *MemoryStore) GetSession(ctx context.Context, id string) (*models.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *s
	return &cp, nil
}

func (m *MemoryStore) DeleteSession(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
	return nil
}

func (m *MemoryStore) DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for id, s := range m.sessions {
		if s.Expired(now) {
			delete(m.sessions, id)
			n++
		}
	}
	return n, nil
}

func (m *MemoryStore) CreateMediaFile(ctx context.Context, f *models.MediaFile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[f.UserID]; !ok {
		return ErrNotFound
	}
	m.nextFileID++
	f.ID = m.nextFileID
	if f.CreatedAt.IsZero() {
		f.CreatedAt = time.Now().UTC()
	}
	if f.Metadata == nil {
		f.Metadata = models.Metadata{}
	}
	cp := *f
	m.mediaFiles[f.ID] = &cp
	return nil
}

func (m *MemoryStore) ListMediaFiles(ctx context.Context, userID int64) ([]*models.MediaFile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	files := []*models.MediaFile{}
	for _, f := range m.mediaFiles {
		if f.UserID == userID {
			cp := *f
			files = append(files, &cp)
		}
	}
	sort.Slice(files, func(i, j int) bool {
		if !files[i].CreatedAt.Equal(files[j].CreatedAt) {
			return files[i].CreatedAt.After(files[j].CreatedAt)
		}
		return files[i].ID > files[j].ID
	})
	return files, nil
}

func (m *MemoryStore) DeleteMediaFile(ctx context.Context, userID, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	f, ok := m.mediaFiles[id]
	if !ok || f.UserID != userID {
		return ErrNotFound
	}
	delete(m.mediaFiles, id)
	return nil
}

func (m *MemoryStore) CreateProject(ctx context.Context, p *models.VideoProject) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[p.UserID]; !ok {
		return ErrNotFound
	}
	if _, exists := m.projects[p.ID]; exists {
		return ErrConflict
	}
	m.projects[p.ID] = p.Clone()
	return nil
}

func (m *MemoryStore) GetProject(ctx context.Context, userID int64, id string) (*models.VideoProject, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.projects[id]
	if !ok || p.UserID != userID {
		return nil, ErrNotFound
	}
	return p.Clone(), nil
}

func (m *MemoryStore) ListProjects(ctx context.Context, userID int64) ([]*models.VideoProject, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	projects := []*models.VideoProject{}
	for _, p := range m.projects {
		if p.UserID == userID {
			projects = append(projects, p.Clone())
		}
	}
	sort.Slice(projects, func(i, j int) bool {
		if !projects[i].CreatedAt.Equal(projects[j].CreatedAt) {
			return projects[i].CreatedAt.After(projects[j].CreatedAt)
		}
		return projects[i].ID > projects[j].ID
	})
	return projects, nil
}

func (m *MemoryStore) UpdateProject(ctx context.Context, p *models.VideoProject) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	existing, ok := m.projects[p.ID]
	if !ok || existing.UserID != p.UserID {
		return ErrNotFound
	}
	updated := p.Clone()
	updated.CreatedAt = existing.CreatedAt
	m.projects[p.ID] = updated
	return nil
}

func (m *MemoryStore) DeleteProject(ctx context.Context, userID int64, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.projects[id]
	if !ok || p.UserID != userID {
		return ErrNotFound
	}
	delete(m.projects, id)
	return nil
}

func (m *MemoryStore) Ping(ctx context.Context) error { return nil }

func (m *MemoryStore) Close() error { return nil }

var _ Store = (*MemoryStore)(nil)
