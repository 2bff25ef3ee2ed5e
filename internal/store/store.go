// Package store defines the persistence contract shared by the durable SQL
// database and the in-memory development store.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/video-stream/editor/internal/db/models"
)

var (
	// ErrNotFound is returned for missing records and for records owned by
	// another user; callers cannot tell the two apart.
	ErrNotFound = errors.New("not found")
	// ErrConflict is returned when a unique field (username, email) is taken.
	ErrConflict = errors.New("conflict")
)

// Store is implemented by db.Database and MemoryStore. Every project and
// media-file method is scoped to the owning user.
type Store interface {
	CreateUser(ctx context.Context, u *models.User) error
	GetUserByID(ctx context.Context, id int64) (*models.User, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)

	CreateSession(ctx context.Context, s *models.Session) error
	GetSession(ctx context.Context, id string) (*models.Session, error)
	DeleteSession(ctx context.Context, id string) error
	DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error)

	CreateMediaFile(ctx context.Context, f *models.MediaFile) error
	ListMediaFiles(ctx context.Context, userID int64) ([]*models.MediaFile, error)
	DeleteMediaFile(ctx context.Context, userID, id int64) error

	CreateProject(ctx context.Context, p *models.VideoProject) error
	GetProject(ctx context.Context, userID int64, id string) (*models.VideoProject, error)
	ListProjects(ctx context.Context, userID int64) ([]*models.VideoProject, error)
	UpdateProject(ctx context.Context, p *models.VideoProject) error
	DeleteProject(ctx context.Context, userID int64, id string) error

	Ping(ctx context.Context) error
	Close() error
}
