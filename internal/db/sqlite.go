package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"

	"github.com/video-stream/editor/internal/db/models"
	"github.com/video-stream/editor/internal/store"
)

// Dialect selects SQL flavour differences between SQLite and PostgreSQL.
type Dialect int

const (
	SQLite Dialect = iota
	Postgres
)

type Database struct {
	db      *sql.DB
	dialect Dialect
}

func NewSQLite(path string) (*Database, error) {
	sqlDB, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, err
	}
	// One writer keeps SQLite from returning SQLITE_BUSY under load.
	sqlDB.SetMaxOpenConns(1)
	d := &Database{db: sqlDB, dialect: SQLite}
	if err := d.migrate(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("migrate sqlite: %w", err)
	}
	return d, nil
}

func NewPostgres(dsn string) (*Database, error) {
	if dsn == "" {
		return nil, fmt.Errorf("database URL is required")
	}
	sqlDB, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	if err := sqlDB.Ping(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)
	d := &Database{db: sqlDB, dialect: Postgres}
	if err := d.migrate(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("migrate postgres: %w", err)
	}
	return d, nil
}

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS users (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	username TEXT UNIQUE NOT NULL,
	email TEXT UNIQUE,
	password TEXT NOT NULL,
	created_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS sessions (
	id TEXT PRIMARY KEY,
	user_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	created_at INTEGER NOT NULL,
	expires_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_sessions_expires ON sessions(expires_at);

CREATE TABLE IF NOT EXISTS media_files (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	user_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	name TEXT NOT NULL,
	type TEXT NOT NULL,
	file_name TEXT NOT NULL,
	file_size INTEGER NOT NULL,
	duration REAL,
	metadata TEXT NOT NULL DEFAULT '{}',
	created_at DATETIME NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_media_files_user ON media_files(user_id, created_at);

CREATE TABLE IF NOT EXISTS video_projects (
	id TEXT PRIMARY KEY,
	user_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	name TEXT NOT NULL,
	original_file_name TEXT NOT NULL,
	duration INTEGER NOT NULL,
	transcript TEXT NOT NULL DEFAULT '[]',
	cuts TEXT NOT NULL DEFAULT '[]',
	settings TEXT NOT NULL,
	status TEXT NOT NULL DEFAULT 'uploading',
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_video_projects_user ON video_projects(user_id, created_at);
`

const postgresSchema = `
CREATE TABLE IF NOT EXISTS users (
	id BIGSERIAL PRIMARY KEY,
	username TEXT UNIQUE NOT NULL,
	email TEXT UNIQUE,
	password TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS sessions (
	id TEXT PRIMARY KEY,
	user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	created_at BIGINT NOT NULL,
	expires_at BIGINT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_sessions_expires ON sessions(expires_at);

CREATE TABLE IF NOT EXISTS media_files (
	id BIGSERIAL PRIMARY KEY,
	user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	name TEXT NOT NULL,
	type TEXT NOT NULL,
	file_name TEXT NOT NULL,
	file_size BIGINT NOT NULL,
	duration DOUBLE PRECISION,
	metadata JSONB NOT NULL DEFAULT '{}',
	created_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_media_files_user ON media_files(user_id, created_at);

CREATE TABLE IF NOT EXISTS video_projects (
	id TEXT PRIMARY KEY,
	user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	name TEXT NOT NULL,
	original_file_name TEXT NOT NULL,
	duration INTEGER NOT NULL,
	transcript JSONB NOT NULL DEFAULT '[]',
	cuts JSONB NOT NULL DEFAULT '[]',
	settings JSONB NOT NULL,
	status TEXT NOT NULL DEFAULT 'uploading',
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_video_projects_user ON video_projects(user_id, created_at);
`

func (d *Database) migrate() error {
	schema := sqliteSchema
	if d.dialect == Postgres {
		schema = postgresSchema
	}
	_, err := d.db.Exec(schema)
	return err
}

// rebind rewrites ? placeholders to $n for PostgreSQL.
func (d *Database) rebind(query string) string {
	if d.dialect != Postgres {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// mapError translates driver constraint errors into store sentinels.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return store.ErrNotFound
	}
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.ExtendedCode {
		case sqlite3.ErrConstraintUnique, sqlite3.ErrConstraintPrimaryKey:
			return fmt.Errorf("%w: %v", store.ErrConflict, err)
		case sqlite3.ErrConstraintForeignKey:
			return fmt.Errorf("%w: %v", store.ErrNotFound, err)
		}
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case "23505": // unique_violation
			return fmt.Errorf("%w: %v", store.ErrConflict, err)
		case "23503": // foreign_key_violation
			return fmt.Errorf("%w: %v", store.ErrNotFound, err)
		}
	}
	return err
}

func (d *Database) CreateUser(ctx context.Context, u *models.User) error {
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}
	err := d.db.QueryRowContext(ctx, d.rebind(
		"INSERT INTO users (username, email, password, created_at) VALUES (?, ?, ?, ?) RETURNING id"),
		u.Username, u.Email, u.Password, u.CreatedAt,
	).Scan(&u.ID)
	return mapError(err)
}

func (d *Database) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	u := &models.User{}
	err := d.db.QueryRowContext(ctx, d.rebind(
		"SELECT id, username, email, password, created_at FROM users WHERE username = ?"),
		username,
	).Scan(&u.ID, &u.Username, &u.Email, &u.Password, &u.CreatedAt)
	if err != nil {
		return nil, mapError(err)
	}
	return u, nil
}

func (d *Database) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	u := &models.User{}
	err := d.db.QueryRowContext(ctx, d.rebind(
		"SELECT id, username, email, password, created_at FROM users WHERE id = ?"),
		id,
	).Scan(&u.ID, &u.Username, &u.Email, &u.Password, &u.CreatedAt)
	if err != nil {
		return nil, mapError(err)
	}
	return u, nil
}

func (d *Database) Close() error {
	return d.db.Close()
}

func (d *Database) Ping(ctx context.Context) error {
	return d.db.PingContext(ctx)
}

// DB returns the underlying sql.DB.
func (d *Database) DB() *sql.DB {
	return d.db
}

var _ store.Store = (*Database)(nil)
