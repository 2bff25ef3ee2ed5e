package db

import (
	"context"
	"database/sql"

	"github.com/video-stream/editor/internal/db/models"
	"github.com/video-stream/editor/internal/store"
)

const projectColumns = `id, user_id, name, original_file_name, duration, transcript, cuts, settings, status, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanProject(row rowScanner) (*models.VideoProject, error) {
	p := &models.VideoProject{}
	var status string
	err := row.Scan(&p.ID, &p.UserID, &p.Name, &p.OriginalFileName, &p.Duration,
		&p.Transcript, &p.Cuts, &p.Settings, &status, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	p.Status = models.ProjectStatus(status)
	if p.Transcript == nil {
		p.Transcript = models.Transcript{}
	}
	if p.Cuts == nil {
		p.Cuts = models.Cuts{}
	}
	return p, nil
}

func (d *Database) CreateProject(ctx context.Context, p *models.VideoProject) error {
	_, err := d.db.ExecContext(ctx, d.rebind(`
		INSERT INTO video_projects (`+projectColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`),
		p.ID, p.UserID, p.Name, p.OriginalFileName, p.Duration,
		p.Transcript, p.Cuts, p.Settings, string(p.Status), p.CreatedAt, p.UpdatedAt,
	)
	return mapError(err)
}

func (d *Database) GetProject(ctx context.Context, userID int64, id string) (*models.VideoProject, error) {
	row := d.db.QueryRowContext(ctx, d.rebind(
		"SELECT "+projectColumns+" FROM video_projects WHERE id = ? AND user_id = ?"),
		id, userID,
	)
	p, err := scanProject(row)
	if err != nil {
		return nil, mapError(err)
	}
	return p, nil
}

// ListProjects returns the user's projects ordered by creation time, newest first.
func (d *Database) ListProjects(ctx context.Context, userID int64) ([]*models.VideoProject, error) {
	rows, err := d.db.QueryContext(ctx, d.rebind(
		"SELECT "+projectColumns+" FROM video_projects WHERE user_id = ? ORDER BY created_at DESC, id DESC"),
		userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	projects := []*models.VideoProject{}
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		projects = append(projects, p)
	}
	return projects, rows.Err()
}

// UpdateProject writes every mutable column of p. id, user_id and created_at
// are never rewritten; the row must belong to p.UserID.
func (d *Database) UpdateProject(ctx context.Context, p *models.VideoProject) error {
	res, err := d.db.ExecContext(ctx, d.rebind(`
		UPDATE video_projects
		SET name = ?, original_file_name = ?, duration = ?, transcript = ?, cuts = ?,
			settings = ?, status = ?, updated_at = ?
		WHERE id = ? AND user_id = ?`),
		p.Name, p.OriginalFileName, p.Duration, p.Transcript, p.Cuts,
		p.Settings, string(p.Status), p.UpdatedAt,
		p.ID, p.UserID,
	)
	return expectOneRow(res, err)
}

func (d *Database) DeleteProject(ctx context.Context, userID int64, id string) error {
	res, err := d.db.ExecContext(ctx, d.rebind("DELETE FROM video_projects WHERE id = ? AND user_id = ?"), id, userID)
	return expectOneRow(res, err)
}

func expectOneRow(res sql.Result, err error) error {
	if err != nil {
		return mapError(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}
