package db

import (
	"context"
	"time"

	"github.com/video-stream/editor/internal/db/models"
	"github.com/video-stream/editor/internal/store"
)

func (d *Database) CreateMediaFile(ctx context.Context, f *models.MediaFile) error {
	if f.CreatedAt.IsZero() {
		f.CreatedAt = time.Now().UTC()
	}
	if f.Metadata == nil {
		f.Metadata = models.Metadata{}
	}
	err := d.db.QueryRowContext(ctx, d.rebind(`
		INSERT INTO media_files (user_id, name, type, file_name, file_size, duration, metadata, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?) RETURNING id`),
		f.UserID, f.Name, string(f.Type), f.FileName, f.FileSize, f.Duration, f.Metadata, f.CreatedAt,
	).Scan(&f.ID)
	return mapError(err)
}

// ListMediaFiles returns the user's files, newest first.
func (d *Database) ListMediaFiles(ctx context.Context, userID int64) ([]*models.MediaFile, error) {
	rows, err := d.db.QueryContext(ctx, d.rebind(`
		SELECT id, user_id, name, type, file_name, file_size, duration, metadata, created_at
		FROM media_files WHERE user_id = ? ORDER BY created_at DESC, id DESC`),
		userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	files := []*models.MediaFile{}
	for rows.Next() {
		f := &models.MediaFile{}
		var mediaType string
		if err := rows.Scan(&f.ID, &f.UserID, &f.Name, &mediaType, &f.FileName, &f.FileSize,
			&f.Duration, &f.Metadata, &f.CreatedAt); err != nil {
			return nil, err
		}
		f.Type = models.MediaType(mediaType)
		files = append(files, f)
	}
	return files, rows.Err()
}

// DeleteMediaFile removes a file owned by userID. A file owned by someone else
// is reported exactly like a missing one.
func (d *Database) DeleteMediaFile(ctx context.Context, userID, id int64) error {
	res, err := d.db.ExecContext(ctx, d.rebind("DELETE FROM media_files WHERE id = ? AND user_id = ?"), id, userID)
	if err != nil {
		return err
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
