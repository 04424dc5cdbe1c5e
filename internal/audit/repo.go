package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

const defaultLimit = 20

// SaveRow is one recorded catalog replace.
type SaveRow struct {
	ID        int64     `json:"id"`
	Checksum  string    `json:"checksum"`
	AppCount  int       `json:"app_count"`
	AppIDs    []string  `json:"app_ids"`
	Actor     string    `json:"actor"`
	CreatedAt time.Time `json:"created_at"`
}

// UploadRow is one recorded icon upload.
type UploadRow struct {
	Path      string    `json:"path"`
	AppID     string    `json:"app_id"`
	Filename  string    `json:"filename"`
	Checksum  string    `json:"checksum"`
	Size      int64     `json:"size"`
	Actor     string    `json:"actor"`
	CreatedAt time.Time `json:"created_at"`
}

// Log is the subset of *DB the service layer depends on.
type Log interface {
	RecordSave(ctx context.Context, r SaveRow) error
	RecordUpload(ctx context.Context, r UploadRow) error
	RecentSaves(ctx context.Context, limit int) ([]SaveRow, error)
	Uploads(ctx context.Context, appID string) ([]UploadRow, error)
}

var _ Log = (*DB)(nil)

// RecordSave appends a save entry.
func (db *DB) RecordSave(ctx context.Context, r SaveRow) error {
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}
	if r.AppIDs == nil {
		r.AppIDs = []string{}
	}
	ids, _ := json.Marshal(r.AppIDs)
	_, err := db.conn.ExecContext(ctx, `
		INSERT INTO saves (checksum, app_count, app_ids, actor, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, r.Checksum, r.AppCount, string(ids), r.Actor, r.CreatedAt)
	if err != nil {
		return fmt.Errorf("audit: record save: %w", err)
	}
	return nil
}

// RecordUpload inserts an upload entry. Re-uploading identical bytes for the
// same app resolves to the same path and refreshes the row.
func (db *DB) RecordUpload(ctx context.Context, r UploadRow) error {
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}
	_, err := db.conn.ExecContext(ctx, `
		INSERT INTO uploads (path, app_id, filename, checksum, size, actor, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
			filename   = excluded.filename,
			actor      = excluded.actor,
			created_at = excluded.created_at
	`, r.Path, r.AppID, r.Filename, r.Checksum, r.Size, r.Actor, r.CreatedAt)
	if err != nil {
		return fmt.Errorf("audit: record upload: %w", err)
	}
	return nil
}

// RecentSaves returns the newest saves first.
func (db *DB) RecentSaves(ctx context.Context, limit int) ([]SaveRow, error) {
	if limit <= 0 {
		limit = defaultLimit
	}
	rows, err := db.conn.QueryContext(ctx, `
		SELECT id, checksum, app_count, app_ids, actor, created_at
		FROM saves
		ORDER BY id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("audit: recent saves: %w", err)
	}
	defer rows.Close()

	out := []SaveRow{}
	for rows.Next() {
		var r SaveRow
		var ids string
		if err := rows.Scan(&r.ID, &r.Checksum, &r.AppCount, &ids, &r.Actor, &r.CreatedAt); err != nil {
			return nil, err
		}
		_ = json.Unmarshal([]byte(ids), &r.AppIDs)
		if r.AppIDs == nil {
			r.AppIDs = []string{}
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Uploads returns uploads for appID, or all uploads when appID is empty,
// newest first.
func (db *DB) Uploads(ctx context.Context, appID string) ([]UploadRow, error) {
	rows, err := db.conn.QueryContext(ctx, `
		SELECT path, app_id, filename, checksum, size, actor, created_at
		FROM uploads
		WHERE ? = '' OR app_id = ?
		ORDER BY created_at DESC, path
	`, appID, appID)
	if err != nil {
		return nil, fmt.Errorf("audit: uploads: %w", err)
	}
	defer rows.Close()

	out := []UploadRow{}
	for rows.Next() {
		var r UploadRow
		if err := rows.Scan(&r.Path, &r.AppID, &r.Filename, &r.Checksum, &r.Size, &r.Actor, &r.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
