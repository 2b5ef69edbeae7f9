package history

import (
	"context"
	"database/sql"
	"time"
)

type Repository interface {
	CreateExport(ctx context.Context, e *Export) error
	GetExport(ctx context.Context, id string) (*Export, error)
	ListExports(ctx context.Context, limit int) ([]*Export, error)
	FinishExport(ctx context.Context, id, status, errorMsg string, bytes, elapsedMs int64) error
}

type SQLiteRepository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) CreateExport(ctx context.Context, e *Export) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO exports (id, url, platform, start_s, end_s, format, status, error, bytes, elapsed_ms, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, e.ID, e.URL, e.Platform, e.StartSec, e.EndSec, e.Format, e.Status, nullString(e.Error), e.Bytes, e.ElapsedMs,
		e.CreatedAt.Format(time.RFC3339), e.UpdatedAt.Format(time.RFC3339))
	return err
}

func (r *SQLiteRepository) GetExport(ctx context.Context, id string) (*Export, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, url, platform, start_s, end_s, format, status, error, bytes, elapsed_ms, created_at, updated_at
		FROM exports WHERE id = ?
	`, id)
	return scanExport(row)
}

func (r *SQLiteRepository) ListExports(ctx context.Context, limit int) ([]*Export, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, url, platform, start_s, end_s, format, status, error, bytes, elapsed_ms, created_at, updated_at
		FROM exports ORDER BY created_at DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var exports []*Export
	for rows.Next() {
		e, err := scanExportRows(rows)
		if err != nil {
			return nil, err
		}
		exports = append(exports, e)
	}
	return exports, rows.Err()
}

func (r *SQLiteRepository) FinishExport(ctx context.Context, id, status, errorMsg string, bytes, elapsedMs int64) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE exports SET status = ?, error = ?, bytes = ?, elapsed_ms = ?, updated_at = ?
		WHERE id = ?
	`, status, nullString(errorMsg), bytes, elapsedMs, time.Now().UTC().Format(time.RFC3339), id)
	return err
}

func scanExport(row *sql.Row) (*Export, error) {
	var e Export
	var errMsg sql.NullString
	var createdAt, updatedAt string

	err := row.Scan(&e.ID, &e.URL, &e.Platform, &e.StartSec, &e.EndSec, &e.Format, &e.Status, &errMsg, &e.Bytes, &e.ElapsedMs, &createdAt, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	e.Error = errMsg.String
	e.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	e.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
	return &e, nil
}

func scanExportRows(rows *sql.Rows) (*Export, error) {
	var e Export
	var errMsg sql.NullString
	var createdAt, updatedAt string

	err := rows.Scan(&e.ID, &e.URL, &e.Platform, &e.StartSec, &e.EndSec, &e.Format, &e.Status, &errMsg, &e.Bytes, &e.ElapsedMs, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}

	e.Error = errMsg.String
	e.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	e.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
	return &e, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
