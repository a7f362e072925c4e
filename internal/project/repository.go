package project

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/boostify/editor-agent/internal/timeline"
)

type Repository interface {
	CreateProject(ctx context.Context, p *Project) error
	GetProject(ctx context.Context, id string) (*Project, error)
	ListProjects(ctx context.Context) ([]*Project, error)
	UpdateProject(ctx context.Context, p *Project) error
	DeleteProject(ctx context.Context, id string) error
	SetLastExportURL(ctx context.Context, id, url string) error

	CreateExport(ctx context.Context, j *ExportJob) error
	GetExport(ctx context.Context, id string) (*ExportJob, error)
	ListExports(ctx context.Context, projectID string, limit int) ([]*ExportJob, error)
	ListActiveExports(ctx context.Context) ([]*ExportJob, error)
	UpdateExport(ctx context.Context, j *ExportJob) error
	DeleteExport(ctx context.Context, id string) error

	GetConfig(ctx context.Context, key string) (string, error)
	SetConfig(ctx context.Context, key, value string) error
}

type SQLiteRepository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) CreateProject(ctx context.Context, p *Project) error {
	session, err := encodeSession(p.Session)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO projects (id, name, aspect_ratio, audio_url, session, last_export_url, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, p.ID, p.Name, p.AspectRatio, nullString(p.AudioURL), session, nullString(p.LastExportURL),
		formatTime(p.CreatedAt), formatTime(p.UpdatedAt))
	return err
}

func (r *SQLiteRepository) GetProject(ctx context.Context, id string) (*Project, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, name, aspect_ratio, audio_url, session, last_export_url, created_at, updated_at
		FROM projects WHERE id = ?
	`, id)

	p, err := scanProject(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return p, err
}

func (r *SQLiteRepository) ListProjects(ctx context.Context) ([]*Project, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, aspect_ratio, audio_url, session, last_export_url, created_at, updated_at
		FROM projects ORDER BY updated_at DESC, id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var projects []*Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		projects = append(projects, p)
	}
	return projects, rows.Err()
}

func (r *SQLiteRepository) UpdateProject(ctx context.Context, p *Project) error {
	session, err := encodeSession(p.Session)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, `
		UPDATE projects
		SET name = ?, aspect_ratio = ?, audio_url = ?, session = ?, updated_at = ?
		WHERE id = ?
	`, p.Name, p.AspectRatio, nullString(p.AudioURL), session, formatTime(p.UpdatedAt), p.ID)
	return err
}

func (r *SQLiteRepository) DeleteProject(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, "DELETE FROM projects WHERE id = ?", id)
	return err
}

func (r *SQLiteRepository) SetLastExportURL(ctx context.Context, id, url string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE projects SET last_export_url = ?, updated_at = ? WHERE id = ?
	`, url, formatTime(time.Now()), id)
	return err
}

func (r *SQLiteRepository) CreateExport(ctx context.Context, j *ExportJob) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO export_jobs (id, project_id, remote_job_id, status, progress, download_url, error, format, width, height, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, j.ID, j.ProjectID, nullString(j.RemoteJobID), j.Status, j.Progress,
		nullString(j.DownloadURL), nullString(j.Error), j.Format, j.Width, j.Height,
		formatTime(j.CreatedAt), formatTime(j.UpdatedAt))
	return err
}

func (r *SQLiteRepository) DeleteExport(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, "DELETE FROM export_jobs WHERE id = ?", id)
	return err
}

func (r *SQLiteRepository) GetExport(ctx context.Context, id string) (*ExportJob, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, project_id, remote_job_id, status, progress, download_url, error, format, width, height, created_at, updated_at
		FROM export_jobs WHERE id = ?
	`, id)

	j, err := scanExport(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return j, err
}

func (r *SQLiteRepository) ListExports(ctx context.Context, projectID string, limit int) ([]*ExportJob, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, project_id, remote_job_id, status, progress, download_url, error, format, width, height, created_at, updated_at
		FROM export_jobs WHERE project_id = ? ORDER BY created_at DESC, rowid DESC LIMIT ?
	`, projectID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanExports(rows)
}

func (r *SQLiteRepository) ListActiveExports(ctx context.Context) ([]*ExportJob, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, project_id, remote_job_id, status, progress, download_url, error, format, width, height, created_at, updated_at
		FROM export_jobs WHERE status IN ('queued', 'rendering') ORDER BY created_at ASC, rowid ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanExports(rows)
}

func (r *SQLiteRepository) UpdateExport(ctx context.Context, j *ExportJob) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE export_jobs
		SET remote_job_id = ?, status = ?, progress = ?, download_url = ?, error = ?, updated_at = ?
		WHERE id = ?
	`, nullString(j.RemoteJobID), j.Status, j.Progress, nullString(j.DownloadURL), nullString(j.Error),
		formatTime(j.UpdatedAt), j.ID)
	return err
}

func (r *SQLiteRepository) GetConfig(ctx context.Context, key string) (string, error) {
	var value string
	err := r.db.QueryRowContext(ctx, "SELECT value FROM config WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	return value, err
}

func (r *SQLiteRepository) SetConfig(ctx context.Context, key, value string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO config (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, value)
	return err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanProject(row scanner) (*Project, error) {
	var p Project
	var audioURL, lastExportURL sql.NullString
	var session, createdAt, updatedAt string

	if err := row.Scan(&p.ID, &p.Name, &p.AspectRatio, &audioURL, &session, &lastExportURL, &createdAt, &updatedAt); err != nil {
		return nil, err
	}

	s := timeline.NewSession()
	if err := json.Unmarshal([]byte(session), s); err != nil {
		return nil, fmt.Errorf("decode session for project %s: %w", p.ID, err)
	}
	if s.Tracks == nil {
		s.Tracks = []timeline.Track{}
	}
	if s.Clips == nil {
		s.Clips = []timeline.Clip{}
	}

	p.Session = s
	p.AudioURL = audioURL.String
	p.LastExportURL = lastExportURL.String
	p.CreatedAt = parseTime(createdAt)
	p.UpdatedAt = parseTime(updatedAt)
	return &p, nil
}

func scanExport(row scanner) (*ExportJob, error) {
	var j ExportJob
	var remoteJobID, downloadURL, errMsg sql.NullString
	var createdAt, updatedAt string

	if err := row.Scan(&j.ID, &j.ProjectID, &remoteJobID, &j.Status, &j.Progress, &downloadURL, &errMsg,
		&j.Format, &j.Width, &j.Height, &createdAt, &updatedAt); err != nil {
		return nil, err
	}

	j.RemoteJobID = remoteJobID.String
	j.DownloadURL = downloadURL.String
	j.Error = errMsg.String
	j.CreatedAt = parseTime(createdAt)
	j.UpdatedAt = parseTime(updatedAt)
	return &j, nil
}

func scanExports(rows *sql.Rows) ([]*ExportJob, error) {
	var jobs []*ExportJob
	for rows.Next() {
		j, err := scanExport(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, j)
	}
	return jobs, rows.Err()
}

func encodeSession(s *timeline.Session) (string, error) {
	if s == nil {
		s = timeline.NewSession()
	}
	b, err := json.Marshal(s)
	if err != nil {
		return "", fmt.Errorf("encode session: %w", err)
	}
	return string(b), nil
}

// timeLayout is fixed width so stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
