package storage

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/google/uuid"

	"otosu/internal/models"
)

// JobRepository はジョブのデータアクセス層
type JobRepository struct {
	db *DB
}

// NewJobRepository は新しいJobRepositoryを作成
func NewJobRepository(db *DB) *JobRepository {
	return &JobRepository{db: db}
}

const jobColumns = `id, url, video_id, title, thumbnail, duration, channel, views,
	quality, format, filename, status, progress, speed, eta, size, created_at, completed_at`

// Create は新しいジョブを作成
func (r *JobRepository) Create(ctx context.Context, job *models.Job) error {
	if job.ID == "" {
		job.ID = uuid.New().String()
	}
	if job.CreatedAt.IsZero() {
		job.CreatedAt = time.Now()
	}
	if job.Status == "" {
		job.Status = models.StatusPending
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO jobs (`+jobColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		job.ID, job.URL, job.VideoID, job.Title, job.Thumbnail, job.Duration,
		job.Channel, job.Views, string(job.Quality), string(job.Format),
		job.Filename, string(job.Status), job.Progress, job.Speed, job.ETA,
		job.Size, job.CreatedAt, job.CompletedAt,
	)
	return err
}

// GetByID はIDでジョブを取得。存在しない場合はnilを返す
func (r *JobRepository) GetByID(ctx context.Context, id string) (*models.Job, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+jobColumns+` FROM jobs WHERE id = ?`, id)
	job, err := scanJob(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return job, nil
}

// Update はジョブを部分更新し、更新後のレコードを返す。存在しない場合はnil
func (r *JobRepository) Update(ctx context.Context, id string, u models.JobUpdate) (*models.Job, error) {
	var sets []string
	var args []any

	if u.Status != nil {
		sets = append(sets, "status = ?")
		args = append(args, string(*u.Status))
	}
	if u.Progress != nil {
		sets = append(sets, "progress = ?")
		args = append(args, *u.Progress)
	}
	if u.Speed != nil {
		sets = append(sets, "speed = ?")
		args = append(args, *u.Speed)
	}
	if u.ETA != nil {
		sets = append(sets, "eta = ?")
		args = append(args, *u.ETA)
	}
	if u.Size != nil {
		sets = append(sets, "size = ?")
		args = append(args, *u.Size)
	}
	if u.CompletedAt != nil {
		sets = append(sets, "completed_at = ?")
		args = append(args, *u.CompletedAt)
	}

	if len(sets) > 0 {
		args = append(args, id)
		_, err := r.db.ExecContext(ctx,
			"UPDATE jobs SET "+strings.Join(sets, ", ")+" WHERE id = ?", args...)
		if err != nil {
			return nil, err
		}
	}
	return r.GetByID(ctx, id)
}

// Delete はジョブを削除。削除できた場合はtrueを返す
func (r *JobRepository) Delete(ctx context.Context, id string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM jobs WHERE id = ?`, id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// ListRecent は新しい順にジョブ一覧を取得
func (r *JobRepository) ListRecent(ctx context.Context, limit int) ([]models.Job, error) {
	if limit == 0 {
		limit = 50
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+jobColumns+` FROM jobs
		ORDER BY created_at DESC, id DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var jobs []models.Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, *job)
	}
	return jobs, rows.Err()
}

// CountByStatus はステータスごとのジョブ数を取得
func (r *JobRepository) CountByStatus(ctx context.Context) (map[models.Status]int, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT status, COUNT(*) FROM jobs GROUP BY status`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[models.Status]int)
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		counts[models.Status(status)] = count
	}
	return counts, rows.Err()
}

// scanner は*sql.Rowと*sql.Rowsの共通部分
type scanner interface {
	Scan(dest ...any) error
}

// scanJob は1行をJobに変換
func scanJob(s scanner) (*models.Job, error) {
	var job models.Job
	var quality, format, status string
	var completedAt sql.NullTime

	err := s.Scan(
		&job.ID, &job.URL, &job.VideoID, &job.Title, &job.Thumbnail,
		&job.Duration, &job.Channel, &job.Views, &quality, &format,
		&job.Filename, &status, &job.Progress, &job.Speed, &job.ETA,
		&job.Size, &job.CreatedAt, &completedAt,
	)
	if err != nil {
		return nil, err
	}

	job.Quality = models.Quality(quality)
	job.Format = models.Format(format)
	job.Status = models.Status(status)
	if completedAt.Valid {
		t := completedAt.Time
		job.CompletedAt = &t
	}
	return &job, nil
}
