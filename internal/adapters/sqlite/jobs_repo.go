package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/stoop-politics/stoop/internal/domain"
	"github.com/stoop-politics/stoop/internal/ports"
)

// JobsRepository stocke la file des envois (welcome, annonce d'épisode, broadcast).
type JobsRepository struct {
	db  *sql.DB
	now func() time.Time
}

func NewJobsRepository(db *sql.DB) *JobsRepository {
	return &JobsRepository{db: db, now: time.Now}
}

const jobColumns = `id, type, state, progress, created_at, updated_at, params_json, result_json, error_code, error_message`

// CodeInterrupted marque les jobs restés "running" lors d'un arrêt brutal.
const CodeInterrupted = "interrupted"

func scanJob(row rowScanner) (domain.Job, error) {
	var j domain.Job
	var state, createdAt, updatedAt string
	if err := row.Scan(&j.ID, &j.Type, &state, &j.Progress, &createdAt, &updatedAt, &j.ParamsJSON, &j.ResultJSON, &j.ErrorCode, &j.ErrorMessage); err != nil {
		return domain.Job{}, err
	}
	j.State = domain.JobState(state)
	j.CreatedAt = parseTime(createdAt)
	j.UpdatedAt = parseTime(updatedAt)
	return j, nil
}

func (r *JobsRepository) Create(ctx context.Context, job domain.Job) (domain.Job, error) {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO jobs(`+jobColumns+`)
		VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, job.ID, job.Type, string(job.State), job.Progress,
		formatTime(job.CreatedAt), formatTime(job.UpdatedAt), job.ParamsJSON, job.ResultJSON, job.ErrorCode, job.ErrorMessage)
	if err != nil {
		if isUniqueViolation(err, "jobs.id") {
			return domain.Job{}, ports.ErrConflict
		}
		return domain.Job{}, err
	}
	return r.Get(ctx, job.ID)
}

func (r *JobsRepository) Get(ctx context.Context, id string) (domain.Job, error) {
	j, err := scanJob(r.db.QueryRowContext(ctx, `SELECT `+jobColumns+` FROM jobs WHERE id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Job{}, ports.ErrNotFound
		}
		return domain.Job{}, err
	}
	return j, nil
}

func (r *JobsRepository) List(ctx context.Context, limit int) ([]domain.Job, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+jobColumns+` FROM jobs
		ORDER BY updated_at DESC, rowid DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []domain.Job{}
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, j)
	}
	return out, rows.Err()
}

// ClaimNextQueued prend le plus vieux job en file. Le UPDATE conditionnel garantit
// qu'un job n'est réclamé qu'une fois, même avec plusieurs workers.
func (r *JobsRepository) ClaimNextQueued(ctx context.Context) (domain.Job, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return domain.Job{}, err
	}
	defer func() { _ = tx.Rollback() }()

	var id string
	err = tx.QueryRowContext(ctx, `
		SELECT id FROM jobs
		WHERE state = ?
		ORDER BY created_at ASC, rowid ASC
		LIMIT 1
	`, string(domain.JobQueued)).Scan(&id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Job{}, ports.ErrNotFound
		}
		return domain.Job{}, err
	}

	res, err := tx.ExecContext(ctx, `
		UPDATE jobs SET state = ?, updated_at = ? WHERE id = ? AND state = ?
	`, string(domain.JobRunning), formatTime(r.now()), id, string(domain.JobQueued))
	if err != nil {
		return domain.Job{}, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.Job{}, ports.ErrNotFound
	}
	if err := tx.Commit(); err != nil {
		return domain.Job{}, err
	}
	return r.Get(ctx, id)
}

// update exécute q (dont le dernier argument est l'id) puis relit le job.
func (r *JobsRepository) update(ctx context.Context, id, q string, args ...any) (domain.Job, error) {
	res, err := r.db.ExecContext(ctx, q, args...)
	if err != nil {
		return domain.Job{}, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.Job{}, ports.ErrNotFound
	}
	return r.Get(ctx, id)
}

func (r *JobsRepository) UpdateProgress(ctx context.Context, id string, progress float64) (domain.Job, error) {
	return r.update(ctx, id, `UPDATE jobs SET progress = ?, updated_at = ? WHERE id = ?`,
		progress, formatTime(r.now()), id)
}

func (r *JobsRepository) UpdateResult(ctx context.Context, id string, resultJSON []byte) (domain.Job, error) {
	return r.update(ctx, id, `UPDATE jobs SET result_json = ?, updated_at = ? WHERE id = ?`,
		resultJSON, formatTime(r.now()), id)
}

func (r *JobsRepository) UpdateError(ctx context.Context, id string, code string, message string) (domain.Job, error) {
	return r.update(ctx, id, `UPDATE jobs SET error_code = ?, error_message = ?, updated_at = ? WHERE id = ?`,
		code, message, formatTime(r.now()), id)
}

// UpdateState ne s'applique que si le job est encore dans l'état expected.
func (r *JobsRepository) UpdateState(ctx context.Context, id string, expected domain.JobState, next domain.JobState) (domain.Job, error) {
	if !domain.CanTransition(expected, next) {
		return domain.Job{}, domain.ErrInvalidTransition
	}
	return r.update(ctx, id, `UPDATE jobs SET state = ?, updated_at = ? WHERE id = ? AND state = ?`,
		string(next), formatTime(r.now()), id, string(expected))
}

// FailInterrupted passe en échec les jobs "running" laissés par un arrêt brutal.
// Un envoi groupé interrompu n'est pas relancé : les premiers destinataires l'ont déjà reçu.
func (r *JobsRepository) FailInterrupted(ctx context.Context) (int, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE jobs SET state = ?, error_code = ?, error_message = ?, updated_at = ?
		WHERE state = ?
	`, string(domain.JobFailed), CodeInterrupted, "server stopped while the job was running", formatTime(r.now()), string(domain.JobRunning))
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	return int(n), err
}
