package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/stoop-politics/stoop/internal/domain"
	"github.com/stoop-politics/stoop/internal/ports"
)

type EpisodesRepository struct {
	db *sql.DB
}

func NewEpisodesRepository(db *sql.DB) *EpisodesRepository {
	return &EpisodesRepository{db: db}
}

const episodeColumns = `id, title, summary, audio_url, cover_image_url, is_published, published_at, duration_seconds, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEpisode(row rowScanner) (domain.Episode, error) {
	var ep domain.Episode
	var published int
	var publishedAt sql.NullString
	var duration sql.NullInt64
	var createdAt, updatedAt string
	if err := row.Scan(&ep.ID, &ep.Title, &ep.Summary, &ep.AudioURL, &ep.CoverImageURL, &published, &publishedAt, &duration, &createdAt, &updatedAt); err != nil {
		return domain.Episode{}, err
	}
	ep.Published = published != 0
	ep.PublishedAt = timePtr(publishedAt)
	ep.DurationSeconds = intPtr(duration)
	ep.CreatedAt = parseTime(createdAt)
	ep.UpdatedAt = parseTime(updatedAt)
	return ep, nil
}

func (r *EpisodesRepository) Create(ctx context.Context, ep domain.Episode) (domain.Episode, error) {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO episodes(`+episodeColumns+`)
		VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, ep.ID, ep.Title, ep.Summary, ep.AudioURL, ep.CoverImageURL, boolInt(ep.Published), nullTime(ep.PublishedAt), nullInt(ep.DurationSeconds),
		formatTime(ep.CreatedAt), formatTime(ep.UpdatedAt))
	if err != nil {
		if isUniqueViolation(err, "episodes.id") {
			return domain.Episode{}, ports.ErrConflict
		}
		return domain.Episode{}, err
	}
	return r.Get(ctx, ep.ID)
}

func (r *EpisodesRepository) Get(ctx context.Context, id string) (domain.Episode, error) {
	ep, err := scanEpisode(r.db.QueryRowContext(ctx, `SELECT `+episodeColumns+` FROM episodes WHERE id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Episode{}, ports.ErrNotFound
		}
		return domain.Episode{}, err
	}
	return ep, nil
}

func (r *EpisodesRepository) List(ctx context.Context, limit int) ([]domain.Episode, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	return r.query(ctx, `SELECT `+episodeColumns+` FROM episodes ORDER BY created_at DESC LIMIT ?`, limit)
}

func (r *EpisodesRepository) ListPublished(ctx context.Context) ([]domain.Episode, error) {
	return r.query(ctx, `SELECT `+episodeColumns+` FROM episodes WHERE is_published = 1 ORDER BY published_at DESC, created_at DESC`)
}

func (r *EpisodesRepository) query(ctx context.Context, q string, args ...any) ([]domain.Episode, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []domain.Episode{}
	for rows.Next() {
		ep, err := scanEpisode(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, ep)
	}
	return out, rows.Err()
}

// Update ne touche pas à l'état de publication : voir Publish.
func (r *EpisodesRepository) Update(ctx context.Context, ep domain.Episode) (domain.Episode, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE episodes
		SET title = ?, summary = ?, audio_url = ?, cover_image_url = ?, duration_seconds = ?, updated_at = ?
		WHERE id = ?
	`, ep.Title, ep.Summary, ep.AudioURL, ep.CoverImageURL, nullInt(ep.DurationSeconds), formatTime(ep.UpdatedAt), ep.ID)
	if err != nil {
		return domain.Episode{}, err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return domain.Episode{}, ports.ErrNotFound
	}
	return r.Get(ctx, ep.ID)
}

func (r *EpisodesRepository) Publish(ctx context.Context, id string, at time.Time) (domain.Episode, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE episodes
		SET is_published = 1, published_at = ?, updated_at = ?
		WHERE id = ? AND is_published = 0
	`, formatTime(at), formatTime(at), id)
	if err != nil {
		return domain.Episode{}, err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		if _, err := r.Get(ctx, id); err != nil {
			return domain.Episode{}, err
		}
		return domain.Episode{}, domain.ErrAlreadyPublished
	}
	return r.Get(ctx, id)
}
