package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/stoop-politics/stoop/internal/domain"
	"github.com/stoop-politics/stoop/internal/ports"
)

type TranscriptsRepository struct {
	db *sql.DB
}

func NewTranscriptsRepository(db *sql.DB) *TranscriptsRepository {
	return &TranscriptsRepository{db: db}
}

const segmentColumns = `id, episode_id, content, start_time, end_time, reference_link, reference_title, display_order`

func scanSegment(row rowScanner) (domain.TranscriptSegment, error) {
	var s domain.TranscriptSegment
	var start, end sql.NullFloat64
	if err := row.Scan(&s.ID, &s.EpisodeID, &s.Content, &start, &end, &s.ReferenceLink, &s.ReferenceTitle, &s.DisplayOrder); err != nil {
		return domain.TranscriptSegment{}, err
	}
	s.StartTime = floatPtr(start)
	s.EndTime = floatPtr(end)
	return s, nil
}

func (r *TranscriptsRepository) ListByEpisode(ctx context.Context, episodeID string) ([]domain.TranscriptSegment, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+segmentColumns+`
		FROM transcript_nodes WHERE episode_id = ?
		ORDER BY display_order ASC
	`, episodeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []domain.TranscriptSegment{}
	for rows.Next() {
		s, err := scanSegment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// ReplaceForEpisode remplace tout le transcript dans une seule transaction.
func (r *TranscriptsRepository) ReplaceForEpisode(ctx context.Context, episodeID string, segments []domain.TranscriptSegment) ([]domain.TranscriptSegment, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM transcript_nodes WHERE episode_id = ?`, episodeID); err != nil {
		return nil, err
	}
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO transcript_nodes(`+segmentColumns+`) VALUES(?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return nil, err
	}
	defer stmt.Close()

	for _, s := range segments {
		if _, err := stmt.ExecContext(ctx, s.ID, episodeID, s.Content, nullFloat(s.StartTime), nullFloat(s.EndTime), s.ReferenceLink, s.ReferenceTitle, s.DisplayOrder); err != nil {
			if isUniqueViolation(err, "transcript_nodes") {
				return nil, ports.ErrConflict
			}
			return nil, err
		}
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return r.ListByEpisode(ctx, episodeID)
}

func (r *TranscriptsRepository) Get(ctx context.Context, id string) (domain.TranscriptSegment, error) {
	s, err := scanSegment(r.db.QueryRowContext(ctx, `SELECT `+segmentColumns+` FROM transcript_nodes WHERE id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.TranscriptSegment{}, ports.ErrNotFound
		}
		return domain.TranscriptSegment{}, err
	}
	return s, nil
}

func (r *TranscriptsRepository) UpdateSegment(ctx context.Context, id string, field domain.SegmentField, value string) (domain.TranscriptSegment, error) {
	var column string
	switch field {
	case domain.SegmentContent:
		column = "content"
	case domain.SegmentReferenceLink:
		column = "reference_link"
	case domain.SegmentReferenceTitle:
		column = "reference_title"
	default:
		return domain.TranscriptSegment{}, fmt.Errorf("unknown segment field %q", string(field))
	}
	res, err := r.db.ExecContext(ctx, `UPDATE transcript_nodes SET `+column+` = ? WHERE id = ?`, value, id)
	if err != nil {
		return domain.TranscriptSegment{}, err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return domain.TranscriptSegment{}, ports.ErrNotFound
	}
	return r.Get(ctx, id)
}
