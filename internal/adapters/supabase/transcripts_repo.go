package supabase

import (
	"context"
	"fmt"

	"github.com/stoop-politics/stoop/internal/domain"
	"github.com/stoop-politics/stoop/internal/ports"
	postgrest "github.com/supabase-community/postgrest-go"
)

type TranscriptsRepository struct {
	c *Client
}

func NewTranscriptsRepository(c *Client) *TranscriptsRepository {
	return &TranscriptsRepository{c: c}
}

func (r *TranscriptsRepository) ListByEpisode(ctx context.Context, episodeID string) ([]domain.TranscriptSegment, error) {
	var rows []segmentRow
	_, err := r.c.sdk.From(transcriptsTable).Select("*", "", false).
		Eq("episode_id", episodeID).
		Order("display_order", &postgrest.OrderOpts{Ascending: true}).
		ExecuteTo(&rows)
	if err != nil {
		return nil, fmt.Errorf("list transcript: %w", err)
	}
	out := make([]domain.TranscriptSegment, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.domain())
	}
	return out, nil
}

// ReplaceForEpisode supprime puis insère en un seul lot. PostgREST n'offre pas de
// transaction multi-requêtes : un échec d'insertion laisse le transcript vide.
func (r *TranscriptsRepository) ReplaceForEpisode(ctx context.Context, episodeID string, segments []domain.TranscriptSegment) ([]domain.TranscriptSegment, error) {
	if _, _, err := r.c.sdk.From(transcriptsTable).Delete("minimal", "").Eq("episode_id", episodeID).Execute(); err != nil {
		return nil, fmt.Errorf("clear transcript: %w", err)
	}
	if len(segments) == 0 {
		return []domain.TranscriptSegment{}, nil
	}
	rows := make([]segmentRow, 0, len(segments))
	for _, s := range segments {
		s.EpisodeID = episodeID
		rows = append(rows, toSegmentRow(s))
	}
	if _, _, err := r.c.sdk.From(transcriptsTable).Insert(rows, false, "", "minimal", "").Execute(); err != nil {
		if isUniqueViolation(err) {
			return nil, ports.ErrConflict
		}
		return nil, fmt.Errorf("insert transcript: %w", err)
	}
	return r.ListByEpisode(ctx, episodeID)
}

func (r *TranscriptsRepository) UpdateSegment(ctx context.Context, id string, field domain.SegmentField, value string) (domain.TranscriptSegment, error) {
	if !field.Valid() {
		return domain.TranscriptSegment{}, fmt.Errorf("unknown segment field %q", string(field))
	}
	var rows []segmentRow
	_, err := r.c.sdk.From(transcriptsTable).Update(map[string]string{string(field): value}, "representation", "").
		Eq("id", id).
		ExecuteTo(&rows)
	if err != nil {
		return domain.TranscriptSegment{}, fmt.Errorf("update segment: %w", err)
	}
	if len(rows) == 0 {
		return domain.TranscriptSegment{}, ports.ErrNotFound
	}
	return rows[0].domain(), nil
}
