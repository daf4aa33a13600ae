package supabase

import (
	"context"
	"fmt"
	"time"

	"github.com/stoop-politics/stoop/internal/domain"
	"github.com/stoop-politics/stoop/internal/ports"
	postgrest "github.com/supabase-community/postgrest-go"
)

const (
	episodesTable    = "episodes"
	transcriptsTable = "transcript_nodes"
	subscribersTable = "subscribers"
)

type EpisodesRepository struct {
	c *Client
}

func NewEpisodesRepository(c *Client) *EpisodesRepository {
	return &EpisodesRepository{c: c}
}

func firstEpisode(rows []episodeRow) (domain.Episode, error) {
	if len(rows) == 0 {
		return domain.Episode{}, ports.ErrNotFound
	}
	return rows[0].domain(), nil
}

func episodes(rows []episodeRow) []domain.Episode {
	out := make([]domain.Episode, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.domain())
	}
	return out
}

func (r *EpisodesRepository) Create(ctx context.Context, ep domain.Episode) (domain.Episode, error) {
	var rows []episodeRow
	if _, err := r.c.sdk.From(episodesTable).Insert(toEpisodeRow(ep), false, "", "representation", "").ExecuteTo(&rows); err != nil {
		if isUniqueViolation(err) {
			return domain.Episode{}, ports.ErrConflict
		}
		return domain.Episode{}, fmt.Errorf("insert episode: %w", err)
	}
	return firstEpisode(rows)
}

func (r *EpisodesRepository) Get(ctx context.Context, id string) (domain.Episode, error) {
	var rows []episodeRow
	if _, err := r.c.sdk.From(episodesTable).Select("*", "", false).Eq("id", id).Limit(1, "").ExecuteTo(&rows); err != nil {
		return domain.Episode{}, fmt.Errorf("get episode: %w", err)
	}
	return firstEpisode(rows)
}

func (r *EpisodesRepository) List(ctx context.Context, limit int) ([]domain.Episode, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	var rows []episodeRow
	_, err := r.c.sdk.From(episodesTable).Select("*", "", false).
		Order("created_at", &postgrest.OrderOpts{Ascending: false}).
		Limit(limit, "").
		ExecuteTo(&rows)
	if err != nil {
		return nil, fmt.Errorf("list episodes: %w", err)
	}
	return episodes(rows), nil
}

func (r *EpisodesRepository) ListPublished(ctx context.Context) ([]domain.Episode, error) {
	var rows []episodeRow
	_, err := r.c.sdk.From(episodesTable).Select("*", "", false).
		Eq("is_published", "true").
		Order("published_at", &postgrest.OrderOpts{Ascending: false}).
		ExecuteTo(&rows)
	if err != nil {
		return nil, fmt.Errorf("list published episodes: %w", err)
	}
	return episodes(rows), nil
}

func (r *EpisodesRepository) Update(ctx context.Context, ep domain.Episode) (domain.Episode, error) {
	patch := map[string]any{
		"title":            ep.Title,
		"summary":          ep.Summary,
		"audio_url":        ep.AudioURL,
		"cover_image_url":  ep.CoverImageURL,
		"duration_seconds": ep.DurationSeconds,
		"updated_at":       ep.UpdatedAt.UTC(),
	}
	var rows []episodeRow
	if _, err := r.c.sdk.From(episodesTable).Update(patch, "representation", "").Eq("id", ep.ID).ExecuteTo(&rows); err != nil {
		return domain.Episode{}, fmt.Errorf("update episode: %w", err)
	}
	return firstEpisode(rows)
}

// Publish filtre sur is_published=false : deux publications concurrentes ne peuvent pas réussir toutes les deux.
func (r *EpisodesRepository) Publish(ctx context.Context, id string, at time.Time) (domain.Episode, error) {
	at = at.UTC()
	patch := map[string]any{"is_published": true, "published_at": at, "updated_at": at}
	var rows []episodeRow
	_, err := r.c.sdk.From(episodesTable).Update(patch, "representation", "").
		Eq("id", id).
		Eq("is_published", "false").
		ExecuteTo(&rows)
	if err != nil {
		return domain.Episode{}, fmt.Errorf("publish episode: %w", err)
	}
	if len(rows) == 0 {
		if _, err := r.Get(ctx, id); err != nil {
			return domain.Episode{}, err
		}
		return domain.Episode{}, domain.ErrAlreadyPublished
	}
	return rows[0].domain(), nil
}
