package ports

import (
	"context"
	"time"

	"github.com/stoop-politics/stoop/internal/domain"
)

type EpisodeRepository interface {
	Create(ctx context.Context, ep domain.Episode) (domain.Episode, error)
	Get(ctx context.Context, id string) (domain.Episode, error)
	// List renvoie tous les épisodes (brouillons compris), les plus récents d'abord.
	List(ctx context.Context, limit int) ([]domain.Episode, error)
	// ListPublished renvoie les épisodes publiés triés par publishedAt décroissant.
	ListPublished(ctx context.Context) ([]domain.Episode, error)
	Update(ctx context.Context, ep domain.Episode) (domain.Episode, error)
	// Publish passe un brouillon à l'état publié. Renvoie domain.ErrAlreadyPublished sinon.
	Publish(ctx context.Context, id string, at time.Time) (domain.Episode, error)
}

type TranscriptRepository interface {
	// ListByEpisode renvoie les segments triés par displayOrder croissant.
	ListByEpisode(ctx context.Context, episodeID string) ([]domain.TranscriptSegment, error)
	ReplaceForEpisode(ctx context.Context, episodeID string, segments []domain.TranscriptSegment) ([]domain.TranscriptSegment, error)
	UpdateSegment(ctx context.Context, id string, field domain.SegmentField, value string) (domain.TranscriptSegment, error)
}
