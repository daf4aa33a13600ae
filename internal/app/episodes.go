package app

import (
	"context"
	"errors"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stoop-politics/stoop/internal/domain"
	"github.com/stoop-politics/stoop/internal/ports"
	"github.com/stoop-politics/stoop/internal/transcript"
)

// LatestID désigne le dernier épisode publié dans Listen.
const LatestID = "latest"

type EpisodeService struct {
	logger   zerolog.Logger
	episodes ports.EpisodeRepository
	segments ports.TranscriptRepository
	settings ports.SettingsRepository
	jobs     Enqueuer
	bus      ports.EventBus
	now      func() time.Time
}

func NewEpisodeService(logger zerolog.Logger, episodes ports.EpisodeRepository, segments ports.TranscriptRepository, settings ports.SettingsRepository, jobs Enqueuer, bus ports.EventBus) *EpisodeService {
	return &EpisodeService{
		logger:   logger.With().Str("component", "episodes").Logger(),
		episodes: episodes,
		segments: segments,
		settings: settings,
		jobs:     jobs,
		bus:      bus,
		now:      time.Now,
	}
}

type EpisodeInput struct {
	Title           string `json:"title"`
	Summary         string `json:"summary"`
	AudioURL        string `json:"audioUrl"`
	CoverImageURL   string `json:"coverImageUrl"`
	DurationSeconds *int   `json:"durationSeconds"`
}

func (in EpisodeInput) validate() error {
	if strings.TrimSpace(in.Title) == "" {
		return invalid("title", "title is required")
	}
	if strings.TrimSpace(in.AudioURL) == "" {
		return invalid("audioUrl", "audio url is required")
	}
	if u, err := url.Parse(in.AudioURL); err != nil || u.Scheme == "" || u.Host == "" {
		return invalid("audioUrl", "audio url must be absolute")
	}
	if in.DurationSeconds != nil && *in.DurationSeconds < 0 {
		return invalid("durationSeconds", "duration must not be negative")
	}
	return nil
}

// NotifyParams sont les paramètres du job notify.episode.
type NotifyParams struct {
	EpisodeID string `json:"episodeId"`
}

// Create enregistre un brouillon.
func (s *EpisodeService) Create(ctx context.Context, in EpisodeInput) (domain.Episode, error) {
	if err := in.validate(); err != nil {
		return domain.Episode{}, err
	}
	now := s.now().UTC()
	ep, err := s.episodes.Create(ctx, domain.Episode{
		ID:              uuid.NewString(),
		Title:           strings.TrimSpace(in.Title),
		Summary:         strings.TrimSpace(in.Summary),
		AudioURL:        strings.TrimSpace(in.AudioURL),
		CoverImageURL:   strings.TrimSpace(in.CoverImageURL),
		DurationSeconds: in.DurationSeconds,
		CreatedAt:       now,
		UpdatedAt:       now,
	})
	if err != nil {
		return domain.Episode{}, err
	}
	publishJSON(s.bus, "episode.created", ep)
	return ep, nil
}

func (s *EpisodeService) Update(ctx context.Context, id string, in EpisodeInput) (domain.Episode, error) {
	if err := in.validate(); err != nil {
		return domain.Episode{}, err
	}
	ep, err := s.episodes.Get(ctx, id)
	if err != nil {
		return domain.Episode{}, err
	}
	ep.Title = strings.TrimSpace(in.Title)
	ep.Summary = strings.TrimSpace(in.Summary)
	ep.AudioURL = strings.TrimSpace(in.AudioURL)
	ep.CoverImageURL = strings.TrimSpace(in.CoverImageURL)
	ep.DurationSeconds = in.DurationSeconds
	ep.UpdatedAt = s.now().UTC()
	updated, err := s.episodes.Update(ctx, ep)
	if err != nil {
		return domain.Episode{}, err
	}
	publishJSON(s.bus, "episode.updated", updated)
	return updated, nil
}

// Get renvoie un épisode, brouillons compris (admin).
func (s *EpisodeService) Get(ctx context.Context, id string) (domain.Episode, error) {
	return s.episodes.Get(ctx, id)
}

func (s *EpisodeService) List(ctx context.Context, limit int) ([]domain.Episode, error) {
	return s.episodes.List(ctx, limit)
}

func (s *EpisodeService) ListPublished(ctx context.Context) ([]domain.Episode, error) {
	return s.episodes.ListPublished(ctx)
}

func (s *EpisodeService) Latest(ctx context.Context) (domain.Episode, error) {
	eps, err := s.episodes.ListPublished(ctx)
	if err != nil {
		return domain.Episode{}, err
	}
	if len(eps) == 0 {
		return domain.Episode{}, ErrNotFound
	}
	return eps[0], nil
}

// GetPublished masque les brouillons aux auditeurs.
func (s *EpisodeService) GetPublished(ctx context.Context, id string) (domain.Episode, error) {
	if id == LatestID {
		return s.Latest(ctx)
	}
	ep, err := s.episodes.Get(ctx, id)
	if err != nil {
		return domain.Episode{}, err
	}
	if !ep.Published {
		return domain.Episode{}, ErrNotFound
	}
	return ep, nil
}

func (s *EpisodeService) Transcript(ctx context.Context, episodeID string) ([]domain.TranscriptSegment, error) {
	return s.segments.ListByEpisode(ctx, episodeID)
}

type SegmentInput struct {
	Content        string   `json:"content"`
	StartTime      *float64 `json:"startTime"`
	EndTime        *float64 `json:"endTime"`
	ReferenceLink  string   `json:"referenceLink"`
	ReferenceTitle string   `json:"referenceTitle"`
	// DisplayOrder absent : la position dans la liste fait foi.
	DisplayOrder *int `json:"displayOrder"`
}

// ImportTranscript remplace le transcript complet d'un épisode.
func (s *EpisodeService) ImportTranscript(ctx context.Context, episodeID string, in []SegmentInput) ([]domain.TranscriptSegment, error) {
	if _, err := s.episodes.Get(ctx, episodeID); err != nil {
		return nil, err
	}
	segs := make([]domain.TranscriptSegment, 0, len(in))
	for i, raw := range in {
		if strings.TrimSpace(raw.Content) == "" {
			return nil, invalid("segments", "segment %d: content is required", i)
		}
		order := i
		if raw.DisplayOrder != nil {
			order = *raw.DisplayOrder
		}
		segs = append(segs, domain.TranscriptSegment{
			ID:             uuid.NewString(),
			EpisodeID:      episodeID,
			Content:        raw.Content,
			StartTime:      raw.StartTime,
			EndTime:        raw.EndTime,
			ReferenceLink:  strings.TrimSpace(raw.ReferenceLink),
			ReferenceTitle: strings.TrimSpace(raw.ReferenceTitle),
			DisplayOrder:   order,
		})
	}
	sort.SliceStable(segs, func(i, j int) bool { return segs[i].DisplayOrder < segs[j].DisplayOrder })
	if err := domain.ValidateSegments(segs); err != nil {
		return nil, &ValidationError{Field: "segments", Message: err.Error()}
	}
	stored, err := s.segments.ReplaceForEpisode(ctx, episodeID, segs)
	if err != nil {
		return nil, err
	}
	s.logger.Info().Str("episode_id", episodeID).Int("segments", len(stored)).Msg("transcript imported")
	publishJSON(s.bus, "episode.transcript", map[string]any{"episodeId": episodeID, "segments": len(stored)})
	return stored, nil
}

// UpdateSegment modifie un champ éditable d'un segment.
func (s *EpisodeService) UpdateSegment(ctx context.Context, id string, field domain.SegmentField, value string) (domain.TranscriptSegment, error) {
	if !field.Valid() {
		return domain.TranscriptSegment{}, invalid("field", "unknown field %q", string(field))
	}
	if field == domain.SegmentContent && strings.TrimSpace(value) == "" {
		return domain.TranscriptSegment{}, invalid("value", "content must not be empty")
	}
	return s.segments.UpdateSegment(ctx, id, field, value)
}

type PublishResult struct {
	Episode   domain.Episode `json:"episode"`
	NotifyJob *JobDTO        `json:"notifyJob,omitempty"`
}

// Publish publie un brouillon une seule fois et programme la notification des abonnés.
func (s *EpisodeService) Publish(ctx context.Context, id string) (PublishResult, error) {
	ep, err := s.episodes.Publish(ctx, id, s.now().UTC())
	if err != nil {
		return PublishResult{}, err
	}
	s.logger.Info().Str("episode_id", ep.ID).Str("title", ep.Title).Msg("episode published")
	publishJSON(s.bus, "episode.published", ep)

	res := PublishResult{Episode: ep}
	notify := domain.DefaultSettings().NotifyOnPublish
	if s.settings != nil {
		if st, err := s.settings.Get(ctx); err == nil {
			notify = st.NotifyOnPublish
		}
	}
	if notify && s.jobs != nil {
		job, err := s.jobs.Enqueue(ctx, domain.JobNotifyEpisode, NotifyParams{EpisodeID: ep.ID})
		if err != nil {
			s.logger.Error().Err(err).Str("episode_id", ep.ID).Msg("enqueue episode notification failed")
		} else {
			res.NotifyJob = &job
		}
	}
	return res, nil
}

// QueueNotify programme manuellement la notification d'un épisode publié.
func (s *EpisodeService) QueueNotify(ctx context.Context, id string) (JobDTO, error) {
	ep, err := s.episodes.Get(ctx, id)
	if err != nil {
		return JobDTO{}, err
	}
	if !ep.Published {
		return JobDTO{}, invalid("id", "episode is not published")
	}
	if s.jobs == nil {
		return JobDTO{}, errors.New("job queue unavailable")
	}
	return s.jobs.Enqueue(ctx, domain.JobNotifyEpisode, NotifyParams{EpisodeID: ep.ID})
}

type ListenView struct {
	Episode  domain.Episode             `json:"episode"`
	Segments []domain.TranscriptSegment `json:"segments"`
	StartAt  float64                    `json:"startAt"`
	// ActiveIndex vaut -1 si aucun segment n'est actif à StartAt.
	ActiveIndex int       `json:"activeIndex"`
	Theme       StoopMode `json:"theme"`
}

// Listen compose la vue lecteur : épisode publié, transcript, point de départ borné.
func (s *EpisodeService) Listen(ctx context.Context, id string, t float64, hasT bool) (ListenView, error) {
	ep, err := s.GetPublished(ctx, id)
	if err != nil {
		return ListenView{}, err
	}
	segs, err := s.segments.ListByEpisode(ctx, ep.ID)
	if err != nil {
		return ListenView{}, err
	}
	view := ListenView{Episode: ep, Segments: segs, ActiveIndex: -1, Theme: TimeOfDay(s.now())}
	if hasT {
		view.StartAt = transcript.ClampTime(t, ep.Duration())
	}
	if idx, ok := transcript.NewTimeline(segs).Active(view.StartAt); ok {
		view.ActiveIndex = idx
	}
	return view, nil
}

// ActiveAt renvoie le segment actif d'un épisode publié à l'instant t.
func (s *EpisodeService) ActiveAt(ctx context.Context, id string, t float64) (domain.TranscriptSegment, int, bool, error) {
	ep, err := s.GetPublished(ctx, id)
	if err != nil {
		return domain.TranscriptSegment{}, -1, false, err
	}
	segs, err := s.segments.ListByEpisode(ctx, ep.ID)
	if err != nil {
		return domain.TranscriptSegment{}, -1, false, err
	}
	idx, ok := transcript.ActiveSegment(t, segs)
	if !ok {
		return domain.TranscriptSegment{}, -1, false, nil
	}
	return segs[idx], idx, true, nil
}

// Seek renvoie l'instant de début d'un segment et le lien partageable associé.
func (s *EpisodeService) Seek(ctx context.Context, episodeID, segmentID, baseURL string) (float64, string, error) {
	ep, err := s.GetPublished(ctx, episodeID)
	if err != nil {
		return 0, "", err
	}
	segs, err := s.segments.ListByEpisode(ctx, ep.ID)
	if err != nil {
		return 0, "", err
	}
	for _, seg := range segs {
		if seg.ID != segmentID {
			continue
		}
		t, ok := transcript.SeekTo(seg)
		if !ok {
			return 0, "", invalid("segmentId", "segment has no start time")
		}
		link, err := transcript.ShareableLink(baseURL, t)
		if err != nil {
			return 0, "", invalid("url", "invalid base url")
		}
		return t, link, nil
	}
	return 0, "", ErrNotFound
}
