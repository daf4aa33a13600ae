package supabase

import (
	"time"

	"github.com/stoop-politics/stoop/internal/domain"
)

type episodeRow struct {
	ID              string     `json:"id"`
	Title           string     `json:"title"`
	Summary         string     `json:"summary"`
	AudioURL        string     `json:"audio_url"`
	CoverImageURL   string     `json:"cover_image_url"`
	IsPublished     bool       `json:"is_published"`
	PublishedAt     *time.Time `json:"published_at"`
	DurationSeconds *int       `json:"duration_seconds"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

func toEpisodeRow(ep domain.Episode) episodeRow {
	return episodeRow{
		ID:              ep.ID,
		Title:           ep.Title,
		Summary:         ep.Summary,
		AudioURL:        ep.AudioURL,
		CoverImageURL:   ep.CoverImageURL,
		IsPublished:     ep.Published,
		PublishedAt:     ep.PublishedAt,
		DurationSeconds: ep.DurationSeconds,
		CreatedAt:       ep.CreatedAt.UTC(),
		UpdatedAt:       ep.UpdatedAt.UTC(),
	}
}

func (r episodeRow) domain() domain.Episode {
	return domain.Episode{
		ID:              r.ID,
		Title:           r.Title,
		Summary:         r.Summary,
		AudioURL:        r.AudioURL,
		CoverImageURL:   r.CoverImageURL,
		Published:       r.IsPublished,
		PublishedAt:     r.PublishedAt,
		DurationSeconds: r.DurationSeconds,
		CreatedAt:       r.CreatedAt,
		UpdatedAt:       r.UpdatedAt,
	}
}

type segmentRow struct {
	ID             string   `json:"id"`
	EpisodeID      string   `json:"episode_id"`
	Content        string   `json:"content"`
	StartTime      *float64 `json:"start_time"`
	EndTime        *float64 `json:"end_time"`
	ReferenceLink  string   `json:"reference_link"`
	ReferenceTitle string   `json:"reference_title"`
	DisplayOrder   int      `json:"display_order"`
}

func toSegmentRow(s domain.TranscriptSegment) segmentRow {
	return segmentRow{
		ID:             s.ID,
		EpisodeID:      s.EpisodeID,
		Content:        s.Content,
		StartTime:      s.StartTime,
		EndTime:        s.EndTime,
		ReferenceLink:  s.ReferenceLink,
		ReferenceTitle: s.ReferenceTitle,
		DisplayOrder:   s.DisplayOrder,
	}
}

func (r segmentRow) domain() domain.TranscriptSegment {
	return domain.TranscriptSegment{
		ID:             r.ID,
		EpisodeID:      r.EpisodeID,
		Content:        r.Content,
		StartTime:      r.StartTime,
		EndTime:        r.EndTime,
		ReferenceLink:  r.ReferenceLink,
		ReferenceTitle: r.ReferenceTitle,
		DisplayOrder:   r.DisplayOrder,
	}
}

type subscriberRow struct {
	ID                   string    `json:"id"`
	Email                string    `json:"email"`
	SubscribedAt         time.Time `json:"subscribed_at"`
	NotificationsEnabled bool      `json:"notifications_enabled"`
	Status               string    `json:"status"`
	UpdatedAt            time.Time `json:"updated_at"`
}

func toSubscriberRow(s domain.Subscriber) subscriberRow {
	return subscriberRow{
		ID:                   s.ID,
		Email:                domain.NormalizeEmail(s.Email),
		SubscribedAt:         s.SubscribedAt.UTC(),
		NotificationsEnabled: s.NotificationsEnabled,
		Status:               string(s.Status),
		UpdatedAt:            s.UpdatedAt.UTC(),
	}
}

func (r subscriberRow) domain() domain.Subscriber {
	return domain.Subscriber{
		ID:                   r.ID,
		Email:                r.Email,
		SubscribedAt:         r.SubscribedAt,
		NotificationsEnabled: r.NotificationsEnabled,
		Status:               domain.SubscriberStatus(r.Status),
		UpdatedAt:            r.UpdatedAt,
	}
}

type inboxRow struct {
	ID        string    `json:"id"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}

func (r inboxRow) domain() domain.InboxMessage {
	return domain.InboxMessage{ID: r.ID, Message: r.Message, CreatedAt: r.CreatedAt}
}
