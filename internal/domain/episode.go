package domain

import (
	"errors"
	"time"
)

type EpisodeState string

const (
	EpisodeDraft     EpisodeState = "draft"
	EpisodePublished EpisodeState = "published"
)

var ErrAlreadyPublished = errors.New("episode already published")

type Episode struct {
	ID              string     `json:"id"`
	Title           string     `json:"title"`
	Summary         string     `json:"summary,omitempty"`
	AudioURL        string     `json:"audioUrl"`
	CoverImageURL   string     `json:"coverImageUrl,omitempty"`
	Published       bool       `json:"isPublished"`
	PublishedAt     *time.Time `json:"publishedAt,omitempty"`
	DurationSeconds *int       `json:"durationSeconds,omitempty"`
	CreatedAt       time.Time  `json:"createdAt"`
	UpdatedAt       time.Time  `json:"updatedAt"`
}

func (e Episode) State() EpisodeState {
	if e.Published {
		return EpisodePublished
	}
	return EpisodeDraft
}

func (e Episode) CanPublish() bool { return !e.Published }

// Publish applique la transition draft -> published. Pas de dépublication.
func (e Episode) Publish(at time.Time) (Episode, error) {
	if !e.CanPublish() {
		return e, ErrAlreadyPublished
	}
	at = at.UTC()
	e.Published = true
	e.PublishedAt = &at
	e.UpdatedAt = at
	return e, nil
}

// Duration renvoie la durée connue en secondes, 0 si inconnue.
func (e Episode) Duration() float64 {
	if e.DurationSeconds == nil || *e.DurationSeconds <= 0 {
		return 0
	}
	return float64(*e.DurationSeconds)
}
