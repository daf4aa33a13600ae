package app

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stoop-politics/stoop/internal/domain"
	"github.com/stoop-politics/stoop/internal/ports"
)

// InboxService reçoit les questions anonymes "Ask the Stoop".
type InboxService struct {
	logger zerolog.Logger
	repo   ports.InboxRepository
	bus    ports.EventBus
	now    func() time.Time
}

func NewInboxService(logger zerolog.Logger, repo ports.InboxRepository, bus ports.EventBus) *InboxService {
	return &InboxService{
		logger: logger.With().Str("component", "inbox").Logger(),
		repo:   repo,
		bus:    bus,
		now:    time.Now,
	}
}

// Submit enregistre le message une fois rogné. Vide ou trop long : erreur de validation.
func (s *InboxService) Submit(ctx context.Context, message string) (domain.InboxMessage, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return domain.InboxMessage{}, invalid("message", "message is required")
	}
	if utf8.RuneCountInString(message) > domain.MaxInboxMessageLength {
		return domain.InboxMessage{}, invalid("message", "message must be at most %d characters", domain.MaxInboxMessageLength)
	}
	created, err := s.repo.Create(ctx, domain.InboxMessage{
		ID:        uuid.NewString(),
		Message:   message,
		CreatedAt: s.now().UTC(),
	})
	if err != nil {
		return domain.InboxMessage{}, err
	}
	// Anonyme : on ne journalise ni le contenu ni l'émetteur.
	s.logger.Info().Str("id", created.ID).Int("length", utf8.RuneCountInString(message)).Msg("inbox message received")
	publishJSON(s.bus, "inbox.created", created)
	return created, nil
}

func (s *InboxService) List(ctx context.Context, limit int) ([]domain.InboxMessage, error) {
	return s.repo.List(ctx, limit)
}
