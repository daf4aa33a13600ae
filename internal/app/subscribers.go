package app

import (
	"context"
	"errors"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stoop-politics/stoop/internal/domain"
	"github.com/stoop-politics/stoop/internal/ports"
)

type SubscriberService struct {
	logger zerolog.Logger
	repo   ports.SubscriberRepository
	jobs   Enqueuer
	bus    ports.EventBus
	now    func() time.Time
}

func NewSubscriberService(logger zerolog.Logger, repo ports.SubscriberRepository, jobs Enqueuer, bus ports.EventBus) *SubscriberService {
	return &SubscriberService{
		logger: logger.With().Str("component", "subscribers").Logger(),
		repo:   repo,
		jobs:   jobs,
		bus:    bus,
		now:    time.Now,
	}
}

type SubscribeResult struct {
	Subscriber  domain.Subscriber `json:"subscriber"`
	IsReturning bool              `json:"isReturning"`
	Message     string            `json:"message"`
}

// WelcomeParams sont les paramètres du job email.welcome.
type WelcomeParams struct {
	Email    string `json:"email"`
	NotifyMe bool   `json:"notifyMe"`
}

func validEmail(email string) (string, error) {
	email = domain.NormalizeEmail(email)
	if email == "" {
		return "", invalid("email", "email is required")
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email || !strings.Contains(email[strings.LastIndex(email, "@")+1:], ".") {
		return "", invalid("email", "invalid email address")
	}
	return email, nil
}

// Subscribe crée ou réactive un abonné. Un email banni est refusé sans mutation.
func (s *SubscriberService) Subscribe(ctx context.Context, email string, notifyMe bool) (SubscribeResult, error) {
	email, err := validEmail(email)
	if err != nil {
		return SubscribeResult{}, err
	}

	existing, err := s.repo.GetByEmail(ctx, email)
	switch {
	case err == nil:
		return s.resubscribe(ctx, existing, notifyMe)
	case !errors.Is(err, ErrNotFound):
		return SubscribeResult{}, err
	}

	now := s.now().UTC()
	created, err := s.repo.Create(ctx, domain.Subscriber{
		ID:                   uuid.NewString(),
		Email:                email,
		SubscribedAt:         now,
		NotificationsEnabled: notifyMe,
		Status:               domain.SubscriberActive,
		UpdatedAt:            now,
	})
	if errors.Is(err, ErrConflict) {
		// Inscription concurrente du même email : on rejoue comme un retour.
		existing, err := s.repo.GetByEmail(ctx, email)
		if err != nil {
			return SubscribeResult{}, err
		}
		return s.resubscribe(ctx, existing, notifyMe)
	}
	if err != nil {
		return SubscribeResult{}, err
	}

	s.logger.Info().Str("email", email).Bool("notify", notifyMe).Msg("new subscriber")
	publishJSON(s.bus, "subscriber.created", created)
	if s.jobs != nil {
		if _, err := s.jobs.Enqueue(ctx, domain.JobWelcomeEmail, WelcomeParams{Email: email, NotifyMe: notifyMe}); err != nil {
			s.logger.Error().Err(err).Str("email", email).Msg("enqueue welcome email failed")
		}
	}
	return SubscribeResult{Subscriber: created, Message: "Welcome to the Stoop!"}, nil
}

func (s *SubscriberService) resubscribe(ctx context.Context, existing domain.Subscriber, notifyMe bool) (SubscribeResult, error) {
	if existing.Status == domain.SubscriberBanned {
		return SubscribeResult{}, ErrBanned
	}
	updated, err := s.repo.UpdatePreferences(ctx, existing.ID, notifyMe, domain.SubscriberActive)
	if err != nil {
		return SubscribeResult{}, err
	}
	publishJSON(s.bus, "subscriber.updated", updated)
	return SubscribeResult{
		Subscriber:  updated,
		IsReturning: true,
		Message:     "Welcome back! Your preferences have been updated.",
	}, nil
}

// Verify confirme qu'un email est abonné et non banni.
func (s *SubscriberService) Verify(ctx context.Context, email string) (domain.Subscriber, error) {
	email, err := validEmail(email)
	if err != nil {
		return domain.Subscriber{}, err
	}
	sub, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		return domain.Subscriber{}, err
	}
	if sub.Status == domain.SubscriberBanned {
		return domain.Subscriber{}, ErrBanned
	}
	return sub, nil
}

// SetNotifications active/désactive les notifications par email. Idempotent.
func (s *SubscriberService) SetNotifications(ctx context.Context, email string, enabled bool) (domain.Subscriber, error) {
	sub, err := s.Verify(ctx, email)
	if err != nil {
		return domain.Subscriber{}, err
	}
	if sub.NotificationsEnabled == enabled {
		return sub, nil
	}
	updated, err := s.repo.SetNotifications(ctx, sub.ID, enabled)
	if err != nil {
		return domain.Subscriber{}, err
	}
	publishJSON(s.bus, "subscriber.updated", updated)
	return updated, nil
}

func (s *SubscriberService) NotificationStatus(ctx context.Context, email string) (domain.Subscriber, error) {
	email, err := validEmail(email)
	if err != nil {
		return domain.Subscriber{}, err
	}
	return s.repo.GetByEmail(ctx, email)
}

type SubscriberFilter string

const (
	FilterAll           SubscriberFilter = "all"
	FilterActive        SubscriberFilter = "active"
	FilterNotifications SubscriberFilter = "notifications"
)

func (s *SubscriberService) List(ctx context.Context, filter SubscriberFilter, query string) ([]domain.Subscriber, error) {
	switch filter {
	case "", FilterAll, FilterActive, FilterNotifications:
	default:
		return nil, invalid("filter", "unknown filter %q", string(filter))
	}
	all, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	query = strings.ToLower(strings.TrimSpace(query))
	out := make([]domain.Subscriber, 0, len(all))
	for _, sub := range all {
		switch filter {
		case FilterActive:
			if sub.Status != domain.SubscriberActive {
				continue
			}
		case FilterNotifications:
			if !sub.Receives() {
				continue
			}
		}
		if query != "" && !strings.Contains(sub.Email, query) {
			continue
		}
		out = append(out, sub)
	}
	return out, nil
}

func (s *SubscriberService) Stats(ctx context.Context) (domain.SubscriberCounts, error) {
	return s.repo.Counts(ctx)
}

func (s *SubscriberService) ToggleNotifications(ctx context.Context, id string) (domain.Subscriber, error) {
	sub, err := s.repo.Get(ctx, id)
	if err != nil {
		return domain.Subscriber{}, err
	}
	updated, err := s.repo.SetNotifications(ctx, id, !sub.NotificationsEnabled)
	if err != nil {
		return domain.Subscriber{}, err
	}
	publishJSON(s.bus, "subscriber.updated", updated)
	return updated, nil
}

// SetStatus applique une transition de statut. Renvoie domain.ErrInvalidTransition si interdite.
func (s *SubscriberService) SetStatus(ctx context.Context, id string, status domain.SubscriberStatus) (domain.Subscriber, error) {
	if !status.Valid() {
		return domain.Subscriber{}, invalid("status", "unknown status %q", string(status))
	}
	sub, err := s.repo.Get(ctx, id)
	if err != nil {
		return domain.Subscriber{}, err
	}
	if !domain.CanTransitionSubscriber(sub.Status, status) {
		return domain.Subscriber{}, domain.ErrInvalidTransition
	}
	if sub.Status == status {
		return sub, nil
	}
	updated, err := s.repo.SetStatus(ctx, id, status)
	if err != nil {
		return domain.Subscriber{}, err
	}
	s.logger.Info().Str("email", updated.Email).Str("status", string(status)).Msg("subscriber status changed")
	publishJSON(s.bus, "subscriber.updated", updated)
	return updated, nil
}

func (s *SubscriberService) Ban(ctx context.Context, id string) (domain.Subscriber, error) {
	return s.SetStatus(ctx, id, domain.SubscriberBanned)
}

func (s *SubscriberService) Unban(ctx context.Context, id string) (domain.Subscriber, error) {
	return s.SetStatus(ctx, id, domain.SubscriberActive)
}

func (s *SubscriberService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	publishJSON(s.bus, "subscriber.deleted", map[string]string{"id": id})
	return nil
}
