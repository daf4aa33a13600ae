package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/stoop-politics/stoop/internal/domain"
	"github.com/stoop-politics/stoop/internal/ports"
	"golang.org/x/time/rate"
)

// ProgressFunc est appelée après chaque destinataire traité.
type ProgressFunc func(done, total int)

type NotificationService struct {
	logger      zerolog.Logger
	subscribers ports.SubscriberRepository
	episodes    ports.EpisodeRepository
	dispatcher  ports.Dispatcher
	settings    ports.SettingsRepository
	now         func() time.Time
	// interval remplace Settings.SendInterval quand > 0 (config ou tests).
	interval time.Duration
	gate     *SendGate
}

type NotificationOption func(*NotificationService)

func WithNotificationClock(now func() time.Time) NotificationOption {
	return func(s *NotificationService) { s.now = now }
}

func WithSendInterval(d time.Duration) NotificationOption {
	return func(s *NotificationService) { s.interval = d }
}

// WithSendGate partage une barrière entre plusieurs services (un par défaut, capacité 1).
func WithSendGate(g *SendGate) NotificationOption {
	return func(s *NotificationService) {
		if g != nil {
			s.gate = g
		}
	}
}

func NewNotificationService(logger zerolog.Logger, subscribers ports.SubscriberRepository, episodes ports.EpisodeRepository, dispatcher ports.Dispatcher, settings ports.SettingsRepository, opts ...NotificationOption) *NotificationService {
	s := &NotificationService{
		logger:      logger.With().Str("component", "notifications").Logger(),
		subscribers: subscribers,
		episodes:    episodes,
		dispatcher:  dispatcher,
		settings:    settings,
		now:         time.Now,
		gate:        NewSendGate(1),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

func (s *NotificationService) Configured() bool {
	return s.dispatcher != nil && s.dispatcher.Configured()
}

func (s *NotificationService) loadSettings(ctx context.Context) domain.Settings {
	if s.settings == nil {
		return domain.DefaultSettings()
	}
	st, err := s.settings.Get(ctx)
	if err != nil {
		s.logger.Warn().Err(err).Msg("settings unavailable, using defaults")
		return domain.DefaultSettings()
	}
	return st
}

func (s *NotificationService) sendInterval(st domain.Settings) time.Duration {
	if s.interval > 0 {
		return s.interval
	}
	return st.SendInterval()
}

// Broadcast envoie un message libre à tous les abonnés actifs avec notifications.
func (s *NotificationService) Broadcast(ctx context.Context, subject, message string, progress ProgressFunc) (domain.BroadcastResult, error) {
	subject = strings.TrimSpace(subject)
	if subject == "" {
		return domain.BroadcastResult{}, invalid("subject", "subject is required")
	}
	if strings.TrimSpace(message) == "" {
		return domain.BroadcastResult{}, invalid("message", "message is required")
	}
	if !s.Configured() {
		return domain.BroadcastResult{}, ErrEmailNotConfigured
	}
	st := s.loadSettings(ctx)
	build := func(to string) (ports.Email, error) {
		html, text, err := broadcastEmail(st, to, subject, message, s.now())
		if err != nil {
			return ports.Email{}, err
		}
		return ports.Email{To: to, Subject: subject, HTML: html, Text: text}, nil
	}
	return s.fanOut(ctx, "broadcast", st, build, progress)
}

// NotifyEpisode annonce un épisode publié aux abonnés.
func (s *NotificationService) NotifyEpisode(ctx context.Context, episodeID string, progress ProgressFunc) (domain.BroadcastResult, error) {
	if strings.TrimSpace(episodeID) == "" {
		return domain.BroadcastResult{}, invalid("episodeId", "episode id is required")
	}
	if !s.Configured() {
		return domain.BroadcastResult{}, ErrEmailNotConfigured
	}
	ep, err := s.episodes.Get(ctx, episodeID)
	if err != nil {
		return domain.BroadcastResult{}, err
	}
	if !ep.Published {
		return domain.BroadcastResult{}, invalid("episodeId", "episode is not published")
	}
	st := s.loadSettings(ctx)
	build := func(to string) (ports.Email, error) {
		subject, html, text, err := episodeEmail(st, to, ep, s.now())
		if err != nil {
			return ports.Email{}, err
		}
		return ports.Email{To: to, Subject: subject, HTML: html, Text: text}, nil
	}
	return s.fanOut(ctx, "notify.episode", st, build, progress)
}

// SendWelcome envoie l'email de bienvenue. Sans provider configuré, l'envoi est ignoré.
func (s *NotificationService) SendWelcome(ctx context.Context, email string, notifyMe bool) (bool, error) {
	email = domain.NormalizeEmail(email)
	if email == "" {
		return false, invalid("email", "email is required")
	}
	if !s.Configured() {
		s.logger.Info().Str("email", email).Msg("welcome email skipped, email service not configured")
		return false, nil
	}
	st := s.loadSettings(ctx)
	subject, html, text, err := welcomeEmail(st, email, notifyMe, s.now())
	if err != nil {
		return false, err
	}
	msg := fromSettings(st, ports.Email{To: email, Subject: subject, HTML: html, Text: text})
	if err := s.dispatcher.Send(ctx, msg); err != nil {
		return false, fmt.Errorf("send welcome: %w", err)
	}
	s.logger.Info().Str("email", email).Msg("welcome email sent")
	return true, nil
}

// fromSettings pose l'expéditeur des réglages admin sur le message.
func fromSettings(st domain.Settings, msg ports.Email) ports.Email {
	msg.From = strings.TrimSpace(st.SenderEmail)
	msg.FromName = strings.TrimSpace(st.SenderName)
	return msg
}

func (s *NotificationService) fanOut(ctx context.Context, kind string, st domain.Settings, build func(to string) (ports.Email, error), progress ProgressFunc) (domain.BroadcastResult, error) {
	recipients, err := s.subscribers.ListRecipients(ctx)
	if err != nil {
		return domain.BroadcastResult{}, fmt.Errorf("list recipients: %w", err)
	}
	res := domain.BroadcastResult{Total: len(recipients)}
	if len(recipients) == 0 {
		s.logger.Info().Str("kind", kind).Msg("no subscribers to notify")
		return res, nil
	}

	if err := s.gate.Enter(ctx); err != nil {
		return res, err
	}
	defer s.gate.Leave()

	// Un envoi par intervalle : le premier part immédiatement.
	limit := rate.Inf
	if d := s.sendInterval(st); d > 0 {
		limit = rate.Every(d)
	}
	pacer := rate.NewLimiter(limit, 1)

	for i, sub := range recipients {
		if err := pacer.Wait(ctx); err != nil {
			return res, err
		}
		msg, err := build(sub.Email)
		if err == nil {
			err = s.dispatcher.Send(ctx, fromSettings(st, msg))
		}
		if err != nil {
			s.logger.Warn().Err(err).Str("kind", kind).Str("email", sub.Email).Msg("send failed")
			res.RecordFailure(sub.Email + ": " + err.Error())
		} else {
			res.RecordSuccess()
		}
		if progress != nil {
			progress(i+1, len(recipients))
		}
	}

	s.logger.Info().Str("kind", kind).Int("sent", res.Sent).Int("failed", res.Failed).Msg("batch completed")
	if res.AllFailed() {
		first := ""
		if len(res.PartialErrors) > 0 {
			first = res.PartialErrors[0]
		}
		return res, fmt.Errorf("%w. First error: %s", ErrAllSendsFailed, first)
	}
	return res, nil
}
