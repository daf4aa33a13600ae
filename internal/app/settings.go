package app

import (
	"context"
	"strings"

	"github.com/stoop-politics/stoop/internal/domain"
	"github.com/stoop-politics/stoop/internal/ports"
)

type SettingsService struct {
	repo ports.SettingsRepository
	bus  ports.EventBus
}

func NewSettingsService(repo ports.SettingsRepository, bus ports.EventBus) *SettingsService {
	return &SettingsService{repo: repo, bus: bus}
}

func (s *SettingsService) Get(ctx context.Context) (domain.Settings, error) {
	return s.repo.Get(ctx)
}

func (s *SettingsService) Put(ctx context.Context, settings domain.Settings) (domain.Settings, error) {
	def := domain.DefaultSettings()
	settings.SiteName = strings.TrimSpace(settings.SiteName)
	settings.SiteURL = strings.TrimRight(strings.TrimSpace(settings.SiteURL), "/")
	if settings.SiteName == "" {
		settings.SiteName = def.SiteName
	}
	if settings.SiteURL == "" {
		settings.SiteURL = def.SiteURL
	}
	if settings.SenderEmail == "" {
		settings.SenderEmail = def.SenderEmail
	}
	if _, err := validEmail(settings.SenderEmail); err != nil {
		return domain.Settings{}, invalid("senderEmail", "invalid sender email")
	}
	if settings.SenderName == "" {
		settings.SenderName = def.SenderName
	}
	if settings.SendIntervalMs < 0 {
		return domain.Settings{}, invalid("sendIntervalMs", "interval must not be negative")
	}
	if settings.MaxWorkers <= 0 {
		settings.MaxWorkers = def.MaxWorkers
	}
	saved, err := s.repo.Put(ctx, settings)
	if err != nil {
		return domain.Settings{}, err
	}
	publishJSON(s.bus, "settings.updated", saved)
	return saved, nil
}
