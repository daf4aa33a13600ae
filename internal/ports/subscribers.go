package ports

import (
	"context"

	"github.com/stoop-politics/stoop/internal/domain"
)

type SubscriberRepository interface {
	// Create renvoie ErrConflict si l'email existe déjà.
	Create(ctx context.Context, sub domain.Subscriber) (domain.Subscriber, error)
	Get(ctx context.Context, id string) (domain.Subscriber, error)
	// GetByEmail attend un email déjà normalisé.
	GetByEmail(ctx context.Context, email string) (domain.Subscriber, error)
	// List renvoie les abonnés triés par subscribedAt décroissant.
	List(ctx context.Context) ([]domain.Subscriber, error)
	// ListRecipients renvoie les abonnés actifs avec notifications activées.
	ListRecipients(ctx context.Context) ([]domain.Subscriber, error)
	UpdatePreferences(ctx context.Context, id string, notificationsEnabled bool, status domain.SubscriberStatus) (domain.Subscriber, error)
	SetStatus(ctx context.Context, id string, status domain.SubscriberStatus) (domain.Subscriber, error)
	SetNotifications(ctx context.Context, id string, enabled bool) (domain.Subscriber, error)
	Delete(ctx context.Context, id string) error
	Counts(ctx context.Context) (domain.SubscriberCounts, error)
}
