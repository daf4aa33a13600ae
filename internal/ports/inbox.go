package ports

import (
	"context"

	"github.com/stoop-politics/stoop/internal/domain"
)

type InboxRepository interface {
	Create(ctx context.Context, msg domain.InboxMessage) (domain.InboxMessage, error)
	// List renvoie les messages les plus récents d'abord.
	List(ctx context.Context, limit int) ([]domain.InboxMessage, error)
}
