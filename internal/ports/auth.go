package ports

import (
	"context"

	"github.com/stoop-politics/stoop/internal/domain"
)

type AuthProvider interface {
	// CurrentUser résout l'utilisateur associé au token d'accès.
	// Renvoie ErrUnauthenticated si le token est absent ou invalide.
	CurrentUser(ctx context.Context, token string) (domain.User, error)
}
