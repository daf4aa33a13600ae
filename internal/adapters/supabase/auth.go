package supabase

import (
	"context"
	"strings"

	"github.com/supabase-community/gotrue-go/types"

	"github.com/stoop-politics/stoop/internal/domain"
	"github.com/stoop-politics/stoop/internal/ports"
)

// AuthProvider valide un token d'accès auprès de GoTrue (/auth/v1/user).
type AuthProvider struct {
	c *Client
}

func NewAuthProvider(c *Client) *AuthProvider {
	return &AuthProvider{c: c}
}

func (a *AuthProvider) CurrentUser(ctx context.Context, token string) (domain.User, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return domain.User{}, ports.ErrUnauthenticated
	}
	resp, err := a.c.sdk.Auth.WithToken(token).GetUser()
	if err != nil {
		a.c.logger.Debug().Err(err).Msg("gotrue rejected token")
		return domain.User{}, ports.ErrUnauthenticated
	}
	return userFrom(resp.User), nil
}

func userFrom(u types.User) domain.User {
	return domain.User{ID: u.ID.String(), Email: u.Email, Role: u.Role}
}
