// Package auth vérifie localement les tokens d'accès émis par le backend d'authentification,
// sans aller-retour réseau, à partir du secret JWT partagé (HS256).
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stoop-politics/stoop/internal/domain"
	"github.com/stoop-politics/stoop/internal/ports"
)

// Claims reprend les champs utiles d'un access token Supabase.
type Claims struct {
	Email string `json:"email"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

type JWTVerifier struct {
	secret []byte
	// roles autorisés ; vide = tout utilisateur authentifié.
	roles map[string]struct{}
	now   func() time.Time
}

type Option func(*JWTVerifier)

// WithRoles restreint l'accès aux rôles listés (claim "role").
func WithRoles(roles ...string) Option {
	return func(v *JWTVerifier) {
		for _, r := range roles {
			v.roles[r] = struct{}{}
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(v *JWTVerifier) { v.now = now }
}

func NewJWTVerifier(secret []byte, opts ...Option) *JWTVerifier {
	v := &JWTVerifier{secret: secret, roles: map[string]struct{}{}, now: time.Now}
	for _, o := range opts {
		o(v)
	}
	return v
}

// CurrentUser implémente ports.AuthProvider.
func (v *JWTVerifier) CurrentUser(ctx context.Context, token string) (domain.User, error) {
	claims, err := v.Verify(token)
	if err != nil {
		return domain.User{}, fmt.Errorf("%w: %v", ports.ErrUnauthenticated, err)
	}
	return domain.User{ID: claims.Subject, Email: claims.Email, Role: claims.Role}, nil
}

// Verify parse et valide le token. Tout préfixe "Bearer " est ignoré.
func (v *JWTVerifier) Verify(token string) (*Claims, error) {
	token = strings.TrimSpace(strings.TrimPrefix(token, "Bearer "))
	if token == "" {
		return nil, errors.New("missing token")
	}
	if len(v.secret) == 0 {
		return nil, errors.New("missing secret")
	}
	claims := &Claims{}
	tok, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return v.secret, nil
	}, jwt.WithExpirationRequired(), jwt.WithTimeFunc(v.now))
	if err != nil {
		return nil, fmt.Errorf("could not parse token: %w", err)
	}
	if !tok.Valid {
		return nil, errors.New("invalid token")
	}
	if claims.Subject == "" {
		return nil, errors.New("token has no subject")
	}
	if len(v.roles) > 0 {
		if _, ok := v.roles[claims.Role]; !ok {
			return nil, fmt.Errorf("role %q not allowed", claims.Role)
		}
	}
	return claims, nil
}

// Sign produit un token HS256, utilisé par la CLI et les tests.
func Sign(secret []byte, userID, email, role string, ttl time.Duration, now time.Time) (string, error) {
	if len(secret) == 0 {
		return "", errors.New("missing secret")
	}
	claims := Claims{
		Email: email,
		Role:  role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	if err != nil {
		return "", fmt.Errorf("error signing token: %w", err)
	}
	return s, nil
}
