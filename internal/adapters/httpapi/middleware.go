package httpapi

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strconv"
	"strings"

	"github.com/rs/zerolog/hlog"

	"github.com/stoop-politics/stoop/internal/domain"
	"github.com/stoop-politics/stoop/internal/httpjson"
	"github.com/stoop-politics/stoop/internal/ports"
)

// AccessTokenCookie porte le token d'accès posé par le client d'auth.
const AccessTokenCookie = "sb-access-token"

type ctxKey int

const userKey ctxKey = iota

func UserFrom(ctx context.Context) (domain.User, bool) {
	u, ok := ctx.Value(userKey).(domain.User)
	return u, ok
}

func accessToken(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		if tok, ok := strings.CutPrefix(h, "Bearer "); ok {
			return strings.TrimSpace(tok)
		}
	}
	if c, err := r.Cookie(AccessTokenCookie); err == nil {
		return c.Value
	}
	return ""
}

// RequireAdmin exige un utilisateur authentifié. Tout utilisateur connu du provider est admin.
func (s *Server) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.Auth == nil {
			httpjson.WriteError(w, http.StatusUnauthorized, msgUnauthorized)
			return
		}
		user, err := s.Auth.CurrentUser(r.Context(), accessToken(r))
		if err != nil {
			if !errors.Is(err, ports.ErrUnauthenticated) {
				hlog.FromRequest(r).Error().Err(err).Msg("auth provider failed")
			}
			httpjson.WriteError(w, http.StatusUnauthorized, msgUnauthorized)
			return
		}
		ctx := context.WithValue(r.Context(), userKey, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// clientIP lit l'adresse posée par middleware.RealIP, sans le port.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// RateLimit applique rule par IP, clé "scope:ip".
func (s *Server) RateLimit(scope string, rule Rule) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := clientIP(r)
			if !s.Limiter.Check(scope+":"+ip, rule.Max, rule.Window) {
				hlog.FromRequest(r).Warn().Str("scope", scope).Str("ip", ip).Msg("rate limited")
				if secs := int(rule.Window.Seconds()); secs > 0 {
					w.Header().Set("Retry-After", strconv.Itoa(secs))
				}
				httpjson.WriteError(w, http.StatusTooManyRequests, msgRateLimited)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
