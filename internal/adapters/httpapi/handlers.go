package httpapi

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog/hlog"

	"github.com/stoop-politics/stoop/internal/app"
	"github.com/stoop-politics/stoop/internal/buildinfo"
	"github.com/stoop-politics/stoop/internal/domain"
	"github.com/stoop-politics/stoop/internal/httpjson"
)

const (
	defaultRequestTimeout = 30 * time.Second
	broadcastTimeout      = 15 * time.Minute
)

const (
	msgBanned        = "This email has been blocked"
	msgNotConfigured = "Email service not configured"
	msgRateLimited   = "Too many requests. Please try again in a minute."
	msgUnauthorized  = "Unauthorized. Please log in as an admin."
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	httpjson.Write(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	httpjson.Write(w, http.StatusOK, buildinfo.Current())
}

func (s *Server) handleNotificationsHealth(w http.ResponseWriter, r *http.Request) {
	rep := s.Health.Check(r.Context())
	status := http.StatusOK
	if rep.Status == app.HealthError {
		status = http.StatusInternalServerError
	}
	httpjson.Write(w, status, rep)
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	user, _ := UserFrom(r.Context())
	httpjson.Write(w, http.StatusOK, user)
}

// writeAppError traduit les erreurs applicatives en statut HTTP.
func writeAppError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case app.IsValidation(err):
		httpjson.WriteError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, app.ErrNotFound):
		httpjson.WriteError(w, http.StatusNotFound, "not found")
	case errors.Is(err, app.ErrBanned):
		httpjson.WriteError(w, http.StatusForbidden, msgBanned)
	case errors.Is(err, domain.ErrAlreadyPublished),
		errors.Is(err, domain.ErrInvalidTransition),
		errors.Is(err, app.ErrConflict):
		httpjson.WriteError(w, http.StatusConflict, err.Error())
	case errors.Is(err, app.ErrRateLimited):
		httpjson.WriteError(w, http.StatusTooManyRequests, msgRateLimited)
	case errors.Is(err, app.ErrEmailNotConfigured):
		httpjson.WriteError(w, http.StatusServiceUnavailable, msgNotConfigured)
	default:
		hlog.FromRequest(r).Error().Err(err).Msg("request failed")
		httpjson.WriteError(w, http.StatusInternalServerError, "internal error")
	}
}

func queryInt(r *http.Request, key string) int {
	n, _ := strconv.Atoi(r.URL.Query().Get(key))
	return n
}

func accessLogFn(r *http.Request, status, size int, duration time.Duration) {
	logger := hlog.FromRequest(r)
	logger.Info().
		Int("status", status).
		Int("size", size).
		Dur("duration", duration).
		Str("method", r.Method).
		Str("path", r.URL.Path).
		Msg("http")
}
