package httpapi

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/securecookie"
	"github.com/rs/zerolog/hlog"

	"github.com/stoop-politics/stoop/internal/app"
	"github.com/stoop-politics/stoop/internal/domain"
	"github.com/stoop-politics/stoop/internal/httpjson"
)

type SubscribersHandler struct {
	subs    *app.SubscriberService
	cookies *securecookie.SecureCookie
	secure  bool
}

func NewSubscribersHandler(subs *app.SubscriberService, cookies *securecookie.SecureCookie, secure bool) *SubscribersHandler {
	return &SubscribersHandler{subs: subs, cookies: cookies, secure: secure}
}

// PublicRoutes monte les routes d'abonnement, limitées par IP.
func (h *SubscribersHandler) PublicRoutes(r chi.Router, s *Server) {
	r.With(s.RateLimit("subscribe", s.Limits.Subscribe)).Post("/subscribe", h.subscribe)
	r.With(s.RateLimit("verify", s.Limits.Verify)).Post("/verify-subscriber", h.verify)
	notifications := r.With(s.RateLimit("notifications", s.Limits.Notifications))
	notifications.Get("/notifications", h.notificationStatus)
	notifications.Post("/notifications", h.setNotifications)
	// Cible du lien "Unsubscribe" des emails, relayée par la page /unsubscribe du site.
	notifications.Get("/unsubscribe", h.unsubscribe)
}

func (h *SubscribersHandler) AdminRoutes(r chi.Router) {
	r.Route("/subscribers", func(r chi.Router) {
		r.Get("/", h.list)
		r.Get("/stats", h.stats)
		r.Post("/{id}/toggle-notifications", h.toggle)
		r.Put("/{id}/status", h.setStatus)
		r.Delete("/{id}", h.delete)
	})
}

func (h *SubscribersHandler) remember(w http.ResponseWriter, r *http.Request, email string) {
	if err := setSubscriberCookie(w, h.cookies, h.secure, email); err != nil {
		hlog.FromRequest(r).Warn().Err(err).Msg("subscriber cookie not set")
	}
}

type subscribeRequest struct {
	Email    string `json:"email"`
	NotifyMe bool   `json:"notifyMe"`
}

func (h *SubscribersHandler) subscribe(w http.ResponseWriter, r *http.Request) {
	var req subscribeRequest
	if err := httpjson.Decode(r, &req); err != nil {
		httpjson.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	res, err := h.subs.Subscribe(r.Context(), req.Email, req.NotifyMe)
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	h.remember(w, r, res.Subscriber.Email)
	status := http.StatusCreated
	if res.IsReturning {
		status = http.StatusOK
	}
	httpjson.Write(w, status, res)
}

type emailRequest struct {
	Email string `json:"email"`
}

type verifyResponse struct {
	Verified             bool   `json:"verified"`
	Email                string `json:"email"`
	NotificationsEnabled bool   `json:"notificationsEnabled"`
}

func (h *SubscribersHandler) verify(w http.ResponseWriter, r *http.Request) {
	var req emailRequest
	if err := httpjson.Decode(r, &req); err != nil {
		httpjson.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	sub, err := h.subs.Verify(r.Context(), req.Email)
	if errors.Is(err, app.ErrNotFound) {
		httpjson.WriteError(w, http.StatusNotFound, "Email not found. Please subscribe first.")
		return
	}
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	h.remember(w, r, sub.Email)
	httpjson.Write(w, http.StatusOK, verifyResponse{Verified: true, Email: sub.Email, NotificationsEnabled: sub.NotificationsEnabled})
}

type notificationsRequest struct {
	Email   string `json:"email"`
	Enabled bool   `json:"enabled"`
}

type notificationsResponse struct {
	Email                string                  `json:"email"`
	NotificationsEnabled bool                    `json:"notificationsEnabled"`
	Status               domain.SubscriberStatus `json:"status"`
}

func (h *SubscribersHandler) setNotifications(w http.ResponseWriter, r *http.Request) {
	var req notificationsRequest
	if err := httpjson.Decode(r, &req); err != nil {
		httpjson.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	sub, err := h.subs.SetNotifications(r.Context(), req.Email, req.Enabled)
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	httpjson.Write(w, http.StatusOK, notificationsResponse{Email: sub.Email, NotificationsEnabled: sub.NotificationsEnabled, Status: sub.Status})
}

// unsubscribe coupe les notifications ; le statut d'abonné est conservé.
func (h *SubscribersHandler) unsubscribe(w http.ResponseWriter, r *http.Request) {
	sub, err := h.subs.SetNotifications(r.Context(), r.URL.Query().Get("email"), false)
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	httpjson.Write(w, http.StatusOK, notificationsResponse{Email: sub.Email, NotificationsEnabled: sub.NotificationsEnabled, Status: sub.Status})
}

func (h *SubscribersHandler) notificationStatus(w http.ResponseWriter, r *http.Request) {
	sub, err := h.subs.NotificationStatus(r.Context(), r.URL.Query().Get("email"))
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	httpjson.Write(w, http.StatusOK, notificationsResponse{Email: sub.Email, NotificationsEnabled: sub.NotificationsEnabled, Status: sub.Status})
}

func (h *SubscribersHandler) list(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	subs, err := h.subs.List(r.Context(), app.SubscriberFilter(q.Get("filter")), q.Get("q"))
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	httpjson.Write(w, http.StatusOK, subs)
}

func (h *SubscribersHandler) stats(w http.ResponseWriter, r *http.Request) {
	c, err := h.subs.Stats(r.Context())
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	httpjson.Write(w, http.StatusOK, c)
}

func (h *SubscribersHandler) toggle(w http.ResponseWriter, r *http.Request) {
	sub, err := h.subs.ToggleNotifications(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	httpjson.Write(w, http.StatusOK, sub)
}

type statusRequest struct {
	Status domain.SubscriberStatus `json:"status"`
}

func (h *SubscribersHandler) setStatus(w http.ResponseWriter, r *http.Request) {
	var req statusRequest
	if err := httpjson.Decode(r, &req); err != nil {
		httpjson.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	sub, err := h.subs.SetStatus(r.Context(), chi.URLParam(r, "id"), req.Status)
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	httpjson.Write(w, http.StatusOK, sub)
}

func (h *SubscribersHandler) delete(w http.ResponseWriter, r *http.Request) {
	if err := h.subs.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeAppError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
