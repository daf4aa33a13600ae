package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/stoop-politics/stoop/internal/app"
	"github.com/stoop-politics/stoop/internal/httpjson"
)

type InboxHandler struct {
	inbox *app.InboxService
}

func NewInboxHandler(inbox *app.InboxService) *InboxHandler {
	return &InboxHandler{inbox: inbox}
}

// PublicRoutes monte le dépôt anonyme, limité par IP.
func (h *InboxHandler) PublicRoutes(r chi.Router, s *Server) {
	r.With(s.RateLimit("inbox", s.Limits.Inbox)).Post("/inbox", h.submit)
}

func (h *InboxHandler) AdminRoutes(r chi.Router) {
	r.Get("/inbox", h.list)
}

type inboxRequest struct {
	Message string `json:"message"`
}

func (h *InboxHandler) submit(w http.ResponseWriter, r *http.Request) {
	var req inboxRequest
	if err := httpjson.Decode(r, &req); err != nil {
		httpjson.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	msg, err := h.inbox.Submit(r.Context(), req.Message)
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	httpjson.Write(w, http.StatusCreated, msg)
}

func (h *InboxHandler) list(w http.ResponseWriter, r *http.Request) {
	msgs, err := h.inbox.List(r.Context(), queryInt(r, "limit"))
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	httpjson.Write(w, http.StatusOK, msgs)
}
