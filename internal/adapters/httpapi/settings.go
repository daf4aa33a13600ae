package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/stoop-politics/stoop/internal/app"
	"github.com/stoop-politics/stoop/internal/domain"
	"github.com/stoop-politics/stoop/internal/httpjson"
)

type SettingsHandler struct {
	settings *app.SettingsService
	onPut    func(domain.Settings)
}

func NewSettingsHandler(settings *app.SettingsService, onPut func(domain.Settings)) *SettingsHandler {
	return &SettingsHandler{settings: settings, onPut: onPut}
}

func (h *SettingsHandler) Routes(r chi.Router) {
	r.Get("/settings", h.get)
	r.Put("/settings", h.put)
}

func (h *SettingsHandler) get(w http.ResponseWriter, r *http.Request) {
	s, err := h.settings.Get(r.Context())
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	httpjson.Write(w, http.StatusOK, s)
}

func (h *SettingsHandler) put(w http.ResponseWriter, r *http.Request) {
	// Champs absents : valeurs courantes conservées.
	current, err := h.settings.Get(r.Context())
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	if err := httpjson.Decode(r, &current); err != nil {
		httpjson.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	updated, err := h.settings.Put(r.Context(), current)
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	if h.onPut != nil {
		h.onPut(updated)
	}
	httpjson.Write(w, http.StatusOK, updated)
}
