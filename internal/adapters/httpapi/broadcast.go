package httpapi

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/stoop-politics/stoop/internal/app"
	"github.com/stoop-politics/stoop/internal/domain"
	"github.com/stoop-politics/stoop/internal/httpjson"
)

type BroadcastHandler struct {
	notifier *app.NotificationService
	jobs     *app.JobService
}

func NewBroadcastHandler(notifier *app.NotificationService, jobs *app.JobService) *BroadcastHandler {
	return &BroadcastHandler{notifier: notifier, jobs: jobs}
}

func (h *BroadcastHandler) Routes(r chi.Router) {
	r.Post("/broadcast", h.broadcast)
}

type broadcastResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	domain.BroadcastResult
}

// broadcast envoie immédiatement ; ?async=1 passe par la file de jobs.
func (h *BroadcastHandler) broadcast(w http.ResponseWriter, r *http.Request) {
	var req app.BroadcastParams
	if err := httpjson.Decode(r, &req); err != nil {
		httpjson.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	if async := r.URL.Query().Get("async"); (async == "1" || async == "true") && h.jobs != nil {
		job, err := h.jobs.Enqueue(r.Context(), domain.JobBroadcast, req)
		if err != nil {
			writeAppError(w, r, err)
			return
		}
		httpjson.Write(w, http.StatusAccepted, job)
		return
	}

	res, err := h.notifier.Broadcast(r.Context(), req.Subject, req.Message, nil)
	if errors.Is(err, app.ErrAllSendsFailed) {
		httpjson.Write(w, http.StatusBadGateway, struct {
			broadcastResponse
			Error string `json:"error"`
		}{broadcastResponse{Message: "All emails failed to send", BroadcastResult: res}, err.Error()})
		return
	}
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	msg := fmt.Sprintf("Sent to %d of %d subscribers", res.Sent, res.Total)
	if res.Total == 0 {
		msg = "No subscribers with notifications enabled"
	}
	httpjson.Write(w, http.StatusOK, broadcastResponse{Success: true, Message: msg, BroadcastResult: res})
}
