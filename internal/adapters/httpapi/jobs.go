package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/stoop-politics/stoop/internal/app"
	"github.com/stoop-politics/stoop/internal/httpjson"
)

type JobsHandler struct {
	jobs *app.JobService
}

func NewJobsHandler(jobs *app.JobService) *JobsHandler {
	return &JobsHandler{jobs: jobs}
}

func (h *JobsHandler) Routes(r chi.Router) {
	r.Route("/jobs", func(r chi.Router) {
		r.Post("/", h.create)
		r.Get("/", h.list)
		r.Get("/{id}", h.get)
		r.Post("/{id}/cancel", h.cancel)
	})
}

func (h *JobsHandler) create(w http.ResponseWriter, r *http.Request) {
	var req app.CreateJobRequest
	if err := httpjson.Decode(r, &req); err != nil {
		httpjson.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Type == "" {
		httpjson.WriteError(w, http.StatusBadRequest, "missing type")
		return
	}

	job, err := h.jobs.Create(r.Context(), req)
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	httpjson.Write(w, http.StatusCreated, job)
}

func (h *JobsHandler) list(w http.ResponseWriter, r *http.Request) {
	jobs, err := h.jobs.List(r.Context(), queryInt(r, "limit"))
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	httpjson.Write(w, http.StatusOK, jobs)
}

func (h *JobsHandler) get(w http.ResponseWriter, r *http.Request) {
	job, err := h.jobs.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	httpjson.Write(w, http.StatusOK, job)
}

func (h *JobsHandler) cancel(w http.ResponseWriter, r *http.Request) {
	job, err := h.jobs.Cancel(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	httpjson.Write(w, http.StatusOK, job)
}
