package httpapi

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/securecookie"

	"github.com/stoop-politics/stoop/internal/app"
	"github.com/stoop-politics/stoop/internal/domain"
	"github.com/stoop-politics/stoop/internal/httpjson"
	"github.com/stoop-politics/stoop/internal/transcript"
)

type EpisodesHandler struct {
	episodes *app.EpisodeService
	settings *app.SettingsService
	cookies  *securecookie.SecureCookie
}

func NewEpisodesHandler(episodes *app.EpisodeService, settings *app.SettingsService, cookies *securecookie.SecureCookie) *EpisodesHandler {
	return &EpisodesHandler{episodes: episodes, settings: settings, cookies: cookies}
}

func (h *EpisodesHandler) PublicRoutes(r chi.Router) {
	r.Route("/episodes", func(r chi.Router) {
		r.Get("/", h.listPublished)
		r.Get("/{id}", h.listen)
		r.Get("/{id}/active", h.active)
		r.Get("/{id}/share", h.share)
		r.Get("/{id}/segments/{segmentID}/seek", h.seek)
	})
}

func (h *EpisodesHandler) AdminRoutes(r chi.Router) {
	r.Route("/episodes", func(r chi.Router) {
		r.Get("/", h.list)
		r.Post("/", h.create)
		r.Get("/{id}", h.get)
		r.Put("/{id}", h.update)
		r.Post("/{id}/publish", h.publish)
		r.Post("/{id}/notify", h.notify)
		r.Put("/{id}/transcript", h.importTranscript)
	})
	r.Patch("/segments/{id}", h.updateSegment)
}

func (h *EpisodesHandler) listPublished(w http.ResponseWriter, r *http.Request) {
	eps, err := h.episodes.ListPublished(r.Context())
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	httpjson.Write(w, http.StatusOK, eps)
}

type listenResponse struct {
	app.ListenView
	Subscriber *subscriberSession `json:"subscriber"`
}

// listen sert aussi /episodes/latest ; ?t= fixe le point de départ.
func (h *EpisodesHandler) listen(w http.ResponseWriter, r *http.Request) {
	t, hasT := transcript.ParseDeepLinkValue(r.URL.Query().Get(transcript.DeepLinkParam))
	view, err := h.episodes.Listen(r.Context(), chi.URLParam(r, "id"), t, hasT)
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	httpjson.Write(w, http.StatusOK, listenResponse{ListenView: view, Subscriber: readSubscriberCookie(r, h.cookies)})
}

type activeResponse struct {
	Time    float64                   `json:"t"`
	Active  bool                      `json:"active"`
	Index   int                       `json:"index"`
	Segment *domain.TranscriptSegment `json:"segment"`
}

func (h *EpisodesHandler) active(w http.ResponseWriter, r *http.Request) {
	t, ok := transcript.ParseDeepLinkValue(r.URL.Query().Get(transcript.DeepLinkParam))
	if !ok {
		httpjson.WriteError(w, http.StatusBadRequest, "t must be a number of seconds")
		return
	}
	seg, idx, found, err := h.episodes.ActiveAt(r.Context(), chi.URLParam(r, "id"), t)
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	res := activeResponse{Time: t, Active: found, Index: idx}
	if found {
		res.Segment = &seg
	}
	httpjson.Write(w, http.StatusOK, res)
}

type shareResponse struct {
	Time      float64 `json:"t"`
	Timestamp string  `json:"timestamp"`
	URL       string  `json:"url"`
}

// baseURL renvoie ?url= si fourni, sinon la page de l'épisode sur le site.
func (h *EpisodesHandler) baseURL(r *http.Request, episodeID string) string {
	if u := strings.TrimSpace(r.URL.Query().Get("url")); u != "" {
		return u
	}
	site := domain.DefaultSettings().SiteURL
	if h.settings != nil {
		if st, err := h.settings.Get(r.Context()); err == nil {
			site = st.SiteURL
		}
	}
	return strings.TrimRight(site, "/") + "/?episode=" + url.QueryEscape(episodeID)
}

func (h *EpisodesHandler) share(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	t, ok := transcript.ParseDeepLinkValue(r.URL.Query().Get(transcript.DeepLinkParam))
	if !ok {
		httpjson.WriteError(w, http.StatusBadRequest, "t must be a number of seconds")
		return
	}
	ep, err := h.episodes.GetPublished(r.Context(), id)
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	t = transcript.ClampTime(t, ep.Duration())
	link, err := transcript.ShareableLink(h.baseURL(r, ep.ID), t)
	if err != nil {
		httpjson.WriteError(w, http.StatusBadRequest, "invalid url")
		return
	}
	httpjson.Write(w, http.StatusOK, shareResponse{Time: t, Timestamp: transcript.FormatTimestamp(t), URL: link})
}

func (h *EpisodesHandler) seek(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	t, link, err := h.episodes.Seek(r.Context(), id, chi.URLParam(r, "segmentID"), h.baseURL(r, id))
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	httpjson.Write(w, http.StatusOK, shareResponse{Time: t, Timestamp: transcript.FormatTimestamp(t), URL: link})
}

func (h *EpisodesHandler) list(w http.ResponseWriter, r *http.Request) {
	eps, err := h.episodes.List(r.Context(), queryInt(r, "limit"))
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	httpjson.Write(w, http.StatusOK, eps)
}

func (h *EpisodesHandler) create(w http.ResponseWriter, r *http.Request) {
	var in app.EpisodeInput
	if err := httpjson.Decode(r, &in); err != nil {
		httpjson.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	ep, err := h.episodes.Create(r.Context(), in)
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	httpjson.Write(w, http.StatusCreated, ep)
}

type adminEpisodeResponse struct {
	domain.Episode
	Segments []domain.TranscriptSegment `json:"segments"`
}

func (h *EpisodesHandler) get(w http.ResponseWriter, r *http.Request) {
	ep, err := h.episodes.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	segs, err := h.episodes.Transcript(r.Context(), ep.ID)
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	httpjson.Write(w, http.StatusOK, adminEpisodeResponse{Episode: ep, Segments: segs})
}

func (h *EpisodesHandler) update(w http.ResponseWriter, r *http.Request) {
	var in app.EpisodeInput
	if err := httpjson.Decode(r, &in); err != nil {
		httpjson.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	ep, err := h.episodes.Update(r.Context(), chi.URLParam(r, "id"), in)
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	httpjson.Write(w, http.StatusOK, ep)
}

func (h *EpisodesHandler) publish(w http.ResponseWriter, r *http.Request) {
	res, err := h.episodes.Publish(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	httpjson.Write(w, http.StatusOK, res)
}

func (h *EpisodesHandler) notify(w http.ResponseWriter, r *http.Request) {
	job, err := h.episodes.QueueNotify(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	httpjson.Write(w, http.StatusAccepted, job)
}

type importTranscriptRequest struct {
	Segments []app.SegmentInput `json:"segments"`
}

func (h *EpisodesHandler) importTranscript(w http.ResponseWriter, r *http.Request) {
	var req importTranscriptRequest
	if err := httpjson.Decode(r, &req); err != nil {
		httpjson.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	segs, err := h.episodes.ImportTranscript(r.Context(), chi.URLParam(r, "id"), req.Segments)
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	httpjson.Write(w, http.StatusOK, segs)
}

type updateSegmentRequest struct {
	Field domain.SegmentField `json:"field"`
	Value string              `json:"value"`
}

func (h *EpisodesHandler) updateSegment(w http.ResponseWriter, r *http.Request) {
	var req updateSegmentRequest
	if err := httpjson.Decode(r, &req); err != nil {
		httpjson.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	seg, err := h.episodes.UpdateSegment(r.Context(), chi.URLParam(r, "id"), req.Field, req.Value)
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	httpjson.Write(w, http.StatusOK, seg)
}
