package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/securecookie"
	"github.com/rs/zerolog"

	"github.com/stoop-politics/stoop/internal/adapters/sqlite"
	"github.com/stoop-politics/stoop/internal/app"
	"github.com/stoop-politics/stoop/internal/domain"
	"github.com/stoop-politics/stoop/internal/ports"
	"github.com/stoop-politics/stoop/internal/ratelimit"
)

const adminToken = "admin-token"

type fakeAuth struct{}

func (fakeAuth) CurrentUser(ctx context.Context, token string) (domain.User, error) {
	if token != adminToken {
		return domain.User{}, ports.ErrUnauthenticated
	}
	return domain.User{ID: "u1", Email: "host@stooppolitics.com"}, nil
}

type fakeDispatcher struct {
	mu         sync.Mutex
	configured bool
	sent       []ports.Email
}

func (d *fakeDispatcher) Configured() bool { return d.configured }

func (d *fakeDispatcher) Send(ctx context.Context, msg ports.Email) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.sent = append(d.sent, msg)
	return nil
}

type testServer struct {
	handler    http.Handler
	dispatcher *fakeDispatcher
	subs       *app.SubscriberService
	settingsCh chan domain.Settings
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	db, err := sqlite.Open(context.Background(), ":memory:")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	logger := zerolog.Nop()
	subsRepo := sqlite.NewSubscribersRepository(db.SQL)
	epRepo := sqlite.NewEpisodesRepository(db.SQL)
	segRepo := sqlite.NewTranscriptsRepository(db.SQL)
	settingsRepo := sqlite.NewSettingsRepository(db.SQL)
	jobs := app.NewJobService(sqlite.NewJobsRepository(db.SQL), nil)
	dispatcher := &fakeDispatcher{configured: true}

	ts := &testServer{
		dispatcher: dispatcher,
		subs:       app.NewSubscriberService(logger, subsRepo, jobs, nil),
		settingsCh: make(chan domain.Settings, 1),
	}
	srv := NewServer(logger, Deps{
		Episodes:    app.NewEpisodeService(logger, epRepo, segRepo, settingsRepo, jobs, nil),
		Subscribers: ts.subs,
		Notifier:    app.NewNotificationService(logger, subsRepo, epRepo, dispatcher, settingsRepo, app.WithSendInterval(time.Nanosecond)),
		Jobs:        jobs,
		Settings:    app.NewSettingsService(settingsRepo, nil),
		Health:      app.NewHealthService(subsRepo, dispatcher),
		Inbox:       app.NewInboxService(logger, sqlite.NewInboxRepository(db.SQL), nil),
		Auth:        fakeAuth{},
		Limiter:     ratelimit.NewFixedWindow(),
		Limits: Limits{
			Subscribe:     Rule{Max: 3, Window: time.Minute},
			Verify:        Rule{Max: 10, Window: time.Minute},
			Notifications: Rule{Max: 10, Window: time.Minute},
			Inbox:         Rule{Max: 3, Window: time.Minute},
		},
		Cookies:           securecookie.New(securecookie.GenerateRandomKey(32), nil),
		OnSettingsUpdated: func(s domain.Settings) { ts.settingsCh <- s },
	})
	ts.handler = srv.Router()
	return ts
}

type call struct {
	method string
	path   string
	body   any
	admin  bool
	ip     string
	cookie *http.Cookie
}

func (ts *testServer) do(t *testing.T, c call) *httptest.ResponseRecorder {
	t.Helper()
	var body bytes.Buffer
	if c.body != nil {
		if err := json.NewEncoder(&body).Encode(c.body); err != nil {
			t.Fatalf("encode: %v", err)
		}
	}
	req := httptest.NewRequest(c.method, c.path, &body)
	req.Header.Set("Content-Type", "application/json")
	if c.ip != "" {
		req.Header.Set("X-Real-IP", c.ip)
	}
	if c.admin {
		req.Header.Set("Authorization", "Bearer "+adminToken)
	}
	if c.cookie != nil {
		req.AddCookie(c.cookie)
	}
	rr := httptest.NewRecorder()
	ts.handler.ServeHTTP(rr, req)
	return rr
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rr.Body.Bytes(), &v); err != nil {
		t.Fatalf("unmarshal %q: %v", rr.Body.String(), err)
	}
	return v
}

func expectStatus(t *testing.T, rr *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rr.Code != want {
		t.Fatalf("status: want %d, got %d (%s)", want, rr.Code, rr.Body.String())
	}
}

func TestSubscribe_CookieReturningAndRateLimit(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.do(t, call{method: http.MethodPost, path: "/api/v1/subscribe", body: map[string]any{"email": "Neighbor@Example.com", "notifyMe": true}, ip: "10.0.0.1"})
	expectStatus(t, rr, http.StatusCreated)
	res := decode[app.SubscribeResult](t, rr)
	if res.IsReturning || res.Subscriber.Email != "neighbor@example.com" {
		t.Fatalf("unexpected result %+v", res)
	}
	var cookie *http.Cookie
	for _, c := range rr.Result().Cookies() {
		if c.Name == subscriberCookie {
			cookie = c
		}
	}
	if cookie == nil || !cookie.HttpOnly {
		t.Fatalf("expected http-only subscriber cookie, got %v", rr.Result().Cookies())
	}

	rr = ts.do(t, call{method: http.MethodPost, path: "/api/v1/subscribe", body: map[string]any{"email": "neighbor@example.com"}, ip: "10.0.0.1"})
	expectStatus(t, rr, http.StatusOK)
	if !decode[app.SubscribeResult](t, rr).IsReturning {
		t.Fatalf("expected returning subscriber")
	}

	rr = ts.do(t, call{method: http.MethodPost, path: "/api/v1/subscribe", body: map[string]any{"email": "bad"}, ip: "10.0.0.1"})
	expectStatus(t, rr, http.StatusBadRequest)

	rr = ts.do(t, call{method: http.MethodPost, path: "/api/v1/subscribe", body: map[string]any{"email": "x@example.com"}, ip: "10.0.0.1"})
	expectStatus(t, rr, http.StatusTooManyRequests)
	if rr.Header().Get("Retry-After") != "60" {
		t.Fatalf("expected Retry-After 60, got %q", rr.Header().Get("Retry-After"))
	}
	if decode[map[string]string](t, rr)["error"] != msgRateLimited {
		t.Fatalf("unexpected body %s", rr.Body.String())
	}

	// Les autres IP ne sont pas concernées.
	rr = ts.do(t, call{method: http.MethodPost, path: "/api/v1/subscribe", body: map[string]any{"email": "x@example.com"}, ip: "10.0.0.2"})
	expectStatus(t, rr, http.StatusCreated)
}

func TestVerifyAndNotifications(t *testing.T) {
	ctx := context.Background()
	ts := newTestServer(t)

	rr := ts.do(t, call{method: http.MethodPost, path: "/api/v1/verify-subscriber", body: map[string]any{"email": "ghost@example.com"}})
	expectStatus(t, rr, http.StatusNotFound)
	if decode[map[string]string](t, rr)["error"] != "Email not found. Please subscribe first." {
		t.Fatalf("unexpected body %s", rr.Body.String())
	}

	res, err := ts.subs.Subscribe(ctx, "a@example.com", true)
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	rr = ts.do(t, call{method: http.MethodPost, path: "/api/v1/verify-subscriber", body: map[string]any{"email": "A@example.com"}})
	expectStatus(t, rr, http.StatusOK)
	if !decode[verifyResponse](t, rr).Verified {
		t.Fatalf("expected verified")
	}

	rr = ts.do(t, call{method: http.MethodPost, path: "/api/v1/notifications", body: map[string]any{"email": "a@example.com", "enabled": false}})
	expectStatus(t, rr, http.StatusOK)
	rr = ts.do(t, call{method: http.MethodGet, path: "/api/v1/notifications?email=a%40example.com"})
	expectStatus(t, rr, http.StatusOK)
	if decode[notificationsResponse](t, rr).NotificationsEnabled {
		t.Fatalf("expected notifications disabled")
	}

	if _, err := ts.subs.Ban(ctx, res.Subscriber.ID); err != nil {
		t.Fatalf("Ban: %v", err)
	}
	rr = ts.do(t, call{method: http.MethodPost, path: "/api/v1/subscribe", body: map[string]any{"email": "a@example.com", "notifyMe": true}})
	expectStatus(t, rr, http.StatusForbidden)
	if decode[map[string]string](t, rr)["error"] != msgBanned {
		t.Fatalf("unexpected body %s", rr.Body.String())
	}
	rr = ts.do(t, call{method: http.MethodPost, path: "/api/v1/notifications", body: map[string]any{"email": "a@example.com", "enabled": true}})
	expectStatus(t, rr, http.StatusForbidden)
}

func TestUnsubscribeLink(t *testing.T) {
	ctx := context.Background()
	ts := newTestServer(t)
	if _, err := ts.subs.Subscribe(ctx, "a@example.com", true); err != nil {
		t.Fatalf("Subscribe: %v", err)
	}

	link := app.UnsubscribeURL("https://stoop.example", "a@example.com")
	rr := ts.do(t, call{method: http.MethodGet, path: "/api/v1" + strings.TrimPrefix(link, "https://stoop.example")})
	expectStatus(t, rr, http.StatusOK)
	res := decode[notificationsResponse](t, rr)
	if res.NotificationsEnabled || res.Status != domain.SubscriberActive {
		t.Fatalf("expected notifications off and subscription kept, got %+v", res)
	}

	// Un second clic est sans effet.
	expectStatus(t, ts.do(t, call{method: http.MethodGet, path: "/api/v1/unsubscribe?email=a%40example.com"}), http.StatusOK)
	expectStatus(t, ts.do(t, call{method: http.MethodGet, path: "/api/v1/unsubscribe?email=ghost%40example.com"}), http.StatusNotFound)
	expectStatus(t, ts.do(t, call{method: http.MethodGet, path: "/api/v1/unsubscribe"}), http.StatusBadRequest)
}

func TestInbox_SubmitRateLimitAndAdminList(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.do(t, call{method: http.MethodPost, path: "/api/v1/inbox", body: map[string]any{"message": "  Is the bodega hiring?  "}, ip: "10.0.0.9"})
	expectStatus(t, rr, http.StatusCreated)
	created := decode[domain.InboxMessage](t, rr)
	if created.ID == "" || created.Message != "Is the bodega hiring?" {
		t.Fatalf("unexpected message %+v", created)
	}

	rr = ts.do(t, call{method: http.MethodPost, path: "/api/v1/inbox", body: map[string]any{"message": "   "}, ip: "10.0.0.9"})
	expectStatus(t, rr, http.StatusBadRequest)
	rr = ts.do(t, call{method: http.MethodPost, path: "/api/v1/inbox", body: map[string]any{"message": strings.Repeat("a", domain.MaxInboxMessageLength+1)}, ip: "10.0.0.9"})
	expectStatus(t, rr, http.StatusBadRequest)
	rr = ts.do(t, call{method: http.MethodPost, path: "/api/v1/inbox", body: map[string]any{"message": "one more"}, ip: "10.0.0.9"})
	expectStatus(t, rr, http.StatusTooManyRequests)
	rr = ts.do(t, call{method: http.MethodPost, path: "/api/v1/inbox", body: map[string]any{"message": "one more"}, ip: "10.0.0.10"})
	expectStatus(t, rr, http.StatusCreated)

	expectStatus(t, ts.do(t, call{method: http.MethodGet, path: "/api/v1/admin/inbox"}), http.StatusUnauthorized)
	rr = ts.do(t, call{method: http.MethodGet, path: "/api/v1/admin/inbox", admin: true})
	expectStatus(t, rr, http.StatusOK)
	msgs := decode[[]domain.InboxMessage](t, rr)
	if len(msgs) != 2 || msgs[1].ID != created.ID {
		t.Fatalf("unexpected inbox %+v", msgs)
	}
}

func TestAdmin_RequiresUser(t *testing.T) {
	ts := newTestServer(t)

	for _, path := range []string{"/api/v1/admin/episodes", "/api/v1/admin/subscribers", "/api/v1/admin/jobs", "/api/v1/admin/settings"} {
		rr := ts.do(t, call{method: http.MethodGet, path: path})
		expectStatus(t, rr, http.StatusUnauthorized)
		if decode[map[string]string](t, rr)["error"] != msgUnauthorized {
			t.Fatalf("unexpected body %s", rr.Body.String())
		}
	}

	rr := ts.do(t, call{method: http.MethodGet, path: "/api/v1/admin/me", cookie: &http.Cookie{Name: AccessTokenCookie, Value: adminToken}})
	expectStatus(t, rr, http.StatusOK)
	if decode[domain.User](t, rr).Email != "host@stooppolitics.com" {
		t.Fatalf("unexpected user %s", rr.Body.String())
	}
}

func TestEpisodeLifecycle(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.do(t, call{method: http.MethodPost, path: "/api/v1/admin/episodes", admin: true, body: map[string]any{
		"title": "Block Talk", "audioUrl": "https://cdn.example.com/block.mp3", "durationSeconds": 90,
	}})
	expectStatus(t, rr, http.StatusCreated)
	ep := decode[domain.Episode](t, rr)

	rr = ts.do(t, call{method: http.MethodPut, path: "/api/v1/admin/episodes/" + ep.ID + "/transcript", admin: true, body: map[string]any{
		"segments": []map[string]any{
			{"content": "Cold open", "startTime": 0, "endTime": 12.5},
			{"content": "Main story", "startTime": 12.5},
		},
	}})
	expectStatus(t, rr, http.StatusOK)
	segs := decode[[]domain.TranscriptSegment](t, rr)
	if len(segs) != 2 {
		t.Fatalf("expected 2 segments, got %d", len(segs))
	}

	rr = ts.do(t, call{method: http.MethodGet, path: "/api/v1/episodes/" + ep.ID})
	expectStatus(t, rr, http.StatusNotFound)

	rr = ts.do(t, call{method: http.MethodPost, path: "/api/v1/admin/episodes/" + ep.ID + "/publish", admin: true})
	expectStatus(t, rr, http.StatusOK)
	rr = ts.do(t, call{method: http.MethodPost, path: "/api/v1/admin/episodes/" + ep.ID + "/publish", admin: true})
	expectStatus(t, rr, http.StatusConflict)

	rr = ts.do(t, call{method: http.MethodGet, path: "/api/v1/episodes/latest?t=15"})
	expectStatus(t, rr, http.StatusOK)
	view := decode[listenResponse](t, rr)
	if view.Episode.ID != ep.ID || view.StartAt != 15 || view.ActiveIndex != 1 || view.Subscriber != nil {
		t.Fatalf("unexpected listen view %+v", view)
	}

	rr = ts.do(t, call{method: http.MethodGet, path: "/api/v1/episodes/" + ep.ID + "?t=abc"})
	expectStatus(t, rr, http.StatusOK)
	if v := decode[listenResponse](t, rr); v.StartAt != 0 || v.ActiveIndex != 0 {
		t.Fatalf("invalid t must be ignored, got start=%v active=%d", v.StartAt, v.ActiveIndex)
	}

	rr = ts.do(t, call{method: http.MethodGet, path: "/api/v1/episodes/" + ep.ID + "/active?t=3"})
	expectStatus(t, rr, http.StatusOK)
	if a := decode[activeResponse](t, rr); !a.Active || a.Index != 0 || a.Segment == nil {
		t.Fatalf("unexpected active %+v", a)
	}
	rr = ts.do(t, call{method: http.MethodGet, path: "/api/v1/episodes/" + ep.ID + "/active"})
	expectStatus(t, rr, http.StatusBadRequest)

	rr = ts.do(t, call{method: http.MethodGet, path: "/api/v1/episodes/" + ep.ID + "/share?t=125.26&url=https%3A%2F%2Fstoop.example%2Flisten%3Ft%3D1"})
	expectStatus(t, rr, http.StatusOK)
	if sh := decode[shareResponse](t, rr); sh.URL != "https://stoop.example/listen?t=90.0" || sh.Timestamp != "1:30" {
		t.Fatalf("unexpected share %+v", sh)
	}

	rr = ts.do(t, call{method: http.MethodGet, path: "/api/v1/episodes/" + ep.ID + "/segments/" + segs[1].ID + "/seek"})
	expectStatus(t, rr, http.StatusOK)
	if sh := decode[shareResponse](t, rr); sh.Time != 12.5 || !strings.HasSuffix(sh.URL, "?episode="+ep.ID+"&t=12.5") {
		t.Fatalf("unexpected seek %+v", sh)
	}

	rr = ts.do(t, call{method: http.MethodPatch, path: "/api/v1/admin/segments/" + segs[0].ID, admin: true, body: map[string]any{"field": "reference_link", "value": "https://news.example/a"}})
	expectStatus(t, rr, http.StatusOK)
	if decode[domain.TranscriptSegment](t, rr).ReferenceLink != "https://news.example/a" {
		t.Fatalf("reference link not updated: %s", rr.Body.String())
	}
	rr = ts.do(t, call{method: http.MethodPatch, path: "/api/v1/admin/segments/" + segs[0].ID, admin: true, body: map[string]any{"field": "start_time", "value": "1"}})
	expectStatus(t, rr, http.StatusBadRequest)

	rr = ts.do(t, call{method: http.MethodGet, path: "/api/v1/episodes"})
	expectStatus(t, rr, http.StatusOK)
	if eps := decode[[]domain.Episode](t, rr); len(eps) != 1 {
		t.Fatalf("expected one published episode, got %d", len(eps))
	}
}

func TestListen_RecognizesSubscriberCookie(t *testing.T) {
	ts := newTestServer(t)
	rr := ts.do(t, call{method: http.MethodPost, path: "/api/v1/admin/episodes", admin: true, body: map[string]any{"title": "Ep", "audioUrl": "https://cdn.example.com/ep.mp3"}})
	expectStatus(t, rr, http.StatusCreated)
	ep := decode[domain.Episode](t, rr)
	expectStatus(t, ts.do(t, call{method: http.MethodPost, path: "/api/v1/admin/episodes/" + ep.ID + "/publish", admin: true}), http.StatusOK)

	rr = ts.do(t, call{method: http.MethodPost, path: "/api/v1/subscribe", body: map[string]any{"email": "fan@example.com"}})
	expectStatus(t, rr, http.StatusCreated)
	cookies := rr.Result().Cookies()
	if len(cookies) == 0 {
		t.Fatalf("expected subscriber cookie")
	}

	rr = ts.do(t, call{method: http.MethodGet, path: "/api/v1/episodes/" + ep.ID, cookie: cookies[0]})
	expectStatus(t, rr, http.StatusOK)
	if v := decode[listenResponse](t, rr); v.Subscriber == nil || v.Subscriber.Email != "fan@example.com" {
		t.Fatalf("expected subscriber from cookie, got %+v", v.Subscriber)
	}

	forged := &http.Cookie{Name: subscriberCookie, Value: "forged"}
	rr = ts.do(t, call{method: http.MethodGet, path: "/api/v1/episodes/" + ep.ID, cookie: forged})
	if v := decode[listenResponse](t, rr); v.Subscriber != nil {
		t.Fatalf("forged cookie must be ignored")
	}
}

func TestAdminSubscribersAndBroadcast(t *testing.T) {
	ctx := context.Background()
	ts := newTestServer(t)
	for _, email := range []string{"a@example.com", "b@example.com"} {
		if _, err := ts.subs.Subscribe(ctx, email, true); err != nil {
			t.Fatalf("Subscribe: %v", err)
		}
	}
	quiet, err := ts.subs.Subscribe(ctx, "quiet@example.com", false)
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}

	rr := ts.do(t, call{method: http.MethodGet, path: "/api/v1/admin/subscribers?filter=notifications", admin: true})
	expectStatus(t, rr, http.StatusOK)
	if subs := decode[[]domain.Subscriber](t, rr); len(subs) != 2 {
		t.Fatalf("expected 2 subscribers with notifications, got %d", len(subs))
	}

	rr = ts.do(t, call{method: http.MethodPost, path: "/api/v1/admin/broadcast", admin: true, body: map[string]any{"subject": "Block party", "message": "Saturday"}})
	expectStatus(t, rr, http.StatusOK)
	res := decode[broadcastResponse](t, rr)
	if !res.Success || res.Sent != 2 || res.Failed != 0 || res.Total != 2 {
		t.Fatalf("unexpected broadcast result %+v", res)
	}

	rr = ts.do(t, call{method: http.MethodPost, path: "/api/v1/admin/broadcast", admin: true, body: map[string]any{"subject": "", "message": "x"}})
	expectStatus(t, rr, http.StatusBadRequest)

	rr = ts.do(t, call{method: http.MethodPost, path: "/api/v1/admin/broadcast?async=1", admin: true, body: map[string]any{"subject": "Later", "message": "x"}})
	expectStatus(t, rr, http.StatusAccepted)
	if job := decode[app.JobDTO](t, rr); job.Type != domain.JobBroadcast || job.State != domain.JobQueued {
		t.Fatalf("unexpected job %+v", job)
	}

	rr = ts.do(t, call{method: http.MethodPut, path: "/api/v1/admin/subscribers/" + quiet.Subscriber.ID + "/status", admin: true, body: map[string]any{"status": "banned"}})
	expectStatus(t, rr, http.StatusOK)
	rr = ts.do(t, call{method: http.MethodPut, path: "/api/v1/admin/subscribers/" + quiet.Subscriber.ID + "/status", admin: true, body: map[string]any{"status": "unsubscribed"}})
	expectStatus(t, rr, http.StatusConflict)

	rr = ts.do(t, call{method: http.MethodGet, path: "/api/v1/admin/subscribers/stats", admin: true})
	expectStatus(t, rr, http.StatusOK)
	if c := decode[domain.SubscriberCounts](t, rr); c.Total != 3 || c.Banned != 1 || c.WithNotifications != 2 {
		t.Fatalf("unexpected counts %+v", c)
	}

	rr = ts.do(t, call{method: http.MethodDelete, path: "/api/v1/admin/subscribers/" + quiet.Subscriber.ID, admin: true})
	expectStatus(t, rr, http.StatusNoContent)

	ts.dispatcher.configured = false
	rr = ts.do(t, call{method: http.MethodPost, path: "/api/v1/admin/broadcast", admin: true, body: map[string]any{"subject": "s", "message": "m"}})
	expectStatus(t, rr, http.StatusServiceUnavailable)

	rr = ts.do(t, call{method: http.MethodGet, path: "/api/v1/notifications/health"})
	expectStatus(t, rr, http.StatusOK)
	if rep := decode[app.HealthReport](t, rr); rep.Status != app.HealthDegraded {
		t.Fatalf("expected degraded health, got %+v", rep)
	}
}

func TestSettingsPut_KeepsMissingFieldsAndNotifies(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.do(t, call{method: http.MethodPut, path: "/api/v1/admin/settings", admin: true, body: map[string]any{"maxWorkers": 3}})
	expectStatus(t, rr, http.StatusOK)
	got := decode[domain.Settings](t, rr)
	if got.MaxWorkers != 3 || got.SiteName != domain.DefaultSettings().SiteName {
		t.Fatalf("unexpected settings %+v", got)
	}
	select {
	case s := <-ts.settingsCh:
		if s.MaxWorkers != 3 {
			t.Fatalf("callback got %+v", s)
		}
	default:
		t.Fatalf("settings callback not called")
	}

	rr = ts.do(t, call{method: http.MethodPut, path: "/api/v1/admin/settings", admin: true, body: map[string]any{"sendIntervalMs": -5}})
	expectStatus(t, rr, http.StatusBadRequest)
}

func TestOpenAPIAndVersion(t *testing.T) {
	ts := newTestServer(t)
	rr := ts.do(t, call{method: http.MethodGet, path: "/api/v1/openapi.json"})
	expectStatus(t, rr, http.StatusOK)
	doc := decode[map[string]any](t, rr)
	paths, _ := doc["paths"].(map[string]any)
	for _, p := range []string{"/api/v1/admin/broadcast", "/api/v1/inbox", "/api/v1/unsubscribe"} {
		if _, ok := paths[p]; !ok {
			t.Fatalf("%s missing from document", p)
		}
	}
	expectStatus(t, ts.do(t, call{method: http.MethodGet, path: "/api/v1/version"}), http.StatusOK)
	expectStatus(t, ts.do(t, call{method: http.MethodGet, path: "/api/v1/health"}), http.StatusOK)
}
