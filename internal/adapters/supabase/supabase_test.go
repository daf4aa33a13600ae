package supabase

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stoop-politics/stoop/internal/domain"
	"github.com/stoop-politics/stoop/internal/ports"
)

type recordedRequest struct {
	Method string
	Path   string
	Query  string
	Prefer string
	Body   string
}

// fakePostgREST répond aux requêtes avec des corps pré-enregistrés par méthode+table.
type fakePostgREST struct {
	mu        sync.Mutex
	requests  []recordedRequest
	responses map[string]func(w http.ResponseWriter, r *http.Request)
}

func (f *fakePostgREST) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	f.mu.Lock()
	f.requests = append(f.requests, recordedRequest{
		Method: r.Method,
		Path:   r.URL.Path,
		Query:  r.URL.RawQuery,
		Prefer: r.Header.Get("Prefer"),
		Body:   string(body),
	})
	h := f.responses[r.Method+" "+r.URL.Path]
	f.mu.Unlock()
	if h == nil {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[]`))
		return
	}
	h(w, r)
}

func (f *fakePostgREST) last() recordedRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.requests[len(f.requests)-1]
}

func newTestClient(t *testing.T, fake *fakePostgREST) *Client {
	t.Helper()
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)
	c := NewClient(zerolog.Nop(), Config{URL: srv.URL, Key: "service-key"})
	if err := c.Connect(context.Background()); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	return c
}

func jsonResponse(status int, v any) func(w http.ResponseWriter, r *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(v)
	}
}

func TestSubscribersRepository_GetByEmailNotFound(t *testing.T) {
	fake := &fakePostgREST{}
	repo := NewSubscribersRepository(newTestClient(t, fake))

	_, err := repo.GetByEmail(context.Background(), " Jane@Example.com ")
	if !errors.Is(err, ports.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	req := fake.last()
	if req.Method != http.MethodGet || req.Path != "/rest/v1/subscribers" {
		t.Fatalf("unexpected request: %+v", req)
	}
	if !strings.Contains(req.Query, "email=eq.jane%40example.com") {
		t.Fatalf("expected normalized email filter, got %q", req.Query)
	}
}

func TestSubscribersRepository_CreateConflict(t *testing.T) {
	fake := &fakePostgREST{responses: map[string]func(http.ResponseWriter, *http.Request){
		"POST /rest/v1/subscribers": jsonResponse(http.StatusConflict, map[string]string{
			"code":    "23505",
			"message": `duplicate key value violates unique constraint "subscribers_email_lower"`,
		}),
	}}
	repo := NewSubscribersRepository(newTestClient(t, fake))

	now := time.Now().UTC()
	_, err := repo.Create(context.Background(), domain.Subscriber{ID: "s1", Email: "a@example.com", SubscribedAt: now, UpdatedAt: now, Status: domain.SubscriberActive})
	if !errors.Is(err, ports.ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
}

func TestSubscribersRepository_ListRecipientsFilters(t *testing.T) {
	rows := []subscriberRow{{ID: "s1", Email: "a@example.com", NotificationsEnabled: true, Status: "active"}}
	fake := &fakePostgREST{responses: map[string]func(http.ResponseWriter, *http.Request){
		"GET /rest/v1/subscribers": jsonResponse(http.StatusOK, rows),
	}}
	repo := NewSubscribersRepository(newTestClient(t, fake))

	got, err := repo.ListRecipients(context.Background())
	if err != nil {
		t.Fatalf("ListRecipients: %v", err)
	}
	if len(got) != 1 || !got[0].Receives() {
		t.Fatalf("unexpected recipients: %+v", got)
	}
	q := fake.last().Query
	for _, want := range []string{"notifications_enabled=eq.true", "status=eq.active", "order=subscribed_at.asc"} {
		if !strings.Contains(q, want) {
			t.Fatalf("query %q missing %q", q, want)
		}
	}
}

func TestSubscribersRepository_CountsFromContentRange(t *testing.T) {
	fake := &fakePostgREST{responses: map[string]func(http.ResponseWriter, *http.Request){
		"HEAD /rest/v1/subscribers": func(w http.ResponseWriter, r *http.Request) {
			n := "7"
			switch {
			case strings.Contains(r.URL.RawQuery, "notifications_enabled"):
				n = "3"
			case strings.Contains(r.URL.RawQuery, "status=eq.active"):
				n = "5"
			case strings.Contains(r.URL.RawQuery, "status=eq.banned"):
				n = "1"
			}
			w.Header().Set("Content-Range", "*/"+n)
			w.WriteHeader(http.StatusOK)
		},
	}}
	repo := NewSubscribersRepository(newTestClient(t, fake))

	c, err := repo.Counts(context.Background())
	if err != nil {
		t.Fatalf("Counts: %v", err)
	}
	want := domain.SubscriberCounts{Total: 7, Active: 5, WithNotifications: 3, Banned: 1}
	if c != want {
		t.Fatalf("Counts: want %+v, got %+v", want, c)
	}
}

func TestEpisodesRepository_PublishAlreadyPublished(t *testing.T) {
	published := []episodeRow{{ID: "e1", Title: "Pilot", IsPublished: true}}
	fake := &fakePostgREST{responses: map[string]func(http.ResponseWriter, *http.Request){
		"PATCH /rest/v1/episodes": jsonResponse(http.StatusOK, []episodeRow{}),
		"GET /rest/v1/episodes":   jsonResponse(http.StatusOK, published),
	}}
	repo := NewEpisodesRepository(newTestClient(t, fake))

	_, err := repo.Publish(context.Background(), "e1", time.Now())
	if !errors.Is(err, domain.ErrAlreadyPublished) {
		t.Fatalf("expected ErrAlreadyPublished, got %v", err)
	}
}

func TestTranscriptsRepository_UpdateSegmentUsesColumnName(t *testing.T) {
	fake := &fakePostgREST{responses: map[string]func(http.ResponseWriter, *http.Request){
		"PATCH /rest/v1/transcript_nodes": jsonResponse(http.StatusOK, []segmentRow{{ID: "n1", Content: "hi", ReferenceLink: "https://example.com"}}),
	}}
	repo := NewTranscriptsRepository(newTestClient(t, fake))

	seg, err := repo.UpdateSegment(context.Background(), "n1", domain.SegmentReferenceLink, "https://example.com")
	if err != nil {
		t.Fatalf("UpdateSegment: %v", err)
	}
	if seg.ReferenceLink != "https://example.com" {
		t.Fatalf("unexpected segment: %+v", seg)
	}
	if body := fake.last().Body; !strings.Contains(body, `"reference_link":"https://example.com"`) {
		t.Fatalf("unexpected patch body: %s", body)
	}
}

func TestAuthProvider_EmptyToken(t *testing.T) {
	a := NewAuthProvider(newTestClient(t, &fakePostgREST{}))
	if _, err := a.CurrentUser(context.Background(), ""); !errors.Is(err, ports.ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated, got %v", err)
	}
}

func TestInboxRepository_CreateAndList(t *testing.T) {
	at := time.Date(2024, 3, 1, 18, 0, 0, 0, time.UTC)
	rows := []inboxRow{{ID: "m1", Message: "Who owns the corner lot?", CreatedAt: at}}
	fake := &fakePostgREST{responses: map[string]func(http.ResponseWriter, *http.Request){
		"POST /rest/v1/inbox": jsonResponse(http.StatusCreated, rows),
		"GET /rest/v1/inbox":  jsonResponse(http.StatusOK, rows),
	}}
	repo := NewInboxRepository(newTestClient(t, fake))

	created, err := repo.Create(context.Background(), domain.InboxMessage{ID: "m1", Message: "Who owns the corner lot?", CreatedAt: at})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if created.ID != "m1" || !created.CreatedAt.Equal(at) {
		t.Fatalf("unexpected message: %+v", created)
	}
	if req := fake.last(); !strings.Contains(req.Body, `"message":"Who owns the corner lot?"`) {
		t.Fatalf("unexpected insert body %q", req.Body)
	}

	got, err := repo.List(context.Background(), 20)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != 1 || got[0].Message != "Who owns the corner lot?" {
		t.Fatalf("unexpected list: %+v", got)
	}
	q := fake.last().Query
	for _, want := range []string{"order=created_at.desc", "limit=20"} {
		if !strings.Contains(q, want) {
			t.Fatalf("query %q missing %q", q, want)
		}
	}
}
