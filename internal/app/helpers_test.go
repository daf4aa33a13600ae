package app

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stoop-politics/stoop/internal/adapters/sqlite"
	"github.com/stoop-politics/stoop/internal/ports"
)

type fakeDispatcher struct {
	mu         sync.Mutex
	configured bool
	sent       []ports.Email
	// failFor fait échouer l'envoi vers ces adresses.
	failFor map[string]bool
	failAll bool
}

func newFakeDispatcher() *fakeDispatcher {
	return &fakeDispatcher{configured: true, failFor: map[string]bool{}}
}

func (d *fakeDispatcher) Configured() bool { return d.configured }

func (d *fakeDispatcher) Send(ctx context.Context, msg ports.Email) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.failAll || d.failFor[msg.To] {
		return errors.New("provider rejected " + msg.To)
	}
	d.sent = append(d.sent, msg)
	return nil
}

func (d *fakeDispatcher) Sent() []ports.Email {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]ports.Email(nil), d.sent...)
}

type env struct {
	db          *sqlite.DB
	subsRepo    *sqlite.SubscribersRepository
	epRepo      *sqlite.EpisodesRepository
	segRepo     *sqlite.TranscriptsRepository
	jobsRepo    *sqlite.JobsRepository
	settings    *sqlite.SettingsRepository
	inboxRepo   *sqlite.InboxRepository
	dispatcher  *fakeDispatcher
	jobs        *JobService
	subscribers *SubscriberService
	episodes    *EpisodeService
	notifier    *NotificationService
	inbox       *InboxService
}

func newEnv(t *testing.T) *env {
	t.Helper()
	db, err := sqlite.Open(context.Background(), ":memory:")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	e := &env{
		db:         db,
		subsRepo:   sqlite.NewSubscribersRepository(db.SQL),
		epRepo:     sqlite.NewEpisodesRepository(db.SQL),
		segRepo:    sqlite.NewTranscriptsRepository(db.SQL),
		jobsRepo:   sqlite.NewJobsRepository(db.SQL),
		settings:   sqlite.NewSettingsRepository(db.SQL),
		inboxRepo:  sqlite.NewInboxRepository(db.SQL),
		dispatcher: newFakeDispatcher(),
	}
	logger := zerolog.Nop()
	e.jobs = NewJobService(e.jobsRepo, nil)
	e.subscribers = NewSubscriberService(logger, e.subsRepo, e.jobs, nil)
	e.inbox = NewInboxService(logger, e.inboxRepo, nil)
	e.episodes = NewEpisodeService(logger, e.epRepo, e.segRepo, e.settings, e.jobs, nil)
	// Pas de rythme d'envoi dans les tests.
	e.notifier = NewNotificationService(logger, e.subsRepo, e.epRepo, e.dispatcher, e.settings, WithSendInterval(time.Nanosecond))
	return e
}

func fptr(v float64) *float64 { return &v }
func iptr(v int) *int         { return &v }
