package app

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stoop-politics/stoop/internal/adapters/memorybus"
	"github.com/stoop-politics/stoop/internal/domain"
)

func TestWorker_RunsWelcomeJobEndToEnd(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	bus := memorybus.New()
	defer bus.Close()
	events, cancel := bus.Subscribe("job.")
	defer cancel()

	if _, err := e.subscribers.Subscribe(ctx, "fresh@example.com", true); err != nil {
		t.Fatalf("Subscribe: %v", err)
	}

	w := NewWorker(zerolog.Nop(), e.jobsRepo, bus, NewExecutorRegistry(e.notifier), DefaultWorkerOptions())
	if !w.RunOnce(ctx) {
		t.Fatalf("expected a queued job")
	}
	if w.RunOnce(ctx) {
		t.Fatalf("queue should be empty")
	}

	jobs, err := e.jobs.List(ctx, 10)
	if err != nil || len(jobs) != 1 {
		t.Fatalf("List: %v, %d", err, len(jobs))
	}
	job := jobs[0]
	if job.State != domain.JobCompleted || job.Progress != 1 {
		t.Fatalf("expected completed job, got %+v", job)
	}
	var res map[string]any
	if err := json.Unmarshal(job.Result, &res); err != nil || res["sent"] != true {
		t.Fatalf("unexpected result %s (%v)", job.Result, err)
	}
	if sent := e.dispatcher.Sent(); len(sent) != 1 || sent[0].To != "fresh@example.com" {
		t.Fatalf("expected one welcome email, got %+v", sent)
	}

	var topics []string
	for len(events) > 0 {
		topics = append(topics, (<-events).Topic)
	}
	if len(topics) == 0 || topics[0] != "job.started" || topics[len(topics)-1] != "job.completed" {
		t.Fatalf("unexpected events %v", topics)
	}
}

func TestWorker_RecordsFailure(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	e.dispatcher.configured = false

	if _, err := e.jobs.Enqueue(ctx, domain.JobBroadcast, BroadcastParams{Subject: "s", Message: "m"}); err != nil {
		t.Fatalf("Enqueue: %v", err)
	}
	w := NewWorker(zerolog.Nop(), e.jobsRepo, nil, NewExecutorRegistry(e.notifier), DefaultWorkerOptions())
	w.RunOnce(ctx)

	jobs, _ := e.jobs.List(ctx, 10)
	if len(jobs) != 1 || jobs[0].State != domain.JobFailed || jobs[0].ErrorCode != "not_configured" {
		t.Fatalf("expected failed job with not_configured, got %+v", jobs)
	}
}

func TestJobService_CreateRejectsUnknownTypeAndCancels(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	if _, err := e.jobs.Create(ctx, CreateJobRequest{Type: "download"}); !IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
	job, err := e.jobs.Enqueue(ctx, domain.JobBroadcast, BroadcastParams{Subject: "s", Message: "m"})
	if err != nil {
		t.Fatalf("Enqueue: %v", err)
	}
	canceled, err := e.jobs.Cancel(ctx, job.ID)
	if err != nil || canceled.State != domain.JobCanceled {
		t.Fatalf("Cancel: %v, %+v", err, canceled)
	}
	again, err := e.jobs.Cancel(ctx, job.ID)
	if err != nil || again.State != domain.JobCanceled {
		t.Fatalf("Cancel twice should return current state: %v, %+v", err, again)
	}
}
