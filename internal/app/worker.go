package app

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"github.com/stoop-politics/stoop/internal/domain"
	"github.com/stoop-politics/stoop/internal/ports"
)

type WorkerOptions struct {
	PollInterval time.Duration
}

func DefaultWorkerOptions() WorkerOptions {
	return WorkerOptions{PollInterval: 750 * time.Millisecond}
}

type Worker struct {
	logger zerolog.Logger
	repo   ports.JobRepository
	bus    ports.EventBus
	opts   WorkerOptions
	execs  ExecutorRegistry
}

func NewWorker(logger zerolog.Logger, repo ports.JobRepository, bus ports.EventBus, execs ExecutorRegistry, opts WorkerOptions) *Worker {
	if opts.PollInterval <= 0 {
		opts.PollInterval = DefaultWorkerOptions().PollInterval
	}
	return &Worker{logger: logger, repo: repo, bus: bus, opts: opts, execs: execs}
}

func (w *Worker) Run(ctx context.Context) {
	ticker := time.NewTicker(w.opts.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			// On vide la file avant d'attendre le tick suivant.
			for w.RunOnce(ctx) {
			}
		}
	}
}

// RunOnce exécute au plus un job. Renvoie false s'il n'y avait rien à faire.
func (w *Worker) RunOnce(ctx context.Context) bool {
	if ctx.Err() != nil {
		return false
	}
	job, err := w.repo.ClaimNextQueued(ctx)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			w.logger.Error().Err(err).Msg("claim next job failed")
		}
		return false
	}
	w.execute(ctx, job)
	return true
}

func (w *Worker) execute(ctx context.Context, job domain.Job) {
	w.logger.Info().Str("job_id", job.ID).Str("type", job.Type).Msg("job claimed")
	PublishJobEvent(w.bus, "job.started", job)

	isCanceled := func() (bool, error) {
		current, err := w.repo.Get(ctx, job.ID)
		if err != nil {
			return false, err
		}
		return current.State == domain.JobCanceled, nil
	}

	updateProgress := func(progress float64) error {
		updated, err := w.repo.UpdateProgress(ctx, job.ID, progress)
		if err != nil {
			return err
		}
		PublishJobEvent(w.bus, "job.progress", updated)
		return nil
	}

	updateResult := func(b []byte) error {
		_, err := w.repo.UpdateResult(ctx, job.ID, b)
		return err
	}

	exec := w.execs.Get(job.Type)
	err := exec.Execute(ctx, job, ExecEnv{
		UpdateProgress: updateProgress,
		UpdateResult:   updateResult,
		IsCanceled:     isCanceled,
	})
	if err != nil {
		w.logger.Error().Err(err).Str("job_id", job.ID).Str("type", job.Type).Msg("executor failed")
		code := "error"
		var coded *CodedError
		if errors.As(err, &coded) && coded.Code != "" {
			code = coded.Code
		}
		if _, err2 := w.repo.UpdateError(ctx, job.ID, code, err.Error()); err2 != nil {
			w.logger.Warn().Err(err2).Str("job_id", job.ID).Msg("failed to record job error")
		}
		failed, err2 := w.repo.UpdateState(ctx, job.ID, domain.JobRunning, domain.JobFailed)
		if err2 == nil {
			PublishJobEvent(w.bus, "job.failed", failed)
		}
		return
	}

	canceled, err := isCanceled()
	if err != nil {
		w.logger.Error().Err(err).Str("job_id", job.ID).Msg("failed to reload job")
		return
	}
	if canceled {
		w.logger.Info().Str("job_id", job.ID).Msg("job canceled")
		return
	}

	finished, err := w.repo.UpdateState(ctx, job.ID, domain.JobRunning, domain.JobCompleted)
	if err != nil {
		w.logger.Warn().Err(err).Str("job_id", job.ID).Msg("failed to mark job completed")
		return
	}
	if updated, err := w.repo.UpdateProgress(ctx, job.ID, 1); err == nil {
		finished = updated
	}
	w.logger.Info().Str("job_id", job.ID).Str("type", job.Type).Msg("job completed")
	PublishJobEvent(w.bus, "job.completed", finished)
}
