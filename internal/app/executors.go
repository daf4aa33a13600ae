package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/stoop-politics/stoop/internal/domain"
)

type JobExecutor interface {
	Execute(ctx context.Context, job domain.Job, env ExecEnv) error
}

type ExecEnv struct {
	UpdateProgress func(progress float64) error
	UpdateResult   func(resultJSON []byte) error
	IsCanceled     func() (bool, error)
}

// Notifier est la partie du NotificationService exécutée par les workers.
type Notifier interface {
	SendWelcome(ctx context.Context, email string, notifyMe bool) (bool, error)
	NotifyEpisode(ctx context.Context, episodeID string, progress ProgressFunc) (domain.BroadcastResult, error)
	Broadcast(ctx context.Context, subject, message string, progress ProgressFunc) (domain.BroadcastResult, error)
}

type ExecutorRegistry struct {
	byType   map[string]JobExecutor
	fallback JobExecutor
}

func (r ExecutorRegistry) Get(jobType string) JobExecutor {
	if r.byType != nil {
		if ex, ok := r.byType[jobType]; ok {
			return ex
		}
	}
	if r.fallback == nil {
		return UnknownExecutor{}
	}
	return r.fallback
}

func NewExecutorRegistry(n Notifier) ExecutorRegistry {
	return ExecutorRegistry{
		byType: map[string]JobExecutor{
			domain.JobWelcomeEmail:  WelcomeExecutor{Notifier: n},
			domain.JobNotifyEpisode: NotifyEpisodeExecutor{Notifier: n},
			domain.JobBroadcast:     BroadcastExecutor{Notifier: n},
		},
		fallback: UnknownExecutor{},
	}
}

type UnknownExecutor struct{}

func (UnknownExecutor) Execute(ctx context.Context, job domain.Job, env ExecEnv) error {
	return &CodedError{Code: "unknown_type", Message: fmt.Sprintf("no executor for job type %q", job.Type)}
}

func decodeParams(job domain.Job, dst any) error {
	if len(job.ParamsJSON) == 0 {
		return &CodedError{Code: "invalid_params", Message: "missing params"}
	}
	if err := json.Unmarshal(job.ParamsJSON, dst); err != nil {
		return &CodedError{Code: "invalid_params", Message: "invalid params", Err: err}
	}
	return nil
}

func codeFor(err error) error {
	var coded *CodedError
	switch {
	case errors.As(err, &coded):
		return err
	case errors.Is(err, ErrEmailNotConfigured):
		return &CodedError{Code: "not_configured", Err: err}
	case errors.Is(err, ErrAllSendsFailed):
		return &CodedError{Code: "all_failed", Err: err}
	case errors.Is(err, ErrNotFound):
		return &CodedError{Code: "not_found", Err: err}
	case IsValidation(err):
		return &CodedError{Code: "invalid_params", Err: err}
	default:
		return &CodedError{Code: "send_error", Err: err}
	}
}

func writeResult(env ExecEnv, v any) error {
	if env.UpdateResult == nil {
		return nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return env.UpdateResult(b)
}

type WelcomeExecutor struct{ Notifier Notifier }

func (e WelcomeExecutor) Execute(ctx context.Context, job domain.Job, env ExecEnv) error {
	var p WelcomeParams
	if err := decodeParams(job, &p); err != nil {
		return err
	}
	sent, err := e.Notifier.SendWelcome(ctx, p.Email, p.NotifyMe)
	if err != nil {
		return codeFor(err)
	}
	if err := writeResult(env, map[string]any{"email": p.Email, "sent": sent, "skipped": !sent}); err != nil {
		return err
	}
	return env.UpdateProgress(1)
}

// runBatch exécute un envoi groupé. L'annulation du job interrompt le rythme d'envoi.
func runBatch(ctx context.Context, env ExecEnv, run func(ctx context.Context, progress ProgressFunc) (domain.BroadcastResult, error)) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	progress := func(done, total int) {
		if total > 0 {
			_ = env.UpdateProgress(float64(done) / float64(total))
		}
		if canceled, err := env.IsCanceled(); err == nil && canceled {
			cancel()
		}
	}
	res, err := run(ctx, progress)
	if err != nil && errors.Is(err, context.Canceled) {
		if canceled, cerr := env.IsCanceled(); cerr == nil && canceled {
			_ = writeResult(env, res)
			return nil
		}
	}
	if werr := writeResult(env, res); werr != nil && err == nil {
		return werr
	}
	if err != nil {
		return codeFor(err)
	}
	return env.UpdateProgress(1)
}

type NotifyEpisodeExecutor struct{ Notifier Notifier }

func (e NotifyEpisodeExecutor) Execute(ctx context.Context, job domain.Job, env ExecEnv) error {
	var p NotifyParams
	if err := decodeParams(job, &p); err != nil {
		return err
	}
	return runBatch(ctx, env, func(ctx context.Context, progress ProgressFunc) (domain.BroadcastResult, error) {
		return e.Notifier.NotifyEpisode(ctx, p.EpisodeID, progress)
	})
}

// BroadcastParams sont les paramètres du job broadcast.
type BroadcastParams struct {
	Subject string `json:"subject"`
	Message string `json:"message"`
}

type BroadcastExecutor struct{ Notifier Notifier }

func (e BroadcastExecutor) Execute(ctx context.Context, job domain.Job, env ExecEnv) error {
	var p BroadcastParams
	if err := decodeParams(job, &p); err != nil {
		return err
	}
	return runBatch(ctx, env, func(ctx context.Context, progress ProgressFunc) (domain.BroadcastResult, error) {
		return e.Notifier.Broadcast(ctx, p.Subject, p.Message, progress)
	})
}
