package domain

import (
	"errors"
	"time"
)

type JobState string

const (
	JobQueued    JobState = "queued"
	JobRunning   JobState = "running"
	JobCompleted JobState = "completed"
	JobFailed    JobState = "failed"
	JobCanceled  JobState = "canceled"
)

func (s JobState) IsTerminal() bool {
	return s == JobCompleted || s == JobFailed || s == JobCanceled
}

// Types de jobs exécutés par les workers.
const (
	JobWelcomeEmail  = "email.welcome"
	JobNotifyEpisode = "notify.episode"
	JobBroadcast     = "broadcast"
)

type Job struct {
	ID        string
	Type      string
	State     JobState
	Progress  float64
	CreatedAt time.Time
	UpdatedAt time.Time

	ParamsJSON   []byte
	ResultJSON   []byte
	ErrorCode    string
	ErrorMessage string
}

var ErrInvalidTransition = errors.New("invalid state transition")

func CanTransition(from, to JobState) bool {
	if from == to {
		return true
	}
	switch from {
	case JobQueued:
		return to == JobRunning || to == JobCanceled || to == JobFailed
	case JobRunning:
		return to == JobCompleted || to == JobCanceled || to == JobFailed
	default:
		return false
	}
}
