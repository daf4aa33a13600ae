package app

import (
	"context"

	"github.com/stoop-politics/stoop/internal/domain"
	"github.com/stoop-politics/stoop/internal/ports"
)

type HealthStatus string

const (
	HealthOK       HealthStatus = "ok"
	HealthDegraded HealthStatus = "degraded"
	HealthError    HealthStatus = "error"
)

type CheckResult struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

type HealthReport struct {
	Status      HealthStatus             `json:"status"`
	Database    CheckResult              `json:"database"`
	Subscribers *domain.SubscriberCounts `json:"subscribersTable,omitempty"`
	Email       CheckResult              `json:"emailService"`
}

// HealthService vérifie la chaîne de notification : stockage des abonnés et provider email.
type HealthService struct {
	subscribers ports.SubscriberRepository
	dispatcher  ports.Dispatcher
}

func NewHealthService(subscribers ports.SubscriberRepository, dispatcher ports.Dispatcher) *HealthService {
	return &HealthService{subscribers: subscribers, dispatcher: dispatcher}
}

// Check : error si le stockage échoue, degraded si l'email n'est pas configuré, ok sinon.
func (s *HealthService) Check(ctx context.Context) HealthReport {
	rep := HealthReport{Status: HealthOK, Database: CheckResult{Status: "connected"}}

	counts, err := s.subscribers.Counts(ctx)
	if err != nil {
		rep.Status = HealthError
		rep.Database = CheckResult{Status: "error", Error: err.Error()}
	} else {
		rep.Subscribers = &counts
	}

	if s.dispatcher != nil && s.dispatcher.Configured() {
		rep.Email = CheckResult{Status: "configured"}
	} else {
		rep.Email = CheckResult{Status: "not_configured"}
		if rep.Status == HealthOK {
			rep.Status = HealthDegraded
		}
	}
	return rep
}
