package domain

import (
	"strings"
	"time"
)

type SubscriberStatus string

const (
	SubscriberActive       SubscriberStatus = "active"
	SubscriberUnsubscribed SubscriberStatus = "unsubscribed"
	SubscriberBanned       SubscriberStatus = "banned"
)

func (s SubscriberStatus) Valid() bool {
	switch s {
	case SubscriberActive, SubscriberUnsubscribed, SubscriberBanned:
		return true
	}
	return false
}

type Subscriber struct {
	ID                   string           `json:"id"`
	Email                string           `json:"email"`
	SubscribedAt         time.Time        `json:"subscribedAt"`
	NotificationsEnabled bool             `json:"notificationsEnabled"`
	Status               SubscriberStatus `json:"status"`
	UpdatedAt            time.Time        `json:"updatedAt"`
}

// Receives indique si l'abonné reçoit les broadcasts.
func (s Subscriber) Receives() bool {
	return s.Status == SubscriberActive && s.NotificationsEnabled
}

// CanTransitionSubscriber définit les transitions de statut autorisées.
// banned -> unsubscribed n'existe pas : il faut d'abord réactiver.
func CanTransitionSubscriber(from, to SubscriberStatus) bool {
	if from == to {
		return true
	}
	switch from {
	case SubscriberActive:
		return to == SubscriberUnsubscribed || to == SubscriberBanned
	case SubscriberUnsubscribed:
		return to == SubscriberActive || to == SubscriberBanned
	case SubscriberBanned:
		return to == SubscriberActive
	default:
		return false
	}
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

type SubscriberCounts struct {
	Total             int `json:"total"`
	Active            int `json:"active"`
	WithNotifications int `json:"withNotifications"`
	Banned            int `json:"banned"`
}
