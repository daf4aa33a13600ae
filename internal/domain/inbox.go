package domain

import "time"

// MaxInboxMessageLength borne un message "Ask the Stoop", en caractères.
const MaxInboxMessageLength = 1000

// InboxMessage est une question anonyme laissée par un auditeur.
type InboxMessage struct {
	ID        string    `json:"id"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"createdAt"`
}
