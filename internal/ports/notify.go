package ports

import "context"

type Email struct {
	// From vide : l'adapter utilise son expéditeur par défaut.
	From     string
	FromName string
	To       string
	Subject  string
	HTML     string
	Text     string
}

// Dispatcher envoie un email transactionnel. Le rythme d'envoi est géré par l'appelant.
type Dispatcher interface {
	Send(ctx context.Context, msg Email) error
	// Configured est faux quand les identifiants du provider manquent.
	Configured() bool
}
