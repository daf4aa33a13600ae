package mailjet

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	mailjet "github.com/mailjet/mailjet-apiv3-go"
	"github.com/stoop-politics/stoop/internal/ports"
)

var ErrNotConfigured = errors.New("mailjet credentials not configured")

// DefaultTimeout borne chaque appel à l'API Send.
const DefaultTimeout = 15 * time.Second

type Config struct {
	PublicKey  string
	PrivateKey string
	// FromEmail et FromName ne servent que si le message n'a pas d'expéditeur.
	FromEmail string
	FromName  string
	Timeout   time.Duration
}

// Dispatcher envoie les emails via l'API Send v3.1 de Mailjet, un message par appel.
type Dispatcher struct {
	cfg     Config
	timeout time.Duration
	send    func(ctx context.Context, msgs *mailjet.MessagesV31) error
}

func New(cfg Config) *Dispatcher {
	d := &Dispatcher{cfg: cfg, timeout: cfg.Timeout}
	if d.timeout <= 0 {
		d.timeout = DefaultTimeout
	}
	if cfg.PublicKey != "" && cfg.PrivateKey != "" {
		clt := mailjet.NewMailjetClient(cfg.PublicKey, cfg.PrivateKey)
		clt.SetClient(&http.Client{Timeout: d.timeout})
		// SendMailV31 ignore ctx : un envoi en vol se termine au plus tard après timeout.
		d.send = func(ctx context.Context, msgs *mailjet.MessagesV31) error {
			_, err := clt.SendMailV31(msgs)
			return err
		}
	}
	return d
}

// Configured ne dépend que des clés : l'expéditeur vient en général des réglages.
func (d *Dispatcher) Configured() bool {
	return d.send != nil
}

func (d *Dispatcher) Send(ctx context.Context, msg ports.Email) error {
	if !d.Configured() {
		return ErrNotConfigured
	}
	if msg.To == "" {
		return errors.New("missing recipient")
	}
	from, name := msg.From, msg.FromName
	if from == "" {
		from, name = d.cfg.FromEmail, d.cfg.FromName
	}
	if from == "" {
		return errors.New("missing sender")
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	info := []mailjet.InfoMessagesV31{{
		From:     &mailjet.RecipientV31{Email: from, Name: name},
		To:       &mailjet.RecipientsV31{mailjet.RecipientV31{Email: msg.To}},
		Subject:  msg.Subject,
		TextPart: msg.Text,
		HTMLPart: msg.HTML,
	}}
	if err := d.send(ctx, &mailjet.MessagesV31{Info: info}); err != nil {
		return fmt.Errorf("could not send mail: %w", err)
	}
	return nil
}
