package supabase

import (
	"context"
	"fmt"

	"github.com/stoop-politics/stoop/internal/domain"
	"github.com/stoop-politics/stoop/internal/ports"
	postgrest "github.com/supabase-community/postgrest-go"
)

const inboxTable = "inbox"

// InboxRepository stocke les questions "Ask the Stoop" dans la table inbox.
type InboxRepository struct {
	c *Client
}

func NewInboxRepository(c *Client) *InboxRepository {
	return &InboxRepository{c: c}
}

func (r *InboxRepository) Create(ctx context.Context, msg domain.InboxMessage) (domain.InboxMessage, error) {
	row := inboxRow{ID: msg.ID, Message: msg.Message, CreatedAt: msg.CreatedAt.UTC()}
	var rows []inboxRow
	if _, err := r.c.sdk.From(inboxTable).Insert(row, false, "", "representation", "").ExecuteTo(&rows); err != nil {
		if isUniqueViolation(err) {
			return domain.InboxMessage{}, ports.ErrConflict
		}
		return domain.InboxMessage{}, fmt.Errorf("insert inbox message: %w", err)
	}
	if len(rows) == 0 {
		return domain.InboxMessage{}, fmt.Errorf("insert inbox message: empty response")
	}
	return rows[0].domain(), nil
}

func (r *InboxRepository) List(ctx context.Context, limit int) ([]domain.InboxMessage, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	var rows []inboxRow
	_, err := r.c.sdk.From(inboxTable).Select("*", "", false).
		Order("created_at", &postgrest.OrderOpts{Ascending: false}).
		Limit(limit, "").
		ExecuteTo(&rows)
	if err != nil {
		return nil, fmt.Errorf("list inbox: %w", err)
	}
	out := make([]domain.InboxMessage, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.domain())
	}
	return out, nil
}
