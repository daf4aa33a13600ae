package sqlite

import (
	"context"
	"database/sql"

	"github.com/stoop-politics/stoop/internal/domain"
	"github.com/stoop-politics/stoop/internal/ports"
)

type InboxRepository struct {
	db *sql.DB
}

func NewInboxRepository(db *sql.DB) *InboxRepository {
	return &InboxRepository{db: db}
}

func (r *InboxRepository) Create(ctx context.Context, msg domain.InboxMessage) (domain.InboxMessage, error) {
	_, err := r.db.ExecContext(ctx, `INSERT INTO inbox(id, message, created_at) VALUES(?, ?, ?)`,
		msg.ID, msg.Message, formatTime(msg.CreatedAt))
	if err != nil {
		if isUniqueViolation(err, "inbox.id") {
			return domain.InboxMessage{}, ports.ErrConflict
		}
		return domain.InboxMessage{}, err
	}
	msg.CreatedAt = parseTime(formatTime(msg.CreatedAt))
	return msg, nil
}

func (r *InboxRepository) List(ctx context.Context, limit int) ([]domain.InboxMessage, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, message, created_at FROM inbox
		ORDER BY created_at DESC, rowid DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []domain.InboxMessage{}
	for rows.Next() {
		var m domain.InboxMessage
		var createdAt string
		if err := rows.Scan(&m.ID, &m.Message, &createdAt); err != nil {
			return nil, err
		}
		m.CreatedAt = parseTime(createdAt)
		out = append(out, m)
	}
	return out, rows.Err()
}
