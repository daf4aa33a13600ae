package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/stoop-politics/stoop/internal/domain"
	"github.com/stoop-politics/stoop/internal/ports"
)

type SubscribersRepository struct {
	db  *sql.DB
	now func() time.Time
}

func NewSubscribersRepository(db *sql.DB) *SubscribersRepository {
	return &SubscribersRepository{db: db, now: time.Now}
}

const subscriberColumns = `id, email, subscribed_at, notifications_enabled, status, updated_at`

func scanSubscriber(row rowScanner) (domain.Subscriber, error) {
	var s domain.Subscriber
	var notif int
	var status string
	var subscribedAt, updatedAt string
	if err := row.Scan(&s.ID, &s.Email, &subscribedAt, &notif, &status, &updatedAt); err != nil {
		return domain.Subscriber{}, err
	}
	s.NotificationsEnabled = notif != 0
	s.Status = domain.SubscriberStatus(status)
	s.SubscribedAt = parseTime(subscribedAt)
	s.UpdatedAt = parseTime(updatedAt)
	return s, nil
}

func (r *SubscribersRepository) Create(ctx context.Context, sub domain.Subscriber) (domain.Subscriber, error) {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO subscribers(`+subscriberColumns+`)
		VALUES(?, ?, ?, ?, ?, ?)
	`, sub.ID, domain.NormalizeEmail(sub.Email), formatTime(sub.SubscribedAt), boolInt(sub.NotificationsEnabled), string(sub.Status), formatTime(sub.UpdatedAt))
	if err != nil {
		if isUniqueViolation(err, "subscribers.email") {
			return domain.Subscriber{}, ports.ErrConflict
		}
		return domain.Subscriber{}, err
	}
	return r.Get(ctx, sub.ID)
}

func (r *SubscribersRepository) one(ctx context.Context, where string, arg any) (domain.Subscriber, error) {
	s, err := scanSubscriber(r.db.QueryRowContext(ctx, `SELECT `+subscriberColumns+` FROM subscribers WHERE `+where, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Subscriber{}, ports.ErrNotFound
		}
		return domain.Subscriber{}, err
	}
	return s, nil
}

func (r *SubscribersRepository) Get(ctx context.Context, id string) (domain.Subscriber, error) {
	return r.one(ctx, `id = ?`, id)
}

func (r *SubscribersRepository) GetByEmail(ctx context.Context, email string) (domain.Subscriber, error) {
	return r.one(ctx, `email = ?`, domain.NormalizeEmail(email))
}

func (r *SubscribersRepository) List(ctx context.Context) ([]domain.Subscriber, error) {
	return r.query(ctx, `SELECT `+subscriberColumns+` FROM subscribers ORDER BY subscribed_at DESC, rowid DESC`)
}

func (r *SubscribersRepository) ListRecipients(ctx context.Context) ([]domain.Subscriber, error) {
	return r.query(ctx, `
		SELECT `+subscriberColumns+` FROM subscribers
		WHERE status = ? AND notifications_enabled = 1
		ORDER BY subscribed_at ASC, rowid ASC
	`, string(domain.SubscriberActive))
}

func (r *SubscribersRepository) query(ctx context.Context, q string, args ...any) ([]domain.Subscriber, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []domain.Subscriber{}
	for rows.Next() {
		s, err := scanSubscriber(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *SubscribersRepository) exec(ctx context.Context, id string, q string, args ...any) (domain.Subscriber, error) {
	res, err := r.db.ExecContext(ctx, q, args...)
	if err != nil {
		return domain.Subscriber{}, err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return domain.Subscriber{}, ports.ErrNotFound
	}
	return r.Get(ctx, id)
}

func (r *SubscribersRepository) UpdatePreferences(ctx context.Context, id string, notificationsEnabled bool, status domain.SubscriberStatus) (domain.Subscriber, error) {
	return r.exec(ctx, id, `
		UPDATE subscribers SET notifications_enabled = ?, status = ?, updated_at = ? WHERE id = ?
	`, boolInt(notificationsEnabled), string(status), formatTime(r.now()), id)
}

func (r *SubscribersRepository) SetStatus(ctx context.Context, id string, status domain.SubscriberStatus) (domain.Subscriber, error) {
	return r.exec(ctx, id, `
		UPDATE subscribers SET status = ?, updated_at = ? WHERE id = ?
	`, string(status), formatTime(r.now()), id)
}

func (r *SubscribersRepository) SetNotifications(ctx context.Context, id string, enabled bool) (domain.Subscriber, error) {
	return r.exec(ctx, id, `
		UPDATE subscribers SET notifications_enabled = ?, updated_at = ? WHERE id = ?
	`, boolInt(enabled), formatTime(r.now()), id)
}

func (r *SubscribersRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM subscribers WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return ports.ErrNotFound
	}
	return nil
}

func (r *SubscribersRepository) Counts(ctx context.Context) (domain.SubscriberCounts, error) {
	var c domain.SubscriberCounts
	err := r.db.QueryRowContext(ctx, `
		SELECT
			COUNT(*),
			COALESCE(SUM(CASE WHEN status = 'active' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN status = 'active' AND notifications_enabled = 1 THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN status = 'banned' THEN 1 ELSE 0 END), 0)
		FROM subscribers
	`).Scan(&c.Total, &c.Active, &c.WithNotifications, &c.Banned)
	return c, err
}
