package supabase

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/stoop-politics/stoop/internal/domain"
	"github.com/stoop-politics/stoop/internal/ports"
	postgrest "github.com/supabase-community/postgrest-go"
)

type SubscribersRepository struct {
	c   *Client
	now func() time.Time
}

func NewSubscribersRepository(c *Client) *SubscribersRepository {
	return &SubscribersRepository{c: c, now: time.Now}
}

func subscribers(rows []subscriberRow) []domain.Subscriber {
	out := make([]domain.Subscriber, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.domain())
	}
	return out
}

func firstSubscriber(rows []subscriberRow) (domain.Subscriber, error) {
	if len(rows) == 0 {
		return domain.Subscriber{}, ports.ErrNotFound
	}
	return rows[0].domain(), nil
}

func (r *SubscribersRepository) Create(ctx context.Context, sub domain.Subscriber) (domain.Subscriber, error) {
	var rows []subscriberRow
	if _, err := r.c.sdk.From(subscribersTable).Insert(toSubscriberRow(sub), false, "", "representation", "").ExecuteTo(&rows); err != nil {
		if isUniqueViolation(err) {
			return domain.Subscriber{}, ports.ErrConflict
		}
		return domain.Subscriber{}, fmt.Errorf("insert subscriber: %w", err)
	}
	return firstSubscriber(rows)
}

func (r *SubscribersRepository) findOne(column, value string) (domain.Subscriber, error) {
	var rows []subscriberRow
	if _, err := r.c.sdk.From(subscribersTable).Select("*", "", false).Eq(column, value).Limit(1, "").ExecuteTo(&rows); err != nil {
		return domain.Subscriber{}, fmt.Errorf("get subscriber: %w", err)
	}
	return firstSubscriber(rows)
}

func (r *SubscribersRepository) Get(ctx context.Context, id string) (domain.Subscriber, error) {
	return r.findOne("id", id)
}

func (r *SubscribersRepository) GetByEmail(ctx context.Context, email string) (domain.Subscriber, error) {
	return r.findOne("email", domain.NormalizeEmail(email))
}

func (r *SubscribersRepository) List(ctx context.Context) ([]domain.Subscriber, error) {
	var rows []subscriberRow
	_, err := r.c.sdk.From(subscribersTable).Select("*", "", false).
		Order("subscribed_at", &postgrest.OrderOpts{Ascending: false}).
		ExecuteTo(&rows)
	if err != nil {
		return nil, fmt.Errorf("list subscribers: %w", err)
	}
	return subscribers(rows), nil
}

func (r *SubscribersRepository) ListRecipients(ctx context.Context) ([]domain.Subscriber, error) {
	var rows []subscriberRow
	_, err := r.c.sdk.From(subscribersTable).Select("*", "", false).
		Eq("notifications_enabled", "true").
		Eq("status", string(domain.SubscriberActive)).
		Order("subscribed_at", &postgrest.OrderOpts{Ascending: true}).
		ExecuteTo(&rows)
	if err != nil {
		return nil, fmt.Errorf("list recipients: %w", err)
	}
	return subscribers(rows), nil
}

func (r *SubscribersRepository) patch(id string, values map[string]any) (domain.Subscriber, error) {
	values["updated_at"] = r.now().UTC()
	var rows []subscriberRow
	if _, err := r.c.sdk.From(subscribersTable).Update(values, "representation", "").Eq("id", id).ExecuteTo(&rows); err != nil {
		return domain.Subscriber{}, fmt.Errorf("update subscriber: %w", err)
	}
	return firstSubscriber(rows)
}

func (r *SubscribersRepository) UpdatePreferences(ctx context.Context, id string, notificationsEnabled bool, status domain.SubscriberStatus) (domain.Subscriber, error) {
	return r.patch(id, map[string]any{"notifications_enabled": notificationsEnabled, "status": string(status)})
}

func (r *SubscribersRepository) SetStatus(ctx context.Context, id string, status domain.SubscriberStatus) (domain.Subscriber, error) {
	return r.patch(id, map[string]any{"status": string(status)})
}

func (r *SubscribersRepository) SetNotifications(ctx context.Context, id string, enabled bool) (domain.Subscriber, error) {
	return r.patch(id, map[string]any{"notifications_enabled": enabled})
}

func (r *SubscribersRepository) Delete(ctx context.Context, id string) error {
	var rows []subscriberRow
	if _, err := r.c.sdk.From(subscribersTable).Delete("representation", "").Eq("id", id).ExecuteTo(&rows); err != nil {
		return fmt.Errorf("delete subscriber: %w", err)
	}
	if len(rows) == 0 {
		return ports.ErrNotFound
	}
	return nil
}

// Counts utilise des requêtes HEAD avec count=exact : seul l'en-tête Content-Range est lu.
func (r *SubscribersRepository) Counts(ctx context.Context) (domain.SubscriberCounts, error) {
	count := func(filters map[string]string) (int, error) {
		q := r.c.sdk.From(subscribersTable).Select("id", "exact", true)
		for col, val := range filters {
			q = q.Eq(col, val)
		}
		_, n, err := q.Execute()
		if err != nil {
			return 0, err
		}
		return int(n), nil
	}
	var c domain.SubscriberCounts
	var err error
	if c.Total, err = count(nil); err != nil {
		return c, fmt.Errorf("count subscribers: %w", err)
	}
	if c.Active, err = count(map[string]string{"status": string(domain.SubscriberActive)}); err != nil {
		return c, fmt.Errorf("count active: %w", err)
	}
	if c.WithNotifications, err = count(map[string]string{"status": string(domain.SubscriberActive), "notifications_enabled": strconv.FormatBool(true)}); err != nil {
		return c, fmt.Errorf("count notifications: %w", err)
	}
	if c.Banned, err = count(map[string]string{"status": string(domain.SubscriberBanned)}); err != nil {
		return c, fmt.Errorf("count banned: %w", err)
	}
	return c, nil
}
