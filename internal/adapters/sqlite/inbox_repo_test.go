package sqlite

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stoop-politics/stoop/internal/domain"
	"github.com/stoop-politics/stoop/internal/ports"
)

func TestInboxRepository_CreateAndListNewestFirst(t *testing.T) {
	ctx := context.Background()
	repo := NewInboxRepository(openTestDB(t).SQL)
	base := time.Date(2024, 3, 1, 18, 0, 0, 0, time.UTC)

	for i, text := range []string{"first", "second", "third"} {
		msg := domain.InboxMessage{ID: text, Message: text, CreatedAt: base.Add(time.Duration(i) * time.Minute)}
		if _, err := repo.Create(ctx, msg); err != nil {
			t.Fatalf("Create(%s): %v", text, err)
		}
	}
	if _, err := repo.Create(ctx, domain.InboxMessage{ID: "first", Message: "dup", CreatedAt: base}); !errors.Is(err, ports.ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}

	got, err := repo.List(ctx, 2)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != 2 || got[0].ID != "third" || got[1].ID != "second" {
		t.Fatalf("unexpected order: %+v", got)
	}
	if !got[0].CreatedAt.Equal(base.Add(2 * time.Minute)) {
		t.Fatalf("unexpected created_at %v", got[0].CreatedAt)
	}
}
