package supabase

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"sort"
	"strings"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Migrate applique le schéma Postgres (tables episodes, transcript_nodes, subscribers, inbox).
// Nécessite DBURL : PostgREST ne sait pas exécuter de DDL.
func (c *Client) Migrate(ctx context.Context) error {
	if c.db == nil {
		return errors.New("supabase migrate requires a database url")
	}
	if _, err := c.db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS stoop_schema_migrations (name TEXT PRIMARY KEY, applied_at TIMESTAMPTZ NOT NULL DEFAULT now())`); err != nil {
		return err
	}
	entries, err := migrationsFS.ReadDir("migrations")
	if err != nil {
		return err
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if strings.HasSuffix(e.Name(), ".sql") {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	for _, name := range names {
		var exists bool
		if err := c.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM stoop_schema_migrations WHERE name = $1)`, name).Scan(&exists); err != nil {
			return err
		}
		if exists {
			continue
		}
		b, err := migrationsFS.ReadFile("migrations/" + name)
		if err != nil {
			return err
		}
		tx, err := c.db.BeginTx(ctx, nil)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, string(b)); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("migration %s failed: %w", name, err)
		}
		if _, err := tx.ExecContext(ctx, `INSERT INTO stoop_schema_migrations(name) VALUES($1)`, name); err != nil {
			_ = tx.Rollback()
			return err
		}
		if err := tx.Commit(); err != nil {
			return err
		}
		c.logger.Info().Str("migration", name).Msg("migration applied")
	}
	return nil
}
