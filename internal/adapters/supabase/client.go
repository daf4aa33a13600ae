// Package supabase branche le stockage et l'authentification sur un projet Supabase :
// PostgREST pour les tables, GoTrue pour les sessions admin, Postgres direct pour les migrations.
package supabase

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/rs/zerolog"
	supabase "github.com/supabase-community/supabase-go"
)

type Config struct {
	URL string
	// Key est la clé service role côté serveur (les policies RLS ne s'appliquent pas).
	Key string
	// DBURL est optionnel : sans lui, seul le mode REST est disponible.
	DBURL string
}

type Client struct {
	logger zerolog.Logger
	sdk    *supabase.Client
	db     *sql.DB
	cfg    Config
}

func NewClient(logger zerolog.Logger, cfg Config) *Client {
	return &Client{logger: logger.With().Str("component", "supabase").Logger(), cfg: cfg}
}

// Connect initialise le client REST et, si DBURL est fourni, la connexion Postgres.
func (c *Client) Connect(ctx context.Context) error {
	if c.cfg.URL == "" || c.cfg.Key == "" {
		return errors.New("supabase url and key are required")
	}
	sdk, err := supabase.NewClient(strings.TrimRight(c.cfg.URL, "/"), c.cfg.Key, nil)
	if err != nil {
		return fmt.Errorf("initialize supabase SDK: %w", err)
	}
	c.sdk = sdk

	if c.cfg.DBURL == "" {
		c.logger.Info().Msg("supabase REST mode")
		return nil
	}
	connStr := addConnectionParam(c.cfg.DBURL, "default_query_exec_mode", "simple_protocol")
	db, err := sql.Open("pgx", connStr)
	if err != nil {
		return fmt.Errorf("open supabase postgres: %w", err)
	}
	db.SetMaxOpenConns(2)
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return fmt.Errorf("ping supabase postgres: %w", err)
	}
	c.db = db
	return nil
}

func (c *Client) SDK() *supabase.Client { return c.sdk }

// DB renvoie nil en mode REST.
func (c *Client) DB() *sql.DB { return c.db }

func (c *Client) Close() error {
	if c.db != nil {
		return c.db.Close()
	}
	return nil
}

func addConnectionParam(connStr, key, value string) string {
	if strings.Contains(connStr, key+"=") {
		return connStr
	}
	sep := "?"
	if strings.Contains(connStr, "?") {
		sep = "&"
	}
	return connStr + sep + key + "=" + value
}

// isUniqueViolation reconnaît le code Postgres 23505 renvoyé par PostgREST sous la forme "(23505) ...".
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "(23505)")
}
