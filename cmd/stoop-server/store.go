package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/gorilla/securecookie"
	"github.com/rs/zerolog"

	"github.com/stoop-politics/stoop/internal/adapters/sqlite"
	"github.com/stoop-politics/stoop/internal/adapters/supabase"
	"github.com/stoop-politics/stoop/internal/auth"
	"github.com/stoop-politics/stoop/internal/config"
	"github.com/stoop-politics/stoop/internal/ports"
)

// store regroupe les dépôts de contenu (épisodes, transcriptions, abonnés, inbox) et l'auth admin.
type store struct {
	episodes    ports.EpisodeRepository
	segments    ports.TranscriptRepository
	subscribers ports.SubscriberRepository
	inbox       ports.InboxRepository
	auth        ports.AuthProvider
	close       func()
}

func openStore(ctx context.Context, logger zerolog.Logger, cfg config.Config, db *sqlite.DB) (store, error) {
	var verifier ports.AuthProvider
	if cfg.Supabase.JWTSecret != "" {
		verifier = auth.NewJWTVerifier([]byte(cfg.Supabase.JWTSecret))
	}

	switch cfg.Store {
	case config.StoreSupabase:
		client := supabase.NewClient(logger, supabase.Config{
			URL:   cfg.Supabase.URL,
			Key:   cfg.SupabaseKey(),
			DBURL: cfg.Supabase.DBURL,
		})
		if err := client.Connect(ctx); err != nil {
			return store{}, fmt.Errorf("connect supabase: %w", err)
		}
		if cfg.Supabase.Migrate {
			if err := client.Migrate(ctx); err != nil {
				_ = client.Close()
				return store{}, fmt.Errorf("migrate supabase: %w", err)
			}
		}
		if verifier == nil {
			verifier = supabase.NewAuthProvider(client)
		}
		return store{
			episodes:    supabase.NewEpisodesRepository(client),
			segments:    supabase.NewTranscriptsRepository(client),
			subscribers: supabase.NewSubscribersRepository(client),
			inbox:       supabase.NewInboxRepository(client),
			auth:        verifier,
			close:       func() { _ = client.Close() },
		}, nil
	default:
		return store{
			episodes:    sqlite.NewEpisodesRepository(db.SQL),
			segments:    sqlite.NewTranscriptsRepository(db.SQL),
			subscribers: sqlite.NewSubscribersRepository(db.SQL),
			inbox:       sqlite.NewInboxRepository(db.SQL),
			auth:        verifier,
			close:       func() {},
		}, nil
	}
}

// newCookieCodec construit le codec du cookie abonné. Sans clé configurée, une clé
// aléatoire est générée : les cookies ne survivent alors pas au redémarrage.
func newCookieCodec(logger zerolog.Logger, c config.Cookies) (*securecookie.SecureCookie, error) {
	hashKey := []byte(c.HashKey)
	if len(hashKey) == 0 {
		logger.Warn().Msg("cookies.hash_key not set, using an ephemeral key")
		hashKey = securecookie.GenerateRandomKey(64)
		if hashKey == nil {
			return nil, errors.New("generate cookie hash key")
		}
	}
	var blockKey []byte
	if c.BlockKey != "" {
		blockKey = []byte(c.BlockKey)
		switch len(blockKey) {
		case 16, 24, 32:
		default:
			return nil, fmt.Errorf("cookies.block_key must be 16, 24 or 32 bytes, got %d", len(blockKey))
		}
	}
	return securecookie.New(hashKey, blockKey), nil
}
