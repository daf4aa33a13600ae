package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/stoop-politics/stoop/internal/adapters/httpapi"
	"github.com/stoop-politics/stoop/internal/adapters/mailjet"
	"github.com/stoop-politics/stoop/internal/adapters/memorybus"
	"github.com/stoop-politics/stoop/internal/adapters/sqlite"
	"github.com/stoop-politics/stoop/internal/app"
	"github.com/stoop-politics/stoop/internal/buildinfo"
	"github.com/stoop-politics/stoop/internal/config"
	"github.com/stoop-politics/stoop/internal/domain"
	"github.com/stoop-politics/stoop/internal/ratelimit"
)

func main() {
	configPath := flag.String("config", os.Getenv("STOOP_CONFIG"), "Fichier de configuration TOML (optionnel)")
	addr := flag.String("addr", "", "Adresse d'écoute (ex: 127.0.0.1:8080)")
	dbPath := flag.String("db", "", "Chemin SQLite (ex: stoop.db)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}
	if *addr != "" {
		cfg.Addr = *addr
	}
	if *dbPath != "" {
		cfg.DBPath = *dbPath
	}

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	logger := zerolog.New(os.Stdout).Level(level).With().Timestamp().Str("app", "stoop-server").Logger()
	log.Logger = logger

	if err := run(logger, cfg); err != nil {
		logger.Fatal().Err(err).Msg("server stopped")
	}
	logger.Info().Msg("bye")
}

func run(logger zerolog.Logger, cfg config.Config) error {
	logger.Info().Interface("build", buildinfo.Current()).Str("db", cfg.DBPath).Str("store", cfg.Store).Msg("starting")

	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Jobs et réglages restent toujours en SQLite local, quel que soit le store de contenu.
	db, err := sqlite.Open(shutdownCtx, cfg.DBPath)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()
	if v, err := db.SchemaVersion(shutdownCtx); err == nil {
		logger.Debug().Int("schema_version", v).Msg("sqlite ready")
	}

	st, err := openStore(shutdownCtx, logger, cfg, db)
	if err != nil {
		return err
	}
	defer st.close()

	bus := memorybus.New()
	defer bus.Close()

	jobsRepo := sqlite.NewJobsRepository(db.SQL)
	interrupted, err := jobsRepo.FailInterrupted(shutdownCtx)
	if err != nil {
		return err
	}
	if interrupted > 0 {
		logger.Warn().Int("jobs", interrupted).Msg("marked interrupted jobs as failed")
	}
	settingsRepo := sqlite.NewSettingsRepository(db.SQL)
	jobsSvc := app.NewJobService(jobsRepo, bus)
	settingsSvc := app.NewSettingsService(settingsRepo, bus)

	settings, err := seedSettings(shutdownCtx, settingsSvc, cfg)
	if err != nil {
		return err
	}

	dispatcher := mailjet.New(mailjet.Config{
		PublicKey:  cfg.Email.MailjetPublicKey,
		PrivateKey: cfg.Email.MailjetPrivateKey,
		FromEmail:  cfg.Email.From,
		FromName:   cfg.Email.FromName,
	})
	if !dispatcher.Configured() {
		logger.Warn().Msg("mailjet not configured, notifications disabled")
	}

	var notifOpts []app.NotificationOption
	if cfg.Email.SendInterval > 0 {
		notifOpts = append(notifOpts, app.WithSendInterval(time.Duration(cfg.Email.SendInterval)*time.Millisecond))
	}
	notifier := app.NewNotificationService(logger, st.subscribers, st.episodes, dispatcher, settingsRepo, notifOpts...)
	subscribersSvc := app.NewSubscriberService(logger, st.subscribers, jobsSvc, bus)
	episodesSvc := app.NewEpisodeService(logger, st.episodes, st.segments, settingsRepo, jobsSvc, bus)
	healthSvc := app.NewHealthService(st.subscribers, dispatcher)
	inboxSvc := app.NewInboxService(logger, st.inbox, bus)

	workers := cfg.Workers
	if settings.MaxWorkers > 0 {
		workers = settings.MaxWorkers
	}
	pool := app.NewWorkerPool(shutdownCtx, logger.With().Str("component", "worker").Logger(), jobsRepo, bus, app.NewExecutorRegistry(notifier), app.DefaultWorkerOptions())
	pool.SetCount(workers)
	defer pool.Close()
	logger.Info().Int("workers", pool.Count()).Msg("workers started")

	cookies, err := newCookieCodec(logger, cfg.Cookies)
	if err != nil {
		return err
	}

	srv := httpapi.NewServer(logger, httpapi.Deps{
		Episodes:      episodesSvc,
		Subscribers:   subscribersSvc,
		Notifier:      notifier,
		Jobs:          jobsSvc,
		Settings:      settingsSvc,
		Health:        healthSvc,
		Inbox:         inboxSvc,
		Auth:          st.auth,
		Bus:           bus,
		Limiter:       ratelimit.NewFixedWindow(ratelimit.WithMaxKeys(cfg.Limits.MaxKeys)),
		Limits:        limitsFrom(cfg.Limits),
		Cookies:       cookies,
		SecureCookies: cfg.Cookies.Secure,
		OnSettingsUpdated: func(updated domain.Settings) {
			if updated.MaxWorkers > 0 {
				pool.SetCount(updated.MaxWorkers)
			}
		},
	})
	if st.auth == nil {
		logger.Warn().Msg("no auth provider configured, admin API disabled")
	}

	httpServer := &http.Server{
		Addr:              cfg.Addr,
		Handler:           srv.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gctx := errgroup.WithContext(shutdownCtx)
	g.Go(func() error {
		logger.Info().Str("addr", cfg.Addr).Msg("listening")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info().Msg("shutting down")
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return httpServer.Shutdown(ctx)
	})
	return g.Wait()
}

// seedSettings applique site_url de la configuration aux réglages persistés.
func seedSettings(ctx context.Context, svc *app.SettingsService, cfg config.Config) (domain.Settings, error) {
	s, err := svc.Get(ctx)
	if err != nil {
		return domain.Settings{}, err
	}
	if cfg.SiteURL == "" || cfg.SiteURL == s.SiteURL {
		return s, nil
	}
	s.SiteURL = cfg.SiteURL
	return svc.Put(ctx, s)
}

func limitsFrom(l config.RateLimit) httpapi.Limits {
	return httpapi.Limits{
		Subscribe:     httpapi.Rule{Max: l.SubscribeMax, Window: config.Seconds(l.SubscribeWindow)},
		Verify:        httpapi.Rule{Max: l.VerifyMax, Window: config.Seconds(l.VerifyWindow)},
		Notifications: httpapi.Rule{Max: l.NotificationsMax, Window: config.Seconds(l.NotificationsWindow)},
		Inbox:         httpapi.Rule{Max: l.InboxMax, Window: config.Seconds(l.InboxWindow)},
	}
}
