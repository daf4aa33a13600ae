package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

const (
	StoreSQLite   = "sqlite"
	StoreSupabase = "supabase"
)

type Supabase struct {
	URL            string `toml:"url"`
	AnonKey        string `toml:"key"`
	ServiceRoleKey string `toml:"service_role_key"`
	// JWTSecret permet de vérifier les tokens localement, sans appel à l'API auth.
	JWTSecret string `toml:"jwt_secret"`
	// DBURL est la connexion Postgres directe, utilisée seulement pour les migrations.
	DBURL   string `toml:"db_url"`
	Migrate bool   `toml:"migrate"`
}

type Email struct {
	MailjetPublicKey  string `toml:"mailjet_public_key"`
	MailjetPrivateKey string `toml:"mailjet_private_key"`
	From              string `toml:"from"`
	FromName          string `toml:"from_name"`
	// SendInterval en millisecondes ; 0 garde la valeur des réglages.
	SendInterval int `toml:"send_interval"`
}

// RateLimit exprime les fenêtres en secondes.
type RateLimit struct {
	MaxKeys             int `toml:"max_keys"`
	SubscribeMax        int `toml:"subscribe_max"`
	SubscribeWindow     int `toml:"subscribe_window"`
	VerifyMax           int `toml:"verify_max"`
	VerifyWindow        int `toml:"verify_window"`
	NotificationsMax    int `toml:"notifications_max"`
	NotificationsWindow int `toml:"notifications_window"`
	InboxMax            int `toml:"inbox_max"`
	InboxWindow         int `toml:"inbox_window"`
}

type Cookies struct {
	HashKey  string `toml:"hash_key"`
	BlockKey string `toml:"block_key"`
	Secure   bool   `toml:"secure"`
}

type Config struct {
	Addr     string    `toml:"addr"`
	DBPath   string    `toml:"db_path"`
	LogLevel string    `toml:"log_level"`
	SiteURL  string    `toml:"site_url"`
	Store    string    `toml:"store"`
	Workers  int       `toml:"workers"`
	Supabase Supabase  `toml:"supabase"`
	Email    Email     `toml:"email"`
	Limits   RateLimit `toml:"ratelimit"`
	Cookies  Cookies   `toml:"cookies"`
}

func Default() Config {
	return Config{
		Addr:     envOr("STOOP_ADDR", "127.0.0.1:8080"),
		DBPath:   envOr("STOOP_DB_PATH", "stoop.db"),
		LogLevel: "info",
		Store:    StoreSQLite,
		Workers:  1,
		Limits: RateLimit{
			MaxKeys:             10_000,
			SubscribeMax:        5,
			SubscribeWindow:     60,
			VerifyMax:           10,
			VerifyWindow:        60,
			NotificationsMax:    10,
			NotificationsWindow: 60,
			InboxMax:            5,
			InboxWindow:         60,
		},
	}
}

// Load lit les valeurs par défaut, puis le fichier TOML (optionnel si path est vide
// ou introuvable), puis les variables d'environnement STOOP_*.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		b, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := toml.Unmarshal(b, &cfg); err != nil {
				return Config{}, fmt.Errorf("parse config %s: %w", path, err)
			}
		case errors.Is(err, fs.ErrNotExist):
		default:
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
	}
	applyEnv(&cfg)
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	cfg.Addr = envOr("STOOP_ADDR", cfg.Addr)
	cfg.DBPath = envOr("STOOP_DB_PATH", cfg.DBPath)
	cfg.LogLevel = envOr("STOOP_LOG_LEVEL", cfg.LogLevel)
	cfg.SiteURL = envOr("STOOP_SITE_URL", cfg.SiteURL)
	cfg.Store = envOr("STOOP_STORE", cfg.Store)
	cfg.Workers = envIntOr("STOOP_WORKERS", cfg.Workers)

	cfg.Supabase.URL = envOr("SUPABASE_URL", cfg.Supabase.URL)
	cfg.Supabase.AnonKey = envOr("SUPABASE_ANON_KEY", cfg.Supabase.AnonKey)
	cfg.Supabase.ServiceRoleKey = envOr("SUPABASE_SERVICE_ROLE_KEY", cfg.Supabase.ServiceRoleKey)
	cfg.Supabase.JWTSecret = envOr("SUPABASE_JWT_SECRET", cfg.Supabase.JWTSecret)
	cfg.Supabase.DBURL = envOr("SUPABASE_DB_URL", cfg.Supabase.DBURL)

	cfg.Email.MailjetPublicKey = envOr("MAILJET_PUBLIC_KEY", cfg.Email.MailjetPublicKey)
	cfg.Email.MailjetPrivateKey = envOr("MAILJET_PRIVATE_KEY", cfg.Email.MailjetPrivateKey)
	cfg.Email.From = envOr("STOOP_EMAIL_FROM", cfg.Email.From)
	cfg.Email.FromName = envOr("STOOP_EMAIL_FROM_NAME", cfg.Email.FromName)

	cfg.Cookies.HashKey = envOr("STOOP_COOKIE_HASH_KEY", cfg.Cookies.HashKey)
	cfg.Cookies.BlockKey = envOr("STOOP_COOKIE_BLOCK_KEY", cfg.Cookies.BlockKey)
}

func (c Config) Validate() error {
	switch c.Store {
	case StoreSQLite:
	case StoreSupabase:
		if c.Supabase.URL == "" {
			return errors.New("store=supabase requires supabase.url")
		}
		if c.Supabase.ServiceRoleKey == "" && c.Supabase.AnonKey == "" {
			return errors.New("store=supabase requires supabase.service_role_key or supabase.key")
		}
	default:
		return fmt.Errorf("unknown store %q", c.Store)
	}
	l := c.Limits
	for name, v := range map[string]int{
		"ratelimit.max_keys":             l.MaxKeys,
		"ratelimit.subscribe_max":        l.SubscribeMax,
		"ratelimit.subscribe_window":     l.SubscribeWindow,
		"ratelimit.verify_max":           l.VerifyMax,
		"ratelimit.verify_window":        l.VerifyWindow,
		"ratelimit.notifications_max":    l.NotificationsMax,
		"ratelimit.notifications_window": l.NotificationsWindow,
		"ratelimit.inbox_max":            l.InboxMax,
		"ratelimit.inbox_window":         l.InboxWindow,
	} {
		if v <= 0 {
			return fmt.Errorf("%s must be positive", name)
		}
	}
	if c.Email.SendInterval < 0 {
		return errors.New("email.send_interval must not be negative")
	}
	if c.Workers < 0 {
		return errors.New("workers must not be negative")
	}
	return nil
}

// SupabaseKey renvoie la clé serveur : service role si présente, sinon la clé anonyme.
func (c Config) SupabaseKey() string {
	if c.Supabase.ServiceRoleKey != "" {
		return c.Supabase.ServiceRoleKey
	}
	return c.Supabase.AnonKey
}

func Seconds(n int) time.Duration {
	return time.Duration(n) * time.Second
}

func envOr(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func envIntOr(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}
