// Command sessionctl drives a console session from the terminal. The refresh
// token and role survive between invocations in a SQLite file, or in Redis
// when SESSION_REDIS_ADDR is set.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/url"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/aussiebroadwan/modconsole/pkg/authsdk"
	"github.com/aussiebroadwan/modconsole/pkg/slogx"
	"github.com/aussiebroadwan/modconsole/pkg/statestore/redisstore"
	"github.com/aussiebroadwan/modconsole/pkg/statestore/sqlitestore"
)

const usage = `usage: sessionctl [flags] <command> [args]

commands:
  signin  -email E [-password P] [-code C]   sign in, prompting for a 2FA code if needed
  2fa     <code>                             answer a pending challenge (shell only)
  signup  -email E -password P [-first F] [-last L] [-username U]
  status                                     print the session state
  whoami                                     print the signed-in user's profile
  signout                                    forget every credential
  shell                                      read commands from stdin

flags:
`

type config struct {
	BaseURL   string
	Profile   string
	DBFile    string
	RedisAddr string
	RedisTTL  time.Duration
	LogLevel  string
}

func loadConfig() config {
	dbFile := "sessionctl.db"
	if dir, err := os.UserConfigDir(); err == nil {
		dbFile = filepath.Join(dir, "modconsole", "sessionctl.db")
	}

	cfg := config{
		BaseURL:   getEnvOrDefault("SESSION_BASE_URL", "http://localhost:8080"),
		Profile:   getEnvOrDefault("SESSION_PROFILE", authsdk.StorageKey),
		DBFile:    getEnvOrDefault("SESSION_DB_FILE", dbFile),
		RedisAddr: os.Getenv("SESSION_REDIS_ADDR"),
		LogLevel:  getEnvOrDefault("SESSION_LOG_LEVEL", "warn"),
	}
	if ttl, err := time.ParseDuration(os.Getenv("SESSION_REDIS_TTL")); err == nil {
		cfg.RedisTTL = ttl
	}
	return cfg
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func main() {
	_ = godotenv.Load()

	cfg := loadConfig()

	fs := flag.NewFlagSet("sessionctl", flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprint(fs.Output(), usage)
		fs.PrintDefaults()
	}
	fs.StringVar(&cfg.BaseURL, "base-url", cfg.BaseURL, "backend base URL")
	fs.StringVar(&cfg.Profile, "profile", cfg.Profile, "session profile name")
	fs.StringVar(&cfg.DBFile, "db", cfg.DBFile, "SQLite file holding the session")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level (debug, info, warn, error)")
	_ = fs.Parse(os.Args[1:])

	if fs.NArg() == 0 {
		fs.Usage()
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, cfg, fs.Args()); err != nil {
		fmt.Fprintln(os.Stderr, "sessionctl:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config, args []string) error {
	logger := slogx.New(slogx.Config{
		Service: "sessionctl",
		Level:   cfg.LogLevel,
		Format:  "text",
		Output:  os.Stderr,
	})

	persister, closePersister, err := openPersister(ctx, cfg)
	if err != nil {
		return err
	}
	defer closePersister()

	client := authsdk.NewSDKClient(authsdk.Config{BaseURL: cfg.BaseURL, Logger: logger})
	session := authsdk.NewSession(client, authsdk.NewTokenStore(ctx, persister, logger))

	if err := session.Bootstrap(ctx); err != nil {
		logger.Warn("could not restore session", "err", err)
	}

	c := newCLI(session, os.Stdin, os.Stdout)
	err = c.dispatch(ctx, args)
	var ue *userError
	if errors.As(err, &ue) {
		logger.Debug("command failed", "err", ue.err)
	}
	return err
}

// openPersister picks Redis when an address is configured and the SQLite
// file otherwise.
func openPersister(ctx context.Context, cfg config) (authsdk.Persister, func(), error) {
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: os.Getenv("SESSION_REDIS_PASSWORD"),
		})
		store := redisstore.New(rdb, redisstore.Options{Profile: cfg.Profile, TTL: cfg.RedisTTL})
		if err := store.Ping(ctx); err != nil {
			_ = rdb.Close()
			return nil, nil, fmt.Errorf("connect redis: %w", err)
		}
		return store, func() { _ = rdb.Close() }, nil
	}

	if err := os.MkdirAll(filepath.Dir(cfg.DBFile), 0o700); err != nil {
		return nil, nil, fmt.Errorf("create session dir: %w", err)
	}
	dsn := "file:" + (&url.URL{Path: cfg.DBFile}).EscapedPath() + "?_pragma=busy_timeout(5000)"
	store, err := sqlitestore.Open(dsn, cfg.Profile)
	if err != nil {
		return nil, nil, err
	}
	return store, func() { _ = store.Close() }, nil
}
