// Package app wires the japa server runtime: config, logging, stores, and HTTP routes.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"japa/cmd/identity"
	authapi "japa/cmd/internal/auth/api"
	"japa/cmd/internal/auth/session"
	"japa/cmd/internal/chanting"
	"japa/cmd/internal/leaderboard"
	"japa/cmd/internal/ledger"
	"japa/cmd/internal/metrics"
	"japa/cmd/internal/streak"
	"japa/cmd/security/password"
	"japa/cmd/security/token"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

// redisSessionGrace keeps a Redis session key around slightly past its
// expiry so Validate can still report session_expired.
const redisSessionGrace = time.Minute

// App is the japa server runtime. It owns the HTTP wiring and the
// lifecycle of the DB pool and Redis client.
type App struct {
	cfg Config
	log Logger

	dbPool *pgxpool.Pool
	redis  *redis.Client

	metrics  *metrics.Metrics
	auth     *authapi.Handler
	chanting *chanting.Handler
}

// stores groups the persistence backends chosen for one runtime.
type stores struct {
	users   identity.Store
	entries ledger.Store
	streaks streak.Store
	board   leaderboard.Source
}

// New constructs a fully wired App. Session, PIN hashing and auth API
// settings are read from their own JAPA_* variables.
func New(ctx context.Context, cfg Config, log Logger) (*App, error) {
	if log == nil {
		log = NewLogger(cfg.LogLevel, cfg.LogFormat)
	}

	a := &App{cfg: cfg, log: log, metrics: metrics.New()}

	if err := a.build(ctx); err != nil {
		a.close()
		return nil, err
	}
	return a, nil
}

func (a *App) build(ctx context.Context) error {
	cfg := a.cfg

	if cfg.DatabaseURL != "" {
		pool, err := NewDBPool(ctx, cfg)
		if err != nil {
			return fmt.Errorf("app: database: %w", err)
		}
		a.dbPool = pool
		a.log.Info("db.enabled.postgres_store", "schema", cfg.DBSchema, "auto_migrate", cfg.DBAutoMigrate)
	} else {
		a.log.Info("db.disabled.inmemory_store")
	}

	st, err := a.newStores()
	if err != nil {
		return err
	}

	sessionStore, err := a.newSessionStore(ctx)
	if err != nil {
		return err
	}

	sessCfg, err := session.LoadConfigFromEnv()
	if err != nil {
		return fmt.Errorf("app: session config: %w", err)
	}
	tokens, err := session.NewPasetoV4PublicManager(sessCfg)
	if err != nil {
		return fmt.Errorf("app: session tokens: %w", err)
	}
	digest, err := token.DigesterFromEnv(cfg.RequireTokenHMAC)
	if err != nil {
		return fmt.Errorf("app: token digester: %w", err)
	}
	sessions := session.NewManager(sessCfg, sessionStore, tokens, digest)

	pinCfg, err := password.FromEnv()
	if err != nil {
		return fmt.Errorf("app: pin config: %w", err)
	}
	creds := identity.NewCredentialStore(st.users, password.NewHasher(pinCfg))

	authOpts := []authapi.HandlerOption{authapi.WithMetrics(a.metrics)}
	if cfg.ProviderCertsURL != "" {
		provider := identity.NewProviderAuthenticator(
			identity.ProviderConfig{
				Issuer:   cfg.ProviderIssuer,
				Audience: cfg.ProviderAudience,
				Leeway:   cfg.ProviderLeeway,
			},
			identity.NewRemoteCerts(cfg.ProviderCertsURL, cfg.ProviderCertsTTL, nil),
			st.users,
		)
		authOpts = append(authOpts, authapi.WithProvider(provider))
		a.log.Info("auth.provider.enabled", "issuer", cfg.ProviderIssuer)
	}

	a.auth, err = authapi.NewHandler(a.log, authapi.LoadConfigFromEnv(), creds, st.users, sessions, authOpts...)
	if err != nil {
		return err
	}

	updater := streak.NewUpdater(st.streaks,
		streak.WithMaxAttempts(cfg.StreakMaxAttempts),
		streak.WithConflictHook(a.metrics.StreakConflict),
	)
	svc := chanting.NewService(a.log, ledger.New(st.entries), updater, a.metrics)
	board := leaderboard.New(st.board, cfg.BeadsPerRound)
	a.chanting = chanting.NewHandler(a.log, chanting.Config{MaxBodyBytes: int64(cfg.ChantMaxBodyBytes)}, svc, sessions, board)

	return nil
}

// newStores picks Postgres stores when a pool exists and in-memory ones otherwise.
func (a *App) newStores() (stores, error) {
	if a.dbPool == nil {
		users := identity.NewMemoryStore()
		entries := ledger.NewMemoryStore()
		streaks := streak.NewMemoryStore()
		return stores{
			users:   users,
			entries: entries,
			streaks: streaks,
			board:   leaderboard.JoinSource{Users: users, Totals: entries, Streaks: streaks},
		}, nil
	}

	schema := a.cfg.DBSchema
	users, err := identity.NewPostgresStore(a.dbPool, identity.WithSchema(schema))
	if err != nil {
		return stores{}, err
	}
	entries, err := ledger.NewPostgresStore(a.dbPool, schema)
	if err != nil {
		return stores{}, err
	}
	streaks, err := streak.NewPostgresStore(a.dbPool, schema)
	if err != nil {
		return stores{}, err
	}
	board, err := leaderboard.NewPostgresSource(a.dbPool, schema)
	if err != nil {
		return stores{}, err
	}
	return stores{users: users, entries: entries, streaks: streaks, board: board}, nil
}

func (a *App) newSessionStore(ctx context.Context) (session.Store, error) {
	backend := a.cfg.sessionBackend()
	a.log.Info("session.backend", "backend", backend)

	switch backend {
	case SessionBackendMemory:
		return session.NewMemoryStore(), nil
	case SessionBackendPostgres:
		if a.dbPool == nil {
			return nil, errors.New("app: JAPA_SESSION_BACKEND=postgres requires JAPA_DATABASE_URL")
		}
		return session.NewPostgresStore(a.dbPool, a.cfg.DBSchema)
	case SessionBackendRedis:
		if a.cfg.RedisURL == "" {
			return nil, errors.New("app: JAPA_SESSION_BACKEND=redis requires JAPA_REDIS_URL")
		}
		client, err := NewRedisClient(ctx, a.cfg.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("app: redis: %w", err)
		}
		a.redis = client
		return session.NewRedisStore(client, a.cfg.RedisKeyPrefix, redisSessionGrace)
	default:
		return nil, fmt.Errorf("app: unknown JAPA_SESSION_BACKEND %q", backend)
	}
}

// Handler returns the complete HTTP handler, middleware included.
func (a *App) Handler() http.Handler {
	mux := http.NewServeMux()
	registerHTTP(mux, a)
	return WithRequestLogging(WithSecurityHeaders(WithCORS(mux, a.cfg, a.log)), a.log, a.metrics)
}

// Run starts the HTTP server and blocks until context cancellation or fatal server error.
func (a *App) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              a.cfg.HTTPAddr,
		Handler:           a.Handler(),
		ReadHeaderTimeout: nonZeroDuration(a.cfg.ReadHeaderTimeout, 5*time.Second),
		ReadTimeout:       nonZeroDuration(a.cfg.ReadTimeout, 15*time.Second),
		WriteTimeout:      nonZeroDuration(a.cfg.WriteTimeout, 15*time.Second),
		IdleTimeout:       nonZeroDuration(a.cfg.IdleTimeout, 60*time.Second),
		MaxHeaderBytes:    nonZeroInt(a.cfg.MaxHeaderBytes, 1<<20),
	}

	a.log.Info("server.start", "addr", a.cfg.HTTPAddr, "db_enabled", a.dbPool != nil)

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		a.log.Info("server.stop", "reason", "context_done")
	case err := <-errCh:
		a.log.Error("server.fail", "err", err)
		a.close()
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		a.log.Error("server.shutdown.fail", "err", err)
		a.close()
		return err
	}

	a.close()
	a.log.Info("server.stopped")
	return nil
}

// close releases the pool and Redis client. The app owns both.
func (a *App) close() {
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.log.Error("redis.close.fail", "err", err)
		}
		a.redis = nil
	}
	if a.dbPool != nil {
		a.dbPool.Close()
		a.dbPool = nil
	}
}

func nonZeroDuration(v, def time.Duration) time.Duration {
	if v <= 0 {
		return def
	}
	return v
}

func nonZeroInt(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}
