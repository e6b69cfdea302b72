// Command kernelserver is the Authority Kernel process: it wires
// configuration, persistence, the HTTP command surface, and the
// background sweeper into one supervised process, mirroring the
// teacher's cmd/api-server composition root.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/uaesivakumar/authority-kernel/internal/kernel/core"
	"github.com/uaesivakumar/authority-kernel/internal/kernel/httpapi"
	"github.com/uaesivakumar/authority-kernel/internal/kernel/idgen"
	"github.com/uaesivakumar/authority-kernel/internal/kernel/services/auditlog"
	"github.com/uaesivakumar/authority-kernel/internal/kernel/services/configkernel"
	"github.com/uaesivakumar/authority-kernel/internal/kernel/services/envelopestore"
	"github.com/uaesivakumar/authority-kernel/internal/kernel/services/ratelimit"
	"github.com/uaesivakumar/authority-kernel/internal/kernel/services/reasonerclient"
	"github.com/uaesivakumar/authority-kernel/internal/kernel/services/replayengine"
	"github.com/uaesivakumar/authority-kernel/internal/kernel/services/runtimegate"
	"github.com/uaesivakumar/authority-kernel/internal/kernel/services/suitegovernance"
	"github.com/uaesivakumar/authority-kernel/internal/kernel/services/sweeper"
	"github.com/uaesivakumar/authority-kernel/internal/kernel/storage"
	"github.com/uaesivakumar/authority-kernel/internal/kernel/storage/memory"
	"github.com/uaesivakumar/authority-kernel/internal/kernel/storage/postgres"
	"github.com/uaesivakumar/authority-kernel/internal/kernel/system"
	"github.com/uaesivakumar/authority-kernel/internal/platform/database"
	"github.com/uaesivakumar/authority-kernel/internal/platform/migrations"
	"github.com/uaesivakumar/authority-kernel/pkg/config"
	"github.com/uaesivakumar/authority-kernel/pkg/logger"
	"github.com/uaesivakumar/authority-kernel/pkg/tracing"
	"github.com/uaesivakumar/authority-kernel/pkg/version"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "kernelserver: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log := logger.New(logger.LoggingConfig{
		Level:      cfg.Logging.Level,
		Format:     cfg.Logging.Format,
		Output:     cfg.Logging.Output,
		FilePrefix: cfg.Logging.FilePrefix,
	})
	log.WithFields(map[string]interface{}{
		"version": version.FullVersion(),
	}).Info("starting authority kernel")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	tracer, shutdownTracing, err := setupTracing(ctx, cfg)
	if err != nil {
		return fmt.Errorf("setup tracing: %w", err)
	}
	defer shutdownTracing(context.Background())

	clock := idgen.SystemClock{}
	ids := idgen.UUIDGenerator{}

	stores, err := setupStorage(ctx, cfg)
	if err != nil {
		return fmt.Errorf("setup storage: %w", err)
	}
	defer stores.close()

	limiter := setupRateLimiter(cfg)

	mem := stores.mem
	envelopes := envelopestore.New(stores.envelopeStore(), clock, ids)
	gate := runtimegate.New(stores.envelopeStore(), mem, clock, ids)
	replays := replayengine.New(stores.envelopeStore(), mem, clock, ids)
	governance := suitegovernance.New(mem, clock, ids)
	audit := auditlog.New(stores.auditStore(), clock, ids, 4096)
	cfgKernel := configkernel.New(mem, clock)
	scorer := reasonerclient.New(cfg.Kernel.ReasonerEndpoint, time.Duration(cfg.Kernel.HookTimeoutSec)*time.Second)

	verifier := httpapi.NewTokenVerifier([]byte(cfg.Auth.JWTSecret))
	defaultLim := httpapi.NewDefaultLimiter(cfg.RateLimit.DefaultPerSecond, cfg.RateLimit.DefaultBurst)
	stopCleanup := defaultLim.StartCleanup(10 * time.Minute)
	defer stopCleanup()

	router := httpapi.NewRouter(httpapi.Deps{
		Envelopes:  envelopes,
		Gate:       gate,
		Replays:    replays,
		ReplayRead: mem,
		Governance: governance,
		Scorer:     scorer,
		Audit:      audit,
		Config:     cfgKernel,
		RateLimit:  limiter,
		DefaultLim: defaultLim,
		Verifier:   verifier,
		Log:        log,
		Tracer:     tracer,
	})

	sweep := sweeper.New(stores.envelopeStore(), mem, mem, stores.auditStore(), clock, ids, &logPrintf{log: log}, sweeper.Config{
		Schedule:    cfg.Kernel.SweepIntervalCron,
		ReplayGrace: time.Duration(cfg.Kernel.ReplayGracePeriodSec) * time.Second,
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	manager := system.NewManager()
	if err := manager.Register(sweep); err != nil {
		return fmt.Errorf("register sweeper: %w", err)
	}
	if err := manager.Register(&httpService{srv: srv, log: log}); err != nil {
		return fmt.Errorf("register http service: %w", err)
	}

	if err := manager.Start(ctx); err != nil {
		return fmt.Errorf("start services: %w", err)
	}

	<-ctx.Done()
	log.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return manager.Stop(shutdownCtx)
}

// storageSet bundles the in-memory store every interface can fall back to
// with the PostgreSQL store for the interfaces that have a durable
// implementation. GateStore, ReplayStore, TraceStore, SuiteStore, and
// ConfigStore have no PostgreSQL implementation yet, so callers reach
// into mem directly for those; EnvelopeStore and AuditStore prefer pg when
// one is configured. The server wires no AuthorityStore consumer, so the
// pg AuthorityStore implementation is not reached from here.
type storageSet struct {
	mem     *memory.Store
	pg      *postgres.Store
	closeFn func()
}

func (s *storageSet) envelopeStore() storage.EnvelopeStore {
	if s.pg != nil {
		return s.pg
	}
	return s.mem
}

func (s *storageSet) auditStore() storage.AuditStore {
	if s.pg != nil {
		return s.pg
	}
	return s.mem
}

func (s *storageSet) close() {
	s.closeFn()
}

// setupStorage opens and migrates a PostgreSQL connection when a DSN is
// configured, otherwise it falls back to the in-memory store so the
// kernel runs locally without a database. When a DSN is configured,
// EnvelopeStore and AuditStore are served durably from PostgreSQL; the
// remaining interfaces the server uses run against the in-process store.
func setupStorage(ctx context.Context, cfg *config.Config) (*storageSet, error) {
	mem := memory.New()
	dsn := cfg.Database.DSN
	if dsn == "" {
		return &storageSet{mem: mem, closeFn: func() {}}, nil
	}

	db, err := database.Open(ctx, dsn)
	if err != nil {
		return nil, err
	}
	if cfg.Database.MigrateOnStart {
		if err := migrations.Apply(db); err != nil {
			db.Close()
			return nil, fmt.Errorf("apply migrations: %w", err)
		}
	}
	return &storageSet{mem: mem, pg: postgres.New(db), closeFn: func() { db.Close() }}, nil
}

func setupRateLimiter(cfg *config.Config) *ratelimit.Limiter {
	window := time.Duration(cfg.RateLimit.SensitiveWindowSec) * time.Second
	if cfg.RateLimit.RedisAddr == "" {
		return ratelimit.New(redis.NewClient(&redis.Options{Addr: "localhost:6379"}), window)
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RateLimit.RedisAddr,
		Password: cfg.RateLimit.RedisPassword,
		DB:       cfg.RateLimit.RedisDB,
	})
	return ratelimit.NewRedisLimiter(client, window)
}

func setupTracing(ctx context.Context, cfg *config.Config) (tracing.Tracer, func(context.Context) error, error) {
	endpoint := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")
	if endpoint == "" {
		return tracing.NoopTracer, func(context.Context) error { return nil }, nil
	}
	provider, shutdown, err := tracing.NewOTLPTracerProvider(ctx, tracing.OTLPConfig{
		Endpoint:    endpoint,
		Insecure:    os.Getenv("OTEL_EXPORTER_OTLP_INSECURE") == "true",
		ServiceName: "authority-kernel",
	})
	if err != nil {
		return nil, nil, err
	}
	return tracing.ConfigureGlobalTracer(provider, "authority-kernel"), shutdown, nil
}

type logPrintf struct {
	log *logger.Logger
}

func (l *logPrintf) Printf(format string, args ...interface{}) {
	l.log.Infof(format, args...)
}

// httpService adapts *http.Server to system.Service so the manager starts
// and stops it alongside the sweeper in one deterministic sequence.
type httpService struct {
	srv *http.Server
	log *logger.Logger
}

func (h *httpService) Name() string { return "http-server" }

func (h *httpService) Descriptor() core.Descriptor {
	return core.Descriptor{
		Name:         h.Name(),
		Domain:       "transport",
		Layer:        core.LayerTransport,
		Capabilities: []string{"http"},
	}
}

func (h *httpService) Start(context.Context) error {
	h.log.WithFields(map[string]interface{}{"addr": h.srv.Addr}).Info("http server listening")
	go func() {
		if err := h.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			h.log.WithFields(map[string]interface{}{"error": err.Error()}).Error("http server stopped")
		}
	}()
	return nil
}

func (h *httpService) Stop(ctx context.Context) error {
	return h.srv.Shutdown(ctx)
}
