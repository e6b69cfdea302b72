// Package sweeper runs the background cron jobs that keep the kernel
// from leaving entries in a non-terminal state forever: expiring due
// envelopes, failing stale pending replays, and failing stale running
// suite-validation runs, each per a configured grace period.
package sweeper

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/uaesivakumar/authority-kernel/internal/kernel/core"
	"github.com/uaesivakumar/authority-kernel/internal/kernel/domain"
	"github.com/uaesivakumar/authority-kernel/internal/kernel/idgen"
	"github.com/uaesivakumar/authority-kernel/internal/kernel/metrics"
	"github.com/uaesivakumar/authority-kernel/internal/kernel/storage"
	"github.com/uaesivakumar/authority-kernel/internal/kernel/system"
)

var _ system.Service = (*Sweeper)(nil)

// Logger is the narrow logging surface the sweeper needs.
type Logger interface {
	Printf(format string, args ...interface{})
}

type noopLogger struct{}

func (noopLogger) Printf(string, ...interface{}) {}

// Config controls sweep cadence and grace periods.
type Config struct {
	// Schedule is a standard 5-field cron expression or a descriptor such
	// as "@every 1m"; defaults to "@every 1m" if empty.
	Schedule string
	// ReplayGrace is how long a PENDING replay may sit before the
	// sweeper fails it. Defaults to 5 minutes.
	ReplayGrace time.Duration
	// RunGrace is how long a RUNNING suite-validation run may sit before
	// the sweeper fails it. Defaults to 30 minutes.
	RunGrace time.Duration
}

func (c Config) withDefaults() Config {
	if c.Schedule == "" {
		c.Schedule = "@every 1m"
	}
	if c.ReplayGrace <= 0 {
		c.ReplayGrace = 5 * time.Minute
	}
	if c.RunGrace <= 0 {
		c.RunGrace = 30 * time.Minute
	}
	return c
}

// Sweeper wraps a robfig/cron scheduler running three grace-period sweeps
// against the kernel's stores, registered as a system.Service so it
// starts and stops alongside the rest of the process.
type Sweeper struct {
	envelopes storage.EnvelopeStore
	replays   storage.ReplayStore
	suites    storage.SuiteStore
	audit     storage.AuditStore
	clock     idgen.Clock
	ids       idgen.IDGenerator
	log       Logger
	cfg       Config

	cron *cron.Cron
}

func New(envelopes storage.EnvelopeStore, replays storage.ReplayStore, suites storage.SuiteStore, audit storage.AuditStore, clock idgen.Clock, ids idgen.IDGenerator, log Logger, cfg Config) *Sweeper {
	if log == nil {
		log = noopLogger{}
	}
	return &Sweeper{
		envelopes: envelopes,
		replays:   replays,
		suites:    suites,
		audit:     audit,
		clock:     clock,
		ids:       ids,
		log:       log,
		cfg:       cfg.withDefaults(),
	}
}

func (s *Sweeper) Name() string { return "kernel-sweeper" }

func (s *Sweeper) Descriptor() core.Descriptor {
	return core.Descriptor{
		Name:         s.Name(),
		Domain:       "maintenance",
		Layer:        core.LayerSweeper,
		Capabilities: []string{"expire-envelopes", "fail-stale-replays", "fail-stale-runs"},
	}
}

// Start schedules the sweep job and runs it immediately once so a freshly
// started process doesn't wait a full cron period before its first pass.
func (s *Sweeper) Start(ctx context.Context) error {
	s.cron = cron.New()
	if _, err := s.cron.AddFunc(s.cfg.Schedule, func() { s.sweepOnce(ctx) }); err != nil {
		return err
	}
	s.cron.Start()
	go s.sweepOnce(ctx)
	return nil
}

func (s *Sweeper) Stop(context.Context) error {
	if s.cron != nil {
		stopCtx := s.cron.Stop()
		<-stopCtx.Done()
	}
	return nil
}

func (s *Sweeper) sweepOnce(ctx context.Context) {
	now := s.clock.Now()

	expiredEnvelopes, err := s.envelopes.ExpireDue(ctx, now)
	if err != nil {
		s.log.Printf("sweeper: expire envelopes: %v", err)
	} else {
		metrics.RecordSweep("envelope", len(expiredEnvelopes))
		s.auditSweep(ctx, "ENVELOPE", expiredEnvelopes, "EXPIRE_DUE_ENVELOPE")
	}

	staleReplays, err := s.replays.FailStalePending(ctx, now.Add(-s.cfg.ReplayGrace))
	if err != nil {
		s.log.Printf("sweeper: fail stale replays: %v", err)
	} else {
		metrics.RecordSweep("replay", len(staleReplays))
		s.auditSweep(ctx, "REPLAY_ATTEMPT", staleReplays, "FAIL_STALE_REPLAY")
	}

	staleRuns, err := s.suites.FailStaleRunning(ctx, now.Add(-s.cfg.RunGrace))
	if err != nil {
		s.log.Printf("sweeper: fail stale runs: %v", err)
	} else {
		metrics.RecordSweep("run", len(staleRuns))
		s.auditSweep(ctx, "RUN", staleRuns, "FAIL_STALE_RUN")
	}
}

func (s *Sweeper) auditSweep(ctx context.Context, targetType string, ids []string, action string) {
	for _, id := range ids {
		entry := domain.AuditEntry{
			ID:         s.ids.NewID(),
			ActorID:    "kernel-sweeper",
			ActorRole:  domain.ActorSystem,
			Action:     action,
			TargetType: targetType,
			TargetID:   id,
			Success:    true,
			OccurredAt: s.clock.Now(),
		}
		if _, err := s.audit.Append(ctx, entry); err != nil {
			s.log.Printf("sweeper: audit append for %s %s: %v", targetType, id, err)
		}
	}
}
