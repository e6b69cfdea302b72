package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/uaesivakumar/authority-kernel/internal/kernel/domain"
	"github.com/uaesivakumar/authority-kernel/internal/kernel/metrics"
	"github.com/uaesivakumar/authority-kernel/internal/kernel/services/auditlog"
	"github.com/uaesivakumar/authority-kernel/internal/kernel/services/configkernel"
	"github.com/uaesivakumar/authority-kernel/internal/kernel/services/envelopestore"
	"github.com/uaesivakumar/authority-kernel/internal/kernel/services/ratelimit"
	"github.com/uaesivakumar/authority-kernel/internal/kernel/services/reasonerclient"
	"github.com/uaesivakumar/authority-kernel/internal/kernel/services/replayengine"
	"github.com/uaesivakumar/authority-kernel/internal/kernel/services/runtimegate"
	"github.com/uaesivakumar/authority-kernel/internal/kernel/services/suitegovernance"
	"github.com/uaesivakumar/authority-kernel/internal/kernel/storage"
	"github.com/uaesivakumar/authority-kernel/pkg/logger"
	"github.com/uaesivakumar/authority-kernel/pkg/tracing"
	"github.com/uaesivakumar/authority-kernel/pkg/version"
)

// Deps is every service the transport calls into. It holds no lifecycle
// of its own; composition and startup belong to cmd/kernelserver.
type Deps struct {
	Envelopes  *envelopestore.Store
	Gate       *runtimegate.Gate
	Replays    *replayengine.Engine
	ReplayRead storage.ReplayStore
	Governance *suitegovernance.Service
	Scorer     *reasonerclient.Client
	Audit      *auditlog.Log
	Config     *configkernel.Kernel
	RateLimit  *ratelimit.Limiter
	DefaultLim *DefaultLimiter
	Verifier   *TokenVerifier
	Log        *logger.Logger
	Tracer     tracing.Tracer
}

// NewRouter builds the full command surface over chi, grounded on the
// teacher's internal/app/httpapi route-registration shape but generalized
// from http.ServeMux to go-chi/chi/v5 for path-parameter routes like
// /envelopes/{envelopeID}.
func NewRouter(d Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(Recover(d.Log))
	r.Use(RequestLogging(d.Log))

	tracer := d.Tracer
	if tracer == nil {
		tracer = tracing.NoopTracer
	}
	r.Use(Trace(tracer))

	defaultLim := d.DefaultLim
	if defaultLim == nil {
		defaultLim = NewDefaultLimiter(20, 40)
	}
	r.Use(DefaultRateLimit(defaultLim))

	r.Get("/metrics", metrics.Handler().ServeHTTP)
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeOK(w, http.StatusOK, map[string]interface{}{"status": "ok", "version": version.FullVersion()})
	})

	env := &envelopeHandlers{store: d.Envelopes}
	gate := &gateHandlers{gate: d.Gate}
	replay := &replayHandlers{engine: d.Replays, store: d.ReplayRead}
	gov := &governanceHandlers{service: d.Governance, scorer: d.Scorer}
	audit := &auditHandlers{log: d.Audit}
	cfg := &configHandlers{kernel: d.Config}

	r.Group(func(api chi.Router) {
		api.Use(Authenticate(d.Verifier))

		api.Post("/seal", env.seal)
		api.Post("/verify", env.verify)
		api.Post("/envelopes/{envelopeID}/revoke", env.revoke)

		api.Post("/runtime-gate/check", gate.check)

		api.Post("/replay/initiate", replay.initiate)
		api.Post("/replay/complete", replay.complete)
		api.Group(func(sensitive chi.Router) {
			sensitive.Use(SensitiveReadLimit(d.RateLimit, "replay-history", 60))
			sensitive.Get("/replay/history/{envelopeID}", replay.history)
		})

		api.Post("/commands/run-system-validation", gov.runSystemValidation)
		api.Post("/commands/start-human-calibration", gov.startHumanCalibration)
		api.Group(func(admin chi.Router) {
			admin.Use(RequireRole(domain.ActorCalibrationAdmin))
			admin.Post("/commands/approve-for-ga", gov.approveForGA)
		})
		api.Post("/commands/deprecate-suite", gov.deprecateSuite)
		api.Post("/commands/create-version", gov.createVersion)
		api.Get("/suites", gov.listSuites)

		api.Group(func(sensitive chi.Router) {
			sensitive.Use(SensitiveReadLimit(d.RateLimit, "audit-read", 120))
			sensitive.Get("/audit", audit.list)
		})

		api.Get("/config/{namespace}", cfg.getNamespace)
		api.Get("/config/{namespace}/{key}", cfg.getKey)
		api.Put("/config/{namespace}/{key}", cfg.putKey)
		api.Delete("/config/{namespace}/{key}", cfg.deleteKey)
	})

	return r
}

// RequestTimeout caps how long any single request may run, matching the
// per-operation deadline the concurrency model requires.
func RequestTimeout(d time.Duration) func(http.Handler) http.Handler {
	return chimiddleware.Timeout(d)
}
