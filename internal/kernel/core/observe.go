package core

import (
	"context"
	"time"
)

// ObservationHooks captures optional callbacks around an operation,
// wired to logrus/prometheus at the composition root rather than hardcoded
// into each service.
type ObservationHooks struct {
	OnStart    func(ctx context.Context, meta map[string]string)
	OnComplete func(ctx context.Context, meta map[string]string, err error, duration time.Duration)
}

// NoopObservationHooks is the safe zero-value default.
var NoopObservationHooks = ObservationHooks{}

// StartObservation invokes OnStart and returns a completion callback for
// OnComplete, timed from the moment StartObservation was called.
func StartObservation(ctx context.Context, hooks ObservationHooks, meta map[string]string) func(error) {
	if hooks.OnStart != nil {
		hooks.OnStart(ctx, meta)
	}
	start := time.Now()
	return func(err error) {
		if hooks.OnComplete != nil {
			hooks.OnComplete(ctx, meta, err, time.Since(start))
		}
	}
}
