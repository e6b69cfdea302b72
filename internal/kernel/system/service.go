// Package system provides the lifecycle-managed service contract every
// long-running kernel component (sweeper, HTTP server) implements, plus
// a deterministic-order manager, mirroring the teacher's own application
// system package.
package system

import (
	"context"

	"github.com/uaesivakumar/authority-kernel/internal/kernel/core"
)

// Service is a lifecycle-managed component. The manager starts and stops
// every registered service deterministically.
type Service interface {
	Name() string
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}

// DescriptorProvider optionally advertises service metadata.
type DescriptorProvider interface {
	Descriptor() core.Descriptor
}

// NoopService is a Service for modules that need registration but no
// background processing.
type NoopService struct {
	ServiceName string
}

func (n NoopService) Name() string              { return n.ServiceName }
func (NoopService) Start(context.Context) error { return nil }
func (NoopService) Stop(context.Context) error  { return nil }
