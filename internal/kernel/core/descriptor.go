// Package core carries cross-cutting service metadata shared by every
// kernel component: architectural placement, list-limit clamping, and
// observation hooks, the same trio the teacher's core/service package
// provides for its own chain/engine/data services.
package core

// Layer describes the architectural slice a kernel component belongs to.
type Layer string

const (
	LayerTransport  Layer = "transport"
	LayerAuthority  Layer = "authority"
	LayerEnvelope   Layer = "envelope"
	LayerGovernance Layer = "governance"
	LayerTrace      Layer = "trace"
	LayerSweeper    Layer = "sweeper"
)

// Descriptor advertises a component's placement and capabilities for
// orchestration and documentation purposes; it never changes runtime
// behavior.
type Descriptor struct {
	Name         string
	Domain       string
	Layer        Layer
	Capabilities []string
}

// WithCapabilities returns a copy of the descriptor with additional
// capabilities appended.
func (d Descriptor) WithCapabilities(caps ...string) Descriptor {
	if len(caps) == 0 {
		return d
	}
	combined := make([]string, 0, len(d.Capabilities)+len(caps))
	combined = append(combined, d.Capabilities...)
	combined = append(combined, caps...)
	d.Capabilities = combined
	return d
}
