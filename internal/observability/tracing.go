package observability

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
)

// Propagator carries W3C trace context and baggage across the relay's hops.
var Propagator propagation.TextMapPropagator = propagation.NewCompositeTextMapPropagator(
	propagation.TraceContext{},
	propagation.Baggage{},
)

// InitTracing installs Propagator globally. Spans use the global tracer
// provider, which stays a no-op until an exporter is configured.
func InitTracing() {
	otel.SetTextMapPropagator(Propagator)
}
