package scheduler

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const instrumentationName = "github.com/overlaykit/markers/internal/scheduler"

// meter resolves from the global provider. Instruments stay no-op unless the
// host process installs a MeterProvider with otel.SetMeterProvider.
func meter() metric.Meter {
	return otel.Meter(instrumentationName)
}
