package scheduler

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

type namingProvider struct {
	noop.MeterProvider
	mu    sync.Mutex
	names []string
}

func (p *namingProvider) Meter(name string, _ ...metric.MeterOption) metric.Meter {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.names = append(p.names, name)
	return noop.Meter{}
}

func TestMeter_UsesInstalledProvider(t *testing.T) {
	mp := &namingProvider{}
	otel.SetMeterProvider(mp)
	t.Cleanup(func() { otel.SetMeterProvider(noop.NewMeterProvider()) })

	assert.NotNil(t, meter())

	mp.mu.Lock()
	defer mp.mu.Unlock()
	assert.Contains(t, mp.names, instrumentationName)
}
