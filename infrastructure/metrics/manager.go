package metrics

import (
	"context"
	"sync"

	"github.com/roomkit/api/infrastructure/logger"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// Manager registers and drives the service's instruments over an otel
// meter. Instruments are looked up by name; unknown names are logged and
// dropped rather than panicking.
type Manager interface {
	NewGauge(name, description string)
	SetGauge(name string, value float64)
	NewCounter(name, description string)
	IncCounter(name string, by int64)
	NewHistogram(name, description string, buckets ...float64)
	RecordHistogram(name string, value float64)
}

type manager struct {
	meter  metric.Meter
	logger *logger.Logger

	mu         sync.RWMutex
	gauges     map[string]metric.Float64Gauge
	counters   map[string]metric.Int64Counter
	histograms map[string]metric.Float64Histogram
}

func NewMetricsManager(meter metric.Meter, logger *logger.Logger) Manager {
	return &manager{
		meter:      meter,
		logger:     logger,
		gauges:     make(map[string]metric.Float64Gauge),
		counters:   make(map[string]metric.Int64Counter),
		histograms: make(map[string]metric.Float64Histogram),
	}
}

func (m *manager) NewGauge(name, description string) {
	gauge, err := m.meter.Float64Gauge(name, metric.WithDescription(description))
	if err != nil {
		m.logger.Error("failed to register gauge", zap.Error(err), zap.String("name", name))
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.gauges[name] = gauge
}

func (m *manager) SetGauge(name string, value float64) {
	m.mu.RLock()
	gauge, ok := m.gauges[name]
	m.mu.RUnlock()

	if !ok {
		m.logger.Warn("unknown gauge", zap.String("name", name))
		return
	}

	gauge.Record(context.Background(), value)
}

func (m *manager) NewCounter(name, description string) {
	counter, err := m.meter.Int64Counter(name, metric.WithDescription(description))
	if err != nil {
		m.logger.Error("failed to register counter", zap.Error(err), zap.String("name", name))
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.counters[name] = counter
}

func (m *manager) IncCounter(name string, by int64) {
	m.mu.RLock()
	counter, ok := m.counters[name]
	m.mu.RUnlock()

	if !ok {
		m.logger.Warn("unknown counter", zap.String("name", name))
		return
	}

	counter.Add(context.Background(), by)
}

func (m *manager) NewHistogram(name, description string, buckets ...float64) {
	histogram, err := m.meter.Float64Histogram(name,
		metric.WithDescription(description),
		metric.WithExplicitBucketBoundaries(buckets...),
	)
	if err != nil {
		m.logger.Error("failed to register histogram", zap.Error(err), zap.String("name", name))
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.histograms[name] = histogram
}

func (m *manager) RecordHistogram(name string, value float64) {
	m.mu.RLock()
	histogram, ok := m.histograms[name]
	m.mu.RUnlock()

	if !ok {
		m.logger.Warn("unknown histogram", zap.String("name", name))
		return
	}

	histogram.Record(context.Background(), value)
}
