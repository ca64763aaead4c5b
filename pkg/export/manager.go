// Copyright 2024-2026 Madhukar Beema, Distinguished Engineer. All rights reserved.
// Use of this source code is governed by the Business Source License
// included in the LICENSE file of this repository.

package export

import (
	"context"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/mbeema/h2scope/pkg/config"
	"github.com/mbeema/h2scope/pkg/protocol"
	"go.uber.org/zap"
)

const (
	defaultBatchSize     = 512
	defaultFlushInterval = time.Second
	defaultChannelSize   = 8192

	maxRetries     = 3
	initialBackoff = 100 * time.Millisecond
	maxBackoff     = 5 * time.Second
	backoffFactor  = 2.0
	exportTimeout  = 10 * time.Second
)

// Manager batches header events and hands them to every configured exporter.
type Manager struct {
	logger    *zap.Logger
	exporters []Exporter

	eventCh chan *protocol.HeaderEvent

	exported atomic.Int64
	dropped  atomic.Int64

	batchSize      int
	flushInterval  time.Duration
	initialBackoff time.Duration
	circuitBreaker *CircuitBreaker

	startOnce sync.Once
	stopOnce  sync.Once
	wg        sync.WaitGroup
	stopCh    chan struct{}
}

// ManagerConfig holds the configuration needed to create a Manager.
type ManagerConfig struct {
	Exporters      *config.ExportersConfig
	ServiceName    string
	ServiceVersion string
	DeploymentEnv  string
}

// NewManager creates an export manager from configuration. An exporter that
// fails to initialise is logged and skipped.
func NewManager(mc *ManagerConfig, logger *zap.Logger) *Manager {
	cfg := mc.Exporters
	var exporters []Exporter

	if cfg.OTLP.Enabled {
		var exp Exporter
		var err error
		if cfg.OTLP.Protocol == "http" {
			exp, err = NewHTTPOTLPExporter(&cfg.OTLP, mc.ServiceName, mc.ServiceVersion, mc.DeploymentEnv, logger)
		} else {
			exp, err = NewOTLPExporter(&cfg.OTLP, mc.ServiceName, mc.ServiceVersion, mc.DeploymentEnv, logger)
		}
		if err != nil {
			logger.Warn("failed to create OTLP exporter", zap.Error(err))
		} else {
			exporters = append(exporters, exp)
		}
	}

	if cfg.Stdout.Enabled {
		exporters = append(exporters, NewStdoutExporter(cfg.Stdout.Format, logger))
	}

	m := NewManagerWithExporters(logger, exporters...)
	if cfg.BatchSize > 0 {
		m.batchSize = cfg.BatchSize
	}
	if cfg.FlushInterval > 0 {
		m.flushInterval = cfg.FlushInterval
	}
	return m
}

// NewManagerWithExporters creates a manager around already-built exporters.
func NewManagerWithExporters(logger *zap.Logger, exporters ...Exporter) *Manager {
	return &Manager{
		logger:         logger,
		exporters:      exporters,
		eventCh:        make(chan *protocol.HeaderEvent, defaultChannelSize),
		batchSize:      defaultBatchSize,
		flushInterval:  defaultFlushInterval,
		initialBackoff: initialBackoff,
		circuitBreaker: NewCircuitBreaker(5, 30*time.Second),
		stopCh:         make(chan struct{}),
	}
}

// Start begins the batch export goroutine.
func (m *Manager) Start(ctx context.Context) error {
	m.startOnce.Do(func() {
		m.wg.Add(1)
		go m.process(ctx)

		m.logger.Info("export manager started",
			zap.Int("exporters", len(m.exporters)),
			zap.Int("batch_size", m.batchSize),
			zap.Duration("flush_interval", m.flushInterval),
		)
	})
	return nil
}

// Stop flushes queued events and shuts down exporters.
func (m *Manager) Stop() error {
	m.stopOnce.Do(func() {
		close(m.stopCh)
		m.wg.Wait()

		ctx, cancel := context.WithTimeout(context.Background(), exportTimeout)
		defer cancel()

		for _, exp := range m.exporters {
			if err := exp.Shutdown(ctx); err != nil {
				m.logger.Error("exporter shutdown error", zap.Error(err))
			}
		}

		m.logger.Info("export manager stopped",
			zap.Int64("events_exported", m.exported.Load()),
			zap.Int64("dropped", m.dropped.Load()),
		)
	})
	return nil
}

// Export queues an event. It never blocks; when the queue is full the event
// is dropped and false is returned.
func (m *Manager) Export(ev *protocol.HeaderEvent) bool {
	select {
	case m.eventCh <- ev:
		return true
	default:
		m.dropped.Add(1)
		m.logger.Debug("event channel full, dropping event")
		return false
	}
}

func (m *Manager) process(ctx context.Context) {
	defer m.wg.Done()

	batch := make([]*protocol.HeaderEvent, 0, m.batchSize)
	ticker := time.NewTicker(m.flushInterval)
	defer ticker.Stop()

	drain := func(flushCtx context.Context) {
		for {
			select {
			case ev := <-m.eventCh:
				batch = append(batch, ev)
			default:
				if len(batch) > 0 {
					m.flush(flushCtx, batch)
				}
				return
			}
		}
	}

	for {
		select {
		case ev := <-m.eventCh:
			batch = append(batch, ev)
			if len(batch) >= m.batchSize {
				m.flush(ctx, batch)
				batch = make([]*protocol.HeaderEvent, 0, m.batchSize)
			}

		case <-ticker.C:
			if len(batch) > 0 {
				m.flush(ctx, batch)
				batch = make([]*protocol.HeaderEvent, 0, m.batchSize)
			}

		case <-m.stopCh:
			drain(context.Background())
			return

		case <-ctx.Done():
			drain(context.Background())
			return
		}
	}
}

// flush hands the batch to every exporter. The batch counts as exported
// when at least one exporter accepted it.
func (m *Manager) flush(ctx context.Context, events []*protocol.HeaderEvent) {
	if len(m.exporters) == 0 {
		return
	}
	ok := false
	for _, exp := range m.exporters {
		exp := exp
		if m.retryExport(ctx, func(expCtx context.Context) error {
			return exp.ExportEvents(expCtx, events)
		}) {
			ok = true
		}
	}
	if ok {
		m.exported.Add(int64(len(events)))
	} else {
		m.dropped.Add(int64(len(events)))
	}
}

// retryExport attempts an export with exponential backoff behind the
// circuit breaker.
func (m *Manager) retryExport(ctx context.Context, exportFn func(context.Context) error) bool {
	if !m.circuitBreaker.Allow() {
		m.logger.Debug("circuit breaker open, dropping batch")
		return false
	}

	backoff := m.initialBackoff

	for attempt := 0; attempt <= maxRetries; attempt++ {
		exportCtx, cancel := context.WithTimeout(ctx, exportTimeout)
		err := exportFn(exportCtx)
		cancel()

		if err == nil {
			m.circuitBreaker.RecordSuccess()
			return true
		}

		m.circuitBreaker.RecordFailure()

		if attempt == maxRetries || !m.circuitBreaker.Allow() {
			m.logger.Error("export failed",
				zap.Int("attempts", attempt+1),
				zap.Stringer("circuit", m.circuitBreaker.State()),
				zap.Error(err),
			)
			return false
		}

		m.logger.Warn("export failed, retrying",
			zap.Int("attempt", attempt+1),
			zap.Duration("backoff", backoff),
			zap.Error(err),
		)

		select {
		case <-time.After(backoff):
		case <-ctx.Done():
			return false
		}

		backoff = time.Duration(math.Min(
			float64(backoff)*backoffFactor,
			float64(maxBackoff),
		))
	}
	return false
}

// Stats returns the number of events exported and dropped so far.
func (m *Manager) Stats() (exported, dropped int64) {
	return m.exported.Load(), m.dropped.Load()
}

// QueueDepth returns the number of events waiting to be batched.
func (m *Manager) QueueDepth() int {
	return len(m.eventCh)
}
