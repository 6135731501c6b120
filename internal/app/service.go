// Package service owns the reconciliation state of one run and drives
// sync cycles against the spreadsheet.
package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/okian/aimsync/internal/adapters/ingest"
	"github.com/okian/aimsync/internal/adapters/mq/trigger"
	"github.com/okian/aimsync/internal/adapters/mq/worker"
	"github.com/okian/aimsync/internal/domain/baseline"
	"github.com/okian/aimsync/internal/domain/model"
	"github.com/okian/aimsync/internal/domain/reconcile"
	"github.com/okian/aimsync/internal/domain/registry"
	"github.com/okian/aimsync/internal/domain/report"
	"github.com/okian/aimsync/internal/domain/types"
	"github.com/okian/aimsync/pkg/logger"
	"github.com/okian/aimsync/pkg/metrics"
)

const runnerShutdownTimeout = 30 * time.Second

// Cycle outcomes.
const (
	OutcomeUpdated  = "updated"
	OutcomeUpToDate = "up_to_date"
	OutcomeFailed   = "failed"
)

// Sheet reads baseline ranges and writes single cells.
type Sheet interface {
	baseline.RangeReader
	WriteCell(ctx context.Context, cell string, value float64) error
}

// Service is the context object of a run: it owns the registry, the
// trigger queue and the cycle runner.
type Service struct {
	mu sync.RWMutex // guards reg and stats

	sheet    Sheet
	ingestor ingest.Ingestor
	spec     baseline.Spec
	debounce time.Duration

	reg    *registry.Registry
	queue  *trigger.CoalescingQueue
	runner *worker.Runner
	cycle  sync.Mutex

	started bool
	stats   cycleStats

	logger logger.Logger
}

type cycleStats struct {
	cycles      int
	failures    int
	highscores  int
	averages    int
	lastID      string
	lastReason  string
	lastOutcome string
	lastError   string
	lastAt      time.Time
}

// New constructs a Service.
func New(opts ...Option) *Service {
	s := &Service{
		spec: baseline.Spec{Averaging: true, Window: 10},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start loads the baseline and starts the cycle runner. Triggers enqueued
// before Start are refused.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}
	if s.sheet == nil || s.ingestor == nil {
		return ErrNotConfigured
	}

	s.logger.Info(ctx, "loading baseline from spreadsheet")
	reg, err := baseline.Load(ctx, s.sheet, s.spec)
	if err != nil {
		metrics.RecordError(model.KindOf(err))
		return fmt.Errorf("load baseline: %w", err)
	}
	s.reg = reg
	metrics.UpdateRegistrySize(reg.Len())

	s.queue = trigger.NewCoalescingQueue()
	s.runner = worker.NewRunner(s.queue, s,
		worker.WithName("cycle-runner"),
		worker.WithLogger(s.logger),
		worker.WithDebounce(s.debounce),
	)
	go s.runner.Run(ctx)

	s.started = true
	s.logger.Info(ctx, "service started",
		logger.Int("scenarios", reg.Len()),
		logger.String("source", s.ingestor.Name()),
		logger.Bool("averaging", s.spec.Averaging),
		logger.Duration("debounce", s.debounce),
	)
	return nil
}

// Stop closes the trigger queue and waits for a running cycle.
func (s *Service) Stop() {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return
	}
	queue, runner := s.queue, s.runner
	s.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), runnerShutdownTimeout)
	defer cancel()

	_ = queue.Close()
	if err := runner.Shutdown(ctx); err != nil {
		s.logger.Warn(ctx, "runner did not stop in time", logger.Error(err))
	}

	s.mu.Lock()
	s.started = false
	s.mu.Unlock()
	s.logger.Info(ctx, "service stopped")
}

// Enqueue requests a cycle. It returns false when the service is not
// running.
func (s *Service) Enqueue(ctx context.Context, t trigger.Trigger) bool {
	s.mu.RLock()
	q := s.queue
	started := s.started
	s.mu.RUnlock()

	if !started {
		return false
	}
	return q.Enqueue(ctx, t)
}

// Sync requests a cycle with the given reason.
func (s *Service) Sync(ctx context.Context, reason string) bool {
	return s.Enqueue(ctx, trigger.Trigger{Reason: reason})
}

// RunCycle ingests new records, reconciles them and writes the changed
// cells. Cycles are serialized. Ingestion completes before the registry
// is touched, so a failed ingestion leaves no partial state.
func (s *Service) RunCycle(ctx context.Context, reason string) error {
	s.cycle.Lock()
	defer s.cycle.Unlock()

	s.mu.RLock()
	started := s.started
	s.mu.RUnlock()
	if !started {
		return ErrNotStarted
	}

	id := uuid.NewString()
	start := time.Now()
	log := s.logger.Named("cycle")
	log.Debug(ctx, "cycle started", logger.String("cycle_id", id), logger.String("reason", reason))

	recs, err := s.ingestor.Ingest(ctx, s.known)
	if err != nil {
		return s.finish(ctx, id, reason, start, report.Report{}, err)
	}

	s.mu.Lock()
	changes := reconcile.Apply(s.reg, recs, reconcile.Options{Averaging: s.spec.Averaging})
	rep := report.Build(s.reg, changes)
	s.mu.Unlock()

	for _, l := range rep.Lines {
		log.Info(ctx, l)
	}
	for _, w := range rep.Writes {
		err := s.sheet.WriteCell(ctx, w.Cell, w.Value)
		metrics.RecordCellWrite(err == nil)
		if err != nil {
			if !errors.Is(err, model.ErrCellWrite) {
				err = model.WrapKind("service.write", model.ErrCellWrite, err)
			}
			return s.finish(ctx, id, reason, start, rep, err)
		}
	}

	metrics.RecordNewHighscores(len(changes.Highscores))
	metrics.RecordNewAverages(len(changes.Averages))
	s.mu.Lock()
	s.stats.highscores += len(changes.Highscores)
	s.stats.averages += len(changes.Averages)
	s.mu.Unlock()

	log.Debug(ctx, "cycle finished",
		logger.String("cycle_id", id),
		logger.Int("records", len(recs)),
		logger.Int("writes", len(rep.Writes)),
	)
	return s.finish(ctx, id, reason, start, rep, nil)
}

func (s *Service) finish(ctx context.Context, id, reason string, start time.Time, rep report.Report, err error) error {
	outcome := OutcomeUpToDate
	switch {
	case err != nil:
		outcome = OutcomeFailed
	case !rep.UpToDate:
		outcome = OutcomeUpdated
	}
	metrics.RecordCycle(outcome, time.Since(start))

	s.mu.Lock()
	s.stats.cycles++
	s.stats.lastID = id
	s.stats.lastReason = reason
	s.stats.lastOutcome = outcome
	s.stats.lastAt = time.Now()
	s.stats.lastError = ""
	if err != nil {
		s.stats.failures++
		s.stats.lastError = err.Error()
	}
	s.mu.Unlock()

	if err != nil {
		kind := model.KindOf(err)
		metrics.RecordError(kind)
		s.logger.Error(ctx, "cycle failed",
			logger.String("cycle_id", id),
			logger.String("kind", kind),
			logger.Error(err),
		)
		return err
	}
	return nil
}

func (s *Service) known(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.reg.Has(id)
}

// Scenarios returns a copy of the registry in sheet order.
func (s *Service) Scenarios() []types.ScenarioView {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.reg == nil {
		return []types.ScenarioView{}
	}
	return types.FromEntries(s.reg.Snapshot())
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]interface{}{
		"started":       s.started,
		"averaging":     s.spec.Averaging,
		"window":        s.spec.Window,
		"cycles":        s.stats.cycles,
		"failedCycles":  s.stats.failures,
		"newHighscores": s.stats.highscores,
		"newAverages":   s.stats.averages,
	}
	if s.ingestor != nil {
		stats["source"] = s.ingestor.Name()
	}
	if s.reg != nil {
		stats["scenarios"] = s.reg.Len()
	}
	if s.queue != nil {
		stats["accepting"] = !s.queue.IsClosed()
	}
	if s.started {
		stats["pendingTriggers"] = s.queue.Len(context.Background())
	}
	if s.stats.cycles > 0 {
		stats["lastCycle"] = map[string]interface{}{
			"id":      s.stats.lastID,
			"reason":  s.stats.lastReason,
			"outcome": s.stats.lastOutcome,
			"at":      s.stats.lastAt.Format(time.RFC3339),
			"error":   s.stats.lastError,
		}
	}
	return stats
}
