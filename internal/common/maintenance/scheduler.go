package maintenance

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/railseat/internal/common/logger"
)

// AuditScheduler runs capacity audits periodically
type AuditScheduler struct {
	auditor            *Auditor
	logger             logger.Logger
	config             SchedulerConfig
	isRunning          bool
	mu                 sync.RWMutex
	cancelFn           context.CancelFunc
	done               chan struct{}
	isImportInProgress bool // Audits are skipped while a timetable import runs
	lastResult         *AuditResult
	lastRun            time.Time
}

// SchedulerConfig contains configuration for the audit scheduler
type SchedulerConfig struct {
	Interval     time.Duration // How often to audit every train
	InitialDelay time.Duration // Delay before the first audit
}

// DefaultSchedulerConfig returns sensible defaults
func DefaultSchedulerConfig() SchedulerConfig {
	return SchedulerConfig{
		Interval:     5 * time.Minute,
		InitialDelay: 30 * time.Second,
	}
}

// NewAuditScheduler creates a new audit scheduler
func NewAuditScheduler(auditor *Auditor, logger logger.Logger, config SchedulerConfig) *AuditScheduler {
	return &AuditScheduler{
		auditor: auditor,
		logger:  logger,
		config:  config,
	}
}

// Start begins the audit scheduling
func (s *AuditScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return fmt.Errorf("audit scheduler is already running")
	}
	if s.config.Interval <= 0 {
		return fmt.Errorf("audit interval must be positive, got %s", s.config.Interval)
	}

	ctx, cancel := context.WithCancel(ctx)
	s.cancelFn = cancel
	s.done = make(chan struct{})
	s.isRunning = true

	s.logger.Info("Starting audit scheduler",
		"interval", s.config.Interval.String(),
		"initial_delay", s.config.InitialDelay.String())

	go s.auditLoop(ctx, s.done)

	return nil
}

// Stop stops the audit scheduler and waits for a running audit to finish
func (s *AuditScheduler) Stop() {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return
	}

	s.logger.Info("Stopping audit scheduler")

	s.cancelFn()
	done := s.done
	s.isRunning = false
	s.mu.Unlock()

	<-done
	s.logger.Info("Audit scheduler stopped")
}

// IsRunning returns whether the scheduler is active
func (s *AuditScheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// LockForImport prevents audits while a timetable import is adding trains
func (s *AuditScheduler) LockForImport() {
	s.mu.Lock()
	s.isImportInProgress = true
	s.mu.Unlock()
	s.logger.Info("Audits locked for timetable import")
}

// UnlockAfterImport allows audits to resume
func (s *AuditScheduler) UnlockAfterImport() {
	s.mu.Lock()
	s.isImportInProgress = false
	s.mu.Unlock()
	s.logger.Info("Audits unlocked after timetable import")
}

func (s *AuditScheduler) canAudit() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return !s.isImportInProgress
}

func (s *AuditScheduler) auditLoop(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()

	initialDelay := time.NewTimer(s.config.InitialDelay)
	defer initialDelay.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("Audit loop stopping")
			return

		case <-initialDelay.C:
			s.performAudit(ctx)

		case <-ticker.C:
			s.performAudit(ctx)
		}
	}
}

func (s *AuditScheduler) performAudit(ctx context.Context) {
	if !s.canAudit() {
		s.logger.Debug("Skipping audit - timetable import in progress")
		return
	}

	if _, err := s.runAudit(ctx); err != nil {
		s.logger.Error("Capacity audit failed", "error", err)
	}
}

func (s *AuditScheduler) runAudit(ctx context.Context) (AuditResult, error) {
	start := time.Now()
	result, err := s.auditor.Audit(ctx)
	duration := time.Since(start)
	if err != nil {
		return result, err
	}

	for _, v := range result.Violations {
		s.logger.Error("Segment booked beyond capacity",
			"train_id", v.TrainID,
			"from", v.From,
			"to", v.To,
			"load", v.Load,
			"seats", v.Seats)
	}

	s.logger.Info("Capacity audit completed",
		"duration", duration.String(),
		"trains", result.TrainsChecked,
		"tickets", result.TicketsChecked,
		"violations", len(result.Violations))

	s.mu.Lock()
	s.lastResult = &result
	s.lastRun = start
	s.mu.Unlock()

	return result, nil
}

// TriggerAudit runs an audit immediately (for testing/manual use)
func (s *AuditScheduler) TriggerAudit(ctx context.Context) (AuditResult, error) {
	if !s.canAudit() {
		return AuditResult{}, fmt.Errorf("cannot audit - timetable import in progress")
	}

	s.logger.Info("Manual capacity audit triggered")
	return s.runAudit(ctx)
}

// GetStatus returns the current status of the audit scheduler
func (s *AuditScheduler) GetStatus() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	status := map[string]interface{}{
		"is_running":            s.isRunning,
		"is_import_in_progress": s.isImportInProgress,
		"interval":              s.config.Interval.String(),
	}
	if s.lastResult != nil {
		status["last_run"] = s.lastRun
		status["trains_checked"] = s.lastResult.TrainsChecked
		status["violations"] = len(s.lastResult.Violations)
	}
	return status
}
