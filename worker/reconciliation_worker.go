package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"agencyops/metrics"
	"agencyops/models"

	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"
)

// Reconciler re-sums billing records of a period
type Reconciler interface {
	Reconcile(ctx context.Context, period *models.FiscalPeriod, dryRun bool) (*models.ReconciliationReport, error)
}

// ReconciliationWorker runs reconciliation of the current and previous fiscal month on a cron schedule
type ReconciliationWorker struct {
	reconciler Reconciler
	schedule   string
	startMonth int
	now        func() time.Time

	cron    *cron.Cron
	mu      sync.Mutex
	running bool
}

// NewReconciliationWorker validates the schedule and returns a worker that is not yet started
func NewReconciliationWorker(reconciler Reconciler, schedule string, fiscalYearStartMonth int) (*ReconciliationWorker, error) {
	if _, err := cron.ParseStandard(schedule); err != nil {
		return nil, fmt.Errorf("invalid reconcile schedule %q: %w", schedule, err)
	}
	return &ReconciliationWorker{
		reconciler: reconciler,
		schedule:   schedule,
		startMonth: fiscalYearStartMonth,
		now:        time.Now,
	}, nil
}

// Run schedules the job and blocks until ctx is cancelled, then waits for a running job to end
func (w *ReconciliationWorker) Run(ctx context.Context) error {
	w.cron = cron.New(cron.WithChain(cron.Recover(cronLogger{})))
	if _, err := w.cron.AddFunc(w.schedule, func() { w.RunOnce(ctx) }); err != nil {
		return fmt.Errorf("failed to schedule reconciliation: %w", err)
	}

	log.WithField("schedule", w.schedule).Info("Reconciliation worker started")
	w.cron.Start()

	<-ctx.Done()
	stopped := w.cron.Stop()
	<-stopped.Done()
	log.Info("Reconciliation worker stopped")
	return nil
}

// RunOnce reconciles the current and previous fiscal month. Overlapping runs are skipped.
func (w *ReconciliationWorker) RunOnce(ctx context.Context) {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		log.Warn("Reconciliation still running, skipping this tick")
		return
	}
	w.running = true
	w.mu.Unlock()

	defer func() {
		w.mu.Lock()
		w.running = false
		w.mu.Unlock()
	}()

	for _, period := range w.Periods() {
		if ctx.Err() != nil {
			return
		}
		w.reconcile(ctx, period)
	}
}

// Periods returns the previous and current fiscal month, in that order
func (w *ReconciliationWorker) Periods() []models.FiscalPeriod {
	current := models.PeriodFromDate(w.now().UTC(), w.startMonth)
	return []models.FiscalPeriod{current.Previous(), current}
}

func (w *ReconciliationWorker) reconcile(ctx context.Context, period models.FiscalPeriod) {
	start := time.Now()
	report, err := w.reconciler.Reconcile(ctx, &period, false)

	drifted := 0
	if report != nil {
		drifted = report.Drifted
	}
	metrics.RecordReconciliation("cron", time.Since(start), drifted, err)

	if err != nil {
		log.WithError(err).WithField("period", period.String()).Error("Scheduled reconciliation failed")
		return
	}
	log.WithFields(log.Fields{
		"period":    period.String(),
		"checked":   report.Checked,
		"drifted":   report.Drifted,
		"corrected": report.Corrected,
		"failed":    report.Failed,
	}).Info("Scheduled reconciliation finished")
}

// cronLogger routes cron's own messages to logrus
type cronLogger struct{}

func (cronLogger) Info(msg string, keysAndValues ...interface{}) {
	log.WithFields(toFields(keysAndValues)).Debug(msg)
}

func (cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	log.WithError(err).WithFields(toFields(keysAndValues)).Error(msg)
}

func toFields(keysAndValues []interface{}) log.Fields {
	fields := log.Fields{}
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		key, ok := keysAndValues[i].(string)
		if !ok {
			continue
		}
		fields[key] = keysAndValues[i+1]
	}
	return fields
}
