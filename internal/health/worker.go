package health

import (
	"context"
	"sync"
	"time"

	"go_storefront/internal/model"
	"go_storefront/internal/registry"

	"github.com/sirupsen/logrus"
)

// Source is the slice of the registry the monitor needs
type Source interface {
	ListVerifiedDomains(ctx context.Context) ([]model.StoreDomain, error)
	ApplyHealthSnapshot(ctx context.Context, domainID int, tenantID string, snapshot registry.HealthSnapshot) error
	Locks() *registry.DomainLocks
}

// SnapshotHook runs after a snapshot has been persisted
type SnapshotHook func(domain *model.StoreDomain, snapshot registry.HealthSnapshot)

// Worker sweeps all VERIFIED domains on an interval with bounded
// concurrency. Domains with an in-flight verification are skipped via
// TryLock rather than queued behind it.
type Worker struct {
	checker     *Checker
	source      Source
	interval    time.Duration
	concurrency int
	hooks       []SnapshotHook
	log         *logrus.Entry
}

// NewWorker creates a health monitor worker
func NewWorker(checker *Checker, source Source, interval time.Duration, concurrency int) *Worker {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	if concurrency <= 0 {
		concurrency = 10
	}
	return &Worker{
		checker:     checker,
		source:      source,
		interval:    interval,
		concurrency: concurrency,
		log:         logrus.WithField("worker", "health"),
	}
}

// OnSnapshot registers a hook invoked after each persisted snapshot.
// Not safe to call once the worker is running.
func (w *Worker) OnSnapshot(hook SnapshotHook) {
	w.hooks = append(w.hooks, hook)
}

// Run sweeps until ctx is cancelled. Blocks; callers start it in a
// goroutine.
func (w *Worker) Run(ctx context.Context) {
	w.log.WithFields(logrus.Fields{
		"interval":    w.interval.String(),
		"concurrency": w.concurrency,
	}).Info("health monitor started")

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info("health monitor stopped")
			return
		case <-ticker.C:
			w.sweep(ctx)
		}
	}
}

func (w *Worker) sweep(ctx context.Context) {
	domains, err := w.source.ListVerifiedDomains(ctx)
	if err != nil {
		w.log.WithError(err).Error("failed to list verified domains")
		return
	}
	if len(domains) == 0 {
		return
	}

	started := time.Now()
	sem := make(chan struct{}, w.concurrency)
	var wg sync.WaitGroup
	var checked, offline int
	var mu sync.Mutex

	for _, d := range domains {
		select {
		case <-ctx.Done():
			wg.Wait()
			return
		case sem <- struct{}{}:
		}

		wg.Add(1)
		go func(d model.StoreDomain) {
			defer wg.Done()
			defer func() { <-sem }()

			locks := w.source.Locks()
			if !locks.TryLock(d.ID) {
				// Verification in flight, skip this round
				return
			}
			defer locks.Unlock(d.ID)

			snapshot := w.checker.Check(ctx, d.Domain)
			if err := w.source.ApplyHealthSnapshot(ctx, d.ID, d.TenantID, snapshot); err != nil {
				w.log.WithError(err).WithField("domain", d.Domain).Error("failed to persist health snapshot")
				return
			}

			mu.Lock()
			checked++
			if !snapshot.Online {
				offline++
			}
			mu.Unlock()

			if !snapshot.Online {
				w.log.WithFields(logrus.Fields{
					"domain": d.Domain,
					"error":  snapshot.Error,
				}).Warn("domain offline")
			}

			for _, hook := range w.hooks {
				hook(&d, snapshot)
			}
		}(d)
	}

	wg.Wait()

	w.log.WithFields(logrus.Fields{
		"checked": checked,
		"offline": offline,
		"took":    time.Since(started).Round(time.Millisecond).String(),
	}).Info("health sweep finished")
}
