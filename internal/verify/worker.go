package verify

import (
	"context"
	"sync"
	"time"

	"go_storefront/internal/model"
	"go_storefront/internal/registry"

	"github.com/sirupsen/logrus"
)

// QueueSource lists domains due for an automatic verification attempt
type QueueSource interface {
	ListDueForVerification(ctx context.Context, limit int) ([]model.StoreDomain, error)
}

// Worker periodically picks up due domains and verifies them with
// bounded concurrency. Manual verify requests via the API share the same
// engine, so the two paths cannot double-run a domain.
type Worker struct {
	engine      *Engine
	source      QueueSource
	interval    time.Duration
	batchSize   int
	concurrency int
	log         *logrus.Entry
}

// NewWorker creates a verification queue worker
func NewWorker(engine *Engine, source QueueSource, interval time.Duration, batchSize, concurrency int) *Worker {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	if batchSize <= 0 {
		batchSize = 10
	}
	if concurrency <= 0 {
		concurrency = 5
	}
	return &Worker{
		engine:      engine,
		source:      source,
		interval:    interval,
		batchSize:   batchSize,
		concurrency: concurrency,
		log:         logrus.WithField("worker", "verify"),
	}
}

// Run processes the queue until ctx is cancelled. Blocks; callers start
// it in a goroutine.
func (w *Worker) Run(ctx context.Context) {
	w.log.WithFields(logrus.Fields{
		"interval":    w.interval.String(),
		"batchSize":   w.batchSize,
		"concurrency": w.concurrency,
	}).Info("verification worker started")

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info("verification worker stopped")
			return
		case <-ticker.C:
			w.runBatch(ctx)
		}
	}
}

func (w *Worker) runBatch(ctx context.Context) {
	domains, err := w.source.ListDueForVerification(ctx, w.batchSize)
	if err != nil {
		w.log.WithError(err).Error("failed to list due domains")
		return
	}
	if len(domains) == 0 {
		return
	}

	w.log.WithField("count", len(domains)).Debug("picked up due domains")

	sem := make(chan struct{}, w.concurrency)
	var wg sync.WaitGroup
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

			result, err := w.engine.Verify(ctx, d.ID, d.TenantID)
			if err != nil {
				// Another caller won the race; the domain is being handled
				if err == registry.ErrVerificationInFlight {
					return
				}
				w.log.WithError(err).WithField("domain", d.Domain).Error("verification attempt failed")
				return
			}

			entry := w.log.WithFields(logrus.Fields{
				"domain": d.Domain,
				"status": result.Status,
			})
			if result.Success {
				entry.Info("domain verified")
			} else {
				entry.WithField("error", result.Error).Info("domain verification failed")
			}
		}(d)
	}

	// A batch finishes before the next tick can overlap it
	wg.Wait()
}
