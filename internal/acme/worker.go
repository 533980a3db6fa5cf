package acme

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
)

// Worker drives issuance: it picks up due certificate rows, obtains
// certificates one at a time (HTTP-01 shares a single challenge port),
// and flips issued rows into the renewal queue as they near expiry.
type Worker struct {
	service  *Service
	issuer   *Issuer
	interval time.Duration
	log      *logrus.Entry
}

// NewWorker creates an ACME worker
func NewWorker(service *Service, issuer *Issuer, interval time.Duration) *Worker {
	if interval <= 0 {
		interval = time.Minute
	}
	return &Worker{
		service:  service,
		issuer:   issuer,
		interval: interval,
		log:      logrus.WithField("worker", "acme"),
	}
}

// Run processes issuance until ctx is cancelled. Blocks; callers start
// it in a goroutine.
func (w *Worker) Run(ctx context.Context) {
	w.log.WithField("interval", w.interval.String()).Info("acme worker started")

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info("acme worker stopped")
			return
		case <-ticker.C:
			w.tick(ctx)
		}
	}
}

func (w *Worker) tick(ctx context.Context) {
	if renewed, err := w.service.MarkRenewals(ctx); err != nil {
		w.log.WithError(err).Error("failed to mark renewals")
	} else if renewed > 0 {
		w.log.WithField("count", renewed).Info("certificates queued for renewal")
	}

	certs, err := w.service.ListDue(ctx, 10)
	if err != nil {
		w.log.WithError(err).Error("failed to list due certificates")
		return
	}

	for _, cert := range certs {
		if ctx.Err() != nil {
			return
		}

		entry := w.log.WithField("domain", cert.Domain)

		result, err := w.issuer.Issue(cert.Domain)
		if err != nil {
			entry.WithError(err).Warn("certificate issuance failed")
			if err := w.service.MarkFailed(ctx, &cert, err); err != nil {
				entry.WithError(err).Error("failed to record issuance failure")
			}
			continue
		}

		if err := w.service.MarkIssued(ctx, cert.ID, result.CertPem, result.KeyPem, result.Issuer, result.NotAfter); err != nil {
			entry.WithError(err).Error("failed to store certificate")
			continue
		}

		entry.WithFields(logrus.Fields{
			"issuer":   result.Issuer,
			"notAfter": result.NotAfter.Format(time.RFC3339),
		}).Info("certificate issued")
	}
}
