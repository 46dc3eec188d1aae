package service

import (
	"context"
	"log/slog"
	"time"

	"siwf/internal/metrics"
	"siwf/internal/port"
)

// ExpirySweeper periodically deletes expired nonces and sessions. Consuming
// a nonce never depends on the sweeper; it only reclaims storage.
type ExpirySweeper struct {
	verificationRepo port.VerificationRepository
	sessionRepo      port.SessionRepository
	interval         time.Duration
	now              func() time.Time
}

// SweepResult counts the records removed by one pass.
type SweepResult struct {
	Verifications int64
	Sessions      int64
}

// NewExpirySweeper creates a new ExpirySweeper.
func NewExpirySweeper(verificationRepo port.VerificationRepository, sessionRepo port.SessionRepository, interval time.Duration) *ExpirySweeper {
	return &ExpirySweeper{
		verificationRepo: verificationRepo,
		sessionRepo:      sessionRepo,
		interval:         interval,
		now:              time.Now,
	}
}

// Start runs sweeps on a ticker until ctx is canceled.
func (w *ExpirySweeper) Start(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	slog.Info("expirySweeper: started", "interval", w.interval)

	for {
		select {
		case <-ctx.Done():
			slog.Info("expirySweeper: shutdown complete")
			return
		case <-ticker.C:
			if _, err := w.SweepOnce(ctx); err != nil && ctx.Err() == nil {
				slog.Error("expirySweeper: sweep failed", "error", err)
			}
		}
	}
}

// SweepOnce deletes everything that expired before now. Both tables are
// swept even if the first fails.
func (w *ExpirySweeper) SweepOnce(ctx context.Context) (SweepResult, error) {
	var res SweepResult
	before := w.now()

	n, vErr := w.verificationRepo.DeleteExpired(ctx, before)
	if vErr == nil {
		res.Verifications = n
		metrics.SweptRecords.WithLabelValues("verification").Add(float64(n))
	}

	n, sErr := w.sessionRepo.DeleteExpired(ctx, before)
	if sErr == nil {
		res.Sessions = n
		metrics.SweptRecords.WithLabelValues("session").Add(float64(n))
	}

	if vErr != nil {
		return res, vErr
	}
	if sErr != nil {
		return res, sErr
	}
	if res.Verifications > 0 || res.Sessions > 0 {
		slog.Info("expirySweeper: removed expired records",
			"verifications", res.Verifications, "sessions", res.Sessions)
	}
	return res, nil
}
