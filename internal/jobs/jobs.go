package jobs

import (
	"context"
	"time"

	"creatorbot/internal/config"
	"creatorbot/internal/logger"
	sentryutil "creatorbot/internal/sentry"
	"creatorbot/internal/wallet"
)

// Scheduler runs the periodic economy jobs: the daily batch reward, the
// monthly bonus with ledger pruning, and the premium expiry sweep.
type Scheduler struct {
	wallet *wallet.Wallet
}

func New(w *wallet.Wallet) *Scheduler {
	return &Scheduler{wallet: w}
}

// Start launches the job goroutines. They stop when ctx is cancelled.
func (s *Scheduler) Start(ctx context.Context) {
	if !config.Cfg.SchedulerEnabled {
		logger.Info("jobs: disabled via config", nil)
		return
	}

	go s.runDaily(ctx)
	go s.runMonthly(ctx)
	go s.runPremiumSweep(ctx)
	logger.Info("jobs: scheduler started", nil)
}

// runDaily credits the daily reward to all users at boot and then every 24h.
func (s *Scheduler) runDaily(ctx context.Context) {
	s.dailyBatch(ctx)
	ticker := time.NewTicker(24 * time.Hour)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.dailyBatch(ctx)
		}
	}
}

func (s *Scheduler) dailyBatch(ctx context.Context) {
	n, err := s.wallet.RunDailyBatch(ctx)
	if err != nil {
		logger.Error("jobs: daily batch failed", map[string]interface{}{"error": err.Error()})
		sentryutil.CaptureError(err, map[string]string{"job": "daily_batch"})
		return
	}
	logger.Info("jobs: daily batch complete", map[string]interface{}{"users": n})
}

// nextMonthlyRun returns the next "day 1, 00:05 UTC" after now.
func nextMonthlyRun(now time.Time) time.Time {
	now = now.UTC()
	run := time.Date(now.Year(), now.Month(), 1, 0, 5, 0, 0, time.UTC)
	if !run.After(now) {
		run = run.AddDate(0, 1, 0)
	}
	return run
}

// runMonthly grants the monthly bonus and prunes old ledger entries at
// 00:05 UTC on the first of each month.
func (s *Scheduler) runMonthly(ctx context.Context) {
	for {
		next := nextMonthlyRun(time.Now())
		select {
		case <-ctx.Done():
			return
		case <-time.After(time.Until(next)):
		}

		users, pruned, err := s.wallet.RunMonthlyReset(ctx)
		if err != nil {
			logger.Error("jobs: monthly reset failed", map[string]interface{}{"error": err.Error()})
			sentryutil.CaptureError(err, map[string]string{"job": "monthly_reset"})
			continue
		}
		logger.Info("jobs: monthly reset complete", map[string]interface{}{
			"users": users, "ledger_pruned": pruned,
		})
	}
}

// runPremiumSweep demotes expired premium users every hour.
func (s *Scheduler) runPremiumSweep(ctx context.Context) {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := s.wallet.SweepExpiredPremium(ctx)
			if err != nil {
				logger.Error("jobs: premium sweep failed", map[string]interface{}{"error": err.Error()})
				continue
			}
			if n > 0 {
				logger.Info("jobs: premium expired", map[string]interface{}{"users": n})
			}
		}
	}
}
