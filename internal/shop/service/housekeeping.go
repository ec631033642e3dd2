package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/aussiebroadwan/greenbite/internal/shop/store"
)

// HousekeepingService periodically purges verification codes that expired
// long enough ago that no request can still be racing on them.
type HousekeepingService struct {
	Store    store.Store
	Logger   *slog.Logger
	Interval time.Duration

	// Grace is how long past expiry a code is kept.
	Grace time.Duration

	// StoreTimeout bounds each sweep.
	StoreTimeout time.Duration

	Now func() time.Time

	stopCh chan struct{}
	doneCh chan struct{}
}

// DefaultSweepTimeout bounds a sweep when StoreTimeout is not set.
const DefaultSweepTimeout = 30 * time.Second

// NewHousekeepingService defaults a non-positive interval to one hour.
func NewHousekeepingService(st store.Store, logger *slog.Logger, interval, grace time.Duration) *HousekeepingService {
	if interval <= 0 {
		interval = time.Hour
	}
	return &HousekeepingService{
		Store:        st,
		Logger:       logger,
		Interval:     interval,
		Grace:        grace,
		StoreTimeout: DefaultSweepTimeout,
		Now:          time.Now,
		stopCh:       make(chan struct{}),
		doneCh:       make(chan struct{}),
	}
}

// Start runs the worker in the background until Stop.
func (s *HousekeepingService) Start() {
	go s.run()
	s.Logger.Info("housekeeping started", "interval", s.Interval)
}

// Stop blocks until an in-flight sweep has finished.
func (s *HousekeepingService) Stop() {
	close(s.stopCh)
	<-s.doneCh
	s.Logger.Info("housekeeping stopped")
}

func (s *HousekeepingService) run() {
	defer close(s.doneCh)

	// Stop also aborts a sweep that is still waiting on the store.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		select {
		case <-s.stopCh:
			cancel()
		case <-ctx.Done():
		}
	}()

	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()

	s.Sweep(ctx)

	for {
		select {
		case <-ticker.C:
			s.Sweep(ctx)
		case <-s.stopCh:
			return
		}
	}
}

// Sweep deletes codes that expired more than Grace ago.
func (s *HousekeepingService) Sweep(ctx context.Context) int64 {
	cutoff := s.Now().UTC().Add(-s.Grace)

	ctx, cancel := bounded(ctx, s.StoreTimeout)
	defer cancel()

	n, err := s.Store.VerificationCodes().DeleteExpiredVerificationCodes(ctx, cutoff)
	if err != nil {
		s.Logger.Error("failed to delete expired verification codes", "error", classify("sweep codes", err))
		return 0
	}
	s.Logger.Debug("housekeeping sweep completed", "deleted_codes", n)
	return n
}
