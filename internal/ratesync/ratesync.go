// Package ratesync wires up the cron job that periodically refreshes
// the currency-rate table from an external provider. The engine itself
// never talks to the provider: it only ever sees snapshots of what
// this job has written.
package ratesync

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/chasseuragace/videsh/internal/store"
)

// Syncer runs the periodic rate refresh.
type Syncer struct {
	cron     *cron.Cron
	provider Provider
	store    *store.Store
	cache    *store.SnapshotCache
	spec     string // cron spec, e.g. "@every 6h"
	logger   *zap.Logger
}

func New(provider Provider, st *store.Store, cache *store.SnapshotCache, spec string, logger *zap.Logger) *Syncer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Syncer{
		cron:     cron.New(),
		provider: provider,
		store:    st,
		cache:    cache,
		spec:     spec,
		logger:   logger,
	}
}

// Start registers the job and starts the scheduler. Also runs one
// refresh immediately so ranking does not wait for the first tick.
func (s *Syncer) Start(ctx context.Context) error {
	_, err := s.cron.AddFunc(s.spec, func() {
		if err := s.RunOnce(ctx); err != nil {
			s.logger.Error("rate refresh failed", zap.Error(err))
		}
	})
	if err != nil {
		return fmt.Errorf("cron.AddFunc: %w", err)
	}

	s.cron.Start()
	s.logger.Info("rate sync started", zap.String("spec", s.spec))

	go func() {
		if err := s.RunOnce(ctx); err != nil {
			s.logger.Error("initial rate refresh failed", zap.Error(err))
		}
	}()

	return nil
}

// Stop gracefully shuts down the scheduler.
func (s *Syncer) Stop() {
	s.cron.Stop()
	s.logger.Info("rate sync stopped")
}

// RunOnce fetches the provider rates, upserts them by code and
// invalidates the snapshot cache so the next ranking call sees the new
// table.
func (s *Syncer) RunOnce(ctx context.Context) error {
	rates, err := s.provider.FetchRates(ctx)
	if err != nil {
		return fmt.Errorf("fetching rates: %w", err)
	}

	written := 0
	for _, rate := range rates {
		if rate.Code == "" || !rate.Multiplier.IsPositive() {
			s.logger.Warn("skipping invalid rate",
				zap.String("code", rate.Code),
				zap.String("multiplier", rate.Multiplier.String()),
			)
			continue
		}
		if err := s.store.UpsertRate(ctx, rate); err != nil {
			return err
		}
		written++
	}

	if s.cache != nil {
		if err := s.cache.Invalidate(ctx); err != nil {
			s.logger.Warn("invalidating rate cache failed", zap.Error(err))
		}
	}

	s.logger.Info("rate refresh complete",
		zap.Int("received", len(rates)),
		zap.Int("written", written),
	)
	return nil
}
