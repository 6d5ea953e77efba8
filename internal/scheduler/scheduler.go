/*

This file drives the periodic maintenance of the vault: harvesting yield from
every active strategy and re-targeting deployed capital against the configured
allocations. Each tick is tagged with a cycle id so one pass can be traced
across log lines and journal rows.

User-facing operations never flow through here. The scheduler only calls the
owner-gated engine surface, with the owner account it was configured with.

*/

package scheduler

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/mandatedisrael/zenfi/internal/logger"
	"github.com/mandatedisrael/zenfi/internal/metrics"
	"github.com/mandatedisrael/zenfi/internal/vault"
)

var schedulerLogger = logger.GetForComponent("scheduler")

// Errors returned by scheduler construction.
var (
	ErrNilEngine   = errors.New("engine cannot be nil")
	ErrEmptyOwner  = errors.New("owner address cannot be empty")
	ErrBadInterval = errors.New("intervals must be positive")
)

// Config holds the dependencies for creating a Scheduler.
type Config struct {
	Engine            *vault.Engine
	Owner             string
	HarvestInterval   time.Duration
	RebalanceInterval time.Duration
}

// Scheduler runs harvest and rebalance cycles on fixed intervals until its
// context is cancelled.
type Scheduler struct {
	engine            *vault.Engine
	owner             string
	harvestInterval   time.Duration
	rebalanceInterval time.Duration
}

// New validates the configuration and creates a Scheduler.
func New(cfg Config) (*Scheduler, error) {
	if cfg.Engine == nil {
		return nil, ErrNilEngine
	}
	if cfg.Owner == "" {
		return nil, ErrEmptyOwner
	}
	if cfg.HarvestInterval <= 0 || cfg.RebalanceInterval <= 0 {
		return nil, ErrBadInterval
	}
	return &Scheduler{
		engine:            cfg.Engine,
		owner:             cfg.Owner,
		harvestInterval:   cfg.HarvestInterval,
		rebalanceInterval: cfg.RebalanceInterval,
	}, nil
}

// Run blocks until ctx is cancelled, executing harvest and rebalance cycles
// on their respective intervals. A failed cycle is logged and the loop
// continues; only context cancellation stops it.
func (s *Scheduler) Run(ctx context.Context) error {
	schedulerLogger.Info().
		Dur("harvest_interval", s.harvestInterval).
		Dur("rebalance_interval", s.rebalanceInterval).
		Msg("Scheduler starting")

	harvestTicker := time.NewTicker(s.harvestInterval)
	defer harvestTicker.Stop()
	rebalanceTicker := time.NewTicker(s.rebalanceInterval)
	defer rebalanceTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			schedulerLogger.Info().Msg("Scheduler stopping")
			return ctx.Err()
		case <-harvestTicker.C:
			s.runHarvestCycle()
		case <-rebalanceTicker.C:
			s.runRebalanceCycle()
		}
	}
}

func (s *Scheduler) runHarvestCycle() {
	cycleID := uuid.New().String()
	cycleLogger := schedulerLogger.With().Str("cycle_id", cycleID).Logger()
	cycleLogger.Info().Msg("Starting harvest cycle")

	start := time.Now()
	if err := s.engine.HarvestAll(s.owner); err != nil {
		cycleLogger.Error().Err(err).Msg("Harvest cycle failed")
		return
	}

	metrics.SetTotalAssets(s.engine.TotalAssets())
	cycleLogger.Info().
		Dur("duration", time.Since(start)).
		Str("total_assets", s.engine.TotalAssets().String()).
		Msg("Harvest cycle completed")
}

func (s *Scheduler) runRebalanceCycle() {
	cycleID := uuid.New().String()
	cycleLogger := schedulerLogger.With().Str("cycle_id", cycleID).Logger()
	cycleLogger.Info().Msg("Starting rebalance cycle")

	start := time.Now()
	if err := s.engine.Rebalance(s.owner); err != nil {
		cycleLogger.Error().Err(err).Msg("Rebalance cycle failed")
		return
	}

	cycleLogger.Info().
		Dur("duration", time.Since(start)).
		Msg("Rebalance cycle completed")
}
