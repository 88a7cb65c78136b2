package sweeper

import (
	"context"
	"errors"
	sloterrors "reserva/internal/slots/errors"
	"reserva/internal/slots/events"
	"reserva/internal/slots/repository"
	"reserva/pkg/clock"
	"reserva/pkg/config"
	"reserva/pkg/model"
	"time"
)

// Sweeper reclaims slots whose lock TTL has passed, moving them back to
// available. It is an advisory cleaner: Reserve already treats stale locks
// as claimable, so the sweeper only shortens how long dead claims linger.
type Sweeper struct {
	store  repository.SlotStore
	clock  clock.Clock
	events events.Publisher
	cfg    *config.Config
}

func New(store repository.SlotStore, clk clock.Clock, publisher events.Publisher, cfg *config.Config) *Sweeper {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &Sweeper{
		store:  store,
		clock:  clk,
		events: publisher,
		cfg:    cfg,
	}
}

// Start runs sweep passes until ctx is cancelled. Blocking; run it in its
// own goroutine or as a standalone process.
func (s *Sweeper) Start(ctx context.Context) {
	s.cfg.Log.Info("Sweeper started",
		"interval", s.cfg.SweepInterval,
		"batch_size", s.cfg.SweepBatchSize,
	)

	ticker := time.NewTicker(s.cfg.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.cfg.Log.Info("Sweeper stopped")
			return
		case <-ticker.C:
			reclaimed, err := s.RunOnce(ctx)
			if err != nil {
				s.cfg.Log.Error("Sweep pass failed", "error", err)
				continue
			}
			if reclaimed > 0 {
				s.cfg.Log.Info("Sweep pass complete", "reclaimed", reclaimed)
			}
		}
	}
}

// RunOnce performs a single sweep pass and returns how many locks it
// reclaimed. Races with live traffic are expected: each reclaim is a
// conditional write, and a lost race means someone else already moved the
// slot on, which is fine.
func (s *Sweeper) RunOnce(ctx context.Context) (int, error) {
	now := s.clock.Now()

	expired, err := s.store.ScanExpiredLocks(ctx, now, s.cfg.SweepBatchSize)
	if err != nil {
		return 0, err
	}

	reclaimed := 0
	for _, rec := range expired {
		update := &model.SlotRecord{Status: model.StatusAvailable}

		updated, err := s.store.CompareAndSwap(ctx, rec.ResourceID, rec.Date, rec.Version, update)
		if err != nil {
			if errors.Is(err, sloterrors.ErrVersionMismatch) || errors.Is(err, sloterrors.ErrNotFound) {
				continue
			}
			s.cfg.Log.Warn("Failed to reclaim expired lock",
				"resource_id", rec.ResourceID,
				"date", rec.Date,
				"error", err,
			)
			continue
		}

		s.cfg.Log.Info("Reclaimed expired lock",
			"resource_id", rec.ResourceID,
			"date", rec.Date,
			"expired_at", rec.LockExpiresAt,
		)
		s.events.Publish(ctx, events.TypeSlotReclaimed, updated)
		reclaimed++
	}

	return reclaimed, nil
}
