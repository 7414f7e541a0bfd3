package service

import (
	"context"
	"errors"
	inventoryerrors "roomstay/internal/inventory/errors"
	"roomstay/internal/inventory/repository"
	"roomstay/pkg/clock"
	"roomstay/pkg/config"
	apperrors "roomstay/pkg/errors"
	"roomstay/pkg/model"
	"time"
)

// Sweeper expires overdue pending holds and returns their rooms to the
// ledger. Each hold is claimed with an atomic pending-to-expired flip before
// any counter moves, so two sweepers racing over the same hold restore its
// rooms exactly once.
type Sweeper struct {
	holdRepo   repository.HoldRepository
	ledgerRepo repository.LedgerRepository
	lockRepo   repository.RangeLockRepository
	events     *EventPublisher
	clock      clock.Clock
	cfg        *config.Config
}

func NewSweeper(
	holdRepo repository.HoldRepository,
	ledgerRepo repository.LedgerRepository,
	lockRepo repository.RangeLockRepository,
	events *EventPublisher,
	clk clock.Clock,
	cfg *config.Config,
) *Sweeper {
	return &Sweeper{
		holdRepo:   holdRepo,
		ledgerRepo: ledgerRepo,
		lockRepo:   lockRepo,
		events:     events,
		clock:      clk,
		cfg:        cfg,
	}
}

// Run sweeps on a fixed interval until the context is cancelled.
func (s *Sweeper) Run(ctx context.Context) {
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
			s.SweepOnce(ctx)
		}
	}
}

// SweepOnce runs a single pass: expired holds first, then lapsed lock
// documents.
func (s *Sweeper) SweepOnce(ctx context.Context) {
	expired, err := s.SweepExpiredHolds(ctx)
	if err != nil {
		s.cfg.Log.Error("Hold sweep failed", "error", err)
	} else if expired > 0 {
		s.cfg.Log.Info("Expired holds swept", "count", expired)
	}

	removed, err := s.SweepStaleLocks(ctx)
	if err != nil {
		s.cfg.Log.Error("Lock sweep failed", "error", err)
	} else if removed > 0 {
		s.cfg.Log.Debug("Stale range locks removed", "count", removed)
	}
}

// SweepExpiredHolds expires up to SweepBatchSize overdue pending holds and
// restores their reserved rooms. A hold that cannot be claimed (already
// flipped by a competing sweeper or a concurrent confirm) is skipped.
func (s *Sweeper) SweepExpiredHolds(ctx context.Context) (int, error) {
	now := s.clock.Now()

	holds, err := s.holdRepo.FindExpiredPending(ctx, now, s.cfg.SweepBatchSize)
	if err != nil {
		return 0, err
	}

	swept := 0
	for _, candidate := range holds {
		hold, err := s.holdRepo.ClaimExpired(ctx, candidate.ID)
		if err != nil {
			if errors.Is(err, inventoryerrors.ErrHoldNotPending) {
				continue
			}
			s.cfg.Log.Error("Failed to claim expired hold", "hold_id", candidate.ID, "error", err)
			continue
		}

		s.restoreNights(ctx, hold)

		hold.Status = model.HoldExpired
		s.events.PublishHoldEvent(ctx, EventHoldExpired, hold)

		s.cfg.Log.Info("Hold expired",
			"hold_id", hold.ID,
			"property_id", hold.PropertyID,
			"room_type_id", hold.RoomTypeID,
			"quantity", hold.Quantity,
		)
		swept++
	}

	return swept, nil
}

func (s *Sweeper) restoreNights(ctx context.Context, hold *model.Hold) {
	for _, night := range hold.Nights() {
		applied, err := s.ledgerRepo.ApplyReservedDelta(ctx, hold.PropertyID, hold.RoomTypeID, night, -hold.Quantity)
		if err == nil && !applied {
			err = apperrors.InvariantViolation("reserved counter would go negative on restore", map[string]any{
				"hold_id":      hold.ID,
				"property_id":  hold.PropertyID,
				"room_type_id": hold.RoomTypeID,
				"date":         night.Format("2006-01-02"),
				"quantity":     hold.Quantity,
			})
		}
		if err != nil {
			s.cfg.Log.Error("Failed to restore rooms for expired hold",
				"hold_id", hold.ID,
				"date", night,
				"quantity", hold.Quantity,
				"error", err,
			)
		}
	}
}

// SweepStaleLocks removes lapsed lock documents. Acquire reclaims expired
// locks on its own; this only keeps the collection from accumulating
// leftovers from crashed writers.
func (s *Sweeper) SweepStaleLocks(ctx context.Context) (int64, error) {
	return s.lockRepo.DeleteExpired(ctx, s.clock.Now())
}
