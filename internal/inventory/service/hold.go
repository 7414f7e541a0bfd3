package service

import (
	"context"
	"errors"
	inventoryerrors "roomstay/internal/inventory/errors"
	"roomstay/internal/inventory/repository"
	"roomstay/internal/inventory/validator"
	"roomstay/pkg/clock"
	"roomstay/pkg/config"
	apperrors "roomstay/pkg/errors"
	"roomstay/pkg/model"
	"time"
)

type HoldService interface {
	Create(ctx context.Context, req *model.HoldRequest) (*model.HoldReceipt, error)
	Confirm(ctx context.Context, id string, bookingID string) (*model.Hold, error)
	Release(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (*model.Hold, error)
}

type holdService struct {
	holdRepo   repository.HoldRepository
	ledgerRepo repository.LedgerRepository
	locks      LockManager
	validator  *validator.InventoryValidator
	events     *EventPublisher
	clock      clock.Clock
	cfg        *config.Config
}

func NewHoldService(
	holdRepo repository.HoldRepository,
	ledgerRepo repository.LedgerRepository,
	locks LockManager,
	v *validator.InventoryValidator,
	events *EventPublisher,
	clk clock.Clock,
	cfg *config.Config,
) HoldService {
	return &holdService{
		holdRepo:   holdRepo,
		ledgerRepo: ledgerRepo,
		locks:      locks,
		validator:  v,
		events:     events,
		clock:      clk,
		cfg:        cfg,
	}
}

// Create reserves quantity rooms for every night of the stay, all or nothing.
// The whole read-check-write sequence runs under the range lock, so two
// competing holds for the last room cannot both pass the capacity check.
func (s *holdService) Create(ctx context.Context, req *model.HoldRequest) (*model.HoldReceipt, error) {
	if err := s.validator.ValidateHoldRequest(req); err != nil {
		s.cfg.Log.Warn("Hold request validation failed", "error", err)
		return nil, apperrors.Validation("Invalid hold request", map[string]any{"error": err.Error()})
	}

	checkIn := model.Night(req.CheckIn)
	checkOut := model.Night(req.CheckOut)
	now := s.clock.Now()

	if checkIn.Before(model.Night(now)) {
		return nil, apperrors.Validation("check_in cannot be in the past", nil)
	}

	token, err := s.locks.Acquire(ctx, req.PropertyID, req.RoomTypeID, checkIn, checkOut)
	if err != nil {
		return nil, err
	}
	defer func() {
		if releaseErr := s.locks.Release(ctx, token); releaseErr != nil {
			s.cfg.Log.Warn("Failed to release range lock", "lock_key", token.Key, "error", releaseErr)
		}
	}()

	nights := model.NightsBetween(checkIn, checkOut)

	rows, err := s.ledgerRepo.FindRows(ctx, req.PropertyID, req.RoomTypeID, checkIn, checkOut.AddDate(0, 0, 1))
	if err != nil {
		s.cfg.Log.Error("Failed to read ledger rows for hold", "error", err)
		return nil, apperrors.Internal("Failed to read availability", err)
	}

	report := assessStay(rows, nights, checkOut, req.Quantity)
	if !report.OK {
		return nil, apperrors.Conflict("Requested dates are not available for this quantity").
			WithDetails(map[string]any{"nightly": report.Nightly})
	}

	hold := &model.Hold{
		PropertyID: req.PropertyID,
		RoomTypeID: req.RoomTypeID,
		CheckIn:    checkIn,
		CheckOut:   checkOut,
		Quantity:   req.Quantity,
		Status:     model.HoldPending,
		ExpiresAt:  now.Add(s.cfg.HoldTTL),
	}

	// The per-night deltas and the hold document commit or abort together,
	// so a crash or a rejected night never leaves a partial stay reserved.
	err = s.ledgerRepo.ExecuteTransaction(ctx, func(txCtx context.Context) error {
		for _, night := range nights {
			applied, err := s.ledgerRepo.ApplyReservedDelta(txCtx, req.PropertyID, req.RoomTypeID, night, req.Quantity)
			if err != nil {
				s.cfg.Log.Error("Failed to reserve night", "date", night, "error", err)
				return apperrors.Internal("Failed to reserve rooms", err)
			}
			if !applied {
				return apperrors.Conflict("Capacity changed while creating the hold. Please try again.")
			}
		}

		if err := s.holdRepo.Create(txCtx, hold); err != nil {
			s.cfg.Log.Error("Failed to persist hold", "error", err)
			return apperrors.Internal("Failed to create hold", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.events.PublishHoldEvent(ctx, EventHoldCreated, hold)

	s.cfg.Log.Info("Hold created",
		"hold_id", hold.ID,
		"property_id", hold.PropertyID,
		"room_type_id", hold.RoomTypeID,
		"check_in", hold.CheckIn,
		"check_out", hold.CheckOut,
		"quantity", hold.Quantity,
		"expires_at", hold.ExpiresAt,
	)
	return &model.HoldReceipt{HoldID: hold.ID, ExpiresAt: hold.ExpiresAt}, nil
}

// restoreNights gives reserved rooms back. A rejected decrement means the
// reserved counter would go negative, which can only happen if counters
// drifted; that is reported as an invariant violation so operators can alert
// on it instead of being retried blindly.
func (s *holdService) restoreNights(ctx context.Context, propertyID, roomTypeID string, nights []time.Time, quantity int) {
	for _, night := range nights {
		applied, err := s.ledgerRepo.ApplyReservedDelta(ctx, propertyID, roomTypeID, night, -quantity)
		if err == nil && !applied {
			err = apperrors.InvariantViolation("reserved counter would go negative on restore", map[string]any{
				"property_id":  propertyID,
				"room_type_id": roomTypeID,
				"date":         night.Format("2006-01-02"),
				"quantity":     quantity,
			})
		}
		if err != nil {
			s.cfg.Log.Error("Failed to restore reserved rooms",
				"property_id", propertyID,
				"room_type_id", roomTypeID,
				"date", night,
				"quantity", quantity,
				"error", err,
			)
		}
	}
}

// Confirm flips a pending hold to confirmed and ties it to a booking. The
// rooms stay reserved; they now back a real booking instead of a hold.
func (s *holdService) Confirm(ctx context.Context, id string, bookingID string) (*model.Hold, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Hold ID cannot be empty")
	}

	hold, err := s.holdRepo.ConfirmPending(ctx, id, bookingID, s.clock.Now())
	if err != nil {
		switch {
		case errors.Is(err, inventoryerrors.ErrNotFound):
			return nil, apperrors.NotFoundWithID("Hold", id)
		case errors.Is(err, inventoryerrors.ErrInvalidID):
			return nil, apperrors.InvalidInput("Invalid hold ID format")
		case errors.Is(err, inventoryerrors.ErrHoldExpired):
			return nil, apperrors.Expired("Hold has expired and can no longer be confirmed")
		case errors.Is(err, inventoryerrors.ErrHoldNotPending):
			return nil, apperrors.Conflict("Hold is not pending")
		default:
			s.cfg.Log.Error("Failed to confirm hold", "hold_id", id, "error", err)
			return nil, apperrors.Internal("Failed to confirm hold", err)
		}
	}

	s.events.PublishHoldEvent(ctx, EventHoldConfirmed, hold)

	s.cfg.Log.Info("Hold confirmed", "hold_id", id, "booking_id", bookingID)
	return hold, nil
}

// Release cancels a pending hold and gives its rooms back. Releasing a hold
// that already reached a terminal state is a no-op, so booking-flow retries
// are safe.
func (s *holdService) Release(ctx context.Context, id string) error {
	if id == "" {
		return apperrors.InvalidInput("Hold ID cannot be empty")
	}

	hold, err := s.holdRepo.ReleasePending(ctx, id)
	if err != nil {
		switch {
		case errors.Is(err, inventoryerrors.ErrNotFound):
			return apperrors.NotFoundWithID("Hold", id)
		case errors.Is(err, inventoryerrors.ErrInvalidID):
			return apperrors.InvalidInput("Invalid hold ID format")
		case errors.Is(err, inventoryerrors.ErrHoldNotPending):
			return apperrors.Conflict("Hold is already confirmed and cannot be released")
		default:
			s.cfg.Log.Error("Failed to release hold", "hold_id", id, "error", err)
			return apperrors.Internal("Failed to release hold", err)
		}
	}

	if hold == nil {
		// Already released or expired; counters were restored then.
		return nil
	}

	s.restoreNights(ctx, hold.PropertyID, hold.RoomTypeID, hold.Nights(), hold.Quantity)

	hold.Status = model.HoldReleased
	s.events.PublishHoldEvent(ctx, EventHoldReleased, hold)

	s.cfg.Log.Info("Hold released", "hold_id", id, "quantity", hold.Quantity)
	return nil
}

func (s *holdService) GetByID(ctx context.Context, id string) (*model.Hold, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Hold ID cannot be empty")
	}

	hold, err := s.holdRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, inventoryerrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Hold", id)
		}
		if errors.Is(err, inventoryerrors.ErrInvalidID) {
			return nil, apperrors.InvalidInput("Invalid hold ID format")
		}
		return nil, apperrors.Internal("Failed to retrieve hold", err)
	}

	return hold, nil
}
