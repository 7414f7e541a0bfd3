package service

import (
	"context"
	"errors"
	"fmt"
	inventoryerrors "roomstay/internal/inventory/errors"
	"roomstay/internal/inventory/repository"
	"roomstay/internal/inventory/validator"
	"roomstay/pkg/clock"
	"roomstay/pkg/config"
	apperrors "roomstay/pkg/errors"
	"roomstay/pkg/model"
	"time"
)

// catalogReader is the slice of the catalog client this service needs.
type catalogReader interface {
	GetRoomType(ctx context.Context, propertyID, roomTypeID string) (*model.RoomType, error)
}

type LedgerService interface {
	CheckAvailability(ctx context.Context, propertyID, roomTypeID string, checkIn, checkOut time.Time, quantity int) (*model.AvailabilityReport, error)
	OpenSellingWindow(ctx context.Context, window *model.SellingWindow) (int64, error)
	UpdateRestrictions(ctx context.Context, update *model.LedgerUpdate) (int64, error)
	AdjustBlocked(ctx context.Context, update *model.BlockedUpdate) (*model.LedgerRow, error)
}

type ledgerService struct {
	repo      repository.LedgerRepository
	locks     LockManager
	validator *validator.InventoryValidator
	catalog   catalogReader
	clock     clock.Clock
	cfg       *config.Config
}

func NewLedgerService(
	repo repository.LedgerRepository,
	locks LockManager,
	v *validator.InventoryValidator,
	catalog catalogReader,
	clk clock.Clock,
	cfg *config.Config,
) LedgerService {
	return &ledgerService{
		repo:      repo,
		locks:     locks,
		validator: v,
		catalog:   catalog,
		clock:     clk,
		cfg:       cfg,
	}
}

// CheckAvailability answers whether quantity rooms can be sold for every
// night of [checkIn, checkOut). The answer is a snapshot: it can go stale the
// moment a concurrent hold lands, so callers wanting a guarantee create a
// hold instead.
func (s *ledgerService) CheckAvailability(ctx context.Context, propertyID, roomTypeID string, checkIn, checkOut time.Time, quantity int) (*model.AvailabilityReport, error) {
	if propertyID == "" || roomTypeID == "" {
		return nil, apperrors.InvalidInput("property_id and room_type_id are required")
	}
	if quantity < 1 {
		return nil, apperrors.InvalidInput("quantity must be at least 1")
	}

	nights := model.NightsBetween(checkIn, checkOut)
	if len(nights) == 0 {
		return nil, apperrors.InvalidInput("check_out must be after check_in")
	}

	// Fetch one extra day so departure restrictions on the check-out date
	// are visible.
	rows, err := s.repo.FindRows(ctx, propertyID, roomTypeID, checkIn, model.Night(checkOut).AddDate(0, 0, 1))
	if err != nil {
		s.cfg.Log.Error("Failed to read ledger rows",
			"property_id", propertyID,
			"room_type_id", roomTypeID,
			"error", err,
		)
		return nil, apperrors.Internal("Failed to read availability", err)
	}

	report := assessStay(rows, nights, model.Night(checkOut), quantity)

	s.cfg.Log.Debug("Availability check completed",
		"property_id", propertyID,
		"room_type_id", roomTypeID,
		"nights", len(nights),
		"quantity", quantity,
		"ok", report.OK,
	)
	return report, nil
}

// assessStay evaluates capacity per night plus stay-level restrictions:
// closed_to_arrival and min/max stay on the arrival night, closed_to_departure
// on the check-out date. A night with no ledger row is outside the selling
// window and counts as not sellable.
func assessStay(rows []*model.LedgerRow, nights []time.Time, departure time.Time, quantity int) *model.AvailabilityReport {
	byDate := make(map[time.Time]*model.LedgerRow, len(rows))
	for _, row := range rows {
		byDate[model.Night(row.Date)] = row
	}

	report := &model.AvailabilityReport{OK: true}
	stay := len(nights)

	for i, night := range nights {
		row, open := byDate[night]
		if !open {
			report.OK = false
			report.Nightly = append(report.Nightly, model.NightlyAvailability{Date: night, Available: 0, Sellable: false})
			continue
		}

		sellable := row.Sellable(quantity)
		if i == 0 {
			if row.ClosedToArrival {
				sellable = false
			}
			if row.MinStay != nil && stay < *row.MinStay {
				sellable = false
			}
			if row.MaxStay != nil && stay > *row.MaxStay {
				sellable = false
			}
		}

		if !sellable {
			report.OK = false
		}
		report.Nightly = append(report.Nightly, model.NightlyAvailability{
			Date:      night,
			Available: row.Available(),
			Sellable:  sellable,
		})
	}

	if dep, open := byDate[departure]; open && dep.ClosedToDeparture {
		report.OK = false
	}

	return report
}

// OpenSellingWindow bulk-creates ledger rows for a date range using the
// catalog capacity baseline. Dates already open keep their counters and
// restrictions untouched.
func (s *ledgerService) OpenSellingWindow(ctx context.Context, window *model.SellingWindow) (int64, error) {
	if err := s.validator.ValidateSellingWindow(window); err != nil {
		s.cfg.Log.Warn("Selling window validation failed", "error", err)
		return 0, apperrors.Validation("Invalid selling window", map[string]any{"error": err.Error()})
	}

	roomType, err := s.catalog.GetRoomType(ctx, window.PropertyID, window.RoomTypeID)
	if err != nil {
		s.cfg.Log.Error("Catalog lookup failed",
			"property_id", window.PropertyID,
			"room_type_id", window.RoomTypeID,
			"error", err,
		)
		return 0, apperrors.Unavailable("Catalog service")
	}
	if roomType == nil {
		return 0, apperrors.NotFoundWithID("Room type", window.RoomTypeID)
	}

	start := model.Night(window.StartDate)
	rows := make([]*model.LedgerRow, 0, window.Days)
	for i := 0; i < window.Days; i++ {
		rows = append(rows, &model.LedgerRow{
			PropertyID: window.PropertyID,
			RoomTypeID: window.RoomTypeID,
			Date:       start.AddDate(0, 0, i),
			TotalRooms: roomType.TotalRooms,
		})
	}

	inserted, err := s.repo.EnsureWindow(ctx, rows)
	if err != nil {
		s.cfg.Log.Error("Failed to open selling window", "error", err)
		return 0, apperrors.Internal("Failed to open selling window", err)
	}

	s.cfg.Log.Info("Selling window opened",
		"property_id", window.PropertyID,
		"room_type_id", window.RoomTypeID,
		"start_date", start,
		"days", window.Days,
		"rows_created", inserted,
	)
	return inserted, nil
}

func (s *ledgerService) UpdateRestrictions(ctx context.Context, update *model.LedgerUpdate) (int64, error) {
	if err := s.validator.ValidateLedgerUpdate(update); err != nil {
		s.cfg.Log.Warn("Restriction update validation failed", "error", err)
		return 0, apperrors.Validation("Invalid restriction update", map[string]any{"error": err.Error()})
	}

	token, err := s.locks.Acquire(ctx, update.PropertyID, update.RoomTypeID, update.StartDate, update.EndDate)
	if err != nil {
		return 0, err
	}
	defer func() {
		if releaseErr := s.locks.Release(ctx, token); releaseErr != nil {
			s.cfg.Log.Warn("Failed to release range lock", "lock_key", token.Key, "error", releaseErr)
		}
	}()

	modified, err := s.repo.UpdateRestrictions(ctx, update)
	if err != nil {
		if errors.Is(err, inventoryerrors.ErrInsufficientCapacity) {
			return 0, apperrors.Conflict("Overbooking limit cannot drop below current usage in the requested range")
		}
		s.cfg.Log.Error("Failed to update restrictions", "error", err)
		return 0, apperrors.Internal("Failed to update restrictions", err)
	}

	s.cfg.Log.Info("Restrictions updated",
		"property_id", update.PropertyID,
		"room_type_id", update.RoomTypeID,
		"start_date", update.StartDate,
		"end_date", update.EndDate,
		"rows_modified", modified,
	)
	return modified, nil
}

// AdjustBlocked moves rooms in or out of sale on a single date. The guarded
// write refuses an adjustment that would push counters past capacity or
// below zero.
func (s *ledgerService) AdjustBlocked(ctx context.Context, update *model.BlockedUpdate) (*model.LedgerRow, error) {
	if err := s.validator.ValidateBlockedUpdate(update); err != nil {
		s.cfg.Log.Warn("Blocked update validation failed", "error", err)
		return nil, apperrors.Validation("Invalid blocked-rooms update", map[string]any{"error": err.Error()})
	}

	token, err := s.locks.Acquire(ctx, update.PropertyID, update.RoomTypeID, update.Date, model.Night(update.Date).AddDate(0, 0, 1))
	if err != nil {
		return nil, err
	}
	defer func() {
		if releaseErr := s.locks.Release(ctx, token); releaseErr != nil {
			s.cfg.Log.Warn("Failed to release range lock", "lock_key", token.Key, "error", releaseErr)
		}
	}()

	applied, err := s.repo.ApplyBlockedDelta(ctx, update.PropertyID, update.RoomTypeID, update.Date, update.Delta)
	if err != nil {
		s.cfg.Log.Error("Failed to adjust blocked rooms", "error", err)
		return nil, apperrors.Internal("Failed to adjust blocked rooms", err)
	}

	if !applied {
		if _, findErr := s.repo.FindRow(ctx, update.PropertyID, update.RoomTypeID, update.Date); findErr != nil {
			if errors.Is(findErr, inventoryerrors.ErrWindowNotOpen) {
				return nil, apperrors.Validation("Date is outside the selling window", map[string]any{
					"date": update.Date.Format("2006-01-02"),
				})
			}
			return nil, apperrors.Internal("Failed to adjust blocked rooms", findErr)
		}
		return nil, apperrors.Conflict(fmt.Sprintf(
			"Blocked-rooms delta %+d would violate capacity on %s",
			update.Delta, model.Night(update.Date).Format("2006-01-02"),
		))
	}

	row, err := s.repo.FindRow(ctx, update.PropertyID, update.RoomTypeID, update.Date)
	if err != nil {
		return nil, apperrors.Internal("Failed to read updated ledger row", err)
	}

	s.cfg.Log.Info("Blocked rooms adjusted",
		"property_id", update.PropertyID,
		"room_type_id", update.RoomTypeID,
		"date", model.Night(update.Date),
		"delta", update.Delta,
		"blocked_rooms", row.BlockedRooms,
	)
	return row, nil
}
