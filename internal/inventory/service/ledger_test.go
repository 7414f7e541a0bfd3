package service

import (
	"context"
	"roomstay/internal/inventory/validator"
	"roomstay/pkg/clock"
	apperrors "roomstay/pkg/errors"
	"roomstay/pkg/model"
	"testing"
	"time"
)

func newLedgerFixture(t *testing.T, catalog *fakeCatalog) (*fakeLedgerRepo, LedgerService) {
	t.Helper()

	cfg := testConfig()
	ledgerRepo := newFakeLedgerRepo()
	lockRepo := newFakeLockRepo()
	clk := clock.NewFixed(testNow)
	locks := NewLockManager(lockRepo, clk, cfg)
	v := validator.NewInventoryValidator(cfg.Log)

	if catalog == nil {
		catalog = &fakeCatalog{roomTypes: map[string]*model.RoomType{}}
	}

	svc := NewLedgerService(ledgerRepo, locks, v, catalog, clk, cfg)
	return ledgerRepo, svc
}

func intPtr(n int) *int    { return &n }
func boolPtr(b bool) *bool { return &b }

func TestCheckAvailability_ReportsPerNight(t *testing.T) {
	ledgerRepo, svc := newLedgerFixture(t, nil)

	checkIn := testNow.AddDate(0, 0, 7)
	seedWindow(ledgerRepo, "prop-1", "rt-1", checkIn, 3, 10, 0)
	ledgerRepo.row("prop-1", "rt-1", model.Night(checkIn).AddDate(0, 0, 1)).ReservedRooms = 9

	report, err := svc.CheckAvailability(context.Background(), "prop-1", "rt-1", checkIn, checkIn.AddDate(0, 0, 3), 2)
	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}

	if report.OK {
		t.Error("expected report not OK with a short middle night")
	}
	if len(report.Nightly) != 3 {
		t.Fatalf("expected 3 nightly entries, got %d", len(report.Nightly))
	}
	if report.Nightly[0].Available != 10 || !report.Nightly[0].Sellable {
		t.Errorf("first night: %+v", report.Nightly[0])
	}
	if report.Nightly[1].Available != 1 || report.Nightly[1].Sellable {
		t.Errorf("middle night: %+v", report.Nightly[1])
	}
}

func TestCheckAvailability_MissingNightIsNotSellable(t *testing.T) {
	ledgerRepo, svc := newLedgerFixture(t, nil)

	checkIn := testNow.AddDate(0, 0, 7)
	seedWindow(ledgerRepo, "prop-1", "rt-1", checkIn, 1, 10, 0)

	report, err := svc.CheckAvailability(context.Background(), "prop-1", "rt-1", checkIn, checkIn.AddDate(0, 0, 2), 1)
	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if report.OK {
		t.Error("expected not OK when a night is outside the selling window")
	}
	if report.Nightly[1].Sellable || report.Nightly[1].Available != 0 {
		t.Errorf("unopened night: %+v", report.Nightly[1])
	}
}

func TestCheckAvailability_StayRestrictions(t *testing.T) {
	tests := []struct {
		name   string
		mut    func(repo *fakeLedgerRepo, checkIn time.Time)
		nights int
		wantOK bool
	}{
		{
			name: "min stay blocks short stay",
			mut: func(repo *fakeLedgerRepo, checkIn time.Time) {
				repo.row("prop-1", "rt-1", checkIn).MinStay = intPtr(3)
			},
			nights: 2,
			wantOK: false,
		},
		{
			name: "max stay blocks long stay",
			mut: func(repo *fakeLedgerRepo, checkIn time.Time) {
				repo.row("prop-1", "rt-1", checkIn).MaxStay = intPtr(1)
			},
			nights: 2,
			wantOK: false,
		},
		{
			name: "closed to departure on check-out date",
			mut: func(repo *fakeLedgerRepo, checkIn time.Time) {
				repo.row("prop-1", "rt-1", model.Night(checkIn).AddDate(0, 0, 2)).ClosedToDeparture = true
			},
			nights: 2,
			wantOK: false,
		},
		{
			name:   "no restrictions",
			mut:    func(repo *fakeLedgerRepo, checkIn time.Time) {},
			nights: 2,
			wantOK: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ledgerRepo, svc := newLedgerFixture(t, nil)
			checkIn := model.Night(testNow.AddDate(0, 0, 7))
			seedWindow(ledgerRepo, "prop-1", "rt-1", checkIn, 4, 10, 0)
			tt.mut(ledgerRepo, checkIn)

			report, err := svc.CheckAvailability(context.Background(), "prop-1", "rt-1", checkIn, checkIn.AddDate(0, 0, tt.nights), 1)
			if err != nil {
				t.Fatalf("expected success, got %v", err)
			}
			if report.OK != tt.wantOK {
				t.Errorf("expected OK=%v, got %v", tt.wantOK, report.OK)
			}
		})
	}
}

func TestOpenSellingWindow_CreatesRowsFromCatalogBaseline(t *testing.T) {
	catalog := &fakeCatalog{roomTypes: map[string]*model.RoomType{
		"prop-1|rt-1": {ID: "rt-1", PropertyID: "prop-1", Name: "Standard Double", TotalRooms: 12},
	}}
	ledgerRepo, svc := newLedgerFixture(t, catalog)

	start := testNow.AddDate(0, 0, 7)
	created, err := svc.OpenSellingWindow(context.Background(), &model.SellingWindow{
		PropertyID: "prop-1",
		RoomTypeID: "rt-1",
		StartDate:  start,
		Days:       5,
	})
	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if created != 5 {
		t.Errorf("expected 5 rows created, got %d", created)
	}

	row := ledgerRepo.row("prop-1", "rt-1", start)
	if row == nil || row.TotalRooms != 12 || row.AvailableRooms != 12 {
		t.Errorf("unexpected seeded row: %+v", row)
	}
}

func TestOpenSellingWindow_ExistingRowsKeepCounters(t *testing.T) {
	catalog := &fakeCatalog{roomTypes: map[string]*model.RoomType{
		"prop-1|rt-1": {ID: "rt-1", PropertyID: "prop-1", TotalRooms: 12},
	}}
	ledgerRepo, svc := newLedgerFixture(t, catalog)

	start := model.Night(testNow.AddDate(0, 0, 7))
	ledgerRepo.seed(&model.LedgerRow{
		PropertyID: "prop-1", RoomTypeID: "rt-1", Date: start,
		TotalRooms: 10, ReservedRooms: 4,
	})

	created, err := svc.OpenSellingWindow(context.Background(), &model.SellingWindow{
		PropertyID: "prop-1",
		RoomTypeID: "rt-1",
		StartDate:  start,
		Days:       3,
	})
	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if created != 2 {
		t.Errorf("expected 2 new rows, got %d", created)
	}

	row := ledgerRepo.row("prop-1", "rt-1", start)
	if row.TotalRooms != 10 || row.ReservedRooms != 4 {
		t.Errorf("existing row was overwritten: %+v", row)
	}
}

func TestOpenSellingWindow_UnknownRoomType(t *testing.T) {
	_, svc := newLedgerFixture(t, &fakeCatalog{roomTypes: map[string]*model.RoomType{}})

	_, err := svc.OpenSellingWindow(context.Background(), &model.SellingWindow{
		PropertyID: "prop-1",
		RoomTypeID: "rt-missing",
		StartDate:  testNow.AddDate(0, 0, 7),
		Days:       3,
	})
	if !apperrors.IsCode(err, apperrors.CodeNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestUpdateRestrictions_AppliesToRange(t *testing.T) {
	ledgerRepo, svc := newLedgerFixture(t, nil)

	start := model.Night(testNow.AddDate(0, 0, 7))
	seedWindow(ledgerRepo, "prop-1", "rt-1", start, 5, 10, 0)

	modified, err := svc.UpdateRestrictions(context.Background(), &model.LedgerUpdate{
		PropertyID: "prop-1",
		RoomTypeID: "rt-1",
		StartDate:  start,
		EndDate:    start.AddDate(0, 0, 3),
		MinStay:    intPtr(2),
		StopSell:   boolPtr(true),
	})
	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if modified != 3 {
		t.Errorf("expected 3 rows modified, got %d", modified)
	}

	inside := ledgerRepo.row("prop-1", "rt-1", start)
	if inside.MinStay == nil || *inside.MinStay != 2 || !inside.StopSell {
		t.Errorf("row inside range not updated: %+v", inside)
	}
	outside := ledgerRepo.row("prop-1", "rt-1", start.AddDate(0, 0, 4))
	if outside.StopSell {
		t.Errorf("row outside range was updated: %+v", outside)
	}
}

func TestUpdateRestrictions_RequiresAtLeastOneField(t *testing.T) {
	ledgerRepo, svc := newLedgerFixture(t, nil)

	start := model.Night(testNow.AddDate(0, 0, 7))
	seedWindow(ledgerRepo, "prop-1", "rt-1", start, 2, 10, 0)

	_, err := svc.UpdateRestrictions(context.Background(), &model.LedgerUpdate{
		PropertyID: "prop-1",
		RoomTypeID: "rt-1",
		StartDate:  start,
		EndDate:    start.AddDate(0, 0, 2),
	})
	if !apperrors.IsCode(err, apperrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestUpdateRestrictions_RejectsOverbookingLimitBelowUsage(t *testing.T) {
	ledgerRepo, svc := newLedgerFixture(t, nil)

	start := model.Night(testNow.AddDate(0, 0, 7))
	ledgerRepo.seed(&model.LedgerRow{
		PropertyID: "prop-1", RoomTypeID: "rt-1", Date: start,
		TotalRooms: 2, ReservedRooms: 4, OverbookingLimit: 2,
	})

	_, err := svc.UpdateRestrictions(context.Background(), &model.LedgerUpdate{
		PropertyID:       "prop-1",
		RoomTypeID:       "rt-1",
		StartDate:        start,
		EndDate:          start.AddDate(0, 0, 1),
		OverbookingLimit: intPtr(0),
	})
	if !apperrors.IsCode(err, apperrors.CodeConflict) {
		t.Fatalf("expected conflict lowering the limit below usage, got %v", err)
	}

	row := ledgerRepo.row("prop-1", "rt-1", start)
	if row.OverbookingLimit != 2 {
		t.Errorf("rejected update must not change the limit, got %d", row.OverbookingLimit)
	}

	// Lowering to exactly current usage keeps the invariant and is allowed.
	modified, err := svc.UpdateRestrictions(context.Background(), &model.LedgerUpdate{
		PropertyID:       "prop-1",
		RoomTypeID:       "rt-1",
		StartDate:        start,
		EndDate:          start.AddDate(0, 0, 1),
		OverbookingLimit: intPtr(2),
	})
	if err != nil || modified != 1 {
		t.Errorf("expected limit at exact usage to apply, got modified=%d err=%v", modified, err)
	}
}

func TestAdjustBlocked_MovesRoomsOutOfSale(t *testing.T) {
	ledgerRepo, svc := newLedgerFixture(t, nil)

	date := model.Night(testNow.AddDate(0, 0, 7))
	seedWindow(ledgerRepo, "prop-1", "rt-1", date, 1, 10, 0)

	row, err := svc.AdjustBlocked(context.Background(), &model.BlockedUpdate{
		PropertyID: "prop-1",
		RoomTypeID: "rt-1",
		Date:       date,
		Delta:      3,
	})
	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if row.BlockedRooms != 3 || row.AvailableRooms != 7 {
		t.Errorf("unexpected row after block: %+v", row)
	}
}

func TestAdjustBlocked_RejectsOverCapacity(t *testing.T) {
	ledgerRepo, svc := newLedgerFixture(t, nil)

	date := model.Night(testNow.AddDate(0, 0, 7))
	seedWindow(ledgerRepo, "prop-1", "rt-1", date, 1, 10, 0)
	ledgerRepo.row("prop-1", "rt-1", date).ReservedRooms = 8

	_, err := svc.AdjustBlocked(context.Background(), &model.BlockedUpdate{
		PropertyID: "prop-1",
		RoomTypeID: "rt-1",
		Date:       date,
		Delta:      3,
	})
	if !apperrors.IsCode(err, apperrors.CodeConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}

	row := ledgerRepo.row("prop-1", "rt-1", date)
	if row.BlockedRooms != 0 {
		t.Errorf("rejected adjustment must not change counters: %+v", row)
	}
}

func TestAdjustBlocked_RejectsNegativeBelowZero(t *testing.T) {
	ledgerRepo, svc := newLedgerFixture(t, nil)

	date := model.Night(testNow.AddDate(0, 0, 7))
	seedWindow(ledgerRepo, "prop-1", "rt-1", date, 1, 10, 0)

	_, err := svc.AdjustBlocked(context.Background(), &model.BlockedUpdate{
		PropertyID: "prop-1",
		RoomTypeID: "rt-1",
		Date:       date,
		Delta:      -1,
	})
	if !apperrors.IsCode(err, apperrors.CodeConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestAdjustBlocked_OutsideWindow(t *testing.T) {
	_, svc := newLedgerFixture(t, nil)

	_, err := svc.AdjustBlocked(context.Background(), &model.BlockedUpdate{
		PropertyID: "prop-1",
		RoomTypeID: "rt-1",
		Date:       testNow.AddDate(0, 0, 7),
		Delta:      1,
	})
	if !apperrors.IsCode(err, apperrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}
