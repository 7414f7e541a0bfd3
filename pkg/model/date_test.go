package model

import (
	"testing"
	"time"
)

func TestNight(t *testing.T) {
	in := time.Date(2026, 6, 1, 15, 30, 45, 123, time.FixedZone("UTC+3", 3*3600))
	got := Night(in)
	want := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestNightsBetween(t *testing.T) {
	checkIn := time.Date(2026, 6, 1, 14, 0, 0, 0, time.UTC)
	checkOut := time.Date(2026, 6, 4, 11, 0, 0, 0, time.UTC)

	nights := NightsBetween(checkIn, checkOut)
	if len(nights) != 3 {
		t.Fatalf("expected 3 nights, got %d", len(nights))
	}

	// Half-open range: the check-out date is not a night.
	last := nights[len(nights)-1]
	if !last.Equal(time.Date(2026, 6, 3, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("unexpected last night %v", last)
	}
}

func TestNightsBetween_EmptyAndInverted(t *testing.T) {
	day := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)

	if nights := NightsBetween(day, day); nights != nil {
		t.Errorf("same-day range must be empty, got %v", nights)
	}
	if nights := NightsBetween(day, day.AddDate(0, 0, -1)); nights != nil {
		t.Errorf("inverted range must be empty, got %v", nights)
	}
}

func TestLedgerRowSellable(t *testing.T) {
	row := LedgerRow{TotalRooms: 10, ReservedRooms: 8, BlockedRooms: 1, OverbookingLimit: 2}

	if !row.Sellable(1) {
		t.Error("expected 1 room sellable")
	}
	if !row.Sellable(3) {
		t.Error("expected 3 rooms sellable within overbooking tolerance")
	}
	if row.Sellable(4) {
		t.Error("expected 4 rooms not sellable")
	}

	row.StopSell = true
	if row.Sellable(1) {
		t.Error("stop_sell must make the night unsellable")
	}
}

func TestLedgerRowCheckInvariant(t *testing.T) {
	ok := LedgerRow{TotalRooms: 10, ReservedRooms: 10, BlockedRooms: 2, OverbookingLimit: 2}
	if !ok.CheckInvariant() {
		t.Error("expected invariant to hold at the exact bound")
	}

	broken := LedgerRow{TotalRooms: 10, ReservedRooms: 11, BlockedRooms: 2, OverbookingLimit: 2}
	if broken.CheckInvariant() {
		t.Error("expected invariant violation past the bound")
	}
}

func TestHoldNights(t *testing.T) {
	hold := Hold{
		CheckIn:  time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC),
		CheckOut: time.Date(2026, 6, 3, 0, 0, 0, 0, time.UTC),
	}
	if got := len(hold.Nights()); got != 2 {
		t.Errorf("expected 2 nights, got %d", got)
	}
}

func TestRangeLockKey(t *testing.T) {
	if got := RangeLockKey("prop-1", "rt-1"); got != "range_lock:prop-1:rt-1" {
		t.Errorf("unexpected key %q", got)
	}
}
