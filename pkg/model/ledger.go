package model

import (
	"time"
)

// LedgerRow is the per-(property, room type, date) capacity record. All
// counter mutations go through the inventory repository so the invariant
// reserved+blocked <= total+overbooking holds after every write.
type LedgerRow struct {
	PropertyID        string    `json:"property_id" bson:"property_id" validate:"required,min=1,max=64"`
	RoomTypeID        string    `json:"room_type_id" bson:"room_type_id" validate:"required,min=1,max=64"`
	Date              time.Time `json:"date" bson:"date" validate:"required"`
	TotalRooms        int       `json:"total_rooms" bson:"total_rooms" validate:"min=0,max=10000"`
	AvailableRooms    int       `json:"available_rooms" bson:"available_rooms"`
	ReservedRooms     int       `json:"reserved_rooms" bson:"reserved_rooms" validate:"min=0"`
	BlockedRooms      int       `json:"blocked_rooms" bson:"blocked_rooms" validate:"min=0"`
	OverbookingLimit  int       `json:"overbooking_limit" bson:"overbooking_limit" validate:"min=0"`
	MinStay           *int      `json:"min_stay,omitempty" bson:"min_stay,omitempty" validate:"omitempty,min=1,max=365"`
	MaxStay           *int      `json:"max_stay,omitempty" bson:"max_stay,omitempty" validate:"omitempty,min=1,max=365"`
	ClosedToArrival   bool      `json:"closed_to_arrival" bson:"closed_to_arrival"`
	ClosedToDeparture bool      `json:"closed_to_departure" bson:"closed_to_departure"`
	StopSell          bool      `json:"stop_sell" bson:"stop_sell"`
	CreatedAt         time.Time `json:"created_at,omitempty" bson:"created_at,omitempty"`
	UpdatedAt         time.Time `json:"updated_at,omitempty" bson:"updated_at,omitempty"`
}

// Available returns total - reserved - blocked. It may go negative down to
// -overbooking_limit when the overbooking tolerance is in use.
func (r *LedgerRow) Available() int {
	return r.TotalRooms - r.ReservedRooms - r.BlockedRooms
}

// Sellable reports whether quantity more rooms can be sold on this date.
func (r *LedgerRow) Sellable(quantity int) bool {
	if r.StopSell {
		return false
	}
	return r.Available()+r.OverbookingLimit-quantity >= 0
}

// CheckInvariant verifies reserved+blocked <= total+overbooking.
func (r *LedgerRow) CheckInvariant() bool {
	return r.ReservedRooms+r.BlockedRooms <= r.TotalRooms+r.OverbookingLimit
}

// LedgerUpdate patches sell restrictions and the overbooking tolerance for
// every ledger row in [start_date, end_date). Counters are never edited this
// way; they only move through hold operations and blocked-room adjustments.
type LedgerUpdate struct {
	PropertyID        string    `json:"property_id" validate:"required,min=1,max=64"`
	RoomTypeID        string    `json:"room_type_id" validate:"required,min=1,max=64"`
	StartDate         time.Time `json:"start_date" validate:"required"`
	EndDate           time.Time `json:"end_date" validate:"required,gtfield=StartDate"`
	MinStay           *int      `json:"min_stay,omitempty" validate:"omitempty,min=1,max=365"`
	MaxStay           *int      `json:"max_stay,omitempty" validate:"omitempty,min=1,max=365"`
	ClosedToArrival   *bool     `json:"closed_to_arrival,omitempty"`
	ClosedToDeparture *bool     `json:"closed_to_departure,omitempty"`
	StopSell          *bool     `json:"stop_sell,omitempty"`
	OverbookingLimit  *int      `json:"overbooking_limit,omitempty" validate:"omitempty,min=0,max=100"`
}

// BlockedUpdate adjusts blocked (out-of-sale) units on a single date. Positive
// delta blocks rooms, negative releases them back to sale.
type BlockedUpdate struct {
	PropertyID string    `json:"property_id" validate:"required,min=1,max=64"`
	RoomTypeID string    `json:"room_type_id" validate:"required,min=1,max=64"`
	Date       time.Time `json:"date" validate:"required"`
	Delta      int       `json:"delta" validate:"required,min=-10000,max=10000"`
}

// SellingWindow opens (or extends) the sellable window for a room type,
// bulk-creating ledger rows from the catalog capacity baseline.
type SellingWindow struct {
	PropertyID string    `json:"property_id" validate:"required,min=1,max=64"`
	RoomTypeID string    `json:"room_type_id" validate:"required,min=1,max=64"`
	StartDate  time.Time `json:"start_date" validate:"required"`
	Days       int       `json:"days" validate:"required,min=1,max=730"`
}

// NightlyAvailability is one night of an availability report.
type NightlyAvailability struct {
	Date      time.Time `json:"date"`
	Available int       `json:"available"`
	Sellable  bool      `json:"sellable"`
}

// AvailabilityReport answers a range availability check for a quantity.
type AvailabilityReport struct {
	OK      bool                  `json:"ok"`
	Nightly []NightlyAvailability `json:"nightly"`
}
