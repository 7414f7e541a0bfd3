package model

import (
	"time"
)

// Hold statuses. Pending is the only non-terminal state.
const (
	HoldPending   = "pending"
	HoldConfirmed = "confirmed"
	HoldExpired   = "expired"
	HoldReleased  = "released"
)

// Hold is a time-bounded claim on room capacity for every night in
// [check_in, check_out), created ahead of final booking confirmation.
type Hold struct {
	ID         string    `json:"id" bson:"_id" validate:"omitempty,uuid4"`
	PropertyID string    `json:"property_id" bson:"property_id" validate:"required,min=1,max=64"`
	RoomTypeID string    `json:"room_type_id" bson:"room_type_id" validate:"required,min=1,max=64"`
	CheckIn    time.Time `json:"check_in" bson:"check_in" validate:"required"`
	CheckOut   time.Time `json:"check_out" bson:"check_out" validate:"required,gtfield=CheckIn"`
	Quantity   int       `json:"quantity" bson:"quantity" validate:"required,min=1,max=50"`
	Status     string    `json:"status" bson:"status" validate:"required,oneof=pending confirmed expired released"`
	ExpiresAt  time.Time `json:"expires_at" bson:"expires_at"`
	BookingID  string    `json:"booking_id,omitempty" bson:"booking_id,omitempty"`
	CreatedAt  time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt  time.Time `json:"updated_at,omitempty" bson:"updated_at,omitempty"`
}

// Nights returns the UTC midnight of every night the hold claims.
func (h *Hold) Nights() []time.Time {
	return NightsBetween(h.CheckIn, h.CheckOut)
}

// HoldRequest is the boundary shape for creating a hold.
type HoldRequest struct {
	PropertyID string    `json:"property_id" validate:"required,min=1,max=64"`
	RoomTypeID string    `json:"room_type_id" validate:"required,min=1,max=64"`
	CheckIn    time.Time `json:"check_in" validate:"required"`
	CheckOut   time.Time `json:"check_out" validate:"required,gtfield=CheckIn"`
	Quantity   int       `json:"quantity" validate:"required,min=1,max=50"`
}

// HoldReceipt is what a successful createHold hands back to the booking
// workflow: the handle plus the deadline for confirming it.
type HoldReceipt struct {
	HoldID    string    `json:"hold_id"`
	ExpiresAt time.Time `json:"expires_at"`
}
