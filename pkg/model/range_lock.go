package model

import (
	"fmt"
	"time"
)

// RangeLock is a short-TTL mutual-exclusion lease serializing ledger writes
// for a (property, room type). It is transient concurrency metadata: once
// expires_at passes, any party may reclaim it.
type RangeLock struct {
	ID         string    `json:"id" bson:"_id"`
	PropertyID string    `json:"property_id" bson:"property_id"`
	RoomTypeID string    `json:"room_type_id" bson:"room_type_id"`
	CheckIn    time.Time `json:"check_in" bson:"check_in"`
	CheckOut   time.Time `json:"check_out" bson:"check_out"`
	Token      string    `json:"token" bson:"token"`
	ExpiresAt  time.Time `json:"expires_at" bson:"expires_at"`
	CreatedAt  time.Time `json:"created_at" bson:"created_at"`
}

// RangeLockKey builds the lock document ID. The key is deliberately coarse:
// one lock per (property, room type) serializes all overlapping date ranges
// with a single atomic insert, at the cost of contention between disjoint
// ranges on the same room type.
func RangeLockKey(propertyID, roomTypeID string) string {
	return fmt.Sprintf("range_lock:%s:%s", propertyID, roomTypeID)
}

// LockToken identifies the current holder of a range lock. Only the holder
// may release it before expiry.
type LockToken struct {
	Key   string
	Token string
}
