package model

// RoomType is the slice of the catalog collaborator this subsystem reads:
// existence and the physical capacity baseline used to initialize ledger rows.
type RoomType struct {
	ID         string `json:"id"`
	PropertyID string `json:"property_id"`
	Name       string `json:"name"`
	TotalRooms int    `json:"total_rooms"`
}
