package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"roomstay/pkg/model"
)

// CatalogClient reads room-type existence and the totalRooms capacity
// baseline from the catalog collaborator. This subsystem never writes to the
// catalog.
type CatalogClient struct {
	httpClient *HttpClient
}

func NewCatalogClient(baseURL string) *CatalogClient {
	return &CatalogClient{
		httpClient: NewHttpClient(baseURL),
	}
}

// GetRoomType fetches a room type by ID. Returns (nil, nil) when the catalog
// does not know the room type.
func (c *CatalogClient) GetRoomType(ctx context.Context, propertyID, roomTypeID string) (*model.RoomType, error) {
	path := fmt.Sprintf("/api/v1/properties/%s/room-types/%s",
		url.PathEscape(propertyID), url.PathEscape(roomTypeID))

	resp, err := c.httpClient.GET(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("catalog request failed: %w", err)
	}

	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("catalog returned status %d", resp.StatusCode)
	}

	var wrapper struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(resp.Body, &wrapper); err != nil {
		return nil, fmt.Errorf("could not decode catalog wrapper: %w", err)
	}

	var roomType model.RoomType
	if err := json.Unmarshal(wrapper.Data, &roomType); err != nil {
		return nil, fmt.Errorf("could not decode room type: %w", err)
	}

	return &roomType, nil
}
