package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"roomstay/internal/inventory/service"
	apperrors "roomstay/pkg/errors"
	httputil "roomstay/pkg/http"
	"roomstay/pkg/logger"
	"roomstay/pkg/model"

	"github.com/julienschmidt/httprouter"
)

type InventoryHandler struct {
	holds  service.HoldService
	ledger service.LedgerService
	log    *logger.Logger
}

func NewInventoryHandler(holds service.HoldService, ledger service.LedgerService, log *logger.Logger) *InventoryHandler {
	return &InventoryHandler{
		holds:  holds,
		ledger: ledger,
		log:    log,
	}
}

// Request bodies carry dates as YYYY-MM-DD strings; ledger dates have no
// time-of-day component.

type holdRequestBody struct {
	PropertyID string `json:"property_id"`
	RoomTypeID string `json:"room_type_id"`
	CheckIn    string `json:"check_in"`
	CheckOut   string `json:"check_out"`
	Quantity   int    `json:"quantity"`
}

type confirmRequestBody struct {
	BookingID string `json:"booking_id"`
}

type sellingWindowBody struct {
	PropertyID string `json:"property_id"`
	RoomTypeID string `json:"room_type_id"`
	StartDate  string `json:"start_date"`
	Days       int    `json:"days"`
}

type restrictionsBody struct {
	PropertyID        string `json:"property_id"`
	RoomTypeID        string `json:"room_type_id"`
	StartDate         string `json:"start_date"`
	EndDate           string `json:"end_date"`
	MinStay           *int   `json:"min_stay,omitempty"`
	MaxStay           *int   `json:"max_stay,omitempty"`
	ClosedToArrival   *bool  `json:"closed_to_arrival,omitempty"`
	ClosedToDeparture *bool  `json:"closed_to_departure,omitempty"`
	StopSell          *bool  `json:"stop_sell,omitempty"`
	OverbookingLimit  *int   `json:"overbooking_limit,omitempty"`
}

type blockedBody struct {
	PropertyID string `json:"property_id"`
	RoomTypeID string `json:"room_type_id"`
	Date       string `json:"date"`
	Delta      int    `json:"delta"`
}

type rowsModifiedResponse struct {
	RowsModified int64 `json:"rows_modified"`
}

func parseDate(raw, field string) (time.Time, error) {
	t, err := time.Parse(httputil.DateLayout, raw)
	if err != nil {
		return time.Time{}, apperrors.InvalidInput("invalid " + field + " format, must be YYYY-MM-DD")
	}
	return t, nil
}

func (h *InventoryHandler) CheckAvailability(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	query := r.URL.Query()
	propertyID := query.Get("property_id")
	roomTypeID := query.Get("room_type_id")

	checkIn, err := httputil.ExtractDate(r, "check_in")
	if err != nil {
		h.writeError(w, "CheckAvailability", err)
		return
	}
	checkOut, err := httputil.ExtractDate(r, "check_out")
	if err != nil {
		h.writeError(w, "CheckAvailability", err)
		return
	}
	quantity, err := httputil.ExtractQuantity(r, "quantity")
	if err != nil {
		h.writeError(w, "CheckAvailability", err)
		return
	}

	report, err := h.ledger.CheckAvailability(r.Context(), propertyID, roomTypeID, checkIn, checkOut, quantity)
	if err != nil {
		h.writeError(w, "CheckAvailability", err)
		return
	}

	if err := httputil.WriteSuccess(w, report); err != nil {
		h.log.Error("failed to write success response", "handler", "CheckAvailability", "operation", "WriteSuccess", "error", err)
	}
}

func (h *InventoryHandler) CreateHold(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var body holdRequestBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		h.writeBadBody(w, "CreateHold")
		return
	}

	checkIn, err := parseDate(body.CheckIn, "check_in")
	if err != nil {
		h.writeError(w, "CreateHold", err)
		return
	}
	checkOut, err := parseDate(body.CheckOut, "check_out")
	if err != nil {
		h.writeError(w, "CreateHold", err)
		return
	}

	receipt, err := h.holds.Create(r.Context(), &model.HoldRequest{
		PropertyID: body.PropertyID,
		RoomTypeID: body.RoomTypeID,
		CheckIn:    checkIn,
		CheckOut:   checkOut,
		Quantity:   body.Quantity,
	})
	if err != nil {
		h.writeError(w, "CreateHold", err)
		return
	}

	if err := httputil.WriteCreated(w, receipt); err != nil {
		h.log.Error("failed to write created response", "handler", "CreateHold", "operation", "WriteCreated", "error", err)
	}
}

func (h *InventoryHandler) GetHold(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	hold, err := h.holds.GetByID(r.Context(), ps.ByName("id"))
	if err != nil {
		h.writeError(w, "GetHold", err)
		return
	}

	if err := httputil.WriteSuccess(w, hold); err != nil {
		h.log.Error("failed to write success response", "handler", "GetHold", "operation", "WriteSuccess", "error", err)
	}
}

func (h *InventoryHandler) ConfirmHold(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var body confirmRequestBody
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			h.writeBadBody(w, "ConfirmHold")
			return
		}
	}

	hold, err := h.holds.Confirm(r.Context(), ps.ByName("id"), body.BookingID)
	if err != nil {
		h.writeError(w, "ConfirmHold", err)
		return
	}

	if err := httputil.WriteSuccess(w, hold); err != nil {
		h.log.Error("failed to write success response", "handler", "ConfirmHold", "operation", "WriteSuccess", "error", err)
	}
}

func (h *InventoryHandler) ReleaseHold(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	if err := h.holds.Release(r.Context(), ps.ByName("id")); err != nil {
		h.writeError(w, "ReleaseHold", err)
		return
	}

	httputil.WriteNoContent(w)
}

func (h *InventoryHandler) OpenSellingWindow(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var body sellingWindowBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		h.writeBadBody(w, "OpenSellingWindow")
		return
	}

	startDate, err := parseDate(body.StartDate, "start_date")
	if err != nil {
		h.writeError(w, "OpenSellingWindow", err)
		return
	}

	created, err := h.ledger.OpenSellingWindow(r.Context(), &model.SellingWindow{
		PropertyID: body.PropertyID,
		RoomTypeID: body.RoomTypeID,
		StartDate:  startDate,
		Days:       body.Days,
	})
	if err != nil {
		h.writeError(w, "OpenSellingWindow", err)
		return
	}

	if err := httputil.WriteCreated(w, rowsModifiedResponse{RowsModified: created}); err != nil {
		h.log.Error("failed to write created response", "handler", "OpenSellingWindow", "operation", "WriteCreated", "error", err)
	}
}

func (h *InventoryHandler) UpdateRestrictions(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var body restrictionsBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		h.writeBadBody(w, "UpdateRestrictions")
		return
	}

	startDate, err := parseDate(body.StartDate, "start_date")
	if err != nil {
		h.writeError(w, "UpdateRestrictions", err)
		return
	}
	endDate, err := parseDate(body.EndDate, "end_date")
	if err != nil {
		h.writeError(w, "UpdateRestrictions", err)
		return
	}

	modified, err := h.ledger.UpdateRestrictions(r.Context(), &model.LedgerUpdate{
		PropertyID:        body.PropertyID,
		RoomTypeID:        body.RoomTypeID,
		StartDate:         startDate,
		EndDate:           endDate,
		MinStay:           body.MinStay,
		MaxStay:           body.MaxStay,
		ClosedToArrival:   body.ClosedToArrival,
		ClosedToDeparture: body.ClosedToDeparture,
		StopSell:          body.StopSell,
		OverbookingLimit:  body.OverbookingLimit,
	})
	if err != nil {
		h.writeError(w, "UpdateRestrictions", err)
		return
	}

	if err := httputil.WriteSuccess(w, rowsModifiedResponse{RowsModified: modified}); err != nil {
		h.log.Error("failed to write success response", "handler", "UpdateRestrictions", "operation", "WriteSuccess", "error", err)
	}
}

func (h *InventoryHandler) AdjustBlocked(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var body blockedBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		h.writeBadBody(w, "AdjustBlocked")
		return
	}

	date, err := parseDate(body.Date, "date")
	if err != nil {
		h.writeError(w, "AdjustBlocked", err)
		return
	}

	row, err := h.ledger.AdjustBlocked(r.Context(), &model.BlockedUpdate{
		PropertyID: body.PropertyID,
		RoomTypeID: body.RoomTypeID,
		Date:       date,
		Delta:      body.Delta,
	})
	if err != nil {
		h.writeError(w, "AdjustBlocked", err)
		return
	}

	if err := httputil.WriteSuccess(w, row); err != nil {
		h.log.Error("failed to write success response", "handler", "AdjustBlocked", "operation", "WriteSuccess", "error", err)
	}
}

func (h *InventoryHandler) writeError(w http.ResponseWriter, handlerName string, err error) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		h.log.Error("failed to write error response", "handler", handlerName, "operation", "WriteError", "error", writeErr)
	}
}

func (h *InventoryHandler) writeBadBody(w http.ResponseWriter, handlerName string) {
	if writeErr := httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{
		Error: "Invalid request body",
	}); writeErr != nil {
		h.log.Error("failed to write JSON response", "handler", handlerName, "operation", "WriteJSON", "error", writeErr)
	}
}

func (h *InventoryHandler) RegisterRoutes(router *httprouter.Router) {
	router.GET("/api/v1/availability", h.CheckAvailability)

	router.POST("/api/v1/holds", h.CreateHold)
	router.GET("/api/v1/holds/id/:id", h.GetHold)
	router.POST("/api/v1/holds/id/:id/confirm", h.ConfirmHold)
	router.POST("/api/v1/holds/id/:id/release", h.ReleaseHold)

	router.POST("/api/v1/ledger/window", h.OpenSellingWindow)
	router.PATCH("/api/v1/ledger/restrictions", h.UpdateRestrictions)
	router.PATCH("/api/v1/ledger/blocked", h.AdjustBlocked)
}
