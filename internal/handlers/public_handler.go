package handlers

import (
	"errors"
	"log/slog"

	"github.com/gin-gonic/gin"

	"github.com/BruksfildServices01/calendar-booking/internal/domain/booking"
	"github.com/BruksfildServices01/calendar-booking/internal/dto"
	"github.com/BruksfildServices01/calendar-booking/internal/httperr"
	"github.com/BruksfildServices01/calendar-booking/internal/httpresp"
	"github.com/BruksfildServices01/calendar-booking/internal/logging"
	ucBooking "github.com/BruksfildServices01/calendar-booking/internal/usecase/booking"
)

const headerIdempotencyKey = "Idempotency-Key"

////////////////////////////////////////////////////////
// HANDLER
////////////////////////////////////////////////////////

// PublicHandler serves the unauthenticated booking endpoints used by
// third parties.
type PublicHandler struct {
	claim  *ucBooking.ClaimUnit
	list   *ucBooking.ListUnits
	logger *slog.Logger
}

func NewPublicHandler(
	claim *ucBooking.ClaimUnit,
	list *ucBooking.ListUnits,
	logger *slog.Logger,
) *PublicHandler {
	return &PublicHandler{
		claim:  claim,
		list:   list,
		logger: logging.Default(logger),
	}
}

////////////////////////////////////////////////////////
// DTOs
////////////////////////////////////////////////////////

type ClaimRequest struct {
	SlotID    string `json:"slotId"`
	EventID   string `json:"eventId"`
	Email     string `json:"email"`
	Name      string `json:"name"`
	ContactNo string `json:"contactNo"`
}

////////////////////////////////////////////////////////
// CLAIM
////////////////////////////////////////////////////////

func (h *PublicHandler) BookSlot(c *gin.Context) {
	var req ClaimRequest
	if !bindJSON(c, &req) {
		return
	}
	h.book(c, booking.Selector{UnitID: req.SlotID}, req)
}

func (h *PublicHandler) BookEvent(c *gin.Context) {
	var req ClaimRequest
	if !bindJSON(c, &req) {
		return
	}
	h.book(c, booking.Selector{ExternalEventID: req.EventID}, req)
}

func (h *PublicHandler) book(c *gin.Context, sel booking.Selector, req ClaimRequest) {
	res, err := h.claim.Execute(c.Request.Context(), booking.ClaimInput{
		Selector:       sel,
		Email:          req.Email,
		Name:           req.Name,
		ContactNo:      req.ContactNo,
		IdempotencyKey: c.GetHeader(headerIdempotencyKey),
	})
	if err != nil {
		h.mapBookingErrors(c, err)
		return
	}

	if res.Replayed {
		httpresp.OK(c, httpresp.Message("Slot booked successfully", gin.H{
			"booking":  res.Booking,
			"replayed": true,
		}))
		return
	}

	httpresp.Created(c, httpresp.Message("Slot booked successfully", gin.H{
		"booking": res.Booking,
	}))
}

////////////////////////////////////////////////////////
// LIST
////////////////////////////////////////////////////////

// FindSlots filters on ?unbooked=true|false. Any other value lists all.
func (h *PublicHandler) FindSlots(c *gin.Context) {
	var filter booking.UnitFilter
	switch c.Query("unbooked") {
	case "true":
		booked := false
		filter.Booked = &booked
	case "false":
		booked := true
		filter.Booked = &booked
	}

	units, err := h.list.Execute(c.Request.Context(), filter)
	if err != nil {
		writeCommonError(c, h.logger, err)
		return
	}

	httpresp.List(c, dto.NewUnitDTOs(units))
}

////////////////////////////////////////////////////////
// ERRORS
////////////////////////////////////////////////////////

func (h *PublicHandler) mapBookingErrors(c *gin.Context, err error) {
	var inconsistent *booking.PersistenceInconsistencyError
	switch {
	case errors.Is(err, booking.ErrUnitUnavailable):
		httperr.BadRequest(c, "unit_unavailable", "Slot already booked or not found.")
	case errors.Is(err, booking.ErrClaimInProgress):
		httperr.Conflict(c, "claim_in_progress", "A request with this idempotency key is still in progress.")
	case errors.As(err, &inconsistent):
		httperr.Internal(c, "persistence_inconsistency", "Booking could not be completed.")
	default:
		writeCommonError(c, h.logger, err)
	}
}
