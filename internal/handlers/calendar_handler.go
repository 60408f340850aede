package handlers

import (
	"errors"
	"log/slog"

	"github.com/gin-gonic/gin"

	"github.com/BruksfildServices01/calendar-booking/internal/domain/calendar"
	"github.com/BruksfildServices01/calendar-booking/internal/domain/identity"
	"github.com/BruksfildServices01/calendar-booking/internal/dto"
	"github.com/BruksfildServices01/calendar-booking/internal/httperr"
	"github.com/BruksfildServices01/calendar-booking/internal/httpresp"
	"github.com/BruksfildServices01/calendar-booking/internal/logging"
	"github.com/BruksfildServices01/calendar-booking/internal/middleware"
	ucCalendar "github.com/BruksfildServices01/calendar-booking/internal/usecase/calendar"
)

// ======================================================
// HANDLER
// ======================================================

type CalendarHandler struct {
	create     *ucCalendar.CreateCalendar
	assign     *ucCalendar.AssignCalendar
	list       *ucCalendar.ListCalendars
	createUnit *ucCalendar.CreateBookableUnit
	logger     *slog.Logger
}

func NewCalendarHandler(
	create *ucCalendar.CreateCalendar,
	assign *ucCalendar.AssignCalendar,
	list *ucCalendar.ListCalendars,
	createUnit *ucCalendar.CreateBookableUnit,
	logger *slog.Logger,
) *CalendarHandler {
	return &CalendarHandler{
		create:     create,
		assign:     assign,
		list:       list,
		createUnit: createUnit,
		logger:     logging.Default(logger),
	}
}

// ======================================================
// DTOs
// ======================================================

type CreateCalendarRequest struct {
	CalendarName string `json:"calendarName"`
	Email        string `json:"email"`
}

type AssignCalendarRequest struct {
	EmployeeEmail string `json:"employeeEmail"`
	CalendarID    string `json:"calendarId"`
	CalendarName  string `json:"calendarName"`
}

type CreateEventRequest struct {
	// CalendarName may also carry a calendar id.
	CalendarName string `json:"calendarName"`
	Date         string `json:"date"`
	StartTime    string `json:"startTime"`
	EndTime      string `json:"endTime"`
	Summary      string `json:"summary"`
	Description  string `json:"description"`
}

// ======================================================
// ROUTES
// ======================================================

func (h *CalendarHandler) CreateCalendar(c *gin.Context) {
	id, ok := middleware.CurrentIdentity(c)
	if !ok {
		httperr.Unauthorized(c, "unauthorized", "Authentication required.")
		return
	}

	var req CreateCalendarRequest
	if !bindJSON(c, &req) {
		return
	}

	assoc, err := h.create.Execute(c.Request.Context(), ucCalendar.CreateCalendarInput{
		Requester:    id,
		Email:        req.Email,
		CalendarName: req.CalendarName,
	})
	if err != nil {
		h.mapCalendarErrors(c, err)
		return
	}

	httpresp.Created(c, httpresp.Message("Calendar created successfully", gin.H{
		"calendarId": assoc.CalendarID,
	}))
}

func (h *CalendarHandler) AssignCalendar(c *gin.Context) {
	id, _ := middleware.CurrentIdentity(c)

	var req AssignCalendarRequest
	if !bindJSON(c, &req) {
		return
	}

	assoc, err := h.assign.Execute(c.Request.Context(), ucCalendar.AssignCalendarInput{
		AdminID:       id.UserID,
		EmployeeEmail: req.EmployeeEmail,
		CalendarID:    req.CalendarID,
		CalendarName:  req.CalendarName,
	})
	if err != nil {
		h.mapCalendarErrors(c, err)
		return
	}

	httpresp.OK(c, httpresp.Message("Calendar assigned successfully", gin.H{
		"association": assoc,
	}))
}

func (h *CalendarHandler) ListCalendars(c *gin.Context) {
	id, _ := middleware.CurrentIdentity(c)

	assocs, err := h.list.Execute(c.Request.Context(), id, c.Query("email"))
	if err != nil {
		h.mapCalendarErrors(c, err)
		return
	}

	httpresp.List(c, assocs)
}

func (h *CalendarHandler) CreateEvent(c *gin.Context) {
	id, ok := middleware.CurrentIdentity(c)
	if !ok {
		httperr.Unauthorized(c, "unauthorized", "Authentication required.")
		return
	}

	var req CreateEventRequest
	if !bindJSON(c, &req) {
		return
	}

	res, err := h.createUnit.Execute(c.Request.Context(), ucCalendar.CreateUnitInput{
		OwnerID:     id.UserID,
		CalendarRef: req.CalendarName,
		Schedule: calendar.Schedule{
			Date:        req.Date,
			StartTime:   req.StartTime,
			EndTime:     req.EndTime,
			Title:       req.Summary,
			Description: req.Description,
		},
	})
	if err != nil {
		h.mapCalendarErrors(c, err)
		return
	}

	httpresp.Created(c, httpresp.Message("Event created successfully", gin.H{
		"eventId": res.EventID,
		"unit":    dto.NewUnitDTO(res.Unit),
	}))
}

// ======================================================
// ERRORS
// ======================================================

func (h *CalendarHandler) mapCalendarErrors(c *gin.Context, err error) {
	switch {
	case errors.Is(err, calendar.ErrEmailMismatch):
		httperr.Forbidden(c, "email_mismatch", "Email does not match the authenticated user.")
	case errors.Is(err, calendar.ErrCalendarNotFound):
		httperr.NotFound(c, "calendar_not_found", "Calendar not found.")
	case errors.Is(err, calendar.ErrCalendarAmbiguous):
		httperr.Conflict(c, "calendar_ambiguous", "More than one calendar has that name; use the calendar id.")
	case errors.Is(err, calendar.ErrEmployeeNotFound):
		httperr.NotFound(c, "employee_not_found", "Employee not found.")
	case errors.Is(err, identity.ErrUserNotFound):
		httperr.NotFound(c, "user_not_found", "User not found.")
	default:
		writeCommonError(c, h.logger, err)
	}
}
