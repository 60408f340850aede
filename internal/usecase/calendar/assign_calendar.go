package calendar

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/BruksfildServices01/calendar-booking/internal/audit"
	domain "github.com/BruksfildServices01/calendar-booking/internal/domain/calendar"
	"github.com/BruksfildServices01/calendar-booking/internal/domain/identity"
	"github.com/BruksfildServices01/calendar-booking/internal/httperr"
	"github.com/BruksfildServices01/calendar-booking/internal/models"
	"github.com/BruksfildServices01/calendar-booking/internal/validators"
)

type AssignCalendarInput struct {
	AdminID       string
	EmployeeEmail string
	CalendarID    string
	CalendarName  string
}

// AssignCalendar hands a calendar to an employee. The admin role is
// checked by the caller; this use case records who assigned it.
type AssignCalendar struct {
	users  domain.UserRepository
	assocs domain.AssociationRepository
	audit  *audit.Dispatcher
}

func NewAssignCalendar(
	users domain.UserRepository,
	assocs domain.AssociationRepository,
	audit *audit.Dispatcher,
) *AssignCalendar {
	return &AssignCalendar{users: users, assocs: assocs, audit: audit}
}

func (uc *AssignCalendar) Execute(
	ctx context.Context,
	in AssignCalendarInput,
) (*models.CalendarAssociation, error) {

	email := validators.NormalizeEmail(in.EmployeeEmail)
	calendarID := strings.TrimSpace(in.CalendarID)
	name := strings.TrimSpace(in.CalendarName)

	ve := &httperr.ValidationError{}
	if email == "" {
		ve.Add("employeeEmail is required")
	}
	if calendarID == "" {
		ve.Add("calendarId is required")
	}
	if name == "" {
		ve.Add("calendarName is required")
	}
	if err := ve.Err(); err != nil {
		return nil, err
	}

	employee, err := uc.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, identity.ErrUserNotFound) {
			return nil, domain.ErrEmployeeNotFound
		}
		return nil, err
	}
	if identity.Role(employee.Role) != identity.RoleEmployee {
		return nil, domain.ErrEmployeeNotFound
	}

	adminID := in.AdminID
	assoc := &models.CalendarAssociation{
		UserID:       employee.ID,
		CalendarID:   calendarID,
		CalendarName: name,
		AssignedBy:   &adminID,
	}
	if err := uc.assocs.Upsert(ctx, assoc); err != nil {
		return nil, fmt.Errorf("save calendar association: %w", err)
	}

	uc.audit.Dispatch(audit.Event{
		UserID:   &adminID,
		Action:   "calendar_assigned",
		Entity:   "calendar",
		EntityID: &calendarID,
		Metadata: map[string]string{"employee_id": employee.ID},
	})

	return assoc, nil
}
