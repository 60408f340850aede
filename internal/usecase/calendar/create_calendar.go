package calendar

import (
	"context"
	"fmt"
	"strings"

	"github.com/BruksfildServices01/calendar-booking/internal/audit"
	domain "github.com/BruksfildServices01/calendar-booking/internal/domain/calendar"
	"github.com/BruksfildServices01/calendar-booking/internal/domain/identity"
	"github.com/BruksfildServices01/calendar-booking/internal/httperr"
	"github.com/BruksfildServices01/calendar-booking/internal/models"
	"github.com/BruksfildServices01/calendar-booking/internal/validators"
)

type CreateCalendarInput struct {
	Requester    identity.Identity
	Email        string
	CalendarName string
}

// CreateCalendar creates an extra named calendar for the requester.
type CreateCalendar struct {
	users    domain.UserRepository
	assocs   domain.AssociationRepository
	provider domain.Provider
	creds    *Credentials
	timeZone string
	audit    *audit.Dispatcher
}

func NewCreateCalendar(
	users domain.UserRepository,
	assocs domain.AssociationRepository,
	provider domain.Provider,
	creds *Credentials,
	timeZone string,
	audit *audit.Dispatcher,
) *CreateCalendar {
	return &CreateCalendar{
		users:    users,
		assocs:   assocs,
		provider: provider,
		creds:    creds,
		timeZone: timeZone,
		audit:    audit,
	}
}

func (uc *CreateCalendar) Execute(
	ctx context.Context,
	in CreateCalendarInput,
) (*models.CalendarAssociation, error) {

	email := validators.NormalizeEmail(in.Email)
	name := strings.TrimSpace(in.CalendarName)

	ve := &httperr.ValidationError{}
	if name == "" {
		ve.Add("calendarName is required")
	}
	if email == "" {
		ve.Add("email is required")
	}
	if err := ve.Err(); err != nil {
		return nil, err
	}

	if email != in.Requester.Email {
		return nil, domain.ErrEmailMismatch
	}

	user, err := uc.users.FindByID(ctx, in.Requester.UserID)
	if err != nil {
		return nil, err
	}

	tokens, err := uc.creds.Load(user)
	if err != nil {
		return nil, err
	}

	before := tokens.AccessToken
	calendarID, err := uc.provider.CreateCalendar(ctx, tokens, name, uc.timeZone)
	uc.creds.Sync(ctx, user, before, tokens)
	if err != nil {
		return nil, err
	}

	assoc := &models.CalendarAssociation{
		UserID:       user.ID,
		CalendarID:   calendarID,
		CalendarName: name,
	}
	if err := uc.assocs.Upsert(ctx, assoc); err != nil {
		return nil, fmt.Errorf("save calendar association: %w", err)
	}

	uc.audit.Dispatch(audit.Event{
		UserID:   &user.ID,
		Action:   "calendar_created",
		Entity:   "calendar",
		EntityID: &calendarID,
		Metadata: map[string]string{"calendar_name": name},
	})

	return assoc, nil
}
