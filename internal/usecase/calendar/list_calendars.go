package calendar

import (
	"context"

	domain "github.com/BruksfildServices01/calendar-booking/internal/domain/calendar"
	"github.com/BruksfildServices01/calendar-booking/internal/domain/identity"
	"github.com/BruksfildServices01/calendar-booking/internal/httperr"
	"github.com/BruksfildServices01/calendar-booking/internal/models"
	"github.com/BruksfildServices01/calendar-booking/internal/validators"
)

type ListCalendars struct {
	users  domain.UserRepository
	assocs domain.AssociationRepository
}

func NewListCalendars(users domain.UserRepository, assocs domain.AssociationRepository) *ListCalendars {
	return &ListCalendars{users: users, assocs: assocs}
}

// Execute lists the calendars associated with email. Employees may only
// look at their own.
func (uc *ListCalendars) Execute(
	ctx context.Context,
	viewer identity.Identity,
	email string,
) ([]models.CalendarAssociation, error) {

	email = validators.NormalizeEmail(email)
	if email == "" {
		return nil, &httperr.ValidationError{Messages: []string{"email is required"}}
	}

	if viewer.Role == identity.RoleEmployee && viewer.Email != email {
		return nil, identity.ErrForbidden
	}

	user, err := uc.users.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}

	return uc.assocs.ListForUser(ctx, user.ID)
}
