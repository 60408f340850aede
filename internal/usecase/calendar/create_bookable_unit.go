package calendar

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/BruksfildServices01/calendar-booking/internal/audit"
	"github.com/BruksfildServices01/calendar-booking/internal/domain/booking"
	domain "github.com/BruksfildServices01/calendar-booking/internal/domain/calendar"
	"github.com/BruksfildServices01/calendar-booking/internal/domain/identity"
	"github.com/BruksfildServices01/calendar-booking/internal/logging"
	"github.com/BruksfildServices01/calendar-booking/internal/models"
	"github.com/BruksfildServices01/calendar-booking/internal/timezone"
)

// ======================================================
// INPUT / OUTPUT
// ======================================================

type CreateUnitInput struct {
	OwnerID string

	// CalendarRef is a calendar id or name. Empty means the owner's own
	// calendar, created on demand.
	CalendarRef string

	Schedule domain.Schedule
}

type CreateUnitResult struct {
	EventID string
	Unit    *models.BookableUnit
}

// ======================================================
// USE CASE
// ======================================================

type CreateBookableUnit struct {
	users    domain.UserRepository
	assocs   domain.AssociationRepository
	units    booking.Repository
	provider domain.Provider
	creds    *Credentials
	ensure   *EnsureCalendar
	timeZone string
	audit    *audit.Dispatcher
	logger   *slog.Logger
}

func NewCreateBookableUnit(
	users domain.UserRepository,
	assocs domain.AssociationRepository,
	units booking.Repository,
	provider domain.Provider,
	creds *Credentials,
	ensure *EnsureCalendar,
	timeZone string,
	audit *audit.Dispatcher,
	logger *slog.Logger,
) *CreateBookableUnit {
	return &CreateBookableUnit{
		users:    users,
		assocs:   assocs,
		units:    units,
		provider: provider,
		creds:    creds,
		ensure:   ensure,
		timeZone: timeZone,
		audit:    audit,
		logger:   logging.WithOperation(logger, "create_unit"),
	}
}

// ======================================================
// EXECUTE
// ======================================================

func (uc *CreateBookableUnit) Execute(
	ctx context.Context,
	in CreateUnitInput,
) (*CreateUnitResult, error) {

	window, err := in.Schedule.Parse(uc.timeZone)
	if err != nil {
		return nil, err
	}

	owner, err := uc.users.FindByID(ctx, in.OwnerID)
	if err != nil {
		return nil, err
	}

	// --------------------------------------------------
	// 1. Target calendar and whose credentials write to it
	// --------------------------------------------------
	calendarID, credUser, err := uc.resolveCalendar(ctx, owner, strings.TrimSpace(in.CalendarRef))
	if err != nil {
		return nil, err
	}

	tokens, err := uc.creds.Load(credUser)
	if err != nil {
		return nil, err
	}

	// --------------------------------------------------
	// 2. External event
	// --------------------------------------------------
	before := tokens.AccessToken
	eventID, err := uc.provider.InsertEvent(ctx, tokens, calendarID, domain.EventSpec{
		Summary:     strings.TrimSpace(in.Schedule.Title),
		Description: in.Schedule.Description,
		Start:       window.Start,
		End:         window.End,
		TimeZone:    uc.timeZone,
	})
	uc.creds.Sync(ctx, credUser, before, tokens)
	if err != nil {
		return nil, err
	}

	// --------------------------------------------------
	// 3. Local unit, always unbooked
	// --------------------------------------------------
	unit := &models.BookableUnit{
		CreatorID:       owner.ID,
		Date:            window.Day,
		StartTime:       window.Start.Format(timezone.HMLayout),
		EndTime:         window.End.Format(timezone.HMLayout),
		StartsAt:        window.Start,
		EndsAt:          window.End,
		Title:           strings.TrimSpace(in.Schedule.Title),
		Description:     in.Schedule.Description,
		CalendarID:      calendarID,
		ExternalEventID: &eventID,
	}

	if err := uc.units.CreateUnit(ctx, unit); err != nil {
		uc.logger.Error("event created but unit not stored",
			slog.String("event_id", eventID),
			slog.String("calendar_id", calendarID),
			logging.Err(err),
		)
		return nil, fmt.Errorf("store unit: %w", err)
	}

	uc.audit.Dispatch(audit.Event{
		UserID:   &owner.ID,
		Action:   "unit_created",
		Entity:   "unit",
		EntityID: &unit.ID,
		Metadata: map[string]string{"calendar_id": calendarID, "event_id": eventID},
	})

	return &CreateUnitResult{EventID: eventID, Unit: unit}, nil
}

func (uc *CreateBookableUnit) resolveCalendar(
	ctx context.Context,
	owner *models.User,
	ref string,
) (string, *models.User, error) {

	if ref == "" {
		calendarID, err := uc.ensure.Execute(ctx, owner)
		if err != nil {
			return "", nil, err
		}
		return calendarID, owner, nil
	}

	assoc, err := uc.assocs.FindByCalendarID(ctx, ref)
	switch {
	case err == nil:
		// unrelated calendars look the same as missing ones
		if !canWrite(owner.ID, assoc) {
			return "", nil, domain.ErrCalendarNotFound
		}
	case errors.Is(err, domain.ErrCalendarNotFound):
		assoc, err = uc.findByName(ctx, owner.ID, ref)
		if err != nil {
			return "", nil, err
		}
	default:
		return "", nil, err
	}

	// an assigning admin owns the calendar and its credentials
	credUserID := assoc.UserID
	if assoc.AssignedBy != nil && *assoc.AssignedBy != "" {
		credUserID = *assoc.AssignedBy
	}
	if credUserID == owner.ID {
		return assoc.CalendarID, owner, nil
	}

	credUser, err := uc.users.FindByID(ctx, credUserID)
	if err != nil {
		if errors.Is(err, identity.ErrUserNotFound) {
			return "", nil, domain.ErrDelegatedAccessRequired
		}
		return "", nil, err
	}
	return assoc.CalendarID, credUser, nil
}

// findByName prefers calendars the user created over assigned ones and
// refuses to guess between two with the same name.
func (uc *CreateBookableUnit) findByName(
	ctx context.Context,
	userID string,
	name string,
) (*models.CalendarAssociation, error) {

	list, err := uc.assocs.ListByNameForUser(ctx, name, userID)
	if err != nil {
		return nil, err
	}

	var held, assigned []models.CalendarAssociation
	for _, a := range list {
		if a.UserID == userID && (a.AssignedBy == nil || *a.AssignedBy == "") {
			held = append(held, a)
		} else {
			assigned = append(assigned, a)
		}
	}

	for _, group := range [][]models.CalendarAssociation{held, assigned} {
		switch len(group) {
		case 0:
			continue
		case 1:
			return &group[0], nil
		default:
			return nil, domain.ErrCalendarAmbiguous
		}
	}
	return nil, domain.ErrCalendarNotFound
}

func canWrite(userID string, a *models.CalendarAssociation) bool {
	if a.UserID == userID {
		return true
	}
	return a.AssignedBy != nil && *a.AssignedBy == userID
}
