package calendar

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/BruksfildServices01/calendar-booking/internal/audit"
	domain "github.com/BruksfildServices01/calendar-booking/internal/domain/calendar"
	"github.com/BruksfildServices01/calendar-booking/internal/logging"
	"github.com/BruksfildServices01/calendar-booking/internal/models"
)

// EnsureCalendar gives a user exactly one bound calendar, creating it on
// first use. Concurrent callers converge on whichever bind landed first.
type EnsureCalendar struct {
	users    domain.UserRepository
	assocs   domain.AssociationRepository
	provider domain.Provider
	creds    *Credentials
	timeZone string
	audit    *audit.Dispatcher
	logger   *slog.Logger
}

func NewEnsureCalendar(
	users domain.UserRepository,
	assocs domain.AssociationRepository,
	provider domain.Provider,
	creds *Credentials,
	timeZone string,
	audit *audit.Dispatcher,
	logger *slog.Logger,
) *EnsureCalendar {
	return &EnsureCalendar{
		users:    users,
		assocs:   assocs,
		provider: provider,
		creds:    creds,
		timeZone: timeZone,
		audit:    audit,
		logger:   logging.WithOperation(logger, "ensure_calendar"),
	}
}

func (uc *EnsureCalendar) Execute(ctx context.Context, user *models.User) (string, error) {
	if user.CalendarID != "" {
		return user.CalendarID, nil
	}

	tokens, err := uc.creds.Load(user)
	if err != nil {
		return "", err
	}

	name := defaultCalendarName(user)
	before := tokens.AccessToken
	calendarID, err := uc.provider.CreateCalendar(ctx, tokens, name, uc.timeZone)
	uc.creds.Sync(ctx, user, before, tokens)
	if err != nil {
		return "", err
	}

	won, err := uc.users.BindCalendarIfEmpty(ctx, user.ID, calendarID)
	if err != nil {
		return "", fmt.Errorf("bind calendar: %w", err)
	}

	if !won {
		uc.discard(ctx, user, tokens, calendarID)

		current, err := uc.users.FindByID(ctx, user.ID)
		if err != nil {
			return "", err
		}
		user.CalendarID = current.CalendarID
		return current.CalendarID, nil
	}

	user.CalendarID = calendarID

	if err := uc.assocs.Upsert(ctx, &models.CalendarAssociation{
		UserID:       user.ID,
		CalendarID:   calendarID,
		CalendarName: name,
	}); err != nil {
		return "", fmt.Errorf("save calendar association: %w", err)
	}

	uc.audit.Dispatch(audit.Event{
		UserID:   &user.ID,
		Action:   "calendar_created",
		Entity:   "calendar",
		EntityID: &calendarID,
		Metadata: map[string]string{"calendar_name": name},
	})

	return calendarID, nil
}

// discard deletes a calendar created by a request that lost the bind. It
// runs even if the caller has gone away.
func (uc *EnsureCalendar) discard(
	ctx context.Context,
	user *models.User,
	tokens *domain.TokenPair,
	calendarID string,
) {

	ctx = context.WithoutCancel(ctx)
	log := uc.logger.With(logging.UserHash(user.Email), slog.String("calendar_id", calendarID))

	before := tokens.AccessToken
	err := uc.provider.DeleteCalendar(ctx, tokens, calendarID)
	uc.creds.Sync(ctx, user, before, tokens)
	if err != nil {
		log.Error("failed to delete calendar after losing the bind", logging.Err(err))
		return
	}
	log.Info("calendar bind lost to a concurrent request, duplicate deleted")
}

func defaultCalendarName(user *models.User) string {
	name := strings.TrimSpace(user.Name)
	if name == "" {
		return "Bookings"
	}
	return name + " Bookings"
}
