package calendar

import (
	"context"
	"time"

	"github.com/BruksfildServices01/calendar-booking/internal/models"
)

type UserRepository interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByID(ctx context.Context, id string) (*models.User, error)

	// SaveDelegatedTokens stores already encrypted token records.
	SaveDelegatedTokens(
		ctx context.Context,
		userID string,
		accessToken string,
		refreshToken string,
		expiry *time.Time,
	) error

	// BindCalendarIfEmpty sets calendar_id only when the user has none.
	// It reports whether this call won the bind.
	BindCalendarIfEmpty(
		ctx context.Context,
		userID string,
		calendarID string,
	) (bool, error)
}

type AssociationRepository interface {
	// Upsert inserts or updates the association keyed by calendar id.
	Upsert(
		ctx context.Context,
		a *models.CalendarAssociation,
	) error

	FindByCalendarID(
		ctx context.Context,
		calendarID string,
	) (*models.CalendarAssociation, error)

	// ListByNameForUser returns the associations named name that userID
	// either holds or assigned to someone, oldest first.
	ListByNameForUser(
		ctx context.Context,
		name string,
		userID string,
	) ([]models.CalendarAssociation, error)

	ListForUser(
		ctx context.Context,
		userID string,
	) ([]models.CalendarAssociation, error)
}
