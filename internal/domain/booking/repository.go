package booking

import (
	"context"

	"github.com/BruksfildServices01/calendar-booking/internal/models"
)

type Repository interface {
	// -------- Unit --------
	CreateUnit(
		ctx context.Context,
		unit *models.BookableUnit,
	) error

	ListUnits(
		ctx context.Context,
		filter UnitFilter,
	) ([]models.BookableUnit, error)

	// -------- Claim --------

	// ClaimUnit flips is_booked from false to true in one conditional
	// update and returns the claimed unit. It returns ErrUnitUnavailable
	// when no unbooked unit matches.
	ClaimUnit(
		ctx context.Context,
		sel Selector,
	) (*models.BookableUnit, error)

	// ReleaseUnit reverts a claim that never got a booking.
	ReleaseUnit(
		ctx context.Context,
		unitID string,
	) error

	// -------- Booking --------
	CreateBooking(
		ctx context.Context,
		b *models.Booking,
	) error

	AttachBooking(
		ctx context.Context,
		unitID string,
		bookingID string,
	) error

	GetBooking(
		ctx context.Context,
		id string,
	) (*models.Booking, error)
}

// IdempotencyStore remembers which booking a claim key produced.
type IdempotencyStore interface {
	// Reserve marks key as in flight. It returns the booking id when the
	// key already completed, and ErrClaimInProgress when another attempt
	// holds it.
	Reserve(ctx context.Context, key string) (bookingID string, err error)

	Complete(ctx context.Context, key string, bookingID string) error

	Release(ctx context.Context, key string) error
}
