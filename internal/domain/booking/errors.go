package booking

import (
	"fmt"

	"github.com/BruksfildServices01/calendar-booking/internal/httperr"
)

var (
	// ErrUnitUnavailable covers both "already booked" and "does not
	// exist"; callers must not be able to tell them apart.
	ErrUnitUnavailable = httperr.ErrBusiness("unit_unavailable")

	// ErrClaimInProgress is returned when a request reuses the idempotency
	// key of a claim that has not finished yet.
	ErrClaimInProgress = httperr.ErrBusiness("claim_in_progress")

	ErrBookingNotFound = httperr.ErrBusiness("booking_not_found")
)

// PersistenceInconsistencyError means the unit was flipped to booked, the
// booking row could not be written, and reverting the flip failed too.
// The unit is stuck booked with no booking until someone repairs it.
type PersistenceInconsistencyError struct {
	UnitID          string
	BookingErr      error
	CompensationErr error
}

func (e *PersistenceInconsistencyError) Error() string {
	return fmt.Sprintf(
		"unit %s booked without a booking: create booking: %v; revert flag: %v",
		e.UnitID, e.BookingErr, e.CompensationErr,
	)
}

func (e *PersistenceInconsistencyError) Unwrap() []error {
	return []error{e.BookingErr, e.CompensationErr}
}
