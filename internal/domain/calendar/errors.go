package calendar

import (
	"fmt"

	"github.com/BruksfildServices01/calendar-booking/internal/httperr"
)

var (
	// ErrDelegatedAccessRequired means the user never granted calendar
	// access, or the stored credentials can no longer be decoded.
	ErrDelegatedAccessRequired = httperr.ErrBusiness("delegated_access_required")

	ErrCalendarNotFound = httperr.ErrBusiness("calendar_not_found")
	ErrEmailMismatch    = httperr.ErrBusiness("email_mismatch")
	ErrInvalidState     = httperr.ErrBusiness("invalid_state")
	ErrEmployeeNotFound = httperr.ErrBusiness("employee_not_found")

	// ErrCalendarAmbiguous means a calendar name matched more than one
	// calendar the caller may write to.
	ErrCalendarAmbiguous = httperr.ErrBusiness("calendar_ambiguous")
)

// UpstreamError wraps any failure reported by the calendar provider.
type UpstreamError struct {
	Op     string
	Status int
	Err    error
}

func (e *UpstreamError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("calendar provider %s failed (status %d): %v", e.Op, e.Status, e.Err)
	}
	return fmt.Sprintf("calendar provider %s failed: %v", e.Op, e.Err)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}
