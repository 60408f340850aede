package booking

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/BruksfildServices01/calendar-booking/internal/httperr"
	"github.com/BruksfildServices01/calendar-booking/internal/models"
	"github.com/BruksfildServices01/calendar-booking/internal/validators"
)

// Selector identifies a unit either by its own id or by the id the
// external calendar gave its event. Exactly one must be set.
type Selector struct {
	UnitID          string
	ExternalEventID string
}

func (s Selector) IsZero() bool {
	return s.UnitID == "" && s.ExternalEventID == ""
}

// Column returns the column and value the selector filters on.
func (s Selector) Column() (string, string) {
	if s.UnitID != "" {
		return "id", s.UnitID
	}
	return "external_event_id", s.ExternalEventID
}

type ClaimInput struct {
	Selector Selector

	Email     string
	Name      string
	ContactNo string

	// IdempotencyKey is optional. Retried requests carrying the same key
	// get the original booking back instead of a second claim attempt.
	IdempotencyKey string
}

// ReplayKey scopes the caller's idempotency key to the unit and claimant,
// so the same key sent for another unit or by another person is a new
// claim.
func (in ClaimInput) ReplayKey() string {
	col, val := in.Selector.Column()
	return strings.Join([]string{col, val, in.Email, in.IdempotencyKey}, ":")
}

// Matches reports whether b could have been produced by this input.
func (in ClaimInput) Matches(b *models.Booking) bool {
	if b == nil || b.Email != in.Email {
		return false
	}
	return in.Selector.UnitID == "" || b.UnitID == in.Selector.UnitID
}

func (in *ClaimInput) Normalize() {
	in.Selector.UnitID = strings.TrimSpace(in.Selector.UnitID)
	in.Selector.ExternalEventID = strings.TrimSpace(in.Selector.ExternalEventID)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.Name = strings.TrimSpace(in.Name)
	in.ContactNo = strings.TrimSpace(in.ContactNo)
	in.IdempotencyKey = strings.TrimSpace(in.IdempotencyKey)
}

// Column sizes of the bookings table.
const (
	maxEmailLen   = 100
	maxNameLen    = 100
	maxContactLen = 20
)

// Validate reports every problem at once, before any storage is touched.
func (in ClaimInput) Validate() error {
	ve := &httperr.ValidationError{}

	switch {
	case in.Selector.IsZero():
		ve.Add("slotId or eventId is required")
	case in.Selector.UnitID != "" && in.Selector.ExternalEventID != "":
		ve.Add("provide either slotId or eventId, not both")
	}
	switch {
	case in.Email == "":
		ve.Add("email is required")
	case len(in.Email) > maxEmailLen:
		ve.Add(fmt.Sprintf("email must be at most %d characters", maxEmailLen))
	case !validators.IsValidEmail(in.Email):
		ve.Add("email is invalid")
	}

	switch {
	case in.Name == "":
		ve.Add("name is required")
	case utf8.RuneCountInString(in.Name) > maxNameLen:
		ve.Add(fmt.Sprintf("name must be at most %d characters", maxNameLen))
	}

	switch {
	case in.ContactNo == "":
		ve.Add("contactNo is required")
	case utf8.RuneCountInString(in.ContactNo) > maxContactLen:
		ve.Add(fmt.Sprintf("contactNo must be at most %d characters", maxContactLen))
	}

	return ve.Err()
}

// UnitFilter narrows unit listings. A nil Booked lists everything.
type UnitFilter struct {
	Booked *bool
}
