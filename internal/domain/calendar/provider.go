package calendar

import (
	"context"
	"time"
)

// TokenPair is a decoded set of delegated credentials. Provider methods
// update it in place when the access token gets refreshed, so callers can
// compare before and after to decide whether to persist.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
	Expiry       time.Time
}

func (t *TokenPair) Complete() bool {
	return t != nil && t.AccessToken != "" && t.RefreshToken != ""
}

// EventSpec describes one event to insert. ID is chosen by the caller so a
// retried insert cannot create a duplicate.
type EventSpec struct {
	ID          string
	Summary     string
	Description string
	Start       time.Time
	End         time.Time
	TimeZone    string
}

// Provider is the external calendar service. Implementations must not hold
// per-user state between calls.
type Provider interface {
	AuthCodeURL(state string) string

	Exchange(
		ctx context.Context,
		code string,
	) (*TokenPair, error)

	CreateCalendar(
		ctx context.Context,
		tokens *TokenPair,
		name string,
		timeZone string,
	) (calendarID string, err error)

	InsertEvent(
		ctx context.Context,
		tokens *TokenPair,
		calendarID string,
		ev EventSpec,
	) (eventID string, err error)

	DeleteCalendar(
		ctx context.Context,
		tokens *TokenPair,
		calendarID string,
	) error
}
