package timezone

import (
	"fmt"
	"time"
	_ "time/tzdata"
)

// DefaultTimezone is the single zone every bookable unit is expressed in.
const DefaultTimezone = "Asia/Kolkata"

const (
	DateLayout = "2006-01-02"
	HMLayout   = "15:04"
)

func IsValid(tz string) bool {
	if tz == "" {
		return false
	}
	_, err := time.LoadLocation(tz)
	return err == nil
}

func Location(tz string) *time.Location {
	if IsValid(tz) {
		if loc, err := time.LoadLocation(tz); err == nil {
			return loc
		}
	}

	if loc, err := time.LoadLocation(DefaultTimezone); err == nil {
		return loc
	}
	// no tzdata available
	return time.FixedZone("IST", 5*60*60+30*60)
}

func NowIn(tz string) time.Time {
	return time.Now().In(Location(tz))
}

// ParseDate parses YYYY-MM-DD as midnight in tz.
func ParseDate(tz, date string) (time.Time, error) {
	return time.ParseInLocation(DateLayout, date, Location(tz))
}

// ParseDateTime combines YYYY-MM-DD and HH:MM in tz.
func ParseDateTime(tz, date, hm string) (time.Time, error) {
	t, err := time.ParseInLocation(DateLayout+" "+HMLayout, date+" "+hm, Location(tz))
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date or time %q %q: %w", date, hm, err)
	}
	return t, nil
}
