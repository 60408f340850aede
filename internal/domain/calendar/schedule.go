package calendar

import (
	"strings"
	"time"

	"github.com/BruksfildServices01/calendar-booking/internal/httperr"
	"github.com/BruksfildServices01/calendar-booking/internal/timezone"
)

// Schedule is the raw date and times of a unit, as typed by its creator.
type Schedule struct {
	Date        string
	StartTime   string
	EndTime     string
	Title       string
	Description string
}

// Window is a parsed schedule in the service time zone.
type Window struct {
	Day   time.Time
	Start time.Time
	End   time.Time
}

// Parse validates s in tz and reports every problem at once.
func (s Schedule) Parse(tz string) (Window, error) {
	ve := &httperr.ValidationError{}

	date := strings.TrimSpace(s.Date)
	day, err := timezone.ParseDate(tz, date)
	if err != nil {
		ve.Add("date must be YYYY-MM-DD")
	}

	start, startErr := time.Parse(timezone.HMLayout, strings.TrimSpace(s.StartTime))
	if startErr != nil {
		ve.Add("startTime must be HH:MM")
	}
	end, endErr := time.Parse(timezone.HMLayout, strings.TrimSpace(s.EndTime))
	if endErr != nil {
		ve.Add("endTime must be HH:MM")
	}
	if strings.TrimSpace(s.Title) == "" {
		ve.Add("summary is required")
	}

	if err == nil && startErr == nil && endErr == nil && !end.After(start) {
		ve.Add("endTime must be after startTime")
	}

	if err := ve.Err(); err != nil {
		return Window{}, err
	}

	at := func(hm time.Time) time.Time {
		return time.Date(day.Year(), day.Month(), day.Day(), hm.Hour(), hm.Minute(), 0, 0, day.Location())
	}

	return Window{Day: day, Start: at(start), End: at(end)}, nil
}
