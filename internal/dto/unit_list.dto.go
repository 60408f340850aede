package dto

import (
	"time"

	"github.com/BruksfildServices01/calendar-booking/internal/models"
	"github.com/BruksfildServices01/calendar-booking/internal/timezone"
)

// UnitDTO is the public view of a bookable unit. It leaves out the
// creator and calendar ids.
type UnitDTO struct {
	ID          string    `json:"id"`
	EventID     string    `json:"event_id,omitempty"`
	Date        string    `json:"date"`
	StartTime   string    `json:"start_time"`
	EndTime     string    `json:"end_time"`
	StartsAt    time.Time `json:"starts_at"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	IsBooked    bool      `json:"is_booked"`
}

func NewUnitDTO(u *models.BookableUnit) UnitDTO {
	d := UnitDTO{
		ID:          u.ID,
		Date:        u.Date.Format(timezone.DateLayout),
		StartTime:   u.StartTime,
		EndTime:     u.EndTime,
		StartsAt:    u.StartsAt,
		Title:       u.Title,
		Description: u.Description,
		IsBooked:    u.IsBooked,
	}
	if u.ExternalEventID != nil {
		d.EventID = *u.ExternalEventID
	}
	return d
}

func NewUnitDTOs(units []models.BookableUnit) []UnitDTO {
	out := make([]UnitDTO, 0, len(units))
	for i := range units {
		out = append(out, NewUnitDTO(&units[i]))
	}
	return out
}
