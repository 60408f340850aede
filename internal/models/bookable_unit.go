package models

import (
	"time"

	"gorm.io/gorm"
)

// BookableUnit is a slot or event that can be claimed at most once.
// IsBooked only ever moves false -> true through the claim path.
type BookableUnit struct {
	ID string `gorm:"type:varchar(36);primaryKey" json:"id"`

	CreatorID string `gorm:"type:varchar(36);index;not null" json:"creator_id"`
	Creator   *User  `gorm:"foreignKey:CreatorID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"creator,omitempty"`

	Date      time.Time `json:"date"`
	StartTime string    `gorm:"size:5;not null" json:"start_time"`
	EndTime   string    `gorm:"size:5;not null" json:"end_time"`
	StartsAt  time.Time `gorm:"index" json:"starts_at"`
	EndsAt    time.Time `json:"ends_at"`

	Title       string `gorm:"size:255;not null" json:"title"`
	Description string `gorm:"type:text" json:"description"`

	IsBooked bool `gorm:"not null;default:false;index" json:"is_booked"`

	CalendarID      string  `gorm:"size:255" json:"calendar_id,omitempty"`
	ExternalEventID *string `gorm:"size:1024;uniqueIndex" json:"event_id,omitempty"`
	BookingID       *string `gorm:"type:varchar(36)" json:"booking_id,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (u *BookableUnit) BeforeCreate(tx *gorm.DB) error {
	ensureID(&u.ID)
	return nil
}
