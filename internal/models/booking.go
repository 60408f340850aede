package models

import (
	"time"

	"gorm.io/gorm"
)

// Booking is immutable once created. The unique index on UnitID backs the
// one-booking-per-unit rule at the storage level.
type Booking struct {
	ID     string `gorm:"type:varchar(36);primaryKey" json:"id"`
	UnitID string `gorm:"type:varchar(36);uniqueIndex;not null" json:"unit_id"`

	Email     string `gorm:"size:100;not null" json:"email"`
	Name      string `gorm:"size:100;not null" json:"name"`
	ContactNo string `gorm:"size:20;not null" json:"contact_no"`

	CreatedAt time.Time `json:"created_at"`
}

func (b *Booking) BeforeCreate(tx *gorm.DB) error {
	ensureID(&b.ID)
	return nil
}
