package models

import (
	"time"

	"gorm.io/gorm"
)

// CalendarAssociation links a user to an external calendar. At most one
// row exists per CalendarID.
type CalendarAssociation struct {
	ID string `gorm:"type:varchar(36);primaryKey" json:"id"`

	UserID string `gorm:"type:varchar(36);index;not null" json:"user_id"`
	User   *User  `gorm:"foreignKey:UserID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"user,omitempty"`

	CalendarID   string  `gorm:"size:255;uniqueIndex;not null" json:"calendar_id"`
	CalendarName string  `gorm:"size:255;index" json:"calendar_name"`
	AssignedBy   *string `gorm:"type:varchar(36)" json:"assigned_by,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (a *CalendarAssociation) BeforeCreate(tx *gorm.DB) error {
	ensureID(&a.ID)
	return nil
}
