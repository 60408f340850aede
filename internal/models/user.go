package models

import (
	"time"

	"gorm.io/gorm"
)

type User struct {
	ID string `gorm:"type:varchar(36);primaryKey" json:"id"`

	Name         string `gorm:"size:100;not null" json:"name"`
	Email        string `gorm:"size:100;uniqueIndex;not null" json:"email"`
	PasswordHash string `gorm:"size:255;not null" json:"-"`
	ContactNo    string `gorm:"size:20" json:"contact_no"`
	Role         string `gorm:"size:20;default:'user'" json:"role"`

	// Encrypted token records, never plaintext.
	AccessToken  string     `gorm:"type:text" json:"-"`
	RefreshToken string     `gorm:"type:text" json:"-"`
	TokenExpiry  *time.Time `json:"-"`

	CalendarID   string `gorm:"size:255" json:"calendar_id,omitempty"`
	SessionToken string `gorm:"type:text" json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	ensureID(&u.ID)
	return nil
}

func (u *User) HasDelegatedAccess() bool {
	return u.AccessToken != "" && u.RefreshToken != ""
}
