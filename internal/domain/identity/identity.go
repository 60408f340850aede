package identity

import (
	"context"
	"slices"

	"github.com/BruksfildServices01/calendar-booking/internal/httperr"
	"github.com/BruksfildServices01/calendar-booking/internal/models"
	"github.com/BruksfildServices01/calendar-booking/internal/validators"
)

type Role string

const (
	RoleAdmin    Role = "admin"
	RoleEmployee Role = "employee"
	RoleUser     Role = "user"
)

func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleEmployee || r == RoleUser
}

var (
	ErrUserExists         = httperr.ErrBusiness("user_already_exists")
	ErrInvalidCredentials = httperr.ErrBusiness("invalid_credentials")
	ErrUnauthorized       = httperr.ErrBusiness("unauthorized")
	ErrForbidden          = httperr.ErrBusiness("forbidden")
	ErrUserNotFound       = httperr.ErrBusiness("user_not_found")
)

// Identity is who a verified session belongs to, with the role read from
// the user store at verification time.
type Identity struct {
	UserID string
	Email  string
	Role   Role
}

func (id Identity) HasRole(roles ...Role) bool {
	return slices.Contains(roles, id.Role)
}

type Profile struct {
	Email     string
	Name      string
	ContactNo string
	Password  string
	Role      string
}

// Validate checks every format policy and returns all failures together.
func (p Profile) Validate() error {
	ve := &httperr.ValidationError{}

	if !validators.IsValidName(p.Name) {
		ve.Add("Invalid name format")
	}
	if !validators.IsValidEmail(p.Email) {
		ve.Add("Invalid email format")
	}
	if !validators.IsValidPassword(p.Password) {
		ve.Add("Invalid password format")
	}
	if p.Role != "" && !Role(p.Role).Valid() {
		ve.Add("Invalid role")
	}

	return ve.Err()
}

type UserRepository interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByID(ctx context.Context, id string) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
	SaveSessionToken(ctx context.Context, userID string, token string) error
}
