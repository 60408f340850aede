package identity

import (
	"context"
	"errors"

	domain "github.com/BruksfildServices01/calendar-booking/internal/domain/identity"
)

// Authorize checks roles against the user store, never against token
// claims, so a demotion takes effect on the next request.
type Authorize struct {
	users domain.UserRepository
}

func NewAuthorize(users domain.UserRepository) *Authorize {
	return &Authorize{users: users}
}

func (uc *Authorize) Execute(
	ctx context.Context,
	id domain.Identity,
	roles ...domain.Role,
) error {

	user, err := uc.users.FindByID(ctx, id.UserID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return domain.ErrUnauthorized
		}
		return err
	}

	current := domain.Identity{UserID: user.ID, Email: user.Email, Role: domain.Role(user.Role)}
	if !current.HasRole(roles...) {
		return domain.ErrForbidden
	}
	return nil
}
