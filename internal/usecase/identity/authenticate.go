package identity

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	domain "github.com/BruksfildServices01/calendar-booking/internal/domain/identity"
	"github.com/BruksfildServices01/calendar-booking/internal/models"
	"github.com/BruksfildServices01/calendar-booking/internal/validators"
)

// dummyHash keeps the unknown-email path as slow as a real comparison.
var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("no-such-user-password"), bcrypt.DefaultCost)

type Authenticate struct {
	users    domain.UserRepository
	sessions *Sessions
}

func NewAuthenticate(users domain.UserRepository, sessions *Sessions) *Authenticate {
	return &Authenticate{users: users, sessions: sessions}
}

// Execute returns a fresh session token. Unknown emails and wrong passwords
// produce the same error.
func (uc *Authenticate) Execute(
	ctx context.Context,
	email string,
	password string,
) (string, *models.User, error) {

	user, err := uc.users.FindByEmail(ctx, validators.NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
			return "", nil, domain.ErrInvalidCredentials
		}
		return "", nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", nil, domain.ErrInvalidCredentials
	}

	token, err := uc.sessions.Issue(user)
	if err != nil {
		return "", nil, err
	}

	if err := uc.users.SaveSessionToken(ctx, user.ID, token); err != nil {
		return "", nil, fmt.Errorf("failed to store session token: %w", err)
	}
	user.SessionToken = token

	return token, user, nil
}
