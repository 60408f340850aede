package identity

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/BruksfildServices01/calendar-booking/internal/audit"
	domain "github.com/BruksfildServices01/calendar-booking/internal/domain/identity"
	"github.com/BruksfildServices01/calendar-booking/internal/httperr"
	"github.com/BruksfildServices01/calendar-booking/internal/logging"
	"github.com/BruksfildServices01/calendar-booking/internal/models"
	"github.com/BruksfildServices01/calendar-booking/internal/validators"
)

type RegisterInput struct {
	Name      string
	Email     string
	Password  string
	ContactNo string
	Role      string
}

type Register struct {
	users  domain.UserRepository
	audit  *audit.Dispatcher
	logger *slog.Logger
}

func NewRegister(
	users domain.UserRepository,
	audit *audit.Dispatcher,
	logger *slog.Logger,
) *Register {
	return &Register{
		users:  users,
		audit:  audit,
		logger: logging.WithOperation(logger, "register"),
	}
}

func (uc *Register) Execute(
	ctx context.Context,
	in RegisterInput,
) (*models.User, error) {

	email := validators.NormalizeEmail(in.Email)
	role := strings.ToLower(strings.TrimSpace(in.Role))

	// an existing account wins over every format problem
	if email != "" {
		_, err := uc.users.FindByEmail(ctx, email)
		switch {
		case err == nil:
			return nil, domain.ErrUserExists
		case !errors.Is(err, domain.ErrUserNotFound):
			return nil, err
		}
	}

	profile := domain.Profile{
		Email:     email,
		Name:      in.Name,
		ContactNo: in.ContactNo,
		Password:  in.Password,
		Role:      role,
	}
	if err := profile.Validate(); err != nil {
		return nil, err
	}
	if role == "" {
		role = string(domain.RoleUser)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Name:         strings.TrimSpace(in.Name),
		Email:        email,
		PasswordHash: string(hashed),
		ContactNo:    strings.TrimSpace(in.ContactNo),
		Role:         role,
	}

	if err := uc.users.Create(ctx, user); err != nil {
		if httperr.IsUniqueViolation(err) {
			return nil, domain.ErrUserExists
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	uc.audit.Dispatch(audit.Event{
		UserID:   &user.ID,
		Action:   "user_registered",
		Entity:   "user",
		EntityID: &user.ID,
		Metadata: map[string]string{"role": role},
	})
	uc.logger.Info("user registered", logging.UserHash(email), slog.String("role", role))

	return user, nil
}
