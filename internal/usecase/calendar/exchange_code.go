package calendar

import (
	"context"
	"log/slog"

	"github.com/BruksfildServices01/calendar-booking/internal/audit"
	domain "github.com/BruksfildServices01/calendar-booking/internal/domain/calendar"
	"github.com/BruksfildServices01/calendar-booking/internal/logging"
)

type ExchangeResult struct {
	Tokens     *domain.TokenPair
	CalendarID string
}

// ExchangeCode completes the OAuth callback: it trades the code for tokens,
// stores them encrypted and makes sure the user has a calendar.
type ExchangeCode struct {
	users    domain.UserRepository
	provider domain.Provider
	state    *StateSigner
	creds    *Credentials
	ensure   *EnsureCalendar
	audit    *audit.Dispatcher
	logger   *slog.Logger
}

func NewExchangeCode(
	users domain.UserRepository,
	provider domain.Provider,
	state *StateSigner,
	creds *Credentials,
	ensure *EnsureCalendar,
	audit *audit.Dispatcher,
	logger *slog.Logger,
) *ExchangeCode {
	return &ExchangeCode{
		users:    users,
		provider: provider,
		state:    state,
		creds:    creds,
		ensure:   ensure,
		audit:    audit,
		logger:   logging.WithOperation(logger, "oauth_callback"),
	}
}

func (uc *ExchangeCode) Execute(
	ctx context.Context,
	code string,
	state string,
) (*ExchangeResult, error) {

	// --------------------------------------------------
	// 1. State and user
	// --------------------------------------------------
	email, err := uc.state.Verify(state)
	if err != nil {
		return nil, err
	}

	user, err := uc.users.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}

	// --------------------------------------------------
	// 2. Tokens
	// --------------------------------------------------
	tokens, err := uc.provider.Exchange(ctx, code)
	if err != nil {
		return nil, err
	}

	// the provider only sends a refresh token on first consent
	if tokens.RefreshToken == "" {
		stored, err := uc.creds.Load(user)
		if err != nil {
			return nil, domain.ErrDelegatedAccessRequired
		}
		tokens.RefreshToken = stored.RefreshToken
	}

	if err := uc.creds.Store(ctx, user, tokens); err != nil {
		return nil, err
	}

	uc.audit.Dispatch(audit.Event{
		UserID:   &user.ID,
		Action:   "delegated_access_granted",
		Entity:   "user",
		EntityID: &user.ID,
	})
	uc.logger.Info("delegated access stored", logging.UserHash(user.Email))

	// --------------------------------------------------
	// 3. Calendar
	// --------------------------------------------------
	calendarID, err := uc.ensure.Execute(ctx, user)
	if err != nil {
		return nil, err
	}

	return &ExchangeResult{Tokens: tokens, CalendarID: calendarID}, nil
}
