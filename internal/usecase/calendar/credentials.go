package calendar

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	domain "github.com/BruksfildServices01/calendar-booking/internal/domain/calendar"
	"github.com/BruksfildServices01/calendar-booking/internal/logging"
	"github.com/BruksfildServices01/calendar-booking/internal/models"
	"github.com/BruksfildServices01/calendar-booking/internal/tokencodec"
)

// Credentials moves delegated tokens between their encrypted stored form
// and the TokenPair the provider works with.
type Credentials struct {
	users  domain.UserRepository
	codec  *tokencodec.Codec
	logger *slog.Logger
}

func NewCredentials(users domain.UserRepository, codec *tokencodec.Codec, logger *slog.Logger) *Credentials {
	return &Credentials{
		users:  users,
		codec:  codec,
		logger: logging.WithOperation(logger, "credentials"),
	}
}

// Load decodes the user's stored tokens. Missing or undecodable tokens
// mean access has to be granted again.
func (c *Credentials) Load(user *models.User) (*domain.TokenPair, error) {
	if !user.HasDelegatedAccess() {
		return nil, domain.ErrDelegatedAccessRequired
	}

	access, err := c.codec.Decode(user.AccessToken)
	if err != nil {
		c.logger.Warn("stored access token unreadable", logging.UserHash(user.Email), logging.Err(err))
		return nil, domain.ErrDelegatedAccessRequired
	}
	refresh, err := c.codec.Decode(user.RefreshToken)
	if err != nil {
		c.logger.Warn("stored refresh token unreadable", logging.UserHash(user.Email), logging.Err(err))
		return nil, domain.ErrDelegatedAccessRequired
	}

	pair := &domain.TokenPair{AccessToken: access, RefreshToken: refresh}
	if user.TokenExpiry != nil {
		pair.Expiry = *user.TokenExpiry
	}
	return pair, nil
}

// Store encrypts and saves tokens, and mirrors them onto user.
func (c *Credentials) Store(ctx context.Context, user *models.User, t *domain.TokenPair) error {
	access, err := c.codec.Encode(t.AccessToken)
	if err != nil {
		return fmt.Errorf("encode access token: %w", err)
	}
	refresh, err := c.codec.Encode(t.RefreshToken)
	if err != nil {
		return fmt.Errorf("encode refresh token: %w", err)
	}

	var expiry *time.Time
	if !t.Expiry.IsZero() {
		e := t.Expiry.UTC()
		expiry = &e
	}

	if err := c.users.SaveDelegatedTokens(ctx, user.ID, access, refresh, expiry); err != nil {
		return fmt.Errorf("save delegated tokens: %w", err)
	}

	user.AccessToken = access
	user.RefreshToken = refresh
	user.TokenExpiry = expiry
	return nil
}

// Sync persists t when a provider call refreshed the access token. A
// failure only costs an extra refresh next time, so it is logged.
func (c *Credentials) Sync(ctx context.Context, user *models.User, before string, t *domain.TokenPair) {
	if t == nil || t.AccessToken == before {
		return
	}
	if err := c.Store(context.WithoutCancel(ctx), user, t); err != nil {
		c.logger.Warn("failed to persist refreshed token",
			logging.UserHash(user.Email),
			logging.Token("access_token", t.AccessToken),
			logging.Err(err),
		)
	}
}
