package calendar

import (
	"time"

	"github.com/golang-jwt/jwt/v5"

	domain "github.com/BruksfildServices01/calendar-booking/internal/domain/calendar"
)

const statePurpose = "oauth_state"

type stateClaims struct {
	Email   string `json:"email"`
	Purpose string `json:"purpose"`
	jwt.RegisteredClaims
}

// StateSigner produces the OAuth state parameter. It is a short lived
// signed token, so the callback needs no server-side session and a forged
// or replayed-late state is rejected.
type StateSigner struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewStateSigner(secret string, ttl time.Duration) *StateSigner {
	return &StateSigner{secret: []byte(secret), ttl: ttl, now: time.Now}
}

func (s *StateSigner) Sign(email string) (string, error) {
	now := s.now()
	return jwt.NewWithClaims(jwt.SigningMethodHS256, stateClaims{
		Email:   email,
		Purpose: statePurpose,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}).SignedString(s.secret)
}

// Verify returns the email carried by a valid state.
func (s *StateSigner) Verify(state string) (string, error) {
	var claims stateClaims
	_, err := jwt.ParseWithClaims(state, &claims, func(*jwt.Token) (any, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil || claims.Purpose != statePurpose || claims.Email == "" {
		return "", domain.ErrInvalidState
	}
	return claims.Email, nil
}
