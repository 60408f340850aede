package calendar

import (
	domain "github.com/BruksfildServices01/calendar-booking/internal/domain/calendar"
)

type AuthorizationURL struct {
	provider domain.Provider
	state    *StateSigner
}

func NewAuthorizationURL(provider domain.Provider, state *StateSigner) *AuthorizationURL {
	return &AuthorizationURL{provider: provider, state: state}
}

func (uc *AuthorizationURL) Execute(email string) (string, error) {
	state, err := uc.state.Sign(email)
	if err != nil {
		return "", err
	}
	return uc.provider.AuthCodeURL(state), nil
}
