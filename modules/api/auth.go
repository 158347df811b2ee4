package api

import (
	"context"

	"blockballot/modules/common"
	"blockballot/modules/config"
)

// Identity is the authenticated caller. Contact is the identifier the
// eligibility records and vote records key on.
type Identity struct {
	ID      string
	Contact string
}

// AuthService resolves a bearer credential to an identity.
type AuthService interface {
	Verify(ctx context.Context, credential string) (*Identity, error)
}

type authConfig struct {
	// Tokens maps a bearer credential to the holder's contact.
	Tokens map[string]string
}

type AuthConfig struct {
	*config.Config[authConfig]
}

func NewAuthConfig() AuthConfig {
	return AuthConfig{
		config.New(authConfig{
			Tokens: map[string]string{},
		}),
	}
}

func (ac AuthConfig) AddToken(credential string, contact string) error {
	return ac.Update(func(c *authConfig) {
		if c.Tokens == nil {
			c.Tokens = map[string]string{}
		}
		c.Tokens[credential] = contact
	})
}

// StaticTokenAuth verifies credentials against the token table in the
// auth config file. Suitable for closed rollouts; swap the AuthService
// for an IdP-backed one without touching the handlers.
type StaticTokenAuth struct {
	conf AuthConfig
}

var _ AuthService = &StaticTokenAuth{}

func NewStaticTokenAuth(conf AuthConfig) *StaticTokenAuth {
	return &StaticTokenAuth{conf: conf}
}

func (s *StaticTokenAuth) Verify(ctx context.Context, credential string) (*Identity, error) {
	contact, ok := s.conf.Get().Tokens[credential]
	if !ok {
		return nil, common.UnauthorizedError{Reason: "invalid credential"}
	}
	return &Identity{ID: contact, Contact: contact}, nil
}
