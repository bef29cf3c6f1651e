package auth

import (
	"context"
	"crypto/subtle"
	"errors"

	"github.com/yourname/sleeptoggle/internal"
)

// LocalAuthProvider accepts one static token, for development and the CLI.
type LocalAuthProvider struct {
	Token  string
	User   internal.User
	logger internal.Logger
}

func (a *LocalAuthProvider) ValidateTokenLocal(token string) (*internal.User, error) {
	if a.Token != "" && subtle.ConstantTimeCompare([]byte(token), []byte(a.Token)) == 1 {
		u := a.User
		return &u, nil
	}
	a.logger.Warnf("invalid token")
	return nil, errors.New("invalid token")
}

func (a *LocalAuthProvider) ValidateTokenRemote(ctx context.Context, token string) (*internal.User, error) {
	a.logger.Warnf("ValidateTokenRemote not implemented in LocalAuthProvider")
	return nil, errors.New("not implemented in LocalAuthProvider")
}

func NewLocalAuthProvider(token string, logger internal.Logger) *LocalAuthProvider {
	return &LocalAuthProvider{
		Token:  token,
		User:   internal.User{ID: "u1", Name: "Sleeper"},
		logger: logger,
	}
}
