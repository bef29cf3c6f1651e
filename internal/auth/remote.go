package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/yourname/sleeptoggle/internal"
)

// RemoteAuthProvider validates tokens against an external auth service that
// answers POST {"token": ...} with the user as JSON.
type RemoteAuthProvider struct {
	AuthServiceURL string
	client         *resty.Client
	logger         internal.Logger
}

func (a *RemoteAuthProvider) ValidateTokenLocal(token string) (*internal.User, error) {
	return nil, errors.New("not implemented in RemoteAuthProvider")
}

func (a *RemoteAuthProvider) ValidateTokenRemote(ctx context.Context, token string) (*internal.User, error) {
	var user internal.User
	resp, err := a.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(map[string]string{"token": token}).
		SetResult(&user).
		Post(a.AuthServiceURL)
	if err != nil {
		a.logger.Errorf("failed to call auth service: %v", err)
		return nil, err
	}
	if resp.StatusCode() != 200 {
		a.logger.Errorf("auth service returned %d", resp.StatusCode())
		return nil, fmt.Errorf("auth service returned %d", resp.StatusCode())
	}
	if user.ID == "" {
		a.logger.Errorf("auth service returned no user id")
		return nil, errors.New("auth service returned no user")
	}
	return &user, nil
}

func NewRemoteAuthProvider(url string, logger internal.Logger) *RemoteAuthProvider {
	return &RemoteAuthProvider{
		AuthServiceURL: url,
		client:         resty.New().SetTimeout(5 * time.Second),
		logger:         logger,
	}
}
