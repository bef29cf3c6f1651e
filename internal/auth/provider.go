package auth

import (
	"context"

	"github.com/yourname/sleeptoggle/internal"
)

// Provider resolves a bearer token to the user it belongs to. The local
// check serves development; the remote one asks the auth service.
type Provider interface {
	ValidateTokenLocal(token string) (*internal.User, error)
	ValidateTokenRemote(ctx context.Context, token string) (*internal.User, error)
}

// NewProvider picks the provider AuthMiddleware consults in env: the static
// API token in development, the auth service at authURL elsewhere.
func NewProvider(env, apiToken, authURL string, logger internal.Logger) Provider {
	if env == "development" {
		return NewLocalAuthProvider(apiToken, logger)
	}
	return NewRemoteAuthProvider(authURL, logger)
}
