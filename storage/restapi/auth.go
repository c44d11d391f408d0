package restapi

import (
	"context"
	"net/http"

	"github.com/pkg/errors"
	"github.com/sendgrid/rest"

	"github.com/trezcool/colegio/core"
	"github.com/trezcool/colegio/core/auth"
)

const (
	loginPath   = "/auth/login"
	profilePath = "/auth/perfil"
)

var errBadCredentials = errors.New("usuario o contraseña incorrectos")

type loginResponse struct {
	AccessToken string `json:"access_token"`
	Token       string `json:"token"`
	CamelToken  string `json:"accessToken"`
}

// Login exchanges credentials for an API token and returns it with its claims.
// Rejected credentials are a validation error, never a session expiry.
func (c *Client) Login(ctx context.Context, creds auth.Credentials) (string, auth.Claims, error) {
	var res loginResponse
	err := c.sendAnonymous(ctx, rest.Post, loginPath, creds, &res)
	if apiErr, ok := errors.Cause(err).(*core.APIError); ok &&
		(apiErr.Status == http.StatusUnauthorized || apiErr.Status == http.StatusBadRequest) {
		if apiErr.Message == core.GenericErrorMessage {
			return "", auth.Claims{}, core.NewValidationError(errBadCredentials)
		}
		return "", auth.Claims{}, core.NewValidationError(errors.New(apiErr.Message))
	}
	if err != nil {
		return "", auth.Claims{}, errors.Wrap(err, "logging in")
	}

	token := res.AccessToken
	if token == "" {
		token = res.Token
	}
	if token == "" {
		token = res.CamelToken
	}
	claims, err := auth.ParseToken(token)
	if err != nil {
		return "", auth.Claims{}, errors.Wrap(err, "reading login token")
	}
	return token, claims, nil
}

// Verify asks the API whether it still accepts token. A rejected token is core.ErrUnauthorized.
func (c *Client) Verify(ctx context.Context, token string) error {
	return c.sendAs(ctx, token, rest.Get, profilePath, nil, nil)
}
