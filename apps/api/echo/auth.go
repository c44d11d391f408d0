package echoapi

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/colegio/core"
	"github.com/trezcool/colegio/core/auth"
	"github.com/trezcool/colegio/core/query"
)

var contextClaimsKey = "claims"

type sessionAPI struct {
	conf     *core.Config
	auth     Authenticator
	sessions *auth.Checker
	validate *validator.Validate
}

func newSessionAPI(deps ServerDeps) *sessionAPI {
	sessions := deps.Sessions
	if sessions == nil {
		sessions = auth.NewChecker(deps.Auth, nil, 0, deps.Logger)
	}
	return &sessionAPI{conf: deps.Conf, auth: deps.Auth, sessions: sessions, validate: deps.Validate}
}

func (api *sessionAPI) register(g *echo.Group) {
	g.POST("/auth/login", api.login)
	g.POST("/auth/logout", api.logout)
	g.GET("/me", api.me, api.middleware)
}

// middleware authenticates the request with the session cookie or a bearer token.
// The upstream API confirms the token before any data, cached or not, is served.
func (api *sessionAPI) middleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		token := requestToken(ctx, api.conf.Server.CookieName)
		claims, err := auth.ParseToken(token)
		if err != nil {
			return errors.Wrap(err, "reading session token")
		}
		req := ctx.Request()
		if err = api.sessions.Check(req.Context(), token); err != nil {
			return errors.Wrap(err, "confirming session")
		}

		sess := auth.NewSession(token, claims)
		rctx := auth.WithSession(req.Context(), sess)
		rctx = query.WithScope(rctx, scopeOf(claims))
		ctx.SetRequest(req.WithContext(rctx))
		ctx.Set(contextClaimsKey, claims)

		err = next(ctx)
		if core.IsUnauthorized(err) {
			api.sessions.Forget(req.Context(), token)
		}
		return err
	}
}

type (
	meResponse struct {
		Username  string    `json:"username"`
		Name      string    `json:"nombre"`
		Role      string    `json:"rol"`
		ExpiresAt time.Time `json:"expira,omitempty"`
	}

	loginResponse struct {
		Token string     `json:"token"`
		User  meResponse `json:"usuario"`
	}
)

func newMeResponse(claims auth.Claims) meResponse {
	me := meResponse{Username: claims.Username, Name: claims.DisplayName(), Role: claims.Role}
	if claims.ExpiresAt != 0 {
		me.ExpiresAt = time.Unix(claims.ExpiresAt, 0).UTC()
	}
	return me
}

func (api *sessionAPI) login(ctx echo.Context) error {
	var creds auth.Credentials
	if err := ctx.Bind(&creds); err != nil {
		return errHttpInvalidBody
	}
	creds.Clean()
	if err := api.validate.Struct(creds); err != nil {
		return err
	}

	token, claims, err := api.auth.Login(ctx.Request().Context(), creds)
	if err != nil {
		return errors.Wrap(err, "logging in")
	}

	cookie := sessionCookie(api.conf, token)
	if claims.ExpiresAt != 0 {
		cookie.Expires = time.Unix(claims.ExpiresAt, 0)
	}
	ctx.SetCookie(cookie)
	return mutated(ctx, http.StatusOK, loginResponse{Token: token, User: newMeResponse(claims)},
		"Bienvenido(a), "+claims.DisplayName())
}

func (api *sessionAPI) logout(ctx echo.Context) error {
	expireSessionCookie(ctx, api.conf)
	return mutated(ctx, http.StatusOK, nil, "Sesión cerrada")
}

func (api *sessionAPI) me(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, newMeResponse(sessionClaims(ctx)))
}

func requestToken(ctx echo.Context, cookieName string) string {
	if h := ctx.Request().Header.Get(echo.HeaderAuthorization); h != "" {
		const prefix = "Bearer "
		if len(h) > len(prefix) && strings.EqualFold(h[:len(prefix)], prefix) {
			return strings.TrimSpace(h[len(prefix):])
		}
	}
	if c, err := ctx.Cookie(cookieName); err == nil {
		return c.Value
	}
	return ""
}

func sessionCookie(conf *core.Config, value string) *http.Cookie {
	return &http.Cookie{
		Name:     conf.Server.CookieName,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   conf.Server.SecureCookie,
		SameSite: http.SameSiteLaxMode,
	}
}

// expireSessionCookie drops the stored token: the browser must log in again.
func expireSessionCookie(ctx echo.Context, conf *core.Config) {
	cookie := sessionCookie(conf, "")
	cookie.MaxAge = -1
	cookie.Expires = time.Unix(0, 0)
	ctx.SetCookie(cookie)
}

// sessionClaims returns the claims of the authenticated request, or zero claims.
func sessionClaims(ctx echo.Context) auth.Claims {
	claims, _ := ctx.Get(contextClaimsKey).(auth.Claims)
	return claims
}

func scopeOf(claims auth.Claims) string {
	if claims.Subject != "" {
		return claims.Subject
	}
	return claims.Username
}

func actorOf(ctx echo.Context) string {
	claims := sessionClaims(ctx)
	if claims.Username != "" {
		return claims.Username
	}
	return claims.DisplayName()
}
