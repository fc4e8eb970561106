package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"cashbook/internal/auth"
	apperrors "cashbook/internal/errors"
)

const (
	// SessionCookieName is the cookie carrying the session token.
	SessionCookieName = "token"
	// IdentityContextKey is where the session guard stores *auth.Identity.
	IdentityContextKey = "identity"
)

// CookiePolicy controls session cookie attributes.
type CookiePolicy struct {
	Secure   bool
	SameSite http.SameSite
}

// NewCookiePolicy returns Secure+Strict cookies in production and Lax otherwise.
func NewCookiePolicy(production bool) CookiePolicy {
	if production {
		return CookiePolicy{Secure: true, SameSite: http.SameSiteStrictMode}
	}
	return CookiePolicy{Secure: false, SameSite: http.SameSiteLaxMode}
}

func (p CookiePolicy) set(c echo.Context, token string) {
	c.SetCookie(&http.Cookie{
		Name:     SessionCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(auth.SessionLifetime / time.Second),
		HttpOnly: true,
		Secure:   p.Secure,
		SameSite: p.SameSite,
	})
}

func (p CookiePolicy) clear(c echo.Context) {
	c.SetCookie(&http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
		Secure:   p.Secure,
		SameSite: p.SameSite,
	})
}

// sessionToken returns the raw cookie value, or "" when absent.
func sessionToken(c echo.Context) string {
	cookie, err := c.Cookie(SessionCookieName)
	if err != nil {
		return ""
	}
	return cookie.Value
}

// identityFrom returns the identity placed by the session guard.
func identityFrom(c echo.Context) (*auth.Identity, error) {
	identity, ok := c.Get(IdentityContextKey).(*auth.Identity)
	if !ok || identity == nil {
		return nil, apperrors.ErrMissingCredential
	}
	return identity, nil
}

// SessionErrorHandler turns a rejected session into the uniform 401 body.
func SessionErrorHandler(c echo.Context, err error) error {
	if sessionToken(c) == "" {
		return errorResponse(apperrors.ErrMissingCredential)
	}
	return errorResponse(apperrors.ErrInvalidCredential)
}

// errorResponse maps a domain error onto an echo HTTP error.
func errorResponse(err error) *echo.HTTPError {
	httpErr := apperrors.MapErrorToHTTP(err)
	return echo.NewHTTPError(httpErr.StatusCode, httpErr.ToErrorResponse())
}
