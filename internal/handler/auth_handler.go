package handler

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	apperrors "cashbook/internal/errors"
	"cashbook/internal/service"
)

// AuthHandler handles authentication endpoints.
type AuthHandler struct {
	authService service.AuthService
	cookies     CookiePolicy
}

// NewAuthHandler creates a new auth handler.
func NewAuthHandler(authService service.AuthService, cookies CookiePolicy) *AuthHandler {
	return &AuthHandler{authService: authService, cookies: cookies}
}

// CredentialsRequest represents a signup or login request. The bcrypt byte
// limit on new passwords is enforced by the auth service.
type CredentialsRequest struct {
	Username string `json:"username" validate:"required,max=255"`
	Password string `json:"password" validate:"required,max=1024"`
}

// SessionResponse is returned by signup and login. The token itself only
// travels in the httpOnly cookie.
type SessionResponse struct {
	Message string    `json:"message"`
	UserID  uuid.UUID `json:"userId"`
}

// IdentityResponse describes the current session.
type IdentityResponse struct {
	Message  string    `json:"message,omitempty"`
	UserID   uuid.UUID `json:"userId"`
	Username string    `json:"username"`
}

// MessageResponse carries a human readable outcome.
type MessageResponse struct {
	Message string `json:"message"`
}

// Signup godoc
// @Summary Create a user and open a session
// @Tags auth
// @Accept json
// @Produce json
// @Param request body CredentialsRequest true "Signup data"
// @Success 201 {object} SessionResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /signup [post]
func (h *AuthHandler) Signup(c echo.Context) error {
	var req CredentialsRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	session, err := h.authService.Signup(c.Request().Context(), req.Username, req.Password)
	if err != nil {
		return errorResponse(err)
	}

	h.cookies.set(c, session.Token)
	return c.JSON(http.StatusCreated, SessionResponse{
		Message: "User created successfully",
		UserID:  session.User.ID,
	})
}

// Login godoc
// @Summary Login user
// @Tags auth
// @Accept json
// @Produce json
// @Param request body CredentialsRequest true "Login credentials"
// @Success 200 {object} SessionResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req CredentialsRequest
	if err := c.Bind(&req); err != nil {
		return errorResponse(apperrors.ErrValidation)
	}
	// Missing fields are reported exactly like a wrong password.
	if err := c.Validate(&req); err != nil {
		return errorResponse(apperrors.ErrInvalidCredentials)
	}

	session, err := h.authService.Login(c.Request().Context(), req.Username, req.Password)
	if err != nil {
		return errorResponse(err)
	}

	h.cookies.set(c, session.Token)
	return c.JSON(http.StatusOK, SessionResponse{
		Message: "Login successful",
		UserID:  session.User.ID,
	})
}

// Me godoc
// @Summary Current session user
// @Tags auth
// @Produce json
// @Security CookieAuth
// @Success 200 {object} IdentityResponse
// @Failure 401 {object} errors.ErrorResponse
// @Router /me [get]
func (h *AuthHandler) Me(c echo.Context) error {
	identity, err := identityFrom(c)
	if err != nil {
		return errorResponse(err)
	}
	return c.JSON(http.StatusOK, IdentityResponse{
		UserID:   identity.UserID,
		Username: identity.Username,
	})
}

// VerifyToken godoc
// @Summary Verify the session cookie (older clients)
// @Tags auth
// @Produce json
// @Security CookieAuth
// @Success 200 {object} IdentityResponse
// @Failure 401 {object} errors.ErrorResponse
// @Router /verify-token [post]
func (h *AuthHandler) VerifyToken(c echo.Context) error {
	identity, err := identityFrom(c)
	if err != nil {
		return errorResponse(err)
	}
	return c.JSON(http.StatusOK, IdentityResponse{
		Message:  "Token is valid",
		UserID:   identity.UserID,
		Username: identity.Username,
	})
}

// Logout godoc
// @Summary Logout user
// @Tags auth
// @Produce json
// @Success 200 {object} MessageResponse
// @Router /logout [post]
func (h *AuthHandler) Logout(c echo.Context) error {
	if token := sessionToken(c); token != "" {
		// revocation is best effort; the cookie is cleared regardless
		_ = h.authService.Logout(c.Request().Context(), token)
	}
	h.cookies.clear(c)
	return c.JSON(http.StatusOK, MessageResponse{Message: "Logged out"})
}

// bindAndValidate decodes the body and runs struct validation.
func bindAndValidate(c echo.Context, req interface{}) error {
	if err := c.Bind(req); err != nil {
		return errorResponse(apperrors.ErrValidation)
	}
	if err := c.Validate(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, apperrors.ErrorResponse{
			Message: err.Error(),
			Code:    "VALIDATION_FAILED",
		})
	}
	return nil
}
