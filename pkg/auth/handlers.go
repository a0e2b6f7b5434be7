package auth

import (
	"net/http"
	"time"

	"github.com/kashihonbooks/kashihon/pkg/models"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

const (
	// CookieName is the name of the session cookie.
	CookieName = "kashihon_session"
	// CookieMaxAge is how long the cookie is valid.
	CookieMaxAge = 7 * 24 * time.Hour // 7 days
)

type handler struct {
	authService *Service
}

// buildMeResponse builds a MeResponse from a user model.
func buildMeResponse(user *models.User) MeResponse {
	return MeResponse{
		ID:       user.ID,
		Username: user.Username,
		Email:    user.Email,
		Role:     user.Role,
		IsAdmin:  user.IsAdmin(),
	}
}

// register creates a new member account.
func (h *handler) register(c echo.Context) error {
	ctx := c.Request().Context()

	params := RegisterPayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	user, err := h.authService.Register(ctx, RegisterOptions{
		Username: params.Username,
		Email:    params.Email,
		Password: params.Password,
		Role:     models.RoleMember,
	})
	if err != nil {
		return err
	}

	return errors.WithStack(c.JSON(http.StatusCreated, buildMeResponse(user)))
}

// login handles user login.
func (h *handler) login(c echo.Context) error {
	ctx := c.Request().Context()

	params := LoginPayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	user, err := h.authService.Authenticate(ctx, params.Username, params.Password)
	if err != nil {
		return err
	}

	token, err := h.authService.GenerateToken(user)
	if err != nil {
		return errors.WithStack(err)
	}

	// Set HTTP-only cookie
	cookie := &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(CookieMaxAge.Seconds()),
		HttpOnly: true,
		Secure:   c.Request().TLS != nil || c.Request().Header.Get("X-Forwarded-Proto") == "https",
		SameSite: http.SameSiteLaxMode,
	}
	c.SetCookie(cookie)

	return errors.WithStack(c.JSON(http.StatusOK, buildMeResponse(user)))
}

// logout handles user logout.
func (h *handler) logout(c echo.Context) error {
	// Clear cookie by setting MaxAge to -1
	cookie := &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   c.Request().TLS != nil || c.Request().Header.Get("X-Forwarded-Proto") == "https",
		SameSite: http.SameSiteLaxMode,
	}
	c.SetCookie(cookie)

	return errors.WithStack(c.JSON(http.StatusOK, map[string]string{"message": "Logged out successfully"}))
}

// me returns the current authenticated user's info.
func (h *handler) me(c echo.Context) error {
	ctx := c.Request().Context()

	cookie, err := c.Cookie(CookieName)
	if err != nil || cookie.Value == "" {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Not authenticated"})
	}

	claims, err := h.authService.ValidateToken(cookie.Value)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Invalid or expired token"})
	}

	user, err := h.authService.GetUserByID(ctx, claims.UserID)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "User not found"})
	}

	return errors.WithStack(c.JSON(http.StatusOK, buildMeResponse(user)))
}
