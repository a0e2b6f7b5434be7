package auth

import (
	"github.com/kashihonbooks/kashihon/pkg/errcodes"
	"github.com/kashihonbooks/kashihon/pkg/models"
	"github.com/labstack/echo/v4"
)

// Context keys for storing user data.
const (
	ContextKeyUserID   = "user_id"
	ContextKeyUsername = "username"
	ContextKeyUser     = "user"
)

// Middleware provides authentication middleware.
type Middleware struct {
	authService *Service
}

// NewMiddleware creates a new auth middleware.
func NewMiddleware(authService *Service) *Middleware {
	return &Middleware{
		authService: authService,
	}
}

// Authenticate extracts and validates the JWT from the cookie. If valid, it
// verifies the user is still active and adds user info to the context. If not
// authenticated, it returns 401.
func (m *Middleware) Authenticate(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()

		cookie, err := c.Cookie(CookieName)
		if err != nil || cookie.Value == "" {
			return errcodes.Unauthorized("Authentication required")
		}

		claims, err := m.authService.ValidateToken(cookie.Value)
		if err != nil {
			return errcodes.Unauthorized("Invalid or expired token")
		}

		// Verify user still exists and is active
		user, err := m.authService.GetUserByID(ctx, claims.UserID)
		if err != nil {
			return errcodes.Unauthorized("User not found or inactive")
		}

		c.Set(ContextKeyUserID, user.ID)
		c.Set(ContextKeyUsername, user.Username)
		c.Set(ContextKeyUser, user)

		return next(c)
	}
}

// AuthenticateOptional extracts user info if available but doesn't require
// authentication. If a valid token is present, it verifies the user is still
// active.
func (m *Middleware) AuthenticateOptional(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()

		cookie, err := c.Cookie(CookieName)
		if err == nil && cookie.Value != "" {
			claims, err := m.authService.ValidateToken(cookie.Value)
			if err == nil {
				user, err := m.authService.GetUserByID(ctx, claims.UserID)
				if err == nil {
					c.Set(ContextKeyUserID, user.ID)
					c.Set(ContextKeyUsername, user.Username)
					c.Set(ContextKeyUser, user)
				}
			}
		}
		return next(c)
	}
}

// RequireAdmin returns middleware that checks if the user is an
// administrator. Must be used after Authenticate middleware.
func (m *Middleware) RequireAdmin(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		user, ok := c.Get(ContextKeyUser).(*models.User)
		if !ok {
			return errcodes.Unauthorized("Authentication required")
		}

		if !user.IsAdmin() {
			return errcodes.Forbidden("Performing this action without administrator access")
		}

		return next(c)
	}
}

// UserFromEchoContext returns the authenticated user stored on the echo
// context, or nil if the request is anonymous.
func UserFromEchoContext(c echo.Context) *models.User {
	user, ok := c.Get(ContextKeyUser).(*models.User)
	if !ok {
		return nil
	}
	return user
}
