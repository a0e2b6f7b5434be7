package borrowings

import (
	"github.com/kashihonbooks/kashihon/pkg/auth"
	"github.com/labstack/echo/v4"
	"github.com/uptrace/bun"
)

// RegisterRoutes registers borrowing routes. Every route requires an
// authenticated user; per-borrowing ownership is enforced in the handlers.
func RegisterRoutes(e *echo.Echo, db *bun.DB, authMiddleware *auth.Middleware) {
	borrowingService := NewService(db)

	h := &handler{
		borrowingService: borrowingService,
	}

	g := e.Group("/borrowings", authMiddleware.Authenticate)
	g.GET("", h.list)
	g.GET("/:id", h.retrieve)
	g.POST("", h.create)
	g.POST("/:id/return", h.returnBorrowing)
}
