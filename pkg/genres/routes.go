package genres

import (
	"github.com/kashihonbooks/kashihon/pkg/auth"
	"github.com/labstack/echo/v4"
	"github.com/uptrace/bun"
)

// RegisterRoutes registers genre routes. Reads are public; mutations are
// admin-only.
func RegisterRoutes(e *echo.Echo, db *bun.DB, authMiddleware *auth.Middleware) {
	genreService := NewService(db)

	h := &handler{
		genreService: genreService,
	}

	g := e.Group("/genres")
	g.GET("", h.list)
	g.GET("/:id", h.retrieve)
	g.POST("", h.create, authMiddleware.Authenticate, authMiddleware.RequireAdmin)
	g.PATCH("/:id", h.update, authMiddleware.Authenticate, authMiddleware.RequireAdmin)
	g.DELETE("/:id", h.deleteGenre, authMiddleware.Authenticate, authMiddleware.RequireAdmin)
}
