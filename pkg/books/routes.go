package books

import (
	"github.com/kashihonbooks/kashihon/pkg/auth"
	"github.com/kashihonbooks/kashihon/pkg/fileutils"
	"github.com/labstack/echo/v4"
	"github.com/uptrace/bun"
)

// RegisterRoutes registers book routes. Catalog reads are public, mutations
// and uploads are admin-only, and content delivery requires an authenticated
// user who passes the borrowing check.
func RegisterRoutes(e *echo.Echo, db *bun.DB, store *fileutils.Store, authMiddleware *auth.Middleware) *Service {
	bookService := NewService(db, store)

	h := &handler{
		bookService: bookService,
	}

	g := e.Group("/books")
	g.GET("", h.list)
	g.GET("/:id", h.retrieve)
	g.POST("", h.create, authMiddleware.Authenticate, authMiddleware.RequireAdmin)
	g.PATCH("/:id", h.update, authMiddleware.Authenticate, authMiddleware.RequireAdmin)
	g.DELETE("/:id", h.deleteBook, authMiddleware.Authenticate, authMiddleware.RequireAdmin)

	g.GET("/:id/cover", h.getCover)
	g.POST("/:id/cover", h.uploadCover, authMiddleware.Authenticate, authMiddleware.RequireAdmin)
	g.POST("/:id/content", h.uploadContent, authMiddleware.Authenticate, authMiddleware.RequireAdmin)

	g.GET("/:id/content", h.getContent, authMiddleware.Authenticate)
	g.GET("/:id/content/download", h.downloadContent, authMiddleware.Authenticate)

	return bookService
}
