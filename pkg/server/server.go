package server

import (
	"fmt"
	"net/http"
	"time"

	"github.com/kashihonbooks/kashihon/pkg/auth"
	"github.com/kashihonbooks/kashihon/pkg/authors"
	"github.com/kashihonbooks/kashihon/pkg/binder"
	"github.com/kashihonbooks/kashihon/pkg/books"
	"github.com/kashihonbooks/kashihon/pkg/borrowings"
	"github.com/kashihonbooks/kashihon/pkg/config"
	"github.com/kashihonbooks/kashihon/pkg/errcodes"
	"github.com/kashihonbooks/kashihon/pkg/fileutils"
	"github.com/kashihonbooks/kashihon/pkg/genres"
	"github.com/kashihonbooks/kashihon/pkg/stats"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/echo/v4/health"
	"github.com/robinjoseph08/golib/echo/v4/middleware/logger"
	"github.com/robinjoseph08/golib/echo/v4/middleware/recovery"
	"github.com/uptrace/bun"
)

func New(cfg *config.Config, db *bun.DB, store *fileutils.Store) (*http.Server, error) {
	e := echo.New()

	b, err := binder.New()
	if err != nil {
		return nil, errors.WithStack(err)
	}
	e.Binder = b

	e.Use(logger.Middleware())
	e.Use(recovery.Middleware())
	e.Use(middleware.CORS())

	health.RegisterRoutes(e)

	// Register auth routes and get the auth service
	authService := auth.RegisterRoutes(e, db, cfg.JWTSecret)
	authMiddleware := auth.NewMiddleware(authService)

	authors.RegisterRoutes(e, db, authMiddleware)
	genres.RegisterRoutes(e, db, authMiddleware)
	books.RegisterRoutes(e, db, store, authMiddleware)
	borrowings.RegisterRoutes(e, db, authMiddleware)
	stats.RegisterRoutes(e, db)

	echo.NotFoundHandler = notFoundHandler
	e.HTTPErrorHandler = errcodes.NewHandler().Handle

	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.ServerHost, cfg.ServerPort),
		Handler:           e,
		ReadHeaderTimeout: 3 * time.Second,
	}

	return srv, nil
}

func notFoundHandler(c echo.Context) error {
	c.SetPath("/:path")
	return errcodes.NotFound("Page")
}
