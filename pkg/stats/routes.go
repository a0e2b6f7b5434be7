package stats

import (
	"github.com/labstack/echo/v4"
	"github.com/uptrace/bun"
)

func RegisterRoutes(e *echo.Echo, db *bun.DB) {
	statsService := NewService(db)

	h := &handler{
		statsService: statsService,
	}

	e.GET("/stats", h.summary)
}
