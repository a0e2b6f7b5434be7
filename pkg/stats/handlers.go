package stats

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

type handler struct {
	statsService *Service
}

func (h *handler) summary(c echo.Context) error {
	ctx := c.Request().Context()

	summary, err := h.statsService.Summarize(ctx)
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, summary))
}
