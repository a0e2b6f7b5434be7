package authors

import (
	"net/http"
	"strconv"
	"time"

	"github.com/kashihonbooks/kashihon/pkg/errcodes"
	"github.com/kashihonbooks/kashihon/pkg/models"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

type handler struct {
	authorService *Service
}

func (h *handler) list(c echo.Context) error {
	ctx := c.Request().Context()

	params := ListAuthorsQuery{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	authors, total, err := h.authorService.ListAuthorsWithTotal(ctx, ListAuthorsOptions{
		Limit:  &params.Limit,
		Offset: &params.Offset,
		Search: params.Search,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	resp := struct {
		Authors []*models.Author `json:"authors"`
		Total   int              `json:"total"`
	}{authors, total}

	return errors.WithStack(c.JSON(http.StatusOK, resp))
}

func (h *handler) retrieve(c echo.Context) error {
	ctx := c.Request().Context()
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return errcodes.NotFound("Author")
	}

	author, err := h.authorService.RetrieveAuthor(ctx, RetrieveAuthorOptions{
		ID:           &id,
		IncludeBooks: true,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, author))
}

func (h *handler) create(c echo.Context) error {
	ctx := c.Request().Context()

	params := CreateAuthorPayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	author := &models.Author{
		Name: params.Name,
		Bio:  params.Bio,
	}
	if params.BirthDate != nil && *params.BirthDate != "" {
		birthDate, err := time.Parse("2006-01-02", *params.BirthDate)
		if err != nil {
			return errcodes.ValidationError("birth_date must be a valid date")
		}
		author.BirthDate = &birthDate
	}

	if err := h.authorService.CreateAuthor(ctx, author); err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusCreated, author))
}

func (h *handler) update(c echo.Context) error {
	ctx := c.Request().Context()
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return errcodes.NotFound("Author")
	}

	params := UpdateAuthorPayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	author, err := h.authorService.RetrieveAuthor(ctx, RetrieveAuthorOptions{
		ID: &id,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	// Keep track of what's been changed.
	opts := UpdateAuthorOptions{Columns: []string{}}

	if params.Name != nil && *params.Name != author.Name {
		author.Name = *params.Name
		opts.Columns = append(opts.Columns, "name")
	}
	if params.Bio != nil {
		author.Bio = params.Bio
		opts.Columns = append(opts.Columns, "bio")
	}
	if params.BirthDate != nil {
		if *params.BirthDate == "" {
			author.BirthDate = nil
		} else {
			birthDate, err := time.Parse("2006-01-02", *params.BirthDate)
			if err != nil {
				return errcodes.ValidationError("birth_date must be a valid date")
			}
			author.BirthDate = &birthDate
		}
		opts.Columns = append(opts.Columns, "birth_date")
	}

	if err := h.authorService.UpdateAuthor(ctx, author, opts); err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, author))
}

func (h *handler) deleteAuthor(c echo.Context) error {
	ctx := c.Request().Context()
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return errcodes.NotFound("Author")
	}

	if err := h.authorService.DeleteAuthor(ctx, id); err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.NoContent(http.StatusNoContent))
}
