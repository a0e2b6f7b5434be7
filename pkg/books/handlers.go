package books

import (
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/kashihonbooks/kashihon/pkg/auth"
	"github.com/kashihonbooks/kashihon/pkg/errcodes"
	"github.com/kashihonbooks/kashihon/pkg/fileutils"
	"github.com/kashihonbooks/kashihon/pkg/models"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

type handler struct {
	bookService *Service
}

func (h *handler) list(c echo.Context) error {
	ctx := c.Request().Context()

	params := ListBooksQuery{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	books, total, err := h.bookService.ListBooksWithTotal(ctx, ListBooksOptions{
		Limit:   &params.Limit,
		Offset:  &params.Offset,
		Search:  params.Search,
		GenreID: params.GenreID,
		Status:  params.Status,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	resp := struct {
		Books []*models.Book `json:"books"`
		Total int            `json:"total"`
	}{books, total}

	return errors.WithStack(c.JSON(http.StatusOK, resp))
}

func (h *handler) retrieve(c echo.Context) error {
	ctx := c.Request().Context()
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return errcodes.NotFound("Book")
	}

	book, err := h.bookService.RetrieveBook(ctx, RetrieveBookOptions{
		ID: &id,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, book))
}

func (h *handler) create(c echo.Context) error {
	ctx := c.Request().Context()

	params := CreateBookPayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	book := &models.Book{
		Title:       params.Title,
		AuthorID:    params.AuthorID,
		GenreID:     params.GenreID,
		Description: params.Description,
		TotalCopies: params.TotalCopies,
	}
	if params.ISBN != nil && *params.ISBN != "" {
		book.ISBN = params.ISBN
	}
	if params.PublishedDate != nil && *params.PublishedDate != "" {
		publishedDate, err := time.Parse("2006-01-02", *params.PublishedDate)
		if err != nil {
			return errcodes.ValidationError("published_date must be a valid date")
		}
		book.PublishedDate = &publishedDate
	}

	// New stock is fully on the shelf unless told otherwise.
	if params.AvailableCopies != nil {
		book.AvailableCopies = *params.AvailableCopies
	} else {
		book.AvailableCopies = params.TotalCopies
	}

	if err := h.bookService.CreateBook(ctx, book); err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusCreated, book))
}

func (h *handler) update(c echo.Context) error {
	ctx := c.Request().Context()
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return errcodes.NotFound("Book")
	}

	params := UpdateBookPayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	book, err := h.bookService.RetrieveBook(ctx, RetrieveBookOptions{
		ID: &id,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	// Keep track of what's been changed.
	opts := UpdateBookOptions{Columns: []string{}}

	if params.Title != nil && *params.Title != book.Title {
		book.Title = *params.Title
		opts.Columns = append(opts.Columns, "title")
	}
	if params.AuthorID != nil && *params.AuthorID != book.AuthorID {
		book.AuthorID = *params.AuthorID
		opts.Columns = append(opts.Columns, "author_id")
	}
	if params.ISBN != nil {
		if *params.ISBN == "" {
			book.ISBN = nil
		} else {
			book.ISBN = params.ISBN
		}
		opts.Columns = append(opts.Columns, "isbn")
	}
	if params.GenreID != nil {
		if *params.GenreID == 0 {
			book.GenreID = nil
		} else {
			book.GenreID = params.GenreID
		}
		opts.Columns = append(opts.Columns, "genre_id")
	}
	if params.Description != nil {
		book.Description = params.Description
		opts.Columns = append(opts.Columns, "description")
	}
	if params.PublishedDate != nil {
		if *params.PublishedDate == "" {
			book.PublishedDate = nil
		} else {
			publishedDate, err := time.Parse("2006-01-02", *params.PublishedDate)
			if err != nil {
				return errcodes.ValidationError("published_date must be a valid date")
			}
			book.PublishedDate = &publishedDate
		}
		opts.Columns = append(opts.Columns, "published_date")
	}
	if params.TotalCopies != nil && *params.TotalCopies != book.TotalCopies {
		book.TotalCopies = *params.TotalCopies
		opts.Columns = append(opts.Columns, "total_copies")
	}
	if params.AvailableCopies != nil && *params.AvailableCopies != book.AvailableCopies {
		book.AvailableCopies = *params.AvailableCopies
		opts.Columns = append(opts.Columns, "available_copies")
	}

	if err := h.bookService.UpdateBook(ctx, book, opts); err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, book))
}

func (h *handler) deleteBook(c echo.Context) error {
	ctx := c.Request().Context()
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return errcodes.NotFound("Book")
	}

	if err := h.bookService.DeleteBook(ctx, id); err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.NoContent(http.StatusNoContent))
}

func (h *handler) uploadCover(c echo.Context) error {
	ctx := c.Request().Context()
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return errcodes.NotFound("Book")
	}

	book, err := h.bookService.RetrieveBook(ctx, RetrieveBookOptions{
		ID: &id,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	fileHeader, err := c.FormFile("cover")
	if err != nil {
		return errcodes.ValidationError("cover file is required")
	}

	f, err := fileHeader.Open()
	if err != nil {
		return errors.WithStack(err)
	}
	defer f.Close()

	mtype, err := mimetype.DetectReader(f)
	if err != nil {
		return errors.WithStack(err)
	}
	if !strings.HasPrefix(mtype.String(), "image/") {
		return errcodes.UnsupportedMediaType()
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return errors.WithStack(err)
	}

	if err := h.bookService.AttachCover(ctx, book, fileHeader.Filename, f); err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, book))
}

func (h *handler) uploadContent(c echo.Context) error {
	ctx := c.Request().Context()
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return errcodes.NotFound("Book")
	}

	book, err := h.bookService.RetrieveBook(ctx, RetrieveBookOptions{
		ID: &id,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	fileHeader, err := c.FormFile("content")
	if err != nil {
		return errcodes.ValidationError("content file is required")
	}

	f, err := fileHeader.Open()
	if err != nil {
		return errors.WithStack(err)
	}
	defer f.Close()

	if err := h.bookService.AttachContent(ctx, book, fileHeader.Filename, f); err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, book))
}

func (h *handler) getCover(c echo.Context) error {
	ctx := c.Request().Context()
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return errcodes.NotFound("Book")
	}

	book, err := h.bookService.RetrieveBook(ctx, RetrieveBookOptions{
		ID: &id,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	f, err := h.bookService.OpenCover(book)
	if err != nil {
		return errors.WithStack(err)
	}
	defer f.Close()

	mtype, err := mimetype.DetectReader(f)
	if err != nil {
		return errors.WithStack(err)
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.Stream(http.StatusOK, mtype.String(), f))
}

func (h *handler) getContent(c echo.Context) error {
	return h.serveContent(c, false)
}

func (h *handler) downloadContent(c echo.Context) error {
	return h.serveContent(c, true)
}

func (h *handler) serveContent(c echo.Context, asAttachment bool) error {
	ctx := c.Request().Context()
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return errcodes.NotFound("Book")
	}

	user := auth.UserFromEchoContext(c)
	if user == nil {
		return errcodes.Unauthorized("Authentication required")
	}

	book, err := h.bookService.RetrieveBook(ctx, RetrieveBookOptions{
		ID: &id,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	// A book without content is not found for everyone, regardless of
	// access rights.
	if !book.HasContent() {
		return errcodes.NotFound("Book content")
	}

	allowed, err := h.bookService.CanAccessContent(ctx, user, book.ID)
	if err != nil {
		return errors.WithStack(err)
	}
	if !allowed {
		return errcodes.Forbidden("Accessing this book's content without an active borrowing")
	}

	f, err := h.bookService.OpenContent(book)
	if err != nil {
		return errors.WithStack(err)
	}
	defer f.Close()

	filename := filepath.Base(*book.ContentFilePath)
	if asAttachment {
		c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", filename))
		return errors.WithStack(c.Stream(http.StatusOK, "application/octet-stream", f))
	}

	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("inline; filename=%q", filename))
	return errors.WithStack(c.Stream(http.StatusOK, fileutils.MediaTypeForFilename(filename), f))
}
