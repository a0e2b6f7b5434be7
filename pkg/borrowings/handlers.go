package borrowings

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/kashihonbooks/kashihon/pkg/auth"
	"github.com/kashihonbooks/kashihon/pkg/errcodes"
	"github.com/kashihonbooks/kashihon/pkg/models"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

type handler struct {
	borrowingService *Service
}

func (h *handler) list(c echo.Context) error {
	ctx := c.Request().Context()

	user := auth.UserFromEchoContext(c)
	if user == nil {
		return errcodes.Unauthorized("Authentication required")
	}

	params := ListBorrowingsQuery{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	opts := ListBorrowingsOptions{
		Limit:  &params.Limit,
		Offset: &params.Offset,
		BookID: params.BookID,
		Status: params.Status,
	}
	// Members only ever see their own borrowings.
	if user.IsAdmin() {
		opts.Email = params.Email
	} else {
		opts.Email = &user.Email
	}

	borrowings, total, err := h.borrowingService.ListBorrowingsWithTotal(ctx, opts)
	if err != nil {
		return errors.WithStack(err)
	}

	resp := struct {
		Borrowings []*models.Borrowing `json:"borrowings"`
		Total      int                 `json:"total"`
	}{borrowings, total}

	return errors.WithStack(c.JSON(http.StatusOK, resp))
}

func (h *handler) retrieve(c echo.Context) error {
	ctx := c.Request().Context()
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return errcodes.NotFound("Borrowing")
	}

	user := auth.UserFromEchoContext(c)
	if user == nil {
		return errcodes.Unauthorized("Authentication required")
	}

	borrowing, err := h.borrowingService.RetrieveBorrowing(ctx, RetrieveBorrowingOptions{
		ID: &id,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	if !user.IsAdmin() && !strings.EqualFold(user.Email, borrowing.BorrowerEmail) {
		return errcodes.Forbidden("Viewing another member's borrowing")
	}

	return errors.WithStack(c.JSON(http.StatusOK, borrowing))
}

func (h *handler) create(c echo.Context) error {
	ctx := c.Request().Context()

	user := auth.UserFromEchoContext(c)
	if user == nil {
		return errcodes.Unauthorized("Authentication required")
	}

	params := CreateBorrowingPayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	borrowing := &models.Borrowing{
		BookID:        params.BookID,
		BorrowerName:  user.Username,
		BorrowerEmail: user.Email,
		BorrowerPhone: params.BorrowerPhone,
	}
	if params.BorrowerName != nil && *params.BorrowerName != "" {
		borrowing.BorrowerName = *params.BorrowerName
	}
	// Only administrators can record a borrowing on behalf of someone else.
	if user.IsAdmin() && params.BorrowerEmail != nil && *params.BorrowerEmail != "" {
		borrowing.BorrowerEmail = *params.BorrowerEmail
	}

	if params.BorrowDate != nil && *params.BorrowDate != "" {
		borrowDate, err := time.Parse("2006-01-02", *params.BorrowDate)
		if err != nil {
			return errcodes.ValidationError("borrow_date must be a valid date")
		}
		borrowing.BorrowDate = borrowDate
	}
	dueDate, err := time.Parse("2006-01-02", params.DueDate)
	if err != nil {
		return errcodes.ValidationError("due_date must be a valid date")
	}
	borrowing.DueDate = dueDate
	if !borrowing.BorrowDate.IsZero() && borrowing.DueDate.Before(borrowing.BorrowDate) {
		return errcodes.ValidationError("due_date cannot be before borrow_date")
	}

	if err := h.borrowingService.CreateBorrowing(ctx, borrowing); err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusCreated, borrowing))
}

func (h *handler) returnBorrowing(c echo.Context) error {
	ctx := c.Request().Context()
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return errcodes.NotFound("Borrowing")
	}

	user := auth.UserFromEchoContext(c)
	if user == nil {
		return errcodes.Unauthorized("Authentication required")
	}

	borrowing, err := h.borrowingService.MarkReturned(ctx, id, user)
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, borrowing))
}
