package borrowings

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/kashihonbooks/kashihon/pkg/errcodes"
	"github.com/kashihonbooks/kashihon/pkg/models"
	"github.com/pkg/errors"
	"github.com/uptrace/bun"
)

type RetrieveBorrowingOptions struct {
	ID *int
}

type ListBorrowingsOptions struct {
	Limit  *int
	Offset *int
	BookID *int
	// Email scopes results to one borrower. Handlers always set it for
	// non-admin callers.
	Email  *string
	Status *string

	includeTotal bool
}

type Service struct {
	db *bun.DB
}

func NewService(db *bun.DB) *Service {
	return &Service{db}
}

// CreateBorrowing checks out one copy of a book. The copy decrement is a
// conditional update so two concurrent checkouts can never take the same last
// copy; losing the race is reported as a conflict.
func (svc *Service) CreateBorrowing(ctx context.Context, borrowing *models.Borrowing) error {
	now := time.Now()
	if borrowing.BorrowDate.IsZero() {
		borrowing.BorrowDate = now
	}
	if borrowing.DueDate.IsZero() {
		return errcodes.ValidationError("due_date is required")
	}
	borrowing.CreatedAt = now
	borrowing.UpdatedAt = now
	borrowing.IsReturned = false
	borrowing.ReturnDate = nil

	err := svc.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		// Writing first takes the write lock up front, so the transaction
		// never has to upgrade from a read lock mid-flight.
		res, err := tx.NewUpdate().
			Model((*models.Book)(nil)).
			Set("available_copies = available_copies - 1").
			Where("id = ?", borrowing.BookID).
			Where("available_copies > 0").
			Exec(ctx)
		if err != nil {
			return errors.WithStack(err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return errors.WithStack(err)
		}
		if affected == 0 {
			exists, err := tx.NewSelect().
				Model((*models.Book)(nil)).
				Where("id = ?", borrowing.BookID).
				Exists(ctx)
			if err != nil {
				return errors.WithStack(err)
			}
			if !exists {
				return errcodes.NotFound("Book")
			}
			return errcodes.Conflict("No copies of this book are available.")
		}

		book := &models.Book{}
		err = tx.NewSelect().
			Model(book).
			Where("b.id = ?", borrowing.BookID).
			Scan(ctx)
		if err != nil {
			return errors.WithStack(err)
		}

		_, err = tx.NewUpdate().
			Model((*models.Book)(nil)).
			Set("status = ?", models.DeriveBookStatus(book.AvailableCopies)).
			Set("updated_at = ?", now).
			Where("id = ?", borrowing.BookID).
			Exec(ctx)
		if err != nil {
			return errors.WithStack(err)
		}

		_, err = tx.NewInsert().
			Model(borrowing).
			Returning("*").
			Exec(ctx)
		return errors.WithStack(err)
	})
	return errors.WithStack(err)
}

// MarkReturned records a return. Only an administrator or the borrower
// themselves may return a borrowing. Returning an already-returned borrowing
// is a no-op, so the copy count is only ever incremented once per loan.
func (svc *Service) MarkReturned(ctx context.Context, id int, user *models.User) (*models.Borrowing, error) {
	borrowing, err := svc.RetrieveBorrowing(ctx, RetrieveBorrowingOptions{ID: &id})
	if err != nil {
		return nil, errors.WithStack(err)
	}

	if !user.IsAdmin() && !strings.EqualFold(user.Email, borrowing.BorrowerEmail) {
		return nil, errcodes.Forbidden("Returning another member's borrowing")
	}

	if borrowing.IsReturned {
		return borrowing, nil
	}

	now := time.Now()
	var returned bool
	err = svc.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		// The flip is conditional on is_returned still being false, so a
		// concurrent return can win at most once and the copy count is
		// incremented by exactly 1 per loan.
		res, err := tx.NewUpdate().
			Model((*models.Borrowing)(nil)).
			Set("is_returned = ?", true).
			Set("return_date = ?", now).
			Set("updated_at = ?", now).
			Where("id = ?", borrowing.ID).
			Where("is_returned = ?", false).
			Exec(ctx)
		if err != nil {
			return errors.WithStack(err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return errors.WithStack(err)
		}
		if affected == 0 {
			return nil
		}
		returned = true

		_, err = tx.NewUpdate().
			Model((*models.Book)(nil)).
			Set("available_copies = available_copies + 1").
			Where("id = ?", borrowing.BookID).
			Exec(ctx)
		if err != nil {
			return errors.WithStack(err)
		}

		book := &models.Book{}
		err = tx.NewSelect().
			Model(book).
			Where("b.id = ?", borrowing.BookID).
			Scan(ctx)
		if err != nil {
			return errors.WithStack(err)
		}

		_, err = tx.NewUpdate().
			Model((*models.Book)(nil)).
			Set("status = ?", models.DeriveBookStatus(book.AvailableCopies)).
			Set("updated_at = ?", now).
			Where("id = ?", borrowing.BookID).
			Exec(ctx)
		return errors.WithStack(err)
	})
	if err != nil {
		return nil, errors.WithStack(err)
	}

	if !returned {
		// A concurrent return beat this one; report the stored state.
		return svc.RetrieveBorrowing(ctx, RetrieveBorrowingOptions{ID: &id})
	}

	borrowing.IsReturned = true
	borrowing.ReturnDate = &now
	borrowing.UpdatedAt = now

	return borrowing, nil
}

func (svc *Service) RetrieveBorrowing(ctx context.Context, opts RetrieveBorrowingOptions) (*models.Borrowing, error) {
	borrowing := &models.Borrowing{}

	q := svc.db.
		NewSelect().
		Model(borrowing).
		Relation("Book").
		Relation("Book.Author")

	if opts.ID != nil {
		q = q.Where("bw.id = ?", *opts.ID)
	}

	err := q.Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errcodes.NotFound("Borrowing")
		}
		return nil, errors.WithStack(err)
	}

	return borrowing, nil
}

func (svc *Service) ListBorrowings(ctx context.Context, opts ListBorrowingsOptions) ([]*models.Borrowing, error) {
	b, _, err := svc.listBorrowingsWithTotal(ctx, opts)
	return b, errors.WithStack(err)
}

func (svc *Service) ListBorrowingsWithTotal(ctx context.Context, opts ListBorrowingsOptions) ([]*models.Borrowing, int, error) {
	opts.includeTotal = true
	return svc.listBorrowingsWithTotal(ctx, opts)
}

func (svc *Service) listBorrowingsWithTotal(ctx context.Context, opts ListBorrowingsOptions) ([]*models.Borrowing, int, error) {
	borrowings := []*models.Borrowing{}
	var total int
	var err error

	q := svc.db.
		NewSelect().
		Model(&borrowings).
		Relation("Book").
		Relation("Book.Author").
		Order("bw.borrow_date DESC", "bw.id DESC")

	if opts.BookID != nil {
		q = q.Where("bw.book_id = ?", *opts.BookID)
	}
	if opts.Email != nil {
		q = q.Where("bw.borrower_email = ? COLLATE NOCASE", *opts.Email)
	}
	if opts.Status != nil {
		switch *opts.Status {
		case models.BorrowingStatusActive:
			q = q.Where("bw.is_returned = ?", false)
		case models.BorrowingStatusReturned:
			q = q.Where("bw.is_returned = ?", true)
		}
	}
	if opts.Limit != nil {
		q = q.Limit(*opts.Limit)
	}
	if opts.Offset != nil {
		q = q.Offset(*opts.Offset)
	}

	if opts.includeTotal {
		total, err = q.ScanAndCount(ctx)
	} else {
		err = q.Scan(ctx)
	}
	if err != nil {
		return nil, 0, errors.WithStack(err)
	}

	return borrowings, total, nil
}
