package stats

import (
	"context"

	"github.com/kashihonbooks/kashihon/pkg/models"
	"github.com/pkg/errors"
	"github.com/uptrace/bun"
)

// Summary holds the library-wide counts shown on the dashboard.
type Summary struct {
	TotalBooks       int `json:"total_books"`
	TotalAuthors     int `json:"total_authors"`
	TotalGenres      int `json:"total_genres"`
	AvailableBooks   int `json:"available_books"`
	BorrowedBooks    int `json:"borrowed_books"`
	ActiveBorrowings int `json:"active_borrowings"`
	TotalBorrowings  int `json:"total_borrowings"`
}

type Service struct {
	db *bun.DB
}

func NewService(db *bun.DB) *Service {
	return &Service{db}
}

func (svc *Service) Summarize(ctx context.Context) (*Summary, error) {
	s := &Summary{}
	var err error

	s.TotalBooks, err = svc.db.NewSelect().Model((*models.Book)(nil)).Count(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	s.TotalAuthors, err = svc.db.NewSelect().Model((*models.Author)(nil)).Count(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	s.TotalGenres, err = svc.db.NewSelect().Model((*models.Genre)(nil)).Count(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	s.AvailableBooks, err = svc.db.NewSelect().
		Model((*models.Book)(nil)).
		Where("status = ?", models.BookStatusAvailable).
		Count(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	s.BorrowedBooks, err = svc.db.NewSelect().
		Model((*models.Book)(nil)).
		Where("status = ?", models.BookStatusBorrowed).
		Count(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	s.ActiveBorrowings, err = svc.db.NewSelect().
		Model((*models.Borrowing)(nil)).
		Where("is_returned = ?", false).
		Count(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	s.TotalBorrowings, err = svc.db.NewSelect().Model((*models.Borrowing)(nil)).Count(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	return s, nil
}
