package authors

import (
	"context"
	"database/sql"
	"time"

	"github.com/kashihonbooks/kashihon/pkg/errcodes"
	"github.com/kashihonbooks/kashihon/pkg/models"
	"github.com/pkg/errors"
	"github.com/uptrace/bun"
)

type RetrieveAuthorOptions struct {
	ID           *int
	IncludeBooks bool
}

type ListAuthorsOptions struct {
	Limit  *int
	Offset *int
	Search *string

	includeTotal bool
}

type UpdateAuthorOptions struct {
	Columns []string
}

type Service struct {
	db *bun.DB
}

func NewService(db *bun.DB) *Service {
	return &Service{db}
}

func (svc *Service) CreateAuthor(ctx context.Context, author *models.Author) error {
	now := time.Now()
	if author.CreatedAt.IsZero() {
		author.CreatedAt = now
	}
	author.UpdatedAt = author.CreatedAt

	_, err := svc.db.
		NewInsert().
		Model(author).
		Returning("*").
		Exec(ctx)
	return errors.WithStack(err)
}

func (svc *Service) RetrieveAuthor(ctx context.Context, opts RetrieveAuthorOptions) (*models.Author, error) {
	author := &models.Author{}

	q := svc.db.
		NewSelect().
		Model(author).
		ColumnExpr("a.*").
		ColumnExpr("(SELECT COUNT(*) FROM books b WHERE b.author_id = a.id) AS book_count")

	if opts.IncludeBooks {
		q = q.Relation("Books", func(sq *bun.SelectQuery) *bun.SelectQuery {
			return sq.Order("title ASC")
		})
	}
	if opts.ID != nil {
		q = q.Where("a.id = ?", *opts.ID)
	}

	err := q.Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errcodes.NotFound("Author")
		}
		return nil, errors.WithStack(err)
	}

	return author, nil
}

func (svc *Service) ListAuthors(ctx context.Context, opts ListAuthorsOptions) ([]*models.Author, error) {
	a, _, err := svc.listAuthorsWithTotal(ctx, opts)
	return a, errors.WithStack(err)
}

func (svc *Service) ListAuthorsWithTotal(ctx context.Context, opts ListAuthorsOptions) ([]*models.Author, int, error) {
	opts.includeTotal = true
	return svc.listAuthorsWithTotal(ctx, opts)
}

func (svc *Service) listAuthorsWithTotal(ctx context.Context, opts ListAuthorsOptions) ([]*models.Author, int, error) {
	authors := []*models.Author{}
	var total int
	var err error

	q := svc.db.
		NewSelect().
		Model(&authors).
		ColumnExpr("a.*").
		ColumnExpr("(SELECT COUNT(*) FROM books b WHERE b.author_id = a.id) AS book_count").
		Order("a.name ASC")

	if opts.Search != nil && *opts.Search != "" {
		q = q.Where("a.name LIKE ? COLLATE NOCASE", "%"+*opts.Search+"%")
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

	return authors, total, nil
}

func (svc *Service) UpdateAuthor(ctx context.Context, author *models.Author, opts UpdateAuthorOptions) error {
	if len(opts.Columns) == 0 {
		return nil
	}

	author.UpdatedAt = time.Now()
	opts.Columns = append(opts.Columns, "updated_at")

	_, err := svc.db.
		NewUpdate().
		Model(author).
		Column(opts.Columns...).
		WherePK().
		Exec(ctx)
	return errors.WithStack(err)
}

// DeleteAuthor removes an author. The author's books, and those books'
// borrowings, are cascade-deleted by the schema.
func (svc *Service) DeleteAuthor(ctx context.Context, id int) error {
	res, err := svc.db.
		NewDelete().
		Model((*models.Author)(nil)).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return errors.WithStack(err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return errors.WithStack(err)
	}
	if affected == 0 {
		return errcodes.NotFound("Author")
	}
	return nil
}
