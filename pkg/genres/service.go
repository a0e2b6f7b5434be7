package genres

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

type RetrieveGenreOptions struct {
	ID   *int
	Name *string
}

type ListGenresOptions struct {
	Limit  *int
	Offset *int
	Search *string

	includeTotal bool
}

type UpdateGenreOptions struct {
	Columns []string
}

type Service struct {
	db *bun.DB
}

func NewService(db *bun.DB) *Service {
	return &Service{db}
}

func (svc *Service) CreateGenre(ctx context.Context, genre *models.Genre) error {
	genre.Name = strings.TrimSpace(genre.Name)

	// Genre names are unique (case-insensitive).
	exists, err := svc.db.NewSelect().
		Model((*models.Genre)(nil)).
		Where("LOWER(g.name) = LOWER(?)", genre.Name).
		Exists(ctx)
	if err != nil {
		return errors.WithStack(err)
	}
	if exists {
		return errcodes.Conflict("A genre with that name already exists.")
	}

	now := time.Now()
	if genre.CreatedAt.IsZero() {
		genre.CreatedAt = now
	}
	genre.UpdatedAt = genre.CreatedAt

	_, err = svc.db.
		NewInsert().
		Model(genre).
		Returning("*").
		Exec(ctx)
	return errors.WithStack(err)
}

func (svc *Service) RetrieveGenre(ctx context.Context, opts RetrieveGenreOptions) (*models.Genre, error) {
	genre := &models.Genre{}

	q := svc.db.
		NewSelect().
		Model(genre).
		ColumnExpr("g.*").
		ColumnExpr("(SELECT COUNT(*) FROM books b WHERE b.genre_id = g.id) AS book_count")

	if opts.ID != nil {
		q = q.Where("g.id = ?", *opts.ID)
	}
	if opts.Name != nil {
		q = q.Where("LOWER(g.name) = LOWER(?)", *opts.Name)
	}

	err := q.Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errcodes.NotFound("Genre")
		}
		return nil, errors.WithStack(err)
	}

	return genre, nil
}

func (svc *Service) ListGenres(ctx context.Context, opts ListGenresOptions) ([]*models.Genre, error) {
	g, _, err := svc.listGenresWithTotal(ctx, opts)
	return g, errors.WithStack(err)
}

func (svc *Service) ListGenresWithTotal(ctx context.Context, opts ListGenresOptions) ([]*models.Genre, int, error) {
	opts.includeTotal = true
	return svc.listGenresWithTotal(ctx, opts)
}

func (svc *Service) listGenresWithTotal(ctx context.Context, opts ListGenresOptions) ([]*models.Genre, int, error) {
	genres := []*models.Genre{}
	var total int
	var err error

	q := svc.db.
		NewSelect().
		Model(&genres).
		ColumnExpr("g.*").
		ColumnExpr("(SELECT COUNT(*) FROM books b WHERE b.genre_id = g.id) AS book_count").
		Order("g.name ASC")

	if opts.Search != nil && *opts.Search != "" {
		q = q.Where("g.name LIKE ? COLLATE NOCASE", "%"+*opts.Search+"%")
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

	return genres, total, nil
}

func (svc *Service) UpdateGenre(ctx context.Context, genre *models.Genre, opts UpdateGenreOptions) error {
	if len(opts.Columns) == 0 {
		return nil
	}

	if contains(opts.Columns, "name") {
		genre.Name = strings.TrimSpace(genre.Name)
		taken, err := svc.db.NewSelect().
			Model((*models.Genre)(nil)).
			Where("LOWER(g.name) = LOWER(?)", genre.Name).
			Where("g.id != ?", genre.ID).
			Exists(ctx)
		if err != nil {
			return errors.WithStack(err)
		}
		if taken {
			return errcodes.Conflict("A genre with that name already exists.")
		}
	}

	genre.UpdatedAt = time.Now()
	opts.Columns = append(opts.Columns, "updated_at")

	_, err := svc.db.
		NewUpdate().
		Model(genre).
		Column(opts.Columns...).
		WherePK().
		Exec(ctx)
	return errors.WithStack(err)
}

// DeleteGenre removes a genre. Books referencing it keep existing with their
// genre cleared (ON DELETE SET NULL).
func (svc *Service) DeleteGenre(ctx context.Context, id int) error {
	res, err := svc.db.
		NewDelete().
		Model((*models.Genre)(nil)).
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
		return errcodes.NotFound("Genre")
	}
	return nil
}

func contains(cols []string, col string) bool {
	for _, c := range cols {
		if c == col {
			return true
		}
	}
	return false
}
