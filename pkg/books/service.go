package books

import (
	"context"
	"database/sql"
	"io"
	"os"
	"time"

	"github.com/kashihonbooks/kashihon/pkg/errcodes"
	"github.com/kashihonbooks/kashihon/pkg/fileutils"
	"github.com/kashihonbooks/kashihon/pkg/models"
	"github.com/pkg/errors"
	"github.com/uptrace/bun"
)

type RetrieveBookOptions struct {
	ID *int
}

type ListBooksOptions struct {
	Limit   *int
	Offset  *int
	Search  *string
	GenreID *int
	Status  *string

	includeTotal bool
}

type UpdateBookOptions struct {
	Columns []string
}

type Service struct {
	db    *bun.DB
	store *fileutils.Store
}

func NewService(db *bun.DB, store *fileutils.Store) *Service {
	return &Service{db: db, store: store}
}

func (svc *Service) CreateBook(ctx context.Context, book *models.Book) error {
	if err := validateCopies(book); err != nil {
		return err
	}
	if err := svc.validateReferences(ctx, book); err != nil {
		return err
	}
	if err := svc.checkISBNConflict(ctx, book); err != nil {
		return err
	}

	now := time.Now()
	if book.CreatedAt.IsZero() {
		book.CreatedAt = now
	}
	book.UpdatedAt = book.CreatedAt
	book.Status = models.DeriveBookStatus(book.AvailableCopies)

	_, err := svc.db.
		NewInsert().
		Model(book).
		Returning("*").
		Exec(ctx)
	return errors.WithStack(err)
}

func (svc *Service) RetrieveBook(ctx context.Context, opts RetrieveBookOptions) (*models.Book, error) {
	book := &models.Book{}

	q := svc.db.
		NewSelect().
		Model(book).
		Relation("Author").
		Relation("Genre")

	if opts.ID != nil {
		q = q.Where("b.id = ?", *opts.ID)
	}

	err := q.Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errcodes.NotFound("Book")
		}
		return nil, errors.WithStack(err)
	}

	return book, nil
}

func (svc *Service) ListBooks(ctx context.Context, opts ListBooksOptions) ([]*models.Book, error) {
	b, _, err := svc.listBooksWithTotal(ctx, opts)
	return b, errors.WithStack(err)
}

func (svc *Service) ListBooksWithTotal(ctx context.Context, opts ListBooksOptions) ([]*models.Book, int, error) {
	opts.includeTotal = true
	return svc.listBooksWithTotal(ctx, opts)
}

func (svc *Service) listBooksWithTotal(ctx context.Context, opts ListBooksOptions) ([]*models.Book, int, error) {
	books := []*models.Book{}
	var total int
	var err error

	q := svc.db.
		NewSelect().
		Model(&books).
		Relation("Author").
		Relation("Genre").
		Order("b.title ASC")

	if opts.Search != nil && *opts.Search != "" {
		pattern := "%" + *opts.Search + "%"
		q = q.WhereGroup(" AND ", func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.
				Where("b.title LIKE ? COLLATE NOCASE", pattern).
				WhereOr("author.name LIKE ? COLLATE NOCASE", pattern).
				WhereOr("b.isbn LIKE ? COLLATE NOCASE", pattern).
				WhereOr("b.description LIKE ? COLLATE NOCASE", pattern)
		})
	}
	if opts.GenreID != nil {
		q = q.Where("b.genre_id = ?", *opts.GenreID)
	}
	if opts.Status != nil && *opts.Status != "" {
		q = q.Where("b.status = ?", *opts.Status)
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

	return books, total, nil
}

func (svc *Service) UpdateBook(ctx context.Context, book *models.Book, opts UpdateBookOptions) error {
	if len(opts.Columns) == 0 {
		return nil
	}

	if err := validateCopies(book); err != nil {
		return err
	}
	if contains(opts.Columns, "author_id") || contains(opts.Columns, "genre_id") {
		if err := svc.validateReferences(ctx, book); err != nil {
			return err
		}
	}
	if contains(opts.Columns, "isbn") {
		if err := svc.checkISBNConflict(ctx, book); err != nil {
			return err
		}
	}

	// Status is recomputed on every persist so it can never drift from the
	// copy count.
	book.Status = models.DeriveBookStatus(book.AvailableCopies)
	if !contains(opts.Columns, "status") {
		opts.Columns = append(opts.Columns, "status")
	}

	book.UpdatedAt = time.Now()
	opts.Columns = append(opts.Columns, "updated_at")

	_, err := svc.db.
		NewUpdate().
		Model(book).
		Column(opts.Columns...).
		WherePK().
		Exec(ctx)
	return errors.WithStack(err)
}

// DeleteBook removes a book and its stored blobs. Borrowings are
// cascade-deleted by the schema. Blob removal is best-effort; a stray file is
// preferable to a dangling row.
func (svc *Service) DeleteBook(ctx context.Context, id int) error {
	book, err := svc.RetrieveBook(ctx, RetrieveBookOptions{ID: &id})
	if err != nil {
		return errors.WithStack(err)
	}

	_, err = svc.db.
		NewDelete().
		Model((*models.Book)(nil)).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return errors.WithStack(err)
	}

	if book.CoverImagePath != nil {
		svc.store.Remove(*book.CoverImagePath)
	}
	if book.ContentFilePath != nil {
		svc.store.Remove(*book.ContentFilePath)
	}

	return nil
}

// AttachCover stores a new cover blob, points the book at it, and removes the
// previous blob if there was one.
func (svc *Service) AttachCover(ctx context.Context, book *models.Book, filename string, r io.Reader) error {
	key, err := svc.store.SaveCover(filename, r)
	if err != nil {
		return errors.WithStack(err)
	}

	old := book.CoverImagePath
	book.CoverImagePath = &key

	err = svc.UpdateBook(ctx, book, UpdateBookOptions{Columns: []string{"cover_image_path"}})
	if err != nil {
		svc.store.Remove(key)
		return errors.WithStack(err)
	}

	if old != nil {
		svc.store.Remove(*old)
	}
	return nil
}

// AttachContent stores a new content blob, points the book at it, and removes
// the previous blob if there was one.
func (svc *Service) AttachContent(ctx context.Context, book *models.Book, filename string, r io.Reader) error {
	key, err := svc.store.SaveContent(filename, r)
	if err != nil {
		return errors.WithStack(err)
	}

	old := book.ContentFilePath
	book.ContentFilePath = &key

	err = svc.UpdateBook(ctx, book, UpdateBookOptions{Columns: []string{"content_file_path"}})
	if err != nil {
		svc.store.Remove(key)
		return errors.WithStack(err)
	}

	if old != nil {
		svc.store.Remove(*old)
	}
	return nil
}

// OpenCover opens the book's cover image blob for reading. A book without a
// cover, or whose blob is missing from disk, is reported as not found.
func (svc *Service) OpenCover(book *models.Book) (*os.File, error) {
	if book.CoverImagePath == nil || *book.CoverImagePath == "" || !svc.store.Exists(*book.CoverImagePath) {
		return nil, errcodes.NotFound("Book cover")
	}

	f, err := svc.store.Open(*book.CoverImagePath)
	return f, errors.WithStack(err)
}

// OpenContent opens the book's content blob for reading. A book without
// content, or whose blob is missing from disk, is reported as not found.
func (svc *Service) OpenContent(book *models.Book) (*os.File, error) {
	if !book.HasContent() || !svc.store.Exists(*book.ContentFilePath) {
		return nil, errcodes.NotFound("Book content")
	}

	f, err := svc.store.Open(*book.ContentFilePath)
	return f, errors.WithStack(err)
}

func validateCopies(book *models.Book) error {
	if book.TotalCopies < 1 {
		return errcodes.ValidationError("total_copies must be at least 1")
	}
	if book.AvailableCopies < 0 {
		return errcodes.ValidationError("available_copies cannot be negative")
	}
	if book.AvailableCopies > book.TotalCopies {
		return errcodes.ValidationError("available_copies cannot exceed total_copies")
	}
	return nil
}

func (svc *Service) validateReferences(ctx context.Context, book *models.Book) error {
	exists, err := svc.db.
		NewSelect().
		Model((*models.Author)(nil)).
		Where("id = ?", book.AuthorID).
		Exists(ctx)
	if err != nil {
		return errors.WithStack(err)
	}
	if !exists {
		return errcodes.NotFound("Author")
	}

	if book.GenreID != nil {
		exists, err = svc.db.
			NewSelect().
			Model((*models.Genre)(nil)).
			Where("id = ?", *book.GenreID).
			Exists(ctx)
		if err != nil {
			return errors.WithStack(err)
		}
		if !exists {
			return errcodes.NotFound("Genre")
		}
	}

	return nil
}

func (svc *Service) checkISBNConflict(ctx context.Context, book *models.Book) error {
	if book.ISBN == nil || *book.ISBN == "" {
		return nil
	}

	q := svc.db.
		NewSelect().
		Model((*models.Book)(nil)).
		Where("isbn = ? COLLATE NOCASE", *book.ISBN)
	if book.ID != 0 {
		q = q.Where("id != ?", book.ID)
	}

	exists, err := q.Exists(ctx)
	if err != nil {
		return errors.WithStack(err)
	}
	if exists {
		return errcodes.Conflict("A book with this ISBN already exists.")
	}
	return nil
}

func contains(s []string, e string) bool {
	for _, v := range s {
		if v == e {
			return true
		}
	}
	return false
}
