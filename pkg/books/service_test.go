package books

import (
	"context"
	"database/sql"
	"strings"
	"testing"
	"time"

	"github.com/kashihonbooks/kashihon/pkg/errcodes"
	"github.com/kashihonbooks/kashihon/pkg/fileutils"
	"github.com/kashihonbooks/kashihon/pkg/migrations"
	"github.com/kashihonbooks/kashihon/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

func newTestDB(t *testing.T) *bun.DB {
	t.Helper()

	sqldb, err := sql.Open(sqliteshim.ShimName, ":memory:")
	require.NoError(t, err)
	// In-memory SQLite databases are per-connection.
	sqldb.SetMaxOpenConns(1)

	db := bun.NewDB(sqldb, sqlitedialect.New())

	_, err = db.Exec("PRAGMA foreign_keys=ON")
	require.NoError(t, err)

	_, err = migrations.BringUpToDate(context.Background(), db)
	require.NoError(t, err)

	t.Cleanup(func() {
		db.Close()
	})

	return db
}

func newTestService(t *testing.T) (*Service, *bun.DB, *fileutils.Store) {
	t.Helper()

	db := newTestDB(t)
	store := fileutils.NewStore(t.TempDir())
	require.NoError(t, store.Init())

	return NewService(db, store), db, store
}

func seedAuthor(ctx context.Context, t *testing.T, db *bun.DB, name string) *models.Author {
	t.Helper()

	now := time.Now()
	author := &models.Author{Name: name, CreatedAt: now, UpdatedAt: now}
	_, err := db.NewInsert().Model(author).Returning("*").Exec(ctx)
	require.NoError(t, err)

	return author
}

func seedGenre(ctx context.Context, t *testing.T, db *bun.DB, name string) *models.Genre {
	t.Helper()

	now := time.Now()
	genre := &models.Genre{Name: name, CreatedAt: now, UpdatedAt: now}
	_, err := db.NewInsert().Model(genre).Returning("*").Exec(ctx)
	require.NoError(t, err)

	return genre
}

func TestServiceCreateBook_DerivesStatus(t *testing.T) {
	t.Parallel()

	svc, db, _ := newTestService(t)
	ctx := context.Background()
	author := seedAuthor(ctx, t, db, "George Orwell")

	book := &models.Book{
		Title:           "1984",
		AuthorID:        author.ID,
		TotalCopies:     3,
		AvailableCopies: 3,
	}
	require.NoError(t, svc.CreateBook(ctx, book))
	assert.Equal(t, models.BookStatusAvailable, book.Status)

	exhausted := &models.Book{
		Title:           "Animal Farm",
		AuthorID:        author.ID,
		TotalCopies:     2,
		AvailableCopies: 0,
	}
	require.NoError(t, svc.CreateBook(ctx, exhausted))
	assert.Equal(t, models.BookStatusBorrowed, exhausted.Status)
}

func TestServiceCreateBook_CopyValidation(t *testing.T) {
	t.Parallel()

	svc, db, _ := newTestService(t)
	ctx := context.Background()
	author := seedAuthor(ctx, t, db, "George Orwell")

	tests := []struct {
		name  string
		total int
		avail int
	}{
		{"zero total", 0, 0},
		{"negative available", 2, -1},
		{"available exceeds total", 2, 3},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			err := svc.CreateBook(ctx, &models.Book{
				Title:           "1984",
				AuthorID:        author.ID,
				TotalCopies:     test.total,
				AvailableCopies: test.avail,
			})
			require.Error(t, err)
			var ec *errcodes.Error
			require.ErrorAs(t, err, &ec)
			assert.Equal(t, "validation_error", ec.Code)
		})
	}
}

func TestServiceCreateBook_UnknownReferences(t *testing.T) {
	t.Parallel()

	svc, db, _ := newTestService(t)
	ctx := context.Background()
	author := seedAuthor(ctx, t, db, "George Orwell")

	err := svc.CreateBook(ctx, &models.Book{
		Title:           "1984",
		AuthorID:        9999,
		TotalCopies:     1,
		AvailableCopies: 1,
	})
	require.Error(t, err)
	var ec *errcodes.Error
	require.ErrorAs(t, err, &ec)
	assert.Equal(t, "not_found", ec.Code)
	assert.Contains(t, ec.Message, "Author")

	badGenre := 9999
	err = svc.CreateBook(ctx, &models.Book{
		Title:           "1984",
		AuthorID:        author.ID,
		GenreID:         &badGenre,
		TotalCopies:     1,
		AvailableCopies: 1,
	})
	require.Error(t, err)
	require.ErrorAs(t, err, &ec)
	assert.Equal(t, "not_found", ec.Code)
	assert.Contains(t, ec.Message, "Genre")
}

func TestServiceCreateBook_ISBNConflict(t *testing.T) {
	t.Parallel()

	svc, db, _ := newTestService(t)
	ctx := context.Background()
	author := seedAuthor(ctx, t, db, "George Orwell")

	isbn := "9780451524935"
	require.NoError(t, svc.CreateBook(ctx, &models.Book{
		Title:           "1984",
		AuthorID:        author.ID,
		ISBN:            &isbn,
		TotalCopies:     1,
		AvailableCopies: 1,
	}))

	dup := "9780451524935"
	err := svc.CreateBook(ctx, &models.Book{
		Title:           "1984 (reprint)",
		AuthorID:        author.ID,
		ISBN:            &dup,
		TotalCopies:     1,
		AvailableCopies: 1,
	})
	require.Error(t, err)
	var ec *errcodes.Error
	require.ErrorAs(t, err, &ec)
	assert.Equal(t, "conflict", ec.Code)

	// Books without an ISBN never conflict with each other.
	require.NoError(t, svc.CreateBook(ctx, &models.Book{
		Title:           "Animal Farm",
		AuthorID:        author.ID,
		TotalCopies:     1,
		AvailableCopies: 1,
	}))
	require.NoError(t, svc.CreateBook(ctx, &models.Book{
		Title:           "Coming Up for Air",
		AuthorID:        author.ID,
		TotalCopies:     1,
		AvailableCopies: 1,
	}))
}

func TestServiceUpdateBook_RederivesStatus(t *testing.T) {
	t.Parallel()

	svc, db, _ := newTestService(t)
	ctx := context.Background()
	author := seedAuthor(ctx, t, db, "George Orwell")

	book := &models.Book{
		Title:           "1984",
		AuthorID:        author.ID,
		TotalCopies:     2,
		AvailableCopies: 2,
	}
	require.NoError(t, svc.CreateBook(ctx, book))

	book.AvailableCopies = 0
	require.NoError(t, svc.UpdateBook(ctx, book, UpdateBookOptions{
		Columns: []string{"available_copies"},
	}))
	assert.Equal(t, models.BookStatusBorrowed, book.Status)

	reloaded, err := svc.RetrieveBook(ctx, RetrieveBookOptions{ID: &book.ID})
	require.NoError(t, err)
	assert.Equal(t, models.BookStatusBorrowed, reloaded.Status)
}

func TestServiceListBooks_Search(t *testing.T) {
	t.Parallel()

	svc, db, _ := newTestService(t)
	ctx := context.Background()
	orwell := seedAuthor(ctx, t, db, "George Orwell")
	leguin := seedAuthor(ctx, t, db, "Ursula K. Le Guin")

	isbn := "9780451524935"
	desc := "A dystopian classic."
	require.NoError(t, svc.CreateBook(ctx, &models.Book{
		Title:           "1984",
		AuthorID:        orwell.ID,
		ISBN:            &isbn,
		Description:     &desc,
		TotalCopies:     1,
		AvailableCopies: 1,
	}))
	require.NoError(t, svc.CreateBook(ctx, &models.Book{
		Title:           "The Dispossessed",
		AuthorID:        leguin.ID,
		TotalCopies:     1,
		AvailableCopies: 1,
	}))

	tests := []struct {
		name   string
		search string
		want   []string
	}{
		{"title match", "1984", []string{"1984"}},
		{"author match, case-insensitive", "ORWELL", []string{"1984"}},
		{"isbn match", "9780451524935", []string{"1984"}},
		{"description match", "dystopian", []string{"1984"}},
		{"partial match across fields", "guin", []string{"The Dispossessed"}},
		{"no match", "tolstoy", []string{}},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			search := test.search
			books, total, err := svc.ListBooksWithTotal(ctx, ListBooksOptions{Search: &search})
			require.NoError(t, err)
			assert.Equal(t, len(test.want), total)
			titles := []string{}
			for _, b := range books {
				titles = append(titles, b.Title)
			}
			assert.Equal(t, test.want, titles)
		})
	}
}

func TestServiceListBooks_GenreAndStatusFilters(t *testing.T) {
	t.Parallel()

	svc, db, _ := newTestService(t)
	ctx := context.Background()
	author := seedAuthor(ctx, t, db, "George Orwell")
	genre := seedGenre(ctx, t, db, "Dystopian")

	require.NoError(t, svc.CreateBook(ctx, &models.Book{
		Title:           "1984",
		AuthorID:        author.ID,
		GenreID:         &genre.ID,
		TotalCopies:     1,
		AvailableCopies: 1,
	}))
	require.NoError(t, svc.CreateBook(ctx, &models.Book{
		Title:           "Animal Farm",
		AuthorID:        author.ID,
		TotalCopies:     1,
		AvailableCopies: 0,
	}))

	books, total, err := svc.ListBooksWithTotal(ctx, ListBooksOptions{GenreID: &genre.ID})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, books, 1)
	assert.Equal(t, "1984", books[0].Title)

	status := models.BookStatusBorrowed
	books, total, err = svc.ListBooksWithTotal(ctx, ListBooksOptions{Status: &status})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, books, 1)
	assert.Equal(t, "Animal Farm", books[0].Title)
}

func TestServiceAttachAndOpenContent(t *testing.T) {
	t.Parallel()

	svc, db, store := newTestService(t)
	ctx := context.Background()
	author := seedAuthor(ctx, t, db, "George Orwell")

	book := &models.Book{
		Title:           "1984",
		AuthorID:        author.ID,
		TotalCopies:     1,
		AvailableCopies: 1,
	}
	require.NoError(t, svc.CreateBook(ctx, book))

	_, err := svc.OpenContent(book)
	require.Error(t, err)
	var ec *errcodes.Error
	require.ErrorAs(t, err, &ec)
	assert.Equal(t, "not_found", ec.Code)

	require.NoError(t, svc.AttachContent(ctx, book, "1984.epub", strings.NewReader("epub bytes")))
	require.NotNil(t, book.ContentFilePath)
	first := *book.ContentFilePath

	f, err := svc.OpenContent(book)
	require.NoError(t, err)
	f.Close()

	// Re-uploading replaces the blob.
	require.NoError(t, svc.AttachContent(ctx, book, "1984-v2.epub", strings.NewReader("new bytes")))
	assert.False(t, store.Exists(first))
	assert.True(t, store.Exists(*book.ContentFilePath))
}

func TestServiceAttachCover(t *testing.T) {
	t.Parallel()

	svc, db, store := newTestService(t)
	ctx := context.Background()
	author := seedAuthor(ctx, t, db, "George Orwell")

	book := &models.Book{
		Title:           "1984",
		AuthorID:        author.ID,
		TotalCopies:     1,
		AvailableCopies: 1,
	}
	require.NoError(t, svc.CreateBook(ctx, book))

	_, err := svc.OpenCover(book)
	require.Error(t, err)
	var ec *errcodes.Error
	require.ErrorAs(t, err, &ec)
	assert.Equal(t, "not_found", ec.Code)

	require.NoError(t, svc.AttachCover(ctx, book, "cover.jpg", strings.NewReader("jpeg bytes")))
	require.NotNil(t, book.CoverImagePath)
	assert.True(t, store.Exists(*book.CoverImagePath))

	f, err := svc.OpenCover(book)
	require.NoError(t, err)
	f.Close()
}

func TestServiceDeleteBook_RemovesBlobs(t *testing.T) {
	t.Parallel()

	svc, db, store := newTestService(t)
	ctx := context.Background()
	author := seedAuthor(ctx, t, db, "George Orwell")

	book := &models.Book{
		Title:           "1984",
		AuthorID:        author.ID,
		TotalCopies:     1,
		AvailableCopies: 1,
	}
	require.NoError(t, svc.CreateBook(ctx, book))
	require.NoError(t, svc.AttachContent(ctx, book, "1984.pdf", strings.NewReader("pdf bytes")))
	key := *book.ContentFilePath

	require.NoError(t, svc.DeleteBook(ctx, book.ID))
	assert.False(t, store.Exists(key))

	_, err := svc.RetrieveBook(ctx, RetrieveBookOptions{ID: &book.ID})
	require.Error(t, err)
	var ec *errcodes.Error
	require.ErrorAs(t, err, &ec)
	assert.Equal(t, "not_found", ec.Code)
}
