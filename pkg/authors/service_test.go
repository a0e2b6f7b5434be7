package authors

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/kashihonbooks/kashihon/pkg/errcodes"
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

func seedBook(ctx context.Context, t *testing.T, db *bun.DB, authorID int, title string) *models.Book {
	t.Helper()

	now := time.Now()
	book := &models.Book{
		CreatedAt:       now,
		UpdatedAt:       now,
		Title:           title,
		AuthorID:        authorID,
		TotalCopies:     1,
		AvailableCopies: 1,
		Status:          models.DeriveBookStatus(1),
	}
	_, err := db.NewInsert().Model(book).Returning("*").Exec(ctx)
	require.NoError(t, err)

	return book
}

func TestServiceCreateAuthor(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := NewService(db)
	ctx := context.Background()

	author := &models.Author{Name: "George Orwell"}
	require.NoError(t, svc.CreateAuthor(ctx, author))
	assert.NotZero(t, author.ID)
	assert.False(t, author.CreatedAt.IsZero())
}

func TestServiceRetrieveAuthor_WithBooks(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := NewService(db)
	ctx := context.Background()

	author := &models.Author{Name: "George Orwell"}
	require.NoError(t, svc.CreateAuthor(ctx, author))
	seedBook(ctx, t, db, author.ID, "Animal Farm")
	seedBook(ctx, t, db, author.ID, "1984")

	got, err := svc.RetrieveAuthor(ctx, RetrieveAuthorOptions{
		ID:           &author.ID,
		IncludeBooks: true,
	})
	require.NoError(t, err)
	assert.Equal(t, 2, got.BookCount)
	require.Len(t, got.Books, 2)
	// Books are title-ordered.
	assert.Equal(t, "1984", got.Books[0].Title)
	assert.Equal(t, "Animal Farm", got.Books[1].Title)
}

func TestServiceRetrieveAuthor_NotFound(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := NewService(db)

	id := 9999
	_, err := svc.RetrieveAuthor(context.Background(), RetrieveAuthorOptions{ID: &id})
	require.Error(t, err)
	var ec *errcodes.Error
	require.ErrorAs(t, err, &ec)
	assert.Equal(t, "not_found", ec.Code)
}

func TestServiceListAuthors(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := NewService(db)
	ctx := context.Background()

	require.NoError(t, svc.CreateAuthor(ctx, &models.Author{Name: "Ursula K. Le Guin"}))
	orwell := &models.Author{Name: "George Orwell"}
	require.NoError(t, svc.CreateAuthor(ctx, orwell))
	seedBook(ctx, t, db, orwell.ID, "1984")

	authors, total, err := svc.ListAuthorsWithTotal(ctx, ListAuthorsOptions{})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	require.Len(t, authors, 2)
	// Ordered by name.
	assert.Equal(t, "George Orwell", authors[0].Name)
	assert.Equal(t, 1, authors[0].BookCount)
	assert.Equal(t, 0, authors[1].BookCount)

	search := "orwell"
	authors, total, err = svc.ListAuthorsWithTotal(ctx, ListAuthorsOptions{Search: &search})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, authors, 1)
	assert.Equal(t, "George Orwell", authors[0].Name)
}

func TestServiceDeleteAuthor_CascadesBooks(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := NewService(db)
	ctx := context.Background()

	author := &models.Author{Name: "George Orwell"}
	require.NoError(t, svc.CreateAuthor(ctx, author))
	book := seedBook(ctx, t, db, author.ID, "1984")

	now := time.Now()
	borrowing := &models.Borrowing{
		CreatedAt:     now,
		UpdatedAt:     now,
		BookID:        book.ID,
		BorrowerName:  "Reader",
		BorrowerEmail: "reader@example.com",
		BorrowDate:    now,
		DueDate:       now.AddDate(0, 0, 14),
	}
	_, err := db.NewInsert().Model(borrowing).Returning("*").Exec(ctx)
	require.NoError(t, err)

	require.NoError(t, svc.DeleteAuthor(ctx, author.ID))

	bookCount, err := db.NewSelect().Model((*models.Book)(nil)).Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, bookCount)

	borrowingCount, err := db.NewSelect().Model((*models.Borrowing)(nil)).Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, borrowingCount)
}

func TestServiceDeleteAuthor_NotFound(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := NewService(db)

	err := svc.DeleteAuthor(context.Background(), 9999)
	require.Error(t, err)
	var ec *errcodes.Error
	require.ErrorAs(t, err, &ec)
	assert.Equal(t, "not_found", ec.Code)
}
