package genres

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

func seedBook(ctx context.Context, t *testing.T, db *bun.DB, genreID *int) *models.Book {
	t.Helper()

	now := time.Now()
	author := &models.Author{Name: "George Orwell", CreatedAt: now, UpdatedAt: now}
	_, err := db.NewInsert().Model(author).Returning("*").Exec(ctx)
	require.NoError(t, err)

	book := &models.Book{
		CreatedAt:       now,
		UpdatedAt:       now,
		Title:           "1984",
		AuthorID:        author.ID,
		GenreID:         genreID,
		TotalCopies:     1,
		AvailableCopies: 1,
		Status:          models.DeriveBookStatus(1),
	}
	_, err = db.NewInsert().Model(book).Returning("*").Exec(ctx)
	require.NoError(t, err)

	return book
}

func TestServiceCreateGenre(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := NewService(db)
	ctx := context.Background()

	genre := &models.Genre{Name: "  Dystopian "}
	require.NoError(t, svc.CreateGenre(ctx, genre))
	assert.Equal(t, "Dystopian", genre.Name)
	assert.NotZero(t, genre.ID)
}

func TestServiceCreateGenre_DuplicateNameConflict(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := NewService(db)
	ctx := context.Background()

	require.NoError(t, svc.CreateGenre(ctx, &models.Genre{Name: "Dystopian"}))

	err := svc.CreateGenre(ctx, &models.Genre{Name: "dystopian"})
	require.Error(t, err)
	var ec *errcodes.Error
	require.ErrorAs(t, err, &ec)
	assert.Equal(t, "conflict", ec.Code)
}

func TestServiceUpdateGenre_NameConflict(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := NewService(db)
	ctx := context.Background()

	require.NoError(t, svc.CreateGenre(ctx, &models.Genre{Name: "Dystopian"}))
	second := &models.Genre{Name: "Satire"}
	require.NoError(t, svc.CreateGenre(ctx, second))

	second.Name = "DYSTOPIAN"
	err := svc.UpdateGenre(ctx, second, UpdateGenreOptions{Columns: []string{"name"}})
	require.Error(t, err)
	var ec *errcodes.Error
	require.ErrorAs(t, err, &ec)
	assert.Equal(t, "conflict", ec.Code)
}

func TestServiceDeleteGenre_ClearsBookGenre(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := NewService(db)
	ctx := context.Background()

	genre := &models.Genre{Name: "Dystopian"}
	require.NoError(t, svc.CreateGenre(ctx, genre))

	book := seedBook(ctx, t, db, &genre.ID)

	require.NoError(t, svc.DeleteGenre(ctx, genre.ID))

	// The book survives with its genre cleared.
	reloaded := &models.Book{}
	err := db.NewSelect().Model(reloaded).Where("b.id = ?", book.ID).Scan(ctx)
	require.NoError(t, err)
	assert.Nil(t, reloaded.GenreID)
}

func TestServiceDeleteGenre_NotFound(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := NewService(db)

	err := svc.DeleteGenre(context.Background(), 9999)
	require.Error(t, err)
	var ec *errcodes.Error
	require.ErrorAs(t, err, &ec)
	assert.Equal(t, "not_found", ec.Code)
}

func TestServiceListGenres_BookCounts(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := NewService(db)
	ctx := context.Background()

	genre := &models.Genre{Name: "Dystopian"}
	require.NoError(t, svc.CreateGenre(ctx, genre))
	require.NoError(t, svc.CreateGenre(ctx, &models.Genre{Name: "Satire"}))

	seedBook(ctx, t, db, &genre.ID)

	genres, total, err := svc.ListGenresWithTotal(ctx, ListGenresOptions{})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	require.Len(t, genres, 2)
	// Ordered by name: Dystopian, Satire.
	assert.Equal(t, "Dystopian", genres[0].Name)
	assert.Equal(t, 1, genres[0].BookCount)
	assert.Equal(t, 0, genres[1].BookCount)
}
