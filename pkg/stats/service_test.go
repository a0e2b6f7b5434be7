package stats

import (
	"context"
	"database/sql"
	"testing"
	"time"

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

	_, err = migrations.BringUpToDate(context.Background(), db)
	require.NoError(t, err)

	t.Cleanup(func() {
		db.Close()
	})

	return db
}

func TestServiceSummarize(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := NewService(db)
	ctx := context.Background()

	summary, err := svc.Summarize(ctx)
	require.NoError(t, err)
	assert.Equal(t, &Summary{}, summary)

	now := time.Now()
	author := &models.Author{Name: "George Orwell", CreatedAt: now, UpdatedAt: now}
	_, err = db.NewInsert().Model(author).Returning("*").Exec(ctx)
	require.NoError(t, err)

	genre := &models.Genre{Name: "Dystopian", CreatedAt: now, UpdatedAt: now}
	_, err = db.NewInsert().Model(genre).Returning("*").Exec(ctx)
	require.NoError(t, err)

	available := &models.Book{
		CreatedAt: now, UpdatedAt: now,
		Title: "Animal Farm", AuthorID: author.ID,
		TotalCopies: 1, AvailableCopies: 1,
		Status: models.DeriveBookStatus(1),
	}
	_, err = db.NewInsert().Model(available).Returning("*").Exec(ctx)
	require.NoError(t, err)

	borrowed := &models.Book{
		CreatedAt: now, UpdatedAt: now,
		Title: "1984", AuthorID: author.ID,
		TotalCopies: 1, AvailableCopies: 0,
		Status: models.DeriveBookStatus(0),
	}
	_, err = db.NewInsert().Model(borrowed).Returning("*").Exec(ctx)
	require.NoError(t, err)

	active := &models.Borrowing{
		CreatedAt: now, UpdatedAt: now,
		BookID:       borrowed.ID,
		BorrowerName: "Reader", BorrowerEmail: "reader@example.com",
		BorrowDate: now, DueDate: now.AddDate(0, 0, 14),
	}
	_, err = db.NewInsert().Model(active).Returning("*").Exec(ctx)
	require.NoError(t, err)

	returnDate := now
	done := &models.Borrowing{
		CreatedAt: now, UpdatedAt: now,
		BookID:       available.ID,
		BorrowerName: "Reader", BorrowerEmail: "reader@example.com",
		BorrowDate: now.AddDate(0, 0, -20), DueDate: now.AddDate(0, 0, -6),
		ReturnDate: &returnDate, IsReturned: true,
	}
	_, err = db.NewInsert().Model(done).Returning("*").Exec(ctx)
	require.NoError(t, err)

	summary, err = svc.Summarize(ctx)
	require.NoError(t, err)
	assert.Equal(t, &Summary{
		TotalBooks:       2,
		TotalAuthors:     1,
		TotalGenres:      1,
		AvailableBooks:   1,
		BorrowedBooks:    1,
		ActiveBorrowings: 1,
		TotalBorrowings:  2,
	}, summary)
}
