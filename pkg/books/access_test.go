package books

import (
	"context"
	"testing"
	"time"

	"github.com/kashihonbooks/kashihon/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
)

func seedBorrowing(ctx context.Context, t *testing.T, db *bun.DB, bookID int, email string, returned bool) *models.Borrowing {
	t.Helper()

	now := time.Now()
	borrowing := &models.Borrowing{
		CreatedAt:     now,
		UpdatedAt:     now,
		BookID:        bookID,
		BorrowerName:  "Reader",
		BorrowerEmail: email,
		BorrowDate:    now,
		DueDate:       now.AddDate(0, 0, 14),
		IsReturned:    returned,
	}
	if returned {
		borrowing.ReturnDate = &now
	}
	_, err := db.NewInsert().Model(borrowing).Returning("*").Exec(ctx)
	require.NoError(t, err)

	return borrowing
}

func TestServiceCanAccessContent(t *testing.T) {
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

	admin := &models.User{Email: "admin@example.com", Role: models.RoleAdmin}
	borrower := &models.User{Email: "reader@example.com", Role: models.RoleMember}
	stranger := &models.User{Email: "stranger@example.com", Role: models.RoleMember}

	seedBorrowing(ctx, t, db, book.ID, "reader@example.com", false)

	allowed, err := svc.CanAccessContent(ctx, admin, book.ID)
	require.NoError(t, err)
	assert.True(t, allowed, "admins always have access")

	allowed, err = svc.CanAccessContent(ctx, borrower, book.ID)
	require.NoError(t, err)
	assert.True(t, allowed, "active borrower has access")

	allowed, err = svc.CanAccessContent(ctx, stranger, book.ID)
	require.NoError(t, err)
	assert.False(t, allowed, "member without a borrowing is denied")
}

func TestServiceCanAccessContent_EmailCaseInsensitive(t *testing.T) {
	t.Parallel()

	svc, db, _ := newTestService(t)
	ctx := context.Background()
	author := seedAuthor(ctx, t, db, "George Orwell")

	book := &models.Book{
		Title:           "1984",
		AuthorID:        author.ID,
		TotalCopies:     1,
		AvailableCopies: 1,
	}
	require.NoError(t, svc.CreateBook(ctx, book))

	seedBorrowing(ctx, t, db, book.ID, "Reader@Example.com", false)

	member := &models.User{Email: "reader@example.com", Role: models.RoleMember}
	allowed, err := svc.CanAccessContent(ctx, member, book.ID)
	require.NoError(t, err)
	assert.True(t, allowed)
}

func TestServiceCanAccessContent_ReturnedBorrowingDenied(t *testing.T) {
	t.Parallel()

	svc, db, _ := newTestService(t)
	ctx := context.Background()
	author := seedAuthor(ctx, t, db, "George Orwell")

	book := &models.Book{
		Title:           "1984",
		AuthorID:        author.ID,
		TotalCopies:     1,
		AvailableCopies: 1,
	}
	require.NoError(t, svc.CreateBook(ctx, book))

	seedBorrowing(ctx, t, db, book.ID, "reader@example.com", true)

	member := &models.User{Email: "reader@example.com", Role: models.RoleMember}
	allowed, err := svc.CanAccessContent(ctx, member, book.ID)
	require.NoError(t, err)
	assert.False(t, allowed, "a returned borrowing grants no access")
}
