package books

import (
	"context"

	"github.com/kashihonbooks/kashihon/pkg/models"
	"github.com/pkg/errors"
)

// CanAccessContent reports whether the user may read a book's content.
// Administrators always can; everyone else needs an unreturned borrowing
// recorded against their email.
func (svc *Service) CanAccessContent(ctx context.Context, user *models.User, bookID int) (bool, error) {
	if user.IsAdmin() {
		return true, nil
	}

	exists, err := svc.db.
		NewSelect().
		Model((*models.Borrowing)(nil)).
		Where("book_id = ?", bookID).
		Where("borrower_email = ? COLLATE NOCASE", user.Email).
		Where("is_returned = ?", false).
		Exists(ctx)
	return exists, errors.WithStack(err)
}
