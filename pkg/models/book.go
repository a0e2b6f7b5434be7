package models

import (
	"time"

	"github.com/uptrace/bun"
)

// Book statuses. BookStatusReserved is defined for forward compatibility but
// no operation currently produces it.
const (
	BookStatusAvailable = "available"
	BookStatusBorrowed  = "borrowed"
	BookStatusReserved  = "reserved"
)

type Book struct {
	bun.BaseModel `bun:"table:books,alias:b"`

	ID              int        `bun:",pk,nullzero" json:"id"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
	Title           string     `bun:",nullzero" json:"title"`
	AuthorID        int        `bun:",nullzero" json:"author_id"`
	Author          *Author    `bun:"rel:belongs-to,join:author_id=id" json:"author,omitempty"`
	ISBN            *string    `bun:"isbn" json:"isbn"`
	GenreID         *int       `json:"genre_id"`
	Genre           *Genre     `bun:"rel:belongs-to,join:genre_id=id" json:"genre,omitempty"`
	Description     *string    `json:"description"`
	PublishedDate   *time.Time `json:"published_date"`
	TotalCopies     int        `bun:",nullzero" json:"total_copies"`
	AvailableCopies int        `json:"available_copies"`
	Status          string     `bun:",nullzero" json:"status"`
	CoverImagePath  *string    `json:"cover_image_path"`
	ContentFilePath *string    `json:"content_file_path"`
}

// HasContent reports whether the book has a digital content file attached.
func (b *Book) HasContent() bool {
	return b.ContentFilePath != nil && *b.ContentFilePath != ""
}

// DeriveBookStatus computes a book's status from its available copy count.
// It is the only place status is decided; every book persist goes through it
// so the stored status can never drift from the copy count. It never returns
// BookStatusReserved.
func DeriveBookStatus(availableCopies int) string {
	if availableCopies == 0 {
		return BookStatusBorrowed
	}
	return BookStatusAvailable
}
