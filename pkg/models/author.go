package models

import (
	"time"

	"github.com/uptrace/bun"
)

type Author struct {
	bun.BaseModel `bun:"table:authors,alias:a"`

	ID        int        `bun:",pk,nullzero" json:"id"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	Name      string     `bun:",nullzero" json:"name"`
	Bio       *string    `json:"bio"`
	BirthDate *time.Time `json:"birth_date"`

	// Relations
	Books []*Book `bun:"rel:has-many,join:id=author_id" json:"books,omitempty"`

	BookCount int `bun:",scanonly" json:"book_count"`
}
