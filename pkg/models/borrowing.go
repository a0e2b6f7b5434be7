package models

import (
	"time"

	"github.com/uptrace/bun"
)

// Borrowing status filter values accepted by the list endpoint.
const (
	BorrowingStatusActive   = "active"
	BorrowingStatusReturned = "returned"
)

type Borrowing struct {
	bun.BaseModel `bun:"table:borrowings,alias:bw"`

	ID            int        `bun:",pk,nullzero" json:"id"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
	BookID        int        `bun:",nullzero" json:"book_id"`
	Book          *Book      `bun:"rel:belongs-to,join:book_id=id" json:"book,omitempty"`
	BorrowerName  string     `bun:",nullzero" json:"borrower_name"`
	BorrowerEmail string     `bun:",nullzero" json:"borrower_email"`
	BorrowerPhone *string    `json:"borrower_phone"`
	BorrowDate    time.Time  `json:"borrow_date"`
	DueDate       time.Time  `json:"due_date"`
	ReturnDate    *time.Time `json:"return_date"`
	IsReturned    bool       `json:"is_returned"`
}
