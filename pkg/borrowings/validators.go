package borrowings

type ListBorrowingsQuery struct {
	Limit  int     `query:"limit" json:"limit,omitempty" default:"50" validate:"min=1,max=100"`
	Offset int     `query:"offset" json:"offset,omitempty" validate:"min=0"`
	BookID *int    `query:"book_id" json:"book_id,omitempty" validate:"omitempty,min=1"`
	Email  *string `query:"email" json:"email,omitempty" validate:"omitempty,email"`
	Status *string `query:"status" json:"status,omitempty" validate:"omitempty,oneof=active returned"`
}

type CreateBorrowingPayload struct {
	BookID        int     `json:"book_id" validate:"required,min=1"`
	BorrowerName  *string `json:"borrower_name,omitempty" mod:"trim" validate:"omitempty,max=200"`
	BorrowerEmail *string `json:"borrower_email,omitempty" mod:"trim" validate:"omitempty,email"`
	BorrowerPhone *string `json:"borrower_phone,omitempty" mod:"trim" validate:"omitempty,max=40"`
	BorrowDate    *string `json:"borrow_date,omitempty" validate:"omitempty,date"`
	DueDate       string  `json:"due_date" validate:"required,date"`
}
