package books

type ListBooksQuery struct {
	Limit   int     `query:"limit" json:"limit,omitempty" default:"50" validate:"min=1,max=100"`
	Offset  int     `query:"offset" json:"offset,omitempty" validate:"min=0"`
	Search  *string `query:"search" json:"search,omitempty" validate:"omitempty,max=200"`
	GenreID *int    `query:"genre_id" json:"genre_id,omitempty" validate:"omitempty,min=1"`
	Status  *string `query:"status" json:"status,omitempty" validate:"omitempty,oneof=available borrowed reserved"`
}

type CreateBookPayload struct {
	Title           string  `json:"title" mod:"trim" validate:"required,max=500"`
	AuthorID        int     `json:"author_id" validate:"required,min=1"`
	ISBN            *string `json:"isbn,omitempty" mod:"trim" validate:"omitempty,min=10,max=17"`
	GenreID         *int    `json:"genre_id,omitempty" validate:"omitempty,min=1"`
	Description     *string `json:"description,omitempty" validate:"omitempty,max=10000"`
	PublishedDate   *string `json:"published_date,omitempty" validate:"omitempty,date"`
	TotalCopies     int     `json:"total_copies" default:"1" validate:"min=1"`
	AvailableCopies *int    `json:"available_copies,omitempty" validate:"omitempty,min=0"`
}

type UpdateBookPayload struct {
	Title           *string `json:"title,omitempty" mod:"trim" validate:"omitempty,min=1,max=500"`
	AuthorID        *int    `json:"author_id,omitempty" validate:"omitempty,min=1"`
	ISBN            *string `json:"isbn,omitempty" mod:"trim" validate:"omitempty,max=17"`
	GenreID         *int    `json:"genre_id,omitempty" validate:"omitempty,min=1"`
	Description     *string `json:"description,omitempty" validate:"omitempty,max=10000"`
	PublishedDate   *string `json:"published_date,omitempty" validate:"omitempty,date"`
	TotalCopies     *int    `json:"total_copies,omitempty" validate:"omitempty,min=1"`
	AvailableCopies *int    `json:"available_copies,omitempty" validate:"omitempty,min=0"`
}
