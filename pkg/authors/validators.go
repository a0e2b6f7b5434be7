package authors

type ListAuthorsQuery struct {
	Limit  int     `query:"limit" json:"limit,omitempty" default:"50" validate:"min=1,max=100"`
	Offset int     `query:"offset" json:"offset,omitempty" validate:"min=0"`
	Search *string `query:"search" json:"search,omitempty" validate:"omitempty,max=100"`
}

type CreateAuthorPayload struct {
	Name      string  `json:"name" mod:"trim" validate:"required,max=200"`
	Bio       *string `json:"bio,omitempty" validate:"omitempty,max=5000"`
	BirthDate *string `json:"birth_date,omitempty" validate:"omitempty,date"`
}

type UpdateAuthorPayload struct {
	Name      *string `json:"name,omitempty" mod:"trim" validate:"omitempty,min=1,max=200"`
	Bio       *string `json:"bio,omitempty" validate:"omitempty,max=5000"`
	BirthDate *string `json:"birth_date,omitempty" validate:"omitempty,date"`
}
