package auth

// RegisterPayload is the request body for creating an account.
type RegisterPayload struct {
	Username string `json:"username" mod:"trim" validate:"required,min=3,max=150"`
	Email    string `json:"email" mod:"trim" validate:"required,email,max=254"`
	Password string `json:"password" validate:"required,min=8,max=128"`
}

// LoginPayload is the request body for logging in.
type LoginPayload struct {
	Username string `json:"username" mod:"trim" validate:"required,max=150"`
	Password string `json:"password" validate:"required,max=128"`
}

// MeResponse is the public representation of the authenticated user.
type MeResponse struct {
	ID       int    `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Role     string `json:"role"`
	IsAdmin  bool   `json:"is_admin"`
}
