// Data transfer objects for the user CRUD endpoints.
package users

import "github.com/user/accounts-go/auth"

// UpdateUserRequest carries an update of a user record. Name and email are
// required, as on registration; the password is only rehashed and replaced
// when one is supplied.
type UpdateUserRequest struct {
	Name     string  `json:"name" validate:"required,max=255" example:"Alice"`
	Email    string  `json:"email" validate:"required,email,max=255" example:"alice@example.com"`
	Password *string `json:"password,omitempty" validate:"omitempty,min=6" example:"secret1"`
}

// Pagination carries the listing metadata. The URL fields are nil on the
// boundary pages.
type Pagination struct {
	Total       int     `json:"total" example:"42"`
	CurrentPage int     `json:"current_page" example:"2"`
	LastPage    int     `json:"last_page" example:"5"`
	PerPage     int     `json:"per_page" example:"10"`
	NextPageURL *string `json:"next_page_url"`
	PrevPageURL *string `json:"prev_page_url"`
}

// ListResponse is the payload for the user listing endpoint.
type ListResponse struct {
	Status     string      `json:"status" example:"success"`
	Data       []auth.User `json:"data"`
	Pagination Pagination  `json:"pagination"`
}

// UserResponse is the payload for fetching a single user record.
type UserResponse struct {
	Status string    `json:"status" example:"success"`
	Data   auth.User `json:"data"`
}

// MessageResponse is a generic status/message payload.
type MessageResponse struct {
	Status  string `json:"status" example:"success"`
	Message string `json:"message" example:"User updated successfully"`
}
