package users

import "github.com/mcdev12/eventrelay/go/internal/models"

// DefaultListLimit is the page size when GET /users has no limit
const DefaultListLimit = 10

// CreateUserRequest represents the data needed to create a new user
type CreateUserRequest struct {
	Username string `json:"username" validate:"required,max=64"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

// NewUser is what the repository stores for a validated request
type NewUser struct {
	Username     string
	Email        string
	PasswordHash string
}

// ListUsersRequest pages through users in creation order
type ListUsersRequest struct {
	Limit  int `validate:"gte=1,lte=100"`
	Offset int `validate:"gte=0,lte=2147483647"`
}

// UserList is the body of GET /users
type UserList struct {
	Users []*models.User `json:"users"`
}
