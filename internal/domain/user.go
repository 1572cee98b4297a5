package domain

import "time"

// User is the profile returned by the identity API.
type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Username  string    `json:"username"`
	AvatarURL *string   `json:"avatarUrl,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Credentials is the login and register payload.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// UpdateUserRequest is the PATCH /users/me payload.
type UpdateUserRequest struct {
	Username string `json:"username,omitempty"`
}
